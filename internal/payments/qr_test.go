package payments

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPayload(t *testing.T) {
	got, err := BuildPayload("https://pay.example/?order={order}&sum={amount}", 1001, " 1500 ")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/?order=1001&sum=1500", got)

	_, err = BuildPayload("  ", 1001, "1500")
	assert.ErrorIs(t, err, ErrNoTemplate)
}

func TestGenerateQRCodeIsPNG(t *testing.T) {
	png, err := GenerateQRCode("ST00012|Sum={amount}|Purpose=Заказ {order}", 1001, "1500")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

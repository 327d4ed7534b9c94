package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_APITOKEN", "123:abc")
	t.Setenv("ADMIN_IDS", " 10, 20 ,")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.AppEnv)
	assert.Equal(t, "xlsx", cfg.StoreBackend)
	assert.Equal(t, "memory", cfg.SessionBackend)
	assert.Equal(t, []int64{10, 20}, cfg.AdminIDs)
	assert.Equal(t, time.Duration(0), cfg.SessionTTL)
	assert.Equal(t, "8080", cfg.HTTPPort)
}

func TestLoadConfigRequiresToken(t *testing.T) {
	t.Setenv("TELEGRAM_APITOKEN", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigPostgresNeedsURL(t *testing.T) {
	t.Setenv("TELEGRAM_APITOKEN", "123:abc")
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestParseIDListRejectsGarbage(t *testing.T) {
	_, err := ParseIDList("1,two")
	assert.Error(t, err)

	ids, err := ParseIDList("")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := &Config{Timezone: "Nowhere/Atlantis"}
	assert.Equal(t, time.UTC, cfg.Location())
}

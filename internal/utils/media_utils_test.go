package utils

import (
	"testing"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
	"github.com/stretchr/testify/assert"
)

func TestGetMediaType(t *testing.T) {
	assert.Equal(t, "unknown", GetMediaType(nil))
	assert.Equal(t, "text", GetMediaType(&tgbotapi.Message{Text: "ул. Садовая, 5"}))
	assert.Equal(t, "photo", GetMediaType(&tgbotapi.Message{Photo: []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "big"}}}))
	assert.Equal(t, "application/pdf", GetMediaType(&tgbotapi.Message{Document: &tgbotapi.Document{MimeType: "application/pdf"}}))
	assert.Equal(t, "unknown", GetMediaType(&tgbotapi.Message{}))
}

func TestPhotoFileIDTakesLargest(t *testing.T) {
	id, ok := PhotoFileID(&tgbotapi.Message{Photo: []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "big"}}})
	assert.True(t, ok)
	assert.Equal(t, "big", id)

	_, ok = PhotoFileID(&tgbotapi.Message{Text: "без фото"})
	assert.False(t, ok)
}

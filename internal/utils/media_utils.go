// internal/utils/media_utils.go
package utils

import (
	tgbotapi "github.com/OvyFlash/telegram-bot-api"
)

// PhotoFileID возвращает file_id самого крупного варианта фото из сообщения.
func PhotoFileID(msg *tgbotapi.Message) (string, bool) {
	if msg == nil || len(msg.Photo) == 0 {
		return "", false
	}
	return msg.Photo[len(msg.Photo)-1].FileID, true
}

// GetMediaType определяет тип вложения в сообщении.
func GetMediaType(msg *tgbotapi.Message) string {
	if msg == nil {
		return "unknown"
	}
	switch {
	case len(msg.Photo) > 0:
		return "photo"
	case msg.Video != nil:
		return "video"
	case msg.Document != nil:
		return msg.Document.MimeType
	case msg.Text != "":
		return "text"
	}
	return "unknown"
}

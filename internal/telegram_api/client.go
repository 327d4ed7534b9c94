package telegram_api

import (
	"fmt"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
	"go.uber.org/zap"
)

// BotClient представляет собой обертку для Telegram Bot API.
// Реализует notify.Messenger.
type BotClient struct {
	api   *tgbotapi.BotAPI
	log   *zap.Logger
	Debug bool
}

// NewBotClient авторизуется по токену и отключает вебхук (работаем через getUpdates).
func NewBotClient(token string, debug bool, log *zap.Logger) (*BotClient, error) {
	if token == "" {
		return nil, fmt.Errorf("токен Telegram API не предоставлен")
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации Telegram Bot API: %w", err)
	}
	api.Debug = debug

	log.Info("Авторизован в Telegram", zap.String("username", api.Self.UserName))

	deleteWebhookConfig := tgbotapi.DeleteWebhookConfig{DropPendingUpdates: false}
	if _, err := api.Request(deleteWebhookConfig); err != nil {
		// Ошибка бывает, если вебхука и не было.
		log.Warn("Не удалось отключить вебхук", zap.Error(err))
	}

	return &BotClient{api: api, log: log, Debug: debug}, nil
}

// UserName - имя бота, под которым он авторизован.
func (bc *BotClient) UserName() string {
	return bc.api.Self.UserName
}

// GetUpdatesChan возвращает канал обновлений от Telegram.
func (bc *BotClient) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	if bc.Debug {
		bc.log.Debug("Запрос канала обновлений", zap.Int("timeout", config.Timeout))
	}
	return bc.api.GetUpdatesChan(config)
}

// StopReceivingUpdates закрывает канал обновлений.
func (bc *BotClient) StopReceivingUpdates() {
	bc.api.StopReceivingUpdates()
}

// Send отправляет сообщение через BotClient.
func (bc *BotClient) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if bc.Debug {
		switch msg := c.(type) {
		case tgbotapi.MessageConfig:
			bc.log.Debug("Отправка сообщения", zap.Int64("chat_id", msg.ChatID), zap.String("text", truncate(msg.Text)))
		case tgbotapi.EditMessageTextConfig:
			bc.log.Debug("Редактирование сообщения", zap.Int64("chat_id", msg.ChatID), zap.Int("message_id", msg.MessageID))
		case tgbotapi.PhotoConfig:
			bc.log.Debug("Отправка фото", zap.Int64("chat_id", msg.ChatID), zap.String("caption", truncate(msg.Caption)))
		default:
			bc.log.Debug("Отправка", zap.String("type", fmt.Sprintf("%T", c)))
		}
	}
	return bc.api.Send(c)
}

// Request выполняет запрос через BotClient.
func (bc *BotClient) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if bc.Debug {
		bc.log.Debug("Запрос", zap.String("type", fmt.Sprintf("%T", c)))
	}
	return bc.api.Request(c)
}

// MakeRequest выполняет произвольный запрос к API Telegram.
// Нужен для методов, которые не обёрнуты в tgbotapi.
func (bc *BotClient) MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error) {
	if bc.Debug {
		bc.log.Debug("MakeRequest", zap.String("endpoint", endpoint))
	}
	return bc.api.MakeRequest(endpoint, params)
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) > 50 {
		return string(r[:50]) + "..."
	}
	return s
}

package telegram_api

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
	"go.uber.org/zap"

	"fieldcrew/internal/apperrors"
	"fieldcrew/internal/notify"
)

// Keyboard собирает inline-клавиатуру из строк кнопок.
func Keyboard(rows [][]notify.Button) tgbotapi.InlineKeyboardMarkup {
	markupRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		markupRows = append(markupRows, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(markupRows...)
}

func transportError(op string, chatID int64, err error) error {
	return fmt.Errorf("%s chat %d: %w: %v", op, chatID, apperrors.ErrTransport, err)
}

func (bc *BotClient) SendText(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := bc.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return transportError("sendMessage", chatID, err)
	}
	return nil
}

func (bc *BotClient) SendButtons(ctx context.Context, chatID int64, text string, rows [][]notify.Button) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if len(rows) > 0 {
		msg.ReplyMarkup = Keyboard(rows)
	}
	if _, err := bc.Send(msg); err != nil {
		return transportError("sendMessage", chatID, err)
	}
	return nil
}

func (bc *BotClient) SendPhoto(ctx context.Context, chatID int64, fileID, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(fileID))
	photo.Caption = caption
	if _, err := bc.Send(photo); err != nil {
		return transportError("sendPhoto", chatID, err)
	}
	return nil
}

func (bc *BotClient) SendPhotoBytes(ctx context.Context, chatID int64, name string, data []byte, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	photo.Caption = caption
	if _, err := bc.Send(photo); err != nil {
		return transportError("sendPhoto", chatID, err)
	}
	return nil
}

// EditText пытается отредактировать существующее сообщение или отправляет новое.
// "message is not modified" ошибкой не считается.
func (bc *BotClient) EditText(ctx context.Context, chatID int64, messageID int, text string, rows [][]notify.Button) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if messageID != 0 {
		var edit tgbotapi.EditMessageTextConfig
		if len(rows) > 0 {
			edit = tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, Keyboard(rows))
		} else {
			edit = tgbotapi.NewEditMessageText(chatID, messageID, text)
		}
		_, err := bc.Request(edit)
		if err == nil {
			return nil
		}
		if strings.Contains(err.Error(), "message is not modified") {
			return nil
		}
		bc.log.Warn("EditText: ошибка редактирования, будет отправлено новое сообщение",
			zap.Int64("chat_id", chatID), zap.Int("message_id", messageID), zap.Error(err))
	}
	return bc.SendButtons(ctx, chatID, text, rows)
}

func (bc *BotClient) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := bc.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("answerCallbackQuery: %w: %v", apperrors.ErrTransport, err)
	}
	return nil
}

// Command - пункт меню команд бота.
type Command struct {
	Name        string `json:"command"`
	Description string `json:"description"`
}

// SetCommands задаёт меню команд. chatID == 0 - для всех личных чатов,
// иначе только для указанного чата.
func (bc *BotClient) SetCommands(chatID int64, commands []Command) error {
	params := make(tgbotapi.Params)
	if err := params.AddInterface("commands", commands); err != nil {
		return err
	}
	scope := map[string]interface{}{"type": "all_private_chats"}
	if chatID != 0 {
		scope = map[string]interface{}{"type": "chat", "chat_id": chatID}
	}
	if err := params.AddInterface("scope", scope); err != nil {
		return err
	}
	if _, err := bc.MakeRequest("setMyCommands", params); err != nil {
		return transportError("setMyCommands", chatID, err)
	}
	return nil
}

package handlers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
	"go.uber.org/zap"

	"fieldcrew/internal/config"
	"fieldcrew/internal/conversation"
	"fieldcrew/internal/directory"
	"fieldcrew/internal/notify"
	"fieldcrew/internal/orders"
	"fieldcrew/internal/session"
	"fieldcrew/internal/shifts"
	"fieldcrew/internal/utils"
)

// HandlerDependencies содержит все зависимости, необходимые для обработчиков.
type HandlerDependencies struct {
	Config    *config.Config
	Messenger notify.Messenger
	Sessions  *session.Manager
	Machine   *conversation.Machine
	Orders    *orders.Manager
	Shifts    *shifts.Manager
	Directory *directory.Directory
	Logger    *zap.Logger
}

// BotHandler инкапсулирует логику обработки сообщений и коллбэков.
type BotHandler struct {
	Deps HandlerDependencies
}

// NewBotHandler создает новый экземпляр BotHandler.
func NewBotHandler(deps HandlerDependencies) (*BotHandler, error) {
	if deps.Config == nil || deps.Messenger == nil || deps.Sessions == nil || deps.Machine == nil ||
		deps.Orders == nil || deps.Shifts == nil || deps.Directory == nil || deps.Logger == nil {
		return nil, fmt.Errorf("не все зависимости для BotHandler были предоставлены")
	}
	return &BotHandler{Deps: deps}, nil
}

// Event - входящее обновление в том виде, в каком его разбирают обработчики.
type Event struct {
	UpdateID  int
	ChatID    int64
	UserID    int64
	UserName  string
	MessageID int

	// Сообщение
	Text    string
	Command string
	Args    string
	PhotoID string
	Media   string // тип вложения, для логов

	// Callback
	CallbackID  string
	Data        string
	MessageText string // текст сообщения, к которому привязана кнопка
}

func (e Event) IsCallback() bool { return e.CallbackID != "" }

// EventFromUpdate разбирает обновление Telegram; ok=false для неподдерживаемых типов.
func EventFromUpdate(update tgbotapi.Update) (Event, bool) {
	ev := Event{UpdateID: update.UpdateID}
	switch {
	case update.CallbackQuery != nil:
		q := update.CallbackQuery
		if q.Message == nil || q.From == nil {
			return ev, false
		}
		ev.ChatID = q.Message.Chat.ID
		ev.MessageID = q.Message.MessageID
		ev.MessageText = q.Message.Text
		ev.UserID = q.From.ID
		ev.UserName = strings.TrimSpace(q.From.FirstName + " " + q.From.LastName)
		ev.CallbackID = q.ID
		ev.Data = q.Data
	case update.Message != nil:
		msg := update.Message
		if msg.From == nil {
			return ev, false
		}
		ev.ChatID = msg.Chat.ID
		ev.MessageID = msg.MessageID
		ev.UserID = msg.From.ID
		ev.UserName = strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName)
		ev.Text = strings.TrimSpace(msg.Text)
		if msg.IsCommand() {
			ev.Command = msg.Command()
			ev.Args = strings.TrimSpace(msg.CommandArguments())
		}
		ev.Media = utils.GetMediaType(msg)
		if fileID, ok := utils.PhotoFileID(msg); ok {
			ev.PhotoID = fileID
			ev.Text = strings.TrimSpace(msg.Caption)
		}
	default:
		return ev, false
	}
	return ev, true
}

// request - одно обновление вместе с логгером, помеченным trace_id.
type request struct {
	Event
	log *zap.Logger
}

// HandleUpdate - точка входа для цикла получения обновлений.
func (bh *BotHandler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	ev, ok := EventFromUpdate(update)
	if !ok {
		bh.Deps.Logger.Debug("HandleUpdate: обновление пропущено", zap.Int("update_id", update.UpdateID))
		return
	}
	bh.Handle(ctx, ev)
}

// Handle обрабатывает одно событие. Паника логируется и не роняет процесс.
func (bh *BotHandler) Handle(ctx context.Context, ev Event) {
	r := &request{
		Event: ev,
		log: bh.Deps.Logger.With(
			zap.String("trace_id", utils.GenerateUUID()),
			zap.Int("update_id", ev.UpdateID),
			zap.Int64("chat_id", ev.ChatID),
		),
	}
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("Handle: паника при обработке обновления", zap.Any("panic", p), zap.Stack("stack"))
		}
	}()

	if ev.IsCallback() {
		bh.HandleCallback(ctx, r)
		return
	}
	bh.HandleMessage(ctx, r)
}

// reply отправляет текст в чат события; ошибка доставки только логируется.
func (bh *BotHandler) reply(ctx context.Context, r *request, text string, rows ...[]notify.Button) {
	if err := bh.Deps.Messenger.SendButtons(ctx, r.ChatID, text, rows); err != nil {
		r.log.Warn("reply: сообщение не доставлено", zap.Error(err))
	}
}

// edit заменяет текст сообщения с кнопкой, на которую нажали.
func (bh *BotHandler) edit(ctx context.Context, r *request, text string, rows ...[]notify.Button) {
	if err := bh.Deps.Messenger.EditText(ctx, r.ChatID, r.MessageID, text, rows); err != nil {
		r.log.Warn("edit: сообщение не доставлено", zap.Error(err))
	}
}

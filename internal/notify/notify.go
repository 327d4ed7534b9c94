// Package notify - исходящая сторона чат-транспорта, как её видит ядро.
// Доставка best-effort: ошибки логируются вызывающим и не отменяют операцию.
package notify

import "context"

// Button - inline-кнопка с непрозрачными данными обратного вызова.
type Button struct {
	Text string
	Data string
}

// Notifier - то, что нужно менеджерам заказов, смен и диспетчеру.
type Notifier interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendButtons(ctx context.Context, chatID int64, text string, rows [][]Button) error
	SendPhoto(ctx context.Context, chatID int64, fileID, caption string) error
	SendPhotoBytes(ctx context.Context, chatID int64, name string, data []byte, caption string) error
}

// Messenger добавляет операции, нужные обработчику обновлений.
type Messenger interface {
	Notifier
	// EditText правит сообщение; при неудаче отправляет новое.
	EditText(ctx context.Context, chatID int64, messageID int, text string, rows [][]Button) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

package models

import "time"

// OrderStatus хранится в таблице в человекочитаемом виде.
type OrderStatus string

const (
	OrderAssigned   OrderStatus = "Назначен, не начат"
	OrderInProgress OrderStatus = "В работе"
	OrderCompleted  OrderStatus = "Выполнен"
	OrderCancelled  OrderStatus = "Отменён"
)

// IsTerminal сообщает, что из статуса больше нет переходов.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

type Priority string

const (
	PriorityNormal Priority = "обычный"
	PriorityUrgent Priority = "срочный"
)

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "наличными"
	PaymentTransfer PaymentMethod = "переводом"
	PaymentQR       PaymentMethod = "qr"
	PaymentInvoice  PaymentMethod = "по счёту"
)

// Order - одна единица работы на участке, строка листа заказов.
type Order struct {
	ID           int
	Address      string
	WorkType     string
	Deadline     string
	Comment      string
	Priority     Priority
	Status       OrderStatus
	AssigneeID   int64
	AssigneeName string
	CreatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time // для отменённых заказов - время отмены
	SitePhoto    string

	// Заполняются при завершении
	Amount        string
	PaymentMethod PaymentMethod
	Chemical      string
	Quantity      string
	Area          string
	ReceiptPhoto  string
}

// OrderDraft собирается диалогом создания заказа.
type OrderDraft struct {
	Address    string   `json:"address"`
	WorkType   string   `json:"work_type"`
	Deadline   string   `json:"deadline"`
	Comment    string   `json:"comment"`
	Priority   Priority `json:"priority"`
	AssigneeID int64    `json:"assignee_id"`
	Photo      string   `json:"photo,omitempty"`
}

// CompletionDetails собирается диалогом завершения заказа.
type CompletionDetails struct {
	Amount       string        `json:"amount"`
	Payment      PaymentMethod `json:"payment"`
	ReceiptPhoto string        `json:"receipt_photo"`
	Chemical     string        `json:"chemical"`
	Quantity     string        `json:"quantity"`
	Area         string        `json:"area"`
}

// AssignedTo сравнивает по id; у старых строк без id - по имени.
func (o Order) AssignedTo(w Worker) bool {
	if o.AssigneeID != 0 {
		return o.AssigneeID == w.ID
	}
	return o.AssigneeName != "" && o.AssigneeName == w.Name
}

package api

import (
	"fieldcrew/internal/constants"
	"fieldcrew/internal/models"
)

// OrderDTO - заказ в ответах API; время в формате листа.
type OrderDTO struct {
	ID            int    `json:"id"`
	Address       string `json:"address"`
	WorkType      string `json:"work_type"`
	Deadline      string `json:"deadline"`
	Comment       string `json:"comment"`
	Priority      string `json:"priority"`
	Status        string `json:"status"`
	AssigneeID    int64  `json:"assignee_id,omitempty"`
	AssigneeName  string `json:"assignee_name"`
	CreatedAt     string `json:"created_at"`
	StartedAt     string `json:"started_at,omitempty"`
	CompletedAt   string `json:"completed_at,omitempty"`
	Amount        string `json:"amount,omitempty"`
	PaymentMethod string `json:"payment_method,omitempty"`
	Chemical      string `json:"chemical,omitempty"`
	Quantity      string `json:"quantity,omitempty"`
	Area          string `json:"area,omitempty"`
	HasReceipt    bool   `json:"has_receipt"`
}

// ShiftDTO - смена в ответах API.
type ShiftDTO struct {
	EmployeeID   int64   `json:"employee_id"`
	EmployeeName string  `json:"employee_name"`
	Date         string  `json:"date"`
	Start        string  `json:"start"`
	End          string  `json:"end,omitempty"`
	HoursWorked  float64 `json:"hours_worked"`
	Status       string  `json:"status"`
}

func toOrderDTO(o models.Order) OrderDTO {
	dto := OrderDTO{
		ID:            o.ID,
		Address:       o.Address,
		WorkType:      o.WorkType,
		Deadline:      o.Deadline,
		Comment:       o.Comment,
		Priority:      string(o.Priority),
		Status:        string(o.Status),
		AssigneeID:    o.AssigneeID,
		AssigneeName:  o.AssigneeName,
		CreatedAt:     o.CreatedAt.Format(constants.DATE_FORMAT),
		Amount:        o.Amount,
		PaymentMethod: string(o.PaymentMethod),
		Chemical:      o.Chemical,
		Quantity:      o.Quantity,
		Area:          o.Area,
		HasReceipt:    o.ReceiptPhoto != "" && o.ReceiptPhoto != constants.NO_RECEIPT,
	}
	if o.StartedAt != nil {
		dto.StartedAt = o.StartedAt.Format(constants.TIMESTAMP_FORMAT)
	}
	if o.CompletedAt != nil {
		dto.CompletedAt = o.CompletedAt.Format(constants.TIMESTAMP_FORMAT)
	}
	return dto
}

func toOrderDTOs(list []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(list))
	for _, o := range list {
		out = append(out, toOrderDTO(o))
	}
	return out
}

func toShiftDTOs(list []models.Shift) []ShiftDTO {
	out := make([]ShiftDTO, 0, len(list))
	for _, s := range list {
		dto := ShiftDTO{
			EmployeeID:   s.EmployeeID,
			EmployeeName: s.EmployeeName,
			Date:         s.Start.Format(constants.DATE_FORMAT),
			Start:        s.Start.Format(constants.TIME_FORMAT),
			HoursWorked:  s.HoursWorked,
			Status:       string(s.Status),
		}
		if s.End != nil {
			dto.End = s.End.Format(constants.TIME_FORMAT)
		}
		out = append(out, dto)
	}
	return out
}

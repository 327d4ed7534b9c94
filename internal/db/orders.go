// Файл: internal/db/orders.go
package db

import (
	"context"
	"strconv"
	"sync"
	"time"

	"fieldcrew/internal/apperrors"
	"fieldcrew/internal/constants"
	"fieldcrew/internal/models"
	"fieldcrew/internal/sheets"
)

// Колонки листа заказов. Первые 17 повторяют исходную таблицу, две последние дописаны.
const (
	colOrderID = iota + 1
	colAddress
	colWorkType
	colDeadline
	colComment
	colPriority
	colStatus
	colAssignee
	colCreatedAt
	colStartedAt
	colCompletedAt
	colAmount
	colPayment
	colChemical
	colQuantity
	colArea
	colReceipt
	colAssigneeID
	colSitePhoto
)

var OrderHeader = []string{
	"№ заказа", "Адрес", "Тип работы", "Срок", "Комментарий",
	"Приоритет", "Статус", "Ответственный", "Дата создания",
	"Начал работу", "Выполнил работу", "Сумма", "Способ оплаты",
	"Препарат", "Количество", "Площадь", "Фото чека",
	"ID ответственного", "Фото участка",
}

// OrderRecord - заказ вместе с номером строки листа.
type OrderRecord struct {
	Row int
	models.Order
}

// OrderPatch - набор полей для одной фиксации. nil - поле не меняется.
type OrderPatch struct {
	Status      *models.OrderStatus
	StartedAt   *time.Time
	CompletedAt *time.Time
	Completion  *models.CompletionDetails
}

// OrderRepository - типизированный доступ к листу заказов.
type OrderRepository struct {
	table sheets.Table
	loc   *time.Location

	// createMu сериализует выдачу номера и добавление строки.
	createMu sync.Mutex
}

// NewOrderRepository проверяет (или создаёт) заголовок листа.
func NewOrderRepository(ctx context.Context, table sheets.Table, loc *time.Location) (*OrderRepository, error) {
	if err := sheets.EnsureHeader(ctx, table, OrderHeader); err != nil {
		return nil, apperrors.NewStoreError("заголовок листа заказов", err)
	}
	if loc == nil {
		loc = time.Local
	}
	return &OrderRepository{table: table, loc: loc}, nil
}

// nextID читает последнюю строку листа: пусто - 1001, иначе номер + 1.
// Нечисловой номер в последней строке считается как 1000.
func (r *OrderRepository) nextID(ctx context.Context) (int, error) {
	rows, err := r.table.Rows(ctx)
	if err != nil {
		return 0, apperrors.NewStoreError("чтение заказов", err)
	}
	if len(rows) == 0 {
		return constants.FIRST_ORDER_ID, nil
	}
	last, err := strconv.Atoi(sheets.CellAt(rows[len(rows)-1], colOrderID))
	if err != nil {
		last = constants.FIRST_ORDER_ID - 1
	}
	return last + 1, nil
}

// Create присваивает номер и дописывает строку. Возвращает заказ с номером.
func (r *OrderRepository) Create(ctx context.Context, order models.Order) (OrderRecord, error) {
	r.createMu.Lock()
	defer r.createMu.Unlock()

	id, err := r.nextID(ctx)
	if err != nil {
		return OrderRecord{}, err
	}
	order.ID = id
	row, err := r.table.Append(ctx, r.toRow(order))
	if err != nil {
		return OrderRecord{}, apperrors.NewStoreError("добавление заказа", err)
	}
	return OrderRecord{Row: row, Order: order}, nil
}

// FindByID ищет первую строку, где колонка номера равна id.
func (r *OrderRepository) FindByID(ctx context.Context, id int) (OrderRecord, error) {
	row, found, err := r.table.FindRow(ctx, colOrderID, strconv.Itoa(id))
	if err != nil {
		return OrderRecord{}, apperrors.NewStoreError("поиск заказа", err)
	}
	if !found {
		return OrderRecord{}, apperrors.ErrNotFound
	}
	rows, err := r.table.Rows(ctx)
	if err != nil {
		return OrderRecord{}, apperrors.NewStoreError("чтение заказа", err)
	}
	idx := row - 2
	if idx < 0 || idx >= len(rows) {
		return OrderRecord{}, apperrors.NewStoreError("чтение заказа", errRowVanished(row))
	}
	order, ok := r.fromRow(rows[idx])
	if !ok {
		return OrderRecord{}, apperrors.ErrNotFound
	}
	return OrderRecord{Row: row, Order: order}, nil
}

// All возвращает заказы в порядке листа (порядок создания).
// Строки с нечисловым номером пропускаются.
func (r *OrderRepository) All(ctx context.Context) ([]OrderRecord, error) {
	rows, err := r.table.Rows(ctx)
	if err != nil {
		return nil, apperrors.NewStoreError("чтение заказов", err)
	}
	out := make([]OrderRecord, 0, len(rows))
	for i, cells := range rows {
		order, ok := r.fromRow(cells)
		if !ok {
			continue
		}
		out = append(out, OrderRecord{Row: sheets.DataRowNumber(i), Order: order})
	}
	return out, nil
}

// Last возвращает последние n заказов в порядке листа.
func (r *OrderRepository) Last(ctx context.Context, n int) ([]OrderRecord, error) {
	all, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	if n > 0 && len(all) > n {
		all = all[len(all)-n:]
	}
	return all, nil
}

// Update записывает все поля патча одной фиксацией.
func (r *OrderRepository) Update(ctx context.Context, row int, patch OrderPatch) error {
	cells := make(map[int]string, 8)
	if patch.Status != nil {
		cells[colStatus] = string(*patch.Status)
	}
	if patch.StartedAt != nil {
		cells[colStartedAt] = patch.StartedAt.In(r.loc).Format(constants.TIMESTAMP_FORMAT)
	}
	if patch.CompletedAt != nil {
		cells[colCompletedAt] = patch.CompletedAt.In(r.loc).Format(constants.TIMESTAMP_FORMAT)
	}
	if c := patch.Completion; c != nil {
		cells[colAmount] = c.Amount
		cells[colPayment] = string(c.Payment)
		cells[colChemical] = c.Chemical
		cells[colQuantity] = c.Quantity
		cells[colArea] = c.Area
		cells[colReceipt] = c.ReceiptPhoto
	}
	if len(cells) == 0 {
		return nil
	}
	if err := r.table.UpdateCells(ctx, row, cells); err != nil {
		return apperrors.NewStoreError("обновление заказа", err)
	}
	return nil
}

func (r *OrderRepository) toRow(o models.Order) []string {
	row := make([]string, len(OrderHeader))
	row[colOrderID-1] = strconv.Itoa(o.ID)
	row[colAddress-1] = o.Address
	row[colWorkType-1] = o.WorkType
	row[colDeadline-1] = o.Deadline
	row[colComment-1] = o.Comment
	row[colPriority-1] = string(o.Priority)
	row[colStatus-1] = string(o.Status)
	row[colAssignee-1] = o.AssigneeName
	row[colCreatedAt-1] = o.CreatedAt.In(r.loc).Format(constants.DATE_FORMAT)
	row[colStartedAt-1] = r.formatStamp(o.StartedAt)
	row[colCompletedAt-1] = r.formatStamp(o.CompletedAt)
	row[colAmount-1] = o.Amount
	row[colPayment-1] = string(o.PaymentMethod)
	row[colChemical-1] = o.Chemical
	row[colQuantity-1] = o.Quantity
	row[colArea-1] = o.Area
	row[colReceipt-1] = o.ReceiptPhoto
	row[colAssigneeID-1] = strconv.FormatInt(o.AssigneeID, 10)
	row[colSitePhoto-1] = o.SitePhoto
	return row
}

func (r *OrderRepository) fromRow(cells []string) (models.Order, bool) {
	id, err := strconv.Atoi(sheets.CellAt(cells, colOrderID))
	if err != nil {
		return models.Order{}, false
	}
	assigneeID, _ := strconv.ParseInt(sheets.CellAt(cells, colAssigneeID), 10, 64)
	created, _ := time.ParseInLocation(constants.DATE_FORMAT, sheets.CellAt(cells, colCreatedAt), r.loc)
	return models.Order{
		ID:            id,
		Address:       sheets.CellAt(cells, colAddress),
		WorkType:      sheets.CellAt(cells, colWorkType),
		Deadline:      sheets.CellAt(cells, colDeadline),
		Comment:       sheets.CellAt(cells, colComment),
		Priority:      models.Priority(sheets.CellAt(cells, colPriority)),
		Status:        models.OrderStatus(sheets.CellAt(cells, colStatus)),
		AssigneeID:    assigneeID,
		AssigneeName:  sheets.CellAt(cells, colAssignee),
		CreatedAt:     created,
		StartedAt:     r.parseStamp(sheets.CellAt(cells, colStartedAt)),
		CompletedAt:   r.parseStamp(sheets.CellAt(cells, colCompletedAt)),
		Amount:        sheets.CellAt(cells, colAmount),
		PaymentMethod: models.PaymentMethod(sheets.CellAt(cells, colPayment)),
		Chemical:      sheets.CellAt(cells, colChemical),
		Quantity:      sheets.CellAt(cells, colQuantity),
		Area:          sheets.CellAt(cells, colArea),
		ReceiptPhoto:  sheets.CellAt(cells, colReceipt),
		SitePhoto:     sheets.CellAt(cells, colSitePhoto),
	}, true
}

func (r *OrderRepository) formatStamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.In(r.loc).Format(constants.TIMESTAMP_FORMAT)
}

func (r *OrderRepository) parseStamp(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.ParseInLocation(constants.TIMESTAMP_FORMAT, value, r.loc)
	if err != nil {
		return nil
	}
	return &t
}

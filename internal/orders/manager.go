// Package orders ведёт жизненный цикл заказа:
// Назначен -> В работе -> Выполнен, с отменой администратором из любого
// незакрытого статуса.
package orders

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"fieldcrew/internal/apperrors"
	"fieldcrew/internal/constants"
	"fieldcrew/internal/db"
	"fieldcrew/internal/directory"
	"fieldcrew/internal/dispatch"
	"fieldcrew/internal/formatters"
	"fieldcrew/internal/models"
	"fieldcrew/internal/notify"
	"fieldcrew/internal/utils"
)

// ErrNoReceipt - к заказу не прикреплён чек.
var ErrNoReceipt = fmt.Errorf("чек не прикреплён: %w", apperrors.ErrNotFound)

// Dispatcher - то, что менеджеру нужно от диспетчера.
type Dispatcher interface {
	DispatchNext(ctx context.Context, worker models.Worker) (dispatch.Result, error)
}

var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderAssigned:   {models.OrderInProgress, models.OrderCancelled},
	models.OrderInProgress: {models.OrderCompleted, models.OrderCancelled},
}

// CanTransition - есть ли ребро from -> to в графе статусов.
func CanTransition(from, to models.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func transitionError(from, to models.OrderStatus) error {
	if from.IsTerminal() {
		return apperrors.ErrTerminalStatus
	}
	if to == models.OrderCompleted && from == models.OrderAssigned {
		return apperrors.ErrOrderNotStarted
	}
	return apperrors.NewConflictError(fmt.Sprintf("переход %q -> %q недопустим", from, to))
}

type Manager struct {
	repo       *db.OrderRepository
	dir        *directory.Directory
	notifier   notify.Notifier
	dispatcher Dispatcher
	locks      *utils.KeyedMutex
	now        func() time.Time
	log        *zap.Logger
}

// NewManager: locks - та же таблица блокировок, что у диспетчера.
func NewManager(
	repo *db.OrderRepository,
	dir *directory.Directory,
	notifier notify.Notifier,
	dispatcher Dispatcher,
	locks *utils.KeyedMutex,
	now func() time.Time,
	log *zap.Logger,
) *Manager {
	return &Manager{
		repo:       repo,
		dir:        dir,
		notifier:   notifier,
		dispatcher: dispatcher,
		locks:      locks,
		now:        now,
		log:        log,
	}
}

// Create записывает новый заказ со статусом "Назначен, не начат".
func (m *Manager) Create(ctx context.Context, actor int64, draft models.OrderDraft) (models.Order, error) {
	if !m.dir.IsAdmin(actor) {
		return models.Order{}, apperrors.ErrForbidden
	}
	name, ok := m.dir.Name(draft.AssigneeID)
	if !ok {
		return models.Order{}, fmt.Errorf("исполнитель %d не из бригады: %w", draft.AssigneeID, apperrors.ErrMalformedInput)
	}
	priority := draft.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}

	rec, err := m.repo.Create(ctx, models.Order{
		Address:      draft.Address,
		WorkType:     draft.WorkType,
		Deadline:     draft.Deadline,
		Comment:      draft.Comment,
		Priority:     priority,
		Status:       models.OrderAssigned,
		AssigneeID:   draft.AssigneeID,
		AssigneeName: name,
		CreatedAt:    m.now(),
		SitePhoto:    draft.Photo,
	})
	if err != nil {
		m.log.Error("Create: не удалось записать заказ", zap.Int64("chat_id", actor), zap.Error(err))
		return models.Order{}, err
	}
	m.log.Info("Create: заказ создан",
		zap.Int("order_id", rec.ID), zap.Int64("employee_id", draft.AssigneeID), zap.Int64("chat_id", actor))
	return rec.Order, nil
}

// MarkStarted: Назначен -> В работе. На заказе, который уже в работе
// (его выдал диспетчер), только обновляет время начала.
func (m *Manager) MarkStarted(ctx context.Context, actor int64, id int) (models.Order, error) {
	first, err := m.repo.FindByID(ctx, id)
	if err != nil {
		return models.Order{}, err
	}
	worker := m.assignee(first.Order)
	if actor != worker.ID && !m.dir.IsAdmin(actor) {
		return models.Order{}, apperrors.ErrForbidden
	}

	unlockWorker := m.locks.Lock(utils.WorkerLockKey(worker.ID))
	defer unlockWorker()
	unlockOrder := m.locks.Lock(utils.OrderLockKey(id))
	defer unlockOrder()

	rec, err := m.repo.FindByID(ctx, id)
	if err != nil {
		return models.Order{}, err
	}
	switch {
	case rec.Status == models.OrderInProgress:
	case CanTransition(rec.Status, models.OrderInProgress):
		busy, err := m.hasOtherInProgress(ctx, worker, id)
		if err != nil {
			return models.Order{}, err
		}
		if busy {
			return models.Order{}, apperrors.ErrWorkerBusy
		}
	default:
		return models.Order{}, transitionError(rec.Status, models.OrderInProgress)
	}

	status := models.OrderInProgress
	started := m.now()
	if err := m.repo.Update(ctx, rec.Row, db.OrderPatch{Status: &status, StartedAt: &started}); err != nil {
		return models.Order{}, err
	}
	rec.Status = status
	rec.StartedAt = &started
	m.log.Info("MarkStarted: работа начата", zap.Int("order_id", id), zap.Int64("employee_id", worker.ID))

	m.notifyAdmins(ctx, formatters.FormatOrderStartedForAdmin(id, m.actorName(actor), started))
	return rec.Order, nil
}

// RecordCompletionDetails закрывает заказ, который в работе, и одной
// фиксацией пишет данные о выполнении. Затем диспетчер выдаёт следующий.
func (m *Manager) RecordCompletionDetails(ctx context.Context, actor int64, id int, details models.CompletionDetails) (models.Order, error) {
	first, err := m.repo.FindByID(ctx, id)
	if err != nil {
		return models.Order{}, err
	}
	worker := m.assignee(first.Order)
	if actor != worker.ID && !m.dir.IsAdmin(actor) {
		return models.Order{}, apperrors.ErrForbidden
	}
	if details.ReceiptPhoto == "" {
		details.ReceiptPhoto = constants.NO_RECEIPT
	}

	order, err := m.complete(ctx, id, details)
	if err != nil {
		return models.Order{}, err
	}
	m.log.Info("RecordCompletionDetails: заказ выполнен", zap.Int("order_id", id), zap.Int64("employee_id", worker.ID))

	// Подтверждение должно прийти раньше следующей карточки.
	if err := m.notifier.SendText(ctx, actor, constants.OrderCompletedMessage); err != nil {
		m.log.Warn("RecordCompletionDetails: подтверждение не доставлено", zap.Int64("chat_id", actor), zap.Error(err))
	}
	m.notifyAdmins(ctx, formatters.FormatCompletionReport(order))
	if worker.ID != 0 {
		if _, err := m.dispatcher.DispatchNext(ctx, worker); err != nil {
			m.log.Error("RecordCompletionDetails: не удалось выдать следующий заказ",
				zap.Int64("employee_id", worker.ID), zap.Error(err))
		}
	}
	return order, nil
}

func (m *Manager) complete(ctx context.Context, id int, details models.CompletionDetails) (models.Order, error) {
	unlock := m.locks.Lock(utils.OrderLockKey(id))
	defer unlock()

	rec, err := m.repo.FindByID(ctx, id)
	if err != nil {
		return models.Order{}, err
	}
	if !CanTransition(rec.Status, models.OrderCompleted) {
		return models.Order{}, transitionError(rec.Status, models.OrderCompleted)
	}
	status := models.OrderCompleted
	completed := m.now()
	if err := m.repo.Update(ctx, rec.Row, db.OrderPatch{
		Status:      &status,
		CompletedAt: &completed,
		Completion:  &details,
	}); err != nil {
		return models.Order{}, err
	}
	rec.Status = status
	rec.CompletedAt = &completed
	rec.Amount = details.Amount
	rec.PaymentMethod = details.Payment
	rec.ReceiptPhoto = details.ReceiptPhoto
	rec.Chemical = details.Chemical
	rec.Quantity = details.Quantity
	rec.Area = details.Area
	return rec.Order, nil
}

// Cancel отменяет незакрытый заказ. Время отмены пишется в колонку
// "Выполнил работу". Бывший исполнитель уведомляется, если он известен;
// notified сообщает, дошло ли уведомление.
func (m *Manager) Cancel(ctx context.Context, actor int64, id int) (order models.Order, notified bool, err error) {
	if !m.dir.IsAdmin(actor) {
		return models.Order{}, false, apperrors.ErrForbidden
	}

	order, wasInProgress, err := m.cancel(ctx, id)
	if err != nil {
		return models.Order{}, false, err
	}
	m.log.Info("Cancel: заказ отменён", zap.Int("order_id", id), zap.Int64("chat_id", actor))

	worker := m.assignee(order)
	if worker.ID == 0 {
		m.log.Warn("Cancel: исполнитель не найден в справочнике",
			zap.Int("order_id", id), zap.String("assignee", order.AssigneeName))
		return order, false, nil
	}
	if err := m.notifier.SendText(ctx, worker.ID, formatters.FormatOrderCancelledForWorker(id, *order.CompletedAt)); err != nil {
		m.log.Warn("Cancel: уведомление не доставлено", zap.Int64("employee_id", worker.ID), zap.Error(err))
	} else {
		notified = true
	}

	// Сотрудник освободился - выдаём следующий заказ.
	if wasInProgress {
		if _, err := m.dispatcher.DispatchNext(ctx, worker); err != nil {
			m.log.Error("Cancel: не удалось выдать следующий заказ", zap.Int64("employee_id", worker.ID), zap.Error(err))
		}
	}
	return order, notified, nil
}

func (m *Manager) cancel(ctx context.Context, id int) (models.Order, bool, error) {
	unlock := m.locks.Lock(utils.OrderLockKey(id))
	defer unlock()

	rec, err := m.repo.FindByID(ctx, id)
	if err != nil {
		return models.Order{}, false, err
	}
	if !CanTransition(rec.Status, models.OrderCancelled) {
		return models.Order{}, false, transitionError(rec.Status, models.OrderCancelled)
	}
	wasInProgress := rec.Status == models.OrderInProgress
	status := models.OrderCancelled
	at := m.now()
	if err := m.repo.Update(ctx, rec.Row, db.OrderPatch{Status: &status, CompletedAt: &at}); err != nil {
		return models.Order{}, false, err
	}
	rec.Status = status
	rec.CompletedAt = &at
	return rec.Order, wasInProgress, nil
}

func (m *Manager) Lookup(ctx context.Context, id int) (models.Order, error) {
	rec, err := m.repo.FindByID(ctx, id)
	if err != nil {
		return models.Order{}, err
	}
	return rec.Order, nil
}

// ActiveFor - незакрытые заказы сотрудника в порядке листа.
func (m *Manager) ActiveFor(ctx context.Context, worker models.Worker) ([]models.Order, error) {
	all, err := m.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Order
	for _, rec := range all {
		if rec.AssignedTo(worker) && !rec.Status.IsTerminal() {
			out = append(out, rec.Order)
		}
	}
	return out, nil
}

// Recent - последние n заказов всех сотрудников.
func (m *Manager) Recent(ctx context.Context, n int) ([]models.Order, error) {
	recs, err := m.repo.Last(ctx, n)
	if err != nil {
		return nil, err
	}
	out := make([]models.Order, len(recs))
	for i, rec := range recs {
		out[i] = rec.Order
	}
	return out, nil
}

// Receipt возвращает file id фото чека.
func (m *Manager) Receipt(ctx context.Context, actor int64, id int) (string, error) {
	if !m.dir.IsAdmin(actor) {
		return "", apperrors.ErrForbidden
	}
	order, err := m.Lookup(ctx, id)
	if err != nil {
		return "", err
	}
	if order.ReceiptPhoto == "" || order.ReceiptPhoto == constants.NO_RECEIPT {
		return "", ErrNoReceipt
	}
	return order.ReceiptPhoto, nil
}

func (m *Manager) hasOtherInProgress(ctx context.Context, worker models.Worker, except int) (bool, error) {
	all, err := m.repo.All(ctx)
	if err != nil {
		return false, err
	}
	for _, rec := range all {
		if rec.ID != except && rec.AssignedTo(worker) && rec.Status == models.OrderInProgress {
			return true, nil
		}
	}
	return false, nil
}

// assignee восстанавливает исполнителя; у старых строк id ищется по имени.
// Неизвестный исполнитель - Worker с нулевым ID.
func (m *Manager) assignee(o models.Order) models.Worker {
	if o.AssigneeID != 0 {
		return models.Worker{ID: o.AssigneeID, Name: o.AssigneeName}
	}
	if id, ok := m.dir.Lookup(o.AssigneeName); ok {
		return models.Worker{ID: id, Name: o.AssigneeName}
	}
	return models.Worker{Name: o.AssigneeName}
}

func (m *Manager) actorName(actor int64) string {
	if name, ok := m.dir.Name(actor); ok {
		return name
	}
	return "администратор"
}

func (m *Manager) notifyAdmins(ctx context.Context, text string) {
	for _, admin := range m.dir.Admins() {
		if err := m.notifier.SendText(ctx, admin, text); err != nil {
			m.log.Warn("notifyAdmins: уведомление не доставлено", zap.Int64("chat_id", admin), zap.Error(err))
		}
	}
}

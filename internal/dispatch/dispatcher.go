// Package dispatch выдаёт сотруднику следующий заказ из очереди.
package dispatch

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"fieldcrew/internal/constants"
	"fieldcrew/internal/db"
	"fieldcrew/internal/formatters"
	"fieldcrew/internal/models"
	"fieldcrew/internal/notify"
	"fieldcrew/internal/utils"
)

// Result - итог одного вызова. Order == nil - очередь пуста.
// Busy - у сотрудника уже есть заказ в работе, новый не выдавался;
// карточка текущего заказа отправлена повторно.
type Result struct {
	Order *models.Order
	Busy  bool
}

type Dispatcher struct {
	repo     *db.OrderRepository
	notifier notify.Notifier
	locks    *utils.KeyedMutex
	now      func() time.Time
	log      *zap.Logger
}

// New: locks общая с менеджером заказов таблица блокировок.
func New(repo *db.OrderRepository, notifier notify.Notifier, locks *utils.KeyedMutex, now func() time.Time, log *zap.Logger) *Dispatcher {
	return &Dispatcher{repo: repo, notifier: notifier, locks: locks, now: now, log: log}
}

// DispatchNext берёт первый по порядку листа заказ сотрудника в статусе
// "Назначен, не начат", переводит его в работу и отправляет карточку.
// Приоритет на выбор не влияет.
func (d *Dispatcher) DispatchNext(ctx context.Context, worker models.Worker) (Result, error) {
	unlock := d.locks.Lock(utils.WorkerLockKey(worker.ID))
	defer unlock()

	log := d.log.With(zap.Int64("employee_id", worker.ID))

	orders, err := d.repo.All(ctx)
	if err != nil {
		return Result{}, err
	}

	var candidates []int
	for _, rec := range orders {
		if !rec.AssignedTo(worker) {
			continue
		}
		switch rec.Status {
		case models.OrderInProgress:
			log.Info("DispatchNext: сотрудник занят, новый заказ не выдаётся", zap.Int("order_id", rec.ID))
			busy := rec.Order
			d.sendCard(ctx, worker.ID, busy, true)
			return Result{Order: &busy, Busy: true}, nil
		case models.OrderAssigned:
			candidates = append(candidates, rec.ID)
		}
	}

	for _, id := range candidates {
		order, ok, err := d.claim(ctx, id)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			continue
		}
		log.Info("DispatchNext: заказ выдан", zap.Int("order_id", order.ID))
		d.sendCard(ctx, worker.ID, order, false)
		return Result{Order: &order}, nil
	}

	if err := d.notifier.SendText(ctx, worker.ID, constants.QueueEmptyMessage); err != nil {
		log.Warn("DispatchNext: не удалось сообщить о пустой очереди", zap.Error(err))
	}
	return Result{}, nil
}

// claim перечитывает заказ под его блокировкой: между чтением листа и записью
// заказ мог быть отменён.
func (d *Dispatcher) claim(ctx context.Context, id int) (models.Order, bool, error) {
	unlock := d.locks.Lock(utils.OrderLockKey(id))
	defer unlock()

	rec, err := d.repo.FindByID(ctx, id)
	if err != nil {
		return models.Order{}, false, err
	}
	if rec.Status != models.OrderAssigned {
		return models.Order{}, false, nil
	}
	status := models.OrderInProgress
	started := d.now()
	if err := d.repo.Update(ctx, rec.Row, db.OrderPatch{Status: &status, StartedAt: &started}); err != nil {
		return models.Order{}, false, err
	}
	rec.Status = status
	rec.StartedAt = &started
	return rec.Order, true, nil
}

// sendCard: у заказа, который уже в работе (resend), остаётся только кнопка "Выполнил работу".
func (d *Dispatcher) sendCard(ctx context.Context, chatID int64, order models.Order, resend bool) {
	done := notify.Button{Text: "✅ Выполнил работу", Data: constants.CALLBACK_PREFIX_ORDER_DONE + strconv.Itoa(order.ID)}
	rows := [][]notify.Button{{
		{Text: "▶️ Начал работу", Data: constants.CALLBACK_PREFIX_ORDER_START + strconv.Itoa(order.ID)},
		done,
	}}
	if resend {
		rows = [][]notify.Button{{done}}
	}
	if err := d.notifier.SendButtons(ctx, chatID, formatters.FormatOrderCard(order), rows); err != nil {
		d.log.Warn("sendCard: карточка заказа не доставлена",
			zap.Int("order_id", order.ID), zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}
	if order.SitePhoto == constants.NO_PHOTO {
		return
	}
	if err := d.notifier.SendPhoto(ctx, chatID, order.SitePhoto, formatters.FormatSitePhotoCaption(order.ID)); err != nil {
		d.log.Warn("sendCard: фото участка не доставлено", zap.Int("order_id", order.ID), zap.Error(err))
	}
}

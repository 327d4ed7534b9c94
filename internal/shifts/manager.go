// Package shifts ведёт учёт смен: начало, конец, отработанные часы.
package shifts

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
	"fieldcrew/internal/models"
	"fieldcrew/internal/utils"
)

// ErrNotWorker - пользователь не из бригады.
var ErrNotWorker = fmt.Errorf("не сотрудник: %w", apperrors.ErrForbidden)

type Dispatcher interface {
	DispatchNext(ctx context.Context, worker models.Worker) (dispatch.Result, error)
}

type Manager struct {
	repo       *db.ShiftRepository
	dir        *directory.Directory
	dispatcher Dispatcher
	locks      *utils.KeyedMutex
	now        func() time.Time
	log        *zap.Logger
}

func NewManager(
	repo *db.ShiftRepository,
	dir *directory.Directory,
	dispatcher Dispatcher,
	locks *utils.KeyedMutex,
	now func() time.Time,
	log *zap.Logger,
) *Manager {
	return &Manager{repo: repo, dir: dir, dispatcher: dispatcher, locks: locks, now: now, log: log}
}

func (m *Manager) worker(employee int64) (models.Worker, error) {
	name, ok := m.dir.Name(employee)
	if !ok {
		return models.Worker{}, ErrNotWorker
	}
	return models.Worker{ID: employee, Name: name}, nil
}

// StartShift открывает смену и сразу выдаёт первый заказ из очереди.
// Вторая открытая смена за тот же день - конфликт.
// onStarted, если задан, вызывается после записи смены и до выдачи заказа.
func (m *Manager) StartShift(ctx context.Context, employee int64, onStarted func(models.Shift)) (models.Shift, error) {
	worker, err := m.worker(employee)
	if err != nil {
		return models.Shift{}, err
	}

	shift, err := m.open(ctx, worker)
	if err != nil {
		return models.Shift{}, err
	}
	m.log.Info("StartShift: смена начата", zap.Int64("employee_id", employee))
	if onStarted != nil {
		onStarted(shift)
	}

	if _, err := m.dispatcher.DispatchNext(ctx, worker); err != nil {
		m.log.Error("StartShift: не удалось выдать заказ", zap.Int64("employee_id", employee), zap.Error(err))
	}
	return shift, nil
}

func (m *Manager) open(ctx context.Context, worker models.Worker) (models.Shift, error) {
	unlock := m.locks.Lock(utils.ShiftLockKey(worker.ID))
	defer unlock()

	now := m.now().Truncate(time.Minute)
	today := now.Format(constants.DATE_FORMAT)

	all, err := m.repo.All(ctx)
	if err != nil {
		return models.Shift{}, err
	}
	for i := len(all) - 1; i >= 0; i-- {
		s := all[i]
		if s.EmployeeID == worker.ID && s.Status == models.ShiftInProgress && s.Start.Format(constants.DATE_FORMAT) == today {
			return models.Shift{}, apperrors.ErrShiftAlreadyStarted
		}
	}

	rec, err := m.repo.Append(ctx, models.Shift{
		EmployeeID:   worker.ID,
		EmployeeName: worker.Name,
		Start:        now,
		Status:       models.ShiftInProgress,
	})
	if err != nil {
		return models.Shift{}, err
	}
	return rec.Shift, nil
}

// EndShift закрывает последнюю открытую смену сотрудника (любой даты).
// Часы считаются по времени начала и конца в пределах одной даты.
func (m *Manager) EndShift(ctx context.Context, employee int64) (models.Shift, error) {
	worker, err := m.worker(employee)
	if err != nil {
		return models.Shift{}, err
	}

	unlock := m.locks.Lock(utils.ShiftLockKey(worker.ID))
	defer unlock()

	all, err := m.repo.All(ctx)
	if err != nil {
		return models.Shift{}, err
	}
	var open *db.ShiftRecord
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].EmployeeID == worker.ID && all[i].Status == models.ShiftInProgress {
			open = &all[i]
			break
		}
	}
	if open == nil {
		return models.Shift{}, apperrors.ErrNoActiveShift
	}

	end := m.now().Truncate(time.Minute)
	// Время начала берётся в дате окончания.
	start := time.Date(end.Year(), end.Month(), end.Day(), open.Start.Hour(), open.Start.Minute(), 0, 0, end.Location())
	hours := models.HoursBetween(start, end)
	if hours < 0 {
		m.log.Warn("EndShift: смена через полночь, часы отрицательные",
			zap.Int64("employee_id", employee),
			zap.String("start", open.Start.Format(constants.TIMESTAMP_FORMAT)),
			zap.String("end", end.Format(constants.TIMESTAMP_FORMAT)),
			zap.Float64("hours", hours))
	}

	if err := m.repo.Close(ctx, open.Row, end, hours); err != nil {
		return models.Shift{}, err
	}
	shift := open.Shift
	shift.End = &end
	shift.HoursWorked = hours
	shift.Status = models.ShiftCompleted
	m.log.Info("EndShift: смена завершена", zap.Int64("employee_id", employee), zap.Float64("hours", hours))
	return shift, nil
}

// RecentCompleted - до limit последних завершённых смен сотрудника, новые первыми.
func (m *Manager) RecentCompleted(ctx context.Context, employee int64, limit int) ([]models.Shift, error) {
	if _, err := m.worker(employee); err != nil {
		return nil, err
	}
	all, err := m.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Shift
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		if all[i].EmployeeID == employee && all[i].Status == models.ShiftCompleted {
			out = append(out, all[i].Shift)
		}
	}
	return out, nil
}

// Recent - последние n смен всей бригады в порядке листа.
func (m *Manager) Recent(ctx context.Context, n int) ([]models.Shift, error) {
	recs, err := m.repo.Last(ctx, n)
	if err != nil {
		return nil, err
	}
	out := make([]models.Shift, len(recs))
	for i, rec := range recs {
		out[i] = rec.Shift
	}
	return out, nil
}

package dispatch

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fieldcrew/internal/constants"
	"fieldcrew/internal/db"
	"fieldcrew/internal/models"
	"fieldcrew/internal/notify"
	"fieldcrew/internal/sheets"
	"fieldcrew/internal/utils"
)

var (
	workerA = models.Worker{ID: 100, Name: "Баранов Антон"}
	workerB = models.Worker{ID: 200, Name: "Мария"}
	fixed   = time.Date(2026, 4, 8, 9, 0, 0, 0, time.UTC)
)

type fixture struct {
	repo  *db.OrderRepository
	rec   *notify.Recorder
	locks *utils.KeyedMutex
	d     *Dispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo, err := db.NewOrderRepository(context.Background(), sheets.NewMemory("orders"), time.UTC)
	require.NoError(t, err)
	rec := notify.NewRecorder()
	locks := utils.NewKeyedMutex()
	return &fixture{
		repo:  repo,
		rec:   rec,
		locks: locks,
		d:     New(repo, rec, locks, func() time.Time { return fixed }, zap.NewNop()),
	}
}

func (f *fixture) add(t *testing.T, w models.Worker, p models.Priority) int {
	t.Helper()
	rec, err := f.repo.Create(context.Background(), models.Order{
		Address: "Lot", WorkType: "mowing", Priority: p, Status: models.OrderAssigned,
		AssigneeID: w.ID, AssigneeName: w.Name, CreatedAt: fixed,
	})
	require.NoError(t, err)
	return rec.ID
}

func TestDispatchPicksFirstAssignedIgnoringPriority(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, workerB, models.PriorityNormal)
	first := f.add(t, workerA, models.PriorityNormal)
	f.add(t, workerA, models.PriorityUrgent)

	res, err := f.d.DispatchNext(ctx, workerA)
	require.NoError(t, err)
	require.NotNil(t, res.Order)
	assert.False(t, res.Busy)
	assert.Equal(t, first, res.Order.ID)

	got, err := f.repo.FindByID(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, models.OrderInProgress, got.Status)
	require.NotNil(t, got.StartedAt)
	assert.True(t, fixed.Equal(*got.StartedAt))

	card := f.rec.Last(workerA.ID)
	assert.Equal(t, "buttons", card.Kind)
	assert.Contains(t, card.Text, "▶️ НОВЫЙ ЗАКАЗ #1002")
	require.Len(t, card.Rows, 1)
	assert.Equal(t, "start_1002", card.Rows[0][0].Data)
	assert.Equal(t, "done_1002", card.Rows[0][1].Data)
}

func TestDispatchSkipsBusyWorker(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.add(t, workerA, models.PriorityNormal)
	second := f.add(t, workerA, models.PriorityNormal)

	_, err := f.d.DispatchNext(ctx, workerA)
	require.NoError(t, err)
	f.rec.Reset()

	res, err := f.d.DispatchNext(ctx, workerA)
	require.NoError(t, err)
	assert.True(t, res.Busy)
	assert.Equal(t, first, res.Order.ID)

	// сотруднику повторно приходит карточка текущего заказа, только с кнопкой завершения
	sent := f.rec.To(workerA.ID)
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Text, "#"+strconv.Itoa(first))
	require.Len(t, sent[0].Rows, 1)
	require.Len(t, sent[0].Rows[0], 1)
	assert.Equal(t, constants.CALLBACK_PREFIX_ORDER_DONE+strconv.Itoa(first), sent[0].Rows[0][0].Data)
	assert.False(t, f.rec.Contains(workerA.ID, constants.QueueEmptyMessage))

	got, err := f.repo.FindByID(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, models.OrderAssigned, got.Status)
}

func TestDispatchEmptyQueue(t *testing.T) {
	f := newFixture(t)
	f.add(t, workerB, models.PriorityNormal)

	res, err := f.d.DispatchNext(context.Background(), workerA)
	require.NoError(t, err)
	assert.Nil(t, res.Order)
	assert.Equal(t, constants.QueueEmptyMessage, f.rec.Last(workerA.ID).Text)
}

func TestDispatchSendsSitePhoto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.repo.Create(ctx, models.Order{
		Status: models.OrderAssigned, AssigneeID: workerA.ID, AssigneeName: workerA.Name, SitePhoto: "AgAD-site",
	})
	require.NoError(t, err)

	_, err = f.d.DispatchNext(ctx, workerA)
	require.NoError(t, err)
	photo := f.rec.Last(workerA.ID)
	assert.Equal(t, "photo", photo.Kind)
	assert.Equal(t, "AgAD-site", photo.FileID)
}

func TestDispatchTransportFailureDoesNotUndoTransition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.add(t, workerA, models.PriorityNormal)
	f.rec.FailFor[workerA.ID] = errors.New("bot was blocked by the user")

	res, err := f.d.DispatchNext(ctx, workerA)
	require.NoError(t, err)
	require.NotNil(t, res.Order)

	got, err := f.repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.OrderInProgress, got.Status)
}

func TestDispatchMatchesLegacyRowsByName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.repo.Create(ctx, models.Order{Status: models.OrderAssigned, AssigneeName: workerA.Name})
	require.NoError(t, err)

	res, err := f.d.DispatchNext(ctx, workerA)
	require.NoError(t, err)
	require.NotNil(t, res.Order)
	assert.Equal(t, 1001, res.Order.ID)
}

// Случайные чередования "начал смену" / "закрыл заказ" по нескольким
// сотрудникам: ни в какой момент у сотрудника не больше одного заказа в работе.
func TestAtMostOneInProgressPerWorker(t *testing.T) {
	workers := []models.Worker{workerA, workerB, {ID: 300, Name: "Пётр"}}
	for seed := int64(1); seed <= 5; seed++ {
		f := newFixture(t)
		ctx := context.Background()
		for i := 0; i < 12; i++ {
			f.add(t, workers[i%len(workers)], models.PriorityNormal)
		}

		violations := make(chan string, 100)
		stop := make(chan struct{})
		var checker sync.WaitGroup
		checker.Add(1)
		go func() {
			defer checker.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				checkInvariant(t, f.repo, workers, violations)
			}
		}()

		var wg sync.WaitGroup
		for g := 0; g < 6; g++ {
			wg.Add(1)
			go func(r *rand.Rand) {
				defer wg.Done()
				for step := 0; step < 25; step++ {
					w := workers[r.Intn(len(workers))]
					if r.Intn(2) == 0 {
						completeCurrent(ctx, t, f, w)
					}
					_, err := f.d.DispatchNext(ctx, w)
					assert.NoError(t, err)
				}
			}(rand.New(rand.NewSource(seed*100 + int64(g))))
		}
		wg.Wait()
		close(stop)
		checker.Wait()
		close(violations)

		for v := range violations {
			t.Errorf("seed %d: %s", seed, v)
		}
		checkInvariant(t, f.repo, workers, nil)
	}
}

// completeCurrent закрывает текущий заказ сотрудника так же, как это
// делает менеджер заказов: под блокировкой заказа.
func completeCurrent(ctx context.Context, t *testing.T, f *fixture, w models.Worker) {
	orders, err := f.repo.All(ctx)
	if !assert.NoError(t, err) {
		return
	}
	for _, rec := range orders {
		if !rec.AssignedTo(w) || rec.Status != models.OrderInProgress {
			continue
		}
		unlock := f.locks.Lock(utils.OrderLockKey(rec.ID))
		fresh, err := f.repo.FindByID(ctx, rec.ID)
		if err == nil && fresh.Status == models.OrderInProgress {
			done := models.OrderCompleted
			assert.NoError(t, f.repo.Update(ctx, fresh.Row, db.OrderPatch{Status: &done}))
		}
		unlock()
		return
	}
}

func checkInvariant(t *testing.T, repo *db.OrderRepository, workers []models.Worker, violations chan<- string) {
	orders, err := repo.All(context.Background())
	if !assert.NoError(t, err) {
		return
	}
	for _, w := range workers {
		n := 0
		for _, rec := range orders {
			if rec.AssignedTo(w) && rec.Status == models.OrderInProgress {
				n++
			}
		}
		if n > 1 {
			msg := w.Name + ": больше одного заказа в работе"
			if violations == nil {
				t.Error(msg)
				continue
			}
			select {
			case violations <- msg:
			default:
			}
		}
	}
}

package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fieldcrew/internal/apperrors"
	"fieldcrew/internal/constants"
	"fieldcrew/internal/db"
	"fieldcrew/internal/directory"
	"fieldcrew/internal/dispatch"
	"fieldcrew/internal/models"
	"fieldcrew/internal/notify"
	"fieldcrew/internal/sheets"
	"fieldcrew/internal/utils"
)

const (
	adminID int64 = 1
	workerA int64 = 100
	workerB int64 = 200
)

var now = time.Date(2026, 4, 8, 9, 15, 0, 0, time.UTC)

type mockDispatcher struct {
	mock.Mock
}

func (m *mockDispatcher) DispatchNext(ctx context.Context, worker models.Worker) (dispatch.Result, error) {
	args := m.Called(ctx, worker)
	return args.Get(0).(dispatch.Result), args.Error(1)
}

type env struct {
	repo *db.OrderRepository
	rec  *notify.Recorder
	m    *Manager
}

func newEnv(t *testing.T, d Dispatcher) *env {
	t.Helper()
	dir, err := directory.New([]models.Worker{
		{ID: workerA, Name: "Баранов Антон"},
		{ID: workerB, Name: "Мария"},
	}, []int64{adminID})
	require.NoError(t, err)
	repo, err := db.NewOrderRepository(context.Background(), sheets.NewMemory("orders"), time.UTC)
	require.NoError(t, err)
	rec := notify.NewRecorder()
	locks := utils.NewKeyedMutex()
	clock := func() time.Time { return now }
	if d == nil {
		d = dispatch.New(repo, rec, locks, clock, zap.NewNop())
	}
	return &env{repo: repo, rec: rec, m: NewManager(repo, dir, rec, d, locks, clock, zap.NewNop())}
}

func draftFor(worker int64) models.OrderDraft {
	return models.OrderDraft{
		Address: "Lot 12", WorkType: "mowing", Deadline: "10.04", Comment: "none",
		Priority: models.PriorityUrgent, AssigneeID: worker,
	}
}

// Создание, выдача по началу смены, выполнение, пустая очередь.
func TestOrderScenarioCreateDispatchComplete(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	order, err := e.m.Create(ctx, adminID, draftFor(workerA))
	require.NoError(t, err)
	assert.Equal(t, 1001, order.ID)
	assert.Equal(t, models.OrderAssigned, order.Status)
	assert.Equal(t, "Баранов Антон", order.AssigneeName)

	// начало смены вызывает диспетчер
	res, err := e.m.dispatcher.DispatchNext(ctx, models.Worker{ID: workerA, Name: "Баранов Антон"})
	require.NoError(t, err)
	require.NotNil(t, res.Order)
	got, err := e.m.Lookup(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, models.OrderInProgress, got.Status)
	assert.NotNil(t, got.StartedAt)

	done, err := e.m.RecordCompletionDetails(ctx, workerA, 1001, models.CompletionDetails{
		Amount: "1500", Payment: models.PaymentCash, Chemical: "none", Quantity: "0", Area: "6",
	})
	require.NoError(t, err)
	assert.Equal(t, models.OrderCompleted, done.Status)

	got, err = e.m.Lookup(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, "1500", got.Amount)
	assert.Equal(t, constants.NO_RECEIPT, got.ReceiptPhoto)

	assert.True(t, e.rec.Contains(adminID, "🎉 Заказ #1001 ВЫПОЛНЕН!"))
	assert.Equal(t, constants.QueueEmptyMessage, e.rec.Last(workerA).Text)
}

func TestCreateRequiresAdmin(t *testing.T) {
	e := newEnv(t, nil)
	_, err := e.m.Create(context.Background(), workerA, draftFor(workerA))
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	all, err := e.m.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateRejectsUnknownAssignee(t *testing.T) {
	e := newEnv(t, nil)
	_, err := e.m.Create(context.Background(), adminID, draftFor(999))
	assert.ErrorIs(t, err, apperrors.ErrMalformedInput)
}

func TestCancelNotFoundMutatesNothing(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	_, err := e.m.Create(ctx, adminID, draftFor(workerA))
	require.NoError(t, err)

	_, _, err = e.m.Cancel(ctx, adminID, 9999)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	got, err := e.m.Lookup(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, models.OrderAssigned, got.Status)
	assert.Empty(t, e.rec.All())
}

func TestCancelNotifiesAssignee(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	_, err := e.m.Create(ctx, adminID, draftFor(workerA))
	require.NoError(t, err)

	order, notified, err := e.m.Cancel(ctx, adminID, 1001)
	require.NoError(t, err)
	assert.True(t, notified)
	assert.Equal(t, models.OrderCancelled, order.Status)
	require.NotNil(t, order.CompletedAt)
	assert.Equal(t, "🚫 Заказ #1001 отменён администратором.\n🕒 08.04.2026 09:15", e.rec.Last(workerA).Text)

	_, _, err = e.m.Cancel(ctx, workerA, 1001)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestCancelInProgressDispatchesNext(t *testing.T) {
	d := &mockDispatcher{}
	e := newEnv(t, d)
	ctx := context.Background()
	_, err := e.m.Create(ctx, adminID, draftFor(workerA))
	require.NoError(t, err)
	_, err = e.m.MarkStarted(ctx, workerA, 1001)
	require.NoError(t, err)

	d.On("DispatchNext", mock.Anything, models.Worker{ID: workerA, Name: "Баранов Антон"}).
		Return(dispatch.Result{}, nil).Once()
	_, _, err = e.m.Cancel(ctx, adminID, 1001)
	require.NoError(t, err)
	d.AssertExpectations(t)
}

func TestCancelWithUnknownAssigneeStillCancels(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	_, err := e.repo.Create(ctx, models.Order{Status: models.OrderAssigned, AssigneeName: "Уволенный"})
	require.NoError(t, err)

	order, notified, err := e.m.Cancel(ctx, adminID, 1001)
	require.NoError(t, err)
	assert.False(t, notified)
	assert.Equal(t, models.OrderCancelled, order.Status)
}

func TestTerminalOrdersRejectTransitions(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	_, err := e.m.Create(ctx, adminID, draftFor(workerA))
	require.NoError(t, err)
	_, _, err = e.m.Cancel(ctx, adminID, 1001)
	require.NoError(t, err)
	e.rec.Reset()

	_, err = e.m.MarkStarted(ctx, workerA, 1001)
	assert.ErrorIs(t, err, apperrors.ErrTerminalStatus)
	_, err = e.m.RecordCompletionDetails(ctx, workerA, 1001, models.CompletionDetails{Amount: "1"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	_, _, err = e.m.Cancel(ctx, adminID, 1001)
	assert.ErrorIs(t, err, apperrors.ErrTerminalStatus)

	got, err := e.m.Lookup(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, got.Status)
	assert.Empty(t, got.Amount)
	assert.Empty(t, e.rec.All())
}

func TestCompletionRequiresInProgress(t *testing.T) {
	d := &mockDispatcher{}
	e := newEnv(t, d)
	ctx := context.Background()
	_, err := e.m.Create(ctx, adminID, draftFor(workerA))
	require.NoError(t, err)

	_, err = e.m.RecordCompletionDetails(ctx, workerA, 1001, models.CompletionDetails{Amount: "1"})
	assert.ErrorIs(t, err, apperrors.ErrOrderNotStarted)
	d.AssertNotCalled(t, "DispatchNext", mock.Anything, mock.Anything)
}

func TestCompletionByOtherWorkerForbidden(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	_, err := e.m.Create(ctx, adminID, draftFor(workerA))
	require.NoError(t, err)
	_, err = e.m.MarkStarted(ctx, workerA, 1001)
	require.NoError(t, err)

	_, err = e.m.RecordCompletionDetails(ctx, workerB, 1001, models.CompletionDetails{})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestMarkStartedRestampsAndNotifiesAdmins(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	_, err := e.m.Create(ctx, adminID, draftFor(workerA))
	require.NoError(t, err)

	order, err := e.m.MarkStarted(ctx, workerA, 1001)
	require.NoError(t, err)
	assert.Equal(t, models.OrderInProgress, order.Status)

	order, err = e.m.MarkStarted(ctx, workerA, 1001)
	require.NoError(t, err)
	assert.Equal(t, models.OrderInProgress, order.Status)
	assert.True(t, e.rec.Contains(adminID, "▶️ Заказ #1001 — начал работу!\n👷‍♂️ Исполнитель: Баранов Антон"))
}

func TestMarkStartedRejectsSecondActiveOrder(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := e.m.Create(ctx, adminID, draftFor(workerA))
		require.NoError(t, err)
	}
	_, err := e.m.MarkStarted(ctx, workerA, 1001)
	require.NoError(t, err)

	_, err = e.m.MarkStarted(ctx, workerA, 1002)
	assert.ErrorIs(t, err, apperrors.ErrWorkerBusy)
}

func TestActiveForExcludesClosed(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := e.m.Create(ctx, adminID, draftFor(workerA))
		require.NoError(t, err)
	}
	_, err := e.m.Create(ctx, adminID, draftFor(workerB))
	require.NoError(t, err)
	_, _, err = e.m.Cancel(ctx, adminID, 1002)
	require.NoError(t, err)

	active, err := e.m.ActiveFor(ctx, models.Worker{ID: workerA, Name: "Баранов Антон"})
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, 1001, active[0].ID)
	assert.Equal(t, 1003, active[1].ID)
}

func TestReceipt(t *testing.T) {
	d := &mockDispatcher{}
	d.On("DispatchNext", mock.Anything, mock.Anything).Return(dispatch.Result{}, nil)
	e := newEnv(t, d)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := e.m.Create(ctx, adminID, draftFor(workerA))
		require.NoError(t, err)
	}
	_, err := e.m.MarkStarted(ctx, workerA, 1001)
	require.NoError(t, err)
	_, err = e.m.RecordCompletionDetails(ctx, workerA, 1001, models.CompletionDetails{ReceiptPhoto: "AgAD-receipt"})
	require.NoError(t, err)

	file, err := e.m.Receipt(ctx, adminID, 1001)
	require.NoError(t, err)
	assert.Equal(t, "AgAD-receipt", file)

	_, err = e.m.Receipt(ctx, adminID, 1002)
	assert.ErrorIs(t, err, ErrNoReceipt)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = e.m.Receipt(ctx, workerA, 1001)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestDispatchFailureDoesNotFailCompletion(t *testing.T) {
	d := &mockDispatcher{}
	d.On("DispatchNext", mock.Anything, mock.Anything).Return(dispatch.Result{}, errors.New("sheet unavailable"))
	e := newEnv(t, d)
	ctx := context.Background()
	_, err := e.m.Create(ctx, adminID, draftFor(workerA))
	require.NoError(t, err)
	_, err = e.m.MarkStarted(ctx, workerA, 1001)
	require.NoError(t, err)

	order, err := e.m.RecordCompletionDetails(ctx, workerA, 1001, models.CompletionDetails{Amount: "10"})
	require.NoError(t, err)
	assert.Equal(t, models.OrderCompleted, order.Status)
	d.AssertNumberOfCalls(t, "DispatchNext", 1)
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to models.OrderStatus
		want     bool
	}{
		{models.OrderAssigned, models.OrderInProgress, true},
		{models.OrderAssigned, models.OrderCancelled, true},
		{models.OrderAssigned, models.OrderCompleted, false},
		{models.OrderInProgress, models.OrderCompleted, true},
		{models.OrderInProgress, models.OrderCancelled, true},
		{models.OrderCompleted, models.OrderCancelled, false},
		{models.OrderCancelled, models.OrderInProgress, false},
		{models.OrderCompleted, models.OrderInProgress, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

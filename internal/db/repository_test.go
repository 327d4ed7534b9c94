package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldcrew/internal/apperrors"
	"fieldcrew/internal/models"
	"fieldcrew/internal/sheets"
)

var testLoc = time.FixedZone("MSK", 3*60*60)

// brokenTable отдаёт ошибку на каждое чтение после заголовка.
type brokenTable struct {
	*sheets.Memory
}

func (b brokenTable) Rows(context.Context) ([][]string, error) {
	return nil, errors.New("quota exceeded")
}

func newOrders(t *testing.T) (*OrderRepository, *sheets.Memory) {
	t.Helper()
	table := sheets.NewMemory("orders")
	repo, err := NewOrderRepository(context.Background(), table, testLoc)
	require.NoError(t, err)
	return repo, table
}

func TestOrderIDsStartAt1001AndIncrease(t *testing.T) {
	repo, _ := newOrders(t)
	ctx := context.Background()

	for want := 1001; want < 1006; want++ {
		rec, err := repo.Create(ctx, models.Order{Address: "Lot", Status: models.OrderAssigned})
		require.NoError(t, err)
		assert.Equal(t, want, rec.ID)
		assert.Equal(t, want-1001+2, rec.Row)
	}
}

func TestOrderNextIDAfterGarbageRow(t *testing.T) {
	repo, table := newOrders(t)
	ctx := context.Background()
	_, err := table.Append(ctx, []string{"итого"})
	require.NoError(t, err)

	rec, err := repo.Create(ctx, models.Order{})
	require.NoError(t, err)
	assert.Equal(t, 1001, rec.ID)
}

func TestOrderRoundTripAndUpdate(t *testing.T) {
	repo, _ := newOrders(t)
	ctx := context.Background()
	created := time.Date(2026, 4, 8, 9, 15, 0, 0, testLoc)

	rec, err := repo.Create(ctx, models.Order{
		Address:      "Lot 12",
		WorkType:     "mowing",
		Deadline:     "10.04",
		Comment:      "none",
		Priority:     models.PriorityUrgent,
		Status:       models.OrderAssigned,
		AssigneeID:   42,
		AssigneeName: "Баранов Антон",
		CreatedAt:    created,
		SitePhoto:    "AgAD-photo",
	})
	require.NoError(t, err)

	got, err := repo.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Row, got.Row)
	assert.Equal(t, "Lot 12", got.Address)
	assert.Equal(t, models.PriorityUrgent, got.Priority)
	assert.Equal(t, int64(42), got.AssigneeID)
	assert.Equal(t, "08.04.2026", got.CreatedAt.Format("02.01.2006"))
	assert.Nil(t, got.StartedAt)
	assert.Equal(t, "AgAD-photo", got.SitePhoto)

	done := models.OrderCompleted
	finished := time.Date(2026, 4, 8, 12, 30, 0, 0, testLoc)
	require.NoError(t, repo.Update(ctx, got.Row, OrderPatch{
		Status:      &done,
		CompletedAt: &finished,
		Completion: &models.CompletionDetails{
			Amount: "1500", Payment: models.PaymentCash, ReceiptPhoto: "без чека",
			Chemical: "none", Quantity: "0", Area: "6",
		},
	}))

	got, err = repo.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, finished.Equal(*got.CompletedAt))
	assert.Equal(t, "1500", got.Amount)
	assert.Equal(t, models.PaymentCash, got.PaymentMethod)
	assert.Equal(t, "6", got.Area)
}

func TestOrderFindByIDNotFound(t *testing.T) {
	repo, _ := newOrders(t)
	_, err := repo.FindByID(context.Background(), 9999)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestOrderStoreFailureIsStoreError(t *testing.T) {
	ctx := context.Background()
	repo, err := NewOrderRepository(ctx, brokenTable{sheets.NewMemory("orders")}, testLoc)
	require.NoError(t, err)

	_, err = repo.All(ctx)
	assert.ErrorIs(t, err, apperrors.ErrStore)

	_, err = repo.Create(ctx, models.Order{})
	assert.ErrorIs(t, err, apperrors.ErrStore)
}

func TestOrderLast(t *testing.T) {
	repo, _ := newOrders(t)
	ctx := context.Background()
	for i := 0; i < 12; i++ {
		_, err := repo.Create(ctx, models.Order{})
		require.NoError(t, err)
	}
	last, err := repo.Last(ctx, 10)
	require.NoError(t, err)
	require.Len(t, last, 10)
	assert.Equal(t, 1003, last[0].ID)
	assert.Equal(t, 1012, last[9].ID)
}

func TestShiftAppendClose(t *testing.T) {
	ctx := context.Background()
	repo, err := NewShiftRepository(ctx, sheets.NewMemory("shifts"), testLoc)
	require.NoError(t, err)

	start := time.Date(2026, 4, 8, 9, 0, 0, 0, testLoc)
	rec, err := repo.Append(ctx, models.Shift{
		EmployeeID: 42, EmployeeName: "Баранов Антон", Start: start, Status: models.ShiftInProgress,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Row)

	end := time.Date(2026, 4, 8, 17, 30, 0, 0, testLoc)
	require.NoError(t, repo.Close(ctx, rec.Row, end, 8.5))

	all, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	got := all[0]
	assert.Equal(t, int64(42), got.EmployeeID)
	assert.True(t, start.Equal(got.Start))
	require.NotNil(t, got.End)
	assert.True(t, end.Equal(*got.End))
	assert.Equal(t, 8.5, got.HoursWorked)
	assert.Equal(t, models.ShiftCompleted, got.Status)
}

func TestShiftHoursWithComma(t *testing.T) {
	ctx := context.Background()
	table := sheets.NewMemory("shifts")
	repo, err := NewShiftRepository(ctx, table, testLoc)
	require.NoError(t, err)
	_, err = table.Append(ctx, []string{"7", "Мария", "01.04.2026", "08:00", "12:15", "4,25", "Завершена"})
	require.NoError(t, err)

	all, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 4.25, all[0].HoursWorked)
}

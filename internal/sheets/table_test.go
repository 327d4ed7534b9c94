package sheets

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var header = []string{"№", "Имя", "Статус"}

// exerciseTable проверяет одинаковое поведение всех реализаций Table.
func exerciseTable(t *testing.T, table Table) {
	ctx := context.Background()

	h, err := table.Header(ctx)
	require.NoError(t, err)
	assert.Empty(t, h)

	require.NoError(t, EnsureHeader(ctx, table, header))
	require.NoError(t, EnsureHeader(ctx, table, header), "повторный вызов не должен дублировать заголовок")

	h, err = table.Header(ctx)
	require.NoError(t, err)
	assert.Equal(t, header, h)

	rows, err := table.Rows(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)

	row, err := table.Append(ctx, []string{"1001", "Антон", "новый"})
	require.NoError(t, err)
	assert.Equal(t, 2, row)

	row, err = table.Append(ctx, []string{"1002", "Мария"})
	require.NoError(t, err)
	assert.Equal(t, 3, row)

	found, ok, err := table.FindRow(ctx, 1, "1002")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, found)

	// значение из другой колонки не считается совпадением
	_, ok, err = table.FindRow(ctx, 1, "Мария")
	require.NoError(t, err)
	assert.False(t, ok)

	// заголовок не участвует в поиске
	_, ok, err = table.FindRow(ctx, 1, "№")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, table.UpdateCells(ctx, 3, map[int]string{3: "готов", 5: "x"}))

	rows, err = table.Rows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "новый", CellAt(rows[0], 3))
	assert.Equal(t, "готов", CellAt(rows[1], 3))
	assert.Equal(t, "", CellAt(rows[1], 4))
	assert.Equal(t, "x", CellAt(rows[1], 5))

	assert.Error(t, table.UpdateCells(ctx, 99, map[int]string{1: "x"}))
}

func TestMemoryTable(t *testing.T) {
	exerciseTable(t, NewMemory("test"))
}

func TestWorkbookTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.xlsx")
	wb, err := OpenWorkbook(path, "Заказы")
	require.NoError(t, err)
	exerciseTable(t, wb)
	require.NoError(t, wb.Close())

	// данные переживают повторное открытие файла
	reopened, err := OpenWorkbook(path, "Заказы")
	require.NoError(t, err)
	defer reopened.Close()

	rows, err := reopened.Rows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "1002", CellAt(rows[1], 1))
	assert.Equal(t, "готов", CellAt(rows[1], 3))
}

func TestPostgresTable(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL не задан")
	}
	ctx := context.Background()
	db, err := OpenPostgres(ctx, dsn)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.ExecContext(ctx, `DELETE FROM sheet_rows WHERE sheet = 'test'`)
	require.NoError(t, err)
	exerciseTable(t, NewPostgres(db, "test"))
}

func TestEnsureHeaderExtendsAndRejects(t *testing.T) {
	ctx := context.Background()
	table := NewMemory("t")
	_, err := table.Append(ctx, []string{"№", "Имя"})
	require.NoError(t, err)

	require.NoError(t, EnsureHeader(ctx, table, header))
	h, err := table.Header(ctx)
	require.NoError(t, err)
	assert.Equal(t, header, h)

	other := NewMemory("o")
	_, err = other.Append(ctx, []string{"id", "name"})
	require.NoError(t, err)
	assert.Error(t, EnsureHeader(ctx, other, header))
}

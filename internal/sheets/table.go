// Package sheets - граница внешнего табличного хранилища.
// Строки нумеруются как в электронной таблице: 1 - заголовок, данные с 2.
// Колонки нумеруются с 1.
package sheets

import (
	"context"
	"fmt"
)

// Table - один именованный лист.
type Table interface {
	Name() string
	// Header возвращает первую строку; для пустого листа - nil.
	Header(ctx context.Context) ([]string, error)
	// Rows возвращает строки данных без заголовка. rows[i] лежит в строке i+2.
	Rows(ctx context.Context) ([][]string, error)
	// Append дописывает строку в конец и возвращает её номер.
	Append(ctx context.Context, cells []string) (int, error)
	// UpdateCells меняет несколько ячеек одной строки за одну фиксацию.
	UpdateCells(ctx context.Context, row int, cells map[int]string) error
	// FindRow ищет первое совпадение значения в колонке col среди строк данных.
	FindRow(ctx context.Context, col int, value string) (row int, found bool, err error)
}

// EnsureHeader записывает заголовок в пустой лист и проверяет его у непустого.
func EnsureHeader(ctx context.Context, t Table, header []string) error {
	existing, err := t.Header(ctx)
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		_, err = t.Append(ctx, header)
		return err
	}
	for i, name := range header {
		if CellAt(existing, i+1) != name {
			// Дописанные справа колонки допускаются, остальное - чужая схема.
			if CellAt(existing, i+1) == "" {
				cells := make(map[int]string, len(header)-i)
				for j := i; j < len(header); j++ {
					cells[j+1] = header[j]
				}
				return t.UpdateCells(ctx, 1, cells)
			}
			return fmt.Errorf("лист %q: колонка %d = %q, ожидалась %q", t.Name(), i+1, CellAt(existing, i+1), name)
		}
	}
	return nil
}

// CellAt безопасно читает колонку col (с 1) из строки, короткие строки дают "".
func CellAt(row []string, col int) string {
	if col < 1 || col > len(row) {
		return ""
	}
	return row[col-1]
}

// DataRowNumber переводит индекс в срезе Rows в номер строки листа.
func DataRowNumber(index int) int {
	return index + 2
}

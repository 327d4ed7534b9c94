package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/xuri/excelize/v2"
)

// Workbook - лист в файле .xlsx. Каждая мутация сохраняет файл целиком,
// поэтому UpdateCells фиксирует все ячейки строки одной записью на диск.
type Workbook struct {
	mu    sync.Mutex
	path  string
	sheet string
	file  *excelize.File
}

// OpenWorkbook открывает файл или создаёт новый с единственным листом sheet.
func OpenWorkbook(path, sheet string) (*Workbook, error) {
	w := &Workbook{path: path, sheet: sheet}
	if err := w.load(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Workbook) load() error {
	f, err := excelize.OpenFile(w.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		f = excelize.NewFile()
		if err := f.SetSheetName("Sheet1", w.sheet); err != nil {
			return fmt.Errorf("книга %s: %w", w.path, err)
		}
		if err := f.SaveAs(w.path); err != nil {
			return fmt.Errorf("книга %s: не удалось создать файл: %w", w.path, err)
		}
	case err != nil:
		return fmt.Errorf("книга %s: не удалось открыть: %w", w.path, err)
	default:
		idx, errIdx := f.GetSheetIndex(w.sheet)
		if errIdx != nil {
			return fmt.Errorf("книга %s: %w", w.path, errIdx)
		}
		if idx == -1 {
			if _, errNew := f.NewSheet(w.sheet); errNew != nil {
				return fmt.Errorf("книга %s: не удалось добавить лист %q: %w", w.path, w.sheet, errNew)
			}
		}
	}
	if w.file != nil {
		_ = w.file.Close()
	}
	w.file = f
	return nil
}

// Close закрывает файл книги.
func (w *Workbook) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

func (w *Workbook) Name() string { return w.sheet }

func (w *Workbook) Header(_ context.Context) ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	grid, err := w.file.GetRows(w.sheet)
	if err != nil {
		return nil, err
	}
	if len(grid) == 0 {
		return nil, nil
	}
	return grid[0], nil
}

func (w *Workbook) Rows(_ context.Context) ([][]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	grid, err := w.file.GetRows(w.sheet)
	if err != nil {
		return nil, err
	}
	if len(grid) <= 1 {
		return nil, nil
	}
	return grid[1:], nil
}

func (w *Workbook) Append(_ context.Context, cells []string) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	grid, err := w.file.GetRows(w.sheet)
	if err != nil {
		return 0, err
	}
	row := len(grid) + 1
	for i, value := range cells {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		if err := w.file.SetCellStr(w.sheet, cell, value); err != nil {
			return 0, w.rollback(err)
		}
	}
	if err := w.file.SaveAs(w.path); err != nil {
		return 0, w.rollback(err)
	}
	return row, nil
}

func (w *Workbook) UpdateCells(_ context.Context, row int, cells map[int]string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	grid, err := w.file.GetRows(w.sheet)
	if err != nil {
		return err
	}
	if row < 1 || row > len(grid) {
		return fmt.Errorf("лист %q: строки %d нет", w.sheet, row)
	}
	for col, value := range cells {
		cell, errName := excelize.CoordinatesToCellName(col, row)
		if errName != nil {
			return w.rollback(errName)
		}
		if err := w.file.SetCellStr(w.sheet, cell, value); err != nil {
			return w.rollback(err)
		}
	}
	if err := w.file.SaveAs(w.path); err != nil {
		return w.rollback(err)
	}
	return nil
}

func (w *Workbook) FindRow(_ context.Context, col int, value string) (int, bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	grid, err := w.file.GetRows(w.sheet)
	if err != nil {
		return 0, false, err
	}
	for i := 1; i < len(grid); i++ {
		if CellAt(grid[i], col) == value {
			return i + 1, true, nil
		}
	}
	return 0, false, nil
}

// rollback перечитывает файл с диска, отбрасывая несохранённые ячейки.
func (w *Workbook) rollback(cause error) error {
	if err := w.load(); err != nil {
		return fmt.Errorf("%w (перечитать книгу не удалось: %v)", cause, err)
	}
	return cause
}

package sheets

import (
	"context"
	"fmt"
	"sync"
)

// Memory - лист в памяти процесса. Используется в тестах и в режиме STORE_BACKEND=memory.
type Memory struct {
	mu   sync.RWMutex
	name string
	grid [][]string
}

func NewMemory(name string) *Memory {
	return &Memory{name: name}
}

func (m *Memory) Name() string { return m.name }

func (m *Memory) Header(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.grid) == 0 {
		return nil, nil
	}
	return cloneRow(m.grid[0]), nil
}

func (m *Memory) Rows(_ context.Context) ([][]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.grid) <= 1 {
		return nil, nil
	}
	out := make([][]string, 0, len(m.grid)-1)
	for _, row := range m.grid[1:] {
		out = append(out, cloneRow(row))
	}
	return out, nil
}

func (m *Memory) Append(_ context.Context, cells []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grid = append(m.grid, cloneRow(cells))
	return len(m.grid), nil
}

func (m *Memory) UpdateCells(_ context.Context, row int, cells map[int]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if row < 1 || row > len(m.grid) {
		return fmt.Errorf("лист %q: строки %d нет", m.name, row)
	}
	for col := range cells {
		if col < 1 {
			return fmt.Errorf("лист %q: неверная колонка %d", m.name, col)
		}
	}
	target := m.grid[row-1]
	for col, value := range cells {
		for len(target) < col {
			target = append(target, "")
		}
		target[col-1] = value
	}
	m.grid[row-1] = target
	return nil
}

func (m *Memory) FindRow(_ context.Context, col int, value string) (int, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := 1; i < len(m.grid); i++ {
		if CellAt(m.grid[i], col) == value {
			return i + 1, true, nil
		}
	}
	return 0, false, nil
}

func cloneRow(row []string) []string {
	out := make([]string, len(row))
	copy(out, row)
	return out
}

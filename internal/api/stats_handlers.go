package api

import (
	"context"
	"net/http"
	"sort"

	"fieldcrew/internal/models"
)

// EmployeeStats - итоги по одному сотруднику.
type EmployeeStats struct {
	Name            string  `json:"name"`
	CompletedOrders int     `json:"completed_orders"`
	ActiveOrders    int     `json:"active_orders"`
	Hours           float64 `json:"hours"`
	Shifts          int     `json:"shifts"`
}

// Stats - сводка для администратора.
type Stats struct {
	TotalOrders    int             `json:"total_orders"`
	OrdersByStatus map[string]int  `json:"orders_by_status"`
	OrdersByMonth  map[string]int  `json:"orders_by_month"`
	UrgentOpen     int             `json:"urgent_open"`
	TotalHours     float64         `json:"total_hours"`
	Employees      []EmployeeStats `json:"employees"`
}

// GetStats возвращает сводную статистику по заказам и сменам.
func (h *handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.calculateStatistics(r.Context())
	if err != nil {
		h.writeAppError(w, "GetStats", err)
		return
	}
	writeJSONSuccess(w, "Statistics retrieved successfully", stats)
}

// calculateStatistics считает статистику по всем записям хранилища.
func (h *handler) calculateStatistics(ctx context.Context) (Stats, error) {
	allOrders, err := h.deps.Orders.Recent(ctx, 0)
	if err != nil {
		return Stats{}, err
	}
	allShifts, err := h.deps.Shifts.Recent(ctx, 0)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		TotalOrders:    len(allOrders),
		OrdersByStatus: make(map[string]int),
		OrdersByMonth:  make(map[string]int),
	}
	byName := make(map[string]*EmployeeStats)
	employee := func(name string) *EmployeeStats {
		if name == "" {
			name = "Неизвестно"
		}
		e, ok := byName[name]
		if !ok {
			e = &EmployeeStats{Name: name}
			byName[name] = e
		}
		return e
	}

	for _, o := range allOrders {
		stats.OrdersByStatus[string(o.Status)]++
		if !o.CreatedAt.IsZero() {
			stats.OrdersByMonth[o.CreatedAt.Format("2006-01")]++
		}
		switch {
		case o.Status == models.OrderCompleted:
			employee(o.AssigneeName).CompletedOrders++
		case !o.Status.IsTerminal():
			employee(o.AssigneeName).ActiveOrders++
			if o.Priority == models.PriorityUrgent {
				stats.UrgentOpen++
			}
		}
	}

	for _, s := range allShifts {
		if s.Status != models.ShiftCompleted {
			continue
		}
		e := employee(s.EmployeeName)
		e.Shifts++
		e.Hours += s.HoursWorked
		stats.TotalHours += s.HoursWorked
	}

	for _, e := range byName {
		stats.Employees = append(stats.Employees, *e)
	}
	sort.Slice(stats.Employees, func(i, j int) bool {
		if stats.Employees[i].CompletedOrders != stats.Employees[j].CompletedOrders {
			return stats.Employees[i].CompletedOrders > stats.Employees[j].CompletedOrders
		}
		return stats.Employees[i].Name < stats.Employees[j].Name
	})
	return stats, nil
}

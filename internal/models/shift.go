package models

import (
	"math"
	"time"
)

type ShiftStatus string

const (
	ShiftInProgress ShiftStatus = "В процессе"
	ShiftCompleted  ShiftStatus = "Завершена"
)

// Shift - интервал работы сотрудника за календарный день.
// Start несёт и дату смены, и время начала.
type Shift struct {
	EmployeeID   int64
	EmployeeName string
	Start        time.Time
	End          *time.Time
	HoursWorked  float64
	Status       ShiftStatus
}

// HoursBetween считает отработанные часы с точностью до сотых.
// Для смены через полночь результат отрицательный: конец берётся в дате начала.
func HoursBetween(start, end time.Time) float64 {
	return math.Round(end.Sub(start).Hours()*100) / 100
}

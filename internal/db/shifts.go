// Файл: internal/db/shifts.go
package db

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"fieldcrew/internal/apperrors"
	"fieldcrew/internal/constants"
	"fieldcrew/internal/models"
	"fieldcrew/internal/sheets"
	"fieldcrew/internal/utils"
)

const (
	colEmployeeID = iota + 1
	colEmployeeName
	colShiftDate
	colShiftStart
	colShiftEnd
	colHoursWorked
	colShiftStatus
)

var ShiftHeader = []string{
	"ID сотрудника", "Имя сотрудника", "Дата", "Начало смены",
	"Окончание смены", "Отработано (ч)", "Статус",
}

// ShiftRecord - смена вместе с номером строки листа.
type ShiftRecord struct {
	Row int
	models.Shift
}

// ShiftRepository - типизированный доступ к листу смен.
type ShiftRepository struct {
	table sheets.Table
	loc   *time.Location
}

func NewShiftRepository(ctx context.Context, table sheets.Table, loc *time.Location) (*ShiftRepository, error) {
	if err := sheets.EnsureHeader(ctx, table, ShiftHeader); err != nil {
		return nil, apperrors.NewStoreError("заголовок листа смен", err)
	}
	if loc == nil {
		loc = time.Local
	}
	return &ShiftRepository{table: table, loc: loc}, nil
}

// All возвращает смены в порядке листа. Строки без id сотрудника пропускаются.
func (r *ShiftRepository) All(ctx context.Context) ([]ShiftRecord, error) {
	rows, err := r.table.Rows(ctx)
	if err != nil {
		return nil, apperrors.NewStoreError("чтение смен", err)
	}
	out := make([]ShiftRecord, 0, len(rows))
	for i, cells := range rows {
		shift, ok := r.fromRow(cells)
		if !ok {
			continue
		}
		out = append(out, ShiftRecord{Row: sheets.DataRowNumber(i), Shift: shift})
	}
	return out, nil
}

// Last возвращает последние n смен всех сотрудников в порядке листа.
func (r *ShiftRepository) Last(ctx context.Context, n int) ([]ShiftRecord, error) {
	all, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	if n > 0 && len(all) > n {
		all = all[len(all)-n:]
	}
	return all, nil
}

// Append дописывает открытую смену.
func (r *ShiftRepository) Append(ctx context.Context, shift models.Shift) (ShiftRecord, error) {
	start := shift.Start.In(r.loc)
	row, err := r.table.Append(ctx, []string{
		strconv.FormatInt(shift.EmployeeID, 10),
		shift.EmployeeName,
		start.Format(constants.DATE_FORMAT),
		start.Format(constants.TIME_FORMAT),
		"",
		"",
		string(shift.Status),
	})
	if err != nil {
		return ShiftRecord{}, apperrors.NewStoreError("добавление смены", err)
	}
	return ShiftRecord{Row: row, Shift: shift}, nil
}

// Close записывает окончание, часы и статус одной фиксацией.
func (r *ShiftRepository) Close(ctx context.Context, row int, end time.Time, hours float64) error {
	err := r.table.UpdateCells(ctx, row, map[int]string{
		colShiftEnd:    end.In(r.loc).Format(constants.TIME_FORMAT),
		colHoursWorked: utils.FormatHours(hours),
		colShiftStatus: string(models.ShiftCompleted),
	})
	if err != nil {
		return apperrors.NewStoreError("закрытие смены", err)
	}
	return nil
}

func (r *ShiftRepository) fromRow(cells []string) (models.Shift, bool) {
	id, err := strconv.ParseInt(sheets.CellAt(cells, colEmployeeID), 10, 64)
	if err != nil {
		return models.Shift{}, false
	}
	date := sheets.CellAt(cells, colShiftDate)
	start, err := time.ParseInLocation(constants.TIMESTAMP_FORMAT, date+" "+sheets.CellAt(cells, colShiftStart), r.loc)
	if err != nil {
		start, _ = time.ParseInLocation(constants.DATE_FORMAT, date, r.loc)
	}
	shift := models.Shift{
		EmployeeID:   id,
		EmployeeName: sheets.CellAt(cells, colEmployeeName),
		Start:        start,
		Status:       models.ShiftStatus(sheets.CellAt(cells, colShiftStatus)),
	}
	if endValue := sheets.CellAt(cells, colShiftEnd); endValue != "" {
		if end, err := time.ParseInLocation(constants.TIMESTAMP_FORMAT, date+" "+endValue, r.loc); err == nil {
			shift.End = &end
		}
	}
	if hours := sheets.CellAt(cells, colHoursWorked); hours != "" {
		shift.HoursWorked, _ = utils.ParseHours(hours)
	}
	return shift, true
}

func errRowVanished(row int) error {
	return fmt.Errorf("строка %d исчезла между чтениями", row)
}

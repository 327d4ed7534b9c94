package api

import (
	"fmt"
	"net/http"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"fieldcrew/internal/models"
	"fieldcrew/internal/utils"
)

var (
	exportOrderHeaders = []string{"№ заказа", "Адрес", "Тип работы", "Срок", "Комментарий", "Приоритет", "Статус",
		"Ответственный", "Создан", "Начал работу", "Выполнил работу", "Сумма", "Оплата", "Препарат", "Количество", "Площадь", "Чек"}
	exportShiftHeaders = []string{"ID сотрудника", "Имя сотрудника", "Дата", "Начало смены", "Окончание смены", "Отработано (ч)", "Статус"}
)

// ExportWorkbook отдаёт xlsx с двумя листами: заказы и смены.
func (h *handler) ExportWorkbook(w http.ResponseWriter, r *http.Request) {
	allOrders, err := h.deps.Orders.Recent(r.Context(), 0)
	if err != nil {
		h.writeAppError(w, "ExportWorkbook", err)
		return
	}
	allShifts, err := h.deps.Shifts.Recent(r.Context(), 0)
	if err != nil {
		h.writeAppError(w, "ExportWorkbook", err)
		return
	}

	f, err := buildWorkbook(allOrders, allShifts)
	if err != nil {
		h.writeAppError(w, "ExportWorkbook", err)
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("report_%s.xlsx", utils.GenerateUUID())
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := f.Write(w); err != nil {
		h.deps.Logger.Error("ExportWorkbook: ошибка записи файла", zap.Error(err))
	}
}

func buildWorkbook(allOrders []models.Order, allShifts []models.Shift) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := writeSheet(f, "Заказы", exportOrderHeaders, len(allOrders), func(i int) []interface{} {
		o := toOrderDTO(allOrders[i])
		receipt := "нет"
		if o.HasReceipt {
			receipt = "есть"
		}
		return []interface{}{o.ID, o.Address, o.WorkType, o.Deadline, o.Comment, o.Priority, o.Status,
			o.AssigneeName, o.CreatedAt, o.StartedAt, o.CompletedAt, o.Amount, o.PaymentMethod,
			o.Chemical, o.Quantity, o.Area, receipt}
	}); err != nil {
		f.Close()
		return nil, err
	}

	shiftRows := toShiftDTOs(allShifts)
	if err := writeSheet(f, "Смены", exportShiftHeaders, len(shiftRows), func(i int) []interface{} {
		s := shiftRows[i]
		var hours interface{} = ""
		if s.Status == string(models.ShiftCompleted) {
			hours = s.HoursWorked
		}
		return []interface{}{s.EmployeeID, s.EmployeeName, s.Date, s.Start, s.End, hours, s.Status}
	}); err != nil {
		f.Close()
		return nil, err
	}

	// NewFile создаёт Sheet1, он не нужен.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, err
	}
	f.SetActiveSheet(0)
	return f, nil
}

func writeSheet(f *excelize.File, name string, headers []string, n int, row func(i int) []interface{}) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("лист %s: %w", name, err)
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(name, cell, header); err != nil {
			return err
		}
	}
	for i := 0; i < n; i++ {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := row(i)
		if err := f.SetSheetRow(name, cell, &values); err != nil {
			return err
		}
	}
	return nil
}

package formatters

import (
	"fmt"
	"strings"
	"time"

	"fieldcrew/internal/constants"
	"fieldcrew/internal/models"
	"fieldcrew/internal/utils"
)

// FormatOrderCreated - подтверждение администратору после создания заказа.
func FormatOrderCreated(order models.Order) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🆕 Заказ #%d успешно назначен!\n", order.ID))
	writeOrderFields(&b, order)
	b.WriteString(fmt.Sprintf("⏳ Приоритет: %s\n", strings.ToUpper(string(order.Priority))))
	if order.AssigneeName != "" {
		b.WriteString(fmt.Sprintf("👷 Исполнитель: %s\n", order.AssigneeName))
	}
	b.WriteString("\n✅ Заказ будет автоматически отправлен сотруднику при начале смены.")
	return b.String()
}

// FormatOrderCard - карточка заказа, которую диспетчер отправляет сотруднику.
func FormatOrderCard(order models.Order) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("▶️ НОВЫЙ ЗАКАЗ #%d\n", order.ID))
	writeOrderFields(&b, order)
	b.WriteString(fmt.Sprintf("⏳ Приоритет: %s", order.Priority))
	return b.String()
}

func writeOrderFields(b *strings.Builder, order models.Order) {
	b.WriteString(fmt.Sprintf("📍 Адрес: %s\n", order.Address))
	b.WriteString(fmt.Sprintf("⚒ Работа: %s\n", order.WorkType))
	b.WriteString(fmt.Sprintf("📅 Срок: %s\n", order.Deadline))
	b.WriteString(fmt.Sprintf("📝 Комментарий: %s\n", order.Comment))
}

// FormatSitePhotoCaption - подпись к фото участка.
func FormatSitePhotoCaption(orderID int) string {
	return fmt.Sprintf("📷 Фото участка к заказу #%d", orderID)
}

// FormatWorkStartedMark дописывается к карточке после нажатия "Начал работу".
func FormatWorkStartedMark(cardText string, at time.Time) string {
	return fmt.Sprintf("%s\n\n▶️ РАБОТА НАЧАТА\n🕒 %s", cardText, at.Format(constants.TIMESTAMP_FORMAT))
}

// FormatOrderStartedForAdmin - уведомление администраторам о начале работы.
func FormatOrderStartedForAdmin(orderID int, workerName string, at time.Time) string {
	return fmt.Sprintf("▶️ Заказ #%d — начал работу!\n👷‍♂️ Исполнитель: %s\n🕒 %s",
		orderID, workerName, at.Format(constants.TIMESTAMP_FORMAT))
}

// FormatCompletionReport - отчёт администраторам о выполненном заказе.
func FormatCompletionReport(order models.Order) string {
	assignee := order.AssigneeName
	if assignee == "" {
		assignee = "Неизвестно"
	}
	receipt := "Не предоставлен"
	if order.ReceiptPhoto != "" && order.ReceiptPhoto != constants.NO_RECEIPT {
		receipt = "Прикреплён"
	}
	var at string
	if order.CompletedAt != nil {
		at = order.CompletedAt.Format(constants.TIMESTAMP_FORMAT)
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("🎉 Заказ #%d ВЫПОЛНЕН!\n", order.ID))
	b.WriteString(fmt.Sprintf("👷‍♂️ Исполнитель: %s\n", assignee))
	b.WriteString(fmt.Sprintf("🕒 %s\n\n", at))
	b.WriteString(fmt.Sprintf("💰 Сумма: %s руб.\n", order.Amount))
	b.WriteString(fmt.Sprintf("💳 Оплата: %s\n", order.PaymentMethod))
	b.WriteString(fmt.Sprintf("🧾 Чек: %s\n", receipt))
	b.WriteString(fmt.Sprintf("🧪 Препарат: %s\n", order.Chemical))
	b.WriteString(fmt.Sprintf("🔢 Количество: %s\n", order.Quantity))
	b.WriteString(fmt.Sprintf("📐 Площадь: %s", order.Area))
	return b.String()
}

// FormatOrderCancelledForWorker уходит бывшему исполнителю.
func FormatOrderCancelledForWorker(orderID int, at time.Time) string {
	return fmt.Sprintf("🚫 Заказ #%d отменён администратором.\n🕒 %s", orderID, at.Format(constants.TIMESTAMP_FORMAT))
}

// FormatOrderCancelledForAdmin - ответ администратору на /cancel.
func FormatOrderCancelledForAdmin(order models.Order, notified bool) string {
	if notified {
		return fmt.Sprintf("✅ Заказ #%d отменён. Уведомление отправлено %s.", order.ID, order.AssigneeName)
	}
	return fmt.Sprintf("✅ Заказ #%d отменён. Сотрудника уведомить не удалось.", order.ID)
}

func FormatOrderNotFound(orderID int) string {
	return fmt.Sprintf("❌ Заказ #%d не найден.", orderID)
}

// FormatWorkerOrders - список активных заказов сотрудника.
func FormatWorkerOrders(orders []models.Order) string {
	if len(orders) == 0 {
		return "📭 У вас нет активных заказов."
	}
	lines := make([]string, 0, len(orders)+1)
	lines = append(lines, "📋 Ваши назначенные заказы:")
	for _, o := range orders {
		lines = append(lines, fmt.Sprintf("🆕 #%d | %s | %s | %s", o.ID, o.Address, o.WorkType, o.Status))
	}
	return strings.Join(lines, "\n")
}

// FormatAdminOrders - последние заказы для администратора.
func FormatAdminOrders(orders []models.Order) string {
	if len(orders) == 0 {
		return "📭 Нет заказов."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📋 Последние %d заказов:\n\n", len(orders)))
	for i, o := range orders {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("#%d | %s | 👷 %s | %s", o.ID, o.Address, o.AssigneeName, o.Status))
	}
	return b.String()
}

// FormatAdminShifts - последние смены всей бригады.
func FormatAdminShifts(shifts []models.Shift) string {
	if len(shifts) == 0 {
		return "📭 Нет данных по сменам."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 Последние %d смен:\n\n", len(shifts)))
	for i, s := range shifts {
		if i > 0 {
			b.WriteString("\n")
		}
		hours := ""
		if s.Status == models.ShiftCompleted {
			hours = utils.FormatHours(s.HoursWorked)
		}
		b.WriteString(fmt.Sprintf("👤 %s | 📅 %s | ⏱ %s ч.", s.EmployeeName, s.Start.Format(constants.DATE_FORMAT), hours))
	}
	return b.String()
}

// FormatWorkerShifts - завершённые смены сотрудника, новые сверху.
func FormatWorkerShifts(shifts []models.Shift) string {
	if len(shifts) == 0 {
		return "📭 У вас пока нет завершённых смен."
	}
	lines := make([]string, 0, len(shifts)+1)
	lines = append(lines, "📋 Ваши последние смены:")
	for _, s := range shifts {
		end := ""
		if s.End != nil {
			end = s.End.Format(constants.TIME_FORMAT)
		}
		lines = append(lines, fmt.Sprintf("📅 %s | 🕗 %s–%s | ⏱ %s ч.",
			s.Start.Format(constants.DATE_FORMAT), s.Start.Format(constants.TIME_FORMAT), end, utils.FormatHours(s.HoursWorked)))
	}
	return strings.Join(lines, "\n")
}

func FormatShiftStarted(s models.Shift) string {
	return "✅ Смена начата в " + s.Start.Format(constants.TIME_FORMAT)
}

func FormatShiftEnded(s models.Shift) string {
	return fmt.Sprintf("✅ Смена завершена.\nОтработано: %s ч.", utils.FormatHours(s.HoursWorked))
}

// FormatReceiptCaption - подпись к фото чека.
func FormatReceiptCaption(orderID int) string {
	return fmt.Sprintf("🧾 Чек к заказу #%d", orderID)
}

func FormatNoReceipt(orderID int) string {
	return fmt.Sprintf("🧾 Чек к заказу #%d не прикреплён.", orderID)
}

// FormatPaymentQRCaption - подпись к QR-коду для клиента.
func FormatPaymentQRCaption(orderID int, amount string) string {
	return fmt.Sprintf("📲 QR для оплаты заказа #%d на сумму %s руб. Покажите клиенту.", orderID, amount)
}

package constants

import "time"

// Conversation States
// Состояния диалога (шаги формы)
const (
	STATE_IDLE = "idle"

	// Создание заказа администратором / Order creation (admin)
	STATE_ORDER_ADDRESS   = "order_address"
	STATE_ORDER_WORK_TYPE = "order_work_type"
	STATE_ORDER_DEADLINE  = "order_deadline"
	STATE_ORDER_COMMENT   = "order_comment"
	STATE_ORDER_PRIORITY  = "order_priority"
	STATE_ORDER_ASSIGNEE  = "order_assignee"
	STATE_ORDER_PHOTO     = "order_photo"

	// Завершение заказа сотрудником / Order completion (worker)
	STATE_DONE_AMOUNT        = "done_amount"
	STATE_DONE_PAYMENT       = "done_payment"
	STATE_DONE_RECEIPT_PHOTO = "done_receipt_photo"
	STATE_DONE_CHEMICAL      = "done_chemical"
	STATE_DONE_QUANTITY      = "done_quantity"
	STATE_DONE_AREA          = "done_area"
)

// Callback Data
// Данные обратного вызова
const (
	CALLBACK_ADMIN_NEW_ORDER    = "admin_new_order"
	CALLBACK_ADMIN_SHIFT_REPORT = "admin_shift_report"
	CALLBACK_ADMIN_ALL_ORDERS   = "admin_all_orders"
	CALLBACK_SHIFT_START        = "shift_start"
	CALLBACK_SHIFT_END          = "shift_end"
	CALLBACK_SHIFT_MY           = "shift_my"
	CALLBACK_MY_ORDERS_LIST     = "my_orders_list"

	CALLBACK_PREFIX_PRIORITY    = "priority_" // priority_urgent
	CALLBACK_PREFIX_ASSIGN      = "assign_"   // assign_693411047
	CALLBACK_PREFIX_PAYMENT     = "payment_"  // payment_cash
	CALLBACK_PREFIX_ORDER_START = "start_"    // start_1001
	CALLBACK_PREFIX_ORDER_DONE  = "done_"     // done_1001
)

// Sentinel values written into the sheet
// Служебные значения, записываемые в таблицу
const (
	NO_RECEIPT  = "без чека"
	NO_PHOTO    = ""
	CANCEL_TEXT = "отмена"
)

// Formats
// Форматы дат и времени (как в таблице)
const (
	DATE_FORMAT      = "02.01.2006"
	TIME_FORMAT      = "15:04"
	TIMESTAMP_FORMAT = "02.01.2006 15:04"
)

// Ids and report sizes
const (
	FIRST_ORDER_ID = 1001

	ADMIN_REPORT_LIMIT  = 10
	WORKER_SHIFTS_LIMIT = 5
)

// Timeouts
const (
	UPDATE_TIMEOUT      = 45 * time.Second
	LONG_POLL_TIMEOUT   = 60
	HTTP_SHUTDOWN_DELAY = 5 * time.Second
)

// General Text Messages
// Общие текстовые сообщения
const (
	AccessDeniedMessage   = "🚫 Доступ запрещён."
	AdminOnlyNewMessage   = "🚫 Только администратор может создавать заказы."
	AdminOnlyCancel       = "🚫 Только администратор может отменять заказы."
	AdminOnlyReceipt      = "🚫 Только администратор может просматривать чеки."
	NotWorkerMessage      = "❌ Вы не зарегистрированы как сотрудник."
	ServerErrorMessage    = "❌ Ошибка сервера."
	NothingToCancel       = "Нечего отменять."
	ActionCancelled       = "🚫 Действие отменено."
	QueueEmptyMessage     = "🎉 Все заказы выполнены! Отдыхайте 😊"
	OrderCompletedMessage = "✅ Заказ завершён! Данные сохранены."
	OrderCreateFailed     = "❌ Ошибка при создании заказа."
	UnknownCommand        = "Неизвестная команда."
	ReceiptSendFailed     = "❌ Не удалось отправить фото чека. Возможно, файл устарел."
	WorkStartedAnswer     = "Хорошей работы!"
	OrderNotFoundAnswer   = "Заказ не найден."
	StaleButton           = "⚠️ Кнопка устарела."
	ShiftAlreadyStarted   = "❌ У вас уже начата смена сегодня!"
	NoActiveShift         = "❌ У вас нет активной смены!"
	CancelUsage           = "❌ Неверный формат. Используйте: /cancel 1001"
	ReceiptUsage          = "❌ Неверный формат. Используйте: /get_receipt 1001"
	ReceiptMissingIDUsage = "❌ Укажите номер заказа: /get_receipt 1001"
)

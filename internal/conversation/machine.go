// Package conversation ведёт многошаговые формы: создание заказа
// администратором и ввод данных о выполнении сотрудником.
// Пакет не делает ввода-вывода: он только меняет session.Session
// и говорит, что спросить дальше.
package conversation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"fieldcrew/internal/constants"
	"fieldcrew/internal/directory"
	"fieldcrew/internal/models"
	"fieldcrew/internal/notify"
	"fieldcrew/internal/session"
)

// ErrNoActiveFlow - пришёл ответ, а диалога нет.
var ErrNoActiveFlow = errors.New("нет активного диалога")

type InputKind int

const (
	InputText InputKind = iota
	InputPhoto
	InputChoice
)

// Input - одно входящее событие для текущего шага.
// Для InputChoice в Choice лежат полные данные кнопки (priority_urgent).
type Input struct {
	Kind   InputKind
	Text   string
	FileID string
	Choice string
}

// Prompt - вопрос пользователю; Buttons только у шагов выбора.
type Prompt struct {
	Text    string
	Buttons [][]notify.Button
}

// Outcome - результат одного шага.
type Outcome struct {
	Prompt Prompt
	// Echo подтверждает сделанный выбор ("⏳ Приоритет: срочный").
	Echo string
	// Rejected: ввод не подходит к шагу, Prompt повторяет вопрос.
	Rejected bool
	// Done: форма заполнена, сессия уже сброшена.
	Done       bool
	Flow       session.Flow
	Draft      models.OrderDraft
	Completion models.CompletionDetails
	OrderID    int
}

type stepKind int

const (
	kindText stepKind = iota
	kindChoice
	kindPhoto
)

type step struct {
	kind   stepKind
	prefix string // для kindChoice
	next   string
}

var steps = map[string]step{
	constants.STATE_ORDER_ADDRESS:   {kind: kindText, next: constants.STATE_ORDER_WORK_TYPE},
	constants.STATE_ORDER_WORK_TYPE: {kind: kindText, next: constants.STATE_ORDER_DEADLINE},
	constants.STATE_ORDER_DEADLINE:  {kind: kindText, next: constants.STATE_ORDER_COMMENT},
	constants.STATE_ORDER_COMMENT:   {kind: kindText, next: constants.STATE_ORDER_PRIORITY},
	constants.STATE_ORDER_PRIORITY:  {kind: kindChoice, prefix: constants.CALLBACK_PREFIX_PRIORITY, next: constants.STATE_ORDER_ASSIGNEE},
	constants.STATE_ORDER_ASSIGNEE:  {kind: kindChoice, prefix: constants.CALLBACK_PREFIX_ASSIGN, next: constants.STATE_ORDER_PHOTO},
	constants.STATE_ORDER_PHOTO:     {kind: kindPhoto, next: constants.STATE_IDLE},

	constants.STATE_DONE_AMOUNT:        {kind: kindText, next: constants.STATE_DONE_PAYMENT},
	constants.STATE_DONE_PAYMENT:       {kind: kindChoice, prefix: constants.CALLBACK_PREFIX_PAYMENT, next: constants.STATE_DONE_RECEIPT_PHOTO},
	constants.STATE_DONE_RECEIPT_PHOTO: {kind: kindPhoto, next: constants.STATE_DONE_CHEMICAL},
	constants.STATE_DONE_CHEMICAL:      {kind: kindText, next: constants.STATE_DONE_QUANTITY},
	constants.STATE_DONE_QUANTITY:      {kind: kindText, next: constants.STATE_DONE_AREA},
	constants.STATE_DONE_AREA:          {kind: kindText, next: constants.STATE_IDLE},
}

// Коды кнопок выбора -> значения, которые пишутся в таблицу.
var (
	priorityCodes = map[string]models.Priority{
		"normal": models.PriorityNormal,
		"urgent": models.PriorityUrgent,
	}
	paymentCodes = map[string]models.PaymentMethod{
		"cash":     models.PaymentCash,
		"transfer": models.PaymentTransfer,
		"qr":       models.PaymentQR,
		"invoice":  models.PaymentInvoice,
	}
)

// Machine - логика шагов; справочник нужен для выбора исполнителя.
type Machine struct {
	dir *directory.Directory
}

func NewMachine(dir *directory.Directory) *Machine {
	return &Machine{dir: dir}
}

// BeginOrder начинает форму создания заказа, сбрасывая прежний диалог.
func (m *Machine) BeginOrder(s *session.Session) Prompt {
	s.Reset()
	s.Flow = session.FlowOrder
	s.Step = constants.STATE_ORDER_ADDRESS
	return m.PromptFor(s.Step)
}

// BeginCompletion начинает ввод данных о выполнении заказа orderID.
func (m *Machine) BeginCompletion(s *session.Session, orderID int) Prompt {
	s.Reset()
	s.Flow = session.FlowCompletion
	s.Step = constants.STATE_DONE_AMOUNT
	s.OrderID = orderID
	return m.PromptFor(s.Step)
}

// Cancel сбрасывает диалог; false - отменять нечего.
func (m *Machine) Cancel(s *session.Session) bool {
	if !s.Active() {
		return false
	}
	s.Reset()
	return true
}

// Expects сообщает, ждёт ли текущий шаг нажатия кнопки с данными data.
func (m *Machine) Expects(s *session.Session, data string) bool {
	st, ok := steps[s.Step]
	return ok && s.Active() && st.kind == kindChoice && strings.HasPrefix(data, st.prefix)
}

// Handle применяет ввод к текущему шагу.
func (m *Machine) Handle(s *session.Session, in Input) (Outcome, error) {
	if !s.Active() {
		return Outcome{}, ErrNoActiveFlow
	}
	st, ok := steps[s.Step]
	if !ok {
		s.Reset()
		return Outcome{}, fmt.Errorf("неизвестный шаг %q", s.Step)
	}

	var echo string
	switch st.kind {
	case kindText:
		if in.Kind != InputText {
			return m.reject(s), nil
		}
		m.setText(s, in.Text)
	case kindPhoto:
		switch in.Kind {
		case InputPhoto:
			m.setPhoto(s, in.FileID)
		case InputText:
			m.setPhoto(s, "")
		default:
			return m.reject(s), nil
		}
	case kindChoice:
		if in.Kind != InputChoice || !strings.HasPrefix(in.Choice, st.prefix) {
			return m.reject(s), nil
		}
		var valid bool
		echo, valid = m.setChoice(s, strings.TrimPrefix(in.Choice, st.prefix))
		if !valid {
			return m.reject(s), nil
		}
	}

	if st.next != constants.STATE_IDLE {
		s.Step = st.next
		return Outcome{Prompt: m.PromptFor(s.Step), Echo: echo, Flow: s.Flow}, nil
	}

	out := Outcome{Done: true, Echo: echo, Flow: s.Flow, Draft: s.Draft, Completion: s.Completion, OrderID: s.OrderID}
	s.Reset()
	return out, nil
}

func (m *Machine) reject(s *session.Session) Outcome {
	return Outcome{Prompt: m.PromptFor(s.Step), Rejected: true, Flow: s.Flow}
}

func (m *Machine) setText(s *session.Session, text string) {
	switch s.Step {
	case constants.STATE_ORDER_ADDRESS:
		s.Draft.Address = text
	case constants.STATE_ORDER_WORK_TYPE:
		s.Draft.WorkType = text
	case constants.STATE_ORDER_DEADLINE:
		s.Draft.Deadline = text
	case constants.STATE_ORDER_COMMENT:
		s.Draft.Comment = text
	case constants.STATE_DONE_AMOUNT:
		s.Completion.Amount = text
	case constants.STATE_DONE_CHEMICAL:
		s.Completion.Chemical = text
	case constants.STATE_DONE_QUANTITY:
		s.Completion.Quantity = text
	case constants.STATE_DONE_AREA:
		s.Completion.Area = text
	}
}

// setPhoto: пустой fileID - ответ текстом вместо фото.
func (m *Machine) setPhoto(s *session.Session, fileID string) {
	switch s.Step {
	case constants.STATE_ORDER_PHOTO:
		s.Draft.Photo = fileID
	case constants.STATE_DONE_RECEIPT_PHOTO:
		s.Completion.ReceiptPhoto = fileID
		if fileID == "" {
			s.Completion.ReceiptPhoto = constants.NO_RECEIPT
		}
	}
}

func (m *Machine) setChoice(s *session.Session, code string) (string, bool) {
	switch s.Step {
	case constants.STATE_ORDER_PRIORITY:
		p, ok := priorityCodes[code]
		if !ok {
			return "", false
		}
		s.Draft.Priority = p
		return "⏳ Приоритет: " + string(p), true
	case constants.STATE_ORDER_ASSIGNEE:
		id, err := strconv.ParseInt(code, 10, 64)
		if err != nil || !m.dir.IsWorker(id) {
			return "", false
		}
		s.Draft.AssigneeID = id
		name, _ := m.dir.Name(id)
		return "👷 Исполнитель: " + name, true
	case constants.STATE_DONE_PAYMENT:
		p, ok := paymentCodes[code]
		if !ok {
			return "", false
		}
		s.Completion.Payment = p
		return "💳 Оплата: " + string(p), true
	}
	return "", false
}

// PromptFor - вопрос для шага.
func (m *Machine) PromptFor(state string) Prompt {
	switch state {
	case constants.STATE_ORDER_ADDRESS:
		return Prompt{Text: "📍 Введите адрес участка:"}
	case constants.STATE_ORDER_WORK_TYPE:
		return Prompt{Text: "⚒ Укажите тип работы:"}
	case constants.STATE_ORDER_DEADLINE:
		return Prompt{Text: "📅 Укажите срок выполнения (например, 10.04):"}
	case constants.STATE_ORDER_COMMENT:
		return Prompt{Text: "📝 Добавьте комментарий:"}
	case constants.STATE_ORDER_PRIORITY:
		return Prompt{Text: "⏳ Выберите приоритет:", Buttons: [][]notify.Button{{
			{Text: "Обычный", Data: constants.CALLBACK_PREFIX_PRIORITY + "normal"},
			{Text: "🚨 Срочный", Data: constants.CALLBACK_PREFIX_PRIORITY + "urgent"},
		}}}
	case constants.STATE_ORDER_ASSIGNEE:
		var rows [][]notify.Button
		for _, w := range m.dir.Workers() {
			rows = append(rows, []notify.Button{{
				Text: w.Name,
				Data: constants.CALLBACK_PREFIX_ASSIGN + strconv.FormatInt(w.ID, 10),
			}})
		}
		return Prompt{Text: "👷 Выберите исполнителя:", Buttons: rows}
	case constants.STATE_ORDER_PHOTO:
		return Prompt{Text: "📷 Пришлите фото участка (или напишите 'без фото'):"}
	case constants.STATE_DONE_AMOUNT:
		return Prompt{Text: "💰 Введите сумму заказа:"}
	case constants.STATE_DONE_PAYMENT:
		return Prompt{Text: "💳 Выберите способ оплаты:", Buttons: [][]notify.Button{
			{
				{Text: "💵 Наличными", Data: constants.CALLBACK_PREFIX_PAYMENT + "cash"},
				{Text: "📱 Переводом", Data: constants.CALLBACK_PREFIX_PAYMENT + "transfer"},
			},
			{
				{Text: "📲 QR", Data: constants.CALLBACK_PREFIX_PAYMENT + "qr"},
				{Text: "🧾 По счёту", Data: constants.CALLBACK_PREFIX_PAYMENT + "invoice"},
			},
		}}
	case constants.STATE_DONE_RECEIPT_PHOTO:
		return Prompt{Text: "📸 Пришлите фото чека (или напишите 'без чека'):"}
	case constants.STATE_DONE_CHEMICAL:
		return Prompt{Text: "🧪 Введите название препарата:"}
	case constants.STATE_DONE_QUANTITY:
		return Prompt{Text: "🔢 Введите количество препарата (в литрах/кг):"}
	case constants.STATE_DONE_AREA:
		return Prompt{Text: "📏 Введите площадь участка (в сотках или м²):"}
	}
	return Prompt{}
}

package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrForbidden      = errors.New("доступ запрещён")
	ErrNotFound       = errors.New("запись не найдена")
	ErrConflict       = errors.New("конфликт состояния")
	ErrMalformedInput = errors.New("неверный формат")
	ErrStore          = errors.New("ошибка хранилища")
	ErrTransport      = errors.New("ошибка доставки сообщения")

	// Частные случаи конфликта
	ErrShiftAlreadyStarted = NewConflictError("смена уже начата сегодня")
	ErrNoActiveShift       = NewConflictError("нет активной смены")
	ErrTerminalStatus      = NewConflictError("заказ уже закрыт")
	ErrOrderNotStarted     = NewConflictError("заказ ещё не в работе")
	ErrWorkerBusy          = NewConflictError("у сотрудника уже есть заказ в работе")
)

// ConflictError - нарушение правил жизненного цикла заказа или смены.
type ConflictError struct {
	Reason string
}

func NewConflictError(reason string) *ConflictError {
	return &ConflictError{Reason: reason}
}

func (e *ConflictError) Error() string { return "конфликт: " + e.Reason }

func (e *ConflictError) Unwrap() error { return ErrConflict }

// StoreError оборачивает сбой внешнего хранилища.
type StoreError struct {
	Op  string
	Err error
}

func NewStoreError(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("хранилище: %s: %v", e.Op, e.Err)
}

// Is позволяет errors.Is(err, ErrStore) для любой StoreError.
func (e *StoreError) Is(target error) bool { return target == ErrStore }

func (e *StoreError) Unwrap() error { return e.Err }

type Kind int

const (
	KindUnknown Kind = iota
	KindForbidden
	KindNotFound
	KindConflict
	KindMalformedInput
	KindStore
	KindTransport
)

// KindOf относит ошибку к одной из категорий.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrMalformedInput):
		return KindMalformedInput
	case errors.Is(err, ErrStore):
		return KindStore
	case errors.Is(err, ErrTransport):
		return KindTransport
	}
	return KindUnknown
}

// UserMessage - текст для пользователя. Подробности сбоев хранилища наружу не отдаются.
func UserMessage(err error) string {
	var conflict *ConflictError
	switch KindOf(err) {
	case KindForbidden:
		return "🚫 Доступ запрещён."
	case KindNotFound:
		return "❌ Не найдено."
	case KindConflict:
		if errors.As(err, &conflict) {
			return "❌ Невозможно: " + conflict.Reason + "."
		}
		return "❌ Действие невозможно в текущем состоянии."
	case KindMalformedInput:
		return "❌ Неверный формат."
	}
	return "❌ Ошибка сервера."
}

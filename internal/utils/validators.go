package utils

import (
	"fmt"
	"strconv"
	"strings"

	"fieldcrew/internal/apperrors"
)

// ParseOrderID разбирает номер заказа из аргумента команды или callback-данных.
// Существование номера не проверяется: несуществующий заказ найдёт поиск.
func ParseOrderID(arg string) (int, error) {
	arg = strings.TrimPrefix(strings.TrimSpace(arg), "#")
	if arg == "" {
		return 0, fmt.Errorf("номер заказа не указан: %w", apperrors.ErrMalformedInput)
	}
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("номер заказа %q: %w", arg, apperrors.ErrMalformedInput)
	}
	return id, nil
}

// CallbackArg отрезает префикс callback-данных. ok=false, если префикс не совпал.
func CallbackArg(data, prefix string) (string, bool) {
	if !strings.HasPrefix(data, prefix) {
		return "", false
	}
	return strings.TrimPrefix(data, prefix), true
}

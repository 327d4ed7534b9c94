// Файл: internal/utils/formatters.go

package utils

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Int64SliceToStringSlice преобразует слайс int64 в слайс string.
func Int64SliceToStringSlice(int64Slice []int64) []string {
	stringSlice := make([]string, len(int64Slice))
	for i, v := range int64Slice {
		stringSlice[i] = strconv.FormatInt(v, 10)
	}
	return stringSlice
}

// FormatHours печатает часы без лишних нулей: 8.5, 7.25, 8.
func FormatHours(hours float64) string {
	return strconv.FormatFloat(hours, 'f', -1, 64)
}

// ParseHours читает часы из таблицы, допускает десятичную запятую.
func ParseHours(value string) (float64, error) {
	return strconv.ParseFloat(strings.Replace(strings.TrimSpace(value), ",", ".", 1), 64)
}

// GenerateUUID генерирует новый UUID v4.
func GenerateUUID() string {
	return uuid.New().String()
}

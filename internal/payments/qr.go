// Package payments готовит QR-код для оплаты заказа на месте.
package payments

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/skip2/go-qrcode"
)

// ErrNoTemplate - шаблон платёжной строки не настроен.
var ErrNoTemplate = errors.New("шаблон QR-оплаты не задан")

// BuildPayload подставляет номер заказа и сумму в шаблон вида
// "https://pay.example/?order={order}&sum={amount}".
func BuildPayload(template string, orderID int, amount string) (string, error) {
	if strings.TrimSpace(template) == "" {
		return "", ErrNoTemplate
	}
	r := strings.NewReplacer(
		"{order}", strconv.Itoa(orderID),
		"{amount}", strings.TrimSpace(amount),
	)
	return r.Replace(template), nil
}

// GenerateQRCode возвращает PNG с платёжной строкой.
func GenerateQRCode(template string, orderID int, amount string) ([]byte, error) {
	payload, err := BuildPayload(template, orderID, amount)
	if err != nil {
		return nil, err
	}
	// qrcode.Medium - уровень коррекции ошибок, 256 - размер в пикселях.
	png, err := qrcode.Encode(payload, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("кодирование QR для заказа #%d: %w", orderID, err)
	}
	return png, nil
}

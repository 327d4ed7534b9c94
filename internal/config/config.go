// internal/config/config.go
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env"
	"github.com/go-playground/validator/v10"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	TelegramToken string `env:"TELEGRAM_APITOKEN" validate:"required"`
	AppEnv        string `env:"ENV" envDefault:"prod" validate:"oneof=dev prod"`
	BotUsername   string `env:"BOT_USERNAME"`
	LogFile       string `env:"LOG_FILE"`
	Timezone      string `env:"TIMEZONE" envDefault:"Europe/Moscow"`

	// Справочник сотрудников
	TeamFile    string `env:"TEAM_FILE" envDefault:"team.yaml"`
	AdminIDsRaw string `env:"ADMIN_IDS"`
	AdminIDs    []int64

	// Хранилище записей: memory | xlsx | postgres
	StoreBackend   string `env:"STORE_BACKEND" envDefault:"xlsx" validate:"oneof=memory xlsx postgres"`
	OrdersWorkbook string `env:"ORDERS_WORKBOOK" envDefault:"Заказы на участки.xlsx"`
	ShiftsWorkbook string `env:"SHIFTS_WORKBOOK" envDefault:"Учёт смен.xlsx"`
	DatabaseURL    string `env:"DATABASE_URL" validate:"required_if=StoreBackend postgres"`

	// Сессии диалогов: memory | redis
	SessionBackend string        `env:"SESSION_BACKEND" envDefault:"memory" validate:"oneof=memory redis"`
	RedisAddr      string        `env:"REDIS_ADDR" validate:"required_if=SessionBackend redis"`
	RedisPassword  string        `env:"REDIS_PASSWORD"`
	RedisDB        int           `env:"REDIS_DB" envDefault:"0"`
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"0s"`

	// WebApp API
	HTTPPort  string `env:"HTTP_PORT" envDefault:"8080"`
	WebAppDir string `env:"WEBAPP_DIR" envDefault:"webapp"`

	// Шаблон строки для QR-оплаты, подставляются {order} и {amount}
	PaymentQRTemplate string `env:"PAYMENT_QR_TEMPLATE"`
}

// LoadConfig загружает конфигурацию из переменных окружения и проверяет её.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("ошибка чтения переменных окружения: %w", err)
	}

	ids, err := ParseIDList(cfg.AdminIDsRaw)
	if err != nil {
		return nil, fmt.Errorf("ADMIN_IDS: %w", err)
	}
	cfg.AdminIDs = ids

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("некорректная конфигурация: %w", err)
	}
	return cfg, nil
}

// Location возвращает часовой пояс бригады; при ошибке - UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ParseIDList разбирает список идентификаторов через запятую.
func ParseIDList(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("неверный идентификатор %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

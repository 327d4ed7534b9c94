package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"fieldcrew/internal/api"
	"fieldcrew/internal/config"
	"fieldcrew/internal/constants"
	"fieldcrew/internal/conversation"
	"fieldcrew/internal/db"
	"fieldcrew/internal/directory"
	"fieldcrew/internal/dispatch"
	"fieldcrew/internal/handlers"
	"fieldcrew/internal/logger"
	"fieldcrew/internal/orders"
	"fieldcrew/internal/session"
	"fieldcrew/internal/sheets"
	"fieldcrew/internal/shifts"
	"fieldcrew/internal/telegram_api"
	"fieldcrew/internal/utils"
)

const (
	ordersSheet = "Заказы на участки"
	shiftsSheet = "Учёт смен"
)

var adminCommands = []telegram_api.Command{
	{Name: "start", Description: "Главное меню"},
	{Name: "new", Description: "🆕 Создать заказ"},
	{Name: "admin", Description: "👑 Меню администратора"},
	{Name: "get_receipt", Description: "🧾 Фото чека по номеру заказа"},
	{Name: "cancel", Description: "❌ Отменить действие или заказ"},
}

var workerCommands = []telegram_api.Command{
	{Name: "start", Description: "Главное меню"},
	{Name: "orders", Description: "📋 Мои заказы"},
	{Name: "shift_start", Description: "🕗 Начать смену"},
	{Name: "shift_end", Description: "🏁 Закончить смену"},
	{Name: "shift_my", Description: "📊 Мои смены"},
	{Name: "cancel", Description: "❌ Отменить действие"},
}

func main() {
	// --- Блок инициализации ---
	if err := godotenv.Load(); err != nil {
		log.Println("Предупреждение: не удалось загрузить файл .env. Переменные окружения должны быть установлены иным способом.")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Критическая ошибка: не удалось загрузить конфигурацию: %v", err)
	}

	zl, err := logger.New(cfg.AppEnv, cfg.LogFile)
	if err != nil {
		log.Fatalf("Критическая ошибка: не удалось создать логгер: %v", err)
	}
	defer zl.Sync()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("Критическая ошибка", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dir, err := directory.Load(cfg.TeamFile, cfg.AdminIDs)
	if err != nil {
		return fmt.Errorf("справочник сотрудников: %w", err)
	}
	zl.Info("Справочник загружен",
		zap.Int("workers", len(dir.Workers())),
		zap.String("admins", strings.Join(utils.Int64SliceToStringSlice(dir.Admins()), ",")))

	loc := cfg.Location()
	clock := func() time.Time { return time.Now().In(loc) }

	orderTable, shiftTable, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	orderRepo, err := db.NewOrderRepository(ctx, orderTable, loc)
	if err != nil {
		return fmt.Errorf("таблица заказов: %w", err)
	}
	shiftRepo, err := db.NewShiftRepository(ctx, shiftTable, loc)
	if err != nil {
		return fmt.Errorf("таблица смен: %w", err)
	}

	store, closeSessions, err := openSessions(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSessions()

	bot, err := telegram_api.NewBotClient(cfg.TelegramToken, cfg.AppEnv == "dev", zl)
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	registerCommands(bot, dir, zl)

	// Один набор блокировок на диспетчер и оба менеджера.
	locks := utils.NewKeyedMutex()
	dispatcher := dispatch.New(orderRepo, bot, locks, clock, zl)
	orderManager := orders.NewManager(orderRepo, dir, bot, dispatcher, locks, clock, zl)
	shiftManager := shifts.NewManager(shiftRepo, dir, dispatcher, locks, clock, zl)

	botHandler, err := handlers.NewBotHandler(handlers.HandlerDependencies{
		Config:    cfg,
		Messenger: bot,
		Sessions:  session.NewManager(store, zl),
		Machine:   conversation.NewMachine(dir),
		Orders:    orderManager,
		Shifts:    shiftManager,
		Directory: dir,
		Logger:    zl,
	})
	if err != nil {
		return err
	}

	router := api.NewRouter(api.ApiDependencies{
		Config:    cfg,
		SecretKey: cfg.TelegramToken,
		Orders:    orderManager,
		Shifts:    shiftManager,
		Directory: dir,
		Logger:    zl,
	})
	router.Get("/", http.RedirectHandler("/webapp/", http.StatusMovedPermanently).ServeHTTP)
	// Обработка запроса иконки, чтобы избежать ошибки 404 в логах
	router.Get("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	server := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: router}
	go func() {
		zl.Info("Запуск HTTP-сервера для WebApp API", zap.String("port", cfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Error("HTTP-сервер остановлен с ошибкой", zap.Error(err))
			stop()
		}
	}()

	// Запуск самого бота
	u := tgbotapi.NewUpdate(0)
	u.Timeout = constants.LONG_POLL_TIMEOUT
	updates := bot.GetUpdatesChan(u)

	zl.Info("Бот и API-сервер запущены и готовы к работе", zap.String("bot", bot.UserName()))

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case update, ok := <-updates:
			if !ok {
				break loop
			}
			go func(update tgbotapi.Update) {
				uctx, cancel := context.WithTimeout(ctx, constants.UPDATE_TIMEOUT)
				defer cancel()
				botHandler.HandleUpdate(uctx, update)
			}(update)
		}
	}

	zl.Info("Остановка")
	bot.StopReceivingUpdates()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.HTTP_SHUTDOWN_DELAY)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zl.Warn("HTTP-сервер не остановился вовремя", zap.Error(err))
	}
	return nil
}

// openStore выбирает хранилище записей по STORE_BACKEND.
func openStore(ctx context.Context, cfg *config.Config) (orderTable, shiftTable sheets.Table, closeFn func(), err error) {
	switch cfg.StoreBackend {
	case "memory":
		return sheets.NewMemory(ordersSheet), sheets.NewMemory(shiftsSheet), func() {}, nil
	case "postgres":
		conn, err := sheets.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		return sheets.NewPostgres(conn, ordersSheet), sheets.NewPostgres(conn, shiftsSheet), func() { conn.Close() }, nil
	default:
		ob, err := sheets.OpenWorkbook(cfg.OrdersWorkbook, ordersSheet)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("книга заказов: %w", err)
		}
		sb, err := sheets.OpenWorkbook(cfg.ShiftsWorkbook, shiftsSheet)
		if err != nil {
			ob.Close()
			return nil, nil, nil, fmt.Errorf("книга смен: %w", err)
		}
		return ob, sb, func() { ob.Close(); sb.Close() }, nil
	}
}

// openSessions выбирает хранилище диалогов по SESSION_BACKEND.
func openSessions(ctx context.Context, cfg *config.Config) (session.Store, func(), error) {
	if cfg.SessionBackend != "redis" {
		return session.NewMemoryStore(), func() {}, nil
	}
	client, err := session.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	return session.NewRedisStore(client, cfg.SessionTTL), func() { client.Close() }, nil
}

// registerCommands публикует меню команд: общее для всех чатов и расширенное для администраторов.
func registerCommands(bot *telegram_api.BotClient, dir *directory.Directory, zl *zap.Logger) {
	if err := bot.SetCommands(0, workerCommands); err != nil {
		zl.Warn("Не удалось установить команды бота", zap.Error(err))
	}
	for _, id := range dir.Admins() {
		if err := bot.SetCommands(id, adminCommands); err != nil {
			zl.Warn("Не удалось установить команды администратора", zap.Int64("chat_id", id), zap.Error(err))
		}
	}
}

package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"fieldcrew/internal/config"
	"fieldcrew/internal/directory"
	"fieldcrew/internal/orders"
	"fieldcrew/internal/shifts"
)

// ApiDependencies содержит зависимости для обработчиков API.
type ApiDependencies struct {
	Config    *config.Config
	SecretKey string
	Orders    *orders.Manager
	Shifts    *shifts.Manager
	Directory *directory.Directory
	Logger    *zap.Logger
}

// NewRouter собирает роутер с глобальными middleware и всеми маршрутами.
func NewRouter(deps ApiDependencies) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Telegram-Auth"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	SetupRoutes(r, deps)
	return r
}

// SetupRoutes настраивает все маршруты для API.
func SetupRoutes(r chi.Router, deps ApiDependencies) {
	h := &handler{deps: deps}

	r.Get("/api/client-config", h.GetClientConfig)

	if dir := strings.TrimSpace(deps.Config.WebAppDir); dir != "" {
		r.Handle("/webapp/*", http.StripPrefix("/webapp/", http.FileServer(http.Dir(dir))))
	}

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(deps.SecretKey, deps.Directory, deps.Logger))

		// --- Маршруты сотрудника ---
		r.Get("/api/me/orders", h.GetMyOrders)
		r.Get("/api/me/shifts", h.GetMyShifts)

		// --- Маршруты администратора ---
		r.Route("/api/admin", func(r chi.Router) {
			r.Use(AdminMiddleware)

			r.Get("/orders", h.GetOrders)
			r.Get("/orders/{id}", h.GetOrderDetails)
			r.Get("/shifts", h.GetShifts)
			r.Get("/stats", h.GetStats)
			r.Get("/export.xlsx", h.ExportWorkbook)
		})
	})
}

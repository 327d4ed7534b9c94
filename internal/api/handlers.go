package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"fieldcrew/internal/apperrors"
	"fieldcrew/internal/constants"
	"fieldcrew/internal/models"
	"fieldcrew/internal/utils"
)

type handler struct {
	deps ApiDependencies
}

// jsonResponse - вспомогательная структура для стандартного ответа API
type jsonResponse struct {
	Status  string      `json:"status"` // "success" или "error"
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(jsonResponse{Status: "error", Message: message})
}

func writeJSONSuccess(w http.ResponseWriter, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(jsonResponse{Status: "success", Message: message, Data: data})
}

// writeAppError переводит ошибку приложения в HTTP-статус.
func (h *handler) writeAppError(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	switch apperrors.KindOf(err) {
	case apperrors.KindForbidden:
		status = http.StatusForbidden
	case apperrors.KindNotFound:
		status = http.StatusNotFound
	case apperrors.KindMalformedInput:
		status = http.StatusBadRequest
	case apperrors.KindConflict:
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		h.deps.Logger.Error("API "+op+": ошибка", zap.Error(err))
		writeJSONError(w, status, "Internal server error")
		return
	}
	writeJSONError(w, status, err.Error())
}

// limitParam читает ?limit=, по умолчанию ADMIN_REPORT_LIMIT.
func limitParam(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return constants.ADMIN_REPORT_LIMIT, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func (h *handler) GetClientConfig(w http.ResponseWriter, r *http.Request) {
	writeJSONSuccess(w, "Config retrieved", map[string]string{
		"telegramBotUsername": h.deps.Config.BotUsername,
	})
}

// GetMyOrders - незакрытые заказы сотрудника.
func (h *handler) GetMyOrders(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())
	if !identity.Worker {
		writeJSONError(w, http.StatusForbidden, "Forbidden: not a crew member")
		return
	}
	list, err := h.deps.Orders.ActiveFor(r.Context(), models.Worker{ID: identity.ID, Name: identity.Name})
	if err != nil {
		h.writeAppError(w, "GetMyOrders", err)
		return
	}
	writeJSONSuccess(w, "Orders retrieved", toOrderDTOs(list))
}

// GetMyShifts - последние завершённые смены сотрудника.
func (h *handler) GetMyShifts(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())
	list, err := h.deps.Shifts.RecentCompleted(r.Context(), identity.ID, constants.WORKER_SHIFTS_LIMIT)
	if err != nil {
		h.writeAppError(w, "GetMyShifts", err)
		return
	}
	writeJSONSuccess(w, "Shifts retrieved", toShiftDTOs(list))
}

func (h *handler) GetOrders(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(r)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "Invalid limit")
		return
	}
	list, err := h.deps.Orders.Recent(r.Context(), limit)
	if err != nil {
		h.writeAppError(w, "GetOrders", err)
		return
	}
	writeJSONSuccess(w, "Orders retrieved", toOrderDTOs(list))
}

func (h *handler) GetOrderDetails(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseOrderID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeAppError(w, "GetOrderDetails", err)
		return
	}
	order, err := h.deps.Orders.Lookup(r.Context(), id)
	if err != nil {
		h.writeAppError(w, "GetOrderDetails", err)
		return
	}
	writeJSONSuccess(w, "Order retrieved", toOrderDTO(order))
}

func (h *handler) GetShifts(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(r)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "Invalid limit")
		return
	}
	list, err := h.deps.Shifts.Recent(r.Context(), limit)
	if err != nil {
		h.writeAppError(w, "GetShifts", err)
		return
	}
	writeJSONSuccess(w, "Shifts retrieved", toShiftDTOs(list))
}

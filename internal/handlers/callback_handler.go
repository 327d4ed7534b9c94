package handlers

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"fieldcrew/internal/apperrors"
	"fieldcrew/internal/constants"
	"fieldcrew/internal/formatters"
	"fieldcrew/internal/models"
	"fieldcrew/internal/notify"
	"fieldcrew/internal/utils"
)

// HandleCallback обрабатывает входящие callback query от Telegram.
// На каждый callback отвечаем ровно один раз, текст ответа выбирает обработчик.
func (bh *BotHandler) HandleCallback(ctx context.Context, r *request) {
	r.log.Debug("HandleCallback", zap.String("data", r.Data), zap.Int64("user_id", r.UserID))

	answer := bh.routeCallback(ctx, r)
	if err := bh.Deps.Messenger.AnswerCallback(ctx, r.CallbackID, answer); err != nil {
		r.log.Warn("HandleCallback: ошибка ответа на CallbackQuery", zap.Error(err))
	}
}

func (bh *BotHandler) routeCallback(ctx context.Context, r *request) string {
	switch r.Data {
	case constants.CALLBACK_ADMIN_NEW_ORDER:
		if !bh.Deps.Directory.IsAdmin(r.UserID) {
			return constants.AdminOnlyNewMessage
		}
		bh.beginOrder(ctx, r, true)
		return ""
	case constants.CALLBACK_ADMIN_SHIFT_REPORT:
		return bh.showAdminShifts(ctx, r)
	case constants.CALLBACK_ADMIN_ALL_ORDERS:
		return bh.showAdminOrders(ctx, r)
	case constants.CALLBACK_SHIFT_START:
		return bh.startShift(ctx, r, true)
	case constants.CALLBACK_SHIFT_END:
		return bh.endShift(ctx, r, true)
	case constants.CALLBACK_SHIFT_MY:
		return bh.showWorkerShifts(ctx, r, true)
	case constants.CALLBACK_MY_ORDERS_LIST:
		return bh.showWorkerOrders(ctx, r, true)
	}

	if arg, ok := utils.CallbackArg(r.Data, constants.CALLBACK_PREFIX_ORDER_START); ok {
		return bh.markStarted(ctx, r, arg)
	}
	if arg, ok := utils.CallbackArg(r.Data, constants.CALLBACK_PREFIX_ORDER_DONE); ok {
		return bh.markDone(ctx, r, arg)
	}
	for _, prefix := range []string{
		constants.CALLBACK_PREFIX_PRIORITY,
		constants.CALLBACK_PREFIX_ASSIGN,
		constants.CALLBACK_PREFIX_PAYMENT,
	} {
		if strings.HasPrefix(r.Data, prefix) {
			if !bh.handleChoice(ctx, r) {
				r.log.Info("HandleCallback: кнопка не относится к текущему шагу", zap.String("data", r.Data))
				return constants.StaleButton
			}
			return ""
		}
	}

	r.log.Warn("HandleCallback: неизвестный callback", zap.String("data", r.Data))
	return ""
}

// markStarted - кнопка "Начал работу" на карточке заказа.
func (bh *BotHandler) markStarted(ctx context.Context, r *request, arg string) string {
	id, err := utils.ParseOrderID(arg)
	if err != nil {
		return apperrors.UserMessage(err)
	}
	order, err := bh.Deps.Orders.MarkStarted(ctx, r.UserID, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return constants.OrderNotFoundAnswer
		}
		r.log.Info("markStarted: отказ", zap.Int("order_id", id), zap.Error(err))
		return apperrors.UserMessage(err)
	}

	bh.edit(ctx, r, formatters.FormatWorkStartedMark(r.MessageText, *order.StartedAt),
		[]notify.Button{{Text: "✅ Выполнил работу", Data: constants.CALLBACK_PREFIX_ORDER_DONE + arg}})
	return constants.WorkStartedAnswer
}

// markDone - кнопка "Выполнил работу": начинается ввод данных о выполнении.
func (bh *BotHandler) markDone(ctx context.Context, r *request, arg string) string {
	id, err := utils.ParseOrderID(arg)
	if err != nil {
		return apperrors.UserMessage(err)
	}
	order, err := bh.Deps.Orders.Lookup(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return constants.OrderNotFoundAnswer
		}
		r.log.Error("markDone: ошибка поиска заказа", zap.Int("order_id", id), zap.Error(err))
		return constants.ServerErrorMessage
	}

	name, _ := bh.Deps.Directory.Name(r.UserID)
	if !order.AssignedTo(models.Worker{ID: r.UserID, Name: name}) && !bh.Deps.Directory.IsAdmin(r.UserID) {
		return apperrors.UserMessage(apperrors.ErrForbidden)
	}
	switch {
	case order.Status.IsTerminal():
		return apperrors.UserMessage(apperrors.ErrTerminalStatus)
	case order.Status != models.OrderInProgress:
		return apperrors.UserMessage(apperrors.ErrOrderNotStarted)
	}

	if err := bh.beginCompletion(ctx, r, id); err != nil {
		r.log.Error("markDone: диалог не начат", zap.Int("order_id", id), zap.Error(err))
		return constants.ServerErrorMessage
	}
	return ""
}

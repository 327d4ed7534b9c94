package handlers

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"fieldcrew/internal/apperrors"
	"fieldcrew/internal/constants"
	"fieldcrew/internal/formatters"
	"fieldcrew/internal/models"
	"fieldcrew/internal/notify"
	"fieldcrew/internal/shifts"
)

func (bh *BotHandler) sendWorkerMenu(ctx context.Context, r *request) {
	bh.reply(ctx, r, "👷‍♂️ Меню сотрудника:",
		[]notify.Button{
			{Text: "🕗 Начать смену", Data: constants.CALLBACK_SHIFT_START},
			{Text: "🏁 Закончить смену", Data: constants.CALLBACK_SHIFT_END},
		},
		[]notify.Button{
			{Text: "📋 Мои заказы", Data: constants.CALLBACK_MY_ORDERS_LIST},
			{Text: "📊 Мои смены", Data: constants.CALLBACK_SHIFT_MY},
		},
	)
}

func (bh *BotHandler) sendAdminMenu(ctx context.Context, r *request) {
	bh.reply(ctx, r, "👑 Меню администратора:",
		[]notify.Button{
			{Text: "🆕 Создать заказ", Data: constants.CALLBACK_ADMIN_NEW_ORDER},
			{Text: "📊 Отчёт по сменам", Data: constants.CALLBACK_ADMIN_SHIFT_REPORT},
		},
		[]notify.Button{
			{Text: "📋 Все заказы", Data: constants.CALLBACK_ADMIN_ALL_ORDERS},
		},
	)
}

// show выводит результат: из меню - правкой сообщения, из команды - новым.
func (bh *BotHandler) show(ctx context.Context, r *request, viaCallback bool, text string) {
	if viaCallback {
		bh.edit(ctx, r, text)
		return
	}
	bh.reply(ctx, r, text)
}

// refuse: из меню текст уходит в ответ на callback, из команды - сообщением.
func (bh *BotHandler) refuse(ctx context.Context, r *request, viaCallback bool, text string) string {
	if viaCallback {
		return text
	}
	bh.reply(ctx, r, text)
	return ""
}

func (bh *BotHandler) showAdminShifts(ctx context.Context, r *request) string {
	if !bh.Deps.Directory.IsAdmin(r.UserID) {
		return constants.AccessDeniedMessage
	}
	list, err := bh.Deps.Shifts.Recent(ctx, constants.ADMIN_REPORT_LIMIT)
	if err != nil {
		r.log.Error("showAdminShifts: ошибка чтения смен", zap.Error(err))
		return constants.ServerErrorMessage
	}
	bh.edit(ctx, r, formatters.FormatAdminShifts(list))
	return ""
}

func (bh *BotHandler) showAdminOrders(ctx context.Context, r *request) string {
	if !bh.Deps.Directory.IsAdmin(r.UserID) {
		return constants.AccessDeniedMessage
	}
	list, err := bh.Deps.Orders.Recent(ctx, constants.ADMIN_REPORT_LIMIT)
	if err != nil {
		r.log.Error("showAdminOrders: ошибка чтения заказов", zap.Error(err))
		return constants.ServerErrorMessage
	}
	bh.edit(ctx, r, formatters.FormatAdminOrders(list))
	return ""
}

func (bh *BotHandler) showWorkerOrders(ctx context.Context, r *request, viaCallback bool) string {
	name, ok := bh.Deps.Directory.Name(r.UserID)
	if !ok {
		return bh.refuse(ctx, r, viaCallback, constants.NotWorkerMessage)
	}
	list, err := bh.Deps.Orders.ActiveFor(ctx, models.Worker{ID: r.UserID, Name: name})
	if err != nil {
		r.log.Error("showWorkerOrders: ошибка чтения заказов", zap.Error(err))
		return bh.refuse(ctx, r, viaCallback, constants.ServerErrorMessage)
	}
	bh.show(ctx, r, viaCallback, formatters.FormatWorkerOrders(list))
	return ""
}

func (bh *BotHandler) showWorkerShifts(ctx context.Context, r *request, viaCallback bool) string {
	list, err := bh.Deps.Shifts.RecentCompleted(ctx, r.UserID, constants.WORKER_SHIFTS_LIMIT)
	if err != nil {
		return bh.refuse(ctx, r, viaCallback, bh.shiftErrorText(r, "showWorkerShifts", err))
	}
	bh.show(ctx, r, viaCallback, formatters.FormatWorkerShifts(list))
	return ""
}

// startShift: подтверждение уходит раньше карточки первого заказа.
func (bh *BotHandler) startShift(ctx context.Context, r *request, viaCallback bool) string {
	_, err := bh.Deps.Shifts.StartShift(ctx, r.UserID, func(shift models.Shift) {
		bh.show(ctx, r, viaCallback, formatters.FormatShiftStarted(shift))
	})
	if err != nil {
		return bh.refuse(ctx, r, viaCallback, bh.shiftErrorText(r, "startShift", err))
	}
	return ""
}

func (bh *BotHandler) endShift(ctx context.Context, r *request, viaCallback bool) string {
	shift, err := bh.Deps.Shifts.EndShift(ctx, r.UserID)
	if err != nil {
		return bh.refuse(ctx, r, viaCallback, bh.shiftErrorText(r, "endShift", err))
	}
	bh.show(ctx, r, viaCallback, formatters.FormatShiftEnded(shift))
	return ""
}

func (bh *BotHandler) shiftErrorText(r *request, op string, err error) string {
	switch {
	case errors.Is(err, shifts.ErrNotWorker):
		return constants.NotWorkerMessage
	case errors.Is(err, apperrors.ErrShiftAlreadyStarted):
		return constants.ShiftAlreadyStarted
	case errors.Is(err, apperrors.ErrNoActiveShift):
		return constants.NoActiveShift
	}
	r.log.Error(op+": ошибка", zap.Error(err))
	return constants.ServerErrorMessage
}

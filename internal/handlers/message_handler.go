// Файл: internal/handlers/message_handler.go

package handlers

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"fieldcrew/internal/apperrors"
	"fieldcrew/internal/constants"
	"fieldcrew/internal/conversation"
	"fieldcrew/internal/formatters"
	"fieldcrew/internal/orders"
	"fieldcrew/internal/utils"
)

// HandleMessage обрабатывает входящие сообщения: команды, "отмена" и ответы на шаги диалога.
func (bh *BotHandler) HandleMessage(ctx context.Context, r *request) {
	r.log.Debug("HandleMessage",
		zap.String("command", r.Command), zap.Bool("photo", r.PhotoID != ""), zap.Int64("user_id", r.UserID))

	if r.Command != "" {
		bh.handleCommand(ctx, r)
		return
	}
	if r.PhotoID == "" && strings.EqualFold(r.Text, constants.CANCEL_TEXT) {
		bh.cancelConversation(ctx, r)
		return
	}

	in := conversation.Input{Kind: conversation.InputText, Text: r.Text}
	if r.PhotoID != "" {
		in = conversation.Input{Kind: conversation.InputPhoto, FileID: r.PhotoID}
	}
	bh.advanceConversation(ctx, r, in)
}

func (bh *BotHandler) handleCommand(ctx context.Context, r *request) {
	switch r.Command {
	case "start":
		if bh.Deps.Directory.IsAdmin(r.UserID) {
			bh.sendAdminMenu(ctx, r)
		} else {
			bh.sendWorkerMenu(ctx, r)
		}
	case "new":
		if !bh.Deps.Directory.IsAdmin(r.UserID) {
			bh.reply(ctx, r, constants.AdminOnlyNewMessage)
			return
		}
		bh.beginOrder(ctx, r, false)
	case "admin":
		if !bh.Deps.Directory.IsAdmin(r.UserID) {
			bh.reply(ctx, r, constants.AccessDeniedMessage)
			return
		}
		bh.sendAdminMenu(ctx, r)
	case "orders":
		bh.showWorkerOrders(ctx, r, false)
	case "cancel":
		// Без аргумента - отмена диалога, с номером - отмена заказа.
		if r.Args == "" {
			bh.cancelConversation(ctx, r)
			return
		}
		bh.cancelOrder(ctx, r)
	case "get_receipt":
		bh.sendReceipt(ctx, r)
	case "shift_start":
		bh.startShift(ctx, r, false)
	case "shift_end":
		bh.endShift(ctx, r, false)
	case "shift_my":
		bh.showWorkerShifts(ctx, r, false)
	default:
		r.log.Info("HandleMessage: неизвестная команда", zap.String("command", r.Command))
		bh.reply(ctx, r, constants.UnknownCommand)
	}
}

func (bh *BotHandler) cancelOrder(ctx context.Context, r *request) {
	if !bh.Deps.Directory.IsAdmin(r.UserID) {
		bh.reply(ctx, r, constants.AdminOnlyCancel)
		return
	}
	id, err := utils.ParseOrderID(r.Args)
	if err != nil {
		bh.reply(ctx, r, constants.CancelUsage)
		return
	}

	order, notified, err := bh.Deps.Orders.Cancel(ctx, r.UserID, id)
	switch {
	case err == nil:
		bh.reply(ctx, r, formatters.FormatOrderCancelledForAdmin(order, notified))
	case errors.Is(err, apperrors.ErrNotFound):
		bh.reply(ctx, r, formatters.FormatOrderNotFound(id))
	default:
		bh.replyError(ctx, r, "cancelOrder", err)
	}
}

func (bh *BotHandler) sendReceipt(ctx context.Context, r *request) {
	if !bh.Deps.Directory.IsAdmin(r.UserID) {
		bh.reply(ctx, r, constants.AdminOnlyReceipt)
		return
	}
	if r.Args == "" {
		bh.reply(ctx, r, constants.ReceiptMissingIDUsage)
		return
	}
	id, err := utils.ParseOrderID(r.Args)
	if err != nil {
		bh.reply(ctx, r, constants.ReceiptUsage)
		return
	}

	fileID, err := bh.Deps.Orders.Receipt(ctx, r.UserID, id)
	switch {
	case errors.Is(err, orders.ErrNoReceipt):
		bh.reply(ctx, r, formatters.FormatNoReceipt(id))
		return
	case errors.Is(err, apperrors.ErrNotFound):
		bh.reply(ctx, r, formatters.FormatOrderNotFound(id))
		return
	case err != nil:
		bh.replyError(ctx, r, "sendReceipt", err)
		return
	}
	if err := bh.Deps.Messenger.SendPhoto(ctx, r.ChatID, fileID, formatters.FormatReceiptCaption(id)); err != nil {
		r.log.Warn("sendReceipt: фото чека не отправлено", zap.Int("order_id", id), zap.Error(err))
		bh.reply(ctx, r, constants.ReceiptSendFailed)
	}
}

// replyError логирует ошибку операции и отвечает пользователю текстом по её категории.
func (bh *BotHandler) replyError(ctx context.Context, r *request, op string, err error) {
	switch apperrors.KindOf(err) {
	case apperrors.KindStore, apperrors.KindUnknown:
		r.log.Error(op+": ошибка", zap.Error(err))
	default:
		r.log.Info(op+": отказ", zap.Error(err))
	}
	bh.reply(ctx, r, apperrors.UserMessage(err))
}

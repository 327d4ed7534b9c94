package handlers

import (
	"context"

	"go.uber.org/zap"

	"fieldcrew/internal/constants"
	"fieldcrew/internal/conversation"
	"fieldcrew/internal/formatters"
	"fieldcrew/internal/models"
	"fieldcrew/internal/payments"
	"fieldcrew/internal/session"
)

// beginOrder открывает форму создания заказа. fromMenu - вопрос заменяет меню.
func (bh *BotHandler) beginOrder(ctx context.Context, r *request, fromMenu bool) {
	unlock := bh.Deps.Sessions.Lock(r.UserID)
	defer unlock()

	s, err := bh.Deps.Sessions.Get(ctx, r.UserID)
	if err != nil {
		bh.replyError(ctx, r, "beginOrder", err)
		return
	}
	prompt := bh.Deps.Machine.BeginOrder(s)
	if err := bh.Deps.Sessions.Save(ctx, s); err != nil {
		bh.replyError(ctx, r, "beginOrder", err)
		return
	}
	if fromMenu {
		bh.edit(ctx, r, prompt.Text, prompt.Buttons...)
		return
	}
	bh.reply(ctx, r, prompt.Text, prompt.Buttons...)
}

// beginCompletion открывает форму выполнения заказа вместо карточки заказа.
func (bh *BotHandler) beginCompletion(ctx context.Context, r *request, orderID int) error {
	unlock := bh.Deps.Sessions.Lock(r.UserID)
	defer unlock()

	s, err := bh.Deps.Sessions.Get(ctx, r.UserID)
	if err != nil {
		return err
	}
	prompt := bh.Deps.Machine.BeginCompletion(s, orderID)
	if err := bh.Deps.Sessions.Save(ctx, s); err != nil {
		return err
	}
	bh.edit(ctx, r, prompt.Text, prompt.Buttons...)
	return nil
}

func (bh *BotHandler) cancelConversation(ctx context.Context, r *request) {
	unlock := bh.Deps.Sessions.Lock(r.UserID)
	defer unlock()

	s, err := bh.Deps.Sessions.Get(ctx, r.UserID)
	if err != nil {
		bh.replyError(ctx, r, "cancelConversation", err)
		return
	}
	if !bh.Deps.Machine.Cancel(s) {
		bh.reply(ctx, r, constants.NothingToCancel)
		return
	}
	if err := bh.Deps.Sessions.Save(ctx, s); err != nil {
		bh.replyError(ctx, r, "cancelConversation", err)
		return
	}
	r.log.Info("cancelConversation: диалог отменён")
	bh.reply(ctx, r, constants.ActionCancelled)
}

// advanceConversation передаёт текст или фото текущему шагу диалога.
func (bh *BotHandler) advanceConversation(ctx context.Context, r *request, in conversation.Input) {
	unlock := bh.Deps.Sessions.Lock(r.UserID)
	defer unlock()

	s, err := bh.Deps.Sessions.Get(ctx, r.UserID)
	if err != nil {
		bh.replyError(ctx, r, "advanceConversation", err)
		return
	}
	if !s.Active() {
		r.log.Debug("advanceConversation: сообщение вне диалога проигнорировано")
		return
	}
	out, ok := bh.step(ctx, r, s, in)
	if !ok {
		return
	}
	if out.Rejected || !out.Done {
		bh.reply(ctx, r, out.Prompt.Text, out.Prompt.Buttons...)
		return
	}
	bh.finish(ctx, r, out)
}

// handleChoice обрабатывает нажатие кнопки выбора. false - шаг такой кнопки не ждёт.
func (bh *BotHandler) handleChoice(ctx context.Context, r *request) bool {
	unlock := bh.Deps.Sessions.Lock(r.UserID)
	defer unlock()

	s, err := bh.Deps.Sessions.Get(ctx, r.UserID)
	if err != nil {
		bh.replyError(ctx, r, "handleChoice", err)
		return true
	}
	if !bh.Deps.Machine.Expects(s, r.Data) {
		return false
	}
	step := s.Step
	out, ok := bh.step(ctx, r, s, conversation.Input{Kind: conversation.InputChoice, Choice: r.Data})
	if !ok {
		return true
	}
	if out.Rejected {
		bh.reply(ctx, r, out.Prompt.Text, out.Prompt.Buttons...)
		return true
	}

	// Вопрос с кнопками превращается в подтверждение выбора.
	bh.edit(ctx, r, out.Echo)
	if step == constants.STATE_DONE_PAYMENT && s.Completion.Payment == models.PaymentQR {
		bh.sendPaymentQR(ctx, r, s.OrderID, s.Completion.Amount)
	}
	if out.Done {
		bh.finish(ctx, r, out)
		return true
	}
	bh.reply(ctx, r, out.Prompt.Text, out.Prompt.Buttons...)
	return true
}

// step применяет ввод и сохраняет сессию. Сессия сбрасывается и при сбое шага.
func (bh *BotHandler) step(ctx context.Context, r *request, s *session.Session, in conversation.Input) (conversation.Outcome, bool) {
	out, err := bh.Deps.Machine.Handle(s, in)
	if err != nil {
		s.Reset()
		_ = bh.Deps.Sessions.Save(ctx, s)
		bh.replyError(ctx, r, "step", err)
		return out, false
	}
	if err := bh.Deps.Sessions.Save(ctx, s); err != nil {
		bh.replyError(ctx, r, "step", err)
		return out, false
	}
	if out.Rejected {
		r.log.Debug("step: ввод не подходит к шагу", zap.String("state", s.Step), zap.String("media", r.Media))
	}
	return out, true
}

// finish сохраняет заполненную форму. Сессия к этому моменту уже сброшена.
func (bh *BotHandler) finish(ctx context.Context, r *request, out conversation.Outcome) {
	switch out.Flow {
	case session.FlowOrder:
		order, err := bh.Deps.Orders.Create(ctx, r.UserID, out.Draft)
		if err != nil {
			r.log.Error("finish: заказ не создан", zap.Error(err))
			bh.reply(ctx, r, constants.OrderCreateFailed)
			return
		}
		bh.reply(ctx, r, formatters.FormatOrderCreated(order))
	case session.FlowCompletion:
		// Подтверждение сотруднику отправляет менеджер заказов.
		if _, err := bh.Deps.Orders.RecordCompletionDetails(ctx, r.UserID, out.OrderID, out.Completion); err != nil {
			bh.replyError(ctx, r, "finish", err)
		}
	}
}

// sendPaymentQR отправляет QR для оплаты, если задан шаблон платёжной строки.
func (bh *BotHandler) sendPaymentQR(ctx context.Context, r *request, orderID int, amount string) {
	template := bh.Deps.Config.PaymentQRTemplate
	if template == "" {
		return
	}
	png, err := payments.GenerateQRCode(template, orderID, amount)
	if err != nil {
		r.log.Error("sendPaymentQR: QR не сформирован", zap.Int("order_id", orderID), zap.Error(err))
		return
	}
	caption := formatters.FormatPaymentQRCaption(orderID, amount)
	if err := bh.Deps.Messenger.SendPhotoBytes(ctx, r.ChatID, "qr.png", png, caption); err != nil {
		r.log.Warn("sendPaymentQR: QR не доставлен", zap.Int("order_id", orderID), zap.Error(err))
	}
}

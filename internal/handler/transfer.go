package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-casino-bot/internal/game"
	"telegram-casino-bot/internal/service"
)

// TransferHandler moves currency between users: `п <сумма>` as a reply to
// the receiver, `история` lists recent transfers.
type TransferHandler struct {
	transfers *service.TransferService
	accounts  *service.AccountService
}

// NewTransferHandler creates a TransferHandler.
func NewTransferHandler(transfers *service.TransferService, accounts *service.AccountService) *TransferHandler {
	return &TransferHandler{transfers: transfers, accounts: accounts}
}

// HandleTransfer sends `п <сумма>` to the replied-to user.
func (h *TransferHandler) HandleTransfer(c tele.Context, args []string) error {
	ctx := context.Background()
	msg := c.Message()
	if msg == nil || msg.ReplyTo == nil || msg.ReplyTo.Sender == nil {
		return nil
	}
	if len(args) < 1 {
		return nil
	}
	amount, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return nil
	}
	if amount <= 0 {
		return c.Send("Сумма должна быть больше 0.")
	}

	from := c.Sender()
	to := msg.ReplyTo.Sender
	if to.IsBot {
		return c.Send("Боту они не нужны")
	}

	// The receiver may have never talked to the bot.
	if _, _, err := h.accounts.EnsureUser(ctx, to.ID, to.Username, displayName(to)); err != nil {
		log.Error().Err(err).Int64("user_id", to.ID).Msg("receiver registration failed")
		return c.Reply("❌ Перевод не удался")
	}

	err = h.transfers.Send(ctx, from.ID, to.ID, displayName(from), displayName(to), amount)
	switch {
	case errors.Is(err, service.ErrSelfTransfer):
		return c.Send("ты пытаешься передать себе")
	case errors.Is(err, game.ErrInsufficientFunds):
		return c.Send("❌ Недостаточно средств на балансе.")
	case err != nil:
		log.Error().Err(err).Int64("from", from.ID).Int64("to", to.ID).Msg("transfer failed")
		return c.Reply("❌ Перевод не удался")
	}

	return c.Send(fmt.Sprintf("%s <b>передал %s %s для</b> %s",
		mention(from), formatAmount(amount), currency, mention(to)), tele.ModeHTML)
}

// HandleHistory lists the sender's recent transfers on `история`.
func (h *TransferHandler) HandleHistory(c tele.Context) error {
	sender := c.Sender()
	history, err := h.transfers.History(context.Background(), sender.ID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("transfer history lookup failed")
		return c.Reply("❌ Не удалось получить историю")
	}

	m := mention(sender)
	if len(history) == 0 {
		return c.Send(fmt.Sprintf("%s ваша история переводов пуста.", m), tele.ModeHTML)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s ваша история переводов\n", m)
	for _, t := range history {
		when := t.CreatedAt.Format("02.01 + 15:04")
		if t.FromID == sender.ID {
			fmt.Fprintf(&sb, "➖ (%d) для %s (%s)\n", t.Amount, t.ToName, when)
		} else {
			fmt.Fprintf(&sb, "➕ (%d) от %s (%s)\n", t.Amount, t.FromName, when)
		}
	}
	return c.Send(sb.String(), tele.ModeHTML)
}

package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-casino-bot/internal/service"
)

// AccountHandler serves profiles, the daily bonus and the balance board.
type AccountHandler struct {
	accounts *service.AccountService
}

// NewAccountHandler creates an AccountHandler.
func NewAccountHandler(accounts *service.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// HandleStart greets the user on /start; registration already happened in
// the middleware.
func (h *AccountHandler) HandleStart(c tele.Context) error {
	return c.Send(fmt.Sprintf(
		"%s, добро пожаловать в казино! 🎰\n"+
			"Напишите <b>профиль</b> для просмотра баланса, <b>бонус</b> — за ежедневной наградой.",
		mention(c.Sender()),
	), tele.ModeHTML)
}

// HandleProfile shows the sender's profile on `профиль`.
func (h *AccountHandler) HandleProfile(c tele.Context) error {
	sender := c.Sender()
	user, err := h.accounts.Profile(context.Background(), sender.ID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("profile lookup failed")
		return c.Send("Ошибка: профиль не найден. Попробуйте написать любое сообщение.")
	}

	return c.Send(fmt.Sprintf(
		"<b>Ваш профиль</b> %s\n\n"+
			"🆔 ID: <code>%d</code>\n"+
			"💰 <b>баланс: %s %s</b>\n\n"+
			"💬 <b>дата регистрации: %s</b>",
		mention(sender), user.TelegramID, formatAmount(user.Balance), currency,
		user.CreatedAt.Format("02.01.2006"),
	), tele.ModeHTML)
}

// HandleBonus claims the daily bonus on `бонус`.
func (h *AccountHandler) HandleBonus(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()

	amount, remaining, err := h.accounts.ClaimBonus(ctx, sender.ID)
	if errors.Is(err, service.ErrBonusOnCooldown) {
		hours := int(remaining.Hours())
		minutes := int(remaining.Minutes()) % 60
		return c.Send(fmt.Sprintf(
			"%s, вы уже забирали свой бонус.\nПриходите снова через <b>%dч. %dмин.</b>",
			mention(sender), hours, minutes,
		), tele.ModeHTML)
	}
	if err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("bonus claim failed")
		return c.Reply("❌ Не удалось выдать бонус")
	}

	balance, err := h.accounts.Balance(ctx, sender.ID)
	if err != nil {
		balance = amount
	}
	return c.Send(fmt.Sprintf(
		"%s, вам начислено <b>%s %s</b>! 🎁\nВаш баланс: <b>%s %s</b>",
		mention(sender), formatAmount(amount), currency, formatAmount(balance), currency,
	), tele.ModeHTML)
}

// HandleTop shows the richest accounts on `топ`.
func (h *AccountHandler) HandleTop(c tele.Context) error {
	users, err := h.accounts.TopUsers(context.Background(), 10)
	if err != nil {
		log.Error().Err(err).Msg("top users lookup failed")
		return c.Reply("❌ Не удалось получить топ")
	}
	if len(users) == 0 {
		return c.Send("Пока никого нет в топе.")
	}

	var sb strings.Builder
	sb.WriteString("<b>Топ по балансу:</b>\n")
	for i, u := range users {
		name := u.FullName
		if name == "" {
			name = u.Username
		}
		fmt.Fprintf(&sb, "%d. %s — %s %s\n", i+1, name, formatAmount(u.Balance), currency)
	}
	return c.Send(sb.String(), tele.ModeHTML)
}

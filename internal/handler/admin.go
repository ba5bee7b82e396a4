package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-casino-bot/internal/repository"
	"telegram-casino-bot/internal/service"
)

// AdminHandler handles the moderation text commands: `выдать <сумма> <ид>`,
// `обнулить <ид>`, `бан <ид>`, `разбан <ид>`, `игры вкл|выкл`. Admin
// authorization happens in the middleware before these run.
type AdminHandler struct {
	admin *service.AdminService
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(admin *service.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// HandleGive credits currency: `выдать <сумма> <ид>`.
func (h *AdminHandler) HandleGive(c tele.Context, args []string) error {
	if len(args) != 2 {
		return c.Send("Ошибка. Формат: выдать (сумма) (ид)")
	}
	amount, err1 := strconv.ParseInt(args[0], 10, 64)
	targetID, err2 := strconv.ParseInt(args[1], 10, 64)
	if err1 != nil || err2 != nil {
		return c.Send("Ошибка. Формат: выдать (сумма) (ид)")
	}

	user, err := h.admin.AddBalance(context.Background(), targetID, amount)
	switch {
	case errors.Is(err, service.ErrInvalidAmount):
		return c.Send("Сумма должна быть больше 0.")
	case errors.Is(err, repository.ErrUserNotFound):
		return c.Send("Пользователь не найден.")
	case err != nil:
		log.Error().Err(err).Int64("target", targetID).Msg("admin credit failed")
		return c.Reply("❌ Не удалось начислить")
	}
	return c.Send(fmt.Sprintf("✅ Игроку <code>%d</code> начислено %s %s (баланс: %s)",
		targetID, formatAmount(amount), currency, formatAmount(user.Balance)), tele.ModeHTML)
}

// HandleReset zeroes a balance: `обнулить <ид>`.
func (h *AdminHandler) HandleReset(c tele.Context, args []string) error {
	if len(args) != 1 {
		return c.Send("Ошибка. Формат: обнулить (ид)")
	}
	targetID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return c.Send("Ошибка. Формат: обнулить (ид)")
	}

	if _, err := h.admin.SetBalance(context.Background(), targetID, 0); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.Send("Пользователь не найден.")
		}
		log.Error().Err(err).Int64("target", targetID).Msg("admin reset failed")
		return c.Reply("❌ Не удалось обнулить")
	}
	return c.Send(fmt.Sprintf("✅ Баланс игрока <code>%d</code> обнулен", targetID), tele.ModeHTML)
}

// HandleBan bans or unbans: `бан <ид>` / `разбан <ид>`.
func (h *AdminHandler) HandleBan(c tele.Context, args []string, banned bool) error {
	format := "Ошибка. Формат: бан (ид)"
	if !banned {
		format = "Ошибка. Формат: разбан (ид)"
	}
	if len(args) != 1 {
		return c.Send(format)
	}
	targetID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return c.Send(format)
	}

	if err := h.admin.SetBanned(context.Background(), targetID, banned); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.Send("Пользователь не найден.")
		}
		log.Error().Err(err).Int64("target", targetID).Bool("banned", banned).Msg("admin ban toggle failed")
		return c.Reply("❌ Не удалось изменить статус")
	}
	if banned {
		return c.Send(fmt.Sprintf("🚫 Пользователь <code>%d</code> забанен", targetID), tele.ModeHTML)
	}
	return c.Send(fmt.Sprintf("😇 Пользователь <code>%d</code> разбанен", targetID), tele.ModeHTML)
}

// HandleGamesToggle flips the chat's game switch: `игры вкл` / `игры выкл`.
func (h *AdminHandler) HandleGamesToggle(c tele.Context, args []string) error {
	if len(args) != 1 || (args[0] != "вкл" && args[0] != "выкл") {
		return c.Send("Ошибка. Формат: игры вкл|выкл")
	}
	enabled := args[0] == "вкл"

	if err := h.admin.SetGamesEnabled(context.Background(), c.Chat().ID, enabled); err != nil {
		log.Error().Err(err).Int64("chat_id", c.Chat().ID).Msg("games toggle failed")
		return c.Reply("❌ Не удалось переключить игры")
	}
	if enabled {
		return c.Send("✅ Игры в этом чате включены")
	}
	return c.Send("⛔ Игры в этом чате выключены")
}

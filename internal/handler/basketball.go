package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-casino-bot/internal/game"
	"telegram-casino-bot/internal/game/basketball"
	"telegram-casino-bot/internal/service"
)

// allInToken wagers the whole balance: `баскет вб`.
const allInToken = "вб"

// BasketballHandler plays the single-shot basketball wager on
// `баскет <ставка|вб>`.
type BasketballHandler struct {
	game     *basketball.Manager
	accounts *service.AccountService
	maxStake int64
}

// NewBasketballHandler creates a BasketballHandler. maxStake 0 means no cap.
func NewBasketballHandler(game *basketball.Manager, accounts *service.AccountService, maxStake int64) *BasketballHandler {
	return &BasketballHandler{game: game, accounts: accounts, maxStake: maxStake}
}

// HandleThrow parses the stake and settles one throw.
func (h *BasketballHandler) HandleThrow(c tele.Context, args []string) error {
	ctx := context.Background()
	sender := c.Sender()
	chat := c.Chat()

	if len(args) < 1 {
		return c.Send("Введите сумму ставки или 'вб'. Пример: баскет 100")
	}

	var stake int64
	if args[0] == allInToken {
		stake = basketball.StakeAllIn
	} else {
		var err error
		stake, err = strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return c.Send("Сумма ставки должна быть числом или 'вб'.")
		}
		if stake <= 0 {
			return c.Send("Ставка должна быть больше 0.")
		}
		if h.maxStake > 0 && stake > h.maxStake {
			return c.Send(fmt.Sprintf("Максимальная ставка: %s %s", formatAmount(h.maxStake), currency))
		}
	}

	res, err := h.game.Play(ctx, chat.ID, sender.ID, stake)
	switch {
	case errors.Is(err, basketball.ErrThrowInProgress):
		return c.Reply("⏳ Дождись результата предыдущего броска!")
	case errors.Is(err, game.ErrInsufficientFunds):
		if stake == basketball.StakeAllIn {
			return c.Send("❌ У вас нулевой баланс.")
		}
		return c.Send("❌ Недостаточно средств.")
	case errors.Is(err, basketball.ErrInvalidStake):
		return c.Send("Ставка должна быть больше 0.")
	case err != nil:
		log.Error().Err(err).Int64("chat_id", chat.ID).Int64("user_id", sender.ID).Msg("basketball throw failed")
		return c.Reply("❌ Не удалось сделать бросок")
	}

	balance, err := h.accounts.Balance(ctx, sender.ID)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", sender.ID).Msg("balance lookup after throw failed")
	}

	m := mention(sender)
	if res.Won {
		return c.Send(
			fmt.Sprintf("🏀 %s попал! (%d)\n🎉 Выигрыш: <b>x%v</b> | <b>%s</b> %s\n💰 Баланс: %s",
				m, res.Value, res.Mult, formatAmount(res.Payout), currency, formatAmount(balance)),
			tele.ModeHTML,
		)
	}
	return c.Send(
		fmt.Sprintf("🏀 %s промах! (%d)\n😢 Потеряно: %s %s\n💰 Баланс: %s",
			m, res.Value, formatAmount(res.Stake), currency, formatAmount(balance)),
		tele.ModeHTML,
	)
}

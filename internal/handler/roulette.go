package handler

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-casino-bot/internal/game"
	"telegram-casino-bot/internal/game/roulette"
	"telegram-casino-bot/internal/service"
)

// Rebet callback payloads.
const (
	cbRebet  = "rebet"
	cbDouble = "double"
)

// RouletteHandler drives the pooled roulette round over the chat's text
// protocol: `<stake> <targets...>` admits bets, `го` spins, `отмена`
// refunds, `ставки` lists, `лог` shows recent outcomes.
type RouletteHandler struct {
	game    *roulette.Manager
	ranking *service.RankingService
}

// NewRouletteHandler creates a RouletteHandler.
func NewRouletteHandler(game *roulette.Manager, ranking *service.RankingService) *RouletteHandler {
	return &RouletteHandler{game: game, ranking: ranking}
}

func colorEmoji(c roulette.Color) string {
	switch c {
	case roulette.ColorGreen:
		return "🟢"
	case roulette.ColorRed:
		return "🔴"
	default:
		return "⚫"
	}
}

// HandleBetMessage admits `<stake> <targets...>`. Unknown targets are
// dropped without complaint; a message with no surviving target is ignored.
func (h *RouletteHandler) HandleBetMessage(c tele.Context, stake int64, tokens []string) error {
	ctx := context.Background()
	sender := c.Sender()
	chat := c.Chat()

	wagers, err := h.game.PlaceBets(ctx, chat.ID, sender.ID, displayName(sender), stake, tokens)
	switch {
	case errors.Is(err, roulette.ErrRoundResolving):
		return c.Reply("⏳ Дождитесь результата рулетки")
	case errors.Is(err, game.ErrInsufficientFunds):
		return c.Reply(fmt.Sprintf("Недостаточно %s!", currency))
	case errors.Is(err, roulette.ErrInvalidStake):
		return nil
	case err != nil:
		log.Error().Err(err).Int64("chat_id", chat.ID).Int64("user_id", sender.ID).Msg("bet admission failed")
		return c.Reply("❌ Не удалось принять ставку, попробуйте позже")
	}
	if len(wagers) == 0 {
		return nil
	}

	m := mention(sender)
	lines := make([]string, 0, len(wagers))
	for _, w := range wagers {
		lines = append(lines, fmt.Sprintf("Ставка принята: %s %d %s на %s", m, w.Stake, currency, w.Label))
	}
	return sendChunked(c, lines, 20)
}

// HandleSpin resolves the round on `го`. A spin already in flight and a
// missing round are both silent: the original protocol never answers them.
func (h *RouletteHandler) HandleSpin(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	chat := c.Chat()

	res, err := h.game.Spin(ctx, chat.ID, sender.ID)
	if err != nil {
		var countdown *roulette.CountdownError
		switch {
		case errors.As(err, &countdown):
			return c.Send(fmt.Sprintf("⏳ Осталось еще %d сек.", int(countdown.Remaining.Seconds())))
		case errors.Is(err, roulette.ErrNotParticipant):
			return c.Reply("❌ Вы не можете запустить рулетку, так как не сделали ставку!")
		case errors.Is(err, roulette.ErrSpinInProgress), errors.Is(err, roulette.ErrNoRound):
			return nil
		}
		if res == nil {
			log.Error().Err(err).Int64("chat_id", chat.ID).Msg("spin failed")
			return c.Reply("❌ Не удалось запустить рулетку")
		}
		// Partial settlement failure: the outcome stands, the inconsistency
		// goes to the log.
		log.Error().Err(err).Int64("chat_id", chat.ID).Msg("settlement finished with errors")
	}

	return h.sendResult(c, res)
}

func (h *RouletteHandler) sendResult(c tele.Context, res *roulette.Result) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>Результаты рулетки: %d %s</b>\n\n<b>Ставки:</b>\n", res.Number, colorEmoji(res.Color))

	for _, line := range res.Lines {
		fmt.Fprintf(&sb, "%s %d на %s\n", html.EscapeString(line.Name), line.Wager.Stake, line.Wager.Label)
	}

	sb.WriteString("\n<b>Победители:</b>\n")
	if len(res.Totals) == 0 {
		sb.WriteString("Никто не выиграл\n")
	} else {
		for _, line := range res.Lines {
			if line.Payout > 0 {
				fmt.Fprintf(&sb, "%s выиграл %d на %s\n", html.EscapeString(line.Name), line.Payout, line.Wager.Label)
			}
		}
	}

	kb := &tele.ReplyMarkup{}
	kb.Inline(kb.Row(
		kb.Data("Повторить", cbRebet),
		kb.Data("Удвоить", cbDouble),
	))
	return c.Send(sb.String(), kb, tele.ModeHTML)
}

// HandleCancel refunds the sender's bets on `отмена`.
func (h *RouletteHandler) HandleCancel(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	chat := c.Chat()

	refund, err := h.game.Cancel(ctx, chat.ID, sender.ID)
	switch {
	case errors.Is(err, roulette.ErrRoundResolving):
		return c.Reply("⏳ Дождитесь результата рулетки")
	case errors.Is(err, roulette.ErrNoBets):
		return c.Send("У вас нет активных ставок.")
	case err != nil:
		log.Error().Err(err).Int64("chat_id", chat.ID).Int64("user_id", sender.ID).Msg("cancel failed")
		return c.Reply("❌ Не удалось отменить ставки")
	}
	return c.Send(fmt.Sprintf("%s, ставки отменены. Возвращено: %d %s", mention(sender), refund, currency), tele.ModeHTML)
}

// HandleMyBets lists the sender's active bets on `ставки`.
func (h *RouletteHandler) HandleMyBets(c tele.Context) error {
	sender := c.Sender()
	chat := c.Chat()

	wagers, err := h.game.Bets(chat.ID, sender.ID)
	if errors.Is(err, roulette.ErrNoBets) {
		return c.Send("У вас нет активных ставок.")
	}
	if err != nil {
		return err
	}

	m := mention(sender)
	lines := make([]string, 0, len(wagers))
	for _, w := range wagers {
		lines = append(lines, fmt.Sprintf("%s %d на %s", m, w.Stake, w.Label))
	}
	return sendChunked(c, lines, 30)
}

// HandleLog shows the chat's recent outcomes on `лог`.
func (h *RouletteHandler) HandleLog(c tele.Context) error {
	spins, err := h.ranking.RecentSpins(context.Background(), c.Chat().ID)
	if err != nil {
		log.Error().Err(err).Int64("chat_id", c.Chat().ID).Msg("recent spins lookup failed")
		return c.Reply("❌ Не удалось получить историю")
	}
	if len(spins) == 0 {
		return c.Send("История игр пуста")
	}

	var sb strings.Builder
	sb.WriteString("<b>Последние игры:</b>\n")
	for _, s := range spins {
		fmt.Fprintf(&sb, "<b>%d</b> %s\n", s.Number, colorEmoji(roulette.Color(s.Color)))
	}
	return c.Send(sb.String(), tele.ModeHTML)
}

// HandleRebet replays the sender's last bet set from the result keyboard,
// doubled for the `Удвоить` button.
func (h *RouletteHandler) HandleRebet(c tele.Context, double bool) error {
	ctx := context.Background()
	sender := c.Sender()
	chat := c.Chat()

	wagers, err := h.game.Repeat(ctx, chat.ID, sender.ID, displayName(sender), double)
	switch {
	case errors.Is(err, roulette.ErrRoundResolving):
		return c.Respond(&tele.CallbackResponse{Text: "Рулетка уже крутится!", ShowAlert: true})
	case errors.Is(err, roulette.ErrNoLastWagers):
		return c.Respond(&tele.CallbackResponse{Text: "Нет прошлых ставок!", ShowAlert: true})
	case errors.Is(err, game.ErrInsufficientFunds):
		return c.Respond(&tele.CallbackResponse{Text: "Недостаточно средств!", ShowAlert: true})
	case err != nil:
		log.Error().Err(err).Int64("chat_id", chat.ID).Int64("user_id", sender.ID).Msg("rebet failed")
		return c.Respond(&tele.CallbackResponse{Text: "Ошибка, попробуйте позже"})
	}

	if err := c.Respond(&tele.CallbackResponse{Text: "Ставки приняты!"}); err != nil {
		return err
	}

	title := fmt.Sprintf("%s повторил ставки:", mention(sender))
	if double {
		title = fmt.Sprintf("%s удвоил ставки:", mention(sender))
	}
	lines := make([]string, 0, len(wagers))
	for _, w := range wagers {
		lines = append(lines, fmt.Sprintf("<b>%s</b> — %d", w.Label, w.Stake))
	}
	return c.Send(title+"\n"+strings.Join(lines, "\n"), tele.ModeHTML)
}

// sendChunked sends lines in blocks so long bet lists stay inside the
// message size limit.
func sendChunked(c tele.Context, lines []string, chunk int) error {
	for i := 0; i < len(lines); i += chunk {
		end := i + chunk
		if end > len(lines) {
			end = len(lines)
		}
		if err := c.Send(strings.Join(lines[i:end], "\n"), tele.ModeHTML); err != nil {
			return err
		}
	}
	return nil
}

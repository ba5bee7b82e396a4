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
	"telegram-casino-bot/internal/game/mines"
)

// Mines callback payload prefixes.
const (
	cbMinePrefix    = "mine_"
	cbCashoutPrefix = "cashout_"
	cbIgnore        = "ignore"
)

// emptyCell is an invisible filler so opened buttons keep their size.
const emptyCell = "ㅤ"

// MinesHandler runs mines boards: `мины <ставка>` starts one, the inline
// keyboard reveals cells and cashes out.
type MinesHandler struct {
	game     *mines.Manager
	maxStake int64
}

// NewMinesHandler creates a MinesHandler. maxStake 0 means no cap.
func NewMinesHandler(game *mines.Manager, maxStake int64) *MinesHandler {
	return &MinesHandler{game: game, maxStake: maxStake}
}

// HandleStart opens a new board for `мины <ставка>`. An existing board of
// the same user in the same chat is refunded and replaced.
func (h *MinesHandler) HandleStart(c tele.Context, args []string) error {
	ctx := context.Background()
	sender := c.Sender()
	chat := c.Chat()

	if len(args) != 1 {
		return c.Send("⚠️ Формат: <code>мины [ставка]</code>", tele.ModeHTML)
	}
	stake, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || stake <= 0 {
		return nil
	}
	if h.maxStake > 0 && stake > h.maxStake {
		return c.Send(fmt.Sprintf("⚠️ Максимальная ставка: %s %s", formatAmount(h.maxStake), currency))
	}

	s, err := h.game.Start(ctx, chat.ID, sender.ID, stake)
	switch {
	case errors.Is(err, game.ErrInsufficientFunds):
		return c.Send(fmt.Sprintf("⚠️ Недостаточно %s!", currency))
	case err != nil:
		log.Error().Err(err).Int64("chat_id", chat.ID).Int64("user_id", sender.ID).Msg("mines start failed")
		return c.Reply("❌ Не удалось начать игру")
	}

	msg, err := c.Bot().Send(chat,
		fmt.Sprintf("%s, вы начали игру минное поле!\n💰 Ставка: %s %s", mention(sender), formatAmount(stake), currency),
		h.keyboard(sender.ID, s, nil, false),
		tele.ModeHTML,
	)
	if err != nil {
		return err
	}
	// A tap on an older board of the same user must not reach this session.
	if err := h.game.SetMessageID(chat.ID, sender.ID, msg.ID); err != nil {
		log.Warn().Err(err).Int64("user_id", sender.ID).Msg("mines board vanished before pinning")
	}
	return nil
}

// keyboard renders the 5x5 grid. After a terminal outcome the hazards are
// shown and every button goes inert.
func (h *MinesHandler) keyboard(ownerID int64, s *mines.Session, hazards []int, gameOver bool) *tele.ReplyMarkup {
	mined := make(map[int]bool, len(hazards))
	for _, cell := range hazards {
		mined[cell] = true
	}

	kb := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, 6)
	for row := 0; row < 5; row++ {
		buttons := make([]tele.Btn, 0, 5)
		for col := 0; col < 5; col++ {
			cell := row*5 + col
			var btn tele.Btn
			switch {
			case gameOver && mined[cell]:
				btn = kb.Data("💣", cbIgnore)
			case gameOver, s != nil && s.Revealed(cell):
				btn = kb.Data(emptyCell, cbIgnore)
			default:
				btn = kb.Data("❓", fmt.Sprintf("%s%d_%d", cbMinePrefix, cell, ownerID))
			}
			buttons = append(buttons, btn)
		}
		rows = append(rows, kb.Row(buttons...))
	}
	if !gameOver && s != nil && s.Hits() > 0 {
		rows = append(rows, kb.Row(kb.Data("💸 Забрать выигрыш", fmt.Sprintf("%s%d", cbCashoutPrefix, ownerID))))
	}
	kb.Inline(rows...)
	return kb
}

// HandleReveal processes a `mine_<cell>_<owner>` tap.
func (h *MinesHandler) HandleReveal(c tele.Context, payload string) error {
	ctx := context.Background()
	sender := c.Sender()
	chat := c.Chat()

	parts := strings.Split(strings.TrimPrefix(payload, cbMinePrefix), "_")
	if len(parts) != 2 {
		return c.Respond(&tele.CallbackResponse{})
	}
	cell, err1 := strconv.Atoi(parts[0])
	ownerID, err2 := strconv.ParseInt(parts[1], 10, 64)
	if err1 != nil || err2 != nil {
		return c.Respond(&tele.CallbackResponse{})
	}

	if sender.ID != ownerID {
		return c.Respond(&tele.CallbackResponse{Text: "Это не ваша игра!", ShowAlert: true})
	}
	if !h.boardCurrent(c, chat.ID, ownerID) {
		return c.Respond(&tele.CallbackResponse{Text: "Эта игра устарела.", ShowAlert: true})
	}

	out, err := h.game.Reveal(ctx, chat.ID, ownerID, cell)
	switch {
	case errors.Is(err, mines.ErrNoSession):
		return c.Respond(&tele.CallbackResponse{Text: "Игра не найдена.", ShowAlert: true})
	case errors.Is(err, mines.ErrCellRevealed), errors.Is(err, mines.ErrInvalidCell):
		return c.Respond(&tele.CallbackResponse{})
	case err != nil:
		log.Error().Err(err).Int64("chat_id", chat.ID).Int64("user_id", ownerID).Msg("mines reveal failed")
		return c.Respond(&tele.CallbackResponse{Text: "Ошибка, попробуйте позже"})
	}

	m := mention(sender)
	switch {
	case out.Hazard:
		if err := c.Edit(
			fmt.Sprintf("%s, игра завершена!\n💵 Вы проиграли", m),
			h.keyboard(ownerID, nil, out.Hazards, true),
			tele.ModeHTML,
		); err != nil {
			return err
		}
	case out.Completed:
		if err := c.Edit(
			fmt.Sprintf("%s, поле пройдено!\n💰 Выигрыш: %s %s", m, formatAmount(out.Payout), currency),
			h.keyboard(ownerID, nil, out.Hazards, true),
			tele.ModeHTML,
		); err != nil {
			return err
		}
	default:
		s, err := h.game.Session(chat.ID, ownerID)
		if err != nil {
			return c.Respond(&tele.CallbackResponse{})
		}
		if err := c.Edit(
			fmt.Sprintf("%s, вы начали игру минное поле!\n💰 Ставка: %s\n💵 Выигрыш: <b>x%v</b> | <b>%s</b> %s",
				m, formatAmount(s.Stake), out.Mult, formatAmount(out.Payout), currency),
			h.keyboard(ownerID, s, nil, false),
			tele.ModeHTML,
		); err != nil {
			return err
		}
	}
	return c.Respond(&tele.CallbackResponse{})
}

// HandleCashOut processes a `cashout_<owner>` tap.
func (h *MinesHandler) HandleCashOut(c tele.Context, payload string) error {
	ctx := context.Background()
	sender := c.Sender()
	chat := c.Chat()

	ownerID, err := strconv.ParseInt(strings.TrimPrefix(payload, cbCashoutPrefix), 10, 64)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{})
	}
	if sender.ID != ownerID {
		return c.Respond(&tele.CallbackResponse{Text: "Это не ваша игра!", ShowAlert: true})
	}
	if !h.boardCurrent(c, chat.ID, ownerID) {
		return c.Respond(&tele.CallbackResponse{Text: "Эта игра устарела.", ShowAlert: true})
	}

	out, err := h.game.CashOut(ctx, chat.ID, ownerID)
	switch {
	case errors.Is(err, mines.ErrNoSession):
		return c.Respond(&tele.CallbackResponse{Text: "Игра уже завершена."})
	case errors.Is(err, mines.ErrNothingToCash):
		return c.Respond(&tele.CallbackResponse{Text: "Откройте хотя бы одну клетку!"})
	case err != nil:
		log.Error().Err(err).Int64("chat_id", chat.ID).Int64("user_id", ownerID).Msg("mines cashout failed")
		return c.Respond(&tele.CallbackResponse{Text: "Ошибка, попробуйте позже"})
	}

	if err := c.Edit(
		fmt.Sprintf("%s, вы забрали выигрыш!\n💰 Сумма: <b>%s</b> %s", mention(sender), formatAmount(out.Payout), currency),
		h.keyboard(ownerID, nil, out.Hazards, true),
		tele.ModeHTML,
	); err != nil {
		return err
	}
	return c.Respond(&tele.CallbackResponse{Text: fmt.Sprintf("Зачислено +%d %s", out.Payout, currency)})
}

// HandleIgnore answers inert buttons so the client spinner stops.
func (h *MinesHandler) HandleIgnore(c tele.Context) error {
	return c.Respond(&tele.CallbackResponse{})
}

// boardCurrent reports whether the tapped message still carries the active
// board.
func (h *MinesHandler) boardCurrent(c tele.Context, chatID, ownerID int64) bool {
	s, err := h.game.Session(chatID, ownerID)
	if err != nil {
		// Let the operation itself answer with the right error.
		return true
	}
	msg := c.Message()
	return msg == nil || s.MessageID == 0 || msg.ID == s.MessageID
}

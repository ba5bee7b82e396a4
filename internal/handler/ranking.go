package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-casino-bot/internal/service"
)

// RankingHandler serves the daily winnings board on `топ дня`.
type RankingHandler struct {
	ranking *service.RankingService
}

// NewRankingHandler creates a RankingHandler.
func NewRankingHandler(ranking *service.RankingService) *RankingHandler {
	return &RankingHandler{ranking: ranking}
}

// HandleDailyTop lists today's top winners.
func (h *RankingHandler) HandleDailyTop(c tele.Context) error {
	winners, err := h.ranking.DailyWinners(context.Background(), 10)
	if err != nil {
		log.Error().Err(err).Msg("daily winners lookup failed")
		return c.Reply("❌ Не удалось получить топ дня")
	}
	if len(winners) == 0 {
		return c.Send("Сегодня еще никто не выигрывал.")
	}

	var sb strings.Builder
	sb.WriteString("<b>Топ выигрышей за сегодня:</b>\n")
	for i, w := range winners {
		name := w.Username
		if name == "" {
			name = fmt.Sprintf("id%d", w.UserID)
		}
		fmt.Fprintf(&sb, "%d. %s — %s %s\n", i+1, name, formatAmount(w.Winnings), currency)
	}
	return c.Send(sb.String(), tele.ModeHTML)
}

// Package bot wires the Telegram transport: long polling, middleware and the
// text-protocol dispatch.
package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-casino-bot/internal/config"
	"telegram-casino-bot/internal/game/basketball"
	"telegram-casino-bot/internal/game/mines"
	"telegram-casino-bot/internal/game/roulette"
	"telegram-casino-bot/internal/handler"
	"telegram-casino-bot/internal/service"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot *tele.Bot
	cfg *config.Config

	accountService *service.AccountService
	adminService   *service.AdminService

	rouletteHandler   *handler.RouletteHandler
	minesHandler      *handler.MinesHandler
	basketballHandler *handler.BasketballHandler
	accountHandler    *handler.AccountHandler
	transferHandler   *handler.TransferHandler
	rankingHandler    *handler.RankingHandler
	adminHandler      *handler.AdminHandler
}

// Dependencies holds everything the bot handlers need.
type Dependencies struct {
	Config          *config.Config
	AccountService  *service.AccountService
	TransferService *service.TransferService
	RankingService  *service.RankingService
	AdminService    *service.AdminService
	Roulette        *roulette.Manager
	Mines           *mines.Manager
	Basketball      *basketball.Manager
}

// New creates the bot and registers middleware and handlers.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Config.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	teleBot, err := tele.NewBot(tele.Settings{
		Token:  deps.Config.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	b := &Bot{
		bot:            teleBot,
		cfg:            deps.Config,
		accountService: deps.AccountService,
		adminService:   deps.AdminService,
	}

	b.rouletteHandler = handler.NewRouletteHandler(deps.Roulette, deps.RankingService)
	b.minesHandler = handler.NewMinesHandler(deps.Mines, deps.Config.Games.Mines.MaxStake)
	b.basketballHandler = handler.NewBasketballHandler(deps.Basketball, deps.AccountService, deps.Config.Games.Basketball.MaxStake)
	b.accountHandler = handler.NewAccountHandler(deps.AccountService)
	b.transferHandler = handler.NewTransferHandler(deps.TransferService, deps.AccountService)
	b.rankingHandler = handler.NewRankingHandler(deps.RankingService)
	b.adminHandler = handler.NewAdminHandler(deps.AdminService)

	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(WhitelistMiddleware(deps.Config))
	b.bot.Use(LoggingMiddleware())
	b.bot.Use(RegisterMiddleware(deps.AccountService))

	b.bot.Handle("/start", b.accountHandler.HandleStart)
	b.bot.Handle(tele.OnText, b.handleText)
	b.bot.Handle(tele.OnCallback, b.handleCallback)

	return b, nil
}

// handleText dispatches the plain-word protocol. The games speak lowercase
// Russian keywords, not slash commands.
func (b *Bot) handleText(c tele.Context) error {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(c.Text())))
	if len(fields) == 0 {
		return nil
	}
	cmd, args := fields[0], fields[1:]

	if b.cfg.IsAdmin(c.Sender().ID) {
		switch cmd {
		case "выдать":
			return b.adminHandler.HandleGive(c, args)
		case "обнулить":
			return b.adminHandler.HandleReset(c, args)
		case "бан":
			return b.adminHandler.HandleBan(c, args, true)
		case "разбан":
			return b.adminHandler.HandleBan(c, args, false)
		case "игры":
			return b.adminHandler.HandleGamesToggle(c, args)
		}
	}

	switch cmd {
	case "профиль", "profile":
		return b.accountHandler.HandleProfile(c)
	case "бонус":
		return b.accountHandler.HandleBonus(c)
	case "история":
		return b.transferHandler.HandleHistory(c)
	case "топ", "top":
		if len(args) > 0 && args[0] == "дня" {
			return b.rankingHandler.HandleDailyTop(c)
		}
		return b.accountHandler.HandleTop(c)
	case "п":
		return b.transferHandler.HandleTransfer(c, args)
	}

	// Everything below is the group game protocol.
	if chat := c.Chat(); chat == nil || chat.Type == tele.ChatPrivate {
		return nil
	}
	if !b.gamesEnabled(c.Chat().ID) {
		return nil
	}

	switch cmd {
	case "го", "go":
		return b.rouletteHandler.HandleSpin(c)
	case "отмена", "отменить":
		return b.rouletteHandler.HandleCancel(c)
	case "ставки":
		return b.rouletteHandler.HandleMyBets(c)
	case "лог":
		return b.rouletteHandler.HandleLog(c)
	case "мины", "mines":
		return b.minesHandler.HandleStart(c, args)
	case "баскет", "basket":
		return b.basketballHandler.HandleThrow(c, args)
	}

	if stake, ok := parseStake(cmd); ok && len(args) > 0 {
		return b.rouletteHandler.HandleBetMessage(c, stake, args)
	}
	return nil
}

// handleCallback routes inline keyboard taps.
func (b *Bot) handleCallback(c tele.Context) error {
	cb := c.Callback()
	if cb == nil {
		return nil
	}
	data := strings.TrimPrefix(cb.Data, "\f")

	switch {
	case data == "rebet", data == "double":
		if !b.gamesEnabled(c.Chat().ID) {
			return c.Respond(&tele.CallbackResponse{Text: "Игры в этом чате отключены!", ShowAlert: true})
		}
		return b.rouletteHandler.HandleRebet(c, data == "double")
	case strings.HasPrefix(data, "mine_"):
		return b.minesHandler.HandleReveal(c, data)
	case strings.HasPrefix(data, "cashout_"):
		return b.minesHandler.HandleCashOut(c, data)
	default:
		return b.minesHandler.HandleIgnore(c)
	}
}

// gamesEnabled checks the chat's game switch; lookup failures keep the games
// running rather than silencing the chat.
func (b *Bot) gamesEnabled(chatID int64) bool {
	enabled, err := b.adminService.GamesEnabled(context.Background(), chatID)
	if err != nil {
		log.Warn().Err(err).Int64("chat_id", chatID).Msg("games toggle lookup failed")
		return true
	}
	return enabled
}

// parseStake accepts a plain positive integer as the leading stake token.
func parseStake(token string) (int64, bool) {
	var n int64
	for _, r := range token {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int64(r-'0')
		if n > 1<<40 {
			return 0, false
		}
	}
	if n <= 0 {
		return 0, false
	}
	return n, true
}

// Start begins long polling; it blocks until Stop.
func (b *Bot) Start() {
	log.Info().Msg("starting bot")
	b.bot.Start()
}

// Stop halts polling.
func (b *Bot) Stop() {
	log.Info().Msg("stopping bot")
	b.bot.Stop()
}

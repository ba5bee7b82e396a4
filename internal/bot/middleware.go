package bot

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-casino-bot/internal/config"
	"telegram-casino-bot/internal/service"
)

// privateUserCache tracks users seen in whitelisted groups, so they may also
// talk to the bot in private.
var (
	privateUserCache = make(map[int64]bool)
	privateUserMu    sync.RWMutex
)

func allowPrivateUser(userID int64) {
	privateUserMu.Lock()
	defer privateUserMu.Unlock()
	privateUserCache[userID] = true
}

func isPrivateUserAllowed(userID int64) bool {
	privateUserMu.RLock()
	defer privateUserMu.RUnlock()
	return privateUserCache[userID]
}

// WhitelistMiddleware drops updates from chats outside the whitelist. An
// empty whitelist admits every chat.
func WhitelistMiddleware(cfg *config.Config) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			chat := c.Chat()
			sender := c.Sender()
			if chat == nil || sender == nil {
				return nil
			}

			if chat.Type == tele.ChatPrivate {
				if len(cfg.Whitelist.Chats) == 0 || isPrivateUserAllowed(sender.ID) {
					return next(c)
				}
				log.Debug().Int64("user_id", sender.ID).Msg("ignoring private chat from unknown user")
				return nil
			}

			if !cfg.IsChatAllowed(chat.ID) {
				log.Debug().Int64("chat_id", chat.ID).Msg("ignoring non-whitelisted chat")
				return nil
			}

			allowPrivateUser(sender.ID)
			return next(c)
		}
	}
}

// RegisterMiddleware ensures an account row for every update and silently
// drops updates from banned users.
func RegisterMiddleware(accounts *service.AccountService) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil || sender.IsBot {
				return nil
			}

			name := sender.FirstName
			if sender.LastName != "" {
				name += " " + sender.LastName
			}
			user, _, err := accounts.EnsureUser(context.Background(), sender.ID, sender.Username, name)
			if err != nil {
				log.Error().Err(err).Int64("user_id", sender.ID).Msg("user registration failed")
				return nil
			}
			if user.Banned {
				return nil
			}
			return next(c)
		}
	}
}

// LoggingMiddleware logs every incoming update at debug level.
func LoggingMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			evt := log.Debug()
			if sender := c.Sender(); sender != nil {
				evt = evt.Int64("user_id", sender.ID).Str("username", sender.Username)
			}
			if chat := c.Chat(); chat != nil {
				evt = evt.Int64("chat_id", chat.ID).Str("chat_type", string(chat.Type))
			}
			evt.Str("text", c.Text()).Msg("update received")
			return next(c)
		}
	}
}

// RecoveryMiddleware keeps a panicking handler from taking the poller down.
func RecoveryMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			defer func() {
				if r := recover(); r != nil {
					log.Error().Interface("panic", r).Str("text", c.Text()).Msg("recovered from handler panic")
				}
			}()
			return next(c)
		}
	}
}

// Package handler maps the Telegram text protocol onto the game engines and
// services. All message formatting lives here.
package handler

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"
)

// currency is the display name of the in-game currency.
const currency = "cron"

// mention builds a styled HTML mention that works without a username.
func mention(user *tele.User) string {
	name := user.FirstName
	if name == "" {
		name = user.Username
	}
	return fmt.Sprintf(`<b><a href="tg://user?id=%d">%s</a></b>`, user.ID, html.EscapeString(name))
}

// displayName picks the best human-readable name for persistence.
func displayName(user *tele.User) string {
	if user.FirstName != "" {
		name := user.FirstName
		if user.LastName != "" {
			name += " " + user.LastName
		}
		return name
	}
	return user.Username
}

// formatAmount renders 1234567 as "1 234 567".
func formatAmount(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

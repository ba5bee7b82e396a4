package roulette

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxTokensPerMessage caps one admission batch; excess tokens are discarded
// before parsing.
const MaxTokensPerMessage = 100

// Token aliases. "zero" admits an exact-number wager on 0 (36x), not a color
// wager.
var (
	redAliases   = map[string]bool{"red": true, "r": true, "к": true, "красное": true}
	blackAliases = map[string]bool{"black": true, "b": true, "ч": true, "черное": true}
	zeroAliases  = map[string]bool{"zero": true, "green": true, "0": true, "з": true, "зеленое": true}
)

// ParseWagers turns raw bet tokens into wagers at the given stake. Parsing is
// best-effort: each token is tried independently and anything that
// matches no wager kind is silently dropped, never an error. An empty result
// means the whole admission is a no-op.
func ParseWagers(tokens []string, stake int64) []Wager {
	if len(tokens) > MaxTokensPerMessage {
		tokens = tokens[:MaxTokensPerMessage]
	}

	var wagers []Wager
	for _, raw := range tokens {
		token := strings.ToLower(strings.TrimSpace(raw))
		if token == "" {
			continue
		}
		if w, ok := parseToken(token, stake); ok {
			wagers = append(wagers, w)
		}
	}
	return wagers
}

func parseToken(token string, stake int64) (Wager, bool) {
	switch {
	case redAliases[token]:
		return Wager{Kind: KindColor, Stake: stake, Color: ColorRed, Label: "RED"}, true
	case blackAliases[token]:
		return Wager{Kind: KindColor, Stake: stake, Color: ColorBlack, Label: "BLACK"}, true
	case zeroAliases[token]:
		return Wager{Kind: KindNumber, Stake: stake, Value: 0, Label: "ZERO"}, true
	case strings.Contains(token, "-"):
		return parseRange(token, stake)
	default:
		n, err := strconv.Atoi(token)
		if err != nil || n < 1 || n > 36 {
			return Wager{}, false
		}
		return Wager{Kind: KindNumber, Stake: stake, Value: n, Label: strconv.Itoa(n)}, true
	}
}

// parseRange accepts strictly "a-b" with both bounds numeric and within
// 0..36; bounds are sorted ascending.
func parseRange(token string, stake int64) (Wager, bool) {
	parts := strings.Split(token, "-")
	if len(parts) != 2 {
		return Wager{}, false
	}
	low, err1 := strconv.Atoi(parts[0])
	high, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return Wager{}, false
	}
	if low > high {
		low, high = high, low
	}
	if low < 0 || high > 36 {
		return Wager{}, false
	}
	return Wager{
		Kind:  KindRange,
		Stake: stake,
		Low:   low,
		High:  high,
		Label: fmt.Sprintf("%d-%d", low, high),
	}, true
}

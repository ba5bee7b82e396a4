package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"telegram-casino-bot/internal/config"
)

// A user is recognized as admin exactly when their id is configured.
func TestAdminCheckProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		adminIDs := rapid.SliceOfN(rapid.Int64Range(1, 1_000_000_000), 1, 10).Draw(t, "adminIDs")
		cfg := &config.Config{Admin: config.AdminConfig{IDs: adminIDs}}

		userID := rapid.Int64Range(1, 1_000_000_000).Draw(t, "userID")

		want := false
		for _, id := range adminIDs {
			if id == userID {
				want = true
				break
			}
		}
		if got := cfg.IsAdmin(userID); got != want {
			t.Fatalf("IsAdmin(%d)=%v, want %v (admins %v)", userID, got, want, adminIDs)
		}
	})
}

// An empty whitelist admits every chat; a populated one admits exactly its
// members.
func TestWhitelistProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		chats := rapid.SliceOfN(rapid.Int64Range(-1_000_000, 1_000_000), 0, 10).Draw(t, "chats")
		cfg := &config.Config{Whitelist: config.WhitelistConfig{Chats: chats}}

		chatID := rapid.Int64Range(-1_000_000, 1_000_000).Draw(t, "chatID")

		want := len(chats) == 0
		for _, id := range chats {
			if id == chatID {
				want = true
				break
			}
		}
		if got := cfg.IsChatAllowed(chatID); got != want {
			t.Fatalf("IsChatAllowed(%d)=%v, want %v (whitelist %v)", chatID, got, want, chats)
		}
	})
}

func TestParseStake(t *testing.T) {
	tests := []struct {
		token string
		want  int64
		ok    bool
	}{
		{"100", 100, true},
		{"1", 1, true},
		{"007", 7, true},
		{"0", 0, false},
		{"-5", 0, false},
		{"12a", 0, false},
		{"вб", 0, false},
		{"99999999999999999999", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseStake(tt.token)
		assert.Equal(t, tt.ok, ok, "token %q", tt.token)
		if tt.ok {
			assert.Equal(t, tt.want, got, "token %q", tt.token)
		}
	}
}

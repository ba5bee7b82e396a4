// Package model defines the data models for the casino bot.
package model

import "time"

// User represents a Telegram user account and their ledger balance.
// The balance column is the source of truth for every game.
type User struct {
	TelegramID int64     `db:"telegram_id"`
	Username   string    `db:"username"`
	FullName   string    `db:"full_name"`
	Balance    int64     `db:"balance"`
	Banned     bool      `db:"banned"`
	LastBonus  time.Time `db:"last_bonus"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// Transfer represents a completed user-to-user transfer.
type Transfer struct {
	ID        int64     `db:"id"`
	FromID    int64     `db:"from_id"`
	FromName  string    `db:"from_name"`
	ToID      int64     `db:"to_id"`
	ToName    string    `db:"to_name"`
	Amount    int64     `db:"amount"`
	CreatedAt time.Time `db:"created_at"`
}

// SpinRecord is one entry in a chat's recent roulette outcome log.
type SpinRecord struct {
	ChatID    int64     `db:"chat_id"`
	Number    int       `db:"number"`
	Color     string    `db:"color"`
	CreatedAt time.Time `db:"created_at"`
}

// StoredWager is the JSON shape a user's last roulette bets are persisted in.
// It feeds the repeat/double replay buttons.
type StoredWager struct {
	Kind  string `json:"kind"`
	Stake int64  `json:"stake"`
	Value int    `json:"value,omitempty"`
	Low   int    `json:"low,omitempty"`
	High  int    `json:"high,omitempty"`
	Label string `json:"label"`
}

// DailyRank represents a user's accumulated winnings for the daily board.
type DailyRank struct {
	UserID   int64  `db:"user_id"`
	Username string `db:"username"`
	Winnings int64  `db:"winnings"`
}

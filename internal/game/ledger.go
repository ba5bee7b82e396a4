// Package game defines the contracts the games consume: the balance ledger
// and the shared error values of the wagering core.
package game

import (
	"context"
	"errors"
)

// ErrInsufficientFunds is returned by Ledger.Debit when the balance does not
// cover the requested amount. No partial debit ever happens.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Ledger is the balance-of-record service. Debit and Credit are atomic; a
// failed debit leaves the balance untouched, and games must not mutate any
// round state before the debit succeeds. A Credit failure is unrecoverable
// for that payout and must be surfaced by the caller, never dropped.
type Ledger interface {
	Balance(ctx context.Context, userID int64) (int64, error)
	Debit(ctx context.Context, userID, amount int64) error
	Credit(ctx context.Context, userID, amount int64) error
}

// Package market defines the price oracle contract and its implementations.
package market

import (
	"context"
	"errors"
	"time"

	"github.com/rustyeddy/brokerd/money"
)

var (
	// ErrSymbolNotFound means the oracle answered and the symbol is unknown.
	ErrSymbolNotFound = errors.New("market: symbol not found")

	// ErrQuoteUnavailable means the oracle could not answer (network failure,
	// timeout, malformed response). The symbol may still exist.
	ErrQuoteUnavailable = errors.New("market: quote unavailable")
)

// Quote is a point-in-time price for a symbol.
type Quote struct {
	Symbol string
	Name   string
	Price  money.Money
	Time   time.Time
}

// Oracle resolves a symbol to its current quote. Lookup may block on network
// I/O; callers must resolve quotes before taking any account-level lock or
// opening a ledger transaction.
type Oracle interface {
	Lookup(ctx context.Context, symbol string) (Quote, error)
}

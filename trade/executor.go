// Package trade validates and commits buys and sells. Input validation never
// touches storage, the quote is resolved before the atomic region, and the
// ledger transaction carries the final funds/shares check.
package trade

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/brokerd/ledger"
	"github.com/rustyeddy/brokerd/market"
	"github.com/rustyeddy/brokerd/money"
)

// ErrInvalidInput covers malformed requests: empty symbol, zero or negative
// share count. These are rejected before any storage or oracle access.
var ErrInvalidInput = errors.New("trade: invalid input")

// Receipt confirms a committed trade at the price it executed at.
type Receipt struct {
	Symbol  string      `json:"symbol"`
	Company string      `json:"company"`
	Shares  int64       `json:"shares"`
	Price   money.Money `json:"price_per_share"`
	Total   money.Money `json:"total"`
}

type Executor struct {
	store  ledger.Store
	oracle market.Oracle
	log    zerolog.Logger
}

func NewExecutor(store ledger.Store, oracle market.Oracle, log zerolog.Logger) *Executor {
	return &Executor{
		store:  store,
		oracle: oracle,
		log:    log.With().Str("component", "executor").Logger(),
	}
}

func validate(symbol string, shares int64) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return "", fmt.Errorf("%w: empty symbol", ErrInvalidInput)
	}
	if shares <= 0 {
		return "", fmt.Errorf("%w: share count must be positive, got %d", ErrInvalidInput, shares)
	}
	return symbol, nil
}

// Buy purchases shares at the oracle's current price. The cash check and the
// ledger insert happen together inside one store transaction; on any error the
// account is untouched.
func (e *Executor) Buy(ctx context.Context, accountID int64, symbol string, shares int64) (Receipt, error) {
	symbol, err := validate(symbol, shares)
	if err != nil {
		return Receipt{}, err
	}

	// Quote resolution may block on the network; it must finish before the
	// ledger transaction starts.
	q, err := e.oracle.Lookup(ctx, symbol)
	if err != nil {
		return Receipt{}, err
	}

	err = e.store.CommitPurchase(ctx, ledger.Purchase{
		AccountID:     accountID,
		Symbol:        q.Symbol,
		Company:       q.Name,
		Shares:        shares,
		PricePerShare: q.Price,
	})
	if err != nil {
		return Receipt{}, err
	}

	total := q.Price.MulInt64(shares)
	e.log.Info().
		Int64("account", accountID).
		Str("symbol", q.Symbol).
		Int64("shares", shares).
		Str("total", total.Display()).
		Msg("buy committed")

	return Receipt{
		Symbol:  q.Symbol,
		Company: q.Name,
		Shares:  shares,
		Price:   q.Price,
		Total:   total,
	}, nil
}

// Sell sells shares at the oracle's current price. The owned-shares check and
// the ledger insert happen together inside one store transaction.
func (e *Executor) Sell(ctx context.Context, accountID int64, symbol string, shares int64) (Receipt, error) {
	symbol, err := validate(symbol, shares)
	if err != nil {
		return Receipt{}, err
	}

	q, err := e.oracle.Lookup(ctx, symbol)
	if err != nil {
		return Receipt{}, err
	}

	err = e.store.CommitSale(ctx, ledger.Sale{
		AccountID:     accountID,
		Symbol:        q.Symbol,
		Company:       q.Name,
		Shares:        shares,
		PricePerShare: q.Price,
	})
	if err != nil {
		return Receipt{}, err
	}

	total := q.Price.MulInt64(shares)
	e.log.Info().
		Int64("account", accountID).
		Str("symbol", q.Symbol).
		Int64("shares", shares).
		Str("total", total.Display()).
		Msg("sell committed")

	return Receipt{
		Symbol:  q.Symbol,
		Company: q.Name,
		Shares:  shares,
		Price:   q.Price,
		Total:   total,
	}, nil
}

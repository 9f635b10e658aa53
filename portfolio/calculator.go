// Package portfolio derives current holdings and valuation from the ledger
// plus live prices. Everything here is read-only; it is safe to call
// concurrently with trades.
package portfolio

import (
	"context"
	"fmt"

	"github.com/rustyeddy/brokerd/ledger"
	"github.com/rustyeddy/brokerd/market"
	"github.com/rustyeddy/brokerd/money"
)

// Holding is one row of the holdings view: net shares of a symbol valued at
// the live price.
type Holding struct {
	Symbol  string      `json:"symbol"`
	Company string      `json:"company"`
	Shares  int64       `json:"shares"`
	Price   money.Money `json:"price_per_share"`
	Value   money.Money `json:"symbol_total"`
}

// Summary is the holdings view plus the cash balance: the account's complete
// current state.
type Summary struct {
	Holdings    []Holding   `json:"holdings"`
	StocksTotal money.Money `json:"stocks_total"`
	Cash        money.Money `json:"cash"`
	Total       money.Money `json:"total"`
}

type Calculator struct {
	store  ledger.Store
	oracle market.Oracle
}

func NewCalculator(store ledger.Store, oracle market.Oracle) *Calculator {
	return &Calculator{store: store, oracle: oracle}
}

// Holdings values every symbol the account has ever purchased at its live
// price. Fully exited symbols stay in the list with zero shares. The first
// oracle failure aborts the whole computation; callers retry, not us.
func (c *Calculator) Holdings(ctx context.Context, accountID int64) ([]Holding, money.Money, error) {
	positions, err := c.store.Positions(ctx, accountID)
	if err != nil {
		return nil, money.Money{}, err
	}

	holdings := make([]Holding, 0, len(positions))
	total := money.Zero()
	for _, p := range positions {
		q, err := c.oracle.Lookup(ctx, p.Symbol)
		if err != nil {
			return nil, money.Money{}, fmt.Errorf("quote %s: %w", p.Symbol, err)
		}

		value := q.Price.MulInt64(p.Shares)
		holdings = append(holdings, Holding{
			Symbol:  p.Symbol,
			Company: p.Company,
			Shares:  p.Shares,
			Price:   q.Price,
			Value:   value,
		})
		total = total.Add(value)
	}

	return holdings, total, nil
}

// Summary combines the holdings view with the cash balance.
func (c *Calculator) Summary(ctx context.Context, accountID int64) (Summary, error) {
	cash, err := c.store.Cash(ctx, accountID)
	if err != nil {
		return Summary{}, err
	}

	holdings, stocksTotal, err := c.Holdings(ctx, accountID)
	if err != nil {
		return Summary{}, err
	}

	return Summary{
		Holdings:    holdings,
		StocksTotal: stocksTotal,
		Cash:        cash,
		Total:       stocksTotal.Add(cash),
	}, nil
}

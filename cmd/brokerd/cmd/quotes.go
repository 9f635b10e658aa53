package cmd

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/brokerd/market"
	"github.com/rustyeddy/brokerd/money"
)

// seedQuotes parses "AAA=50.00,BBB=20.00" into the store.
func seedQuotes(quotes *market.QuoteStore, raw string) error {
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		symbol, priceStr, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("bad quote %q, want SYMBOL=PRICE", pair)
		}
		price, err := money.FromString(strings.TrimSpace(priceStr))
		if err != nil {
			return fmt.Errorf("bad quote %q: %w", pair, err)
		}
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		quotes.Set(market.Quote{Symbol: symbol, Name: symbol, Price: price})
	}
	return nil
}

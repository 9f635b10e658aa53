package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/brokerd/config"
	"github.com/rustyeddy/brokerd/ledger"
	"github.com/rustyeddy/brokerd/market"
)

var rootCmd = &cobra.Command{
	Use:   "brokerd",
	Short: "A stock brokerage ledger with exact cash and position accounting",
	Long: `Brokerd tracks cash balances and stock holdings from an append-only
log of buy and sell transactions.

It provides tools for:
  - Running the brokerage HTTP API
  - Creating accounts and executing buys and sells
  - Viewing holdings valued at live market prices
  - Listing and exporting the full transaction history
  - Looking up quotes from the price oracle

Trades are committed atomically: a trade either records its ledger entry and
adjusts cash together, or does neither.`,
}

var cfgFile string

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON)")
}

func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		return config.Default(), nil
	}
	return config.LoadFromFile(cfgFile)
}

func openLedger(cfg *config.Config) (*ledger.SQLite, error) {
	store, err := ledger.NewSQLite(cfg.Ledger.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", cfg.Ledger.DBPath, err)
	}
	return store, nil
}

func newOracle(cfg *config.Config) (market.Oracle, error) {
	switch cfg.Oracle.Provider {
	case "yahoo":
		timeout, err := cfg.Oracle.ParseTimeout()
		if err != nil {
			return nil, err
		}
		var ttl time.Duration
		if ttl, err = cfg.Oracle.ParseCacheTTL(); err != nil {
			return nil, err
		}
		return market.NewYahooOracle(timeout, ttl), nil
	case "static":
		return staticOracle()
	default:
		return nil, fmt.Errorf("unknown oracle provider %q", cfg.Oracle.Provider)
	}
}

// staticOracle seeds an in-memory quote store from BROKERD_QUOTES, a
// comma-separated list of SYMBOL=PRICE pairs. Useful for demos and for
// running the whole stack offline.
func staticOracle() (market.Oracle, error) {
	quotes := market.NewQuoteStore()
	raw := os.Getenv("BROKERD_QUOTES")
	if raw == "" {
		return quotes, nil
	}
	if err := seedQuotes(quotes, raw); err != nil {
		return nil, err
	}
	return quotes, nil
}

package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/brokerd/pkg/logger"
	"github.com/rustyeddy/brokerd/trade"
)

var buyCmd = &cobra.Command{
	Use:   "buy <account-id> <symbol> <shares>",
	Short: "Buy shares at the current market price",
	Args:  cobra.ExactArgs(3),
	RunE:  runBuy,
}

var sellCmd = &cobra.Command{
	Use:   "sell <account-id> <symbol> <shares>",
	Short: "Sell shares at the current market price",
	Args:  cobra.ExactArgs(3),
	RunE:  runSell,
}

func init() {
	rootCmd.AddCommand(buyCmd)
	rootCmd.AddCommand(sellCmd)
}

func runBuy(cmd *cobra.Command, args []string) error {
	return runTrade(args, true)
}

func runSell(cmd *cobra.Command, args []string) error {
	return runTrade(args, false)
}

func runTrade(args []string, buy bool) error {
	accountID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("account id: %w", err)
	}
	shares, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil {
		return fmt.Errorf("shares: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	oracle, err := newOracle(cfg)
	if err != nil {
		return err
	}

	log := logger.New(logger.Config{Level: "warn", Pretty: true})
	exec := trade.NewExecutor(store, oracle, log)

	ctx := context.Background()
	var r trade.Receipt
	if buy {
		r, err = exec.Buy(ctx, accountID, args[1], shares)
	} else {
		r, err = exec.Sell(ctx, accountID, args[1], shares)
	}
	if err != nil {
		return err
	}

	verb := "bought"
	if !buy {
		verb = "sold"
	}
	fmt.Printf("%s %d %s (%s) at %s, total %s\n",
		verb, r.Shares, r.Symbol, r.Company, r.Price.Display(), r.Total.Display())
	return nil
}

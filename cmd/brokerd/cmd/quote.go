package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var quoteCmd = &cobra.Command{
	Use:   "quote <symbol>",
	Short: "Look up the current price for a symbol",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)
}

func runQuote(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	oracle, err := newOracle(cfg)
	if err != nil {
		return err
	}

	q, err := oracle.Lookup(context.Background(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%s (%s): %s\n", q.Name, q.Symbol, q.Price.Display())
	return nil
}

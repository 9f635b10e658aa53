package cmd

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/brokerd/portfolio"
)

var portfolioCmd = &cobra.Command{
	Use:   "portfolio <account-id>",
	Short: "Show holdings valued at current market prices",
	Args:  cobra.ExactArgs(1),
	RunE:  runPortfolio,
}

func init() {
	rootCmd.AddCommand(portfolioCmd)
}

func runPortfolio(cmd *cobra.Command, args []string) error {
	accountID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("account id: %w", err)
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

	calc := portfolio.NewCalculator(store, oracle)
	sum, err := calc.Summary(context.Background(), accountID)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tCOMPANY\tSHARES\tPRICE\tVALUE")
	for _, h := range sum.Holdings {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			h.Symbol, h.Company, h.Shares, h.Price.Display(), h.Value.Display())
	}
	fmt.Fprintf(w, "\t\t\tstocks\t%s\n", sum.StocksTotal.Display())
	fmt.Fprintf(w, "\t\t\tcash\t%s\n", sum.Cash.Display())
	fmt.Fprintf(w, "\t\t\ttotal\t%s\n", sum.Total.Display())
	return w.Flush()
}

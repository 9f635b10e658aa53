package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/brokerd/ledger"
)

var historyCmd = &cobra.Command{
	Use:   "history <account-id>",
	Short: "List all transactions, oldest first",
	Long: `List the account's complete trade history. Purchases show positive
share counts, sales negative. With --csv the history is written as CSV
instead of the table view.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

var historyCSVPath string

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringVar(&historyCSVPath, "csv", "", "write history to this CSV file")
}

func runHistory(cmd *cobra.Command, args []string) error {
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

	txs, err := store.Transactions(context.Background(), accountID)
	if err != nil {
		return err
	}

	if historyCSVPath != "" {
		f, err := os.Create(historyCSVPath)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := ledger.ExportCSV(f, txs); err != nil {
			return err
		}
		fmt.Printf("wrote %d transactions to %s\n", len(txs), historyCSVPath)
		return nil
	}

	for _, tx := range txs {
		fmt.Printf("%s  %-6s %+6d @ %s\n",
			tx.Time.UTC().Format(time.RFC3339), tx.Symbol, tx.Shares, tx.PricePerShare.Display())
	}
	return nil
}

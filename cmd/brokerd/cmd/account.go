package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/brokerd/money"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage brokerage accounts",
}

var accountCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new account seeded with opening cash",
	Args:  cobra.NoArgs,
	RunE:  runAccountCreate,
}

var accountCashFlag string

func init() {
	rootCmd.AddCommand(accountCmd)
	accountCmd.AddCommand(accountCreateCmd)

	accountCreateCmd.Flags().StringVar(&accountCashFlag, "cash", "", "opening cash (defaults to account.initial_cash from config)")
}

func runAccountCreate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cash := cfg.InitialCash()
	if accountCashFlag != "" {
		if cash, err = money.FromString(accountCashFlag); err != nil {
			return err
		}
	}

	store, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	accountID, err := store.CreateAccount(context.Background(), cash)
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}

	fmt.Printf("account %d created with %s cash\n", accountID, cash.Display())
	return nil
}

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/brokerd/pkg/logger"
	"github.com/rustyeddy/brokerd/portfolio"
	"github.com/rustyeddy/brokerd/server"
	"github.com/rustyeddy/brokerd/trade"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the brokerage HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// .env is optional; it can carry BROKERD_QUOTES for the static oracle.
	_ = godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	log.Info().Str("db", cfg.Ledger.DBPath).Str("oracle", cfg.Oracle.Provider).Msg("starting brokerd")

	store, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	oracle, err := newOracle(cfg)
	if err != nil {
		return err
	}

	handlers := server.NewHandlers(
		store,
		portfolio.NewCalculator(store, oracle),
		trade.NewExecutor(store, oracle, log),
		oracle,
		cfg.InitialCash(),
		log,
	)
	srv := server.New(cfg.Server.Listen, handlers, log)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutdown requested")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

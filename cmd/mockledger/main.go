// Command mockledger serves an in-memory ledger API for local development.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/punchamoorthee/ledgerconsole/internal/config"
	"github.com/punchamoorthee/ledgerconsole/internal/mockledger"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		port    string
		opening string
		seed    int
	)
	cmd := &cobra.Command{
		Use:           "mockledger",
		Short:         "Run an in-memory ledger backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}
			if opening != "" {
				cfg.OpeningBalance = opening
			}
			amount, err := cfg.Opening()
			if err != nil {
				return err
			}
			logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()}))
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, amount, seed, logger)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "Listen port (overrides LEDGER_SERVER_PORT)")
	cmd.Flags().StringVar(&opening, "opening-balance", "", "Balance credited to each new account")
	cmd.Flags().IntVar(&seed, "seed", 0, "Number of demo accounts to create at startup")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, opening decimal.Decimal, seed int, logger *slog.Logger) error {
	store := mockledger.NewStore(opening)
	if seed > 0 {
		if err := mockledger.Seed(ctx, store, seed); err != nil {
			return err
		}
		logger.Info("Seeded accounts", "count", seed, "opening_balance", opening.StringFixed(2))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mockledger.NewHandler(store, logger).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Info("Server shutting down")
	return srv.Shutdown(shutdownCtx)
}

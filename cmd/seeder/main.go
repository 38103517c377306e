// Command seeder opens demo accounts on a ledger backend through its API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/punchamoorthee/ledgerconsole/internal/config"
	"github.com/punchamoorthee/ledgerconsole/internal/domain"
	"github.com/punchamoorthee/ledgerconsole/internal/ledger"
)

const (
	TotalAccounts = 1000
	documentBase  = 50000000000
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		apiURL  string
		total   int
		workers int
	)
	cmd := &cobra.Command{
		Use:           "seeder",
		Short:         "Create demo accounts until the backend holds --count of them",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if apiURL != "" {
				cfg.APIURL = apiURL
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
			client, err := ledger.New(cfg.APIURL, ledger.WithReadRetries(cfg.ReadRetries), ledger.WithLogger(logger))
			if err != nil {
				return err
			}
			created, err := seed(cmd.Context(), client, total, workers, logger)
			fmt.Fprintf(cmd.OutOrStdout(), "created %d accounts\n", created)
			return err
		},
	}
	cmd.Flags().StringVar(&apiURL, "api-url", "", "Ledger API root (overrides LEDGER_API_URL)")
	cmd.Flags().IntVar(&total, "count", TotalAccounts, "Accounts the backend should hold")
	cmd.Flags().IntVar(&workers, "workers", 8, "Concurrent create requests")
	return cmd
}

// seed tops the backend up to total accounts. Documents that already exist
// are skipped, so running it twice is harmless.
func seed(ctx context.Context, c *ledger.Client, total, workers int, logger *slog.Logger) (int, error) {
	page, err := c.GetAccounts(ctx, 0, 1)
	if err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	existing := int(page.TotalElements)
	if existing >= total {
		logger.Info("Backend already has enough accounts, skipping", "accounts", existing)
		return 0, nil
	}

	logger.Info("Seeding accounts", "existing", existing, "target", total)
	var created, skipped atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i := existing; i < total; i++ {
		g.Go(func() error {
			req := domain.CreateAccountRequest{
				Document: fmt.Sprintf("%011d", documentBase+i),
				Name:     fmt.Sprintf("Seed Account %04d", i+1),
			}
			_, err := c.CreateAccount(ctx, req)
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, ledger.ErrConflict):
				skipped.Add(1)
			default:
				return fmt.Errorf("create %s: %w", req.Document, err)
			}
			return nil
		})
	}
	err = g.Wait()
	logger.Info("Seeding finished", "created", created.Load(), "skipped", skipped.Load())
	return int(created.Load()), err
}

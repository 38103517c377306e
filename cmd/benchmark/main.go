// Command benchmark drives concurrent transfers through the ledger client and
// reports outcomes by error kind.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/punchamoorthee/ledgerconsole/internal/config"
	"github.com/punchamoorthee/ledgerconsole/internal/domain"
	"github.com/punchamoorthee/ledgerconsole/internal/ledger"
)

// Settings holds the benchmark settings.
type Settings struct {
	Concurrency int
	Duration    time.Duration
	Workload    string
	// ReplayRate is the share of transfers submitted a second time with the
	// same intent.
	ReplayRate float64
	Amount     decimal.Decimal
}

// Counters are updated by every worker.
type Counters struct {
	total        atomic.Uint64
	created      atomic.Uint64
	replayed     atomic.Uint64
	insufficient atomic.Uint64
	conflict     atomic.Uint64
	validation   atomic.Uint64
	notFound     atomic.Uint64
	failOther    atomic.Uint64
}

func (c *Counters) record(err error) {
	c.total.Add(1)
	if err == nil {
		c.created.Add(1)
		return
	}
	switch ledger.KindOf(err) {
	case ledger.KindInsufficientFunds:
		c.insufficient.Add(1)
	case ledger.KindConflict:
		c.conflict.Add(1)
	case ledger.KindValidation:
		c.validation.Add(1)
	case ledger.KindNotFound:
		c.notFound.Add(1)
	default:
		c.failOther.Add(1)
	}
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		apiURL, amount, output string
		s                      Settings
	)
	cmd := &cobra.Command{
		Use:           "benchmark",
		Short:         "Load-test transfers against a ledger backend",
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
			if s.Amount, err = decimal.NewFromString(amount); err != nil {
				return fmt.Errorf("amount: %w", err)
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
			client, err := ledger.New(cfg.APIURL, ledger.WithLogger(logger))
			if err != nil {
				return err
			}
			results, err := Run(cmd.Context(), client, s)
			if err != nil {
				return err
			}
			return writeResults(cmd, results, output)
		},
	}
	cmd.Flags().StringVar(&apiURL, "api-url", "", "Ledger API root (overrides LEDGER_API_URL)")
	cmd.Flags().IntVar(&s.Concurrency, "workers", 10, "Number of concurrent workers")
	cmd.Flags().DurationVar(&s.Duration, "duration", 30*time.Second, "Test duration")
	cmd.Flags().StringVar(&s.Workload, "workload", "uniform", "Workload type: uniform | hotspot")
	cmd.Flags().Float64Var(&s.ReplayRate, "replay-rate", 0.1, "Share of transfers resubmitted with the same key")
	cmd.Flags().StringVar(&amount, "amount", "1.00", "Amount per transfer")
	cmd.Flags().StringVar(&output, "output", "", "Also write results to this file (default results_<workload>.json)")
	return cmd
}

// Results is printed as JSON for the plotting scripts.
type Results struct {
	Workload       string  `json:"workload"`
	DurationSec    float64 `json:"duration_sec"`
	TotalRequests  uint64  `json:"total_requests"`
	ThroughputTPS  float64 `json:"throughput_tps"`
	SuccessCreated uint64  `json:"success_created"`
	SuccessReplay  uint64  `json:"success_replay"`
	Insufficient   uint64  `json:"rejected_insufficient_funds"`
	AbortsConflict uint64  `json:"aborts_conflict"`
	AbortRatePct   float64 `json:"abort_rate_pct"`
	Validation     uint64  `json:"rejected_validation"`
	NotFound       uint64  `json:"not_found"`
	Errors         uint64  `json:"errors"`
}

// Run loads the account ids and hammers the backend until s.Duration passes
// or ctx ends.
func Run(ctx context.Context, c *ledger.Client, s Settings) (Results, error) {
	ids, err := accountIDs(ctx, c)
	if err != nil {
		return Results{}, err
	}
	if len(ids) < 2 {
		return Results{}, fmt.Errorf("need at least 2 accounts, found %d", len(ids))
	}
	slog.Info("Starting benchmark", "workload", s.Workload, "workers", s.Concurrency, "duration", s.Duration, "accounts", len(ids))

	ctx, cancel := context.WithTimeout(ctx, s.Duration)
	defer cancel()

	var (
		counters Counters
		wg       sync.WaitGroup
	)
	start := time.Now()
	for range max(s.Concurrency, 1) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker(ctx, c, s, ids, &counters)
		}()
	}
	wg.Wait()
	return summarize(s.Workload, time.Since(start), &counters), nil
}

func worker(ctx context.Context, c *ledger.Client, s Settings, ids []string, counters *Counters) {
	for ctx.Err() == nil {
		from, to := pickAccounts(s.Workload, ids)
		intent := domain.TransferIntent{
			SourceAccountID: from,
			TargetAccountID: to,
			Amount:          s.Amount,
			IdempotencyKey:  uuid.NewString(),
		}
		first, err := c.SubmitTransfer(ctx, intent)
		if ctx.Err() != nil {
			return
		}
		counters.record(err)
		if err != nil || rand.Float64() >= s.ReplayRate {
			continue
		}

		again, err := c.SubmitTransfer(ctx, intent)
		if ctx.Err() != nil {
			return
		}
		counters.total.Add(1)
		if err == nil && again.TransactionID == first.TransactionID {
			counters.replayed.Add(1)
		} else {
			counters.failOther.Add(1)
		}
	}
}

func accountIDs(ctx context.Context, c *ledger.Client) ([]string, error) {
	var ids []string
	for page := 0; ; page++ {
		res, err := c.GetAccounts(ctx, page, 500)
		if err != nil {
			return nil, fmt.Errorf("list accounts: %w", err)
		}
		for _, acc := range res.Content {
			ids = append(ids, acc.ID)
		}
		if res.Last || len(res.Content) == 0 {
			return ids, nil
		}
	}
}

// pickAccounts returns two distinct accounts. The hotspot workload sends 90%
// of traffic between the first two.
func pickAccounts(workload string, ids []string) (string, string) {
	if workload == "hotspot" && rand.Float32() < 0.90 {
		if rand.Float32() < 0.5 {
			return ids[0], ids[1]
		}
		return ids[1], ids[0]
	}
	a := rand.IntN(len(ids))
	b := rand.IntN(len(ids))
	for a == b {
		b = rand.IntN(len(ids))
	}
	return ids[a], ids[b]
}

func summarize(workload string, d time.Duration, c *Counters) Results {
	total := c.total.Load()
	r := Results{
		Workload:       workload,
		DurationSec:    d.Seconds(),
		TotalRequests:  total,
		SuccessCreated: c.created.Load(),
		SuccessReplay:  c.replayed.Load(),
		Insufficient:   c.insufficient.Load(),
		AbortsConflict: c.conflict.Load(),
		Validation:     c.validation.Load(),
		NotFound:       c.notFound.Load(),
		Errors:         c.failOther.Load(),
	}
	if d > 0 {
		r.ThroughputTPS = float64(total) / d.Seconds()
	}
	if total > 0 {
		r.AbortRatePct = float64(r.AbortsConflict) / float64(total) * 100
	}
	return r
}

func writeResults(cmd *cobra.Command, r Results, path string) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return err
	}
	if path == "" {
		path = fmt.Sprintf("results_%s.json", r.Workload)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(r)
}

// Command ledgerconsole is the terminal admin console and wallet simulator
// for the ledger service.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/punchamoorthee/ledgerconsole/internal/cache"
	"github.com/punchamoorthee/ledgerconsole/internal/config"
	"github.com/punchamoorthee/ledgerconsole/internal/ledger"
	"github.com/punchamoorthee/ledgerconsole/internal/query"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "ledgerconsole"

	cacheSize = 512
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app is the wiring shared by every subcommand.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	client *ledger.Client
	svc    *query.Service

	logFile *os.File
}

func rootCmd() *cobra.Command {
	var (
		apiURL   string
		logLevel string
	)
	a := &app{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Console for a double-entry ledger service",
		Long: `ledgerconsole talks to a ledger service over HTTP.

It provides:
- a terminal UI with wallet, history, dashboard, accounts and ledger views
- account and transfer commands for scripting
- a balance integrity check across every account`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.setup(cmd, apiURL, logLevel)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	cmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Ledger API root (overrides LEDGER_API_URL)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		tuiCmd(a),
		accountsCmd(a),
		transferCmd(a),
		statementCmd(a),
		watchCmd(a),
		healthCmd(a),
		integrityCmd(a),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
			},
		},
	)
	return cmd
}

func (a *app) setup(cmd *cobra.Command, apiURL, logLevel string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg

	// The TUI owns the terminal, so its logs go to a file or nowhere.
	var out io.Writer = os.Stderr
	if cmd.Name() == "tui" {
		out = io.Discard
		if cfg.LogFile != "" {
			f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			a.logFile = f
			out = f
		}
	}
	a.logger = slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(a.logger)

	a.client, err = ledger.New(cfg.APIURL,
		ledger.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
		ledger.WithReadRetries(cfg.ReadRetries),
		ledger.WithLogger(a.logger),
	)
	if err != nil {
		return err
	}
	store, err := cache.New(cacheSize)
	if err != nil {
		return fmt.Errorf("create query cache: %w", err)
	}
	a.svc = query.NewService(a.client, store, a.logger)
	a.logger.Debug("Console ready", "version", Version, "api_url", cfg.APIURL)
	return nil
}

func (a *app) close() error {
	if a.logFile != nil {
		return a.logFile.Close()
	}
	return nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

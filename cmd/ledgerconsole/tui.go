package main

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/punchamoorthee/ledgerconsole/internal/idempotency"
	"github.com/punchamoorthee/ledgerconsole/internal/integrity"
	"github.com/punchamoorthee/ledgerconsole/internal/tui"
	"github.com/punchamoorthee/ledgerconsole/internal/wallet"
)

func tuiCmd(a *app) *cobra.Command {
	var account string
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			session := wallet.NewSession(a.svc, idempotency.UUIDIssuer{}, account, wallet.Options{
				Interval:  a.cfg.PollInterval,
				StaleTime: a.cfg.StaleTime,
				Logger:    a.logger,
			})
			defer session.Close()

			checker := integrity.NewChecker(a.svc, integrity.WithLogger(a.logger))
			m := tui.New(ctx, a.svc, session, checker, tui.Options{
				PollInterval: a.cfg.PollInterval,
				StaleTime:    a.cfg.StaleTime,
				Logger:       a.logger,
			})
			_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return fmt.Errorf("run tui: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&account, "account", "", "Wallet account id (defaults to the first account)")
	return cmd
}

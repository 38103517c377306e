package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/punchamoorthee/ledgerconsole/internal/balance"
)

func watchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch ACCOUNT_ID",
		Short: "Poll an account balance and print every change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			out := cmd.OutOrStdout()
			var last string
			rm := balance.New(a.svc, args[0], balance.Options{
				Interval:  a.cfg.PollInterval,
				StaleTime: a.cfg.StaleTime,
				Logger:    a.logger,
				OnChange: func(s balance.Snapshot) {
					line := watchLine(s)
					if line == last {
						return
					}
					last = line
					fmt.Fprintf(out, "%s  %s\n", time.Now().Format("15:04:05"), line)
				},
			})
			rm.Start(ctx)
			<-ctx.Done()
			rm.Stop()
			return nil
		},
	}
}

func watchLine(s balance.Snapshot) string {
	if !s.Loaded {
		if s.Err != nil {
			return "OFFLINE " + s.Err.Error()
		}
		return "loading"
	}
	arrow := " "
	switch s.Direction {
	case balance.Up:
		arrow = "▲"
	case balance.Down:
		arrow = "▼"
	}
	line := fmt.Sprintf("%s %s", arrow, money(s.Balance))
	if s.Offline() {
		line += "  OFFLINE " + s.Err.Error()
	}
	return line
}

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/punchamoorthee/ledgerconsole/internal/admin"
	"github.com/punchamoorthee/ledgerconsole/internal/integrity"
)

var errUnbalanced = errors.New("ledger is not balanced")

func healthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Print the backend health status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), admin.HealthBadge(cmd.Context(), a.svc))
			return nil
		},
	}
}

func integrityCmd(a *app) *cobra.Command {
	var concurrency int
	cmd := &cobra.Command{
		Use:   "integrity",
		Short: "Check that every account balance matches its entries and the ledger sums to zero",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			checker := integrity.NewChecker(a.svc,
				integrity.WithConcurrency(concurrency),
				integrity.WithLogger(a.logger))
			r, err := checker.Check(cmd.Context())
			if err != nil {
				return fmt.Errorf("integrity check: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "accounts       %d\n", r.Accounts)
			fmt.Fprintf(out, "entries        %d\n", r.Entries)
			fmt.Fprintf(out, "total balance  %s\n", money(r.TotalBalance))
			fmt.Fprintf(out, "credits        %s\n", money(r.Credits))
			fmt.Fprintf(out, "debits         %s\n", money(r.Debits))
			fmt.Fprintf(out, "delta          %s\n", signedMoney(r.Delta))
			if len(r.Mismatches) > 0 {
				rows := make([][]string, 0, len(r.Mismatches))
				for _, mm := range r.Mismatches {
					rows = append(rows, []string{mm.AccountID, mm.Name, money(mm.Balance), money(mm.EntriesSum)})
				}
				fmt.Fprintln(out, newTable("Account", "Name", "Balance", "Entries sum").Rows(rows...).Render())
			}
			if !r.Balanced {
				return errUnbalanced
			}
			fmt.Fprintln(out, "balanced")
			return nil
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", integrity.DefaultConcurrency, "Statements fetched in parallel")
	return cmd
}

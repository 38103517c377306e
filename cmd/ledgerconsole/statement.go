package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/punchamoorthee/ledgerconsole/internal/admin"
	"github.com/punchamoorthee/ledgerconsole/internal/domain"
	"github.com/punchamoorthee/ledgerconsole/internal/ledger"
)

func statementCmd(a *app) *cobra.Command {
	var (
		page, size int
		all        bool
	)
	cmd := &cobra.Command{
		Use:   "statement ACCOUNT_ID",
		Short: "Print an account's ledger entries, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var (
				name    string
				balance = "-"
				entries []domain.LedgerEntry
			)
			if all {
				s := admin.NewStream(a.svc, args[0], size, 0)
				for s.Pages() == 0 || s.HasMore() {
					if err := s.Next(ctx); err != nil {
						return fmt.Errorf("statement: %w", err)
					}
				}
				name, balance, entries = s.AccountName(), money(s.Balance()), s.Entries()
			} else {
				st, _, err := a.svc.Statement(ctx, args[0], page, size, 0)
				if err != nil {
					return fmt.Errorf("statement: %w", err)
				}
				name, balance, entries = st.AccountName, money(st.CurrentBalance), st.Entries
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					e.TransactionID,
					e.EntryType,
					signedMoney(e.Signed()),
					money(e.BalanceAfter),
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s  balance %s\n", name, balance)
			if len(rows) == 0 {
				fmt.Fprintln(out, "No transactions yet")
				return nil
			}
			fmt.Fprintln(out, newTable("Time", "Transaction", "Type", "Amount", "Balance after").Rows(rows...).Render())
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "Page number, starting at 0")
	cmd.Flags().IntVar(&size, "size", ledger.DefaultLedgerPageSize, "Page size")
	cmd.Flags().BoolVar(&all, "all", false, "Fetch every page")
	return cmd
}

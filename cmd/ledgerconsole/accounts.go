package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/punchamoorthee/ledgerconsole/internal/admin"
	"github.com/punchamoorthee/ledgerconsole/internal/domain"
	"github.com/punchamoorthee/ledgerconsole/internal/ledger"
)

func accountsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List and create accounts",
	}
	cmd.AddCommand(accountsListCmd(a), accountsCreateCmd(a))
	return cmd
}

func accountsListCmd(a *app) *cobra.Command {
	var page, size int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List one page of accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, _, err := a.svc.Accounts(cmd.Context(), page, size, 0)
			if err != nil {
				return fmt.Errorf("list accounts: %w", err)
			}
			rows := make([][]string, 0, len(res.Content))
			for _, acc := range res.Content {
				rows = append(rows, []string{acc.ID, acc.Document, acc.Name,
					money(acc.Balance), acc.CreatedAt.Local().Format("2006-01-02 15:04")})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, newTable("ID", "Document", "Name", "Balance", "Created").Rows(rows...).Render())
			fmt.Fprintf(out, "page %d of %d, %d accounts\n", res.Number+1, max(res.TotalPages, 1), res.TotalElements)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "Page number, starting at 0")
	cmd.Flags().IntVar(&size, "size", ledger.DefaultPageSize, "Page size")
	return cmd
}

func accountsCreateCmd(a *app) *cobra.Command {
	var req domain.CreateAccountRequest
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a new account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			acc, err := admin.CreateAccount(cmd.Context(), a.svc, req)
			if err != nil {
				if le, ok := ledger.AsError(err); ok {
					for _, fe := range le.Problem.Errors {
						fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", fe.Field, fe.Message)
					}
				}
				return fmt.Errorf("create account: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created account %s for %s (balance %s)\n", acc.ID, acc.Name, money(acc.Balance))
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Document, "document", "", "Tax document number")
	cmd.Flags().StringVar(&req.Name, "name", "", "Holder name")
	return cmd
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#6c7086"))).
		Headers(headers...)
}

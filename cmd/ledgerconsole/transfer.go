package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/punchamoorthee/ledgerconsole/internal/domain"
	"github.com/punchamoorthee/ledgerconsole/internal/idempotency"
	"github.com/punchamoorthee/ledgerconsole/internal/transfer"
)

func transferCmd(a *app) *cobra.Command {
	var from, to, amount, key string
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Move money between two accounts",
		Long: `Validates the transfer against the source balance and submits it once.

Every invocation mints a fresh idempotency key unless --key is given. To retry
a transfer whose outcome is unknown, pass the key printed by the failed run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			src, _, err := a.svc.Account(ctx, from, 0)
			if err != nil {
				return fmt.Errorf("load source account: %w", err)
			}
			form := transfer.Form{
				SourceAccountID: from,
				TargetAccountID: to,
				Amount:          amount,
				Balance:         src.Balance,
			}
			if amount == "" {
				return errors.New("amount is required")
			}
			if v := transfer.Validate(form); len(v) > 0 {
				return errors.New(strings.Join(v, "; "))
			}
			value, _ := transfer.ParseAmount(amount)

			if key == "" {
				if key, err = (idempotency.UUIDIssuer{}).NewKey(); err != nil {
					return err
				}
			} else if !idempotency.Valid(key) {
				return fmt.Errorf("idempotency key %q is not a UUIDv4", key)
			}

			intent := domain.TransferIntent{SourceAccountID: from, TargetAccountID: to, Amount: value, IdempotencyKey: key}
			resp, err := a.svc.Transfer(ctx, intent)
			if err != nil {
				return fmt.Errorf("transfer failed (key %s): %w", key, err)
			}
			printTransfer(cmd, resp)
			fmt.Fprintf(cmd.OutOrStdout(), "idempotency key %s\n", key)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Source account id")
	cmd.Flags().StringVar(&to, "to", "", "Target account id")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount, e.g. 12.50")
	cmd.Flags().StringVar(&key, "key", "", "Reuse an idempotency key")
	_ = cmd.MarkFlagRequired("from")

	cmd.AddCommand(&cobra.Command{
		Use:   "show TRANSACTION_ID",
		Short: "Show an executed transfer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.client.GetTransfer(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("get transfer: %w", err)
			}
			printTransfer(cmd, resp)
			return nil
		},
	})
	return cmd
}

func printTransfer(cmd *cobra.Command, t *domain.TransferResponse) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s from %s to %s at %s\n",
		t.TransactionID, t.Status, money(t.Amount), t.SourceAccountID, t.TargetAccountID,
		t.CreatedAt.Local().Format("2006-01-02 15:04:05"))
}

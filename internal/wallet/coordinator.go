// Package wallet implements the optimistic send flow for a single user
// session: pending deductions, the displayed balance, and the form around it.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/punchamoorthee/ledgerconsole/internal/domain"
)

var ErrTransferPending = errors.New("a transfer from this account is already pending")

// State of an account in the optimistic send flow.
type State int

const (
	Idle State = iota
	PendingSend
)

func (s State) String() string {
	if s == PendingSend {
		return "PendingSend"
	}
	return "Idle"
}

// Sender executes a transfer. *query.Service implements it.
type Sender interface {
	Transfer(ctx context.Context, intent domain.TransferIntent) (*domain.TransferResponse, error)
}

// Displayed is the balance shown to the user: the authoritative balance less
// the pending deduction, never below zero.
func Displayed(authoritative, pending decimal.Decimal) decimal.Decimal {
	d := authoritative.Sub(pending)
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

type pendingSend struct {
	amount decimal.Decimal
	key    string
}

// Coordinator tracks at most one pending send per source account.
type Coordinator struct {
	sender Sender
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]pendingSend
}

func NewCoordinator(sender Sender, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{sender: sender, logger: logger, pending: make(map[string]pendingSend)}
}

// State reports where accountID is in the flow.
func (c *Coordinator) State(accountID string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.pending[accountID]; ok {
		return PendingSend
	}
	return Idle
}

// Pending returns the deduction in flight for accountID, zero when idle.
func (c *Coordinator) Pending(accountID string) decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending[accountID].amount
}

// DisplayedBalance applies accountID's pending deduction to authoritative.
func (c *Coordinator) DisplayedBalance(accountID string, authoritative decimal.Decimal) decimal.Decimal {
	return Displayed(authoritative, c.Pending(accountID))
}

// Begin moves the intent's source account to PendingSend.
func (c *Coordinator) Begin(intent domain.TransferIntent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.pending[intent.SourceAccountID]; ok {
		return ErrTransferPending
	}
	c.pending[intent.SourceAccountID] = pendingSend{amount: intent.Amount, key: intent.IdempotencyKey}
	c.logger.Debug("Optimistic deduction applied",
		"account_id", intent.SourceAccountID, "amount", intent.Amount.StringFixed(2), "key", intent.IdempotencyKey)
	return nil
}

// Settle returns the source account to Idle. A nil err commits, anything
// else rolls back; either way the pending deduction is cleared. Settling an
// intent that is no longer pending is a no-op.
func (c *Coordinator) Settle(intent domain.TransferIntent, err error) {
	c.mu.Lock()
	p, ok := c.pending[intent.SourceAccountID]
	if ok && p.key == intent.IdempotencyKey {
		delete(c.pending, intent.SourceAccountID)
	}
	c.mu.Unlock()
	if !ok || p.key != intent.IdempotencyKey {
		return
	}

	if err != nil {
		optimisticTransfers.WithLabelValues(outcomeRolledBack).Inc()
		c.logger.Info("Optimistic deduction rolled back",
			"account_id", intent.SourceAccountID, "key", intent.IdempotencyKey, "error", err)
		return
	}
	optimisticTransfers.WithLabelValues(outcomeCommitted).Inc()
	c.logger.Debug("Optimistic deduction committed", "account_id", intent.SourceAccountID, "key", intent.IdempotencyKey)
}

// Submit runs the whole flow: Begin, send, Settle.
func (c *Coordinator) Submit(ctx context.Context, intent domain.TransferIntent) (*domain.TransferResponse, error) {
	if err := c.Begin(intent); err != nil {
		return nil, err
	}
	resp, err := c.sender.Transfer(ctx, intent)
	c.Settle(intent, err)
	if err != nil {
		return nil, fmt.Errorf("transfer %s: %w", intent.IdempotencyKey, err)
	}
	return resp, nil
}

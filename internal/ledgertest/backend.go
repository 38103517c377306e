// Package ledgertest provides an in-process fake of the ledger client for tests.
package ledgertest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/punchamoorthee/ledgerconsole/internal/domain"
	"github.com/punchamoorthee/ledgerconsole/internal/ledger"
)

// Backend is a scriptable fake. Zero value is not usable; call New.
type Backend struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
	order    []string
	calls    map[string]int
	intents  []domain.TransferIntent

	// ReadErr, when set, fails GetAccount and GetAccounts.
	ReadErr error
	// TransferErr, when set, fails SubmitTransfer without moving money.
	TransferErr error
	// TransferGate, when set, blocks SubmitTransfer until it is closed or
	// receives a value.
	TransferGate chan struct{}
	// HealthStatus is returned by Health; empty means UP.
	HealthStatus string
}

// New creates an empty fake.
func New() *Backend {
	return &Backend{accounts: make(map[string]*domain.Account), calls: make(map[string]int)}
}

// AddAccount seeds an account with the given balance.
func (b *Backend) AddAccount(id, name, balance string) *domain.Account {
	b.mu.Lock()
	defer b.mu.Unlock()
	acc := &domain.Account{
		ID: id, Name: name, Document: "doc-" + id,
		Balance:   decimal.RequireFromString(balance),
		CreatedAt: time.Date(2025, 1, 1, 0, 0, len(b.order), 0, time.UTC),
	}
	b.accounts[id] = acc
	b.order = append(b.order, id)
	return acc
}

// SetBalance overwrites an account's authoritative balance.
func (b *Backend) SetBalance(id, balance string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accounts[id].Balance = decimal.RequireFromString(balance)
}

// SetReadErr swaps the read failure under the lock.
func (b *Backend) SetReadErr(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ReadErr = err
}

// SetTransferErr swaps the transfer failure under the lock.
func (b *Backend) SetTransferErr(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.TransferErr = err
}

// Calls reports how many times method was invoked.
func (b *Backend) Calls(method string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[method]
}

// Intents returns every transfer intent received.
func (b *Backend) Intents() []domain.TransferIntent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.TransferIntent(nil), b.intents...)
}

func notFound(id string) error {
	return &ledger.Error{Kind: ledger.KindNotFound, Problem: domain.Problem{
		Type: "/errors/account-not-found", Title: "Account Not Found", Status: 404,
		Detail: fmt.Sprintf("Account not found with ID: %s", id),
	}}
}

// InsufficientFunds builds the error the real backend returns.
func InsufficientFunds(detail string) error {
	return &ledger.Error{Kind: ledger.KindInsufficientFunds, Problem: domain.Problem{
		Type: "/errors/insufficient-funds", Title: "Insufficient Funds", Status: 422, Detail: detail,
	}}
}

func (b *Backend) GetAccounts(ctx context.Context, page, size int) (*domain.Page[domain.Account], error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["GetAccounts"]++
	if b.ReadErr != nil {
		return nil, b.ReadErr
	}
	if size <= 0 {
		size = ledger.DefaultPageSize
	}
	ids := append([]string(nil), b.order...)
	sort.SliceStable(ids, func(i, j int) bool {
		return b.accounts[ids[i]].CreatedAt.Before(b.accounts[ids[j]].CreatedAt)
	})
	out := &domain.Page[domain.Account]{Size: size, Number: page, TotalElements: int64(len(ids))}
	out.TotalPages = (len(ids) + size - 1) / size
	for i := page * size; i < len(ids) && i < (page+1)*size; i++ {
		out.Content = append(out.Content, *b.accounts[ids[i]])
	}
	out.First = page == 0
	out.Last = page >= out.TotalPages-1
	out.Empty = len(out.Content) == 0
	return out, nil
}

func (b *Backend) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["GetAccount"]++
	if b.ReadErr != nil {
		return nil, b.ReadErr
	}
	acc, ok := b.accounts[id]
	if !ok {
		return nil, notFound(id)
	}
	cp := *acc
	return &cp, nil
}

func (b *Backend) CreateAccount(ctx context.Context, req domain.CreateAccountRequest) (*domain.Account, error) {
	b.mu.Lock()
	b.calls["CreateAccount"]++
	for _, acc := range b.accounts {
		if acc.Document == req.Document {
			b.mu.Unlock()
			return nil, &ledger.Error{Kind: ledger.KindConflict, Problem: domain.Problem{
				Type: "/errors/duplicate-document", Title: "Duplicate Document", Status: 409,
				Detail: "Account with document already exists",
			}}
		}
	}
	id := fmt.Sprintf("acc-%d", len(b.order)+1)
	b.mu.Unlock()

	acc := b.AddAccount(id, req.Name, "0")
	b.mu.Lock()
	acc.Document = req.Document
	cp := *acc
	b.mu.Unlock()
	return &cp, nil
}

func (b *Backend) SubmitTransfer(ctx context.Context, intent domain.TransferIntent) (*domain.TransferResponse, error) {
	b.mu.Lock()
	b.calls["SubmitTransfer"]++
	b.intents = append(b.intents, intent)
	gate := b.TransferGate
	b.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.TransferErr != nil {
		return nil, b.TransferErr
	}
	src, ok := b.accounts[intent.SourceAccountID]
	if !ok {
		return nil, notFound(intent.SourceAccountID)
	}
	dst, ok := b.accounts[intent.TargetAccountID]
	if !ok {
		return nil, notFound(intent.TargetAccountID)
	}
	if src.Balance.LessThan(intent.Amount) {
		return nil, InsufficientFunds(fmt.Sprintf("Insufficient funds in account %s: available %s, requested %s",
			src.ID, src.Balance.StringFixed(2), intent.Amount.StringFixed(2)))
	}
	src.Balance = src.Balance.Sub(intent.Amount)
	dst.Balance = dst.Balance.Add(intent.Amount)
	return &domain.TransferResponse{
		TransactionID:   fmt.Sprintf("tx-%d", len(b.intents)),
		SourceAccountID: src.ID,
		TargetAccountID: dst.ID,
		Amount:          intent.Amount,
		Status:          domain.TransferCompleted,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

func (b *Backend) GetLedger(ctx context.Context, accountID string, page, size int) (*domain.AccountStatement, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["GetLedger"]++
	acc, ok := b.accounts[accountID]
	if !ok {
		return nil, notFound(accountID)
	}
	return &domain.AccountStatement{AccountID: acc.ID, AccountName: acc.Name, CurrentBalance: acc.Balance}, nil
}

func (b *Backend) Health(ctx context.Context) (*domain.HealthStatus, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["Health"]++
	status := b.HealthStatus
	if status == "" {
		status = domain.HealthUp
	}
	return &domain.HealthStatus{Status: status}, nil
}

// Package query layers the shared cache over the ledger client. Reads are
// keyed by query identity and successful mutations invalidate what they touch.
package query

import (
	"context"
	"log/slog"
	"time"

	"github.com/punchamoorthee/ledgerconsole/internal/cache"
	"github.com/punchamoorthee/ledgerconsole/internal/domain"
)

// Backend is the subset of the ledger client the console reads and writes
// through. *ledger.Client implements it.
type Backend interface {
	GetAccounts(ctx context.Context, page, size int) (*domain.Page[domain.Account], error)
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	CreateAccount(ctx context.Context, req domain.CreateAccountRequest) (*domain.Account, error)
	SubmitTransfer(ctx context.Context, intent domain.TransferIntent) (*domain.TransferResponse, error)
	GetLedger(ctx context.Context, accountID string, page, size int) (*domain.AccountStatement, error)
	Health(ctx context.Context) (*domain.HealthStatus, error)
}

// Service serves cached reads and invalidating writes.
type Service struct {
	backend Backend
	store   *cache.Store
	logger  *slog.Logger
}

// NewService wires backend to store.
func NewService(backend Backend, store *cache.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{backend: backend, store: store, logger: logger}
}

// Backend exposes the uncached client.
func (s *Service) Backend() Backend { return s.backend }

// Accounts returns a page of accounts, from cache when younger than maxAge.
func (s *Service) Accounts(ctx context.Context, page, size int, maxAge time.Duration) (*domain.Page[domain.Account], time.Time, error) {
	return cache.Fetch(ctx, s.store, cache.AccountListKey(page, size), maxAge,
		func(ctx context.Context) (*domain.Page[domain.Account], error) {
			return s.backend.GetAccounts(ctx, page, size)
		})
}

// Account returns one account, from cache when younger than maxAge.
func (s *Service) Account(ctx context.Context, id string, maxAge time.Duration) (*domain.Account, time.Time, error) {
	return cache.Fetch(ctx, s.store, cache.AccountKey(id), maxAge,
		func(ctx context.Context) (*domain.Account, error) {
			return s.backend.GetAccount(ctx, id)
		})
}

// Statement returns one page of an account statement.
func (s *Service) Statement(ctx context.Context, accountID string, page, size int, maxAge time.Duration) (*domain.AccountStatement, time.Time, error) {
	return cache.Fetch(ctx, s.store, cache.LedgerKey(accountID, page, size), maxAge,
		func(ctx context.Context) (*domain.AccountStatement, error) {
			return s.backend.GetLedger(ctx, accountID, page, size)
		})
}

// Health is never cached.
func (s *Service) Health(ctx context.Context) (*domain.HealthStatus, error) {
	return s.backend.Health(ctx)
}

// CreateAccount opens an account and drops every cached account list.
func (s *Service) CreateAccount(ctx context.Context, req domain.CreateAccountRequest) (*domain.Account, error) {
	acc, err := s.backend.CreateAccount(ctx, req)
	if err != nil {
		return nil, err
	}
	n := s.store.Invalidate(cache.AccountLists)
	s.logger.Debug("Invalidated account lists", "entries", n)
	return acc, nil
}

// Transfer submits intent and, on success, drops cached accounts and
// statements since balances moved.
func (s *Service) Transfer(ctx context.Context, intent domain.TransferIntent) (*domain.TransferResponse, error) {
	resp, err := s.backend.SubmitTransfer(ctx, intent)
	if err != nil {
		return nil, err
	}
	n := s.store.Invalidate(cache.Accounts) + s.store.Invalidate(cache.Ledger)
	s.logger.Debug("Invalidated balances after transfer", "entries", n, "transaction_id", resp.TransactionID)
	return resp, nil
}

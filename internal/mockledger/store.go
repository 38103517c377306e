package mockledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/punchamoorthee/ledgerconsole/internal/domain"
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrTransferNotFound    = errors.New("transfer not found")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrDuplicateDocument   = errors.New("duplicate document")
	ErrTransferToSelf      = errors.New("transfer to self")
	ErrIdempotencyConflict = errors.New("request in progress")
	ErrIdempotencyMismatch = errors.New("key reuse with mismatched payload")
)

// GenesisDocument identifies the account that funds opening balances.
const GenesisDocument = "GENESIS"

// InsufficientFundsError carries the figures behind ErrInsufficientFunds.
type InsufficientFundsError struct {
	AccountID string
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("Insufficient funds in account %s: available=%s, requested=%s",
		e.AccountID, e.Available.StringFixed(2), e.Requested.StringFixed(2))
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

type account struct {
	mu      sync.Mutex
	data    domain.Account
	entries []domain.LedgerEntry
	// overdraft lets the genesis account go negative.
	overdraft bool
}

const (
	keyInProgress = "in_progress"
	keyCompleted  = "completed"
)

type idempotencyRecord struct {
	hash   string
	status string
	resp   *domain.TransferResponse
}

// Store is an in-memory double-entry ledger. Balances only change through
// transfers, each writing one DEBIT and one CREDIT entry.
type Store struct {
	mu        sync.RWMutex
	accounts  map[string]*account
	order     []string
	documents map[string]string
	transfers map[string]*domain.TransferResponse

	keyMu sync.Mutex
	keys  map[string]*idempotencyRecord

	opening   decimal.Decimal
	genesisID string
	now       func() time.Time
}

// NewStore creates an empty ledger. A positive opening balance is credited to
// every new account from a genesis account.
func NewStore(opening decimal.Decimal) *Store {
	s := &Store{
		accounts:  make(map[string]*account),
		documents: make(map[string]string),
		transfers: make(map[string]*domain.TransferResponse),
		keys:      make(map[string]*idempotencyRecord),
		opening:   opening,
		now:       func() time.Time { return time.Now().UTC() },
	}
	if opening.IsPositive() {
		g := s.insert(GenesisDocument, "Genesis")
		g.overdraft = true
		s.genesisID = g.data.ID
	}
	return s
}

func (s *Store) insert(document, name string) *account {
	acc := &account{data: domain.Account{
		ID:        uuid.NewString(),
		Document:  document,
		Name:      name,
		Balance:   decimal.Zero,
		CreatedAt: s.now(),
	}}
	s.accounts[acc.data.ID] = acc
	s.order = append(s.order, acc.data.ID)
	s.documents[document] = acc.data.ID
	return acc
}

// GenesisID is the funding account, empty when opening balances are off.
func (s *Store) GenesisID() string { return s.genesisID }

// CreateAccount opens an account and funds it with the opening balance.
func (s *Store) CreateAccount(ctx context.Context, document, name string) (*domain.Account, error) {
	s.mu.Lock()
	if _, ok := s.documents[document]; ok {
		s.mu.Unlock()
		return nil, ErrDuplicateDocument
	}
	acc := s.insert(document, name)
	s.mu.Unlock()

	if s.genesisID != "" {
		req := domain.TransferRequest{SourceAccountID: s.genesisID, TargetAccountID: acc.data.ID, Amount: s.opening}
		if _, _, err := s.ExecTransfer(ctx, req, uuid.NewString(), ""); err != nil {
			return nil, fmt.Errorf("fund opening balance: %w", err)
		}
	}
	return s.GetAccount(ctx, acc.data.ID)
}

// GetAccount returns a copy of the account.
func (s *Store) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	s.mu.RLock()
	acc, ok := s.accounts[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrAccountNotFound
	}
	acc.mu.Lock()
	defer acc.mu.Unlock()
	cp := acc.data
	return &cp, nil
}

// ListAccounts pages accounts in creation order. The genesis account comes
// last so clients that default to the first account get a customer one.
func (s *Store) ListAccounts(ctx context.Context, page, size int) domain.Page[domain.Account] {
	s.mu.RLock()
	ids := make([]string, 0, len(s.order))
	for _, id := range s.order {
		if id != s.genesisID {
			ids = append(ids, id)
		}
	}
	if s.genesisID != "" {
		ids = append(ids, s.genesisID)
	}
	s.mu.RUnlock()

	out := domain.Page[domain.Account]{Content: []domain.Account{}, Size: size, Number: page}
	for i := page * size; i >= 0 && i < len(ids) && i < (page+1)*size; i++ {
		if acc, err := s.GetAccount(ctx, ids[i]); err == nil {
			out.Content = append(out.Content, *acc)
		}
	}
	fillPage(&out, len(ids))
	return out
}

func fillPage[T any](p *domain.Page[T], total int) {
	p.TotalElements = int64(total)
	if p.Size > 0 {
		p.TotalPages = (total + p.Size - 1) / p.Size
	}
	p.First = p.Number == 0
	p.Last = p.Number >= p.TotalPages-1
	p.Empty = len(p.Content) == 0
}

// Statement returns one page of the account's entries, newest first.
func (s *Store) Statement(ctx context.Context, id string, page, size int) (*domain.AccountStatement, error) {
	s.mu.RLock()
	acc, ok := s.accounts[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrAccountNotFound
	}
	acc.mu.Lock()
	defer acc.mu.Unlock()

	st := &domain.AccountStatement{
		AccountID:      acc.data.ID,
		AccountName:    acc.data.Name,
		CurrentBalance: acc.data.Balance,
		Entries:        []domain.LedgerEntry{},
	}
	n := len(acc.entries)
	for i := page * size; i >= 0 && i < n && i < (page+1)*size; i++ {
		st.Entries = append(st.Entries, acc.entries[n-1-i])
	}
	return st, nil
}

// GetTransfer returns an executed transfer.
func (s *Store) GetTransfer(ctx context.Context, id string) (*domain.TransferResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transfers[id]
	if !ok {
		return nil, ErrTransferNotFound
	}
	cp := *t
	return &cp, nil
}

// Accounts reports how many accounts exist.
func (s *Store) Accounts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// ExecTransfer moves money between two accounts. The key is reserved first;
// a completed key with the same request hash replays the stored response and
// reports replay=true. Accounts are locked in ID order to avoid deadlocks.
func (s *Store) ExecTransfer(ctx context.Context, req domain.TransferRequest, key, reqHash string) (*domain.TransferResponse, bool, error) {
	if req.SourceAccountID == req.TargetAccountID {
		return nil, false, ErrTransferToSelf
	}

	// 1. Idempotency check and reservation
	s.keyMu.Lock()
	if rec, ok := s.keys[key]; ok {
		s.keyMu.Unlock()
		if rec.hash != reqHash {
			return nil, false, ErrIdempotencyMismatch
		}
		if rec.status != keyCompleted {
			return nil, false, ErrIdempotencyConflict
		}
		cp := *rec.resp
		return &cp, true, nil
	}
	rec := &idempotencyRecord{hash: reqHash, status: keyInProgress}
	s.keys[key] = rec
	s.keyMu.Unlock()

	resp, err := s.execute(req, key)

	s.keyMu.Lock()
	if err != nil {
		// Failed attempts release the key so the client may retry it.
		delete(s.keys, key)
	} else {
		rec.status = keyCompleted
		rec.resp = resp
	}
	s.keyMu.Unlock()
	if err != nil {
		return nil, false, err
	}
	cp := *resp
	return &cp, false, nil
}

func (s *Store) execute(req domain.TransferRequest, key string) (*domain.TransferResponse, error) {
	s.mu.RLock()
	src, okSrc := s.accounts[req.SourceAccountID]
	dst, okDst := s.accounts[req.TargetAccountID]
	s.mu.RUnlock()
	if !okSrc || !okDst {
		return nil, ErrAccountNotFound
	}

	// 2. Deterministic locking
	locked := []*account{src, dst}
	sort.Slice(locked, func(i, j int) bool { return locked[i].data.ID < locked[j].data.ID })
	locked[0].mu.Lock()
	defer locked[0].mu.Unlock()
	locked[1].mu.Lock()
	defer locked[1].mu.Unlock()

	// 3. Business check
	if !src.overdraft && src.data.Balance.LessThan(req.Amount) {
		return nil, &InsufficientFundsError{AccountID: src.data.ID, Available: src.data.Balance, Requested: req.Amount}
	}

	// 4. Execution: transfer record and both legs
	now := s.now()
	resp := &domain.TransferResponse{
		TransactionID:   uuid.NewString(),
		SourceAccountID: src.data.ID,
		TargetAccountID: dst.data.ID,
		Amount:          req.Amount,
		Status:          domain.TransferCompleted,
		CreatedAt:       now,
	}
	src.data.Balance = src.data.Balance.Sub(req.Amount)
	src.entries = append(src.entries, domain.LedgerEntry{
		ID: uuid.NewString(), TransactionID: resp.TransactionID, EntryType: domain.EntryDebit,
		Amount: req.Amount, BalanceAfter: src.data.Balance, CreatedAt: now,
	})
	dst.data.Balance = dst.data.Balance.Add(req.Amount)
	dst.entries = append(dst.entries, domain.LedgerEntry{
		ID: uuid.NewString(), TransactionID: resp.TransactionID, EntryType: domain.EntryCredit,
		Amount: req.Amount, BalanceAfter: dst.data.Balance, CreatedAt: now,
	})

	s.mu.Lock()
	s.transfers[resp.TransactionID] = resp
	s.mu.Unlock()
	return resp, nil
}

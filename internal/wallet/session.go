package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/punchamoorthee/ledgerconsole/internal/balance"
	"github.com/punchamoorthee/ledgerconsole/internal/domain"
	"github.com/punchamoorthee/ledgerconsole/internal/idempotency"
	"github.com/punchamoorthee/ledgerconsole/internal/ledger"
	"github.com/punchamoorthee/ledgerconsole/internal/transfer"
)

const (
	ToastTTL          = 4 * time.Second
	MsgTransferFailed = "Transfer failed. Please try again."

	recipientPageSize = 100
)

var ErrCannotSubmit = errors.New("transfer form is not submittable")

// Service is what a session reads and writes through. *query.Service
// implements it.
type Service interface {
	Sender
	balance.Fetcher
	Accounts(ctx context.Context, page, size int, maxAge time.Duration) (*domain.Page[domain.Account], time.Time, error)
}

type ToastKind int

const (
	ToastSuccess ToastKind = iota
	ToastError
)

// Toast is a transient notification.
type Toast struct {
	Kind    ToastKind
	Text    string
	Expires time.Time
}

type Options struct {
	Interval  time.Duration
	StaleTime time.Duration
	Logger    *slog.Logger
	Now       func() time.Time
	// OnBalance is forwarded to the balance read model.
	OnBalance func(balance.Snapshot)
}

// Session is the per-user view-model behind the wallet screen. Nothing in it
// is process-wide; two sessions never share pending state.
type Session struct {
	svc    Service
	coord  *Coordinator
	model  *balance.ReadModel
	issuer idempotency.Issuer
	logger *slog.Logger
	now    func() time.Time
	stale  time.Duration

	mu       sync.Mutex
	accounts []domain.Account
	target   string
	amount   string
	search   string
	toast    *Toast
	closed   bool
}

// NewSession creates a session for accountID, which may be empty until
// LoadAccounts picks the first account.
func NewSession(svc Service, issuer idempotency.Issuer, accountID string, opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.StaleTime <= 0 {
		opts.StaleTime = balance.DefaultStaleTime
	}
	return &Session{
		svc:    svc,
		coord:  NewCoordinator(svc, opts.Logger),
		issuer: issuer,
		logger: opts.Logger,
		now:    opts.Now,
		stale:  opts.StaleTime,
		model: balance.New(svc, accountID, balance.Options{
			Interval:  opts.Interval,
			StaleTime: opts.StaleTime,
			Logger:    opts.Logger,
			OnChange:  opts.OnBalance,
		}),
	}
}

// Start begins balance polling.
func (s *Session) Start(ctx context.Context) { s.model.Start(ctx) }

// Close stops polling. Results that arrive afterwards settle the coordinator
// but no longer touch the view.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.model.Stop()
}

func (s *Session) AccountID() string             { return s.model.Snapshot().AccountID }
func (s *Session) Balance() balance.Snapshot     { return s.model.Snapshot() }
func (s *Session) Coordinator() *Coordinator     { return s.coord }
func (s *Session) ReadModel() *balance.ReadModel { return s.model }
func (s *Session) Refresh(ctx context.Context)   { s.model.Refresh(ctx) }
func (s *Session) Pending() decimal.Decimal      { return s.coord.Pending(s.AccountID()) }
func (s *Session) State() State                  { return s.coord.State(s.AccountID()) }

// Displayed is the balance to render for the active account.
func (s *Session) Displayed() decimal.Decimal {
	snap := s.model.Snapshot()
	return s.coord.DisplayedBalance(snap.AccountID, snap.Balance)
}

// LoadAccounts fetches the account directory. With no active account the
// first listed one becomes active.
func (s *Session) LoadAccounts(ctx context.Context) error {
	page, _, err := s.svc.Accounts(ctx, 0, recipientPageSize, s.stale)
	if err != nil {
		return fmt.Errorf("load accounts: %w", err)
	}
	s.mu.Lock()
	s.accounts = page.Content
	s.mu.Unlock()

	if s.AccountID() == "" && len(page.Content) > 0 {
		s.SelectAccount(ctx, page.Content[0].ID)
	}
	return nil
}

// SetAccounts replaces the directory without fetching.
func (s *Session) SetAccounts(accounts []domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = accounts
}

func (s *Session) Accounts() []domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Account(nil), s.accounts...)
}

// SelectAccount switches the active (source) account and clears the form.
func (s *Session) SelectAccount(ctx context.Context, id string) {
	s.model.SetAccount(ctx, id)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.amount = ""
	if s.target == id {
		s.target = ""
	}
}

func (s *Session) SetTarget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.target = id
}

func (s *Session) SetAmount(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.amount = text
}

func (s *Session) SetSearch(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search = text
}

// SendMax fills the amount with the authoritative balance. It does nothing
// until a balance has loaded.
func (s *Session) SendMax() {
	snap := s.model.Snapshot()
	if !snap.Loaded {
		return
	}
	s.SetAmount(transfer.SendMax(snap.Balance))
}

// Form is the current transfer form.
func (s *Session) Form() transfer.Form {
	snap := s.model.Snapshot()
	s.mu.Lock()
	defer s.mu.Unlock()
	return transfer.Form{
		SourceAccountID: snap.AccountID,
		TargetAccountID: s.target,
		Amount:          s.amount,
		Balance:         snap.Balance,
		Pending:         s.coord.State(snap.AccountID) == PendingSend,
	}
}

func (s *Session) Violations() []string { return transfer.Validate(s.Form()) }
func (s *Session) CanSubmit() bool      { return transfer.CanSubmit(s.Form()) }

func (s *Session) Remaining() (decimal.Decimal, bool) { return transfer.Remaining(s.Form()) }

// Recipients lists accounts other than the active one that match the search.
func (s *Session) Recipients() []domain.Account {
	id := s.AccountID()
	s.mu.Lock()
	defer s.mu.Unlock()
	return transfer.Recipients(s.accounts, id, s.search)
}

// Prepare validates the form, mints a fresh idempotency key and applies the
// optimistic deduction. The returned intent must be passed to Finish.
func (s *Session) Prepare() (domain.TransferIntent, error) {
	f := s.Form()
	if !transfer.CanSubmit(f) {
		return domain.TransferIntent{}, ErrCannotSubmit
	}
	key, err := s.issuer.NewKey()
	if err != nil {
		return domain.TransferIntent{}, fmt.Errorf("mint idempotency key: %w", err)
	}
	amount, _ := transfer.ParseAmount(f.Amount)
	intent := domain.TransferIntent{
		SourceAccountID: f.SourceAccountID,
		TargetAccountID: f.TargetAccountID,
		Amount:          amount,
		IdempotencyKey:  key,
	}
	if err := s.coord.Begin(intent); err != nil {
		return domain.TransferIntent{}, err
	}
	return intent, nil
}

// Send executes a prepared intent against the backend.
func (s *Session) Send(ctx context.Context, intent domain.TransferIntent) (*domain.TransferResponse, error) {
	return s.svc.Transfer(ctx, intent)
}

// Finish settles a prepared intent and posts the toast for its outcome.
func (s *Session) Finish(intent domain.TransferIntent, err error) {
	s.coord.Settle(intent, err)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if err != nil {
		s.toast = &Toast{Kind: ToastError, Text: failureText(err), Expires: s.now().Add(ToastTTL)}
		return
	}
	s.amount = ""
	s.target = ""
	s.toast = &Toast{
		Kind:    ToastSuccess,
		Text:    fmt.Sprintf("Sent $%s to %s", intent.Amount.StringFixed(2), s.nameOf(intent.TargetAccountID)),
		Expires: s.now().Add(ToastTTL),
	}
}

// Submit runs Prepare, Send and Finish, then refetches the balance on success.
func (s *Session) Submit(ctx context.Context) (*domain.TransferResponse, error) {
	intent, err := s.Prepare()
	if err != nil {
		return nil, err
	}
	resp, err := s.Send(ctx, intent)
	s.Finish(intent, err)
	if err != nil {
		return nil, err
	}
	s.model.Reload(ctx)
	return resp, nil
}

// Toast returns the live notification, if any.
func (s *Session) Toast() (Toast, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.toast == nil || !s.now().Before(s.toast.Expires) {
		return Toast{}, false
	}
	return *s.toast, true
}

// DismissToast clears the notification.
func (s *Session) DismissToast() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toast = nil
}

// nameOf must be called with s.mu held.
func (s *Session) nameOf(id string) string {
	for _, acc := range s.accounts {
		if acc.ID == id {
			return acc.Name
		}
	}
	return id
}

func failureText(err error) string {
	if le, ok := ledger.AsError(err); ok {
		if msg := le.Message(); msg != "" {
			return msg
		}
	}
	return MsgTransferFailed
}

// Package balance keeps one account's authoritative balance fresh by polling.
package balance

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/punchamoorthee/ledgerconsole/internal/domain"
)

const (
	DefaultInterval  = 5 * time.Second
	DefaultStaleTime = 2 * time.Second
)

// Status is the fetch status of a read model.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Direction of the last authoritative change.
type Direction int

const (
	Unchanged Direction = 0
	Up        Direction = 1
	Down      Direction = -1
)

// Snapshot is the read model's externally visible state. Balance is only
// meaningful when Loaded is true.
type Snapshot struct {
	AccountID string
	Balance   decimal.Decimal
	Loaded    bool
	// Loading is true while the first fetch is outstanding.
	Loading bool
	// Fetching is true while any fetch is outstanding.
	Fetching bool
	// Err is the last fetch failure. The previous balance is kept.
	Err       error
	UpdatedAt time.Time
	Status    Status
	Direction Direction
}

// Offline reports whether the last fetch failed.
func (s Snapshot) Offline() bool { return s.Err != nil }

// Fetcher loads an account, serving a cached copy younger than maxAge.
// *query.Service implements it.
type Fetcher interface {
	Account(ctx context.Context, id string, maxAge time.Duration) (*domain.Account, time.Time, error)
}

// Options tune a ReadModel. Zero values take the defaults.
type Options struct {
	Interval  time.Duration
	StaleTime time.Duration
	Logger    *slog.Logger
	// OnChange is called after every applied fetch, outside the lock.
	OnChange func(Snapshot)
}

// ReadModel polls a single account while started. With an empty account id
// it is disabled and never issues a request.
type ReadModel struct {
	fetcher  Fetcher
	interval time.Duration
	stale    time.Duration
	logger   *slog.Logger
	onChange func(Snapshot)

	mu     sync.Mutex
	snap   Snapshot
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a stopped read model for accountID.
func New(f Fetcher, accountID string, opts Options) *ReadModel {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.StaleTime < 0 {
		opts.StaleTime = 0
	} else if opts.StaleTime == 0 {
		opts.StaleTime = DefaultStaleTime
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &ReadModel{
		fetcher:  f,
		interval: opts.Interval,
		stale:    opts.StaleTime,
		logger:   opts.Logger,
		onChange: opts.OnChange,
		snap:     Snapshot{AccountID: accountID, Status: StatusIdle},
	}
}

// Snapshot returns the current state.
func (m *ReadModel) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}

// Enabled reports whether there is an account to poll.
func (m *ReadModel) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap.AccountID != ""
}

// Start begins polling: one fetch right away (served from cache when fresh),
// then a forced fetch every interval. It is a no-op when disabled or running.
func (m *ReadModel) Start(ctx context.Context) {
	m.mu.Lock()
	if m.snap.AccountID == "" || m.cancel != nil {
		m.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.cancel, m.done = cancel, done
	m.mu.Unlock()

	go m.run(ctx, done)
}

// Stop halts polling and discards responses still in flight.
func (m *ReadModel) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.gen++
	m.snap.Fetching = false
	m.snap.Loading = false
	m.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// SetAccount switches the subject. State is reset and polling restarts if
// it was running.
func (m *ReadModel) SetAccount(ctx context.Context, accountID string) {
	m.mu.Lock()
	if m.snap.AccountID == accountID {
		m.mu.Unlock()
		return
	}
	running := m.cancel != nil
	m.mu.Unlock()

	m.Stop()
	m.mu.Lock()
	m.snap = Snapshot{AccountID: accountID, Status: StatusIdle}
	m.mu.Unlock()
	if running {
		m.Start(ctx)
	}
}

// Refresh is a manual trigger: cached data younger than the stale time is
// served as is, older data is refetched.
func (m *ReadModel) Refresh(ctx context.Context) Snapshot {
	return m.fetch(ctx, m.stale)
}

// Reload bypasses the cache, e.g. right after a confirmed transfer.
func (m *ReadModel) Reload(ctx context.Context) Snapshot {
	return m.fetch(ctx, 0)
}

func (m *ReadModel) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.fetch(ctx, m.stale)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.fetch(ctx, 0)
		}
	}
}

func (m *ReadModel) fetch(ctx context.Context, maxAge time.Duration) Snapshot {
	m.mu.Lock()
	if m.snap.AccountID == "" {
		snap := m.snap
		m.mu.Unlock()
		return snap
	}
	gen, id := m.gen, m.snap.AccountID
	m.snap.Fetching = true
	if !m.snap.Loaded {
		m.snap.Loading = true
		m.snap.Status = StatusLoading
	}
	m.mu.Unlock()

	acc, at, err := m.fetcher.Account(ctx, id, maxAge)

	m.mu.Lock()
	if gen != m.gen {
		snap := m.snap
		m.mu.Unlock()
		m.logger.Debug("Discarded balance response for stopped view", "account_id", id)
		return snap
	}
	m.snap.Fetching = false
	m.snap.Loading = false
	if err != nil {
		m.snap.Err = err
		m.snap.Status = StatusError
		m.logger.Warn("Balance fetch failed", "account_id", id, "error", err)
	} else {
		m.snap.Direction = Unchanged
		if m.snap.Loaded {
			switch acc.Balance.Cmp(m.snap.Balance) {
			case 1:
				m.snap.Direction = Up
			case -1:
				m.snap.Direction = Down
			}
		}
		m.snap.Balance = acc.Balance
		m.snap.Loaded = true
		m.snap.Err = nil
		m.snap.UpdatedAt = at
		m.snap.Status = StatusSuccess
	}
	snap := m.snap
	cb := m.onChange
	m.mu.Unlock()

	if cb != nil {
		cb(snap)
	}
	return snap
}

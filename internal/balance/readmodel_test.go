package balance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/punchamoorthee/ledgerconsole/internal/cache"
	"github.com/punchamoorthee/ledgerconsole/internal/domain"
	"github.com/punchamoorthee/ledgerconsole/internal/ledger"
	"github.com/punchamoorthee/ledgerconsole/internal/ledgertest"
	"github.com/punchamoorthee/ledgerconsole/internal/query"
)

func newService(t *testing.T) (*query.Service, *ledgertest.Backend) {
	t.Helper()
	fake := ledgertest.New()
	fake.AddAccount("a", "Ana", "1000.00")
	store, err := cache.New(64)
	require.NoError(t, err)
	return query.NewService(fake, store, nil), fake
}

func TestDisabledWithoutAccount(t *testing.T) {
	svc, fake := newService(t)
	m := New(svc, "", Options{Interval: 10 * time.Millisecond})

	m.Start(context.Background())
	defer m.Stop()
	snap := m.Refresh(context.Background())
	time.Sleep(30 * time.Millisecond)

	assert.False(t, m.Enabled())
	assert.Equal(t, StatusIdle, snap.Status)
	assert.False(t, snap.Loaded)
	assert.Zero(t, fake.Calls("GetAccount"))
}

func TestRefreshLoadsBalance(t *testing.T) {
	svc, _ := newService(t)
	m := New(svc, "a", Options{})

	snap := m.Refresh(context.Background())
	assert.Equal(t, StatusSuccess, snap.Status)
	assert.True(t, snap.Loaded)
	assert.False(t, snap.Loading)
	assert.True(t, snap.Balance.Equal(decimal.NewFromInt(1000)))
	assert.False(t, snap.UpdatedAt.IsZero())
}

func TestManualRefreshServesFreshCache(t *testing.T) {
	svc, fake := newService(t)
	m := New(svc, "a", Options{StaleTime: time.Minute})

	m.Refresh(context.Background())
	fake.SetBalance("a", "900.00")
	snap := m.Refresh(context.Background())

	assert.Equal(t, 1, fake.Calls("GetAccount"))
	assert.Equal(t, "1000", snap.Balance.String())

	snap = m.Reload(context.Background())
	assert.Equal(t, 2, fake.Calls("GetAccount"))
	assert.Equal(t, "900", snap.Balance.String())
	assert.Equal(t, Down, snap.Direction)
}

func TestPollingPicksUpExternalChanges(t *testing.T) {
	svc, fake := newService(t)
	m := New(svc, "a", Options{Interval: 10 * time.Millisecond})
	m.Start(context.Background())
	defer m.Stop()

	require.Eventually(t, func() bool { return m.Snapshot().Loaded }, time.Second, 5*time.Millisecond)
	fake.SetBalance("a", "1200.00")

	assert.Eventually(t, func() bool {
		s := m.Snapshot()
		return s.Balance.Equal(decimal.NewFromInt(1200)) && s.Direction == Up
	}, time.Second, 5*time.Millisecond)
}

func TestErrorKeepsLastBalance(t *testing.T) {
	svc, fake := newService(t)
	m := New(svc, "a", Options{})
	m.Refresh(context.Background())

	fake.SetReadErr(ledger.ErrTransport)
	snap := m.Reload(context.Background())

	assert.Equal(t, StatusError, snap.Status)
	assert.True(t, snap.Offline())
	assert.True(t, snap.Loaded)
	assert.Equal(t, "1000", snap.Balance.String())

	fake.SetReadErr(nil)
	snap = m.Reload(context.Background())
	assert.False(t, snap.Offline())
	assert.Equal(t, StatusSuccess, snap.Status)
}

func TestFirstFetchFailureHasNoBalance(t *testing.T) {
	svc, fake := newService(t)
	fake.SetReadErr(errors.New("boom"))
	m := New(svc, "a", Options{})

	snap := m.Refresh(context.Background())
	assert.Equal(t, StatusError, snap.Status)
	assert.False(t, snap.Loaded)
}

// gatedFetcher blocks each fetch until released.
type gatedFetcher struct {
	release chan struct{}
	mu      sync.Mutex
	calls   int
}

func (g *gatedFetcher) Account(ctx context.Context, id string, maxAge time.Duration) (*domain.Account, time.Time, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	<-g.release
	return &domain.Account{ID: id, Balance: decimal.NewFromInt(7)}, time.Now(), nil
}

func TestStopDiscardsInFlightResponse(t *testing.T) {
	g := &gatedFetcher{release: make(chan struct{})}
	var applied int
	var mu sync.Mutex
	m := New(g, "a", Options{OnChange: func(Snapshot) {
		mu.Lock()
		applied++
		mu.Unlock()
	}})

	done := make(chan Snapshot)
	go func() { done <- m.Refresh(context.Background()) }()
	require.Eventually(t, func() bool {
		g.mu.Lock()
		defer g.mu.Unlock()
		return g.calls == 1
	}, time.Second, time.Millisecond)

	m.Stop()
	close(g.release)
	<-done

	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, applied)
	assert.False(t, m.Snapshot().Loaded)
}

func TestSetAccountResetsState(t *testing.T) {
	svc, fake := newService(t)
	fake.AddAccount("b", "Bruno", "20.00")
	m := New(svc, "a", Options{})
	m.Refresh(context.Background())

	m.SetAccount(context.Background(), "b")
	assert.False(t, m.Snapshot().Loaded)

	snap := m.Refresh(context.Background())
	assert.Equal(t, "b", snap.AccountID)
	assert.Equal(t, "20", snap.Balance.String())
	assert.Equal(t, Unchanged, snap.Direction)
}

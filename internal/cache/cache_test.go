package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newStore(t *testing.T) (*Store, *fakeClock) {
	t.Helper()
	s, err := New(64)
	require.NoError(t, err)
	clk := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	s.now = clk.now
	return s, clk
}

func TestKeys(t *testing.T) {
	assert.Equal(t, Key("accounts/list/0/20"), AccountListKey(0, 20))
	assert.Equal(t, Key("accounts/detail/abc"), AccountKey("abc"))
	assert.Equal(t, Key("ledger/abc/1/50"), LedgerKey("abc", 1, 50))
}

func TestFetchServesFreshCache(t *testing.T) {
	s, clk := newStore(t)
	calls := 0
	fn := func(context.Context) (int, error) { calls++; return calls, nil }

	v, _, err := Fetch(context.Background(), s, AccountKey("a"), 2*time.Second, fn)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	clk.advance(time.Second)
	v, _, err = Fetch(context.Background(), s, AccountKey("a"), 2*time.Second, fn)
	require.NoError(t, err)
	assert.Equal(t, 1, v, "fresh value served from cache")

	clk.advance(2 * time.Second)
	v, _, err = Fetch(context.Background(), s, AccountKey("a"), 2*time.Second, fn)
	require.NoError(t, err)
	assert.Equal(t, 2, v, "stale value refetched")
}

func TestFetchZeroMaxAgeAlwaysFetches(t *testing.T) {
	s, _ := newStore(t)
	calls := 0
	fn := func(context.Context) (int, error) { calls++; return calls, nil }

	for i := 0; i < 3; i++ {
		_, _, err := Fetch(context.Background(), s, AccountKey("a"), 0, fn)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, calls)
}

func TestFetchErrorKeepsPreviousValue(t *testing.T) {
	s, _ := newStore(t)
	_, _, err := Fetch(context.Background(), s, AccountKey("a"), 0, func(context.Context) (string, error) { return "good", nil })
	require.NoError(t, err)

	_, _, err = Fetch(context.Background(), s, AccountKey("a"), 0, func(context.Context) (string, error) { return "", errors.New("offline") })
	require.Error(t, err)

	v, _, ok := s.Get(AccountKey("a"))
	require.True(t, ok)
	assert.Equal(t, "good", v)
}

func TestInvalidatePrefix(t *testing.T) {
	s, _ := newStore(t)
	s.Set(AccountListKey(0, 20), 1)
	s.Set(AccountListKey(1, 20), 2)
	s.Set(AccountKey("a"), 3)
	s.Set(LedgerKey("a", 0, 50), 4)
	s.Set(Key("accountsx/other"), 5)

	assert.Equal(t, 2, s.Invalidate(AccountLists))
	assert.Equal(t, 3, s.Len())

	assert.Equal(t, 1, s.Invalidate(Accounts))
	_, _, ok := s.Get(AccountKey("a"))
	assert.False(t, ok)
	_, _, ok = s.Get(Key("accountsx/other"))
	assert.True(t, ok, "sibling prefix must survive")
}

func TestInvalidateDuringFetchDoesNotRepopulate(t *testing.T) {
	s, _ := newStore(t)
	_, _, err := Fetch(context.Background(), s, AccountKey("a"), 0, func(context.Context) (int, error) {
		s.Invalidate(Accounts)
		return 7, nil
	})
	require.NoError(t, err)
	_, _, ok := s.Get(AccountKey("a"))
	assert.False(t, ok)
}

func TestFetchCoalescesConcurrentCallers(t *testing.T) {
	s, _ := newStore(t)
	var calls atomic.Int32
	release := make(chan struct{})
	fn := func(context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 42, nil
	}

	var wg sync.WaitGroup
	started := make(chan struct{}, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started <- struct{}{}
			v, _, err := Fetch(context.Background(), s, AccountKey("a"), 0, fn)
			assert.NoError(t, err)
			assert.Equal(t, 42, v)
		}()
	}
	for i := 0; i < 5; i++ {
		<-started
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.LessOrEqual(t, calls.Load(), int32(5))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestFetchAfterInvalidateStartsNewFlight(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	entered := make(chan struct{})
	release := make(chan struct{})
	before := make(chan string, 1)
	go func() {
		v, _, err := Fetch(ctx, s, AccountKey("a"), 0, func(context.Context) (string, error) {
			close(entered)
			<-release
			return "1000", nil
		})
		assert.NoError(t, err)
		before <- v
	}()
	<-entered

	s.Invalidate(Accounts)
	v, _, err := Fetch(ctx, s, AccountKey("a"), 0, func(context.Context) (string, error) {
		return "950", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "950", v, "read after a mutation must not reuse an older fetch")

	close(release)
	assert.Equal(t, "1000", <-before)
	cached, _, ok := s.Get(AccountKey("a"))
	require.True(t, ok)
	assert.Equal(t, "950", cached)
}

func TestCancelledCallerDoesNotFailSharedFetch(t *testing.T) {
	s, _ := newStore(t)
	entered := make(chan struct{})
	release := make(chan struct{})

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, _, err := Fetch(ctxA, s, AccountKey("a"), 0, func(ctx context.Context) (int, error) {
			close(entered)
			<-release
			return 42, ctx.Err()
		})
		errA <- err
	}()
	<-entered

	type outcome struct {
		v   int
		err error
	}
	live := make(chan outcome, 1)
	go func() {
		v, _, err := Fetch(context.Background(), s, AccountKey("a"), 0, func(context.Context) (int, error) {
			return 0, errors.New("second caller should have joined the running fetch")
		})
		live <- outcome{v, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	select {
	case err := <-errA:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller kept waiting")
	}

	close(release)
	got := <-live
	require.NoError(t, got.err)
	assert.Equal(t, 42, got.v)
}

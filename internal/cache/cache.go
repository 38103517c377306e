// Package cache is the process-wide store of fetched ledger data, keyed by
// query identity. Mutations invalidate key prefixes so the next read refetches.
package cache

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// FetchTimeout bounds a shared fetch, which outlives any single caller.
const FetchTimeout = 30 * time.Second

// Key identifies a query, e.g. accounts/detail/<id>. Segments are joined
// with "/" so that invalidating "accounts" covers every account query.
type Key string

// NewKey joins parts into a key.
func NewKey(parts ...any) Key {
	segs := make([]string, len(parts))
	for i, p := range parts {
		segs[i] = fmt.Sprint(p)
	}
	return Key(strings.Join(segs, "/"))
}

// Key families.
const (
	Accounts     Key = "accounts"
	AccountLists Key = "accounts/list"
	Ledger       Key = "ledger"
)

func AccountListKey(page, size int) Key       { return NewKey(AccountLists, page, size) }
func AccountKey(id string) Key                { return NewKey(Accounts, "detail", id) }
func LedgerKey(id string, page, size int) Key { return NewKey(Ledger, id, page, size) }

// covers reports whether k is prefix or lives under it.
func (k Key) covers(other Key) bool {
	return other == k || strings.HasPrefix(string(other), string(k)+"/")
}

type entry struct {
	value     any
	fetchedAt time.Time
}

// Store is a bounded LRU of query results with per-key request coalescing.
type Store struct {
	lru   *lru.Cache[Key, entry]
	group singleflight.Group
	epoch atomic.Uint64
	now   func() time.Time
}

// New creates a store holding at most size results.
func New(size int) (*Store, error) {
	c, err := lru.New[Key, entry](size)
	if err != nil {
		return nil, fmt.Errorf("create query cache: %w", err)
	}
	return &Store{lru: c, now: time.Now}, nil
}

// Get returns the cached value for key and when it was fetched.
func (s *Store) Get(key Key) (any, time.Time, bool) {
	e, ok := s.lru.Get(key)
	if !ok {
		return nil, time.Time{}, false
	}
	return e.value, e.fetchedAt, true
}

// Set stores v as freshly fetched.
func (s *Store) Set(key Key, v any) {
	s.lru.Add(key, entry{value: v, fetchedAt: s.now()})
}

// Invalidate drops every entry under prefix and returns how many were removed.
// Fetches already in flight will not repopulate the store.
func (s *Store) Invalidate(prefix Key) int {
	s.epoch.Add(1)
	n := 0
	for _, k := range s.lru.Keys() {
		if prefix.covers(k) {
			s.lru.Remove(k)
			n++
		}
	}
	return n
}

// Len reports the number of cached results.
func (s *Store) Len() int { return s.lru.Len() }

type result struct {
	value     any
	fetchedAt time.Time
}

// Fetch returns the cached value for key when it is younger than maxAge,
// otherwise calls fn once for all concurrent callers of the same key and
// caches the result. maxAge <= 0 always fetches.
//
// Callers only share a fetch that started after the last Invalidate, and fn
// runs detached from any one caller's cancellation. A cancelled caller stops
// waiting; the others still get the result.
func Fetch[T any](ctx context.Context, s *Store, key Key, maxAge time.Duration, fn func(context.Context) (T, error)) (T, time.Time, error) {
	if maxAge > 0 {
		if v, at, ok := s.Get(key); ok && s.now().Sub(at) < maxAge {
			if typed, ok := v.(T); ok {
				return typed, at, nil
			}
		}
	}

	epoch := s.epoch.Load()
	ch := s.group.DoChan(fmt.Sprintf("%s#%d", key, epoch), func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), FetchTimeout)
		defer cancel()
		val, err := fn(fctx)
		if err != nil {
			return nil, err
		}
		at := s.now()
		if s.epoch.Load() == epoch {
			s.lru.Add(key, entry{value: val, fetchedAt: at})
		}
		return result{value: val, fetchedAt: at}, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, time.Time{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, time.Time{}, res.Err
		}
		r := res.Val.(result)
		return r.value.(T), r.fetchedAt, nil
	}
}

package admin

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/punchamoorthee/ledgerconsole/internal/domain"
	"github.com/punchamoorthee/ledgerconsole/internal/ledger"
)

type pagedStatements struct {
	entries []domain.LedgerEntry
	calls   []string
	err     error
}

func (p *pagedStatements) Statement(ctx context.Context, id string, page, size int, maxAge time.Duration) (*domain.AccountStatement, time.Time, error) {
	p.calls = append(p.calls, fmt.Sprintf("%s/%d/%d", id, page, size))
	if p.err != nil {
		return nil, time.Time{}, p.err
	}
	st := &domain.AccountStatement{AccountID: id, AccountName: "Ana", CurrentBalance: decimal.NewFromInt(5)}
	for i := page * size; i < len(p.entries) && i < (page+1)*size; i++ {
		st.Entries = append(st.Entries, p.entries[i])
	}
	return st, time.Now(), nil
}

func entries(n int) []domain.LedgerEntry {
	out := make([]domain.LedgerEntry, n)
	for i := range out {
		out[i] = domain.LedgerEntry{ID: fmt.Sprint(i), EntryType: domain.EntryCredit, Amount: decimal.NewFromInt(1)}
	}
	return out
}

func TestStreamPagesUntilShortPage(t *testing.T) {
	r := &pagedStatements{entries: entries(25)}
	s := NewStream(r, "a", 10, 0)

	for s.HasMore() {
		require.NoError(t, s.Next(context.Background()))
	}
	assert.Len(t, s.Entries(), 25)
	assert.Equal(t, 3, s.Pages())
	assert.Equal(t, []string{"a/0/10", "a/1/10", "a/2/10"}, r.calls)
	assert.Equal(t, "Ana", s.AccountName())
	assert.Equal(t, "5", s.Balance().String())

	require.NoError(t, s.Next(context.Background()))
	assert.Len(t, r.calls, 3, "no fetch past the end")
}

func TestStreamFullLastPageNeedsOneMoreFetch(t *testing.T) {
	r := &pagedStatements{entries: entries(20)}
	s := NewStream(r, "a", 10, 0)
	for s.HasMore() {
		require.NoError(t, s.Next(context.Background()))
	}
	assert.Len(t, r.calls, 3)
	assert.Len(t, s.Entries(), 20)
}

func TestStreamDefaultsAndReload(t *testing.T) {
	r := &pagedStatements{entries: entries(3)}
	s := NewStream(r, "a", 0, 0)
	require.NoError(t, s.Next(context.Background()))
	assert.Equal(t, fmt.Sprintf("a/0/%d", ledger.DefaultLedgerPageSize), r.calls[0])

	require.NoError(t, s.Reload(context.Background()))
	assert.Len(t, s.Entries(), 3)
	assert.Equal(t, 1, s.Pages())
}

func TestStreamError(t *testing.T) {
	r := &pagedStatements{err: errors.New("down")}
	s := NewStream(r, "a", 10, 0)
	require.Error(t, s.Next(context.Background()))
	assert.True(t, s.HasMore())
	assert.Zero(t, s.Pages())
}

func TestStreamWithoutAccount(t *testing.T) {
	r := &pagedStatements{}
	s := NewStream(r, "", 10, 0)
	require.NoError(t, s.Next(context.Background()))
	assert.Empty(t, r.calls)
}

func TestStreamAppendIgnoresOutOfOrderPages(t *testing.T) {
	s := NewStream(&pagedStatements{}, "a", 2, 0)
	page := &domain.AccountStatement{AccountID: "a", Entries: entries(2)}

	assert.False(t, s.Append(1, page))
	assert.False(t, s.Append(0, &domain.AccountStatement{AccountID: "b"}))
	assert.True(t, s.Append(0, page))
	assert.True(t, s.HasMore())
	assert.Equal(t, 1, s.Pages())
}

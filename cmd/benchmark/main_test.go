package main

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/punchamoorthee/ledgerconsole/internal/ledger"
	"github.com/punchamoorthee/ledgerconsole/internal/mockledger"
)

func TestPickAccountsDistinct(t *testing.T) {
	ids := []string{"a", "b", "c"}
	for range 200 {
		from, to := pickAccounts("uniform", ids)
		assert.NotEqual(t, from, to)
		from, to = pickAccounts("hotspot", ids)
		assert.NotEqual(t, from, to)
	}
}

func TestRecordByKind(t *testing.T) {
	var c Counters
	c.record(nil)
	c.record(&ledger.Error{Kind: ledger.KindInsufficientFunds})
	c.record(&ledger.Error{Kind: ledger.KindConflict})
	c.record(&ledger.Error{Kind: ledger.KindTransport})

	r := summarize("uniform", time.Second, &c)
	assert.Equal(t, uint64(4), r.TotalRequests)
	assert.Equal(t, uint64(1), r.SuccessCreated)
	assert.Equal(t, uint64(1), r.Insufficient)
	assert.Equal(t, uint64(1), r.AbortsConflict)
	assert.Equal(t, uint64(1), r.Errors)
	assert.InDelta(t, 25.0, r.AbortRatePct, 0.001)
}

func TestRunAgainstMockLedger(t *testing.T) {
	store := mockledger.NewStore(decimal.NewFromInt(50))
	require.NoError(t, mockledger.Seed(context.Background(), store, 4))
	srv := httptest.NewServer(mockledger.NewHandler(store, nil).Router())
	defer srv.Close()
	c, err := ledger.New(srv.URL + "/api/v1")
	require.NoError(t, err)

	r, err := Run(context.Background(), c, Settings{
		Concurrency: 4,
		Duration:    200 * time.Millisecond,
		Workload:    "uniform",
		ReplayRate:  0.5,
		Amount:      decimal.NewFromInt(1),
	})
	require.NoError(t, err)
	assert.Positive(t, r.TotalRequests)
	assert.Positive(t, r.SuccessCreated)
	assert.Zero(t, r.Errors, "replays return the original transaction")
}

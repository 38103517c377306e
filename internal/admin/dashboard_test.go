package admin

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/punchamoorthee/ledgerconsole/internal/cache"
	"github.com/punchamoorthee/ledgerconsole/internal/domain"
	"github.com/punchamoorthee/ledgerconsole/internal/integrity"
	"github.com/punchamoorthee/ledgerconsole/internal/ledgertest"
	"github.com/punchamoorthee/ledgerconsole/internal/query"
)

type healthFunc func(ctx context.Context) (*domain.HealthStatus, error)

func (f healthFunc) Health(ctx context.Context) (*domain.HealthStatus, error) { return f(ctx) }

func TestHealthBadge(t *testing.T) {
	tests := []struct {
		name string
		fn   healthFunc
		want string
	}{
		{"up", func(context.Context) (*domain.HealthStatus, error) { return &domain.HealthStatus{Status: "UP"}, nil }, "UP"},
		{"down", func(context.Context) (*domain.HealthStatus, error) { return &domain.HealthStatus{Status: "DOWN"}, nil }, "DOWN"},
		{"odd", func(context.Context) (*domain.HealthStatus, error) {
			return &domain.HealthStatus{Status: "OUT_OF_SERVICE"}, nil
		}, "UNKNOWN"},
		{"error", func(context.Context) (*domain.HealthStatus, error) { return nil, errors.New("refused") }, "UNKNOWN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HealthBadge(context.Background(), tt.fn))
		})
	}
}

func TestLoadSummary(t *testing.T) {
	fake := ledgertest.New()
	fake.AddAccount("a", "Ana", "0")
	fake.AddAccount("b", "Bruno", "0")
	fake.HealthStatus = domain.HealthDown
	store, err := cache.New(16)
	require.NoError(t, err)
	svc := query.NewService(fake, store, nil)

	s := LoadSummary(context.Background(), svc, integrity.NewChecker(svc))
	assert.Equal(t, domain.HealthDown, s.Health)
	require.NoError(t, s.IntegrityErr)
	assert.Equal(t, 2, s.Accounts)
	assert.True(t, s.TotalBalance.IsZero())
	assert.True(t, s.Integrity.Balanced)
}

func TestLoadSummaryKeepsHealthWhenIntegrityFails(t *testing.T) {
	fake := ledgertest.New()
	fake.SetReadErr(errors.New("offline"))
	store, err := cache.New(16)
	require.NoError(t, err)
	svc := query.NewService(fake, store, nil)

	s := LoadSummary(context.Background(), svc, integrity.NewChecker(svc))
	assert.Equal(t, domain.HealthUp, s.Health)
	assert.Error(t, s.IntegrityErr)
	assert.Nil(t, s.Integrity)
}

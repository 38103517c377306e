package admin

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/punchamoorthee/ledgerconsole/internal/domain"
	"github.com/punchamoorthee/ledgerconsole/internal/integrity"
)

// HealthReader reports backend health. *query.Service implements it.
type HealthReader interface {
	Health(ctx context.Context) (*domain.HealthStatus, error)
}

// Summary is the dashboard's view of the system.
type Summary struct {
	Health       string
	Accounts     int
	TotalBalance decimal.Decimal
	Integrity    *integrity.Report
	IntegrityErr error
	UpdatedAt    time.Time
}

// HealthBadge is UP, DOWN or UNKNOWN. Failures only degrade the badge.
func HealthBadge(ctx context.Context, h HealthReader) string {
	st, err := h.Health(ctx)
	if err != nil || st == nil {
		if err != nil {
			slog.Debug("Health check failed", "error", err)
		}
		return domain.HealthUnknown
	}
	switch st.Status {
	case domain.HealthUp, domain.HealthDown:
		return st.Status
	default:
		return domain.HealthUnknown
	}
}

// LoadSummary runs the health probe and the integrity check side by side.
// Neither failure is returned; both are folded into the summary.
func LoadSummary(ctx context.Context, h HealthReader, checker *integrity.Checker) Summary {
	var s Summary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.Health = HealthBadge(gctx, h)
		return nil
	})
	g.Go(func() error {
		s.Integrity, s.IntegrityErr = checker.Check(gctx)
		return nil
	})
	_ = g.Wait()

	if s.Integrity != nil {
		s.Accounts = s.Integrity.Accounts
		s.TotalBalance = s.Integrity.TotalBalance
		s.UpdatedAt = s.Integrity.CheckedAt
	} else {
		s.UpdatedAt = time.Now()
	}
	return s
}

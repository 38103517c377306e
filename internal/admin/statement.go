package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/punchamoorthee/ledgerconsole/internal/domain"
	"github.com/punchamoorthee/ledgerconsole/internal/ledger"
)

// StatementReader reads statement pages. *query.Service implements it.
type StatementReader interface {
	Statement(ctx context.Context, accountID string, page, size int, maxAge time.Duration) (*domain.AccountStatement, time.Time, error)
}

// Stream accumulates an account's statement page by page, newest first.
// Another page is assumed to exist while the last one came back full.
type Stream struct {
	reader    StatementReader
	accountID string
	size      int
	maxAge    time.Duration

	pages   int
	entries []domain.LedgerEntry
	name    string
	balance decimal.Decimal
	more    bool
}

// NewStream starts an empty stream. size <= 0 uses the ledger default.
func NewStream(r StatementReader, accountID string, size int, maxAge time.Duration) *Stream {
	if size <= 0 {
		size = ledger.DefaultLedgerPageSize
	}
	return &Stream{reader: r, accountID: accountID, size: size, maxAge: maxAge, more: true}
}

func (s *Stream) AccountID() string             { return s.accountID }
func (s *Stream) AccountName() string           { return s.name }
func (s *Stream) Balance() decimal.Decimal      { return s.balance }
func (s *Stream) Entries() []domain.LedgerEntry { return s.entries }
func (s *Stream) Pages() int                    { return s.pages }
func (s *Stream) HasMore() bool                 { return s.more }

// Next fetches the following page. It is a no-op once the end is reached.
func (s *Stream) Next(ctx context.Context) error {
	if !s.more || s.accountID == "" {
		return nil
	}
	st, _, err := s.reader.Statement(ctx, s.accountID, s.pages, s.size, s.maxAge)
	if err != nil {
		return fmt.Errorf("statement page %d: %w", s.pages, err)
	}
	s.Append(s.pages, st)
	return nil
}

// Size is the page size requested.
func (s *Stream) Size() int { return s.size }

// Append adds page to the stream. Pages other than the next expected one
// are ignored, which drops late results after a Reset.
func (s *Stream) Append(page int, st *domain.AccountStatement) bool {
	if page != s.pages || st == nil || st.AccountID != s.accountID {
		return false
	}
	if page == 0 {
		s.name = st.AccountName
		s.balance = st.CurrentBalance
	}
	s.entries = append(s.entries, st.Entries...)
	s.more = len(st.Entries) == s.size
	s.pages++
	return true
}

// Reset drops everything loaded so the next call starts from page 0.
func (s *Stream) Reset() {
	s.pages = 0
	s.entries = nil
	s.name = ""
	s.balance = decimal.Zero
	s.more = true
}

// Reload resets and fetches the first page.
func (s *Stream) Reload(ctx context.Context) error {
	s.Reset()
	return s.Next(ctx)
}

package mockledger

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/punchamoorthee/ledgerconsole/internal/domain"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func funded(t *testing.T, opening string, n int) (*Store, []string) {
	t.Helper()
	s := NewStore(dec(opening))
	var ids []string
	for i := range n {
		acc, err := s.CreateAccount(context.Background(), uuid.NewString()[:8], "acc"+string(rune('A'+i)))
		require.NoError(t, err)
		ids = append(ids, acc.ID)
	}
	return s, ids
}

func TestOpeningBalanceComesFromGenesis(t *testing.T) {
	s, ids := funded(t, "100", 2)
	for _, id := range ids {
		acc, err := s.GetAccount(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, "100", acc.Balance.String())
	}
	g, err := s.GetAccount(context.Background(), s.GenesisID())
	require.NoError(t, err)
	assert.Equal(t, "-200", g.Balance.String())
	assert.Equal(t, GenesisDocument, g.Document)
	assert.Equal(t, 3, s.Accounts())
}

func TestGenesisListedLast(t *testing.T) {
	s, ids := funded(t, "100", 2)
	page := s.ListAccounts(context.Background(), 0, 10)
	require.Len(t, page.Content, 3)
	assert.Equal(t, ids[0], page.Content[0].ID)
	assert.Equal(t, ids[1], page.Content[1].ID)
	assert.Equal(t, s.GenesisID(), page.Content[2].ID)

	first := s.ListAccounts(context.Background(), 0, 1)
	require.Len(t, first.Content, 1)
	assert.Equal(t, ids[0], first.Content[0].ID)
	assert.Equal(t, int64(3), first.TotalElements)
}

func TestNoGenesisWithoutOpening(t *testing.T) {
	s, ids := funded(t, "0", 1)
	assert.Empty(t, s.GenesisID())
	acc, err := s.GetAccount(context.Background(), ids[0])
	require.NoError(t, err)
	assert.True(t, acc.Balance.IsZero())
}

func TestDuplicateDocument(t *testing.T) {
	s := NewStore(decimal.Zero)
	_, err := s.CreateAccount(context.Background(), "123", "Ana")
	require.NoError(t, err)
	_, err = s.CreateAccount(context.Background(), "123", "Bia")
	assert.ErrorIs(t, err, ErrDuplicateDocument)
}

func TestExecTransferWritesBothLegs(t *testing.T) {
	s, ids := funded(t, "100", 2)
	resp, replay, err := s.ExecTransfer(context.Background(),
		domain.TransferRequest{SourceAccountID: ids[0], TargetAccountID: ids[1], Amount: dec("30")}, "k1", "h1")
	require.NoError(t, err)
	assert.False(t, replay)
	assert.Equal(t, domain.TransferCompleted, resp.Status)

	src, err := s.Statement(context.Background(), ids[0], 0, 10)
	require.NoError(t, err)
	require.Len(t, src.Entries, 2)
	newest := src.Entries[0]
	assert.Equal(t, domain.EntryDebit, newest.EntryType)
	assert.Equal(t, "70", newest.BalanceAfter.String())
	assert.Equal(t, resp.TransactionID, newest.TransactionID)
	assert.Equal(t, domain.EntryCredit, src.Entries[1].EntryType, "opening credit is older")

	dst, err := s.Statement(context.Background(), ids[1], 0, 1)
	require.NoError(t, err)
	require.Len(t, dst.Entries, 1)
	assert.Equal(t, "130", dst.Entries[0].BalanceAfter.String())
	assert.Equal(t, "130", dst.CurrentBalance.String())

	got, err := s.GetTransfer(context.Background(), resp.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, ids[1], got.TargetAccountID)
}

func TestIdempotentReplay(t *testing.T) {
	s, ids := funded(t, "100", 2)
	req := domain.TransferRequest{SourceAccountID: ids[0], TargetAccountID: ids[1], Amount: dec("10")}

	first, _, err := s.ExecTransfer(context.Background(), req, "k", "h")
	require.NoError(t, err)
	second, replay, err := s.ExecTransfer(context.Background(), req, "k", "h")
	require.NoError(t, err)
	assert.True(t, replay)
	assert.Equal(t, first.TransactionID, second.TransactionID)

	acc, _ := s.GetAccount(context.Background(), ids[0])
	assert.Equal(t, "90", acc.Balance.String())

	_, _, err = s.ExecTransfer(context.Background(), req, "k", "other")
	assert.ErrorIs(t, err, ErrIdempotencyMismatch)
}

func TestFailedTransferReleasesKey(t *testing.T) {
	s, ids := funded(t, "100", 2)
	req := domain.TransferRequest{SourceAccountID: ids[0], TargetAccountID: ids[1], Amount: dec("500")}

	_, _, err := s.ExecTransfer(context.Background(), req, "k", "h")
	var insufficient *InsufficientFundsError
	require.ErrorAs(t, err, &insufficient)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, "100", insufficient.Available.String())

	req.Amount = dec("50")
	_, replay, err := s.ExecTransfer(context.Background(), req, "k", "h2")
	require.NoError(t, err)
	assert.False(t, replay)
}

func TestTransferErrors(t *testing.T) {
	s, ids := funded(t, "100", 1)
	_, _, err := s.ExecTransfer(context.Background(),
		domain.TransferRequest{SourceAccountID: ids[0], TargetAccountID: ids[0], Amount: dec("1")}, "a", "")
	assert.ErrorIs(t, err, ErrTransferToSelf)

	_, _, err = s.ExecTransfer(context.Background(),
		domain.TransferRequest{SourceAccountID: ids[0], TargetAccountID: "missing", Amount: dec("1")}, "b", "")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestConcurrentTransfersConserveMoney(t *testing.T) {
	s, ids := funded(t, "1000", 2)
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			src, dst := ids[i%2], ids[(i+1)%2]
			_, _, _ = s.ExecTransfer(context.Background(),
				domain.TransferRequest{SourceAccountID: src, TargetAccountID: dst, Amount: dec("7")}, uuid.NewString(), "")
		}()
	}
	wg.Wait()

	a, _ := s.GetAccount(context.Background(), ids[0])
	b, _ := s.GetAccount(context.Background(), ids[1])
	assert.Equal(t, "2000", a.Balance.Add(b.Balance).String())
}

func TestListAccountsPaging(t *testing.T) {
	s, _ := funded(t, "0", 5)
	p := s.ListAccounts(context.Background(), 1, 2)
	assert.Len(t, p.Content, 2)
	assert.Equal(t, int64(5), p.TotalElements)
	assert.Equal(t, 3, p.TotalPages)
	assert.False(t, p.Last)

	p = s.ListAccounts(context.Background(), 2, 2)
	assert.Len(t, p.Content, 1)
	assert.True(t, p.Last)
}

func TestSeed(t *testing.T) {
	s := NewStore(dec("50"))
	require.NoError(t, Seed(context.Background(), s, 12))
	assert.Equal(t, 13, s.Accounts())
	p := s.ListAccounts(context.Background(), 0, 20)
	assert.Equal(t, "Alice Martins 2", p.Content[11].Name)
}

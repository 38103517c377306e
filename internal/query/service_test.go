package query

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/punchamoorthee/ledgerconsole/internal/cache"
	"github.com/punchamoorthee/ledgerconsole/internal/domain"
	"github.com/punchamoorthee/ledgerconsole/internal/ledger"
	"github.com/punchamoorthee/ledgerconsole/internal/ledgertest"
)

func newService(t *testing.T) (*Service, *ledgertest.Backend) {
	t.Helper()
	store, err := cache.New(128)
	require.NoError(t, err)
	fake := ledgertest.New()
	fake.AddAccount("a", "Ana", "100.00")
	fake.AddAccount("b", "Bruno", "20.00")
	return NewService(fake, store, nil), fake
}

func TestAccountsAreCachedWithinMaxAge(t *testing.T) {
	svc, fake := newService(t)
	ctx := context.Background()

	_, _, err := svc.Accounts(ctx, 0, 20, time.Minute)
	require.NoError(t, err)
	_, _, err = svc.Accounts(ctx, 0, 20, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, fake.Calls("GetAccounts"))

	_, _, err = svc.Accounts(ctx, 1, 20, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 2, fake.Calls("GetAccounts"), "different page is a different query")
}

func TestCreateAccountInvalidatesLists(t *testing.T) {
	svc, fake := newService(t)
	ctx := context.Background()

	page, _, err := svc.Accounts(ctx, 0, 20, time.Minute)
	require.NoError(t, err)
	assert.Len(t, page.Content, 2)
	_, _, err = svc.Account(ctx, "a", time.Minute)
	require.NoError(t, err)

	_, err = svc.CreateAccount(ctx, domain.CreateAccountRequest{Document: "999", Name: "Carla"})
	require.NoError(t, err)

	page, _, err = svc.Accounts(ctx, 0, 20, time.Minute)
	require.NoError(t, err)
	assert.Len(t, page.Content, 3)
	assert.Equal(t, 2, fake.Calls("GetAccounts"))

	_, _, err = svc.Account(ctx, "a", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, fake.Calls("GetAccount"), "account details survive account creation")
}

func TestTransferInvalidatesBalancesAndStatements(t *testing.T) {
	svc, fake := newService(t)
	ctx := context.Background()

	_, _, err := svc.Account(ctx, "a", time.Minute)
	require.NoError(t, err)
	_, _, err = svc.Statement(ctx, "a", 0, 50, time.Minute)
	require.NoError(t, err)

	_, err = svc.Transfer(ctx, domain.TransferIntent{
		SourceAccountID: "a", TargetAccountID: "b", Amount: decimal.NewFromInt(30), IdempotencyKey: "k1",
	})
	require.NoError(t, err)

	acc, _, err := svc.Account(ctx, "a", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "70", acc.Balance.String())
	assert.Equal(t, 2, fake.Calls("GetAccount"))

	_, _, err = svc.Statement(ctx, "a", 0, 50, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 2, fake.Calls("GetLedger"))
}

func TestFailedTransferKeepsCache(t *testing.T) {
	svc, fake := newService(t)
	ctx := context.Background()

	_, _, err := svc.Account(ctx, "a", time.Minute)
	require.NoError(t, err)

	_, err = svc.Transfer(ctx, domain.TransferIntent{
		SourceAccountID: "a", TargetAccountID: "b", Amount: decimal.NewFromInt(500), IdempotencyKey: "k1",
	})
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	_, _, err = svc.Account(ctx, "a", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, fake.Calls("GetAccount"))
}

package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/punchamoorthee/ledgerconsole/internal/admin"
	"github.com/punchamoorthee/ledgerconsole/internal/balance"
	"github.com/punchamoorthee/ledgerconsole/internal/domain"
	"github.com/punchamoorthee/ledgerconsole/internal/wallet"
)

const directoryPageSize = 100

type accountsLoadedMsg struct {
	accounts []domain.Account
	err      error
}

type pollTickMsg struct{ gen int }

type balanceMsg struct {
	gen  int
	snap balance.Snapshot
}

type transferDoneMsg struct {
	intent domain.TransferIntent
	resp   *domain.TransferResponse
	err    error
}

type toastExpiredMsg struct{}

type statementMsg struct {
	target string // "history" or "ledger"
	page   int
	st     *domain.AccountStatement
	err    error
}

type summaryMsg struct{ summary admin.Summary }

type integrityTickMsg struct{ gen int }

type accountCreatedMsg struct {
	account *domain.Account
	err     error
}

func loadAccountsCmd(ctx context.Context, svc Service, maxAge time.Duration) tea.Cmd {
	return func() tea.Msg {
		page, _, err := svc.Accounts(ctx, 0, directoryPageSize, maxAge)
		if err != nil {
			return accountsLoadedMsg{err: err}
		}
		return accountsLoadedMsg{accounts: page.Content}
	}
}

func pollTickCmd(d time.Duration, gen int) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return pollTickMsg{gen: gen} })
}

// fetchBalanceCmd reloads through the read model. force bypasses the cache.
func fetchBalanceCmd(ctx context.Context, rm *balance.ReadModel, gen int, force bool) tea.Cmd {
	return func() tea.Msg {
		if force {
			return balanceMsg{gen: gen, snap: rm.Reload(ctx)}
		}
		return balanceMsg{gen: gen, snap: rm.Refresh(ctx)}
	}
}

func sendTransferCmd(ctx context.Context, s *wallet.Session, intent domain.TransferIntent) tea.Cmd {
	return func() tea.Msg {
		resp, err := s.Send(ctx, intent)
		return transferDoneMsg{intent: intent, resp: resp, err: err}
	}
}

func toastExpiryCmd() tea.Cmd {
	return tea.Tick(wallet.ToastTTL, func(time.Time) tea.Msg { return toastExpiredMsg{} })
}

func statementCmd(ctx context.Context, svc Service, target, accountID string, page, size int, maxAge time.Duration) tea.Cmd {
	return func() tea.Msg {
		st, _, err := svc.Statement(ctx, accountID, page, size, maxAge)
		return statementMsg{target: target, page: page, st: st, err: err}
	}
}

func summaryCmd(ctx context.Context, m Model) tea.Cmd {
	svc, checker := m.svc, m.checker
	return func() tea.Msg {
		return summaryMsg{summary: admin.LoadSummary(ctx, svc, checker)}
	}
}

func integrityTickCmd(d time.Duration, gen int) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return integrityTickMsg{gen: gen} })
}

func createAccountCmd(ctx context.Context, svc Service, req domain.CreateAccountRequest) tea.Cmd {
	return func() tea.Msg {
		acc, err := admin.CreateAccount(ctx, svc, req)
		return accountCreatedMsg{account: acc, err: err}
	}
}

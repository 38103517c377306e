package tui

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/punchamoorthee/ledgerconsole/internal/admin"
	"github.com/punchamoorthee/ledgerconsole/internal/domain"
	"github.com/punchamoorthee/ledgerconsole/internal/ledger"
	"github.com/punchamoorthee/ledgerconsole/internal/wallet"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case accountsLoadedMsg:
		return m.handleAccountsLoaded(msg)
	case pollTickMsg:
		if msg.gen != m.pollGen || m.tab != tabWallet {
			return m, nil
		}
		return m, tea.Batch(
			fetchBalanceCmd(m.ctx, m.session.ReadModel(), m.pollGen, true),
			pollTickCmd(m.pollInterval, m.pollGen),
		)
	case balanceMsg:
		// The read model already holds the snapshot; this only triggers a redraw.
		return m, nil
	case transferDoneMsg:
		return m.handleTransferDone(msg)
	case toastExpiredMsg:
		return m, nil
	case statementMsg:
		return m.handleStatement(msg)
	case summaryMsg:
		m.summary = &msg.summary
		m.loadingStats = false
		return m, nil
	case integrityTickMsg:
		if msg.gen != m.integrityGen || m.tab != tabDashboard {
			return m, nil
		}
		m.loadingStats = true
		return m, tea.Batch(summaryCmd(m.ctx, m), integrityTickCmd(m.integrityInterval, m.integrityGen))
	case accountCreatedMsg:
		return m.handleAccountCreated(msg)
	}

	var cmd tea.Cmd
	if m.tab == tabWallet {
		if m.focus == focusAmount {
			m.amount, cmd = m.amount.Update(msg)
		} else {
			m.search, cmd = m.search.Update(msg)
		}
	}
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.session.ReadModel().Stop()
		return m, tea.Quit
	case key.Matches(msg, m.keys.NextTab) && !m.creating:
		return m.switchTab((m.tab + 1) % tabCount)
	case key.Matches(msg, m.keys.PrevTab) && !m.creating:
		return m.switchTab((m.tab + tabCount - 1) % tabCount)
	}

	switch m.tab {
	case tabWallet:
		return m.walletKey(msg)
	case tabHistory:
		return m.historyKey(msg)
	case tabDashboard:
		if key.Matches(msg, m.keys.Refresh) {
			m.loadingStats = true
			return m, summaryCmd(m.ctx, m)
		}
	case tabAccounts:
		return m.accountsKey(msg)
	case tabLedger:
		return m.ledgerKey(msg)
	}
	return m, nil
}

// switchTab stops what the old tab was polling and starts the new one.
func (m Model) switchTab(next tab) (tea.Model, tea.Cmd) {
	if next == m.tab {
		return m, nil
	}
	switch m.tab {
	case tabWallet:
		m.session.ReadModel().Stop()
		m.pollGen++
	case tabDashboard:
		m.integrityGen++
	}
	m.tab = next
	m.status = ""

	switch next {
	case tabWallet:
		m.pollGen++
		return m, m.startPolling()
	case tabHistory:
		return m.openHistory(false)
	case tabDashboard:
		m.integrityGen++
		m.loadingStats = true
		return m, tea.Batch(summaryCmd(m.ctx, m), integrityTickCmd(m.integrityInterval, m.integrityGen))
	case tabAccounts:
		return m, loadAccountsCmd(m.ctx, m.svc, m.staleTime)
	case tabLedger:
		return m.openLedger(false)
	}
	return m, nil
}

// Wallet

func (m Model) walletKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.SendMax):
		m.session.SendMax()
		m.amount.SetValue(m.session.Form().Amount)
		m.amount.CursorEnd()
		return m.focusAmount(), nil
	case key.Matches(msg, m.keys.NextSource):
		return m.cycleSource()
	case key.Matches(msg, m.keys.Refresh):
		return m, tea.Batch(
			fetchBalanceCmd(m.ctx, m.session.ReadModel(), m.pollGen, false),
			loadAccountsCmd(m.ctx, m.svc, m.staleTime),
		)
	}

	if m.focus == focusAmount {
		switch {
		case key.Matches(msg, m.keys.Enter):
			return m.submit()
		case key.Matches(msg, m.keys.Back):
			return m.focusRecipients(), nil
		}
		var cmd tea.Cmd
		m.amount, cmd = m.amount.Update(msg)
		m.session.SetAmount(m.amount.Value())
		return m, cmd
	}

	recipients := m.session.Recipients()
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(recipients)-1 {
			m.cursor++
		}
		return m, nil
	case key.Matches(msg, m.keys.Enter):
		if m.cursor < len(recipients) {
			m.session.SetTarget(recipients[m.cursor].ID)
			return m.focusAmount(), nil
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.session.SetSearch(m.search.Value())
	if n := len(m.session.Recipients()); m.cursor >= n {
		m.cursor = max(0, n-1)
	}
	return m, cmd
}

func (m Model) focusAmount() Model {
	m.focus = focusAmount
	m.search.Blur()
	m.amount.Focus()
	return m
}

func (m Model) focusRecipients() Model {
	m.focus = focusRecipients
	m.amount.Blur()
	m.search.Focus()
	return m
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	intent, err := m.session.Prepare()
	if err != nil {
		if errors.Is(err, wallet.ErrCannotSubmit) {
			if v := m.session.Violations(); len(v) > 0 {
				m.setError(v[0])
			} else {
				m.setError("Enter an amount")
			}
			return m, nil
		}
		m.setError(err.Error())
		return m, nil
	}
	m.status = fmt.Sprintf("Sending %s…", formatMoney(intent.Amount))
	m.statusErr = false
	return m, sendTransferCmd(m.ctx, m.session, intent)
}

func (m Model) handleTransferDone(msg transferDoneMsg) (tea.Model, tea.Cmd) {
	m.session.Finish(msg.intent, msg.err)
	m.status = ""
	if msg.err != nil {
		m.logger.Debug("Transfer not applied", "key", msg.intent.IdempotencyKey, "error", msg.err)
		return m, toastExpiryCmd()
	}
	m.amount.SetValue("")
	m.search.SetValue("")
	m.session.SetSearch("")
	m.cursor = 0
	m = m.focusRecipients()

	cmds := []tea.Cmd{
		toastExpiryCmd(),
		fetchBalanceCmd(m.ctx, m.session.ReadModel(), m.pollGen, true),
	}
	if m.history != nil && m.history.AccountID() == msg.intent.SourceAccountID {
		m.history.Reset()
		cmds = append(cmds, m.nextStatementPage(targetHistory, m.history, 0))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) cycleSource() (tea.Model, tea.Cmd) {
	if len(m.accounts) == 0 || m.session.State() == wallet.PendingSend {
		return m, nil
	}
	idx := 0
	cur := m.session.AccountID()
	for i, acc := range m.accounts {
		if acc.ID == cur {
			idx = (i + 1) % len(m.accounts)
			break
		}
	}
	return m.selectSource(m.accounts[idx].ID)
}

func (m Model) selectSource(id string) (tea.Model, tea.Cmd) {
	m.session.SelectAccount(m.ctx, id)
	m.pollGen++
	m.amount.SetValue("")
	m.cursor = 0
	m.history = nil
	if m.tab != tabWallet {
		return m, nil
	}
	return m, m.startPolling()
}

func (m Model) handleAccountsLoaded(msg accountsLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.setError("Could not load accounts: " + ledger.UserMessage(msg.err, "request failed"))
		return m, nil
	}
	m.accounts = msg.accounts
	m.session.SetAccounts(msg.accounts)
	if m.accCursor >= len(m.accounts) {
		m.accCursor = max(0, len(m.accounts)-1)
	}
	var cmds []tea.Cmd
	if m.session.AccountID() == "" && len(m.accounts) > 0 {
		next, cmd := m.selectSource(m.accounts[0].ID)
		m = next.(Model)
		cmds = append(cmds, cmd)
	}
	switch {
	case m.tab == tabHistory && m.history == nil:
		next, cmd := m.openHistory(false)
		m, cmds = next, append(cmds, cmd)
	case m.tab == tabLedger && m.ledger == nil:
		next, cmd := m.openLedger(false)
		m, cmds = next, append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// History

// openHistory starts a statement stream for the wallet account unless one
// is already loaded for it.
func (m Model) openHistory(force bool) (Model, tea.Cmd) {
	id := m.session.AccountID()
	if id == "" {
		return m, nil
	}
	if m.history != nil && m.history.AccountID() == id && !force {
		return m, nil
	}
	m.history = admin.NewStream(m.svc, id, ledger.DefaultLedgerPageSize, m.staleTime)
	return m, m.nextStatementPage(targetHistory, m.history, m.staleTime)
}

func (m Model) historyKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.More):
		if m.history != nil && m.history.HasMore() {
			return m, m.nextStatementPage(targetHistory, m.history, m.staleTime)
		}
	case key.Matches(msg, m.keys.Refresh):
		if m.history != nil {
			m.history.Reset()
			return m, m.nextStatementPage(targetHistory, m.history, 0)
		}
	}
	return m, nil
}

func (m Model) nextStatementPage(target string, s *admin.Stream, maxAge time.Duration) tea.Cmd {
	return statementCmd(m.ctx, m.svc, target, s.AccountID(), s.Pages(), s.Size(), maxAge)
}

// Accounts

func (m Model) accountsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.creating {
		return m.createFormKey(msg)
	}
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.accCursor > 0 {
			m.accCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.accCursor < len(m.accounts)-1 {
			m.accCursor++
		}
	case key.Matches(msg, m.keys.Enter):
		if m.accCursor < len(m.accounts) && m.session.State() != wallet.PendingSend {
			acc := m.accounts[m.accCursor]
			m.status = "Wallet now uses " + acc.Name
			m.statusErr = false
			return m.selectSource(acc.ID)
		}
	case key.Matches(msg, m.keys.New):
		m.creating = true
		m.formField = 0
		m.formErrs = nil
		m.docInput.SetValue("")
		m.nameInput.SetValue("")
		m.docInput.Focus()
		m.nameInput.Blur()
	case key.Matches(msg, m.keys.Refresh):
		return m, loadAccountsCmd(m.ctx, m.svc, 0)
	}
	return m, nil
}

func (m Model) createFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.creating = false
		m.formErrs = nil
		return m, nil
	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
		return m.toggleFormField(), nil
	case key.Matches(msg, m.keys.Enter):
		if m.formField == 0 {
			return m.toggleFormField(), nil
		}
		req := domain.CreateAccountRequest{Document: m.docInput.Value(), Name: m.nameInput.Value()}
		if errs := admin.ValidateNewAccount(req); len(errs) > 0 {
			m.formErrs = errs
			return m, nil
		}
		m.formErrs = nil
		m.status = "Creating account…"
		m.statusErr = false
		return m, createAccountCmd(m.ctx, m.svc, req)
	}

	var cmd tea.Cmd
	if m.formField == 0 {
		m.docInput, cmd = m.docInput.Update(msg)
	} else {
		m.nameInput, cmd = m.nameInput.Update(msg)
	}
	return m, cmd
}

func (m Model) toggleFormField() Model {
	if m.formField == 0 {
		m.formField = 1
		m.docInput.Blur()
		m.nameInput.Focus()
	} else {
		m.formField = 0
		m.nameInput.Blur()
		m.docInput.Focus()
	}
	return m
}

func (m Model) handleAccountCreated(msg accountCreatedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if le, ok := ledger.AsError(msg.err); ok && len(le.Problem.Errors) > 0 {
			m.formErrs = le.Problem.Errors
			m.status = ""
			return m, nil
		}
		m.setError(ledger.UserMessage(msg.err, "Could not create account"))
		return m, nil
	}
	m.creating = false
	m.status = fmt.Sprintf("Created account for %s", msg.account.Name)
	m.statusErr = false
	return m, loadAccountsCmd(m.ctx, m.svc, 0)
}

// Ledger

// openLedger streams the statement of the account under the accounts cursor.
func (m Model) openLedger(force bool) (Model, tea.Cmd) {
	if m.accCursor >= len(m.accounts) {
		return m, nil
	}
	id := m.accounts[m.accCursor].ID
	if m.ledger != nil && m.ledger.AccountID() == id && !force {
		return m, nil
	}
	m.ledger = admin.NewStream(m.svc, id, ledger.DefaultLedgerPageSize, m.staleTime)
	m.ledgerTable.SetRows(nil)
	m.ledgerTable.SetCursor(0)
	return m, m.nextStatementPage(targetLedger, m.ledger, m.staleTime)
}

func (m Model) ledgerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.NextSource):
		if len(m.accounts) == 0 {
			return m, nil
		}
		m.accCursor = (m.accCursor + 1) % len(m.accounts)
		return m.openLedger(false)
	case key.Matches(msg, m.keys.More):
		if m.ledger != nil && m.ledger.HasMore() {
			return m, m.nextStatementPage(targetLedger, m.ledger, m.staleTime)
		}
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		return m.openLedger(true)
	}
	var cmd tea.Cmd
	m.ledgerTable, cmd = m.ledgerTable.Update(msg)
	return m, cmd
}

func (m Model) handleStatement(msg statementMsg) (tea.Model, tea.Cmd) {
	stream := m.history
	if msg.target == targetLedger {
		stream = m.ledger
	}
	if stream == nil {
		return m, nil
	}
	if msg.err != nil {
		m.setError("Could not load statement: " + ledger.UserMessage(msg.err, "request failed"))
		return m, nil
	}
	if !stream.Append(msg.page, msg.st) {
		return m, nil
	}
	if msg.target == targetLedger {
		m.ledgerTable.SetRows(ledgerRows(stream.Entries()))
	}
	return m, nil
}

func ledgerRows(entries []domain.LedgerEntry) []table.Row {
	rows := make([]table.Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, table.Row{
			e.CreatedAt.Local().Format("Jan 02 15:04"),
			e.EntryType,
			formatMoney(e.Signed()),
			formatMoney(e.BalanceAfter),
			shortID(e.TransactionID),
		})
	}
	return rows
}

func (m *Model) setError(s string) {
	m.status = s
	m.statusErr = true
}

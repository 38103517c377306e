package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/punchamoorthee/ledgerconsole/internal/balance"
	"github.com/punchamoorthee/ledgerconsole/internal/domain"
	"github.com/punchamoorthee/ledgerconsole/internal/wallet"
)

const maxListRows = 10

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Ledger Console"))
	b.WriteString("\n")
	b.WriteString(m.tabsView())
	b.WriteString("\n\n")

	switch m.tab {
	case tabWallet:
		b.WriteString(m.walletView())
	case tabHistory:
		b.WriteString(m.historyView())
	case tabDashboard:
		b.WriteString(m.dashboardView())
	case tabAccounts:
		b.WriteString(m.accountsView())
	case tabLedger:
		b.WriteString(m.ledgerView())
	}

	b.WriteString("\n")
	if t, ok := m.session.Toast(); ok {
		style := toastSuccess
		if t.Kind == wallet.ToastError {
			style = toastError
		}
		b.WriteString(style.Render(t.Text))
		b.WriteString("\n")
	}
	if m.status != "" {
		if m.statusErr {
			b.WriteString(errorStyle.Render(m.status))
		} else {
			b.WriteString(infoStyle.Render(m.status))
		}
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render(m.helpLine()))
	return b.String()
}

func (m Model) tabsView() string {
	parts := make([]string, 0, tabCount)
	for i, name := range tabNames {
		if tab(i) == m.tab {
			parts = append(parts, activeTabStyle.Render(name))
		} else {
			parts = append(parts, tabStyle.Render(name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) helpLine() string {
	global := "tab switch · ctrl+c quit"
	switch m.tab {
	case tabWallet:
		return "↑/↓ pick · enter select/send · esc back · ctrl+a send max · ctrl+s switch account · ctrl+r refresh · " + global
	case tabHistory:
		return "ctrl+n load more · ctrl+r reload · " + global
	case tabDashboard:
		return "ctrl+r refresh · " + global
	case tabAccounts:
		if m.creating {
			return "↑/↓ field · enter next/create · esc cancel"
		}
		return "↑/↓ move · enter use in wallet · ctrl+o new account · ctrl+r reload · " + global
	case tabLedger:
		return "↑/↓ scroll · ctrl+s next account · ctrl+n load more · ctrl+r reload · " + global
	}
	return global
}

// Wallet

func (m Model) walletView() string {
	if m.session.AccountID() == "" {
		return mutedStyle.Render("No accounts yet. Create one on the Accounts tab.")
	}
	card := m.balanceCard()

	recipientsStyle, amountStyle := focusedPanelStyle, panelStyle
	if m.focus == focusAmount {
		recipientsStyle, amountStyle = panelStyle, focusedPanelStyle
	}
	recipients := recipientsStyle.Render(m.recipientsView())
	amount := amountStyle.Render(m.amountView())

	return lipgloss.JoinVertical(lipgloss.Left,
		card,
		lipgloss.JoinHorizontal(lipgloss.Top, recipients, " ", amount),
	)
}

func (m Model) balanceCard() string {
	snap := m.session.Balance()
	name := snap.AccountID
	if acc := m.activeAccount(); acc != nil {
		name = acc.Name
	}

	var lines []string
	header := textStyle.Render(name) + " " + mutedStyle.Render(shortID(snap.AccountID)) + "  " + badge(snap)
	lines = append(lines, header)

	switch {
	case !snap.Loaded && snap.Loading:
		lines = append(lines, mutedStyle.Render("Loading balance…"))
	case !snap.Loaded:
		lines = append(lines, mutedStyle.Render("Balance unavailable"))
	default:
		style := balanceStyle
		switch snap.Direction {
		case balance.Up:
			style = upStyle
		case balance.Down:
			style = downStyle
		}
		lines = append(lines, style.Render(formatMoney(m.session.Displayed())))
		if pending := m.session.Pending(); pending.IsPositive() {
			lines = append(lines,
				pendingStyle.Render("Pending "+formatMoney(pending.Neg())),
				labelStyle.Render("Confirmed "+formatMoney(snap.Balance)))
		}
	}
	lines = append(lines, mutedStyle.Render("Updated "+ago(m.now(), snap.UpdatedAt)))
	return panelStyle.Render(strings.Join(lines, "\n"))
}

func badge(snap balance.Snapshot) string {
	switch {
	case snap.Offline():
		return offlineBadge.Render("OFFLINE")
	case snap.Loaded:
		return liveBadge.Render("LIVE")
	default:
		return unknownBadge.Render("…")
	}
}

func (m Model) recipientsView() string {
	var lines []string
	lines = append(lines, labelStyle.Render("Send to"), m.search.View())

	target := m.session.Form().TargetAccountID
	recipients := m.session.Recipients()
	if len(recipients) == 0 {
		lines = append(lines, mutedStyle.Render("No recipients"))
	}
	start := 0
	if m.cursor >= maxListRows {
		start = m.cursor - maxListRows + 1
	}
	for i := start; i < len(recipients) && i < start+maxListRows; i++ {
		acc := recipients[i]
		mark := "  "
		if acc.ID == target {
			mark = "✓ "
		}
		row := fmt.Sprintf("%s%-20s %s", mark, truncate(acc.Name, 20), mutedStyle.Render(acc.Document))
		if i == m.cursor && m.focus == focusRecipients {
			row = cursorStyle.Render(fmt.Sprintf("%s%-20s %s", mark, truncate(acc.Name, 20), acc.Document))
		}
		lines = append(lines, row)
	}
	return strings.Join(lines, "\n")
}

func (m Model) amountView() string {
	var lines []string
	lines = append(lines, labelStyle.Render("Amount"), m.amount.View())

	if left, ok := m.session.Remaining(); ok {
		lines = append(lines, mutedStyle.Render("Remaining "+formatMoney(left)))
	}
	for _, v := range m.session.Violations() {
		lines = append(lines, errorStyle.Render("• "+v))
	}
	switch {
	case m.session.State() == wallet.PendingSend:
		lines = append(lines, pendingStyle.Render("Sending…"))
	case m.session.CanSubmit():
		lines = append(lines, successStyle.Render("enter to send"))
	}
	return strings.Join(lines, "\n")
}

// History

func (m Model) historyView() string {
	if m.history == nil {
		return mutedStyle.Render("Select a wallet account to see its history.")
	}
	var lines []string
	title := m.history.AccountName()
	if title == "" {
		title = shortID(m.history.AccountID())
	}
	lines = append(lines, textStyle.Render(title)+"  "+labelStyle.Render("Balance "+formatMoney(m.history.Balance())))

	entries := m.history.Entries()
	if len(entries) == 0 {
		if m.history.Pages() == 0 {
			lines = append(lines, mutedStyle.Render("Loading…"))
		} else {
			lines = append(lines, mutedStyle.Render("No transactions yet"))
		}
	}
	for _, e := range entries {
		label, style := "Received", upStyle
		if e.EntryType == domain.EntryDebit {
			label, style = "Sent", downStyle
		}
		lines = append(lines, fmt.Sprintf("%s  %-8s %s  %s",
			mutedStyle.Render(e.CreatedAt.Local().Format("Jan 02 15:04")),
			label,
			style.Render(fmt.Sprintf("%12s", formatMoney(e.Signed()))),
			mutedStyle.Render("bal "+formatMoney(e.BalanceAfter))))
	}
	if m.history.HasMore() && m.history.Pages() > 0 {
		lines = append(lines, mutedStyle.Render("ctrl+n for older entries"))
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}

// Dashboard

func (m Model) dashboardView() string {
	if m.summary == nil {
		return mutedStyle.Render("Loading system status…")
	}
	s := m.summary
	health := unknownBadge.Render(s.Health)
	switch s.Health {
	case domain.HealthUp:
		health = liveBadge.Render(s.Health)
	case domain.HealthDown:
		health = offlineBadge.Render(s.Health)
	}

	lines := []string{
		labelStyle.Render("Backend ") + health,
		labelStyle.Render("Accounts ") + textStyle.Render(fmt.Sprint(s.Accounts)),
		labelStyle.Render("Total balance ") + textStyle.Render(formatMoney(s.TotalBalance)),
	}
	switch {
	case s.IntegrityErr != nil:
		lines = append(lines, errorStyle.Render("Integrity check failed: "+s.IntegrityErr.Error()))
	case s.Integrity != nil && s.Integrity.Balanced:
		lines = append(lines, successStyle.Render(fmt.Sprintf("✓ Balanced · %d entries · delta %s",
			s.Integrity.Entries, formatMoney(s.Integrity.Delta))))
	case s.Integrity != nil:
		lines = append(lines, errorStyle.Render(fmt.Sprintf("✗ Out of balance · delta %s", formatMoney(s.Integrity.Delta))))
		for _, mm := range s.Integrity.Mismatches {
			lines = append(lines, errorStyle.Render(fmt.Sprintf("  %s: balance %s, entries %s",
				mm.Name, formatMoney(mm.Balance), formatMoney(mm.EntriesSum))))
		}
	}
	checked := "Checked " + ago(m.now(), s.UpdatedAt)
	if m.loadingStats {
		checked += " · refreshing"
	}
	lines = append(lines, mutedStyle.Render(checked))
	return panelStyle.Render(strings.Join(lines, "\n"))
}

// Accounts

func (m Model) accountsView() string {
	var lines []string
	if len(m.accounts) == 0 {
		lines = append(lines, mutedStyle.Render("No accounts"))
	}
	active := m.session.AccountID()
	for i, acc := range m.accounts {
		mark := "  "
		if acc.ID == active {
			mark = "● "
		}
		row := fmt.Sprintf("%s%-24s %-14s %14s  %s", mark, truncate(acc.Name, 24), truncate(acc.Document, 14),
			formatMoney(acc.Balance), acc.CreatedAt.Local().Format("2006-01-02"))
		if i == m.accCursor && !m.creating {
			row = cursorStyle.Render(row)
		}
		lines = append(lines, row)
	}
	list := panelStyle.Render(strings.Join(lines, "\n"))
	if !m.creating {
		return list
	}

	form := []string{
		titleStyle.Render("New account"),
		labelStyle.Render("Document"), m.docInput.View(),
		labelStyle.Render("Name"), m.nameInput.View(),
	}
	for _, fe := range m.formErrs {
		form = append(form, errorStyle.Render("• "+fe.Message))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, list, " ", focusedPanelStyle.Render(strings.Join(form, "\n")))
}

// Ledger

func (m Model) ledgerView() string {
	if m.ledger == nil {
		return mutedStyle.Render("No account selected")
	}
	name := m.ledger.AccountName()
	if name == "" {
		name = shortID(m.ledger.AccountID())
	}
	header := textStyle.Render(name) + "  " + labelStyle.Render("Balance "+formatMoney(m.ledger.Balance())) +
		"  " + mutedStyle.Render(fmt.Sprintf("%d entries", len(m.ledger.Entries())))
	if m.ledger.HasMore() && m.ledger.Pages() > 0 {
		header += mutedStyle.Render(" · more available")
	}
	return header + "\n" + m.ledgerTable.View()
}

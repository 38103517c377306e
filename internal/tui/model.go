// Package tui is the terminal front end: wallet, history, dashboard,
// accounts and ledger tabs over the shared query service.
package tui

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/punchamoorthee/ledgerconsole/internal/admin"
	"github.com/punchamoorthee/ledgerconsole/internal/balance"
	"github.com/punchamoorthee/ledgerconsole/internal/domain"
	"github.com/punchamoorthee/ledgerconsole/internal/integrity"
	"github.com/punchamoorthee/ledgerconsole/internal/wallet"
)

type tab int

const (
	tabWallet tab = iota
	tabHistory
	tabDashboard
	tabAccounts
	tabLedger
	tabCount
)

var tabNames = [tabCount]string{"Wallet", "History", "Dashboard", "Accounts", "Ledger"}

const (
	targetHistory = "history"
	targetLedger  = "ledger"
)

type walletFocus int

const (
	focusRecipients walletFocus = iota
	focusAmount
)

// Service is the read/write surface the UI needs. *query.Service implements it.
type Service interface {
	wallet.Service
	admin.HealthReader
	admin.AccountCreator
	admin.StatementReader
	integrity.Reader
}

// Options configures New.
type Options struct {
	PollInterval      time.Duration
	StaleTime         time.Duration
	IntegrityInterval time.Duration
	Logger            *slog.Logger
	Now               func() time.Time
}

// Model is the root bubbletea model.
type Model struct {
	ctx     context.Context
	svc     Service
	session *wallet.Session
	checker *integrity.Checker
	keys    keyMap
	logger  *slog.Logger
	now     func() time.Time

	pollInterval      time.Duration
	staleTime         time.Duration
	integrityInterval time.Duration

	width, height int
	tab           tab

	// wallet
	search  textinput.Model
	amount  textinput.Model
	focus   walletFocus
	cursor  int
	pollGen int

	// history
	history *admin.Stream

	// dashboard
	summary      *admin.Summary
	loadingStats bool
	integrityGen int

	// accounts
	accounts  []domain.Account
	accCursor int
	creating  bool
	docInput  textinput.Model
	nameInput textinput.Model
	formField int
	formErrs  []domain.FieldError

	// ledger
	ledger      *admin.Stream
	ledgerTable table.Model

	status    string
	statusErr bool
}

// New builds the root model. The session decides the initial account.
func New(ctx context.Context, svc Service, session *wallet.Session, checker *integrity.Checker, opts Options) Model {
	if opts.PollInterval <= 0 {
		opts.PollInterval = balance.DefaultInterval
	}
	if opts.StaleTime <= 0 {
		opts.StaleTime = balance.DefaultStaleTime
	}
	if opts.IntegrityInterval <= 0 {
		opts.IntegrityInterval = integrity.DefaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	search := textinput.New()
	search.Placeholder = "Search recipients"
	search.Prompt = "🔍 "
	search.Focus()

	amount := textinput.New()
	amount.Placeholder = "0.00"
	amount.Prompt = "$ "
	amount.CharLimit = 16

	doc := textinput.New()
	doc.Placeholder = "Document"
	doc.CharLimit = admin.MaxDocumentLen
	name := textinput.New()
	name.Placeholder = "Full name"
	name.CharLimit = admin.MaxNameLen

	return Model{
		ctx:               ctx,
		svc:               svc,
		session:           session,
		checker:           checker,
		keys:              newKeyMap(),
		logger:            opts.Logger,
		now:               opts.Now,
		pollInterval:      opts.PollInterval,
		staleTime:         opts.StaleTime,
		integrityInterval: opts.IntegrityInterval,
		search:            search,
		amount:            amount,
		docInput:          doc,
		nameInput:         name,
		ledgerTable:       newLedgerTable(),
	}
}

func newLedgerTable() table.Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "When", Width: 12},
			{Title: "Type", Width: 6},
			{Title: "Amount", Width: 14},
			{Title: "Balance after", Width: 14},
			{Title: "Transaction", Width: 10},
		}),
		table.WithHeight(12),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.Foreground(colorAccent).Bold(true)
	s.Selected = s.Selected.Foreground(colorBase).Background(colorBlue)
	t.SetStyles(s)
	return t
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		loadAccountsCmd(m.ctx, m.svc, m.staleTime),
		m.startPolling(),
		textinput.Blink,
	)
}

// startPolling fetches now (cache allowed) and schedules the next tick.
func (m Model) startPolling() tea.Cmd {
	if !m.session.ReadModel().Enabled() {
		return nil
	}
	return tea.Batch(
		fetchBalanceCmd(m.ctx, m.session.ReadModel(), m.pollGen, false),
		pollTickCmd(m.pollInterval, m.pollGen),
	)
}

func (m Model) activeAccount() *domain.Account {
	id := m.session.AccountID()
	for i := range m.accounts {
		if m.accounts[i].ID == id {
			return &m.accounts[i]
		}
	}
	return nil
}

package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Entry types reported by the ledger for each leg of a transfer.
const (
	EntryDebit  = "DEBIT"
	EntryCredit = "CREDIT"
)

// Transfer statuses.
const (
	TransferPending   = "PENDING"
	TransferCompleted = "COMPLETED"
	TransferFailed    = "FAILED"
)

// Health statuses reported by the actuator endpoint.
const (
	HealthUp      = "UP"
	HealthDown    = "DOWN"
	HealthUnknown = "UNKNOWN"
)

// Account is the console's read-only copy of a ledger account.
type Account struct {
	ID        string          `json:"id"`
	Document  string          `json:"document"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Page is the paginated envelope returned by list endpoints.
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Size          int   `json:"size"`
	Number        int   `json:"number"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
	Empty         bool  `json:"empty"`
}

// CreateAccountRequest is the body of POST /accounts.
type CreateAccountRequest struct {
	Document string `json:"document"`
	Name     string `json:"name"`
}

// TransferRequest is the body of POST /transfers.
type TransferRequest struct {
	SourceAccountID string          `json:"sourceAccountId"`
	TargetAccountID string          `json:"targetAccountId"`
	Amount          decimal.Decimal `json:"amount"`
}

// MarshalJSON sends the amount as a JSON number with exactly two decimals.
func (r TransferRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		SourceAccountID string      `json:"sourceAccountId"`
		TargetAccountID string      `json:"targetAccountId"`
		Amount          json.Number `json:"amount"`
	}{r.SourceAccountID, r.TargetAccountID, json.Number(r.Amount.StringFixed(2))})
}

// TransferIntent is one user-initiated transfer. It is built once per submit
// and its key is reused for every network attempt of that submit.
type TransferIntent struct {
	SourceAccountID string
	TargetAccountID string
	Amount          decimal.Decimal
	IdempotencyKey  string
}

// Request returns the wire body for the intent.
func (i TransferIntent) Request() TransferRequest {
	return TransferRequest{
		SourceAccountID: i.SourceAccountID,
		TargetAccountID: i.TargetAccountID,
		Amount:          i.Amount,
	}
}

// TransferResponse is the backend's record of an executed transfer.
type TransferResponse struct {
	TransactionID   string          `json:"transactionId"`
	SourceAccountID string          `json:"sourceAccountId"`
	TargetAccountID string          `json:"targetAccountId"`
	Amount          decimal.Decimal `json:"amount"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// LedgerEntry is one leg of a double-entry transaction.
type LedgerEntry struct {
	ID            string          `json:"id"`
	TransactionID string          `json:"transactionId"`
	EntryType     string          `json:"entryType"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceAfter  decimal.Decimal `json:"balanceAfter"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Signed returns the entry amount as seen by the account: credits positive,
// debits negative.
func (e LedgerEntry) Signed() decimal.Decimal {
	if e.EntryType == EntryDebit {
		return e.Amount.Neg()
	}
	return e.Amount
}

// AccountStatement is one page of an account's ledger, newest entries first.
type AccountStatement struct {
	AccountID      string          `json:"accountId"`
	AccountName    string          `json:"accountName"`
	CurrentBalance decimal.Decimal `json:"currentBalance"`
	Entries        []LedgerEntry   `json:"entries"`
}

// HealthComponent is a single actuator health contributor.
type HealthComponent struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

// HealthStatus is the actuator health document.
type HealthStatus struct {
	Status     string                     `json:"status"`
	Components map[string]HealthComponent `json:"components,omitempty"`
}

// FieldError is a field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Problem is the structured error body returned for non-2xx responses.
type Problem struct {
	Type      string       `json:"type"`
	Title     string       `json:"title"`
	Status    int          `json:"status"`
	Detail    string       `json:"detail"`
	Instance  string       `json:"instance"`
	Timestamp string       `json:"timestamp"`
	Errors    []FieldError `json:"errors,omitempty"`
}

// Package transfer holds the pre-flight rules for the transfer form.
package transfer

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/punchamoorthee/ledgerconsole/internal/domain"
)

// Violation messages, in the order they are reported.
const (
	MsgAmountNotPositive = "Amount must be greater than 0"
	MsgInsufficientFunds = "Insufficient funds"
	MsgSelectRecipient   = "Select a recipient"
	MsgSelfTransfer      = "Cannot transfer to self"
)

// plainAmount is what a person types: digits with an optional sign and
// decimal point. Exponents are rejected so rounding stays cheap.
var plainAmount = regexp.MustCompile(`^-?[0-9]*\.?[0-9]*$`)

// Form is the transfer form as the user currently sees it.
type Form struct {
	SourceAccountID string
	TargetAccountID string
	// Amount is the raw text of the amount field.
	Amount string
	// Balance is the source account's last authoritative balance; zero when
	// not yet loaded.
	Balance decimal.Decimal
	// Pending is set while a transfer from the source is in flight.
	Pending bool
}

// ParseAmount reads a user-typed amount rounded to cents. A leading "$" and
// thousands separators are accepted. ok is false for empty or unparsable
// input.
func ParseAmount(raw string) (amount decimal.Decimal, ok bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || !plainAmount.MatchString(s) {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	// Round then re-parse so comparisons see exactly two decimals.
	cents, err := decimal.NewFromString(d.StringFixed(2))
	if err != nil {
		return decimal.Zero, false
	}
	return cents, true
}

// Validate returns every violation for f, amount rules first. Amount rules
// only report once the amount field has text.
func Validate(f Form) []string {
	var errs []string

	if strings.TrimSpace(f.Amount) != "" {
		amount, ok := ParseAmount(f.Amount)
		if !ok || !amount.IsPositive() {
			errs = append(errs, MsgAmountNotPositive)
		} else if amount.GreaterThan(f.Balance) {
			errs = append(errs, MsgInsufficientFunds)
		}
	}

	switch {
	case f.TargetAccountID == "":
		errs = append(errs, MsgSelectRecipient)
	case f.TargetAccountID == f.SourceAccountID:
		errs = append(errs, MsgSelfTransfer)
	}
	return errs
}

// CanSubmit reports whether the submit action is enabled.
func CanSubmit(f Form) bool {
	if f.SourceAccountID == "" || f.Pending {
		return false
	}
	if _, ok := ParseAmount(f.Amount); !ok {
		return false
	}
	return len(Validate(f)) == 0
}

// SendMax is the amount text the "send max" shortcut fills in.
func SendMax(balance decimal.Decimal) string {
	return balance.StringFixed(2)
}

// Remaining previews the source balance after the transfer. ok is false
// unless the amount is a valid positive value within the balance.
func Remaining(f Form) (decimal.Decimal, bool) {
	amount, ok := ParseAmount(f.Amount)
	if !ok || !amount.IsPositive() || amount.GreaterThan(f.Balance) {
		return decimal.Zero, false
	}
	return f.Balance.Sub(amount), true
}

// Recipients lists the accounts that may receive from sourceID, filtered by
// a case-insensitive match on name or document. The source is never listed.
func Recipients(accounts []domain.Account, sourceID, search string) []domain.Account {
	needle := strings.ToLower(strings.TrimSpace(search))
	out := make([]domain.Account, 0, len(accounts))
	for _, acc := range accounts {
		if acc.ID == sourceID {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(acc.Name), needle) &&
			!strings.Contains(strings.ToLower(acc.Document), needle) {
			continue
		}
		out = append(out, acc)
	}
	return out
}

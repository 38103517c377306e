package transfer

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/punchamoorthee/ledgerconsole/internal/domain"
)

func form(amount string) Form {
	return Form{
		SourceAccountID: "src",
		TargetAccountID: "dst",
		Amount:          amount,
		Balance:         decimal.NewFromInt(100),
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"12.5", "12.5", true},
		{" 0.1 ", "0.1", true},
		{"$1,250.00", "1250", true},
		{"10.005", "10.01", true},
		{"0.004", "0", true},
		{"", "0", false},
		{"abc", "0", false},
		{"-3", "-3", true},
		{"1e-99999999", "0", false},
		{"1e5", "0", false},
		{"12.5.1", "0", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseAmount(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		form Form
		want []string
	}{
		{"valid", form("40"), nil},
		{"exact balance", form("100.00"), nil},
		{"zero", form("0"), []string{MsgAmountNotPositive}},
		{"negative", form("-5"), []string{MsgAmountNotPositive}},
		{"rounds to zero", form("0.001"), []string{MsgAmountNotPositive}},
		{"garbage", form("ten"), []string{MsgAmountNotPositive}},
		{"exponent", form("1e-99999999"), []string{MsgAmountNotPositive}},
		{"over balance", form("200"), []string{MsgInsufficientFunds}},
		{"empty amount", form(""), nil},
		{"no recipient", Form{SourceAccountID: "src", Amount: "0", Balance: decimal.NewFromInt(100)},
			[]string{MsgAmountNotPositive, MsgSelectRecipient}},
		{"self", Form{SourceAccountID: "src", TargetAccountID: "src", Amount: "500", Balance: decimal.NewFromInt(100)},
			[]string{MsgInsufficientFunds, MsgSelfTransfer}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Validate(tt.form))
		})
	}
}

func TestCanSubmit(t *testing.T) {
	assert.True(t, CanSubmit(form("40")))

	empty := form("")
	assert.False(t, CanSubmit(empty), "empty amount blocks submit")

	pending := form("40")
	pending.Pending = true
	assert.False(t, CanSubmit(pending))

	noSource := form("40")
	noSource.SourceAccountID = ""
	assert.False(t, CanSubmit(noSource))

	assert.False(t, CanSubmit(form("200")))
}

func TestSendMax(t *testing.T) {
	assert.Equal(t, "1000.00", SendMax(decimal.NewFromInt(1000)))
	assert.Equal(t, "12.50", SendMax(decimal.RequireFromString("12.5")))

	f := form(SendMax(decimal.NewFromInt(100)))
	assert.True(t, CanSubmit(f))
}

func TestRemaining(t *testing.T) {
	left, ok := Remaining(form("40.25"))
	assert.True(t, ok)
	assert.Equal(t, "59.75", left.String())

	_, ok = Remaining(form("101"))
	assert.False(t, ok)
}

func TestRecipientsExcludeSource(t *testing.T) {
	accounts := []domain.Account{
		{ID: "a", Name: "Alice", Document: "111"},
		{ID: "b", Name: "Bob", Document: "222"},
		{ID: "c", Name: "Carol", Document: "333"},
	}
	for _, src := range []string{"a", "b", "c", "zzz", ""} {
		for _, acc := range Recipients(accounts, src, "") {
			assert.NotEqual(t, src, acc.ID)
		}
	}
	assert.Len(t, Recipients(accounts, "a", ""), 2)
	assert.Len(t, Recipients(accounts, "zzz", ""), 3)
}

func TestRecipientsSearch(t *testing.T) {
	accounts := []domain.Account{
		{ID: "a", Name: "Alice", Document: "111"},
		{ID: "b", Name: "Bob", Document: "222"},
		{ID: "c", Name: "Carol", Document: "333"},
	}
	got := Recipients(accounts, "b", "AL")
	if assert.Len(t, got, 1) {
		assert.Equal(t, "a", got[0].ID)
	}
	got = Recipients(accounts, "a", "33")
	if assert.Len(t, got, 1) {
		assert.Equal(t, "c", got[0].ID)
	}
	assert.Empty(t, Recipients(accounts, "a", "alice"))
}

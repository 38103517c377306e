package admin

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/punchamoorthee/ledgerconsole/internal/domain"
	"github.com/punchamoorthee/ledgerconsole/internal/ledger"
	"github.com/punchamoorthee/ledgerconsole/internal/ledgertest"
)

func TestValidateNewAccount(t *testing.T) {
	tests := []struct {
		name   string
		req    domain.CreateAccountRequest
		fields []string
	}{
		{"ok", domain.CreateAccountRequest{Document: "12345678900", Name: "Ana Souza"}, nil},
		{"blank", domain.CreateAccountRequest{Document: "  ", Name: ""}, []string{"document", "name"}},
		{"long document", domain.CreateAccountRequest{Document: strings.Repeat("1", 21), Name: "Ana"}, []string{"document"}},
		{"max document", domain.CreateAccountRequest{Document: strings.Repeat("1", 20), Name: "Ana"}, nil},
		{"long name", domain.CreateAccountRequest{Document: "1", Name: strings.Repeat("é", 101)}, []string{"name"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, fe := range ValidateNewAccount(tt.req) {
				got = append(got, fe.Field)
			}
			assert.Equal(t, tt.fields, got)
		})
	}
}

func TestCreateAccountRejectsLocally(t *testing.T) {
	fake := ledgertest.New()
	_, err := CreateAccount(context.Background(), fake, domain.CreateAccountRequest{Document: "1"})

	require.ErrorIs(t, err, ledger.ErrValidation)
	le, ok := ledger.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "Name is required", le.Message())
	assert.Zero(t, fake.Calls("CreateAccount"))
}

func TestCreateAccountTrimsAndSubmits(t *testing.T) {
	fake := ledgertest.New()
	acc, err := CreateAccount(context.Background(), fake, domain.CreateAccountRequest{Document: " 42 ", Name: " Ana "})
	require.NoError(t, err)
	assert.Equal(t, "42", acc.Document)
	assert.Equal(t, "Ana", acc.Name)

	_, err = CreateAccount(context.Background(), fake, domain.CreateAccountRequest{Document: "42", Name: "Other"})
	assert.ErrorIs(t, err, ledger.ErrConflict)
}

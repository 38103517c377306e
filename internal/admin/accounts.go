// Package admin backs the operator screens: account management, statement
// browsing and the system dashboard.
package admin

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/punchamoorthee/ledgerconsole/internal/domain"
	"github.com/punchamoorthee/ledgerconsole/internal/ledger"
)

// Field limits enforced before the request is sent.
const (
	MaxDocumentLen = 20
	MaxNameLen     = 100
)

// AccountCreator opens accounts. *query.Service implements it.
type AccountCreator interface {
	CreateAccount(ctx context.Context, req domain.CreateAccountRequest) (*domain.Account, error)
}

// ValidateNewAccount checks a create request after trimming it.
func ValidateNewAccount(req domain.CreateAccountRequest) []domain.FieldError {
	var errs []domain.FieldError
	doc, name := strings.TrimSpace(req.Document), strings.TrimSpace(req.Name)

	switch {
	case doc == "":
		errs = append(errs, domain.FieldError{Field: "document", Message: "Document is required"})
	case utf8.RuneCountInString(doc) > MaxDocumentLen:
		errs = append(errs, domain.FieldError{Field: "document",
			Message: fmt.Sprintf("Document must be at most %d characters", MaxDocumentLen)})
	}
	switch {
	case name == "":
		errs = append(errs, domain.FieldError{Field: "name", Message: "Name is required"})
	case utf8.RuneCountInString(name) > MaxNameLen:
		errs = append(errs, domain.FieldError{Field: "name",
			Message: fmt.Sprintf("Name must be at most %d characters", MaxNameLen)})
	}
	return errs
}

// CreateAccount validates and submits req. Local validation failures come
// back as a Validation *ledger.Error carrying the field errors, so callers
// handle them like a backend rejection.
func CreateAccount(ctx context.Context, c AccountCreator, req domain.CreateAccountRequest) (*domain.Account, error) {
	if errs := ValidateNewAccount(req); len(errs) > 0 {
		return nil, &ledger.Error{Kind: ledger.KindValidation, Problem: domain.Problem{
			Type:   "/errors/validation-failed",
			Title:  "Validation Failed",
			Detail: errs[0].Message,
			Errors: errs,
		}}
	}
	return c.CreateAccount(ctx, domain.CreateAccountRequest{
		Document: strings.TrimSpace(req.Document),
		Name:     strings.TrimSpace(req.Name),
	})
}

package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/punchamoorthee/ledgerconsole/internal/domain"
)

// Kind classifies a failed ledger call.
type Kind string

const (
	KindNotFound          Kind = "NotFound"
	KindValidation        Kind = "Validation"
	KindInsufficientFunds Kind = "InsufficientFunds"
	KindConflict          Kind = "Conflict"
	KindServer            Kind = "ServerError"
	KindTransport         Kind = "TransportError"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrValidation        = errors.New("request rejected")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrConflict          = errors.New("conflict")
	ErrServer            = errors.New("server error")
	ErrTransport         = errors.New("request did not reach the ledger")
)

const (
	typeInsufficientFunds = "/errors/insufficient-funds"
	typeUnknown           = "/errors/unknown"
	typeNetwork           = "/errors/network"
)

func (k Kind) sentinel() error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindValidation:
		return ErrValidation
	case KindInsufficientFunds:
		return ErrInsufficientFunds
	case KindConflict:
		return ErrConflict
	case KindTransport:
		return ErrTransport
	default:
		return ErrServer
	}
}

// Error is a normalized ledger failure. Problem holds the backend's problem
// document, or a synthetic one when the body could not be parsed.
type Error struct {
	Kind    Kind
	Problem domain.Problem

	cause error
}

func (e *Error) Error() string {
	if e.Problem.Detail != "" && e.Problem.Detail != e.Problem.Title {
		return fmt.Sprintf("%s: %s", e.Problem.Title, e.Problem.Detail)
	}
	return e.Problem.Title
}

// Unwrap exposes the kind sentinel and, for transport failures, the cause.
func (e *Error) Unwrap() []error {
	if e.cause != nil {
		return []error{e.Kind.sentinel(), e.cause}
	}
	return []error{e.Kind.sentinel()}
}

// Code is the machine-readable problem type, e.g. /errors/insufficient-funds.
func (e *Error) Code() string { return e.Problem.Type }

// Status is the HTTP status, zero for transport failures.
func (e *Error) Status() int { return e.Problem.Status }

// Message is the text shown to the user: the detail, else the title.
func (e *Error) Message() string {
	if e.Problem.Detail != "" {
		return e.Problem.Detail
	}
	return e.Problem.Title
}

// AsError extracts a *Error from err.
func AsError(err error) (*Error, bool) {
	var le *Error
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindServer for foreign errors.
func KindOf(err error) Kind {
	if le, ok := AsError(err); ok {
		return le.Kind
	}
	return KindServer
}

// UserMessage renders any error for a notification line.
func UserMessage(err error, fallback string) string {
	if le, ok := AsError(err); ok {
		if msg := le.Message(); msg != "" {
			return msg
		}
	}
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return fallback
}

func classify(status int, problemType string) Kind {
	switch {
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict:
		return KindConflict
	case status == http.StatusUnprocessableEntity, problemType == typeInsufficientFunds:
		return KindInsufficientFunds
	case status >= 500:
		return KindServer
	case status >= 400:
		return KindValidation
	default:
		return KindServer
	}
}

// decodeError turns a non-2xx response into *Error. It never fails: an
// unreadable body yields a synthetic problem carrying the status code.
func decodeError(resp *http.Response) *Error {
	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))

	var p domain.Problem
	if readErr != nil || json.Unmarshal(body, &p) != nil || (p.Title == "" && p.Type == "") {
		p = domain.Problem{
			Type:      typeUnknown,
			Title:     "Request Failed",
			Status:    resp.StatusCode,
			Detail:    strings.TrimSpace(http.StatusText(resp.StatusCode)),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}
		if resp.Request != nil {
			p.Instance = resp.Request.URL.Path
		}
		return &Error{Kind: classify(resp.StatusCode, ""), Problem: p}
	}
	if p.Status == 0 {
		p.Status = resp.StatusCode
	}
	return &Error{Kind: classify(resp.StatusCode, p.Type), Problem: p}
}

func transportError(err error) *Error {
	return &Error{
		Kind: KindTransport,
		Problem: domain.Problem{
			Type:      typeNetwork,
			Title:     "Network Error",
			Detail:    err.Error(),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
		cause: err,
	}
}

package ledger

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	assert.Equal(t, KindNotFound, classify(404, "/errors/account-not-found"))
	assert.Equal(t, KindConflict, classify(409, "/errors/duplicate-document"))
	assert.Equal(t, KindInsufficientFunds, classify(422, typeInsufficientFunds))
	assert.Equal(t, KindInsufficientFunds, classify(422, ""))
	assert.Equal(t, KindInsufficientFunds, classify(400, typeInsufficientFunds))
	assert.Equal(t, KindValidation, classify(400, "/errors/validation-failed"))
	assert.Equal(t, KindValidation, classify(400, "/errors/transfer-to-self"))
	assert.Equal(t, KindServer, classify(503, ""))
}

func TestDecodeErrorWithoutRequest(t *testing.T) {
	resp := &http.Response{StatusCode: 500, Body: io.NopCloser(strings.NewReader(""))}
	le := decodeError(resp)
	assert.Equal(t, KindServer, le.Kind)
	assert.Equal(t, 500, le.Status())
	assert.Equal(t, "Request Failed: Internal Server Error", le.Error())
}

func TestDecodeErrorBare422IsInsufficientFunds(t *testing.T) {
	resp := &http.Response{StatusCode: 422, Body: io.NopCloser(strings.NewReader("not json"))}
	le := decodeError(resp)
	assert.Equal(t, KindInsufficientFunds, le.Kind)
	assert.ErrorIs(t, le, ErrInsufficientFunds)
}

func TestDecodeErrorKeepsFieldErrors(t *testing.T) {
	body := `{"type":"/errors/validation-failed","title":"Validation Failed","detail":"Request validation failed","errors":[{"field":"amount","message":"Amount must be positive"}]}`
	resp := &http.Response{StatusCode: 400, Body: io.NopCloser(strings.NewReader(body))}
	le := decodeError(resp)
	assert.Equal(t, KindValidation, le.Kind)
	assert.Equal(t, 400, le.Status())
	assert.Len(t, le.Problem.Errors, 1)
	assert.Equal(t, "amount", le.Problem.Errors[0].Field)
}

func TestUserMessageFallbacks(t *testing.T) {
	assert.Equal(t, "plain", UserMessage(errors.New("plain"), "fallback"))
	assert.Equal(t, "fallback", UserMessage(nil, "fallback"))
	le := &Error{Kind: KindServer}
	le.Problem.Title = "Only Title"
	assert.Equal(t, "Only Title", UserMessage(le, "fallback"))
}

// Package ledger is the console's only way to talk to the ledger backend.
// Every non-2xx response is normalized into *Error.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/punchamoorthee/ledgerconsole/internal/domain"
	"github.com/punchamoorthee/ledgerconsole/internal/idempotency"
)

const (
	DefaultPage           = 0
	DefaultPageSize       = 20
	DefaultLedgerPageSize = 50

	maxResponseSize  = 10 * 1024 * 1024
	maxErrorBodySize = 64 * 1024
)

var apiVersionSuffix = regexp.MustCompile(`/api/v[0-9]+/?$`)

// Client calls the ledger REST API.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	logger      *slog.Logger
	readRetries int
	backoffBase time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithReadRetries caps the attempts made for read queries. Mutations are
// always attempted once.
func WithReadRetries(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.readRetries = n
		}
	}
}

// WithBackoff sets the first retry delay for read queries.
func WithBackoff(base time.Duration) Option {
	return func(c *Client) { c.backoffBase = base }
}

// New creates a client for the API rooted at baseURL, e.g.
// http://localhost:8080/api/v1.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid ledger base URL %q", baseURL)
	}
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		logger:      slog.Default(),
		readRetries: 3,
		backoffBase: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

// HealthURL is the actuator endpoint, which lives beside the versioned API
// rather than under it.
func (c *Client) HealthURL() string {
	return apiVersionSuffix.ReplaceAllString(c.baseURL, "") + "/actuator/health"
}

// GetAccounts fetches one page of accounts. A non-positive size means
// DefaultPageSize and a negative page means the first page.
func (c *Client) GetAccounts(ctx context.Context, page, size int) (*domain.Page[domain.Account], error) {
	page, size = normalizePage(page, size, DefaultPageSize)
	var out domain.Page[domain.Account]
	u := fmt.Sprintf("%s/accounts?page=%d&size=%d", c.baseURL, page, size)
	if err := c.read(ctx, "/accounts", u, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAccount fetches a single account.
func (c *Client) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	if id == "" {
		return nil, fmt.Errorf("account id is required: %w", ErrValidation)
	}
	var out domain.Account
	u := fmt.Sprintf("%s/accounts/%s", c.baseURL, url.PathEscape(id))
	if err := c.read(ctx, "/accounts/{id}", u, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateAccount opens a new account. It is never retried.
func (c *Client) CreateAccount(ctx context.Context, req domain.CreateAccountRequest) (*domain.Account, error) {
	var out domain.Account
	if err := c.do(ctx, http.MethodPost, "/accounts", c.baseURL+"/accounts", req, nil, &out); err != nil {
		return nil, err
	}
	c.logger.Info("Account created", "account_id", out.ID)
	return &out, nil
}

// SubmitTransfer executes intent with its idempotency key in the request
// header. It is never retried here: a caller that retries must reuse the
// same intent so the backend can deduplicate.
func (c *Client) SubmitTransfer(ctx context.Context, intent domain.TransferIntent) (*domain.TransferResponse, error) {
	if intent.IdempotencyKey == "" {
		return nil, fmt.Errorf("transfer without idempotency key: %w", ErrValidation)
	}
	headers := map[string]string{idempotency.Header: intent.IdempotencyKey}
	var out domain.TransferResponse
	if err := c.do(ctx, http.MethodPost, "/transfers", c.baseURL+"/transfers", intent.Request(), headers, &out); err != nil {
		c.logger.Warn("Transfer rejected",
			"source", intent.SourceAccountID,
			"target", intent.TargetAccountID,
			"amount", intent.Amount.StringFixed(2),
			"kind", KindOf(err),
			"error", err)
		return nil, err
	}
	c.logger.Info("Transfer executed", "transaction_id", out.TransactionID, "status", out.Status)
	return &out, nil
}

// GetTransfer looks up an executed transfer by transaction id.
func (c *Client) GetTransfer(ctx context.Context, id string) (*domain.TransferResponse, error) {
	if id == "" {
		return nil, fmt.Errorf("transaction id is required: %w", ErrValidation)
	}
	var out domain.TransferResponse
	u := fmt.Sprintf("%s/transfers/%s", c.baseURL, url.PathEscape(id))
	if err := c.read(ctx, "/transfers/{id}", u, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetLedger fetches one page of an account statement. A non-positive size
// means DefaultLedgerPageSize.
func (c *Client) GetLedger(ctx context.Context, accountID string, page, size int) (*domain.AccountStatement, error) {
	if accountID == "" {
		return nil, fmt.Errorf("account id is required: %w", ErrValidation)
	}
	page, size = normalizePage(page, size, DefaultLedgerPageSize)
	var out domain.AccountStatement
	u := fmt.Sprintf("%s/ledger/%s?page=%d&size=%d", c.baseURL, url.PathEscape(accountID), page, size)
	if err := c.read(ctx, "/ledger/{id}", u, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health queries the actuator. A DOWN backend usually answers 503 with a
// health body, which is returned as a status rather than an error.
func (c *Client) Health(ctx context.Context) (*domain.HealthStatus, error) {
	var out domain.HealthStatus
	err := c.do(ctx, http.MethodGet, "/actuator/health", c.HealthURL(), nil, nil, &out)
	if le, ok := AsError(err); ok && le.Status() == http.StatusServiceUnavailable {
		return &domain.HealthStatus{Status: domain.HealthDown}, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func normalizePage(page, size, def int) (int, int) {
	if page < 0 {
		page = DefaultPage
	}
	if size <= 0 {
		size = def
	}
	return page, size
}

// read performs a GET with a bounded number of attempts. Only transport
// failures and 5xx responses are retried.
func (c *Client) read(ctx context.Context, endpoint, u string, out any) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.backoffBase
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 0

	attempt := 0
	op := func() error {
		attempt++
		if attempt > 1 {
			readRetries.WithLabelValues(endpoint).Inc()
		}
		err := c.do(ctx, http.MethodGet, endpoint, u, nil, nil, out)
		if err == nil || !retryable(ctx, err) {
			if err != nil {
				return backoff.Permanent(err)
			}
			return nil
		}
		c.logger.Warn("Ledger read failed, retrying", "endpoint", endpoint, "attempt", attempt, "error", err)
		return err
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.readRetries-1)), ctx)
	err := backoff.Retry(op, policy)
	if err != nil && ctx.Err() != nil {
		if _, ok := AsError(err); !ok {
			return transportError(err)
		}
	}
	return err
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	le, ok := AsError(err)
	if !ok {
		return false
	}
	return le.Kind == KindTransport || le.Kind == KindServer
}

func (c *Client) do(ctx context.Context, method, endpoint, u string, body any, headers map[string]string, out any) error {
	timer := prometheus.NewTimer(httpLatency.WithLabelValues(method, endpoint))
	defer timer.ObserveDuration()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", endpoint, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	c.logger.Debug("Ledger request", "method", method, "url", u)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		httpReqTotal.WithLabelValues(method, endpoint, "transport").Inc()
		return transportError(err)
	}
	defer resp.Body.Close()
	httpReqTotal.WithLabelValues(method, endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

// Package mockledger is an in-memory stand-in for the ledger backend. It
// speaks the same HTTP API so the console can run without the real service.
package mockledger

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/punchamoorthee/ledgerconsole/internal/domain"
	"github.com/punchamoorthee/ledgerconsole/internal/idempotency"
)

func init() {
	// Amounts go on the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Metrics
var (
	httpReqTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_http_request_duration_seconds",
		Help:    "Request latency",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"method", "endpoint"})
)

// Backend field limits.
const (
	maxDocumentLen  = 50
	maxNameLen      = 255
	defaultPageSize = 20
	defaultLedger   = 50
	maxPageSize     = 1000
)

var minAmount = decimal.RequireFromString("0.01")

// Handler serves the ledger API from a Store.
type Handler struct {
	store  *Store
	logger *slog.Logger
	down   atomic.Bool
}

func NewHandler(s *Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{store: s, logger: logger}
}

// SetDown makes the health endpoint report DOWN.
func (h *Handler) SetDown(down bool) { h.down.Store(down) }

// Router wires every route, including /metrics.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/actuator/health", h.Health).Methods("GET")

	apiV1 := r.PathPrefix("/api/v1").Subrouter()
	apiV1.HandleFunc("/accounts", h.ListAccounts).Methods("GET")
	apiV1.HandleFunc("/accounts", h.CreateAccount).Methods("POST")
	apiV1.HandleFunc("/accounts/{id}", h.GetAccount).Methods("GET")
	apiV1.HandleFunc("/transfers", h.CreateTransfer).Methods("POST")
	apiV1.HandleFunc("/transfers/{id}", h.GetTransfer).Methods("GET")
	apiV1.HandleFunc("/ledger/{accountId}", h.GetLedger).Methods("GET")
	return r
}

func (h *Handler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/transfers"
	timer := prometheus.NewTimer(httpLatency.WithLabelValues("POST", endpoint))
	defer timer.ObserveDuration()

	// 1. Validate header
	key := r.Header.Get(idempotency.Header)
	if key == "" {
		h.respondProblem(w, r, endpoint, http.StatusBadRequest, "missing-idempotency-key", "Missing Idempotency Key",
			"Idempotency-Key header is required for this operation", nil)
		return
	}
	if _, err := uuid.Parse(key); err != nil {
		h.respondProblem(w, r, endpoint, http.StatusBadRequest, "invalid-idempotency-key", "Invalid Idempotency Key",
			"Invalid idempotency key format: "+key, nil)
		return
	}

	// 2. Read and hash body
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.respondInternal(w, r, endpoint, err)
		return
	}
	r.Body = io.NopCloser(bytes.NewBuffer(body))
	hash := sha256.Sum256(body)
	reqHash := hex.EncodeToString(hash[:])

	var req domain.TransferRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.respondProblem(w, r, endpoint, http.StatusBadRequest, "validation-failed", "Validation Failed",
			"Malformed JSON body", nil)
		return
	}

	// 3. Business validations
	var fields []domain.FieldError
	if req.SourceAccountID == "" {
		fields = append(fields, domain.FieldError{Field: "sourceAccountId", Message: "Source account ID is required"})
	}
	if req.TargetAccountID == "" {
		fields = append(fields, domain.FieldError{Field: "targetAccountId", Message: "Target account ID is required"})
	}
	if req.Amount.LessThan(minAmount) {
		fields = append(fields, domain.FieldError{Field: "amount", Message: "Amount must be at least 0.01"})
	}
	if len(fields) > 0 {
		h.respondProblem(w, r, endpoint, http.StatusBadRequest, "validation-failed", "Validation Failed",
			"One or more fields have validation errors", fields)
		return
	}
	req.Amount = req.Amount.Round(2)

	// 4. Execute
	resp, replay, err := h.store.ExecTransfer(r.Context(), req, key, reqHash)
	if err != nil {
		var insufficient *InsufficientFundsError
		switch {
		case errors.Is(err, ErrTransferToSelf):
			h.respondProblem(w, r, endpoint, http.StatusBadRequest, "transfer-to-self", "Invalid Transfer",
				"Cannot transfer funds to the same account: "+req.SourceAccountID, nil)
		case errors.Is(err, ErrIdempotencyConflict):
			h.respondProblem(w, r, endpoint, http.StatusConflict, "request-in-progress", "Request In Progress",
				"A request with this idempotency key is still being processed", nil)
		case errors.Is(err, ErrIdempotencyMismatch):
			h.respondProblem(w, r, endpoint, http.StatusConflict, "idempotency-key-mismatch", "Idempotency Key Reused",
				"Idempotency key was already used with a different request body", nil)
		case errors.Is(err, ErrAccountNotFound):
			h.respondProblem(w, r, endpoint, http.StatusNotFound, "account-not-found", "Account Not Found",
				"Account not found", nil)
		case errors.As(err, &insufficient):
			h.respondProblem(w, r, endpoint, http.StatusUnprocessableEntity, "insufficient-funds", "Insufficient Funds",
				insufficient.Error(), nil)
		default:
			h.respondInternal(w, r, endpoint, err)
		}
		return
	}

	if replay {
		h.logger.Info("Replayed transfer", "key", key, "transaction_id", resp.TransactionID)
		w.Header().Set("Idempotent-Replayed", "true")
	} else {
		h.logger.Info("Transfer completed", "key", key, "transaction_id", resp.TransactionID,
			"source", resp.SourceAccountID, "target", resp.TargetAccountID, "amount", resp.Amount.StringFixed(2))
	}
	w.Header().Set("Location", fmt.Sprintf("/api/v1/transfers/%s", resp.TransactionID))
	h.respondJSON(w, http.StatusCreated, resp, "POST", endpoint)
}

func (h *Handler) GetTransfer(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/transfers/{id}"
	id := mux.Vars(r)["id"]
	t, err := h.store.GetTransfer(r.Context(), id)
	if err != nil {
		h.respondProblem(w, r, endpoint, http.StatusNotFound, "transaction-not-found", "Transaction Not Found",
			"Transaction not found with ID: "+id, nil)
		return
	}
	h.respondJSON(w, http.StatusOK, t, "GET", endpoint)
}

func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/accounts"
	timer := prometheus.NewTimer(httpLatency.WithLabelValues("POST", endpoint))
	defer timer.ObserveDuration()

	var req domain.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondProblem(w, r, endpoint, http.StatusBadRequest, "validation-failed", "Validation Failed",
			"Malformed JSON body", nil)
		return
	}
	req.Document, req.Name = strings.TrimSpace(req.Document), strings.TrimSpace(req.Name)

	var fields []domain.FieldError
	if req.Document == "" || utf8.RuneCountInString(req.Document) > maxDocumentLen {
		fields = append(fields, domain.FieldError{Field: "document",
			Message: fmt.Sprintf("Document is required and must be at most %d characters", maxDocumentLen)})
	}
	if req.Name == "" || utf8.RuneCountInString(req.Name) > maxNameLen {
		fields = append(fields, domain.FieldError{Field: "name",
			Message: fmt.Sprintf("Name is required and must be at most %d characters", maxNameLen)})
	}
	if len(fields) > 0 {
		h.respondProblem(w, r, endpoint, http.StatusBadRequest, "validation-failed", "Validation Failed",
			"One or more fields have validation errors", fields)
		return
	}

	acc, err := h.store.CreateAccount(r.Context(), req.Document, req.Name)
	if err != nil {
		if errors.Is(err, ErrDuplicateDocument) {
			h.respondProblem(w, r, endpoint, http.StatusConflict, "duplicate-document", "Duplicate Document",
				fmt.Sprintf("An account with document '%s' already exists", req.Document), nil)
			return
		}
		h.respondInternal(w, r, endpoint, err)
		return
	}
	w.Header().Set("Location", "/api/v1/accounts/"+acc.ID)
	h.respondJSON(w, http.StatusCreated, acc, "POST", endpoint)
}

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	page, size := pageParams(r, defaultPageSize)
	h.respondJSON(w, http.StatusOK, h.store.ListAccounts(r.Context(), page, size), "GET", "/accounts")
}

func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/accounts/{id}"
	id := mux.Vars(r)["id"]
	acc, err := h.store.GetAccount(r.Context(), id)
	if err != nil {
		h.respondProblem(w, r, endpoint, http.StatusNotFound, "account-not-found", "Account Not Found",
			"Account not found with ID: "+id, nil)
		return
	}
	h.respondJSON(w, http.StatusOK, acc, "GET", endpoint)
}

func (h *Handler) GetLedger(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/ledger/{accountId}"
	id := mux.Vars(r)["accountId"]
	page, size := pageParams(r, defaultLedger)
	st, err := h.store.Statement(r.Context(), id, page, size)
	if err != nil {
		h.respondProblem(w, r, endpoint, http.StatusNotFound, "account-not-found", "Account Not Found",
			"Account not found with ID: "+id, nil)
		return
	}
	h.respondJSON(w, http.StatusOK, st, "GET", endpoint)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status, code := domain.HealthUp, http.StatusOK
	if h.down.Load() {
		status, code = domain.HealthDown, http.StatusServiceUnavailable
	}
	h.respondJSON(w, code, domain.HealthStatus{
		Status: status,
		Components: map[string]domain.HealthComponent{
			"ledger": {Status: status, Details: map[string]any{"accounts": h.store.Accounts()}},
		},
	}, "GET", "/actuator/health")
}

func pageParams(r *http.Request, def int) (int, int) {
	q := r.URL.Query()
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 0 {
		page = 0
	}
	size, err := strconv.Atoi(q.Get("size"))
	if err != nil || size <= 0 {
		size = def
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

// Helpers
func (h *Handler) respondJSON(w http.ResponseWriter, code int, payload any, method, endpoint string) {
	httpReqTotal.WithLabelValues(method, endpoint, strconv.Itoa(code)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Failed to write response", "endpoint", endpoint, "error", err)
	}
}

func (h *Handler) respondProblem(w http.ResponseWriter, r *http.Request, endpoint string, code int, kind, title, detail string, fields []domain.FieldError) {
	h.logger.Warn("Request rejected", "method", r.Method, "path", r.URL.Path, "status", code, "type", kind)
	h.respondJSON(w, code, domain.Problem{
		Type:      "/errors/" + kind,
		Title:     title,
		Status:    code,
		Detail:    detail,
		Instance:  r.URL.Path,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Errors:    fields,
	}, r.Method, endpoint)
}

func (h *Handler) respondInternal(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	h.logger.Error("Unexpected error", "path", r.URL.Path, "error", err)
	h.respondProblem(w, r, endpoint, http.StatusInternalServerError, "internal-error", "Internal Server Error",
		"An unexpected error occurred. Please try again later.", nil)
}

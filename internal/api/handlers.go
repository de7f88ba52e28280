package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/eshagberg/payflow/internal/domain"
	"github.com/eshagberg/payflow/internal/service"
	"github.com/eshagberg/payflow/internal/store"
)

// Metrics
var (
	httpReqTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payflow_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payflow_http_request_duration_seconds",
		Help:    "Request latency",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 20},
	}, []string{"method", "endpoint"})
)

type Handler struct {
	accounts  *store.AccountStore
	transfers *service.TransferService
	log       *zap.Logger
}

func NewHandler(accounts *store.AccountStore, transfers *service.TransferService, log *zap.Logger) *Handler {
	return &Handler{accounts: accounts, transfers: transfers, log: log}
}

type createAccountRequest struct {
	ID        string `json:"id,omitempty"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Balance   string `json:"balance"`
}

type updateAccountRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type transferRequest struct {
	FromID string `json:"from_id"`
	ToID   string `json:"to_id"`
	Amount string `json:"amount"`
}

func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpLatency.WithLabelValues("POST", "/accounts"))
	defer timer.ObserveDuration()

	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON", "POST", "/accounts")
		return
	}

	var id uuid.UUID
	if req.ID != "" {
		parsed, err := uuid.Parse(req.ID)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid account id", "POST", "/accounts")
			return
		}
		id = parsed
	}

	balance := decimal.Zero
	if req.Balance != "" {
		parsed, err := decimal.NewFromString(req.Balance)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Balance is not a correct number", "POST", "/accounts")
			return
		}
		balance = parsed
	}

	acc, err := h.accounts.Create(domain.Account{
		ID:        id,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Balance:   balance,
	})
	if err != nil {
		if errors.Is(err, store.ErrAccountExists) {
			h.respondError(w, http.StatusConflict, "Account already exists", "POST", "/accounts")
			return
		}
		if errors.Is(err, store.ErrNegativeBalance) {
			h.respondError(w, http.StatusUnprocessableEntity, "Balance cannot be negative", "POST", "/accounts")
			return
		}
		h.respondError(w, http.StatusInternalServerError, "Internal Server Error", "POST", "/accounts")
		return
	}
	h.respondJSON(w, http.StatusCreated, acc, "POST", "/accounts")
}

func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "GET", "/accounts/{id}")
	if !ok {
		return
	}
	acc, err := h.accounts.Get(id)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "Account not found", "GET", "/accounts/{id}")
		return
	}
	h.respondJSON(w, http.StatusOK, acc, "GET", "/accounts/{id}")
}

func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "PUT", "/accounts/{id}")
	if !ok {
		return
	}
	var req updateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON", "PUT", "/accounts/{id}")
		return
	}
	// Balance is never updated through this endpoint.
	acc, err := h.accounts.Update(id, req.FirstName, req.LastName)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "Account not found", "PUT", "/accounts/{id}")
		return
	}
	h.respondJSON(w, http.StatusOK, acc, "PUT", "/accounts/{id}")
}

func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "DELETE", "/accounts/{id}")
	if !ok {
		return
	}
	acc, err := h.accounts.Delete(id)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "Account not found", "DELETE", "/accounts/{id}")
		return
	}
	h.respondJSON(w, http.StatusOK, acc, "DELETE", "/accounts/{id}")
}

// CreateTransfer submits a synchronous transfer: it blocks until the result
// is available or the configured wait timeout elapses. When the wait ends
// first the transfer id is returned with 202 so the caller can poll.
func (h *Handler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpLatency.WithLabelValues("POST", "/transfers"))
	defer timer.ObserveDuration()

	id, ok := h.submit(w, r, false, "POST", "/transfers")
	if !ok {
		return
	}

	res, err := h.transfers.AwaitResult(r.Context(), id)
	if err != nil {
		h.respondJSON(w, http.StatusAccepted, map[string]string{
			"transfer_id": id.String(),
			"status":      "pending",
		}, "POST", "/transfers")
		return
	}
	h.respondJSON(w, http.StatusOK, res, "POST", "/transfers")
}

// CreateTransferAsync submits a transfer and returns its id immediately.
func (h *Handler) CreateTransferAsync(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpLatency.WithLabelValues("POST", "/transfers/async"))
	defer timer.ObserveDuration()

	id, ok := h.submit(w, r, true, "POST", "/transfers/async")
	if !ok {
		return
	}
	h.respondJSON(w, http.StatusAccepted, map[string]string{"transfer_id": id.String()}, "POST", "/transfers/async")
}

func (h *Handler) GetTransfer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "GET", "/transfers/{id}")
	if !ok {
		return
	}
	res, err := h.transfers.Result(id)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "Transfer result not found", "GET", "/transfers/{id}")
		return
	}
	h.respondJSON(w, http.StatusOK, res, "GET", "/transfers/{id}")
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"}, "GET", "/health")
}

// submit decodes and validates a transfer payload and queues it.
func (h *Handler) submit(w http.ResponseWriter, r *http.Request, async bool, method, endpoint string) (uuid.UUID, bool) {
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON", method, endpoint)
		return uuid.Nil, false
	}
	if req.FromID == "" || req.ToID == "" || req.Amount == "" {
		h.respondError(w, http.StatusBadRequest, "from_id, to_id and amount are required", method, endpoint)
		return uuid.Nil, false
	}

	id, err := h.transfers.Submit(req.FromID, req.ToID, req.Amount, async)
	if err != nil {
		if errors.Is(err, service.ErrInvalidAmount) {
			h.respondError(w, http.StatusUnprocessableEntity, "Amount must be a positive number", method, endpoint)
			return uuid.Nil, false
		}
		if errors.Is(err, service.ErrInvalidAccountID) {
			h.respondError(w, http.StatusBadRequest, "Invalid account id", method, endpoint)
			return uuid.Nil, false
		}
		h.respondError(w, http.StatusInternalServerError, "Internal Server Error", method, endpoint)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, method, endpoint string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid id", method, endpoint)
		return uuid.Nil, false
	}
	return id, true
}

// Helpers
func (h *Handler) respondJSON(w http.ResponseWriter, code int, payload interface{}, method, endpoint string) {
	httpReqTotal.WithLabelValues(method, endpoint, strconv.Itoa(code)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error("response encode failed", zap.Error(err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, code int, msg, method, endpoint string) {
	h.respondJSON(w, code, map[string]string{"error": msg}, method, endpoint)
}

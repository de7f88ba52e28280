package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account represents a customer's balance holder. Balances are mutated only
// through the account store's debit/credit primitive, never directly.
type Account struct {
	ID        uuid.UUID       `json:"id"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	Balance   decimal.Decimal `json:"balance"`
}

// TransferRequest is the immutable unit of work a submitter enqueues and a
// worker consumes exactly once.
type TransferRequest struct {
	TransferID uuid.UUID
	FromID     uuid.UUID
	ToID       uuid.UUID
	Amount     decimal.Decimal
	Async      bool
}

// TransferState classifies the terminal outcome of one transfer execution.
type TransferState string

const (
	StateSuccess           TransferState = "SUCCESS"
	StateInsufficientFunds TransferState = "INSUFFICIENT_FUNDS"
	StateFromNotFound      TransferState = "FROM_NOT_FOUND"
	StateToNotFound        TransferState = "TO_NOT_FOUND"
	StateInternalError     TransferState = "INTERNAL_ERROR"
)

// Message returns the human-readable description reported alongside the state.
func (s TransferState) Message() string {
	switch s {
	case StateSuccess:
		return "Transfer completed."
	case StateInsufficientFunds:
		return "Balance is not enough."
	case StateFromNotFound:
		return "The account from which the transfer is made does not exist."
	case StateToNotFound:
		return "The account to which the transfer is made does not exist."
	default:
		return "Internal error."
	}
}

// TransferResult is the immutable record of one executed transfer. The amount
// is carried as a fixed two-decimal string so repeated lookups of the same
// result serialize identically.
type TransferResult struct {
	TransferID uuid.UUID     `json:"transfer_id"`
	FromID     uuid.UUID     `json:"from_id"`
	ToID       uuid.UUID     `json:"to_id"`
	Amount     string        `json:"amount"`
	State      TransferState `json:"state"`
	Message    string        `json:"message"`
	Timestamp  time.Time     `json:"timestamp"`
}

// NewTransferResult builds the result record for a finished request.
func NewTransferResult(req TransferRequest, state TransferState) TransferResult {
	return TransferResult{
		TransferID: req.TransferID,
		FromID:     req.FromID,
		ToID:       req.ToID,
		Amount:     req.Amount.StringFixed(2),
		State:      state,
		Message:    state.Message(),
		Timestamp:  time.Now().UTC(),
	}
}

package engine

import (
	"errors"

	"github.com/eshagberg/payflow/internal/domain"
	"github.com/eshagberg/payflow/internal/store"
)

// Executor performs one two-account transfer against the account store.
type Executor struct {
	accounts *store.AccountStore
}

func NewExecutor(accounts *store.AccountStore) *Executor {
	return &Executor{accounts: accounts}
}

// Execute moves req.Amount from the source to the destination and reports the
// terminal state. Both account locks are held across the debit, the credit
// and any rollback, so no third party ever observes a half-applied transfer.
// Every path terminates in a result; Execute never panics the worker.
func (e *Executor) Execute(req domain.TransferRequest) domain.TransferResult {
	pair, err := e.accounts.AcquirePair(req.FromID, req.ToID)
	switch {
	case errors.Is(err, store.ErrFromAccountNotFound):
		return domain.NewTransferResult(req, domain.StateFromNotFound)
	case errors.Is(err, store.ErrToAccountNotFound):
		return domain.NewTransferResult(req, domain.StateToNotFound)
	case err != nil:
		return domain.NewTransferResult(req, domain.StateInternalError)
	}
	defer pair.Release()

	if err := pair.DebitSource(req.Amount); err != nil {
		// No mutation happened; the source balance is untouched.
		return domain.NewTransferResult(req, domain.StateInsufficientFunds)
	}

	if err := pair.CreditDestination(req.Amount); err != nil {
		// Crediting a positive amount cannot be rejected; if it ever fails,
		// put the debited amount back before reporting.
		pair.RefundSource(req.Amount)
		return domain.NewTransferResult(req, domain.StateInternalError)
	}

	return domain.NewTransferResult(req, domain.StateSuccess)
}

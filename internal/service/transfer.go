package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/eshagberg/payflow/internal/domain"
	"github.com/eshagberg/payflow/internal/engine"
	"github.com/eshagberg/payflow/internal/store"
)

var (
	ErrInvalidAccountID = errors.New("invalid account id")
	ErrInvalidAmount    = errors.New("amount must be a positive decimal")
)

// TransferService is the caller-facing surface of the transfer engine:
// submission, synchronous wait and result polling. Validation failures are
// surfaced here and never reach the queue.
type TransferService struct {
	queue       *engine.TransferQueue
	results     *store.ResultStore
	waitTimeout time.Duration
	log         *zap.Logger
}

func NewTransferService(queue *engine.TransferQueue, results *store.ResultStore, waitTimeout time.Duration, log *zap.Logger) *TransferService {
	return &TransferService{
		queue:       queue,
		results:     results,
		waitTimeout: waitTimeout,
		log:         log,
	}
}

// Submit validates the request, enqueues it and returns the generated
// transfer id. Whether the accounts exist is checked later, asynchronously,
// by the executor; a transfer id is returned regardless.
func (s *TransferService) Submit(fromID, toID, amount string, async bool) (uuid.UUID, error) {
	from, err := uuid.Parse(fromID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("from %q: %w", fromID, ErrInvalidAccountID)
	}
	to, err := uuid.Parse(toID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("to %q: %w", toID, ErrInvalidAccountID)
	}
	amt, err := decimal.NewFromString(amount)
	if err != nil || !amt.IsPositive() {
		return uuid.Nil, fmt.Errorf("%q: %w", amount, ErrInvalidAmount)
	}

	req := domain.TransferRequest{
		TransferID: uuid.New(),
		FromID:     from,
		ToID:       to,
		Amount:     amt,
		Async:      async,
	}
	s.queue.Enqueue(req)

	s.log.Debug("transfer queued",
		zap.String("transfer_id", req.TransferID.String()),
		zap.Bool("async", async),
	)
	return req.TransferID, nil
}

// AwaitResult blocks until the transfer's result exists or the configured
// timeout elapses, then returns whatever the result store holds. A not-found
// return means the wait ended first; the transfer itself is not aborted and
// the result can still be polled later.
func (s *TransferService) AwaitResult(ctx context.Context, id uuid.UUID) (domain.TransferResult, error) {
	return s.results.Await(ctx, id, s.waitTimeout)
}

// Result returns the stored result for id, if any.
func (s *TransferService) Result(id uuid.UUID) (domain.TransferResult, error) {
	return s.results.Get(id)
}

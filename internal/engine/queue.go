package engine

import (
	"context"
	"sync"
	"time"

	"github.com/eshagberg/payflow/internal/domain"
)

// TransferQueue is an unbounded FIFO of pending transfer requests, safe for
// any number of concurrent producers and consumers. Enqueue order is
// preserved; there is no fairness between accounts.
type TransferQueue struct {
	mu    sync.Mutex
	items []domain.TransferRequest

	// signal carries at most one pending wake for a blocked consumer.
	signal chan struct{}
}

func NewTransferQueue() *TransferQueue {
	return &TransferQueue{signal: make(chan struct{}, 1)}
}

// Enqueue appends a request and wakes a blocked consumer if there is one.
func (q *TransferQueue) Enqueue(req domain.TransferRequest) {
	q.mu.Lock()
	q.items = append(q.items, req)
	queueDepth.Set(float64(len(q.items)))
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Poll removes and returns the oldest request without blocking.
func (q *TransferQueue) Poll() (domain.TransferRequest, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return domain.TransferRequest{}, false
	}
	req := q.items[0]
	q.items[0] = domain.TransferRequest{}
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil // release the drained backing array
	}
	queueDepth.Set(float64(len(q.items)))
	return req, true
}

// Next blocks until a request is available or ctx is done. The consumer
// suspends on the wake signal rather than spinning; backoff bounds the wait
// between rechecks in case a wake is consumed by a racing Poll.
func (q *TransferQueue) Next(ctx context.Context, backoff time.Duration) (domain.TransferRequest, bool) {
	for {
		if req, ok := q.Poll(); ok {
			return req, true
		}
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return domain.TransferRequest{}, false
		case <-q.signal:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// Len reports the number of pending requests.
func (q *TransferQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

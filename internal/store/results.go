package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eshagberg/payflow/internal/domain"
)

var ErrResultNotFound = errors.New("transfer result not found")

// ResultStore keeps the terminal outcome of every executed transfer for the
// lifetime of the process and hosts the blocking-wait protocol for
// synchronous submitters. Each waiter gets its own channel, registered under
// the transfer id and removed again when the wait ends, so waits on unrelated
// transfers never interfere.
type ResultStore struct {
	mu      sync.RWMutex
	results map[uuid.UUID]domain.TransferResult
	waiters map[uuid.UUID][]chan struct{}
}

func NewResultStore() *ResultStore {
	return &ResultStore{
		results: make(map[uuid.UUID]domain.TransferResult),
		waiters: make(map[uuid.UUID][]chan struct{}),
	}
}

// Put records the result and wakes every caller blocked on its transfer id.
// Results are written once per id in practice; a second write for the same id
// overwrites silently.
func (s *ResultStore) Put(res domain.TransferResult) {
	s.mu.Lock()
	s.results[res.TransferID] = res
	waiters := s.waiters[res.TransferID]
	delete(s.waiters, res.TransferID)
	s.mu.Unlock()

	for _, ch := range waiters {
		close(ch)
	}
}

// Get returns the stored result for id, if any.
func (s *ResultStore) Get(id uuid.UUID) (domain.TransferResult, error) {
	s.mu.RLock()
	res, ok := s.results[id]
	s.mu.RUnlock()
	if !ok {
		return domain.TransferResult{}, ErrResultNotFound
	}
	return res, nil
}

// Await blocks until the result for id exists, the timeout elapses, or ctx is
// done, whichever happens first, then re-reads the store and returns whatever
// is present. Returning ErrResultNotFound after a timeout is an accepted
// outcome, not a failure: the transfer still executes and can be polled later.
func (s *ResultStore) Await(ctx context.Context, id uuid.UUID, timeout time.Duration) (domain.TransferResult, error) {
	s.mu.Lock()
	if res, ok := s.results[id]; ok {
		s.mu.Unlock()
		return res, nil
	}
	ch := make(chan struct{})
	s.waiters[id] = append(s.waiters[id], ch)
	s.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ch:
	case <-timer.C:
		s.cancelWaiter(id, ch)
	case <-ctx.Done():
		s.cancelWaiter(id, ch)
	}
	return s.Get(id)
}

// cancelWaiter removes one registered wait channel without touching the
// others registered under the same id.
func (s *ResultStore) cancelWaiter(id uuid.UUID, ch chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	waiters := s.waiters[id]
	for i, w := range waiters {
		if w == ch {
			s.waiters[id] = append(waiters[:i], waiters[i+1:]...)
			break
		}
	}
	if len(s.waiters[id]) == 0 {
		delete(s.waiters, id)
	}
}

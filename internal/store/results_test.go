package store

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/eshagberg/payflow/internal/domain"
)

func testResult(id uuid.UUID) domain.TransferResult {
	return domain.NewTransferResult(domain.TransferRequest{
		TransferID: id,
		FromID:     uuid.New(),
		ToID:       uuid.New(),
		Amount:     decimal.RequireFromString("12.50"),
	}, domain.StateSuccess)
}

func TestGetMissing(t *testing.T) {
	s := NewResultStore()
	if _, err := s.Get(uuid.New()); !errors.Is(err, ErrResultNotFound) {
		t.Fatalf("expected ErrResultNotFound, got %v", err)
	}
}

func TestPutAndGet(t *testing.T) {
	s := NewResultStore()
	id := uuid.New()
	res := testResult(id)
	s.Put(res)

	got, err := s.Get(id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.State != domain.StateSuccess {
		t.Errorf("expected SUCCESS, got %s", got.State)
	}
	if got.Amount != "12.50" {
		t.Errorf("expected amount 12.50, got %s", got.Amount)
	}
}

func TestGetIsIdempotent(t *testing.T) {
	s := NewResultStore()
	id := uuid.New()
	s.Put(testResult(id))

	first, err := s.Get(id)
	if err != nil {
		t.Fatalf("first Get failed: %v", err)
	}
	second, err := s.Get(id)
	if err != nil {
		t.Fatalf("second Get failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated lookups differ:\n%+v\n%+v", first, second)
	}
}

func TestAwaitReturnsPresentResultImmediately(t *testing.T) {
	s := NewResultStore()
	id := uuid.New()
	s.Put(testResult(id))

	start := time.Now()
	if _, err := s.Await(context.Background(), id, 5*time.Second); err != nil {
		t.Fatalf("Await failed: %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Await blocked despite the result being present")
	}
}

func TestAwaitWokenByPut(t *testing.T) {
	s := NewResultStore()
	id := uuid.New()

	go func() {
		time.Sleep(50 * time.Millisecond)
		s.Put(testResult(id))
	}()

	res, err := s.Await(context.Background(), id, 5*time.Second)
	if err != nil {
		t.Fatalf("Await failed: %v", err)
	}
	if res.TransferID != id {
		t.Errorf("expected result for %s, got %s", id, res.TransferID)
	}
}

func TestAwaitTimeoutReturnsNotFound(t *testing.T) {
	s := NewResultStore()

	start := time.Now()
	_, err := s.Await(context.Background(), uuid.New(), 50*time.Millisecond)
	if !errors.Is(err, ErrResultNotFound) {
		t.Fatalf("expected ErrResultNotFound after timeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("timeout took too long: %s", elapsed)
	}
}

func TestAwaitCancelledContext(t *testing.T) {
	s := NewResultStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Await(ctx, uuid.New(), 5*time.Second); !errors.Is(err, ErrResultNotFound) {
		t.Fatalf("expected ErrResultNotFound on cancelled context, got %v", err)
	}
}

func TestAwaitMultipleWaitersAllWoken(t *testing.T) {
	s := NewResultStore()
	id := uuid.New()

	const waiters = 5
	var wg sync.WaitGroup
	wg.Add(waiters)
	errs := make(chan error, waiters)
	for i := 0; i < waiters; i++ {
		go func() {
			defer wg.Done()
			_, err := s.Await(context.Background(), id, 5*time.Second)
			errs <- err
		}()
	}

	time.Sleep(50 * time.Millisecond)
	s.Put(testResult(id))
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("waiter failed: %v", err)
		}
	}
}

// A waiter on one transfer must not be woken by another transfer's result.
func TestAwaitUnrelatedPutDoesNotWake(t *testing.T) {
	s := NewResultStore()
	waited := uuid.New()

	go func() {
		time.Sleep(20 * time.Millisecond)
		s.Put(testResult(uuid.New()))
	}()

	start := time.Now()
	_, err := s.Await(context.Background(), waited, 200*time.Millisecond)
	if !errors.Is(err, ErrResultNotFound) {
		t.Fatalf("expected ErrResultNotFound, got %v", err)
	}
	if time.Since(start) < 150*time.Millisecond {
		t.Error("waiter returned early; cross-talk between transfer ids")
	}
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/eshagberg/payflow/internal/domain"
	"github.com/eshagberg/payflow/internal/engine"
	"github.com/eshagberg/payflow/internal/store"
)

// newService wires a full engine (store, queue, dispatcher) behind the
// service under test. The dispatcher runs until the test ends.
func newService(t *testing.T) (*TransferService, *store.AccountStore) {
	t.Helper()
	accounts := store.NewAccountStore()
	results := store.NewResultStore()
	queue := engine.NewTransferQueue()
	d := engine.NewDispatcher(queue, engine.NewExecutor(accounts), results, 5, time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return NewTransferService(queue, results, 10*time.Second, zap.NewNop()), accounts
}

func createAccount(t *testing.T, accounts *store.AccountStore, balance string) domain.Account {
	t.Helper()
	acc, err := accounts.Create(domain.Account{Balance: decimal.RequireFromString(balance)})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return acc
}

func TestSubmitRejectsBadAccountIDs(t *testing.T) {
	svc, _ := newService(t)

	cases := []struct{ from, to string }{
		{"", uuid.NewString()},
		{uuid.NewString(), ""},
		{"not-a-uuid", uuid.NewString()},
		{uuid.NewString(), "not-a-uuid"},
	}
	for _, c := range cases {
		if _, err := svc.Submit(c.from, c.to, "1.00", false); !errors.Is(err, ErrInvalidAccountID) {
			t.Errorf("Submit(%q, %q): expected ErrInvalidAccountID, got %v", c.from, c.to, err)
		}
	}
}

func TestSubmitRejectsBadAmounts(t *testing.T) {
	svc, _ := newService(t)
	from, to := uuid.NewString(), uuid.NewString()

	for _, amount := range []string{"", "abc", "0", "0.00", "-5.00"} {
		if _, err := svc.Submit(from, to, amount, false); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("Submit(amount=%q): expected ErrInvalidAmount, got %v", amount, err)
		}
	}
}

// Submission always hands back a transfer id, even when the accounts do not
// exist; existence is the executor's concern.
func TestSubmitReturnsIDForUnknownAccounts(t *testing.T) {
	svc, _ := newService(t)

	id, err := svc.Submit(uuid.NewString(), uuid.NewString(), "5.00", false)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if id == uuid.Nil {
		t.Fatal("expected a transfer id")
	}

	res, err := svc.AwaitResult(context.Background(), id)
	if err != nil {
		t.Fatalf("AwaitResult failed: %v", err)
	}
	if res.State != domain.StateFromNotFound {
		t.Errorf("expected FROM_NOT_FOUND, got %s", res.State)
	}
}

func TestSynchronousSubmission(t *testing.T) {
	svc, accounts := newService(t)
	from := createAccount(t, accounts, "100.00")
	to := createAccount(t, accounts, "0.00")

	id, err := svc.Submit(from.ID.String(), to.ID.String(), "40.00", false)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	res, err := svc.AwaitResult(context.Background(), id)
	if err != nil {
		t.Fatalf("AwaitResult failed: %v", err)
	}
	if res.State != domain.StateSuccess {
		t.Fatalf("expected SUCCESS, got %s (%s)", res.State, res.Message)
	}
	if res.Amount != "40.00" {
		t.Errorf("expected amount 40.00, got %s", res.Amount)
	}

	got, _ := accounts.Get(to.ID)
	if !got.Balance.Equal(decimal.RequireFromString("40.00")) {
		t.Errorf("destination balance: expected 40.00, got %s", got.Balance)
	}
}

func TestAsynchronousSubmissionPollsLater(t *testing.T) {
	svc, accounts := newService(t)
	from := createAccount(t, accounts, "10.00")
	to := createAccount(t, accounts, "0.00")

	id, err := svc.Submit(from.ID.String(), to.ID.String(), "10.00", true)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		res, err := svc.Result(id)
		if err == nil {
			if res.State != domain.StateSuccess {
				t.Fatalf("expected SUCCESS, got %s", res.State)
			}
			break
		}
		if !errors.Is(err, store.ErrResultNotFound) {
			t.Fatalf("Result failed: %v", err)
		}
		if time.Now().After(deadline) {
			t.Fatal("async transfer never produced a result")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestResultForUnknownTransfer(t *testing.T) {
	svc, _ := newService(t)
	if _, err := svc.Result(uuid.New()); !errors.Is(err, store.ErrResultNotFound) {
		t.Fatalf("expected ErrResultNotFound, got %v", err)
	}
}

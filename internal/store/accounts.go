package store

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/eshagberg/payflow/internal/domain"
)

var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrAccountExists     = errors.New("account already exists")
	ErrNegativeBalance   = errors.New("balance cannot be negative")
	ErrInsufficientFunds = errors.New("insufficient funds")

	// Pair acquisition reports which side of the transfer is missing.
	ErrFromAccountNotFound = fmt.Errorf("source %w", ErrAccountNotFound)
	ErrToAccountNotFound   = fmt.Errorf("destination %w", ErrAccountNotFound)
)

// accountRecord is the mutable, store-owned representation of an account.
// All field access happens under mu.
type accountRecord struct {
	mu        sync.Mutex
	id        uuid.UUID
	firstName string
	lastName  string
	balance   decimal.Decimal
	deleted   bool
}

// applyLocked adds delta to the balance, rejecting a negative result without
// mutating. Check and set are one step; callers must hold mu.
func (rec *accountRecord) applyLocked(delta decimal.Decimal) error {
	next := rec.balance.Add(delta)
	if next.IsNegative() {
		return ErrInsufficientFunds
	}
	rec.balance = next
	return nil
}

func (rec *accountRecord) snapshotLocked() domain.Account {
	return domain.Account{
		ID:        rec.id,
		FirstName: rec.firstName,
		LastName:  rec.lastName,
		Balance:   rec.balance,
	}
}

// AccountStore holds all accounts in memory. The store mutex guards the map;
// each record carries its own lock for balance mutation, so transfers against
// disjoint accounts proceed fully in parallel.
type AccountStore struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]*accountRecord
}

func NewAccountStore() *AccountStore {
	return &AccountStore{accounts: make(map[uuid.UUID]*accountRecord)}
}

// Get returns a snapshot of the account.
func (s *AccountStore) Get(id uuid.UUID) (domain.Account, error) {
	s.mu.RLock()
	rec := s.accounts[id]
	s.mu.RUnlock()
	if rec == nil {
		return domain.Account{}, ErrAccountNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.deleted {
		return domain.Account{}, ErrAccountNotFound
	}
	return rec.snapshotLocked(), nil
}

// Create inserts a new account. A zero id gets a generated one. The existence
// check and the insert are a single critical section under the store lock, so
// two concurrent creates of the same id cannot both succeed.
func (s *AccountStore) Create(acc domain.Account) (domain.Account, error) {
	if acc.Balance.IsNegative() {
		return domain.Account{}, ErrNegativeBalance
	}
	if acc.ID == uuid.Nil {
		acc.ID = uuid.New()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[acc.ID]; ok {
		return domain.Account{}, fmt.Errorf("account %s: %w", acc.ID, ErrAccountExists)
	}
	s.accounts[acc.ID] = &accountRecord{
		id:        acc.ID,
		firstName: acc.FirstName,
		lastName:  acc.LastName,
		balance:   acc.Balance,
	}
	return acc, nil
}

// Update changes the non-balance fields. The balance is never written here.
func (s *AccountStore) Update(id uuid.UUID, firstName, lastName string) (domain.Account, error) {
	s.mu.RLock()
	rec := s.accounts[id]
	s.mu.RUnlock()
	if rec == nil {
		return domain.Account{}, ErrAccountNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.deleted {
		return domain.Account{}, ErrAccountNotFound
	}
	rec.firstName = firstName
	rec.lastName = lastName
	return rec.snapshotLocked(), nil
}

// Delete removes the account and returns its final state. It waits for any
// in-flight transfer leg on the account before removing it.
func (s *AccountStore) Delete(id uuid.UUID) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.accounts[id]
	if rec == nil {
		return domain.Account{}, ErrAccountNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.deleted {
		return domain.Account{}, ErrAccountNotFound
	}
	rec.deleted = true
	delete(s.accounts, id)
	return rec.snapshotLocked(), nil
}

// ApplyDelta is the single-account debit/credit primitive: it adds the signed
// amount under the account's exclusive lock, rejecting a result below zero
// with the balance untouched.
func (s *AccountStore) ApplyDelta(id uuid.UUID, delta decimal.Decimal) error {
	s.mu.RLock()
	rec := s.accounts[id]
	s.mu.RUnlock()
	if rec == nil {
		return ErrAccountNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.deleted {
		return ErrAccountNotFound
	}
	return rec.applyLocked(delta)
}

// Pair holds exclusive locks on the two accounts of one transfer. It is
// released exactly once.
type Pair struct {
	from   *accountRecord
	to     *accountRecord
	single bool
}

// AcquirePair locks both accounts of a transfer. Locks are taken in ascending
// id order regardless of transfer direction, so two transfers over the same
// pair of accounts in opposite directions cannot deadlock. A same-id pair
// takes a single lock.
func (s *AccountStore) AcquirePair(fromID, toID uuid.UUID) (*Pair, error) {
	s.mu.RLock()
	from := s.accounts[fromID]
	to := s.accounts[toID]
	s.mu.RUnlock()
	if from == nil {
		return nil, ErrFromAccountNotFound
	}
	if to == nil {
		return nil, ErrToAccountNotFound
	}

	if fromID == toID {
		from.mu.Lock()
		if from.deleted {
			from.mu.Unlock()
			return nil, ErrFromAccountNotFound
		}
		return &Pair{from: from, to: from, single: true}, nil
	}

	first, second := from, to
	if bytes.Compare(toID[:], fromID[:]) < 0 {
		first, second = to, from
	}
	first.mu.Lock()
	second.mu.Lock()

	if from.deleted || to.deleted {
		err := ErrFromAccountNotFound
		if !from.deleted {
			err = ErrToAccountNotFound
		}
		second.mu.Unlock()
		first.mu.Unlock()
		return nil, err
	}
	return &Pair{from: from, to: to}, nil
}

// DebitSource takes amount from the source, failing with ErrInsufficientFunds
// and no mutation when the balance cannot cover it.
func (p *Pair) DebitSource(amount decimal.Decimal) error {
	return p.from.applyLocked(amount.Neg())
}

// CreditDestination adds amount to the destination. A credit of a positive
// amount structurally cannot be rejected.
func (p *Pair) CreditDestination(amount decimal.Decimal) error {
	return p.to.applyLocked(amount)
}

// RefundSource puts a debited amount back on the source (rollback path).
func (p *Pair) RefundSource(amount decimal.Decimal) {
	// Crediting back what was just debited cannot go negative.
	_ = p.from.applyLocked(amount)
}

// FromBalance reports the source balance while the pair is held.
func (p *Pair) FromBalance() decimal.Decimal { return p.from.balance }

// ToBalance reports the destination balance while the pair is held.
func (p *Pair) ToBalance() decimal.Decimal { return p.to.balance }

// Release unlocks both accounts.
func (p *Pair) Release() {
	if p.single {
		p.from.mu.Unlock()
		return
	}
	p.to.mu.Unlock()
	p.from.mu.Unlock()
}

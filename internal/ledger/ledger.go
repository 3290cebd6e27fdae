// Package ledger tracks crown balances per account and moves funds between
// them. Accounts are player identities plus the well-known treasury that
// collects all building payments.
package ledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Treasury is the well-known account credited with every upgrade payment.
var Treasury = uuid.MustParse("00000000-0000-4000-8000-000000000001")

// ErrInsufficientFunds is returned when a debit exceeds the payer's balance.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Persister is the write-through backend for account balances. A nil
// Persister keeps the ledger purely in memory.
type Persister interface {
	SaveAccount(id uuid.UUID, balance int64) error
	LoadAccounts() (map[uuid.UUID]int64, error)
}

// Ledger holds all account balances. A single mutex covers every account so
// a debit and its paired credit commit together or not at all.
type Ledger struct {
	persist Persister

	mu       sync.Mutex
	balances map[uuid.UUID]int64
}

// New creates a ledger, restoring any persisted balances.
func New(persist Persister) (*Ledger, error) {
	l := &Ledger{
		persist:  persist,
		balances: make(map[uuid.UUID]int64),
	}
	if persist == nil {
		return l, nil
	}
	saved, err := persist.LoadAccounts()
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	for id, bal := range saved {
		l.balances[id] = bal
	}
	return l, nil
}

// Balance returns the current balance of an account. Unknown accounts have
// balance zero.
func (l *Ledger) Balance(id uuid.UUID) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[id]
}

// Deposit credits an account with new funds.
func (l *Ledger) Deposit(id uuid.UUID, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("deposit amount %d must be positive", amount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.balances[id] + amount
	if err := l.saveLocked(id, next); err != nil {
		return err
	}
	l.balances[id] = next
	return nil
}

// Transfer atomically debits from and credits to. Fails with
// ErrInsufficientFunds when the payer's balance does not cover the amount;
// on any failure neither balance changes.
func (l *Ledger) Transfer(from, to uuid.UUID, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("transfer amount %d must be positive", amount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.balances[from] < amount {
		return fmt.Errorf("account %s needs %d: %w", from, amount, ErrInsufficientFunds)
	}
	nextFrom := l.balances[from] - amount
	nextTo := l.balances[to] + amount
	if err := l.saveLocked(from, nextFrom); err != nil {
		return err
	}
	if err := l.saveLocked(to, nextTo); err != nil {
		// Restore the already-persisted payer balance.
		if rerr := l.saveLocked(from, l.balances[from]); rerr != nil {
			return fmt.Errorf("persist credit: %w (restore payer: %v)", err, rerr)
		}
		return fmt.Errorf("persist credit: %w", err)
	}
	l.balances[from] = nextFrom
	l.balances[to] = nextTo
	return nil
}

func (l *Ledger) saveLocked(id uuid.UUID, balance int64) error {
	if l.persist == nil {
		return nil
	}
	if err := l.persist.SaveAccount(id, balance); err != nil {
		return fmt.Errorf("persist account: %w", err)
	}
	return nil
}

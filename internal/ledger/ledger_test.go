package ledger

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := New(nil)
	require.NoError(t, err)
	return l
}

func TestDepositAndBalance(t *testing.T) {
	l := newLedger(t)
	player := uuid.New()

	assert.Zero(t, l.Balance(player), "unknown accounts have balance zero")
	require.NoError(t, l.Deposit(player, 300))
	require.NoError(t, l.Deposit(player, 200))
	assert.Equal(t, int64(500), l.Balance(player))

	assert.Error(t, l.Deposit(player, 0))
	assert.Error(t, l.Deposit(player, -5))
}

func TestTransfer(t *testing.T) {
	l := newLedger(t)
	payer := uuid.New()
	require.NoError(t, l.Deposit(payer, 1_000))

	require.NoError(t, l.Transfer(payer, Treasury, 400))
	assert.Equal(t, int64(600), l.Balance(payer))
	assert.Equal(t, int64(400), l.Balance(Treasury))
}

func TestTransferInsufficientFunds(t *testing.T) {
	l := newLedger(t)
	payer := uuid.New()
	require.NoError(t, l.Deposit(payer, 100))

	err := l.Transfer(payer, Treasury, 101)
	require.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, int64(100), l.Balance(payer), "failed transfer debits nothing")
	assert.Zero(t, l.Balance(Treasury), "failed transfer credits nothing")
}

func TestConcurrentTransfersNeverOverdraw(t *testing.T) {
	l := newLedger(t)
	payer := uuid.New()
	require.NoError(t, l.Deposit(payer, 500))

	// 20 concurrent transfers of 100 against a 500 balance: exactly 5 win.
	const attempts = 20
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = l.Transfer(payer, Treasury, 100)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 5, succeeded)
	assert.Zero(t, l.Balance(payer))
	assert.Equal(t, int64(500), l.Balance(Treasury))
}

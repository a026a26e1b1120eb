package wallet

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Memory is an in-process ledger. Every wallet it opens is an account on the
// same ledger, so transfers between them settle instantly. It backs local play
// and the tests.
type Memory struct {
	mu       sync.Mutex
	balances map[string]decimal.Decimal
	rejected map[string]bool
	moves    map[string]int

	// Latency is slept outside the lock on every call to let concurrent
	// callers interleave, the way a remote wallet would.
	Latency time.Duration
}

func NewMemory() *Memory {
	return &Memory{
		balances: make(map[string]decimal.Decimal),
		rejected: make(map[string]bool),
		moves:    make(map[string]int),
	}
}

func (m *Memory) Open(name string) Wallet {
	return &memoryWallet{ledger: m, name: name, address: DeriveAddress(name)}
}

// Fund credits address out of thin air.
func (m *Memory) Fund(address string, amount decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[address] = m.balances[address].Add(amount)
	m.moves[address]++
}

func (m *Memory) BalanceOf(address string) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[address]
}

// RejectFrom makes every transfer out of address fail.
func (m *Memory) RejectFrom(address string, reject bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected[address] = reject
}

func (m *Memory) wait(ctx context.Context) error {
	if m.Latency <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(m.Latency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type memoryWallet struct {
	ledger  *Memory
	name    string
	address string

	mu      sync.Mutex
	started bool
}

func (w *memoryWallet) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.started = true
	return nil
}

func (w *memoryWallet) ready() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return fmt.Errorf("%w: %s", ErrNotReady, w.name)
	}
	return nil
}

func (w *memoryWallet) Address(ctx context.Context) (string, error) {
	if err := w.ready(); err != nil {
		return "", err
	}
	if err := w.ledger.wait(ctx); err != nil {
		return "", err
	}
	return w.address, nil
}

func (w *memoryWallet) Balance(ctx context.Context) (decimal.Decimal, error) {
	if err := w.ready(); err != nil {
		return decimal.Zero, err
	}
	if err := w.ledger.wait(ctx); err != nil {
		return decimal.Zero, err
	}
	return w.ledger.BalanceOf(w.address), nil
}

func (w *memoryWallet) SendTo(ctx context.Context, address string, amount decimal.Decimal) error {
	if err := w.ready(); err != nil {
		return err
	}
	if !amount.IsPositive() {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	if err := w.ledger.wait(ctx); err != nil {
		return err
	}

	m := w.ledger
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rejected[w.address] {
		return fmt.Errorf("%w: %s -> %s", ErrTransferRejected, w.name, address)
	}
	bal := m.balances[w.address]
	if bal.LessThan(amount) {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientFunds, w.name, bal, amount)
	}
	m.balances[w.address] = bal.Sub(amount)
	m.balances[address] = m.balances[address].Add(amount)
	m.moves[w.address]++
	m.moves[address]++
	return nil
}

func (w *memoryWallet) HasHistory(ctx context.Context) (bool, error) {
	if err := w.ready(); err != nil {
		return false, err
	}
	m := w.ledger
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.moves[w.address] > 0, nil
}

package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"hathordice/internal/database"
)

// Ledger is a custodial play-money backend persisted in SQLite or PostgreSQL.
type Ledger struct {
	db    database.Database
	seeds map[string]decimal.Decimal
}

// NewLedger builds the backend. seeds credits named wallets once, the first
// time their account is created (the bets and bonus pools).
func NewLedger(db database.Database, seeds map[string]decimal.Decimal) *Ledger {
	return &Ledger{db: db, seeds: seeds}
}

func (l *Ledger) Open(name string) Wallet {
	return &ledgerWallet{ledger: l, name: name, address: DeriveAddress(name)}
}

type ledgerWallet struct {
	ledger  *Ledger
	name    string
	address string

	mu      sync.Mutex
	started bool
}

func (w *ledgerWallet) Start(ctx context.Context) error {
	seed, err := ToCents(w.ledger.seeds[w.name])
	if err != nil {
		return fmt.Errorf("seed for %s: %w", w.name, err)
	}
	if err := database.EnsureAccount(ctx, w.ledger.db, w.address, w.name, seed); err != nil {
		return err
	}
	w.mu.Lock()
	w.started = true
	w.mu.Unlock()
	return nil
}

func (w *ledgerWallet) ready() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return fmt.Errorf("%w: %s", ErrNotReady, w.name)
	}
	return nil
}

func (w *ledgerWallet) Address(ctx context.Context) (string, error) {
	if err := w.ready(); err != nil {
		return "", err
	}
	return w.address, nil
}

func (w *ledgerWallet) Balance(ctx context.Context) (decimal.Decimal, error) {
	if err := w.ready(); err != nil {
		return decimal.Zero, err
	}
	acc, err := database.GetAccount(ctx, w.ledger.db, w.address)
	if err != nil {
		return decimal.Zero, err
	}
	return FromCents(acc.Balance), nil
}

func (w *ledgerWallet) SendTo(ctx context.Context, address string, amount decimal.Decimal) error {
	if err := w.ready(); err != nil {
		return err
	}
	cents, err := ToCents(amount)
	if err != nil || cents <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	_, err = database.Transfer(ctx, w.ledger.db, w.address, address, cents)
	if errors.Is(err, database.ErrInsufficientFunds) {
		return fmt.Errorf("%w: %s", ErrInsufficientFunds, w.name)
	}
	return err
}

func (w *ledgerWallet) HasHistory(ctx context.Context) (bool, error) {
	if err := w.ready(); err != nil {
		return false, err
	}
	n, err := database.CountTransfers(ctx, w.ledger.db, w.address)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

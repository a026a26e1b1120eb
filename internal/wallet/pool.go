package wallet

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// Pool is a wallet shared by many concurrent conversations, such as the bets
// pool or the bonus pool. Every check of the available balance and the commit
// that depends on it happen under the same lock, so concurrent flows cannot
// both pass a budget check against a stale balance.
type Pool struct {
	name   string
	wallet Wallet

	mu       sync.Mutex
	reserved decimal.Decimal
}

func NewPool(name string, w Wallet) *Pool {
	return &Pool{name: name, wallet: w}
}

func (p *Pool) Name() string { return p.name }

func (p *Pool) Address(ctx context.Context) (string, error) {
	return p.wallet.Address(ctx)
}

// Balance is the raw wallet balance, including reserved funds.
func (p *Pool) Balance(ctx context.Context) (decimal.Decimal, error) {
	return p.wallet.Balance(ctx)
}

// Available is the balance not promised to any open reservation.
func (p *Pool) Available(ctx context.Context) (decimal.Decimal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.availableLocked(ctx)
}

func (p *Pool) availableLocked(ctx context.Context) (decimal.Decimal, error) {
	bal, err := p.wallet.Balance(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s balance: %w", p.name, err)
	}
	return bal.Sub(p.reserved), nil
}

// Reserve sets aside amount for a later Payout. It fails with ErrPoolExhausted
// when the available balance cannot cover it.
func (p *Pool) Reserve(ctx context.Context, amount decimal.Decimal) (*Reservation, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	avail, err := p.availableLocked(ctx)
	if err != nil {
		return nil, err
	}
	if amount.GreaterThan(avail) {
		return nil, fmt.Errorf("%w: %s needs %s, has %s", ErrPoolExhausted, p.name, amount, avail)
	}
	p.reserved = p.reserved.Add(amount)
	return &Reservation{pool: p, amount: amount}, nil
}

// Grant sends amount straight to address if the available balance covers it.
func (p *Pool) Grant(ctx context.Context, address string, amount decimal.Decimal) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	avail, err := p.availableLocked(ctx)
	if err != nil {
		return err
	}
	if amount.GreaterThan(avail) {
		return fmt.Errorf("%w: %s needs %s, has %s", ErrPoolExhausted, p.name, amount, avail)
	}
	return p.wallet.SendTo(ctx, address, amount)
}

// Reservation is funds promised by a pool to a single pending bet. It grows
// by the escrowed stake and shrinks by every payout, so the pool never counts
// money owed to an open bet as available.
type Reservation struct {
	pool     *Pool
	amount   decimal.Decimal
	released bool
}

func (r *Reservation) Amount() decimal.Decimal {
	r.pool.mu.Lock()
	defer r.pool.mu.Unlock()
	return r.amount
}

// Escrow moves amount from w into the pool and adds it to the reservation.
// Both happen under the pool lock, so no concurrent Reserve can see the
// escrowed funds as available.
func (r *Reservation) Escrow(ctx context.Context, w Wallet, amount decimal.Decimal) error {
	r.pool.mu.Lock()
	defer r.pool.mu.Unlock()
	if r.released {
		return fmt.Errorf("%s: escrow on released reservation", r.pool.name)
	}
	addr, err := r.pool.wallet.Address(ctx)
	if err != nil {
		return fmt.Errorf("%s address: %w", r.pool.name, err)
	}
	if err := w.SendTo(ctx, addr, amount); err != nil {
		return err
	}
	r.amount = r.amount.Add(amount)
	r.pool.reserved = r.pool.reserved.Add(amount)
	return nil
}

// Payout sends amount from the pool to address. It never pays more than is
// reserved.
func (r *Reservation) Payout(ctx context.Context, address string, amount decimal.Decimal) error {
	r.pool.mu.Lock()
	defer r.pool.mu.Unlock()
	if r.released {
		return fmt.Errorf("%s: payout on released reservation", r.pool.name)
	}
	if amount.GreaterThan(r.amount) {
		return fmt.Errorf("%w: %s payout %s exceeds reserved %s", ErrPoolExhausted, r.pool.name, amount, r.amount)
	}
	if err := r.pool.wallet.SendTo(ctx, address, amount); err != nil {
		return err
	}
	r.amount = r.amount.Sub(amount)
	r.pool.reserved = r.pool.reserved.Sub(amount)
	return nil
}

// Release returns what is left of the reservation to the pool. Calling it
// twice is a no-op.
func (r *Reservation) Release() {
	r.pool.mu.Lock()
	defer r.pool.mu.Unlock()
	if r.released {
		return
	}
	r.released = true
	r.pool.reserved = r.pool.reserved.Sub(r.amount)
}

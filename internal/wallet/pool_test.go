package wallet

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newStartedPool(t *testing.T, m *Memory, name string, funds string) *Pool {
	t.Helper()
	w := m.Open(name)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("start %s: %v", name, err)
	}
	m.Fund(DeriveAddress(name), d(funds))
	return NewPool(name, w)
}

func TestReserveRespectsOutstandingReservations(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	pool := newStartedPool(t, m, "bets", "15")

	first, err := pool.Reserve(ctx, d("10"))
	if err != nil {
		t.Fatalf("first reserve: %v", err)
	}
	if _, err := pool.Reserve(ctx, d("10")); !errors.Is(err, ErrPoolExhausted) {
		t.Fatalf("expected ErrPoolExhausted, got %v", err)
	}

	first.Release()
	first.Release()
	avail, err := pool.Available(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !avail.Equal(d("15")) {
		t.Fatalf("available = %s, want 15", avail)
	}
}

func TestPayoutOnReleasedReservationFails(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	pool := newStartedPool(t, m, "bets", "15")

	res, err := pool.Reserve(ctx, d("5"))
	if err != nil {
		t.Fatal(err)
	}
	res.Release()
	if err := res.Payout(ctx, "someone", d("5")); err == nil {
		t.Fatal("expected error paying out a released reservation")
	}
	if !m.BalanceOf(DeriveAddress("bets")).Equal(d("15")) {
		t.Fatal("pool balance changed")
	}
}

// An escrowed stake belongs to the open bet until its reservation is released.
func TestEscrowedStakeIsNotAvailable(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	pool := newStartedPool(t, m, "bets", "10")

	user := m.Open("player")
	if err := user.Start(ctx); err != nil {
		t.Fatal(err)
	}
	m.Fund(DeriveAddress("player"), d("10"))

	res, err := pool.Reserve(ctx, d("10"))
	if err != nil {
		t.Fatal(err)
	}
	if err := res.Escrow(ctx, user, d("10")); err != nil {
		t.Fatalf("escrow: %v", err)
	}
	if !res.Amount().Equal(d("20")) {
		t.Fatalf("reserved = %s, want 20", res.Amount())
	}
	if avail, _ := pool.Available(ctx); !avail.IsZero() {
		t.Fatalf("available = %s, the stake must stay reserved", avail)
	}
	if _, err := pool.Reserve(ctx, d("10")); !errors.Is(err, ErrPoolExhausted) {
		t.Fatalf("expected ErrPoolExhausted, got %v", err)
	}

	if err := res.Payout(ctx, DeriveAddress("player"), d("20.01")); !errors.Is(err, ErrPoolExhausted) {
		t.Fatalf("payout above the reservation: %v", err)
	}
	if err := res.Payout(ctx, DeriveAddress("player"), d("20")); err != nil {
		t.Fatalf("payout: %v", err)
	}
	res.Release()
	if avail, _ := pool.Available(ctx); !avail.IsZero() {
		t.Fatalf("available = %s after paying the whole pool out", avail)
	}
}

func TestFailedEscrowKeepsReservation(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	pool := newStartedPool(t, m, "bets", "10")
	user := m.Open("broke")
	if err := user.Start(ctx); err != nil {
		t.Fatal(err)
	}

	res, err := pool.Reserve(ctx, d("5"))
	if err != nil {
		t.Fatal(err)
	}
	defer res.Release()
	if err := res.Escrow(ctx, user, d("5")); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if !res.Amount().Equal(d("5")) {
		t.Fatalf("reserved = %s, want 5", res.Amount())
	}
}

func TestGrantSkipsWhenPoolTooSmall(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	pool := newStartedPool(t, m, "bonus", "3.00")

	err := pool.Grant(ctx, "newcomer", d("5.00"))
	if !errors.Is(err, ErrPoolExhausted) {
		t.Fatalf("expected ErrPoolExhausted, got %v", err)
	}
	if !m.BalanceOf("newcomer").IsZero() {
		t.Fatal("newcomer should not have been funded")
	}
}

// Concurrent reservations against a pool with a slow wallet never promise more
// than the pool holds, and the payouts never overdraw it.
func TestConcurrentReservationsNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Latency = time.Millisecond
	pool := newStartedPool(t, m, "bets", "50")

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := pool.Reserve(ctx, d("10"))
			if err != nil {
				return
			}
			defer res.Release()
			if err := res.Payout(ctx, "winner", d("10")); err != nil {
				t.Errorf("payout: %v", err)
				return
			}
			wins.Add(1)
		}()
	}
	wg.Wait()

	bal := m.BalanceOf(DeriveAddress("bets"))
	if bal.IsNegative() {
		t.Fatalf("pool overdrawn: %s", bal)
	}
	if paid := m.BalanceOf("winner"); !paid.Equal(d("10").Mul(decimal.NewFromInt(int64(wins.Load())))) {
		t.Fatalf("paid %s for %d wins", paid, wins.Load())
	}
	if wins.Load() > 5 {
		t.Fatalf("%d payouts of 10 from a pool of 50", wins.Load())
	}
}

func TestConcurrentGrantsNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Latency = time.Millisecond
	pool := newStartedPool(t, m, "bonus", "20")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = pool.Grant(ctx, "user", d("5"))
		}()
	}
	wg.Wait()

	if bal := m.BalanceOf(DeriveAddress("bonus")); !bal.IsZero() {
		t.Fatalf("bonus balance = %s, want 0", bal)
	}
	if got := m.BalanceOf("user"); !got.Equal(d("20")) {
		t.Fatalf("granted %s, want 20", got)
	}
}

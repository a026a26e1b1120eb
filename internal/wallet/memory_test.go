package wallet

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryWalletRequiresStart(t *testing.T) {
	w := NewMemory().Open("lazy")
	if _, err := w.Balance(context.Background()); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
}

func TestMemorySendTo(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	alice := m.Open("alice")
	if err := alice.Start(ctx); err != nil {
		t.Fatal(err)
	}
	addr, err := alice.Address(ctx)
	if err != nil {
		t.Fatal(err)
	}
	m.Fund(addr, d("7.50"))

	if err := alice.SendTo(ctx, "bob", d("8")); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if err := alice.SendTo(ctx, "bob", d("2.25")); err != nil {
		t.Fatalf("send: %v", err)
	}
	bal, _ := alice.Balance(ctx)
	if !bal.Equal(d("5.25")) {
		t.Fatalf("balance = %s, want 5.25", bal)
	}

	m.RejectFrom(addr, true)
	if err := alice.SendTo(ctx, "bob", d("1")); !errors.Is(err, ErrTransferRejected) {
		t.Fatalf("expected ErrTransferRejected, got %v", err)
	}
	if !m.BalanceOf("bob").Equal(d("2.25")) {
		t.Fatal("rejected transfer moved funds")
	}
}

func TestMemoryHistory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	alice, bob := m.Open("alice"), m.Open("bob")
	for _, w := range []Wallet{alice, bob} {
		if err := w.Start(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if ok, _ := bob.(HistoryChecker).HasHistory(ctx); ok {
		t.Fatal("fresh wallet reports history")
	}
	m.Fund(DeriveAddress("alice"), d("1"))
	if err := alice.SendTo(ctx, DeriveAddress("bob"), d("1")); err != nil {
		t.Fatal(err)
	}
	for _, w := range []Wallet{alice, bob} {
		if ok, err := w.(HistoryChecker).HasHistory(ctx); err != nil || !ok {
			t.Fatalf("history = %v, %v", ok, err)
		}
	}
}

func TestToCents(t *testing.T) {
	if c, err := ToCents(d("12.34")); err != nil || c != 1234 {
		t.Fatalf("ToCents(12.34) = %d, %v", c, err)
	}
	if _, err := ToCents(d("0.125")); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if !FromCents(505).Equal(d("5.05")) {
		t.Fatal("FromCents(505) != 5.05")
	}
}

func TestDeriveAddressIsStable(t *testing.T) {
	if DeriveAddress("discord-1") != DeriveAddress("discord-1") {
		t.Fatal("address not stable")
	}
	if DeriveAddress("discord-1") == DeriveAddress("telegram-1") {
		t.Fatal("addresses collide across platforms")
	}
}

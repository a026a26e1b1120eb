// Package wallet defines the funds source/sink used by the bot and its backends.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrTransferRejected  = errors.New("transfer rejected")
	ErrPoolExhausted     = errors.New("pool cannot cover amount")
	ErrNotReady          = errors.New("wallet not ready")
	ErrInvalidAmount     = errors.New("invalid amount")
)

// Wallet is an opaque per-identity funds handle. Amounts are whole currency
// units. SendTo returns nil once the transfer is accepted for broadcast; any
// error means no funds are guaranteed to have moved.
type Wallet interface {
	Start(ctx context.Context) error
	Address(ctx context.Context) (string, error)
	Balance(ctx context.Context) (decimal.Decimal, error)
	SendTo(ctx context.Context, address string, amount decimal.Decimal) error
}

// HistoryChecker is implemented by wallets that can tell whether any funds
// ever moved in or out. A wallet with history is not new, even if this
// process has never seen it.
type HistoryChecker interface {
	HasHistory(ctx context.Context) (bool, error)
}

// Factory opens the wallet scoped to name. The wallet still needs Start.
type Factory interface {
	Open(name string) Wallet
}

var addressSpace = uuid.MustParse("6f1d2c43-8f0e-4d8a-9a57-3b1c0de7d1ce")

// DeriveAddress maps a wallet name to a stable address for the local backends.
func DeriveAddress(name string) string {
	return uuid.NewSHA1(addressSpace, []byte(name)).String()
}

// ToCents converts whole units to the smallest unit, rejecting fractions of a cent.
func ToCents(amount decimal.Decimal) (int64, error) {
	cents := amount.Shift(2)
	if !cents.Equal(cents.Truncate(0)) {
		return 0, ErrInvalidAmount
	}
	return cents.IntPart(), nil
}

func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// amountPattern is a plain decimal with at most two fraction digits. Exponent
// notation is refused before parsing since rescaling 1e99999999 is unbounded work.
var amountPattern = regexp.MustCompile(`^[0-9]{1,15}(\.[0-9]{1,2})?$`)

// ParseAmount parses user input such as "10" or "0.25".
func ParseAmount(s string) (decimal.Decimal, error) {
	if !amountPattern.MatchString(s) {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return decimal.NewFromString(s)
}

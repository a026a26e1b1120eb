package games

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"hathordice/internal/odds"
	"hathordice/internal/users"
	"hathordice/internal/wallet"
)

// Reasons a bet is refused before any funds move.
var (
	ErrBadArgs           = errors.New("need multiplier and amount")
	ErrUnknownMultiplier = errors.New("invalid multiplier")
	ErrBadAmount         = errors.New("amount must be a number with at most 2 decimal places")
	ErrBelowMin          = errors.New("amount below minimum bet")
	ErrAboveMax          = errors.New("amount above maximum bet")
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrHouseCannotCover  = errors.New("bets pool cannot cover the prize")
)

// Failures of the wallet collaborators while settling.
var (
	ErrStakeNotCollected = errors.New("stake transfer failed")
	ErrPayoutFailed      = errors.New("prize transfer failed")
)

// Rejection is a user input or house capacity error. Nothing moved.
type Rejection struct {
	Reason  error
	Label   string
	Odds    odds.Odds
	Balance decimal.Decimal
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("bet rejected: %v", r.Reason)
}

func (r *Rejection) Unwrap() error { return r.Reason }

// Roller draws a dice result in [0, odds.RollSpace).
type Roller interface {
	Roll() int
}

// CryptoRoller draws uniformly from crypto/rand.
type CryptoRoller struct{}

func (CryptoRoller) Roll() int {
	n, err := rand.Int(rand.Reader, big.NewInt(odds.RollSpace))
	if err != nil {
		panic(fmt.Sprintf("dice: read random: %v", err))
	}
	return int(n.Int64())
}

// Ticket is an accepted bet, announced to the user before the roll.
type Ticket struct {
	ID      string
	Odds    odds.Odds
	Amount  decimal.Decimal
	Prize   decimal.Decimal
	MinRoll int
}

// Bet is the outcome of one wager. It is not retained after the command.
type Bet struct {
	Ticket
	Roll    int
	Won     bool
	Balance decimal.Decimal
}

func (b Bet) Outcome() string {
	if b.Won {
		return "won"
	}
	return "lost"
}

type DiceOptions struct {
	// Delay is a cosmetic pause between the announcement and the roll.
	Delay  time.Duration
	Roller Roller
	Log    *zap.Logger
	// OnSettled runs after every fully settled bet.
	OnSettled func(u *users.User, bet Bet)
}

// Dice runs the bet command: validation, stake escrow into the bets pool,
// roll and payout.
type Dice struct {
	table     *odds.Table
	bets      *wallet.Pool
	delay     time.Duration
	roller    Roller
	log       *zap.Logger
	onSettled func(*users.User, Bet)
}

func NewDice(table *odds.Table, bets *wallet.Pool, opts DiceOptions) *Dice {
	if opts.Roller == nil {
		opts.Roller = CryptoRoller{}
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	return &Dice{
		table:     table,
		bets:      bets,
		delay:     opts.Delay,
		roller:    opts.Roller,
		log:       opts.Log,
		onSettled: opts.OnSettled,
	}
}

func (d *Dice) Table() *odds.Table { return d.table }

// Play validates args ("<multiplier> <amount>") and settles the wager for u.
// announce is called once the bet is accepted, before the roll. A *Rejection
// means nothing moved. Once the stake has been collected the settlement no
// longer observes ctx cancellation.
func (d *Dice) Play(ctx context.Context, u *users.User, args []string, announce func(Ticket)) (*Bet, error) {
	if len(args) != 2 {
		return nil, &Rejection{Reason: ErrBadArgs}
	}
	label, amountStr := args[0], args[1]

	o, err := d.table.Lookup(label)
	if err != nil {
		return nil, &Rejection{Reason: ErrUnknownMultiplier, Label: label}
	}
	amount, err := wallet.ParseAmount(amountStr)
	if err != nil {
		return nil, &Rejection{Reason: ErrBadAmount, Label: label, Odds: o}
	}
	if amount.LessThan(o.MinBet()) {
		return nil, &Rejection{Reason: ErrBelowMin, Label: label, Odds: o}
	}
	if amount.GreaterThan(o.MaxBet()) {
		return nil, &Rejection{Reason: ErrAboveMax, Label: label, Odds: o}
	}

	u.Lock()
	defer u.Unlock()

	w := u.Wallet()
	balance, err := w.Balance(ctx)
	if err != nil {
		return nil, fmt.Errorf("user balance: %w", err)
	}
	if amount.GreaterThan(balance) {
		return nil, &Rejection{Reason: ErrInsufficientFunds, Label: label, Odds: o, Balance: balance}
	}

	userAddr, err := w.Address(ctx)
	if err != nil {
		return nil, fmt.Errorf("user address: %w", err)
	}

	prize := o.Prize(amount)
	res, err := d.bets.Reserve(ctx, prize.Sub(amount))
	if errors.Is(err, wallet.ErrPoolExhausted) {
		return nil, &Rejection{Reason: ErrHouseCannotCover, Label: label, Odds: o, Balance: balance}
	}
	if err != nil {
		return nil, err
	}
	defer res.Release()

	ticket := Ticket{ID: uuid.NewString(), Odds: o, Amount: amount, Prize: prize, MinRoll: o.MinRoll()}
	log := d.log.With(zap.String("bet", ticket.ID), zap.String("user", u.ID()))
	log.Info("bet accepted", zap.String("multiplier", label), zap.String("amount", amount.String()))
	if announce != nil {
		announce(ticket)
	}

	settle := context.WithoutCancel(ctx)
	if d.delay > 0 {
		time.Sleep(d.delay)
	}

	if err := res.Escrow(settle, w, amount); err != nil {
		log.Error("failed to collect stake", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrStakeNotCollected, err)
	}

	roll := d.roller.Roll()
	bet := &Bet{Ticket: ticket, Roll: roll, Won: o.Wins(roll)}
	expected := balance.Sub(amount)
	if bet.Won {
		if err := res.Payout(settle, userAddr, prize); err != nil {
			log.Error("failed to pay prize, needs manual handling", zap.Int("roll", roll), zap.String("prize", prize.String()), zap.Error(err))
			return bet, fmt.Errorf("%w: %w", ErrPayoutFailed, err)
		}
		expected = expected.Add(prize)
	}
	u.MarkSettled()

	bet.Balance, err = w.Balance(settle)
	if err != nil {
		log.Warn("cannot read balance after settlement", zap.Error(err))
		bet.Balance = expected
	}
	log.Info("bet settled", zap.Int("roll", roll), zap.String("outcome", bet.Outcome()))

	if d.onSettled != nil {
		d.onSettled(u, *bet)
	}
	return bet, nil
}

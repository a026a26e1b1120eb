// Package odds holds the catalog of dice multipliers accepted by the bet command.
package odds

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
)

// RollSpace is the number of faces of the dice: rolls are integers in [0, RollSpace).
const RollSpace = 100

var (
	ErrInvalidOdds = errors.New("invalid odds")
	ErrNotFound    = errors.New("multiplier not found")

	hundred = decimal.NewFromInt(RollSpace)
)

// Odds is one catalog entry. The win probability is 1/multiplier and must be
// exactly representable with two decimal places so that it maps onto whole
// faces of a 100 sided dice.
type Odds struct {
	multiplier decimal.Decimal
	minBet     decimal.Decimal
	maxBet     decimal.Decimal
}

// New validates and builds an entry.
func New(multiplier, minBet, maxBet decimal.Decimal) (Odds, error) {
	if multiplier.LessThanOrEqual(decimal.NewFromInt(1)) {
		return Odds{}, fmt.Errorf("%w: multiplier %s must be greater than 1", ErrInvalidOdds, multiplier)
	}
	if !minBet.IsPositive() || maxBet.LessThan(minBet) {
		return Odds{}, fmt.Errorf("%w: bet bounds [%s, %s] for %sx", ErrInvalidOdds, minBet, maxBet, multiplier)
	}
	o := Odds{multiplier: multiplier, minBet: minBet, maxBet: maxBet}
	p := o.Probability()
	if !p.Equal(p.Truncate(2)) {
		return Odds{}, fmt.Errorf("%w: %sx is not valid for dice100 (probability %s)", ErrInvalidOdds, multiplier, p)
	}
	return o, nil
}

// MustNew is New for static tables; it panics on an invalid entry.
func MustNew(multiplier, minBet, maxBet int64) Odds {
	o, err := New(decimal.NewFromInt(multiplier), decimal.NewFromInt(minBet), decimal.NewFromInt(maxBet))
	if err != nil {
		panic(err)
	}
	return o
}

func (o Odds) Multiplier() decimal.Decimal { return o.multiplier }
func (o Odds) MinBet() decimal.Decimal     { return o.minBet }
func (o Odds) MaxBet() decimal.Decimal     { return o.maxBet }

// Label is the form users type, e.g. "2x".
func (o Odds) Label() string {
	return o.multiplier.String() + "x"
}

func (o Odds) Probability() decimal.Decimal {
	return decimal.NewFromInt(1).Div(o.multiplier)
}

// PercentProb renders the win probability as a percentage with two decimals.
func (o Odds) PercentProb() string {
	return o.Probability().Mul(hundred).StringFixed(2)
}

// MinRoll is the exclusive bound below which a roll wins.
func (o Odds) MinRoll() int {
	return int(o.Probability().Mul(hundred).Floor().IntPart())
}

// Prize is what a winning bet of amount pays back.
func (o Odds) Prize(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(o.multiplier)
}

// Wins reports whether roll beats these odds.
func (o Odds) Wins(roll int) bool {
	return roll < o.MinRoll()
}

// Table is the fixed, read-only catalog shared by every conversation.
type Table struct {
	entries []Odds
}

func NewTable(entries ...Odds) (*Table, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: empty catalog", ErrInvalidOdds)
	}
	seen := make(map[string]bool, len(entries))
	for _, o := range entries {
		// entries built without New still go through the checks
		if _, err := New(o.multiplier, o.minBet, o.maxBet); err != nil {
			return nil, err
		}
		if seen[o.Label()] {
			return nil, fmt.Errorf("%w: duplicate multiplier %s", ErrInvalidOdds, o.Label())
		}
		seen[o.Label()] = true
	}
	return &Table{entries: append([]Odds(nil), entries...)}, nil
}

// Default is the built-in catalog.
func Default() *Table {
	t, err := NewTable(
		MustNew(2, 1, 100),
		MustNew(10, 1, 10),
		MustNew(100, 1, 2),
	)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup finds the entry for a label such as "2x". Matching is case-insensitive
// on the trailing x.
func (t *Table) Lookup(label string) (Odds, error) {
	for _, o := range t.entries {
		if strings.EqualFold(o.Label(), label) {
			return o, nil
		}
	}
	return Odds{}, fmt.Errorf("%w: %q", ErrNotFound, label)
}

// All returns the entries in catalog order.
func (t *Table) All() []Odds {
	return append([]Odds(nil), t.entries...)
}

type fileEntry struct {
	Multiplier decimal.Decimal `json:"multiplier"`
	MinBet     decimal.Decimal `json:"min_bet"`
	MaxBet     decimal.Decimal `json:"max_bet"`
}

// LoadFile reads a JSON catalog of {"multiplier","min_bet","max_bet"} objects.
// Any entry breaking the dice100 rule fails the whole load.
func LoadFile(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read odds file: %w", err)
	}
	var items []fileEntry
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("parse odds file %s: %w", path, err)
	}
	entries := make([]Odds, 0, len(items))
	for _, it := range items {
		o, err := New(it.Multiplier, it.MinBet, it.MaxBet)
		if err != nil {
			return nil, err
		}
		entries = append(entries, o)
	}
	return NewTable(entries...)
}

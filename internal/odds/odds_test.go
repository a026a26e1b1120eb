package odds

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
)

func TestDefaultCatalogInvariant(t *testing.T) {
	for _, o := range Default().All() {
		p := o.Probability()
		if !p.Equal(p.Truncate(2)) {
			t.Errorf("%s: probability %s is not two-decimal exact", o.Label(), p)
		}
		if want := int(p.Mul(decimal.NewFromInt(100)).Floor().IntPart()); o.MinRoll() != want {
			t.Errorf("%s: min roll %d, want %d", o.Label(), o.MinRoll(), want)
		}
	}
}

func TestDerivedValues(t *testing.T) {
	tests := []struct {
		label   string
		minRoll int
		percent string
		maxBet  string
	}{
		{"2x", 50, "50.00", "100"},
		{"10x", 10, "10.00", "10"},
		{"100x", 1, "1.00", "2"},
	}
	table := Default()
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			o, err := table.Lookup(tt.label)
			if err != nil {
				t.Fatalf("lookup: %v", err)
			}
			if o.MinRoll() != tt.minRoll {
				t.Errorf("min roll = %d, want %d", o.MinRoll(), tt.minRoll)
			}
			if o.PercentProb() != tt.percent {
				t.Errorf("percent = %s, want %s", o.PercentProb(), tt.percent)
			}
			if o.MaxBet().String() != tt.maxBet {
				t.Errorf("max bet = %s, want %s", o.MaxBet(), tt.maxBet)
			}
		})
	}
}

func TestPrize(t *testing.T) {
	o := MustNew(2, 1, 100)
	amount := decimal.RequireFromString("10.25")
	if got := o.Prize(amount); !got.Equal(decimal.RequireFromString("20.5")) {
		t.Fatalf("prize = %s, want 20.5", got)
	}
}

func TestWinsBoundary(t *testing.T) {
	o := MustNew(2, 1, 100)
	for roll := 0; roll < RollSpace; roll++ {
		if got, want := o.Wins(roll), roll < 50; got != want {
			t.Fatalf("roll %d: wins = %v, want %v", roll, got, want)
		}
	}
	if o.Wins(o.MinRoll()) {
		t.Fatal("a roll equal to the min roll must lose")
	}
}

func TestLookupUnknown(t *testing.T) {
	if _, err := Default().Lookup("3x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := Default().Lookup("2X"); err != nil {
		t.Fatalf("upper case label: %v", err)
	}
}

func TestNewRejectsNonDiceMultipliers(t *testing.T) {
	for _, mul := range []string{"3", "1.5", "1000", "8", "1", "0.5"} {
		_, err := New(decimal.RequireFromString(mul), decimal.NewFromInt(1), decimal.NewFromInt(10))
		if !errors.Is(err, ErrInvalidOdds) {
			t.Errorf("%sx: expected ErrInvalidOdds, got %v", mul, err)
		}
	}
}

func TestNewRejectsBadBounds(t *testing.T) {
	_, err := New(decimal.NewFromInt(2), decimal.NewFromInt(10), decimal.NewFromInt(1))
	if !errors.Is(err, ErrInvalidOdds) {
		t.Fatalf("expected ErrInvalidOdds, got %v", err)
	}
}

func TestNewTableRejectsDuplicates(t *testing.T) {
	_, err := NewTable(MustNew(2, 1, 10), MustNew(2, 1, 5))
	if !errors.Is(err, ErrInvalidOdds) {
		t.Fatalf("expected ErrInvalidOdds, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "odds.json")
	body := `[{"multiplier":"4","min_bet":"0.5","max_bet":"25"},{"multiplier":20,"min_bet":1,"max_bet":5}]`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	table, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	o, err := table.Lookup("4x")
	if err != nil {
		t.Fatalf("lookup 4x: %v", err)
	}
	if o.MinRoll() != 25 {
		t.Errorf("4x min roll = %d, want 25", o.MinRoll())
	}
	if len(table.All()) != 2 {
		t.Errorf("expected 2 entries, got %d", len(table.All()))
	}
}

func TestLoadFileFailsFast(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "odds.json")
	body := `[{"multiplier":"2","min_bet":"1","max_bet":"100"},{"multiplier":"3","min_bet":"1","max_bet":"35"}]`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); !errors.Is(err, ErrInvalidOdds) {
		t.Fatalf("expected ErrInvalidOdds, got %v", err)
	}
}

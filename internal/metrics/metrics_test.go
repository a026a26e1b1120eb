package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
)

func TestRecorder(t *testing.T) {
	r := New()
	r.Command("discord", "bet")
	r.Bet("discord", "2x", "won", decimal.NewFromInt(10), decimal.NewFromInt(20))
	r.Bet("discord", "2x", "lost", decimal.NewFromInt(5), decimal.Zero)
	r.Rejection("telegram", "above_max")

	if got := testutil.ToFloat64(r.Bets.WithLabelValues("discord", "2x", "won")); got != 1 {
		t.Fatalf("won bets = %v", got)
	}
	if got := testutil.ToFloat64(r.Wagered.WithLabelValues("discord")); got != 15 {
		t.Fatalf("wagered = %v, want 15", got)
	}
	if got := testutil.ToFloat64(r.Paid.WithLabelValues("discord")); got != 20 {
		t.Fatalf("paid = %v, want 20", got)
	}
	if got := testutil.ToFloat64(r.Rejections.WithLabelValues("telegram", "above_max")); got != 1 {
		t.Fatalf("rejections = %v", got)
	}
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	r.Command("discord", "help")
	r.Bet("discord", "2x", "won", decimal.NewFromInt(1), decimal.NewFromInt(2))
	r.Pool("discord-bets", decimal.NewFromInt(1))
	if r.Registry() != nil {
		t.Fatal("nil recorder has no registry")
	}
}

// Package metrics exposes Prometheus metrics for the bot.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// Recorder collects command and betting metrics. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	registry *prometheus.Registry

	Commands    *prometheus.CounterVec
	Bets        *prometheus.CounterVec
	Rejections  *prometheus.CounterVec
	Wagered     *prometheus.CounterVec
	Paid        *prometheus.CounterVec
	Failures    *prometheus.CounterVec
	PoolBalance *prometheus.GaugeVec
	Users       *prometheus.GaugeVec
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dice_commands_total",
			Help: "Commands routed, by platform and command",
		}, []string{"platform", "command"}),
		Bets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dice_bets_total",
			Help: "Settled bets, by platform, multiplier and outcome",
		}, []string{"platform", "multiplier", "outcome"}),
		Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dice_bet_rejections_total",
			Help: "Rejected bets, by platform and reason",
		}, []string{"platform", "reason"}),
		Wagered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dice_wagered_htr_total",
			Help: "Amount wagered on settled bets",
		}, []string{"platform"}),
		Paid: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dice_paid_htr_total",
			Help: "Prizes paid by the bets pool",
		}, []string{"platform"}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dice_failures_total",
			Help: "Collaborator failures converted into a manual handling reply",
		}, []string{"platform", "command"}),
		PoolBalance: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dice_pool_balance_htr",
			Help: "Last observed balance of a shared pool",
		}, []string{"pool"}),
		Users: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dice_users",
			Help: "Users known to the process, by platform",
		}, []string{"platform"}),
	}
	r.registry.MustRegister(
		r.Commands, r.Bets, r.Rejections, r.Wagered, r.Paid, r.Failures, r.PoolBalance, r.Users,
		prometheus.NewGoCollector(),
	)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) Command(platform, command string) {
	if r == nil {
		return
	}
	r.Commands.WithLabelValues(platform, command).Inc()
}

func (r *Recorder) Bet(platform, multiplier, outcome string, amount, paid decimal.Decimal) {
	if r == nil {
		return
	}
	r.Bets.WithLabelValues(platform, multiplier, outcome).Inc()
	r.Wagered.WithLabelValues(platform).Add(amount.InexactFloat64())
	if paid.IsPositive() {
		r.Paid.WithLabelValues(platform).Add(paid.InexactFloat64())
	}
}

func (r *Recorder) Rejection(platform, reason string) {
	if r == nil {
		return
	}
	r.Rejections.WithLabelValues(platform, reason).Inc()
}

func (r *Recorder) Failure(platform, command string) {
	if r == nil {
		return
	}
	r.Failures.WithLabelValues(platform, command).Inc()
}

func (r *Recorder) Pool(name string, balance decimal.Decimal) {
	if r == nil {
		return
	}
	r.PoolBalance.WithLabelValues(name).Set(balance.InexactFloat64())
}

func (r *Recorder) UserCount(platform string, n int) {
	if r == nil {
		return
	}
	r.Users.WithLabelValues(platform).Set(float64(n))
}

package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// RewardMetrics tracks reward applications served by the ledger processor.
type RewardMetrics struct {
	applied     *prometheus.CounterVec
	rejected    *prometheus.CounterVec
	issued      *prometheus.CounterVec
	streak      *prometheus.HistogramVec
	multipliers *prometheus.CounterVec
	quotes      *prometheus.CounterVec
}

var (
	rewardsOnce     sync.Once
	rewardsRegistry *RewardMetrics
)

// Rewards returns the process-wide reward metrics, registering them with the
// default Prometheus registry on first use.
func Rewards() *RewardMetrics {
	rewardsOnce.Do(func() {
		rewardsRegistry = newRewardMetrics()
		rewardsRegistry.register(prometheus.DefaultRegisterer)
	})
	return rewardsRegistry
}

// NewRewardMetrics builds an unregistered set of collectors bound to reg. A nil
// registerer leaves the collectors detached, which is useful in tests.
func NewRewardMetrics(reg prometheus.Registerer) *RewardMetrics {
	m := newRewardMetrics()
	if reg != nil {
		m.register(reg)
	}
	return m
}

func newRewardMetrics() *RewardMetrics {
	return &RewardMetrics{
		applied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rewards_applied_total",
			Help: "Count of reward applications persisted by activity.",
		}, []string{"activity"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rewards_rejected_total",
			Help: "Count of reward applications rejected by reason.",
		}, []string{"reason"}),
		issued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rewards_issued_base_units_total",
			Help: "Sum of reward amounts recorded, in base units, by activity.",
		}, []string{"activity"}),
		streak: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rewards_consecutive_count",
			Help:    "Consecutive repeat count observed on each application.",
			Buckets: []float64{1, 2, 3, 4, 5, 8, 16, 32, 64},
		}, []string{"activity"}),
		multipliers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rewards_demand_multiplier_total",
			Help: "Count of applications by demand multiplier band.",
		}, []string{"band"}),
		quotes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rewards_quotes_total",
			Help: "Count of reward quotes served by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *RewardMetrics) register(reg prometheus.Registerer) {
	reg.MustRegister(m.applied, m.rejected, m.issued, m.streak, m.multipliers, m.quotes)
}

// ObserveApplied records a persisted reward.
func (m *RewardMetrics) ObserveApplied(activity string, consecutive uint32, amount uint64, band string) {
	if m == nil {
		return
	}
	activity = label(activity)
	m.applied.WithLabelValues(activity).Inc()
	m.issued.WithLabelValues(activity).Add(float64(amount))
	m.streak.WithLabelValues(activity).Observe(float64(consecutive))
	m.multipliers.WithLabelValues(label(band)).Inc()
}

// ObserveRejected records a failed application.
func (m *RewardMetrics) ObserveRejected(reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(label(reason)).Inc()
}

func (m *RewardMetrics) ObserveQuote(ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.quotes.WithLabelValues(outcome).Inc()
}

func label(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return value
}

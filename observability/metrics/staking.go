package metrics

import (
	"math/big"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type StakingMetrics struct {
	operations      *prometheus.CounterVec
	tierTransitions *prometheus.CounterVec
	totalStaked     prometheus.Gauge
	rewardRate      prometheus.Gauge
	rewardsPaid     prometheus.Counter
}

var (
	stakingOnce     sync.Once
	stakingRegistry *StakingMetrics
)

func Staking() *StakingMetrics {
	stakingOnce.Do(func() {
		stakingRegistry = &StakingMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "memberstake",
				Name:      "operations_total",
				Help:      "Staking operations segmented by operation and outcome kind.",
			}, []string{"op", "outcome"}),
			tierTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "memberstake",
				Name:      "tier_transitions_total",
				Help:      "Badge mints and burns caused by tier threshold crossings.",
			}, []string{"kind"}),
			totalStaked: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "memberstake",
				Name:      "total_staked",
				Help:      "Sum of all staked principal after the last committed operation.",
			}),
			rewardRate: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "memberstake",
				Name:      "reward_rate",
				Help:      "Reward units distributed per second in the current period.",
			}),
			rewardsPaid: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "memberstake",
				Name:      "rewards_paid_total",
				Help:      "Total reward units transferred to stakers.",
			}),
		}
		prometheus.MustRegister(
			stakingRegistry.operations,
			stakingRegistry.tierTransitions,
			stakingRegistry.totalStaked,
			stakingRegistry.rewardRate,
			stakingRegistry.rewardsPaid,
		)
	})
	return stakingRegistry
}

// ObserveOperation counts one operation. An empty kind records success.
func (m *StakingMetrics) ObserveOperation(op, kind string) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "ok"
	}
	m.operations.WithLabelValues(op, kind).Inc()
}

func (m *StakingMetrics) ObserveTierTransition(minted bool) {
	if m == nil {
		return
	}
	kind := "burn"
	if minted {
		kind = "mint"
	}
	m.tierTransitions.WithLabelValues(kind).Inc()
}

func (m *StakingMetrics) SetTotalStaked(v *big.Int) {
	if m == nil {
		return
	}
	m.totalStaked.Set(toFloat(v))
}

func (m *StakingMetrics) SetRewardRate(v *big.Int) {
	if m == nil {
		return
	}
	m.rewardRate.Set(toFloat(v))
}

func (m *StakingMetrics) AddRewardsPaid(v *big.Int) {
	if m == nil || v == nil || v.Sign() <= 0 {
		return
	}
	m.rewardsPaid.Add(toFloat(v))
}

func toFloat(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}

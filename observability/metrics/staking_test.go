package metrics

import (
	"math/big"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestStakingMetricsRecord(t *testing.T) {
	m := Staking()
	if m != Staking() {
		t.Fatalf("expected singleton registry")
	}
	before := testutil.ToFloat64(m.operations.WithLabelValues("stake", "ZeroAmount"))
	m.ObserveOperation("stake", "ZeroAmount")
	if got := testutil.ToFloat64(m.operations.WithLabelValues("stake", "ZeroAmount")); got != before+1 {
		t.Fatalf("unexpected operation count %v", got)
	}

	mints := testutil.ToFloat64(m.tierTransitions.WithLabelValues("mint"))
	m.ObserveTierTransition(true)
	if got := testutil.ToFloat64(m.tierTransitions.WithLabelValues("mint")); got != mints+1 {
		t.Fatalf("unexpected mint count %v", got)
	}

	m.SetTotalStaked(big.NewInt(12_345))
	if got := testutil.ToFloat64(m.totalStaked); got != 12_345 {
		t.Fatalf("unexpected total staked gauge %v", got)
	}
	paid := testutil.ToFloat64(m.rewardsPaid)
	m.AddRewardsPaid(big.NewInt(-5))
	m.AddRewardsPaid(big.NewInt(10))
	if got := testutil.ToFloat64(m.rewardsPaid); got != paid+10 {
		t.Fatalf("unexpected rewards paid %v", got)
	}

	var nilMetrics *StakingMetrics
	nilMetrics.ObserveOperation("stake", "")
}

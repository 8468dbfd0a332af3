package rewards

import (
	"errors"
	"math/big"
	"testing"

	stakeerr "memberstake/core/errors"
)

const testDuration = uint64(1_210_000)

func newFundedEngine(t *testing.T, now uint64) *Engine {
	t.Helper()
	engine := NewEngine(testDuration)
	reward := big.NewInt(1_210_000_000)
	if _, err := engine.NotifyRewardAmount(reward, reward, now); err != nil {
		t.Fatalf("notify: %v", err)
	}
	return engine
}

func TestNotifyRewardAmountYieldsExactRate(t *testing.T) {
	engine := newFundedEngine(t, 0)
	if engine.RewardRate().Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("unexpected reward rate %s", engine.RewardRate())
	}
	if engine.PeriodFinish() != testDuration {
		t.Fatalf("unexpected period finish %d", engine.PeriodFinish())
	}
	if engine.RewardForDuration().Cmp(big.NewInt(1_210_000_000)) != 0 {
		t.Fatalf("unexpected reward for duration %s", engine.RewardForDuration())
	}
}

func TestNotifyRewardAmountRejectsUnbackedPromise(t *testing.T) {
	engine := NewEngine(testDuration)
	_, err := engine.NotifyRewardAmount(big.NewInt(1_210_000_000), big.NewInt(1_209_999_999), 10)
	if !errors.Is(err, stakeerr.ErrInsufficientRewardBalance) {
		t.Fatalf("expected insufficient reward balance, got %v", err)
	}
	if engine.RewardRate().Sign() != 0 || engine.PeriodFinish() != 0 {
		t.Fatalf("rate or period mutated on failure")
	}
}

func TestNotifyRewardAmountFoldsLeftoverMidPeriod(t *testing.T) {
	engine := newFundedEngine(t, 0)
	held := big.NewInt(10_000_000_000)
	rate, err := engine.NotifyRewardAmount(big.NewInt(1_000_000_000), held, 210_000)
	if err != nil {
		t.Fatalf("top up: %v", err)
	}
	// leftover = 1_000_000s * 1000 = 1e9; (1e9 + 1e9) / 1_210_000 = 1652 (floored)
	if rate.Cmp(big.NewInt(1652)) != 0 {
		t.Fatalf("unexpected topped up rate %s", rate)
	}
	if engine.PeriodFinish() != 210_000+testDuration {
		t.Fatalf("unexpected period finish %d", engine.PeriodFinish())
	}
}

func TestRewardPerTokenSplitsProRata(t *testing.T) {
	engine := newFundedEngine(t, 0)
	alice := Checkpoint{}
	bob := Checkpoint{}
	alicePrincipal := big.NewInt(1000)
	bobPrincipal := big.NewInt(3000)

	engine.SettleAccount(big.NewInt(0), &alice, 0)
	engine.AddStake(alicePrincipal)

	if got := engine.Earned(alicePrincipal, alice, 100); got.Cmp(big.NewInt(100_000)) != 0 {
		t.Fatalf("alice earned %s at t=100, want 100000", got)
	}

	engine.SettleAccount(big.NewInt(0), &bob, 100)
	engine.AddStake(bobPrincipal)

	aliceEarned := engine.Earned(alicePrincipal, alice, 200)
	bobEarned := engine.Earned(bobPrincipal, bob, 200)
	if aliceEarned.Cmp(big.NewInt(125_000)) != 0 {
		t.Fatalf("alice earned %s at t=200, want 125000", aliceEarned)
	}
	if bobEarned.Cmp(big.NewInt(75_000)) != 0 {
		t.Fatalf("bob earned %s at t=200, want 75000", bobEarned)
	}
}

func TestRewardPerTokenTruncates(t *testing.T) {
	engine := NewEngine(1)
	if _, err := engine.NotifyRewardAmount(big.NewInt(1), big.NewInt(1), 0); err != nil {
		t.Fatalf("notify: %v", err)
	}
	engine.AddStake(big.NewInt(3))
	rpt := engine.RewardPerToken(1)
	want, _ := new(big.Int).SetString("333333333333333333", 10)
	if rpt.Cmp(want) != 0 {
		t.Fatalf("unexpected reward per token %s", rpt)
	}
	if got := engine.Earned(big.NewInt(1), Checkpoint{}, 1); got.Sign() != 0 {
		t.Fatalf("expected floor to zero, got %s", got)
	}
	if got := engine.Earned(big.NewInt(3), Checkpoint{}, 1); got.Cmp(big.NewInt(0)) != 0 {
		// 3 * 333333333333333333 / 1e18 = 0.999... -> 0
		t.Fatalf("expected floor to zero for full stake, got %s", got)
	}
}

func TestEarnedIsMonotonicWhileStaked(t *testing.T) {
	engine := newFundedEngine(t, 0)
	principal := big.NewInt(7)
	cp := Checkpoint{}
	engine.SettleAccount(big.NewInt(0), &cp, 0)
	engine.AddStake(principal)
	engine.AddStake(big.NewInt(13))

	prev := big.NewInt(0)
	for now := uint64(0); now <= testDuration+500; now += 997 {
		got := engine.Earned(principal, cp, now)
		if got.Cmp(prev) < 0 {
			t.Fatalf("earned decreased at t=%d: %s < %s", now, got, prev)
		}
		prev = got
	}
	// Accrual stops at period finish.
	if engine.Earned(principal, cp, testDuration).Cmp(engine.Earned(principal, cp, testDuration*2)) != 0 {
		t.Fatalf("earned kept growing after period finish")
	}
}

func TestSettleIsIdempotentForStalledClock(t *testing.T) {
	engine := newFundedEngine(t, 0)
	engine.AddStake(big.NewInt(50))
	engine.Settle(500)
	first := engine.State()
	engine.Settle(500)
	second := engine.State()
	if first.RewardPerTokenStored.Cmp(second.RewardPerTokenStored) != 0 || first.LastUpdateTime != second.LastUpdateTime {
		t.Fatalf("repeated settle at same time changed state")
	}
}

func TestZeroStakeKeepsRewardPerToken(t *testing.T) {
	engine := newFundedEngine(t, 0)
	engine.Settle(1000)
	if engine.RewardPerToken(5000).Sign() != 0 {
		t.Fatalf("reward per token must not grow with nothing staked")
	}
	if engine.State().LastUpdateTime != 1000 {
		t.Fatalf("settle must still advance last update time")
	}
}

func TestSetRewardsDuration(t *testing.T) {
	engine := newFundedEngine(t, 0)
	if err := engine.SetRewardsDuration(10, 5); !errors.Is(err, stakeerr.ErrRewardPeriodActive) {
		t.Fatalf("expected period active, got %v", err)
	}
	if err := engine.SetRewardsDuration(0, testDuration); !errors.Is(err, stakeerr.ErrInvalidDuration) {
		t.Fatalf("expected invalid duration, got %v", err)
	}
	if err := engine.SetRewardsDuration(7*24*3600, testDuration); err != nil {
		t.Fatalf("set duration after finish: %v", err)
	}
	if engine.RewardsDuration() != 7*24*3600 {
		t.Fatalf("duration not updated")
	}
}

func TestRestoreRollsBackState(t *testing.T) {
	engine := newFundedEngine(t, 0)
	saved := engine.State()
	engine.AddStake(big.NewInt(99))
	engine.Settle(1000)
	engine.Restore(saved)
	if engine.TotalStaked().Sign() != 0 || engine.State().LastUpdateTime != 0 {
		t.Fatalf("restore did not roll back")
	}
	if err := engine.RemoveStake(big.NewInt(1)); !errors.Is(err, stakeerr.ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance removing from empty total, got %v", err)
	}
}

func TestUint256RangeCheck(t *testing.T) {
	if _, err := Uint256(big.NewInt(-1)); !errors.Is(err, stakeerr.ErrAmountOverflow) {
		t.Fatalf("expected negative to fail, got %v", err)
	}
	wide := new(big.Int).Lsh(big.NewInt(1), 256)
	if _, err := Uint256(wide); !errors.Is(err, stakeerr.ErrAmountOverflow) {
		t.Fatalf("expected 2^256 to fail, got %v", err)
	}
	maxValue := new(big.Int).Sub(wide, big.NewInt(1))
	v, err := Uint256(maxValue)
	if err != nil || v.ToBig().Cmp(maxValue) != 0 {
		t.Fatalf("expected 2^256-1 to fit, got %v %v", v, err)
	}
}

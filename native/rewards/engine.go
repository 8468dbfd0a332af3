package rewards

import (
	"fmt"
	"math/big"

	stakeerr "memberstake/core/errors"
)

// State is the global reward bookkeeping shared by every account.
type State struct {
	TotalStaked          *big.Int
	RewardRate           *big.Int
	RewardPerTokenStored *big.Int
	LastUpdateTime       uint64
	PeriodFinish         uint64
	RewardsDuration      uint64
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	return State{
		TotalStaked:          copyBigInt(s.TotalStaked),
		RewardRate:           copyBigInt(s.RewardRate),
		RewardPerTokenStored: copyBigInt(s.RewardPerTokenStored),
		LastUpdateTime:       s.LastUpdateTime,
		PeriodFinish:         s.PeriodFinish,
		RewardsDuration:      s.RewardsDuration,
	}
}

// Checkpoint is the per-account reward snapshot taken at every settlement.
type Checkpoint struct {
	RewardPerTokenPaid *big.Int
	Accrued            *big.Int
}

// Clone returns a deep copy of the checkpoint.
func (c Checkpoint) Clone() Checkpoint {
	return Checkpoint{
		RewardPerTokenPaid: copyBigInt(c.RewardPerTokenPaid),
		Accrued:            copyBigInt(c.Accrued),
	}
}

// Engine accrues rewards over time proportionally to staked principal. All
// arithmetic is integer arithmetic with truncating division. The engine is not
// safe for concurrent use; callers serialise access.
type Engine struct {
	state State
}

// NewEngine constructs an engine with no active period. A zero duration falls
// back to DefaultRewardsDuration.
func NewEngine(duration uint64) *Engine {
	if duration == 0 {
		duration = DefaultRewardsDuration
	}
	return &Engine{state: State{
		TotalStaked:          big.NewInt(0),
		RewardRate:           big.NewInt(0),
		RewardPerTokenStored: big.NewInt(0),
		RewardsDuration:      duration,
	}}
}

// State returns a copy of the global state.
func (e *Engine) State() State {
	return e.state.Clone()
}

// Restore overwrites the global state, used to roll back a failed operation.
func (e *Engine) Restore(s State) {
	e.state = s.Clone()
}

// TotalStaked returns the sum of all principals.
func (e *Engine) TotalStaked() *big.Int {
	return copyBigInt(e.state.TotalStaked)
}

// RewardRate returns the reward units distributed per second.
func (e *Engine) RewardRate() *big.Int {
	return copyBigInt(e.state.RewardRate)
}

// PeriodFinish returns the end of the current reward period.
func (e *Engine) PeriodFinish() uint64 {
	return e.state.PeriodFinish
}

// RewardsDuration returns the configured reward period length.
func (e *Engine) RewardsDuration() uint64 {
	return e.state.RewardsDuration
}

// RewardForDuration returns the reward promised over a full period at the
// current rate.
func (e *Engine) RewardForDuration() *big.Int {
	return new(big.Int).Mul(e.state.RewardRate, new(big.Int).SetUint64(e.state.RewardsDuration))
}

// LastTimeRewardApplicable returns min(now, periodFinish).
func (e *Engine) LastTimeRewardApplicable(now uint64) uint64 {
	return minUint64(now, e.state.PeriodFinish)
}

// RewardPerToken returns the cumulative reward per staked unit, scaled by
// Scale(), as of now.
func (e *Engine) RewardPerToken(now uint64) *big.Int {
	stored := copyBigInt(e.state.RewardPerTokenStored)
	if e.state.TotalStaked.Sign() == 0 {
		return stored
	}
	applicable := e.LastTimeRewardApplicable(now)
	if applicable <= e.state.LastUpdateTime {
		return stored
	}
	increment := new(big.Int).SetUint64(applicable - e.state.LastUpdateTime)
	increment.Mul(increment, e.state.RewardRate)
	increment.Mul(increment, scaleBig)
	increment.Quo(increment, e.state.TotalStaked)
	return stored.Add(stored, increment)
}

// Earned returns the reward owed to an account holding principal with the
// provided checkpoint, as of now.
func (e *Engine) Earned(principal *big.Int, cp Checkpoint, now uint64) *big.Int {
	delta := e.RewardPerToken(now)
	delta.Sub(delta, copyBigInt(cp.RewardPerTokenPaid))
	owed := new(big.Int).Mul(copyBigInt(principal), delta)
	owed.Quo(owed, scaleBig)
	return owed.Add(owed, copyBigInt(cp.Accrued))
}

// Settle freezes global accrual up to now.
func (e *Engine) Settle(now uint64) {
	e.state.RewardPerTokenStored = e.RewardPerToken(now)
	if applicable := e.LastTimeRewardApplicable(now); applicable > e.state.LastUpdateTime {
		e.state.LastUpdateTime = applicable
	}
}

// SettleAccount settles globally and then moves the account's accrued reward
// into its checkpoint. The principal must be the value before any mutation.
func (e *Engine) SettleAccount(principal *big.Int, cp *Checkpoint, now uint64) {
	e.Settle(now)
	if cp == nil {
		return
	}
	cp.Accrued = e.Earned(principal, *cp, now)
	cp.RewardPerTokenPaid = copyBigInt(e.state.RewardPerTokenStored)
}

// AddStake increases the total staked amount.
func (e *Engine) AddStake(amount *big.Int) {
	e.state.TotalStaked = new(big.Int).Add(e.state.TotalStaked, copyBigInt(amount))
}

// RemoveStake decreases the total staked amount.
func (e *Engine) RemoveStake(amount *big.Int) error {
	next := new(big.Int).Sub(e.state.TotalStaked, copyBigInt(amount))
	if next.Sign() < 0 {
		return fmt.Errorf("%w: total staked %s below %s", stakeerr.ErrInsufficientBalance, e.state.TotalStaked, amount)
	}
	e.state.TotalStaked = next
	return nil
}

// NotifyRewardAmount starts a new period distributing reward, folding in any
// undistributed remainder of an active period. available is the reward asset
// balance backing the promise; the new rate times the duration may not exceed
// it. The global state is settled before anything is computed.
func (e *Engine) NotifyRewardAmount(reward, available *big.Int, now uint64) (*big.Int, error) {
	if _, err := Uint256(reward); err != nil {
		return nil, err
	}
	e.Settle(now)

	duration := new(big.Int).SetUint64(e.state.RewardsDuration)
	total := copyBigInt(reward)
	if now < e.state.PeriodFinish {
		leftover := new(big.Int).SetUint64(e.state.PeriodFinish - now)
		leftover.Mul(leftover, e.state.RewardRate)
		total.Add(total, leftover)
	}
	rate := new(big.Int).Quo(total, duration)

	promised := new(big.Int).Mul(rate, duration)
	if promised.Cmp(copyBigInt(available)) > 0 {
		return nil, fmt.Errorf("%w: promised %s, held %s", stakeerr.ErrInsufficientRewardBalance, promised, copyBigInt(available))
	}
	if _, err := Uint256(promised); err != nil {
		return nil, err
	}

	e.state.RewardRate = rate
	e.state.LastUpdateTime = now
	e.state.PeriodFinish = now + e.state.RewardsDuration
	return copyBigInt(rate), nil
}

// SetRewardsDuration changes the period length. It fails while a period is
// active.
func (e *Engine) SetRewardsDuration(duration, now uint64) error {
	if now < e.state.PeriodFinish {
		return fmt.Errorf("%w: period ends at %d", stakeerr.ErrRewardPeriodActive, e.state.PeriodFinish)
	}
	if duration == 0 {
		return stakeerr.ErrInvalidDuration
	}
	e.Settle(now)
	e.state.RewardsDuration = duration
	return nil
}

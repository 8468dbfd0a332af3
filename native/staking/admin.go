package staking

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	stakeerr "memberstake/core/errors"
	"memberstake/core/events"
	"memberstake/native/access"
	"memberstake/native/tiers"
)

// SetTierDetails replaces the tier table. Existing holdings are not
// re-evaluated; the new table applies from the next principal change.
func (e *Engine) SetTierDetails(caller common.Address, ledgers []common.Address, ids []uint64, costs []*big.Int) error {
	return e.run("setTierDetails", caller, func(tx *txn, _ uint64) error {
		if err := access.Check(e.roles, caller, access.RoleAdmin); err != nil {
			return err
		}
		table, err := tiers.NewTable(ledgers, ids, costs)
		if err != nil {
			return err
		}
		if err := e.issuer.Covers(table); err != nil {
			return err
		}
		tx.swapTiers(table)
		tx.emit(events.TiersConfigured{Caller: caller, Count: table.Len()})
		return nil
	})
}

// NotifyRewardAmount starts a reward period distributing reward over the
// configured duration, folding in the remainder of an active period.
func (e *Engine) NotifyRewardAmount(caller common.Address, reward *big.Int) error {
	return e.run("notifyRewardAmount", caller, func(tx *txn, now uint64) error {
		if err := access.Check(e.roles, caller, access.RoleRewardDistributor); err != nil {
			return err
		}
		rate, err := e.rewards.NotifyRewardAmount(reward, e.rewardBacking(), now)
		if err != nil {
			return err
		}
		tx.emit(events.RewardAdded{Reward: cloneBigInt(reward), Rate: rate, PeriodFinish: e.rewards.PeriodFinish()})
		tx.after(func() { e.metrics.SetRewardRate(rate) })
		return nil
	})
}

// SetRewardsDuration changes the period length once the current period ended.
func (e *Engine) SetRewardsDuration(caller common.Address, duration uint64) error {
	return e.run("setRewardsDuration", caller, func(tx *txn, now uint64) error {
		if err := access.Check(e.roles, caller, access.RoleRewardDistributor); err != nil {
			return err
		}
		if err := e.rewards.SetRewardsDuration(duration, now); err != nil {
			return err
		}
		tx.emit(events.RewardsDurationUpdated{Duration: duration})
		return nil
	})
}

// SetRewardDistribution makes distributor the only holder of the
// reward-distributor role.
func (e *Engine) SetRewardDistribution(caller, distributor common.Address) error {
	return e.run("setRewardDistribution", caller, func(tx *txn, _ uint64) error {
		if err := access.Check(e.roles, caller, access.RoleAdmin); err != nil {
			return err
		}
		if distributor == (common.Address{}) {
			return stakeerr.ErrInvalidAddress
		}
		if err := e.roles.Replace(access.RoleRewardDistributor, distributor); err != nil {
			return fmt.Errorf("%w: %w", stakeerr.ErrInvalidAddress, err)
		}
		tx.emit(events.RewardDistributionSet{Caller: caller, Distributor: distributor})
		return nil
	})
}

// SetPaused halts or resumes new stakes. Withdrawals and claims stay open.
func (e *Engine) SetPaused(caller common.Address, paused bool) error {
	return e.run("setPaused", caller, func(tx *txn, _ uint64) error {
		if err := access.Check(e.roles, caller, access.RoleAdmin); err != nil {
			return err
		}
		tx.setPaused(paused)
		tx.emit(events.PauseToggled{Caller: caller, Paused: paused})
		return nil
	})
}

// rewardBacking is the reward asset balance the pool can promise. Principal
// is not available for rewards when both assets share a ledger.
func (e *Engine) rewardBacking() *big.Int {
	held := cloneBigInt(e.rewardToken.BalanceOf(e.pool))
	if e.sharedAsset {
		held.Sub(held, e.rewards.TotalStaked())
		if held.Sign() < 0 {
			held.SetInt64(0)
		}
	}
	return held
}

package staking

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	stakeerr "memberstake/core/errors"
	"memberstake/core/events"
	"memberstake/native/access"
	"memberstake/native/membership"
	"memberstake/native/rewards"
)

// Stake pulls amount from account into the pool and credits it as principal.
// The account must have approved the pool as spender on the stake ledger.
func (e *Engine) Stake(account common.Address, amount *big.Int) error {
	return e.run("stake", account, func(tx *txn, now uint64) error {
		if tx.engine.paused {
			return stakeerr.ErrStakingPaused
		}
		if err := positiveAmount(amount); err != nil {
			return err
		}
		acct := tx.touch(account)
		oldBalance := cloneBigInt(acct.principal)
		e.rewards.SettleAccount(oldBalance, &acct.checkpoint, now)

		tx.journal(e.stakeToken)
		if err := e.stakeToken.TransferFrom(e.pool, account, e.pool, amount); err != nil {
			return fmt.Errorf("%w: %w", stakeerr.ErrTransferFailed, err)
		}
		newBalance := new(big.Int).Add(oldBalance, amount)
		e.rewards.AddStake(amount)
		if _, err := rewards.Uint256(e.rewards.TotalStaked()); err != nil {
			return err
		}
		acct.principal = newBalance

		if err := e.reconcile(tx, account, oldBalance, newBalance); err != nil {
			return err
		}
		tx.emit(events.Staked{Account: account, Amount: cloneBigInt(amount)})
		return nil
	})
}

// Unstake returns amount of account's principal from the pool.
func (e *Engine) Unstake(account common.Address, amount *big.Int) error {
	return e.run("unstake", account, func(tx *txn, now uint64) error {
		return e.unstake(tx, now, account, amount)
	})
}

// GetReward pays out everything account has accrued.
func (e *Engine) GetReward(account common.Address) error {
	return e.run("getReward", account, func(tx *txn, now uint64) error {
		return e.getReward(tx, now, account)
	})
}

// Exit withdraws the full principal of account and pays its rewards.
func (e *Engine) Exit(account common.Address) error {
	return e.run("exit", account, func(tx *txn, now uint64) error {
		if acct, ok := e.accounts[account]; ok && acct.principal.Sign() > 0 {
			if err := e.unstake(tx, now, account, cloneBigInt(acct.principal)); err != nil {
				return err
			}
		}
		return e.getReward(tx, now, account)
	})
}

// TransferStake moves the cost of the tier issuing badgeID from from's
// principal to to's. It is the callback a badge ledger invokes for a
// peer-to-peer transfer and requires the transfer-callback role.
func (e *Engine) TransferStake(caller, from, to common.Address, badgeID uint64) error {
	return e.run("transferStake", from, func(tx *txn, now uint64) error {
		return e.transferStake(tx, now, caller, from, to, badgeID)
	})
}

// OnBadgeTransfer reconciles stake for a badge transfer and then lets the
// ledger move the badge within the same operation.
func (e *Engine) OnBadgeTransfer(caller, from, to common.Address, badgeID uint64, move func() error) error {
	return e.run("transferStake", from, func(tx *txn, now uint64) error {
		if err := e.transferStake(tx, now, caller, from, to, badgeID); err != nil {
			return err
		}
		if ledger, ok := e.badges[caller]; ok {
			tx.journal(ledger)
		}
		return move()
	})
}

func (e *Engine) unstake(tx *txn, now uint64, account common.Address, amount *big.Int) error {
	if err := positiveAmount(amount); err != nil {
		return err
	}
	acct := tx.touch(account)
	if amount.Cmp(acct.principal) > 0 {
		return fmt.Errorf("%w: unstake %s > %s", stakeerr.ErrInsufficientBalance, amount, acct.principal)
	}
	oldBalance := cloneBigInt(acct.principal)
	e.rewards.SettleAccount(oldBalance, &acct.checkpoint, now)

	newBalance := new(big.Int).Sub(oldBalance, amount)
	if err := e.rewards.RemoveStake(amount); err != nil {
		return err
	}
	acct.principal = newBalance

	tx.journal(e.stakeToken)
	if err := e.stakeToken.Transfer(e.pool, account, amount); err != nil {
		return fmt.Errorf("%w: %w", stakeerr.ErrTransferFailed, err)
	}
	if err := e.reconcile(tx, account, oldBalance, newBalance); err != nil {
		return err
	}
	tx.emit(events.Unstaked{Account: account, Amount: cloneBigInt(amount)})
	return nil
}

func (e *Engine) getReward(tx *txn, now uint64, account common.Address) error {
	if _, ok := e.accounts[account]; !ok {
		e.rewards.Settle(now)
		return nil
	}
	acct := tx.touch(account)
	e.rewards.SettleAccount(acct.principal, &acct.checkpoint, now)
	owed := cloneBigInt(acct.checkpoint.Accrued)
	if owed.Sign() <= 0 {
		return nil
	}
	tx.journal(e.rewardToken)
	if err := e.rewardToken.Transfer(e.pool, account, owed); err != nil {
		return fmt.Errorf("%w: %w", stakeerr.ErrTransferFailed, err)
	}
	acct.checkpoint.Accrued = big.NewInt(0)
	tx.emit(events.RewardPaid{Account: account, Amount: owed})
	tx.after(func() { e.metrics.AddRewardsPaid(owed) })
	return nil
}

func (e *Engine) transferStake(tx *txn, now uint64, caller, from, to common.Address, badgeID uint64) error {
	if err := access.Check(e.roles, caller, access.RoleTransferCallback); err != nil {
		return err
	}
	tier, err := e.tiers.Current().ByBadge(badgeID)
	if err != nil {
		return err
	}
	src := tx.touch(from)
	if src.principal.Cmp(tier.Cost) < 0 {
		return fmt.Errorf("%w: %s holds %s, badge %d costs %s", stakeerr.ErrInsufficientBalance, from.Hex(), src.principal, badgeID, tier.Cost)
	}
	dst := tx.touch(to)
	e.rewards.SettleAccount(src.principal, &src.checkpoint, now)
	e.rewards.SettleAccount(dst.principal, &dst.checkpoint, now)

	src.principal = new(big.Int).Sub(src.principal, tier.Cost)
	dst.principal = new(big.Int).Add(dst.principal, tier.Cost)
	tx.emit(events.StakeTransferred{
		From:    from,
		To:      to,
		Ledger:  tier.Ledger,
		BadgeID: badgeID,
		Amount:  cloneBigInt(tier.Cost),
	})
	return nil
}

// reconcile mints and burns badges for the tiers crossed between the two
// balances. Ledger rejections outside the error taxonomy surface as
// TransferFailed.
func (e *Engine) reconcile(tx *txn, account common.Address, oldBalance, newBalance *big.Int) error {
	table := e.tiers.Current()
	for _, tr := range membership.Crossings(table, oldBalance, newBalance) {
		if ledger, ok := e.badges[tr.Tier.Ledger]; ok {
			tx.journal(ledger)
		}
	}
	applied, err := e.issuer.Reconcile(account, oldBalance, newBalance, table)
	if err != nil {
		if stakeerr.Kind(err) == "Internal" {
			return fmt.Errorf("%w: %w", stakeerr.ErrTransferFailed, err)
		}
		return err
	}
	for _, tr := range applied {
		minted := tr.Minted
		if minted {
			tx.emit(events.TierMinted{Account: account, Ledger: tr.Tier.Ledger, TierID: tr.Tier.BadgeID, Balance: cloneBigInt(newBalance)})
		} else {
			tx.emit(events.TierBurned{Account: account, Ledger: tr.Tier.Ledger, TierID: tr.Tier.BadgeID, Balance: cloneBigInt(newBalance)})
		}
		tx.after(func() { e.metrics.ObserveTierTransition(minted) })
	}
	return nil
}

func positiveAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return stakeerr.ErrZeroAmount
	}
	_, err := rewards.Uint256(amount)
	return err
}

package events

import (
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"memberstake/core/types"
)

const (
	// TypeStaked is emitted when principal is deposited.
	TypeStaked = "stake.staked"
	// TypeUnstaked is emitted when principal is withdrawn.
	TypeUnstaked = "stake.unstaked"
	// TypeRewardPaid is emitted when accrued rewards are transferred to an account.
	TypeRewardPaid = "stake.rewardPaid"
	// TypeRewardAdded is emitted when a reward period is declared or topped up.
	TypeRewardAdded = "stake.rewardAdded"
	// TypeRewardsDurationUpdated is emitted when the period length changes.
	TypeRewardsDurationUpdated = "stake.rewardsDurationUpdated"
	// TypeRewardDistributionSet is emitted when the reward distributor is replaced.
	TypeRewardDistributionSet = "stake.rewardDistributionSet"
	// TypeStakeTransferred is emitted when a badge transfer moves principal.
	TypeStakeTransferred = "stake.transferred"
	// TypePaused is emitted when staking is paused or resumed.
	TypePaused = "stake.paused"

	// TypeTierMinted is emitted when a balance crosses a tier threshold upwards.
	TypeTierMinted = "tier.minted"
	// TypeTierBurned is emitted when a balance falls below a tier threshold.
	TypeTierBurned = "tier.burned"
	// TypeTiersConfigured is emitted when the tier table is replaced.
	TypeTiersConfigured = "tier.configured"
)

// Staked captures a principal deposit.
type Staked struct {
	Account common.Address
	Amount  *big.Int
}

// EventType satisfies the Event interface.
func (Staked) EventType() string { return TypeStaked }

// Event converts the structured payload into a broadcastable event.
func (e Staked) Event() *types.Event {
	return &types.Event{Type: TypeStaked, Attributes: map[string]string{
		"account": formatAddress(e.Account),
		"amount":  formatAmount(e.Amount),
	}}
}

// Unstaked captures a principal withdrawal.
type Unstaked struct {
	Account common.Address
	Amount  *big.Int
}

// EventType satisfies the Event interface.
func (Unstaked) EventType() string { return TypeUnstaked }

// Event converts the structured payload into a broadcastable event.
func (e Unstaked) Event() *types.Event {
	return &types.Event{Type: TypeUnstaked, Attributes: map[string]string{
		"account": formatAddress(e.Account),
		"amount":  formatAmount(e.Amount),
	}}
}

// RewardPaid captures a reward payout.
type RewardPaid struct {
	Account common.Address
	Amount  *big.Int
}

// EventType satisfies the Event interface.
func (RewardPaid) EventType() string { return TypeRewardPaid }

// Event converts the structured payload into a broadcastable event.
func (e RewardPaid) Event() *types.Event {
	return &types.Event{Type: TypeRewardPaid, Attributes: map[string]string{
		"account": formatAddress(e.Account),
		"amount":  formatAmount(e.Amount),
	}}
}

// RewardAdded captures the parameters of a newly declared reward period.
type RewardAdded struct {
	Reward       *big.Int
	Rate         *big.Int
	PeriodFinish uint64
}

// EventType satisfies the Event interface.
func (RewardAdded) EventType() string { return TypeRewardAdded }

// Event converts the structured payload into a broadcastable event.
func (e RewardAdded) Event() *types.Event {
	return &types.Event{Type: TypeRewardAdded, Attributes: map[string]string{
		"reward":       formatAmount(e.Reward),
		"rate":         formatAmount(e.Rate),
		"periodFinish": formatUint(e.PeriodFinish),
	}}
}

// RewardsDurationUpdated captures a change of the reward period length.
type RewardsDurationUpdated struct {
	Duration uint64
}

// EventType satisfies the Event interface.
func (RewardsDurationUpdated) EventType() string { return TypeRewardsDurationUpdated }

// Event converts the structured payload into a broadcastable event.
func (e RewardsDurationUpdated) Event() *types.Event {
	return &types.Event{Type: TypeRewardsDurationUpdated, Attributes: map[string]string{
		"duration": formatUint(e.Duration),
	}}
}

// RewardDistributionSet captures the replacement of the reward distributor.
type RewardDistributionSet struct {
	Caller      common.Address
	Distributor common.Address
}

// EventType satisfies the Event interface.
func (RewardDistributionSet) EventType() string { return TypeRewardDistributionSet }

// Event converts the structured payload into a broadcastable event.
func (e RewardDistributionSet) Event() *types.Event {
	return &types.Event{Type: TypeRewardDistributionSet, Attributes: map[string]string{
		"caller":      formatAddress(e.Caller),
		"distributor": formatAddress(e.Distributor),
	}}
}

// StakeTransferred captures principal moved alongside a badge transfer.
type StakeTransferred struct {
	From    common.Address
	To      common.Address
	Ledger  common.Address
	BadgeID uint64
	Amount  *big.Int
}

// EventType satisfies the Event interface.
func (StakeTransferred) EventType() string { return TypeStakeTransferred }

// Event converts the structured payload into a broadcastable event.
func (e StakeTransferred) Event() *types.Event {
	return &types.Event{Type: TypeStakeTransferred, Attributes: map[string]string{
		"from":    formatAddress(e.From),
		"to":      formatAddress(e.To),
		"ledger":  formatAddress(e.Ledger),
		"badgeId": formatUint(e.BadgeID),
		"amount":  formatAmount(e.Amount),
	}}
}

// PauseToggled captures a pause or resume of staking deposits.
type PauseToggled struct {
	Caller common.Address
	Paused bool
}

// EventType satisfies the Event interface.
func (PauseToggled) EventType() string { return TypePaused }

// Event converts the structured payload into a broadcastable event.
func (e PauseToggled) Event() *types.Event {
	return &types.Event{Type: TypePaused, Attributes: map[string]string{
		"caller": formatAddress(e.Caller),
		"paused": strconv.FormatBool(e.Paused),
	}}
}

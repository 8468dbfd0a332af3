package staking

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"memberstake/native/access"
	"memberstake/native/membership"
	"memberstake/native/rewards"
)

var (
	errNilStakeToken  = errors.New("staking engine: stake token ledger not configured")
	errNilRewardToken = errors.New("staking engine: reward token ledger not configured")
)

// Journal is implemented by ledgers that can undo every mutation made since a
// snapshot. The engine snapshots each ledger an operation touches, reverts
// them when the operation fails and discards the snapshots when it commits.
type Journal interface {
	Snapshot() int
	RevertToSnapshot(id int)
	DiscardSnapshot(id int)
}

// FungibleLedger moves the staked and the reward asset.
type FungibleLedger interface {
	TransferFrom(spender, from, to common.Address, amount *big.Int) error
	Transfer(from, to common.Address, amount *big.Int) error
	BalanceOf(account common.Address) *big.Int
	Journal
}

// BadgeLedger is a membership ledger the engine mints and burns badges on.
type BadgeLedger interface {
	membership.BadgeLedger
	Journal
}

// Config wires an engine to its ledgers.
type Config struct {
	// Pool is the address holding staked and reward funds. It must hold the
	// minter and burner roles on every badge ledger.
	Pool        common.Address
	StakeToken  FungibleLedger
	RewardToken FungibleLedger
	// RewardsDuration defaults to rewards.DefaultRewardsDuration when zero.
	RewardsDuration uint64
	Roles           *access.Registry
}

type account struct {
	principal  *big.Int
	checkpoint rewards.Checkpoint
}

func newAccount() *account {
	return &account{
		principal: big.NewInt(0),
		checkpoint: rewards.Checkpoint{
			RewardPerTokenPaid: big.NewInt(0),
			Accrued:            big.NewInt(0),
		},
	}
}

func (a *account) clone() *account {
	return &account{principal: cloneBigInt(a.principal), checkpoint: a.checkpoint.Clone()}
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

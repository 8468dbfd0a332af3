package errors

import stderrors "errors"

var (
	ErrArityMismatch             = stderrors.New("stake: tier configuration arity mismatch")
	ErrInvalidTierConfig         = stderrors.New("stake: invalid tier configuration")
	ErrTierNotFound              = stderrors.New("stake: tier not found")
	ErrUnauthorized              = stderrors.New("stake: unauthorized")
	ErrZeroAmount                = stderrors.New("stake: amount must be positive")
	ErrAmountOverflow            = stderrors.New("stake: amount exceeds 256 bits")
	ErrInsufficientBalance       = stderrors.New("stake: insufficient staked balance")
	ErrTransferFailed            = stderrors.New("stake: transfer failed")
	ErrInsufficientRewardBalance = stderrors.New("stake: provided reward too high")
	ErrRewardPeriodActive        = stderrors.New("stake: reward period still active")
	ErrInvalidDuration           = stderrors.New("stake: rewards duration must be positive")
	ErrStakingPaused             = stderrors.New("stake: staking paused")
	ErrMaxOneBadge               = stderrors.New("stake: each address can have at most 1 badge")
	ErrTransferNotAllowed        = stderrors.New("stake: transfer not allowed")
	ErrInvalidAddress            = stderrors.New("stake: address must not be empty")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrArityMismatch, "ArityMismatch"},
	{ErrInvalidTierConfig, "InvalidTierConfig"},
	{ErrTierNotFound, "TierNotFound"},
	{ErrUnauthorized, "Unauthorized"},
	{ErrZeroAmount, "ZeroAmount"},
	{ErrAmountOverflow, "AmountOverflow"},
	{ErrInsufficientBalance, "InsufficientBalance"},
	// TransferFailed wraps the ledger's own error, so it is matched before
	// anything the ledger may have surfaced.
	{ErrTransferFailed, "TransferFailed"},
	{ErrInsufficientRewardBalance, "InsufficientRewardBalance"},
	{ErrRewardPeriodActive, "RewardPeriodActive"},
	{ErrInvalidDuration, "InvalidDuration"},
	{ErrStakingPaused, "StakingPaused"},
	{ErrMaxOneBadge, "MaxOneBadge"},
	{ErrTransferNotAllowed, "TransferNotAllowed"},
	{ErrInvalidAddress, "InvalidAddress"},
}

// Kind returns the taxonomy name of err, "" for nil and "Internal" for errors
// outside the taxonomy.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if stderrors.Is(err, k.err) {
			return k.name
		}
	}
	return "Internal"
}

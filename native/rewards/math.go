package rewards

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	stakeerr "memberstake/core/errors"
)

const (
	// DefaultRewardsDuration is the reward period length used when none is
	// configured (14 days).
	DefaultRewardsDuration = uint64(14 * 24 * 60 * 60)
	scaleDecimals          = 18
)

var scaleBig = new(big.Int).Exp(big.NewInt(10), big.NewInt(scaleDecimals), nil)

// Scale returns the fixed-point factor applied to reward-per-token values.
func Scale() *big.Int {
	return new(big.Int).Set(scaleBig)
}

// Uint256 converts v into a 256-bit unsigned integer, failing for negative
// values and values wider than 256 bits.
func Uint256(v *big.Int) (*uint256.Int, error) {
	if v == nil {
		return new(uint256.Int), nil
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative value %s", stakeerr.ErrAmountOverflow, v)
	}
	out, overflow := uint256.FromBig(v)
	if overflow {
		return nil, fmt.Errorf("%w: %s", stakeerr.ErrAmountOverflow, v)
	}
	return out, nil
}

func copyBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

func minUint64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

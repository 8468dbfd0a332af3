package config

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Validate checks addresses and assets before anything is constructed.
func (s *Staking) Validate() error {
	for _, field := range []struct {
		name  string
		value string
	}{
		{"PoolAddress", s.PoolAddress},
		{"Admin", s.Admin},
		{"RewardDistributor", s.RewardDistributor},
		{"BadgeLedger", s.BadgeLedger},
	} {
		if err := validateAddress(field.value); err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
	}
	if s.StakingAsset == "" {
		return fmt.Errorf("StakingAsset: must not be empty")
	}
	if s.RewardsDurationSeconds == 0 {
		return fmt.Errorf("RewardsDurationSeconds: must be positive")
	}
	return nil
}

// Address parses a validated address field.
func Address(value string) common.Address {
	return common.HexToAddress(strings.TrimSpace(value))
}

func validateAddress(value string) error {
	trimmed := strings.TrimSpace(value)
	if !common.IsHexAddress(trimmed) {
		return fmt.Errorf("invalid address %q", value)
	}
	if common.HexToAddress(trimmed) == (common.Address{}) {
		return fmt.Errorf("address must not be zero")
	}
	return nil
}

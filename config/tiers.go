package config

import (
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"memberstake/native/tiers"
)

// Tier is one row of the tier table file.
type Tier struct {
	Ledger  string `yaml:"ledger"`
	BadgeID uint64 `yaml:"badge_id"`
	Cost    string `yaml:"cost"`
}

// Tiers is the tier table in configuration order.
type Tiers []Tier

// LoadTiers reads a YAML tier table. A missing ledger defaults to fallback.
func LoadTiers(path string, fallback common.Address) (Tiers, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out Tiers
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode tiers %s: %w", path, err)
	}
	for i := range out {
		if strings.TrimSpace(out[i].Ledger) == "" {
			out[i].Ledger = fallback.Hex()
		}
	}
	if _, _, _, err := out.Columns(); err != nil {
		return nil, fmt.Errorf("tiers %s: %w", path, err)
	}
	return out, nil
}

// Columns splits the table into the three parallel sequences tier
// configuration takes, validating them on the way.
func (t Tiers) Columns() ([]common.Address, []uint64, []*big.Int, error) {
	ledgers := make([]common.Address, len(t))
	ids := make([]uint64, len(t))
	costs := make([]*big.Int, len(t))
	for i, row := range t {
		if err := validateAddress(row.Ledger); err != nil {
			return nil, nil, nil, fmt.Errorf("tier %d ledger: %w", i, err)
		}
		cost, ok := new(big.Int).SetString(strings.TrimSpace(row.Cost), 10)
		if !ok {
			return nil, nil, nil, fmt.Errorf("tier %d: invalid cost %q", i, row.Cost)
		}
		ledgers[i] = Address(row.Ledger)
		ids[i] = row.BadgeID
		costs[i] = cost
	}
	if _, err := tiers.NewTable(ledgers, ids, costs); err != nil {
		return nil, nil, nil, err
	}
	return ledgers, ids, costs, nil
}

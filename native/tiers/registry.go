package tiers

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	stakeerr "memberstake/core/errors"
)

// Tier binds a badge on an external ownership ledger to the minimum staked
// principal required to hold it.
type Tier struct {
	Ledger  common.Address
	BadgeID uint64
	Cost    *big.Int
}

// Clone returns a deep copy of the tier.
func (t Tier) Clone() Tier {
	cost := big.NewInt(0)
	if t.Cost != nil {
		cost.Set(t.Cost)
	}
	return Tier{Ledger: t.Ledger, BadgeID: t.BadgeID, Cost: cost}
}

// Table is an immutable, validated tier configuration in ascending cost order.
type Table struct {
	tiers []Tier
}

// NewTable validates the three parallel sequences and builds a table. The
// sequences must have equal length, every cost must be positive and costs must
// be strictly ascending.
func NewTable(ledgers []common.Address, ids []uint64, costs []*big.Int) (*Table, error) {
	if len(ledgers) != len(ids) || len(ids) != len(costs) {
		return nil, fmt.Errorf("%w: %d ledgers, %d ids, %d costs", stakeerr.ErrArityMismatch, len(ledgers), len(ids), len(costs))
	}
	out := make([]Tier, len(ids))
	for i := range ids {
		cost := costs[i]
		if cost == nil || cost.Sign() <= 0 {
			return nil, fmt.Errorf("%w: tier %d cost must be positive", stakeerr.ErrInvalidTierConfig, i)
		}
		if i > 0 && cost.Cmp(out[i-1].Cost) <= 0 {
			return nil, fmt.Errorf("%w: tier %d cost %s not above %s", stakeerr.ErrInvalidTierConfig, i, cost, out[i-1].Cost)
		}
		if ledgers[i] == (common.Address{}) {
			return nil, fmt.Errorf("%w: tier %d ledger reference empty", stakeerr.ErrInvalidTierConfig, i)
		}
		out[i] = Tier{Ledger: ledgers[i], BadgeID: ids[i], Cost: new(big.Int).Set(cost)}
	}
	return &Table{tiers: out}, nil
}

// Len reports the number of configured tiers.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.tiers)
}

// Tiers returns a copy of the configured tiers in configuration order.
func (t *Table) Tiers() []Tier {
	if t == nil {
		return nil
	}
	out := make([]Tier, len(t.tiers))
	for i := range t.tiers {
		out[i] = t.tiers[i].Clone()
	}
	return out
}

// ByBadge resolves the first tier issuing badgeID.
func (t *Table) ByBadge(badgeID uint64) (Tier, error) {
	if t != nil {
		for _, tier := range t.tiers {
			if tier.BadgeID == badgeID {
				return tier.Clone(), nil
			}
		}
	}
	return Tier{}, fmt.Errorf("%w: badge %d", stakeerr.ErrTierNotFound, badgeID)
}

// Ledgers returns the distinct ledger references in configuration order.
func (t *Table) Ledgers() []common.Address {
	if t == nil {
		return nil
	}
	seen := make(map[common.Address]struct{}, len(t.tiers))
	var out []common.Address
	for _, tier := range t.tiers {
		if _, ok := seen[tier.Ledger]; ok {
			continue
		}
		seen[tier.Ledger] = struct{}{}
		out = append(out, tier.Ledger)
	}
	return out
}

// Registry holds the active table. Reconfiguration swaps the whole table; a
// table is never edited in place.
type Registry struct {
	mu    sync.RWMutex
	table *Table
}

// NewRegistry returns a registry with an empty table.
func NewRegistry() *Registry {
	return &Registry{table: &Table{}}
}

// Current returns the active table.
func (r *Registry) Current() *Table {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.table
}

// Swap installs table and returns the table it replaced.
func (r *Registry) Swap(table *Table) *Table {
	if table == nil {
		table = &Table{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.table
	r.table = table
	return prev
}

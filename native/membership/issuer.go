package membership

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	stakeerr "memberstake/core/errors"
	"memberstake/native/tiers"
)

// BadgeLedger is the multi-identifier ownership ledger badges live on.
// Implementations must reject mint amounts above one and mints to an address
// that already holds the id.
type BadgeLedger interface {
	Mint(operator, to common.Address, id, amount uint64, data []byte) error
	Burn(operator, from common.Address, id, amount uint64) error
	BalanceOf(account common.Address, id uint64) uint64
}

// Transition is a mint or burn decided for one tier.
type Transition struct {
	Tier   tiers.Tier
	Minted bool
}

// Crossings lists the tiers whose threshold lies between oldBalance and
// newBalance, in configuration order. A tier is active for a balance when the
// balance is at least the tier cost.
func Crossings(table *tiers.Table, oldBalance, newBalance *big.Int) []Transition {
	var out []Transition
	for _, tier := range table.Tiers() {
		wasActive := oldBalance.Cmp(tier.Cost) >= 0
		isActive := newBalance.Cmp(tier.Cost) >= 0
		switch {
		case isActive && !wasActive:
			out = append(out, Transition{Tier: tier, Minted: true})
		case wasActive && !isActive:
			out = append(out, Transition{Tier: tier, Minted: false})
		}
	}
	return out
}

// Issuer turns principal changes into badge mints and burns. It holds the
// ledgers tiers refer to and acts on them as operator, which must hold the
// minter and burner capabilities on each ledger.
type Issuer struct {
	operator common.Address
	ledgers  map[common.Address]BadgeLedger
}

// NewIssuer creates an issuer acting as operator.
func NewIssuer(operator common.Address) *Issuer {
	return &Issuer{operator: operator, ledgers: make(map[common.Address]BadgeLedger)}
}

// Register makes ledger reachable under ref.
func (i *Issuer) Register(ref common.Address, ledger BadgeLedger) {
	i.ledgers[ref] = ledger
}

// Ledger resolves a ledger reference.
func (i *Issuer) Ledger(ref common.Address) (BadgeLedger, bool) {
	ledger, ok := i.ledgers[ref]
	return ledger, ok
}

// Covers fails with ErrInvalidTierConfig if a tier refers to an unregistered
// ledger.
func (i *Issuer) Covers(table *tiers.Table) error {
	for _, ref := range table.Ledgers() {
		if _, ok := i.ledgers[ref]; !ok {
			return fmt.Errorf("%w: unknown badge ledger %s", stakeerr.ErrInvalidTierConfig, ref.Hex())
		}
	}
	return nil
}

// Reconcile mints or burns one badge per crossed tier and returns the
// transitions it applied. Ledger holdings win over the crossing: a mint is
// skipped when the account already holds the badge and a burn when it does
// not, which happens after badges moved peer-to-peer. The first ledger error aborts reconciliation;
// the caller is responsible for rolling back what was already applied.
func (i *Issuer) Reconcile(account common.Address, oldBalance, newBalance *big.Int, table *tiers.Table) ([]Transition, error) {
	crossings := Crossings(table, oldBalance, newBalance)
	applied := make([]Transition, 0, len(crossings))
	for _, tr := range crossings {
		ledger, ok := i.ledgers[tr.Tier.Ledger]
		if !ok {
			return applied, fmt.Errorf("%w: unknown badge ledger %s", stakeerr.ErrInvalidTierConfig, tr.Tier.Ledger.Hex())
		}
		held := ledger.BalanceOf(account, tr.Tier.BadgeID) == 1
		if tr.Minted {
			if held {
				continue
			}
			if err := ledger.Mint(i.operator, account, tr.Tier.BadgeID, 1, nil); err != nil {
				return applied, fmt.Errorf("membership: mint badge %d to %s: %w", tr.Tier.BadgeID, account.Hex(), err)
			}
			applied = append(applied, tr)
			continue
		}
		if !held {
			continue
		}
		if err := ledger.Burn(i.operator, account, tr.Tier.BadgeID, 1); err != nil {
			return applied, fmt.Errorf("membership: burn badge %d from %s: %w", tr.Tier.BadgeID, account.Hex(), err)
		}
		applied = append(applied, tr)
	}
	return applied, nil
}

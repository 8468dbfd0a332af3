package events

import (
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"memberstake/core/types"
)

// TierMinted captures a badge issued because a balance reached a tier.
type TierMinted struct {
	Account common.Address
	Ledger  common.Address
	TierID  uint64
	Balance *big.Int
}

// EventType satisfies the Event interface.
func (TierMinted) EventType() string { return TypeTierMinted }

// Event converts the structured payload into a broadcastable event.
func (e TierMinted) Event() *types.Event {
	return &types.Event{Type: TypeTierMinted, Attributes: map[string]string{
		"account": formatAddress(e.Account),
		"ledger":  formatAddress(e.Ledger),
		"tierId":  formatUint(e.TierID),
		"balance": formatAmount(e.Balance),
	}}
}

// TierBurned captures a badge revoked because a balance fell below a tier.
type TierBurned struct {
	Account common.Address
	Ledger  common.Address
	TierID  uint64
	Balance *big.Int
}

// EventType satisfies the Event interface.
func (TierBurned) EventType() string { return TypeTierBurned }

// Event converts the structured payload into a broadcastable event.
func (e TierBurned) Event() *types.Event {
	return &types.Event{Type: TypeTierBurned, Attributes: map[string]string{
		"account": formatAddress(e.Account),
		"ledger":  formatAddress(e.Ledger),
		"tierId":  formatUint(e.TierID),
		"balance": formatAmount(e.Balance),
	}}
}

// TiersConfigured captures a wholesale replacement of the tier table.
type TiersConfigured struct {
	Caller common.Address
	Count  int
}

// EventType satisfies the Event interface.
func (TiersConfigured) EventType() string { return TypeTiersConfigured }

// Event converts the structured payload into a broadcastable event.
func (e TiersConfigured) Event() *types.Event {
	return &types.Event{Type: TypeTiersConfigured, Attributes: map[string]string{
		"caller": formatAddress(e.Caller),
		"count":  strconv.Itoa(e.Count),
	}}
}

package badge

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	stakeerr "memberstake/core/errors"
	"memberstake/native/access"
)

var (
	ErrInvalidAmount     = errors.New("badge: amount must be positive")
	ErrNotHeld           = errors.New("badge: badge not held")
	ErrMissingMinterRole = errors.New("badge: must have minter role to mint")
	ErrMissingBurnerRole = errors.New("badge: must have burner role to burn")
	ErrNotOperator       = errors.New("badge: caller is not owner")
)

// TransferHook reconciles external state for a peer-to-peer transfer. The hook
// runs its own checks, then calls move exactly once inside its atomic
// boundary. The badge changes hands only when move returns nil, and an error
// from the hook aborts the transfer.
type TransferHook interface {
	OnBadgeTransfer(caller, from, to common.Address, badgeID uint64, move func() error) error
}

// Ledger is an in-memory multi-identifier ownership ledger where every
// address holds at most one unit of each id. Without a transfer hook, badges
// are soulbound.
type Ledger struct {
	mu       sync.Mutex
	addr     common.Address
	roles    access.RoleStore
	holdings map[uint64]map[common.Address]struct{}
	hook     TransferHook
	journal  []func()
	open     int
}

// NewLedger creates an empty ledger reachable at addr. Minting and burning are
// authorised against roles.
func NewLedger(addr common.Address, roles access.RoleStore) *Ledger {
	return &Ledger{
		addr:     addr,
		roles:    roles,
		holdings: make(map[uint64]map[common.Address]struct{}),
	}
}

// Address returns the ledger's own address, passed as caller to the hook.
func (l *Ledger) Address() common.Address { return l.addr }

// SetTransferHook installs the callback that reconciles stake on transfers.
// Passing nil makes badges non-transferable again.
func (l *Ledger) SetTransferHook(hook TransferHook) {
	l.mu.Lock()
	l.hook = hook
	l.mu.Unlock()
}

// BalanceOf returns 1 if account holds id and 0 otherwise.
func (l *Ledger) BalanceOf(account common.Address, id uint64) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.holdsLocked(account, id) {
		return 1
	}
	return 0
}

// Holders returns how many addresses hold id.
func (l *Ledger) Holders(id uint64) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.holdings[id])
}

// Mint issues one unit of id to to. Amounts above one, and mints to an
// address already holding id, fail with ErrMaxOneBadge.
func (l *Ledger) Mint(operator, to common.Address, id, amount uint64, data []byte) error {
	if !l.hasRole(access.RoleMinter, operator) {
		return ErrMissingMinterRole
	}
	if amount == 0 {
		return ErrInvalidAmount
	}
	if amount > 1 {
		return fmt.Errorf("%w: amount %d", stakeerr.ErrMaxOneBadge, amount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.holdsLocked(to, id) {
		return fmt.Errorf("%w: %s already holds %d", stakeerr.ErrMaxOneBadge, to.Hex(), id)
	}
	l.setLocked(to, id, true)
	return nil
}

// Burn revokes the unit of id held by from.
func (l *Ledger) Burn(operator, from common.Address, id, amount uint64) error {
	if !l.hasRole(access.RoleBurner, operator) {
		return ErrMissingBurnerRole
	}
	if amount != 1 {
		return fmt.Errorf("%w: amount %d", ErrInvalidAmount, amount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.holdsLocked(from, id) {
		return fmt.Errorf("%w: %s does not hold %d", ErrNotHeld, from.Hex(), id)
	}
	l.setLocked(from, id, false)
	return nil
}

// SafeTransferFrom moves the unit of id from from to to through the transfer
// hook. Without a hook the transfer fails with ErrTransferNotAllowed. The
// ledger lock is not held while the hook runs; ownership is checked again
// when the hook calls move.
func (l *Ledger) SafeTransferFrom(operator, from, to common.Address, id, amount uint64, data []byte) error {
	l.mu.Lock()
	hook := l.hook
	l.mu.Unlock()
	if hook == nil {
		return stakeerr.ErrTransferNotAllowed
	}
	if operator != from {
		return ErrNotOperator
	}
	if amount != 1 {
		return fmt.Errorf("%w: amount %d", stakeerr.ErrMaxOneBadge, amount)
	}
	if to == (common.Address{}) {
		return stakeerr.ErrInvalidAddress
	}
	l.mu.Lock()
	err := l.checkTransferLocked(from, to, id)
	l.mu.Unlock()
	if err != nil {
		return err
	}
	return hook.OnBadgeTransfer(l.addr, from, to, id, func() error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if err := l.checkTransferLocked(from, to, id); err != nil {
			return err
		}
		l.setLocked(from, id, false)
		l.setLocked(to, id, true)
		return nil
	})
}

// Snapshot returns an identifier for the current ledger revision. Mutations
// are journaled only while at least one snapshot is open; every snapshot must
// be closed with RevertToSnapshot or DiscardSnapshot.
func (l *Ledger) Snapshot() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.open++
	return len(l.journal)
}

// RevertToSnapshot undoes every mutation made since the snapshot was taken
// and closes it.
func (l *Ledger) RevertToSnapshot(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for len(l.journal) > id {
		last := len(l.journal) - 1
		l.journal[last]()
		l.journal = l.journal[:last]
	}
	l.releaseLocked()
}

// DiscardSnapshot closes a snapshot, keeping its mutations. The journal is
// dropped once no snapshot is open.
func (l *Ledger) DiscardSnapshot(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.releaseLocked()
}

func (l *Ledger) releaseLocked() {
	if l.open > 0 {
		l.open--
	}
	if l.open == 0 {
		l.journal = nil
	}
}

func (l *Ledger) record(undo func()) {
	if l.open == 0 {
		return
	}
	l.journal = append(l.journal, undo)
}

func (l *Ledger) checkTransferLocked(from, to common.Address, id uint64) error {
	if !l.holdsLocked(from, id) {
		return fmt.Errorf("%w: %s does not hold %d", ErrNotHeld, from.Hex(), id)
	}
	if l.holdsLocked(to, id) {
		return fmt.Errorf("%w: %s already holds %d", stakeerr.ErrMaxOneBadge, to.Hex(), id)
	}
	return nil
}

func (l *Ledger) holdsLocked(account common.Address, id uint64) bool {
	_, ok := l.holdings[id][account]
	return ok
}

func (l *Ledger) setLocked(account common.Address, id uint64, held bool) {
	holders, ok := l.holdings[id]
	if !ok {
		holders = make(map[common.Address]struct{})
		l.holdings[id] = holders
	}
	_, was := holders[account]
	apply := func(v bool) {
		if v {
			holders[account] = struct{}{}
		} else {
			delete(holders, account)
		}
	}
	apply(held)
	l.record(func() { apply(was) })
}

func (l *Ledger) hasRole(role access.Role, addr common.Address) bool {
	return l.roles != nil && l.roles.HasRole(role, addr)
}

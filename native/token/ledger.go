package token

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"memberstake/native/access"
)

var (
	ErrInvalidAmount         = errors.New("token: amount must be positive")
	ErrInsufficientFunds     = errors.New("token: transfer amount exceeds balance")
	ErrInsufficientAllowance = errors.New("token: insufficient allowance")
	ErrPaused                = errors.New("token: transfers paused")
	ErrMissingMinterRole     = errors.New("token: must have minter role to mint")
	ErrMissingBurnerRole     = errors.New("token: must have burner role to burn")
)

// Ledger is an in-memory fungible balance ledger with allowances. While a
// snapshot is open every mutation is journaled, so a multi-step operation can
// revert to it if a later step fails.
type Ledger struct {
	mu         sync.Mutex
	symbol     string
	roles      access.RoleStore
	balances   map[common.Address]*big.Int
	allowances map[common.Address]map[common.Address]*big.Int
	supply     *big.Int
	paused     bool
	journal    []func()
	open       int
}

// NewLedger creates an empty ledger for symbol. Minting, burning and pausing
// are authorised against roles.
func NewLedger(symbol string, roles access.RoleStore) *Ledger {
	return &Ledger{
		symbol:     strings.ToUpper(strings.TrimSpace(symbol)),
		roles:      roles,
		balances:   make(map[common.Address]*big.Int),
		allowances: make(map[common.Address]map[common.Address]*big.Int),
		supply:     big.NewInt(0),
	}
}

// Symbol returns the asset symbol.
func (l *Ledger) Symbol() string { return l.symbol }

// BalanceOf returns the balance held by account.
func (l *Ledger) BalanceOf(account common.Address) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balanceLocked(account)
}

// TotalSupply returns the minted supply net of burns.
func (l *Ledger) TotalSupply() *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return new(big.Int).Set(l.supply)
}

// Allowance returns how much spender may move on behalf of owner.
func (l *Ledger) Allowance(owner, spender common.Address) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.allowanceLocked(owner, spender)
}

// Mint credits amount to to. The operator must hold the minter role.
func (l *Ledger) Mint(operator, to common.Address, amount *big.Int) error {
	if !l.hasRole(access.RoleMinter, operator) {
		return ErrMissingMinterRole
	}
	if err := positive(amount); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.setBalanceLocked(to, new(big.Int).Add(l.balanceLocked(to), amount))
	l.setSupplyLocked(new(big.Int).Add(l.supply, amount))
	return nil
}

// Burn debits amount from from. The operator must hold the burner role.
func (l *Ledger) Burn(operator, from common.Address, amount *big.Int) error {
	if !l.hasRole(access.RoleBurner, operator) {
		return ErrMissingBurnerRole
	}
	if err := positive(amount); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	balance := l.balanceLocked(from)
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s < %s", ErrInsufficientFunds, balance, amount)
	}
	l.setBalanceLocked(from, balance.Sub(balance, amount))
	l.setSupplyLocked(new(big.Int).Sub(l.supply, amount))
	return nil
}

// Approve sets the allowance of spender over owner's balance.
func (l *Ledger) Approve(owner, spender common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.setAllowanceLocked(owner, spender, new(big.Int).Set(amount))
	return nil
}

// Transfer moves amount from from to to.
func (l *Ledger) Transfer(from, to common.Address, amount *big.Int) error {
	if err := positive(amount); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.moveLocked(from, to, amount)
}

// TransferFrom moves amount from from to to, spending spender's allowance.
func (l *Ledger) TransferFrom(spender, from, to common.Address, amount *big.Int) error {
	if err := positive(amount); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	allowance := l.allowanceLocked(from, spender)
	if spender != from && allowance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s < %s", ErrInsufficientAllowance, allowance, amount)
	}
	if err := l.moveLocked(from, to, amount); err != nil {
		return err
	}
	if spender != from {
		l.setAllowanceLocked(from, spender, allowance.Sub(allowance, amount))
	}
	return nil
}

// SetPaused halts or resumes transfers. The operator must hold the admin role.
func (l *Ledger) SetPaused(operator common.Address, paused bool) error {
	if err := access.Check(l.roles, operator, access.RoleAdmin); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	prev := l.paused
	l.paused = paused
	l.record(func() { l.paused = prev })
	return nil
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

func (l *Ledger) moveLocked(from, to common.Address, amount *big.Int) error {
	if l.paused {
		return ErrPaused
	}
	balance := l.balanceLocked(from)
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s < %s", ErrInsufficientFunds, balance, amount)
	}
	l.setBalanceLocked(from, balance.Sub(balance, amount))
	l.setBalanceLocked(to, new(big.Int).Add(l.balanceLocked(to), amount))
	return nil
}

func (l *Ledger) balanceLocked(account common.Address) *big.Int {
	if balance, ok := l.balances[account]; ok {
		return new(big.Int).Set(balance)
	}
	return big.NewInt(0)
}

func (l *Ledger) allowanceLocked(owner, spender common.Address) *big.Int {
	if allowance, ok := l.allowances[owner][spender]; ok {
		return new(big.Int).Set(allowance)
	}
	return big.NewInt(0)
}

func (l *Ledger) setBalanceLocked(account common.Address, value *big.Int) {
	prev, existed := l.balances[account]
	l.balances[account] = value
	l.record(func() {
		if existed {
			l.balances[account] = prev
		} else {
			delete(l.balances, account)
		}
	})
}

func (l *Ledger) setAllowanceLocked(owner, spender common.Address, value *big.Int) {
	spenders, ok := l.allowances[owner]
	if !ok {
		spenders = make(map[common.Address]*big.Int)
		l.allowances[owner] = spenders
	}
	prev, existed := spenders[spender]
	spenders[spender] = value
	l.record(func() {
		if existed {
			spenders[spender] = prev
		} else {
			delete(spenders, spender)
		}
	})
}

func (l *Ledger) setSupplyLocked(value *big.Int) {
	prev := l.supply
	l.supply = value
	l.record(func() { l.supply = prev })
}

func (l *Ledger) hasRole(role access.Role, addr common.Address) bool {
	return l.roles != nil && l.roles.HasRole(role, addr)
}

func positive(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

package access

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	stakeerr "memberstake/core/errors"
)

// Role identifies a capability. The identifier is keccak256 of the role name
// so that it matches the ids external ledgers use for the same capability.
type Role common.Hash

var (
	RoleAdmin             = NewRole("ADMIN_ROLE")
	RoleRewardDistributor = NewRole("REWARD_DISTRIBUTOR_ROLE")
	RoleMinter            = NewRole("MINTER_ROLE")
	RoleBurner            = NewRole("BURNER_ROLE")
	RoleTransferCallback  = NewRole("TRANSFER_CALLBACK_ROLE")
)

var (
	namesMu sync.RWMutex
	names   = map[Role]string{}
)

// NewRole derives the role id for name and remembers the name for display.
func NewRole(name string) Role {
	trimmed := strings.TrimSpace(name)
	role := Role(ethcrypto.Keccak256Hash([]byte(trimmed)))
	namesMu.Lock()
	names[role] = trimmed
	namesMu.Unlock()
	return role
}

// String returns the role name when known and the hex id otherwise.
func (r Role) String() string {
	namesMu.RLock()
	name, ok := names[r]
	namesMu.RUnlock()
	if ok {
		return name
	}
	return common.Hash(r).Hex()
}

// RoleStore answers capability lookups.
type RoleStore interface {
	HasRole(role Role, addr common.Address) bool
}

// Check fails with ErrUnauthorized unless caller holds role in store. A nil
// store grants nothing.
func Check(store RoleStore, caller common.Address, role Role) error {
	if store == nil || !store.HasRole(role, caller) {
		return fmt.Errorf("%w: %s lacks %s", stakeerr.ErrUnauthorized, caller.Hex(), role)
	}
	return nil
}

// Registry is an in-memory RoleStore. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	members map[Role]map[common.Address]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{members: make(map[Role]map[common.Address]struct{})}
}

// Grant associates addr with role. Duplicate assignments are ignored.
func (r *Registry) Grant(role Role, addr common.Address) error {
	if addr == (common.Address{}) {
		return fmt.Errorf("access: address must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.members[role]
	if !ok {
		set = make(map[common.Address]struct{})
		r.members[role] = set
	}
	set[addr] = struct{}{}
	return nil
}

// Revoke removes addr from role. Revoking an absent member is a no-op.
func (r *Registry) Revoke(role Role, addr common.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if set, ok := r.members[role]; ok {
		delete(set, addr)
		if len(set) == 0 {
			delete(r.members, role)
		}
	}
}

// Replace makes addr the only member of role.
func (r *Registry) Replace(role Role, addr common.Address) error {
	if addr == (common.Address{}) {
		return fmt.Errorf("access: address must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[role] = map[common.Address]struct{}{addr: {}}
	return nil
}

// HasRole implements RoleStore.
func (r *Registry) HasRole(role Role, addr common.Address) bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.members[role][addr]
	return ok
}

// Members returns the addresses holding role, sorted for determinism.
func (r *Registry) Members(role Role) []common.Address {
	r.mu.RLock()
	out := make([]common.Address, 0, len(r.members[role]))
	for addr := range r.members[role] {
		out = append(out, addr)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i][:], out[j][:]) < 0
	})
	return out
}

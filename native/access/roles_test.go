package access

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	stakeerr "memberstake/core/errors"
)

func TestRoleIDsMatchKeccakOfName(t *testing.T) {
	want := ethcrypto.Keccak256Hash([]byte("MINTER_ROLE"))
	if common.Hash(RoleMinter) != want {
		t.Fatalf("minter role id mismatch: got %x want %x", RoleMinter, want)
	}
	if RoleMinter.String() != "MINTER_ROLE" {
		t.Fatalf("unexpected role name %q", RoleMinter.String())
	}
	unknown := Role(common.HexToHash("0x01"))
	if unknown.String() != common.HexToHash("0x01").Hex() {
		t.Fatalf("unknown role should render as hex, got %q", unknown.String())
	}
}

func TestCheckRejectsMissingRole(t *testing.T) {
	reg := NewRegistry()
	admin := common.HexToAddress("0x01")
	other := common.HexToAddress("0x02")
	if err := reg.Grant(RoleAdmin, admin); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if err := Check(reg, admin, RoleAdmin); err != nil {
		t.Fatalf("admin check: %v", err)
	}
	if err := Check(reg, other, RoleAdmin); !errors.Is(err, stakeerr.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if err := Check(nil, admin, RoleAdmin); !errors.Is(err, stakeerr.ErrUnauthorized) {
		t.Fatalf("nil store must deny, got %v", err)
	}
}

func TestReplaceAndRevoke(t *testing.T) {
	reg := NewRegistry()
	a := common.HexToAddress("0x0a")
	b := common.HexToAddress("0x0b")
	if err := reg.Grant(RoleRewardDistributor, a); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if err := reg.Replace(RoleRewardDistributor, b); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if reg.HasRole(RoleRewardDistributor, a) {
		t.Fatalf("replace must drop previous members")
	}
	members := reg.Members(RoleRewardDistributor)
	if len(members) != 1 || members[0] != b {
		t.Fatalf("unexpected members %v", members)
	}
	reg.Revoke(RoleRewardDistributor, b)
	if len(reg.Members(RoleRewardDistributor)) != 0 {
		t.Fatalf("expected empty role after revoke")
	}
	if err := reg.Grant(RoleAdmin, common.Address{}); err == nil {
		t.Fatalf("expected zero address grant to fail")
	}
}

package badge

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	stakeerr "memberstake/core/errors"
	"memberstake/native/access"
)

var (
	ledgerAddr = common.HexToAddress("0xbadbad")
	issuer     = common.HexToAddress("0x1001")
	alice      = common.HexToAddress("0xa11ce")
	bob        = common.HexToAddress("0xb0b")
)

type recordingHook struct {
	calls []common.Address
	err   error
}

func (h *recordingHook) OnBadgeTransfer(caller, from, to common.Address, badgeID uint64, move func() error) error {
	h.calls = append(h.calls, caller, from, to)
	if h.err != nil {
		return h.err
	}
	return move()
}

func newLedger(t *testing.T) *Ledger {
	t.Helper()
	roles := access.NewRegistry()
	require.NoError(t, roles.Grant(access.RoleMinter, issuer))
	require.NoError(t, roles.Grant(access.RoleBurner, issuer))
	return NewLedger(ledgerAddr, roles)
}

func TestMintEnforcesAtMostOne(t *testing.T) {
	ledger := newLedger(t)
	require.NoError(t, ledger.Mint(issuer, alice, 0, 1, nil))
	require.Equal(t, uint64(1), ledger.BalanceOf(alice, 0))

	err := ledger.Mint(issuer, bob, 0, 2, nil)
	require.ErrorIs(t, err, stakeerr.ErrMaxOneBadge)

	err = ledger.Mint(issuer, alice, 0, 1, nil)
	require.ErrorIs(t, err, stakeerr.ErrMaxOneBadge)

	require.ErrorIs(t, ledger.Mint(alice, alice, 1, 1, nil), ErrMissingMinterRole)
	require.ErrorIs(t, ledger.Mint(issuer, alice, 1, 0, nil), ErrInvalidAmount)
}

func TestBurnRequiresHolding(t *testing.T) {
	ledger := newLedger(t)
	require.ErrorIs(t, ledger.Burn(issuer, alice, 0, 1), ErrNotHeld)
	require.NoError(t, ledger.Mint(issuer, alice, 0, 1, nil))
	require.ErrorIs(t, ledger.Burn(alice, alice, 0, 1), ErrMissingBurnerRole)
	require.NoError(t, ledger.Burn(issuer, alice, 0, 1))
	require.Equal(t, uint64(0), ledger.BalanceOf(alice, 0))
	require.Equal(t, 0, ledger.Holders(0))
}

func TestTransferWithoutHookIsRejected(t *testing.T) {
	ledger := newLedger(t)
	require.NoError(t, ledger.Mint(issuer, alice, 0, 1, nil))
	err := ledger.SafeTransferFrom(alice, alice, bob, 0, 1, nil)
	if !errors.Is(err, stakeerr.ErrTransferNotAllowed) {
		t.Fatalf("expected transfer not allowed, got %v", err)
	}
}

func TestTransferRunsHookBeforeMoving(t *testing.T) {
	ledger := newLedger(t)
	require.NoError(t, ledger.Mint(issuer, alice, 0, 1, nil))
	hook := &recordingHook{}
	ledger.SetTransferHook(hook)

	require.ErrorIs(t, ledger.SafeTransferFrom(bob, alice, bob, 0, 1, nil), ErrNotOperator)
	require.NoError(t, ledger.SafeTransferFrom(alice, alice, bob, 0, 1, nil))
	require.Equal(t, []common.Address{ledgerAddr, alice, bob}, hook.calls)
	require.Equal(t, uint64(0), ledger.BalanceOf(alice, 0))
	require.Equal(t, uint64(1), ledger.BalanceOf(bob, 0))

	hook.err = stakeerr.ErrInsufficientBalance
	require.ErrorIs(t, ledger.SafeTransferFrom(bob, bob, alice, 0, 1, nil), stakeerr.ErrInsufficientBalance)
	require.Equal(t, uint64(1), ledger.BalanceOf(bob, 0), "failed hook must leave the badge in place")
}

func TestTransferRechecksOwnershipOnMove(t *testing.T) {
	ledger := newLedger(t)
	require.NoError(t, ledger.Mint(issuer, alice, 0, 1, nil))
	hook := &burningHook{ledger: ledger}
	ledger.SetTransferHook(hook)

	err := ledger.SafeTransferFrom(alice, alice, bob, 0, 1, nil)
	require.ErrorIs(t, err, ErrNotHeld)
	require.Equal(t, uint64(0), ledger.BalanceOf(bob, 0))
}

// burningHook revokes the badge before letting the move proceed.
type burningHook struct {
	ledger *Ledger
}

func (h *burningHook) OnBadgeTransfer(caller, from, to common.Address, badgeID uint64, move func() error) error {
	if err := h.ledger.Burn(issuer, from, badgeID, 1); err != nil {
		return err
	}
	return move()
}

func TestRevertToSnapshotRestoresHoldings(t *testing.T) {
	ledger := newLedger(t)
	require.NoError(t, ledger.Mint(issuer, alice, 0, 1, nil))
	snap := ledger.Snapshot()
	require.NoError(t, ledger.Mint(issuer, alice, 1, 1, nil))
	require.NoError(t, ledger.Burn(issuer, alice, 0, 1))
	ledger.RevertToSnapshot(snap)
	require.Equal(t, uint64(1), ledger.BalanceOf(alice, 0))
	require.Equal(t, uint64(0), ledger.BalanceOf(alice, 1))
}

func TestTransferToZeroAddressSkipsHook(t *testing.T) {
	ledger := newLedger(t)
	hook := &recordingHook{}
	ledger.SetTransferHook(hook)
	require.NoError(t, ledger.Mint(issuer, alice, 0, 1, nil))

	err := ledger.SafeTransferFrom(alice, alice, common.Address{}, 0, 1, nil)
	require.ErrorIs(t, err, stakeerr.ErrInvalidAddress)
	require.Empty(t, hook.calls)
	require.Equal(t, uint64(1), ledger.BalanceOf(alice, 0))
}

func TestDiscardSnapshotDropsJournal(t *testing.T) {
	ledger := newLedger(t)
	require.NoError(t, ledger.Mint(issuer, alice, 0, 1, nil))
	require.Empty(t, ledger.journal)

	snap := ledger.Snapshot()
	require.NoError(t, ledger.Mint(issuer, alice, 1, 1, nil))
	require.Len(t, ledger.journal, 1)
	ledger.DiscardSnapshot(snap)
	require.Empty(t, ledger.journal)
	require.Equal(t, uint64(1), ledger.BalanceOf(alice, 1))

	require.NoError(t, ledger.Burn(issuer, alice, 1, 1))
	require.Empty(t, ledger.journal)
}

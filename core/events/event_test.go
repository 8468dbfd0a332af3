package events

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestRecorderKeepsEmissionOrder(t *testing.T) {
	rec := &Recorder{}
	alice := common.HexToAddress("0xa11ce")
	rec.Emit(Staked{Account: alice, Amount: big.NewInt(1000)})
	rec.Emit(TierMinted{Account: alice, TierID: 2, Balance: big.NewInt(1000)})
	rec.Emit(nil)

	got := rec.Events()
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Type != TypeStaked || got[0].Attr("amount") != "1000" {
		t.Fatalf("unexpected first event: %+v", got[0])
	}
	if got[1].Attr("tierId") != "2" || got[1].Attr("account") != alice.Hex() {
		t.Fatalf("unexpected tier event: %+v", got[1])
	}
	if n := len(rec.OfType(TypeTierMinted)); n != 1 {
		t.Fatalf("expected one tier event, got %d", n)
	}

	// Mutating a returned copy must not leak into the recorder.
	got[0].Attributes["amount"] = "1"
	if rec.Events()[0].Attr("amount") != "1000" {
		t.Fatalf("recorder state mutated through returned event")
	}

	rec.Reset()
	if len(rec.Events()) != 0 {
		t.Fatalf("expected reset to clear events")
	}
}

func TestNilAmountsRenderAsZero(t *testing.T) {
	evt := RewardPaid{}.Event()
	if evt.Attr("amount") != "0" {
		t.Fatalf("expected nil amount to render as 0, got %q", evt.Attr("amount"))
	}
}

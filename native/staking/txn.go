package staking

import (
	"github.com/ethereum/go-ethereum/common"

	"memberstake/core/events"
	"memberstake/native/rewards"
	"memberstake/native/tiers"
)

type ledgerMark struct {
	ledger Journal
	id     int
}

// txn records everything needed to undo one operation. Ledgers are
// snapshotted the first time the operation is about to call them.
type txn struct {
	engine   *Engine
	rewards  rewards.State
	accounts map[common.Address]*account
	tiers    *tiers.Table
	swapped  bool
	paused   bool
	marks    []ledgerMark
	events   []events.Event
	onCommit []func()
}

func (e *Engine) begin() *txn {
	return &txn{
		engine:   e,
		rewards:  e.rewards.State(),
		accounts: make(map[common.Address]*account),
		paused:   e.paused,
	}
}

// touch returns the live record for addr, creating it if needed, and keeps
// its pre-image. A nil pre-image means the record did not exist.
func (tx *txn) touch(addr common.Address) *account {
	acct, ok := tx.engine.accounts[addr]
	if _, seen := tx.accounts[addr]; !seen {
		if ok {
			tx.accounts[addr] = acct.clone()
		} else {
			tx.accounts[addr] = nil
		}
	}
	if !ok {
		acct = newAccount()
		tx.engine.accounts[addr] = acct
	}
	return acct
}

func (tx *txn) journal(ledger Journal) {
	if ledger == nil {
		return
	}
	for _, mark := range tx.marks {
		if mark.ledger == ledger {
			return
		}
	}
	tx.marks = append(tx.marks, ledgerMark{ledger: ledger, id: ledger.Snapshot()})
}

func (tx *txn) swapTiers(table *tiers.Table) {
	prev := tx.engine.tiers.Swap(table)
	if !tx.swapped {
		tx.tiers = prev
		tx.swapped = true
	}
}

func (tx *txn) setPaused(paused bool) {
	tx.engine.paused = paused
}

func (tx *txn) emit(evt events.Event) {
	tx.events = append(tx.events, evt)
}

func (tx *txn) after(fn func()) {
	tx.onCommit = append(tx.onCommit, fn)
}

func (tx *txn) rollback() {
	e := tx.engine
	for i := len(tx.marks) - 1; i >= 0; i-- {
		tx.marks[i].ledger.RevertToSnapshot(tx.marks[i].id)
	}
	e.rewards.Restore(tx.rewards)
	for addr, pre := range tx.accounts {
		if pre == nil {
			delete(e.accounts, addr)
			continue
		}
		e.accounts[addr] = pre
	}
	if tx.swapped {
		e.tiers.Swap(tx.tiers)
	}
	e.paused = tx.paused
}

func (tx *txn) commit() {
	for i := len(tx.marks) - 1; i >= 0; i-- {
		tx.marks[i].ledger.DiscardSnapshot(tx.marks[i].id)
	}
	for _, evt := range tx.events {
		tx.engine.emitter.Emit(evt)
	}
	for _, fn := range tx.onCommit {
		fn()
	}
}

package staking

import (
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	stakeerr "memberstake/core/errors"
	"memberstake/core/events"
	"memberstake/native/access"
	"memberstake/native/membership"
	"memberstake/native/rewards"
	"memberstake/native/tiers"
	"memberstake/observability/metrics"
)

// Engine is the staking ledger. It owns principal and reward bookkeeping and
// drives badge issuance on the configured tier table. Every operation runs
// under a single lock and is all-or-nothing: a failure restores engine state,
// reverts the ledgers it touched and discards its events.
type Engine struct {
	mu sync.Mutex

	pool        common.Address
	stakeToken  FungibleLedger
	rewardToken FungibleLedger
	sharedAsset bool

	roles    *access.Registry
	tiers    *tiers.Registry
	issuer   *membership.Issuer
	badges   map[common.Address]BadgeLedger
	rewards  *rewards.Engine
	accounts map[common.Address]*account
	paused   bool

	emitter events.Emitter
	logger  *slog.Logger
	metrics *metrics.StakingMetrics
	nowFn   func() int64
	lastNow uint64
}

// NewEngine validates cfg and returns an engine with no tiers and no active
// reward period. When the stake and reward ledgers are the same instance,
// staked principal is excluded from the balance backing reward periods.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Pool == (common.Address{}) {
		return nil, stakeerr.ErrInvalidAddress
	}
	if cfg.StakeToken == nil {
		return nil, errNilStakeToken
	}
	if cfg.RewardToken == nil {
		return nil, errNilRewardToken
	}
	roles := cfg.Roles
	if roles == nil {
		roles = access.NewRegistry()
	}
	return &Engine{
		pool:        cfg.Pool,
		stakeToken:  cfg.StakeToken,
		rewardToken: cfg.RewardToken,
		sharedAsset: cfg.StakeToken == cfg.RewardToken,
		roles:       roles,
		tiers:       tiers.NewRegistry(),
		issuer:      membership.NewIssuer(cfg.Pool),
		badges:      make(map[common.Address]BadgeLedger),
		rewards:     rewards.NewEngine(cfg.RewardsDuration),
		accounts:    make(map[common.Address]*account),
		emitter:     events.NoopEmitter{},
		logger:      slog.Default(),
		metrics:     metrics.Staking(),
		nowFn:       func() int64 { return time.Now().Unix() },
	}, nil
}

// SetEmitter configures the event emitter used by the engine. Passing nil resets
// the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used by the engine. Primarily intended
// for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetLogger replaces the logger. Nil restores slog.Default().
func (e *Engine) SetLogger(logger *slog.Logger) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if logger == nil {
		logger = slog.Default()
	}
	e.logger = logger
}

// SetMetrics replaces the metrics sink. Nil disables metrics.
func (e *Engine) SetMetrics(m *metrics.StakingMetrics) {
	e.mu.Lock()
	e.metrics = m
	e.mu.Unlock()
}

// RegisterBadgeLedger makes ledger available to tiers under ref.
func (e *Engine) RegisterBadgeLedger(ref common.Address, ledger BadgeLedger) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.issuer.Register(ref, ledger)
	e.badges[ref] = ledger
}

// Pool returns the address holding staked and reward funds.
func (e *Engine) Pool() common.Address { return e.pool }

// now reads the clock. Readings never go backwards.
func (e *Engine) now() uint64 {
	reading := e.nowFn()
	if reading < 0 {
		reading = 0
	}
	ts := uint64(reading)
	if ts < e.lastNow {
		return e.lastNow
	}
	e.lastNow = ts
	return ts
}

// run executes fn as one atomic operation.
func (e *Engine) run(op string, account common.Address, fn func(tx *txn, now uint64) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.now()
	tx := e.begin()
	if err := fn(tx, now); err != nil {
		tx.rollback()
		kind := stakeerr.Kind(err)
		e.metrics.ObserveOperation(op, kind)
		e.logger.Warn("staking operation rolled back",
			slog.String("op", op),
			slog.String("account", account.Hex()),
			slog.String("kind", kind),
			slog.Any("error", err))
		return err
	}
	tx.commit()
	e.metrics.ObserveOperation(op, "")
	e.metrics.SetTotalStaked(e.rewards.TotalStaked())
	e.logger.Debug("staking operation committed",
		slog.String("op", op),
		slog.String("account", account.Hex()),
		slog.Int("events", len(tx.events)))
	return nil
}

// BalanceOf returns the principal staked by account.
func (e *Engine) BalanceOf(account common.Address) *big.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if acct, ok := e.accounts[account]; ok {
		return cloneBigInt(acct.principal)
	}
	return big.NewInt(0)
}

// Earned returns the reward account could claim now.
func (e *Engine) Earned(account common.Address) *big.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	acct, ok := e.accounts[account]
	if !ok {
		return big.NewInt(0)
	}
	return e.rewards.Earned(acct.principal, acct.checkpoint, e.now())
}

// RewardRate returns the reward units distributed per second.
func (e *Engine) RewardRate() *big.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rewards.RewardRate()
}

// PeriodFinish returns the timestamp the current reward period ends at.
func (e *Engine) PeriodFinish() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rewards.PeriodFinish()
}

// TotalStaked returns the sum of all principals.
func (e *Engine) TotalStaked() *big.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rewards.TotalStaked()
}

// RewardPerToken returns the accumulated reward per staked unit, scaled by 1e18.
func (e *Engine) RewardPerToken() *big.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rewards.RewardPerToken(e.now())
}

// LastTimeRewardApplicable returns the current time capped at the period end.
func (e *Engine) LastTimeRewardApplicable() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rewards.LastTimeRewardApplicable(e.now())
}

// RewardForDuration returns the reward distributed over one full period at the current rate.
func (e *Engine) RewardForDuration() *big.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rewards.RewardForDuration()
}

// RewardsDuration returns the configured reward period length in seconds.
func (e *Engine) RewardsDuration() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rewards.RewardsDuration()
}

// Tiers returns the active tier table in configuration order.
func (e *Engine) Tiers() []tiers.Tier {
	return e.tiers.Current().Tiers()
}

// Paused reports whether new stakes are rejected.
func (e *Engine) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"memberstake/config"
	stakeerr "memberstake/core/errors"
	"memberstake/core/events"
	"memberstake/core/types"
	"memberstake/native/access"
	"memberstake/native/badge"
	"memberstake/native/staking"
	"memberstake/native/token"
)

// Scenario is a scripted sequence of staking operations.
type Scenario struct {
	Start   int64     `yaml:"start"`
	Rewards string    `yaml:"rewards"`
	Funds   []Funding `yaml:"funds"`
	Steps   []Step    `yaml:"steps"`
}

// Funding mints stake tokens to an account and approves the pool to pull them.
type Funding struct {
	Account string `yaml:"account"`
	Amount  string `yaml:"amount"`
}

// Step is one operation. Caller defaults to the configured role holder for
// privileged operations.
type Step struct {
	At       int64  `yaml:"at"`
	Op       string `yaml:"op"`
	Account  string `yaml:"account"`
	Caller   string `yaml:"caller"`
	To       string `yaml:"to"`
	Amount   string `yaml:"amount"`
	BadgeID  uint64 `yaml:"badge_id"`
	Duration uint64 `yaml:"duration"`
	Paused   bool   `yaml:"paused"`
	Expect   string `yaml:"expect"`
}

// StepResult is the JSON line written for every executed step.
type StepResult struct {
	ID      string `json:"id"`
	At      int64  `json:"at"`
	Op      string `json:"op"`
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

// Summary is written once all steps ran.
type Summary struct {
	TotalStaked string            `json:"totalStaked"`
	RewardRate  string            `json:"rewardRate"`
	Balances    map[string]string `json:"balances"`
	Earned      map[string]string `json:"earned"`
	Events      []*types.Event    `json:"events"`
	Mismatches  int               `json:"mismatches"`
}

// LoadScenario reads a YAML scenario file.
func LoadScenario(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return nil, fmt.Errorf("decode scenario %s: %w", path, err)
	}
	return &sc, nil
}

type simulation struct {
	cfg         *config.Staking
	engine      *staking.Engine
	stakeToken  *token.Ledger
	rewardToken *token.Ledger
	badges      *badge.Ledger
	recorder    *events.Recorder
	now         int64
	admin       common.Address
	distributor common.Address
	pool        common.Address
	accounts    map[common.Address]struct{}
}

func newSimulation(cfg *config.Staking, logger *slog.Logger) (*simulation, error) {
	sim := &simulation{
		cfg:         cfg,
		recorder:    &events.Recorder{},
		admin:       config.Address(cfg.Admin),
		distributor: config.Address(cfg.RewardDistributor),
		pool:        config.Address(cfg.PoolAddress),
		accounts:    make(map[common.Address]struct{}),
	}
	badgeRef := config.Address(cfg.BadgeLedger)

	roles := access.NewRegistry()
	grants := []struct {
		role access.Role
		addr common.Address
	}{
		{access.RoleAdmin, sim.admin},
		{access.RoleMinter, sim.admin},
		{access.RoleRewardDistributor, sim.distributor},
		{access.RoleMinter, sim.pool},
		{access.RoleBurner, sim.pool},
		{access.RoleTransferCallback, badgeRef},
	}
	for _, g := range grants {
		if err := roles.Grant(g.role, g.addr); err != nil {
			return nil, fmt.Errorf("grant %s: %w", g.role, err)
		}
	}

	sim.stakeToken = token.NewLedger(cfg.StakingAsset, roles)
	sim.rewardToken = sim.stakeToken
	if !cfg.SharedAsset() {
		sim.rewardToken = token.NewLedger(cfg.RewardAsset, roles)
	}
	sim.badges = badge.NewLedger(badgeRef, roles)

	engine, err := staking.NewEngine(staking.Config{
		Pool:            sim.pool,
		StakeToken:      sim.stakeToken,
		RewardToken:     sim.rewardToken,
		RewardsDuration: cfg.RewardsDurationSeconds,
		Roles:           roles,
	})
	if err != nil {
		return nil, err
	}
	engine.SetLogger(logger)
	engine.SetEmitter(sim.recorder)
	engine.SetNowFunc(func() int64 { return sim.now })
	engine.RegisterBadgeLedger(badgeRef, sim.badges)
	sim.badges.SetTransferHook(engine)
	sim.engine = engine

	if cfg.TiersFile != "" {
		table, err := config.LoadTiers(cfg.TiersFile, badgeRef)
		if err != nil {
			return nil, err
		}
		ledgers, ids, costs, err := table.Columns()
		if err != nil {
			return nil, err
		}
		if err := engine.SetTierDetails(sim.admin, ledgers, ids, costs); err != nil {
			return nil, fmt.Errorf("configure tiers: %w", err)
		}
	}
	if cfg.Paused {
		if err := engine.SetPaused(sim.admin, true); err != nil {
			return nil, err
		}
	}
	return sim, nil
}

func (s *simulation) seed(sc *Scenario) error {
	s.now = sc.Start
	if strings.TrimSpace(sc.Rewards) != "" {
		amount, err := parseAmount(sc.Rewards)
		if err != nil {
			return fmt.Errorf("rewards: %w", err)
		}
		if err := s.rewardToken.Mint(s.admin, s.pool, amount); err != nil {
			return fmt.Errorf("fund rewards: %w", err)
		}
	}
	for i, f := range sc.Funds {
		acct, err := parseAddress(f.Account)
		if err != nil {
			return fmt.Errorf("funds[%d]: %w", i, err)
		}
		amount, err := parseAmount(f.Amount)
		if err != nil {
			return fmt.Errorf("funds[%d]: %w", i, err)
		}
		if err := s.stakeToken.Mint(s.admin, acct, amount); err != nil {
			return fmt.Errorf("funds[%d]: %w", i, err)
		}
		if err := s.stakeToken.Approve(acct, s.pool, amount); err != nil {
			return fmt.Errorf("funds[%d]: %w", i, err)
		}
		s.accounts[acct] = struct{}{}
	}
	return nil
}

func (s *simulation) apply(step Step) error {
	if step.At > s.now {
		s.now = step.At
	}
	account, err := optionalAddress(step.Account)
	if err != nil {
		return err
	}
	if account != (common.Address{}) {
		s.accounts[account] = struct{}{}
	}
	switch strings.ToLower(strings.TrimSpace(step.Op)) {
	case "stake":
		amount, err := parseAmount(step.Amount)
		if err != nil {
			return err
		}
		return s.engine.Stake(account, amount)
	case "unstake":
		amount, err := parseAmount(step.Amount)
		if err != nil {
			return err
		}
		return s.engine.Unstake(account, amount)
	case "getreward":
		return s.engine.GetReward(account)
	case "exit":
		return s.engine.Exit(account)
	case "notifyrewardamount":
		amount, err := parseAmount(step.Amount)
		if err != nil {
			return err
		}
		caller, err := s.caller(step, s.distributor)
		if err != nil {
			return err
		}
		return s.engine.NotifyRewardAmount(caller, amount)
	case "setrewardsduration":
		caller, err := s.caller(step, s.distributor)
		if err != nil {
			return err
		}
		return s.engine.SetRewardsDuration(caller, step.Duration)
	case "setrewarddistribution":
		caller, err := s.caller(step, s.admin)
		if err != nil {
			return err
		}
		to, err := optionalAddress(step.To)
		if err != nil {
			return err
		}
		if err := s.engine.SetRewardDistribution(caller, to); err != nil {
			return err
		}
		s.distributor = to
		return nil
	case "setpaused":
		caller, err := s.caller(step, s.admin)
		if err != nil {
			return err
		}
		return s.engine.SetPaused(caller, step.Paused)
	case "transferbadge":
		to, err := parseAddress(step.To)
		if err != nil {
			return err
		}
		s.accounts[to] = struct{}{}
		return s.badges.SafeTransferFrom(account, account, to, step.BadgeID, 1, nil)
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
}

func (s *simulation) caller(step Step, fallback common.Address) (common.Address, error) {
	if strings.TrimSpace(step.Caller) == "" {
		return fallback, nil
	}
	return parseAddress(step.Caller)
}

func (s *simulation) summary(mismatches int) Summary {
	out := Summary{
		TotalStaked: s.engine.TotalStaked().String(),
		RewardRate:  s.engine.RewardRate().String(),
		Balances:    make(map[string]string, len(s.accounts)),
		Earned:      make(map[string]string, len(s.accounts)),
		Events:      s.recorder.Events(),
		Mismatches:  mismatches,
	}
	for acct := range s.accounts {
		out.Balances[acct.Hex()] = s.engine.BalanceOf(acct).String()
		out.Earned[acct.Hex()] = s.engine.Earned(acct).String()
	}
	return out
}

// runScenario replays sc and writes one JSON line per step followed by the
// summary. Steps whose outcome differs from their expectation are counted as
// mismatches; the run itself only fails on malformed input.
func runScenario(cfg *config.Staking, sc *Scenario, out io.Writer, logger *slog.Logger) (Summary, error) {
	sim, err := newSimulation(cfg, logger)
	if err != nil {
		return Summary{}, err
	}
	if err := sim.seed(sc); err != nil {
		return Summary{}, err
	}

	enc := json.NewEncoder(out)
	mismatches := 0
	for _, step := range sc.Steps {
		id := uuid.NewString()
		err := sim.apply(step)
		outcome := stakeerr.Kind(err)
		if outcome == "" {
			outcome = "ok"
		}
		expect := strings.TrimSpace(step.Expect)
		if expect == "" {
			expect = "ok"
		}
		if !strings.EqualFold(expect, outcome) {
			mismatches++
			logger.Warn("scenario step outcome mismatch",
				slog.String("step", id),
				slog.String("op", step.Op),
				slog.String("expected", expect),
				slog.String("outcome", outcome))
		}
		result := StepResult{ID: id, At: sim.now, Op: step.Op, Outcome: outcome}
		if err != nil {
			result.Error = err.Error()
		}
		if err := enc.Encode(result); err != nil {
			return Summary{}, err
		}
	}
	summary := sim.summary(mismatches)
	if err := enc.Encode(summary); err != nil {
		return Summary{}, err
	}
	return summary, nil
}

func parseAmount(value string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(value), 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	return amount, nil
}

func parseAddress(value string) (common.Address, error) {
	trimmed := strings.TrimSpace(value)
	if !common.IsHexAddress(trimmed) {
		return common.Address{}, fmt.Errorf("invalid address %q", value)
	}
	return common.HexToAddress(trimmed), nil
}

func optionalAddress(value string) (common.Address, error) {
	if strings.TrimSpace(value) == "" {
		return common.Address{}, nil
	}
	return parseAddress(value)
}

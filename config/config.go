package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"memberstake/native/rewards"
)

// Staking describes one staking pool and the ledgers it is wired to.
type Staking struct {
	PoolAddress            string  `toml:"PoolAddress"`
	StakingAsset           string  `toml:"StakingAsset"`
	RewardAsset            string  `toml:"RewardAsset"`
	RewardsDurationSeconds uint64  `toml:"RewardsDurationSeconds"`
	Admin                  string  `toml:"Admin"`
	RewardDistributor      string  `toml:"RewardDistributor"`
	BadgeLedger            string  `toml:"BadgeLedger"`
	Paused                 bool    `toml:"Paused"`
	TiersFile              string  `toml:"TiersFile"`
	Logging                Logging `toml:"logging"`
}

// Logging selects the log level and an optional rotating log file.
type Logging struct {
	Level      string `toml:"Level"`
	Env        string `toml:"Env"`
	File       string `toml:"File"`
	MaxSizeMB  int    `toml:"MaxSizeMB"`
	MaxBackups int    `toml:"MaxBackups"`
	MaxAgeDays int    `toml:"MaxAgeDays"`
}

// SharedAsset reports whether stake and rewards are paid in the same asset.
func (s *Staking) SharedAsset() bool {
	return strings.EqualFold(strings.TrimSpace(s.StakingAsset), strings.TrimSpace(s.RewardAsset))
}

// Load loads the configuration from the given path. Unknown keys are rejected
// and a relative TiersFile is resolved against the configuration directory.
func Load(path string) (*Staking, error) {
	cfg := &Staking{}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return nil, fmt.Errorf("config file %s has unknown keys: %s", path, strings.Join(keys, ", "))
	}

	applyDefaults(cfg)
	if cfg.TiersFile != "" && !filepath.IsAbs(cfg.TiersFile) {
		cfg.TiersFile = filepath.Join(filepath.Dir(path), cfg.TiersFile)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Write persists cfg as TOML at path.
func Write(path string, cfg *Staking) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

func applyDefaults(cfg *Staking) {
	if cfg.RewardsDurationSeconds == 0 {
		cfg.RewardsDurationSeconds = rewards.DefaultRewardsDuration
	}
	cfg.StakingAsset = strings.ToUpper(strings.TrimSpace(cfg.StakingAsset))
	cfg.RewardAsset = strings.ToUpper(strings.TrimSpace(cfg.RewardAsset))
	if cfg.RewardAsset == "" {
		cfg.RewardAsset = cfg.StakingAsset
	}
	if strings.TrimSpace(cfg.Logging.Level) == "" {
		cfg.Logging.Level = "info"
	}
}

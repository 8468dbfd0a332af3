package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"memberstake/config"
	"memberstake/observability/logging"
)

const (
	simulateCommand = "simulate"
	checkCommand    = "check-config"
	defaultConfig   = "./memberstake.toml"
	serviceName     = "memberstake"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case simulateCommand:
		if err := runSimulate(os.Args[2:], os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case checkCommand:
		if err := runCheck(os.Args[2:], os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: memberstake <%s|%s> [flags]\n", simulateCommand, checkCommand)
}

func runSimulate(args []string, out io.Writer) error {
	fs := flag.NewFlagSet(simulateCommand, flag.ContinueOnError)
	configPath := fs.String("config", defaultConfig, "Path to the staking config file")
	scenarioPath := fs.String("scenario", "", "Path to the YAML scenario to replay")
	metricsOut := fs.String("metrics-out", "", "Write prometheus metrics to this textfile after the run")
	logFile := fs.String("log-file", "", "Write logs to a rotating file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *scenarioPath == "" {
		return fmt.Errorf("--scenario is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *logFile != "" {
		cfg.Logging.File = *logFile
	}
	logger, closer := logging.SetupWithFile(serviceName, cfg.Logging.Env, logging.ParseLevel(cfg.Logging.Level), logging.FileOptions{
		Path:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	defer closer.Close()

	sc, err := LoadScenario(*scenarioPath)
	if err != nil {
		return err
	}
	summary, err := runScenario(cfg, sc, out, logger)
	if err != nil {
		return err
	}
	if *metricsOut != "" {
		if err := prometheus.WriteToTextfile(*metricsOut, prometheus.DefaultGatherer); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	if summary.Mismatches > 0 {
		return fmt.Errorf("%d scenario steps did not match their expected outcome", summary.Mismatches)
	}
	return nil
}

func runCheck(args []string, out io.Writer) error {
	fs := flag.NewFlagSet(checkCommand, flag.ContinueOnError)
	configPath := fs.String("config", defaultConfig, "Path to the staking config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	tiers := 0
	if cfg.TiersFile != "" {
		table, err := config.LoadTiers(cfg.TiersFile, config.Address(cfg.BadgeLedger))
		if err != nil {
			return err
		}
		tiers = len(table)
	}
	fmt.Fprintf(out, "config %s ok: pool %s, %d tiers, rewards duration %ds\n",
		*configPath, config.Address(cfg.PoolAddress).Hex(), tiers, cfg.RewardsDurationSeconds)
	return nil
}

package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

const testConfig = `PoolAddress = "0x0000000000000000000000000000000000009001"
StakingAsset = "STK"
RewardAsset = "RWD"
RewardsDurationSeconds = 1000
Admin = "0x00000000000000000000000000000000000000ad"
RewardDistributor = "0x0000000000000000000000000000000000000d15"
BadgeLedger = "0x0000000000000000000000000000000000badbad"
TiersFile = "tiers.yaml"

[logging]
Level = "error"
`

const testTiers = `
- {badge_id: 1, cost: 1000}
- {badge_id: 2, cost: 5000}
`

const alice = "0x00000000000000000000000000000000000a11ce"
const bob = "0x0000000000000000000000000000000000000b0b"

const testScenario = `
start: 1000
rewards: "1000000"
funds:
  - {account: "` + alice + `", amount: "6000"}
steps:
  - {at: 1000, op: stake, account: "` + alice + `", amount: "6000"}
  - {at: 1000, op: notifyRewardAmount, amount: "1000000"}
  - {at: 1000, op: notifyRewardAmount, caller: "` + alice + `", amount: "1", expect: Unauthorized}
  - {at: 1500, op: transferBadge, account: "` + alice + `", to: "` + bob + `", badge_id: 2}
  - {at: 1500, op: unstake, account: "` + alice + `", amount: "2000", expect: InsufficientBalance}
  - {at: 2000, op: getReward, account: "` + alice + `"}
`

func checksum(addr string) string {
	return common.HexToAddress(addr).Hex()
}

func writeFixture(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestSimulateReplaysScenario(t *testing.T) {
	dir := t.TempDir()
	configPath := writeFixture(t, dir, "memberstake.toml", testConfig)
	writeFixture(t, dir, "tiers.yaml", testTiers)
	scenarioPath := writeFixture(t, dir, "scenario.yaml", testScenario)
	metricsPath := filepath.Join(dir, "metrics.prom")
	logPath := filepath.Join(dir, "memberstake.log")

	var out bytes.Buffer
	err := runSimulate([]string{
		"--config", configPath,
		"--scenario", scenarioPath,
		"--metrics-out", metricsPath,
		"--log-file", logPath,
	}, &out)
	require.NoError(t, err)

	var lines []string
	scanner := bufio.NewScanner(&out)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.Len(t, lines, 7)

	var first StepResult
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.Equal(t, "ok", first.Outcome)
	require.NotEmpty(t, first.ID)

	var rejected StepResult
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &rejected))
	require.Equal(t, "Unauthorized", rejected.Outcome)

	var summary Summary
	require.NoError(t, json.Unmarshal([]byte(lines[6]), &summary))
	require.Equal(t, "6000", summary.TotalStaked)
	require.Equal(t, "1000", summary.RewardRate)
	require.Equal(t, "1000", summary.Balances[checksum(alice)])
	require.Equal(t, "5000", summary.Balances[checksum(bob)])
	require.Zero(t, summary.Mismatches)
	require.Equal(t, "0", summary.Earned[checksum(alice)])

	metrics, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(metrics), "memberstake_operations_total"))
}

func TestSimulateReportsMismatches(t *testing.T) {
	dir := t.TempDir()
	configPath := writeFixture(t, dir, "memberstake.toml", testConfig)
	writeFixture(t, dir, "tiers.yaml", testTiers)
	scenarioPath := writeFixture(t, dir, "scenario.yaml", `
start: 1000
steps:
  - {op: stake, account: "`+alice+`", amount: "10"}
`)
	var out bytes.Buffer
	err := runSimulate([]string{"--config", configPath, "--scenario", scenarioPath}, &out)
	require.ErrorContains(t, err, "1 scenario steps")
}

func TestCheckConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := writeFixture(t, dir, "memberstake.toml", testConfig)
	writeFixture(t, dir, "tiers.yaml", testTiers)

	var out bytes.Buffer
	require.NoError(t, runCheck([]string{"--config", configPath}, &out))
	require.Contains(t, out.String(), "2 tiers")
}

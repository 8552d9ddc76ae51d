package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "launcher.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_DefaultsApplied(t *testing.T) {
	path := writeConfig(t, "private_key: test-key\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "mainnet", cfg.Network)
	assert.NotEmpty(t, cfg.RPCUrl)
	assert.NotEmpty(t, cfg.WSUrl)

	assert.Equal(t, DefaultMaxLaunchesPerHour, cfg.Launch.MaxPerHour)
	assert.Equal(t, DefaultDailyBudgetSOL, cfg.Launch.DailyBudgetSOL)
	assert.Equal(t, DefaultQueueStatePath, cfg.Launch.StatePath)
	assert.Equal(t, DefaultBuyAmountSOL, cfg.Trading.BuyAmountSOL)
	assert.False(t, cfg.Trading.SellGuardEnabled)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfig_ValuesOverrideDefaults(t *testing.T) {
	path := writeConfig(t, `
private_key: test-key
network: devnet
launch:
  max_per_hour: 3
  daily_budget_sol: 0.5
  hold_delay_sec: 90
trading:
  buy_amount_sol: 0.05
  slippage_percent: 5
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "devnet", cfg.Network)
	assert.Contains(t, cfg.RPCUrl, "devnet")
	assert.Equal(t, 3, cfg.Launch.MaxPerHour)
	assert.Equal(t, 0.5, cfg.Launch.DailyBudgetSOL)
	assert.Equal(t, 0.05, cfg.Trading.BuyAmountSOL)
	assert.Equal(t, 90*time.Second, cfg.HoldDelay())
}

func TestLoadConfig_RequiresCredentials(t *testing.T) {
	path := writeConfig(t, "network: mainnet\n")

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "private_key or mnemonic")
}

func TestLoadConfig_RejectsBadLimits(t *testing.T) {
	cases := map[string]string{
		"zero hourly limit":   "private_key: k\nlaunch:\n  max_per_hour: 0\n",
		"negative budget":     "private_key: k\nlaunch:\n  daily_budget_sol: -1\n",
		"slippage over 100":   "private_key: k\ntrading:\n  slippage_percent: 150\n",
		"negative buy amount": "private_key: k\ntrading:\n  buy_amount_sol: -0.5\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := &Config{}
	cfg.Advanced.ConfirmTimeoutSec = 45
	cfg.Advanced.AccountPollDelayMs = 250
	cfg.Launch.InterLaunchDelaySec = 120

	assert.Equal(t, 45*time.Second, cfg.ConfirmTimeout())
	assert.Equal(t, 250*time.Millisecond, cfg.AccountPollDelay())
	assert.Equal(t, 2*time.Minute, cfg.InterLaunchDelay())
}

func TestConvertSOLToLamports(t *testing.T) {
	assert.Equal(t, uint64(1_000_000_000), ConvertSOLToLamports(1))
	assert.Equal(t, uint64(10_000_000), ConvertSOLToLamports(0.01))
	assert.InDelta(t, 0.5, ConvertLamportsToSOL(500_000_000), 1e-12)
}

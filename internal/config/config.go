package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	// Network settings
	Network string `mapstructure:"network" yaml:"network"`
	RPCUrl  string `mapstructure:"rpc_url" yaml:"rpc_url"`
	WSUrl   string `mapstructure:"ws_url" yaml:"ws_url"`

	// Wallet settings (base58 private key, or a BIP39 mnemonic)
	PrivateKey string `mapstructure:"private_key" yaml:"private_key"`
	Mnemonic   string `mapstructure:"mnemonic" yaml:"mnemonic"`

	// Launch queue settings
	Launch LaunchConfig `mapstructure:"launch" yaml:"launch"`

	// Trading settings
	Trading TradingConfig `mapstructure:"trading" yaml:"trading"`

	// Logging settings
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Advanced settings
	Advanced AdvancedConfig `mapstructure:"advanced" yaml:"advanced"`
}

// LaunchConfig contains launch queue settings
type LaunchConfig struct {
	MaxPerHour          int     `mapstructure:"max_per_hour" yaml:"max_per_hour"`
	DailyBudgetSOL      float64 `mapstructure:"daily_budget_sol" yaml:"daily_budget_sol"`
	InterLaunchDelaySec int     `mapstructure:"inter_launch_delay_sec" yaml:"inter_launch_delay_sec"`
	HoldDelaySec        int     `mapstructure:"hold_delay_sec" yaml:"hold_delay_sec"`
	StatePath           string  `mapstructure:"state_path" yaml:"state_path"`
	RequestsPath        string  `mapstructure:"requests_path" yaml:"requests_path"`
	AuditPath           string  `mapstructure:"audit_path" yaml:"audit_path"`
}

// TradingConfig contains trading-related settings
type TradingConfig struct {
	BuyAmountSOL    float64 `mapstructure:"buy_amount_sol" yaml:"buy_amount_sol"`
	SlippagePercent float64 `mapstructure:"slippage_percent" yaml:"slippage_percent"`
	PriorityFee     uint64  `mapstructure:"priority_fee" yaml:"priority_fee"`

	// Minimum-SOL-out protection on disposal. Upstream sells with no slippage
	// bound; this guard is off by default to match that behavior.
	SellGuardEnabled bool    `mapstructure:"sell_guard_enabled" yaml:"sell_guard_enabled"`
	SellGuardPercent float64 `mapstructure:"sell_guard_percent" yaml:"sell_guard_percent"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	LogToFile   bool   `mapstructure:"log_to_file" yaml:"log_to_file"`
	LogFilePath string `mapstructure:"log_file_path" yaml:"log_file_path"`
}

// AdvancedConfig contains advanced settings
type AdvancedConfig struct {
	ConfirmTimeoutSec   int `mapstructure:"confirm_timeout_sec" yaml:"confirm_timeout_sec"`
	AccountPollRetries  int `mapstructure:"account_poll_retries" yaml:"account_poll_retries"`
	AccountPollDelayMs  int `mapstructure:"account_poll_delay_ms" yaml:"account_poll_delay_ms"`
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("launcher")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/pump-fun-launcher/")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("PUMPBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, continue with defaults and env vars
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.RPCUrl == "" {
		config.RPCUrl = GetRPCEndpoint(config.Network)
	}
	if config.WSUrl == "" {
		config.WSUrl = GetWSEndpoint(config.Network)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("network", "mainnet")

	v.SetDefault("launch.max_per_hour", DefaultMaxLaunchesPerHour)
	v.SetDefault("launch.daily_budget_sol", DefaultDailyBudgetSOL)
	v.SetDefault("launch.inter_launch_delay_sec", DefaultInterLaunchDelaySec)
	v.SetDefault("launch.hold_delay_sec", DefaultHoldDelaySec)
	v.SetDefault("launch.state_path", DefaultQueueStatePath)
	v.SetDefault("launch.requests_path", DefaultLaunchRequestsPath)
	v.SetDefault("launch.audit_path", DefaultOutcomeAuditPath)

	v.SetDefault("trading.buy_amount_sol", DefaultBuyAmountSOL)
	v.SetDefault("trading.slippage_percent", DefaultSlippagePercent)
	v.SetDefault("trading.priority_fee", 0)
	v.SetDefault("trading.sell_guard_enabled", false)
	v.SetDefault("trading.sell_guard_percent", 20.0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("advanced.confirm_timeout_sec", DefaultConfirmTimeoutSec)
	v.SetDefault("advanced.account_poll_retries", DefaultAccountPollRetries)
	v.SetDefault("advanced.account_poll_delay_ms", DefaultAccountPollDelayMs)
}

// validateConfig validates the loaded configuration, failing fast on values
// the queue or pipeline cannot safely run with.
func validateConfig(config *Config) error {
	if config.PrivateKey == "" && config.Mnemonic == "" {
		return fmt.Errorf("either private_key or mnemonic is required")
	}

	if config.Launch.MaxPerHour <= 0 {
		return fmt.Errorf("launch.max_per_hour must be positive, got %d", config.Launch.MaxPerHour)
	}
	if config.Launch.DailyBudgetSOL <= 0 {
		return fmt.Errorf("launch.daily_budget_sol must be positive, got %f", config.Launch.DailyBudgetSOL)
	}
	if config.Launch.InterLaunchDelaySec < 0 {
		return fmt.Errorf("launch.inter_launch_delay_sec must be non-negative, got %d", config.Launch.InterLaunchDelaySec)
	}
	if config.Launch.StatePath == "" {
		return fmt.Errorf("launch.state_path is required")
	}

	if config.Trading.BuyAmountSOL < 0 {
		return fmt.Errorf("trading.buy_amount_sol must be non-negative, got %f", config.Trading.BuyAmountSOL)
	}
	if config.Trading.SlippagePercent < 0 || config.Trading.SlippagePercent > 100 {
		return fmt.Errorf("trading.slippage_percent must be within [0,100], got %f", config.Trading.SlippagePercent)
	}
	if config.Trading.SellGuardPercent < 0 || config.Trading.SellGuardPercent > 100 {
		return fmt.Errorf("trading.sell_guard_percent must be within [0,100], got %f", config.Trading.SellGuardPercent)
	}

	if config.Advanced.ConfirmTimeoutSec <= 0 {
		return fmt.Errorf("advanced.confirm_timeout_sec must be positive, got %d", config.Advanced.ConfirmTimeoutSec)
	}
	if config.Advanced.AccountPollRetries <= 0 {
		return fmt.Errorf("advanced.account_poll_retries must be positive, got %d", config.Advanced.AccountPollRetries)
	}

	return nil
}

// ConfirmTimeout returns the transaction confirmation timeout as a duration
func (c *Config) ConfirmTimeout() time.Duration {
	return time.Duration(c.Advanced.ConfirmTimeoutSec) * time.Second
}

// AccountPollDelay returns the account visibility poll delay as a duration
func (c *Config) AccountPollDelay() time.Duration {
	return time.Duration(c.Advanced.AccountPollDelayMs) * time.Millisecond
}

// InterLaunchDelay returns the pause between consecutive launches
func (c *Config) InterLaunchDelay() time.Duration {
	return time.Duration(c.Launch.InterLaunchDelaySec) * time.Second
}

// HoldDelay returns the cool-down between the initial buy and the sell
func (c *Config) HoldDelay() time.Duration {
	return time.Duration(c.Launch.HoldDelaySec) * time.Second
}

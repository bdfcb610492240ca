// Package config provides configuration management for the trader.
package config

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	yaml "gopkg.in/yaml.v3"
)

// Defaults applied by normalize when the corresponding field is unset.
const (
	defaultStopLossPct           = 0.05
	defaultTakeProfitPct         = 0.15
	defaultTrailingStopPct       = 0.03
	defaultTrailingActivationPct = 0.10
	defaultCommissionPerTrade    = 1.0
	defaultSlippagePct           = 0.001
	defaultMinTradeValue         = 100.0
	defaultSignalCapMultiplier   = 2.0
)

const dateLayout = "2006-01-02"

// Config is the complete application configuration.
type Config struct {
	Environment EnvironmentConfig `yaml:"environment"`
	Instruments InstrumentsConfig `yaml:"instruments"`
	Signals     SignalsConfig     `yaml:"signals"`
	Sizing      SizingConfig      `yaml:"sizing"`
	Risk        RiskConfig        `yaml:"risk"`
	Costs       CostsConfig       `yaml:"costs"`
	Backtest    BacktestConfig    `yaml:"backtest"`
	Sources     SourcesConfig     `yaml:"sources"`
	Storage     StorageConfig     `yaml:"storage"`
	Dashboard   DashboardConfig   `yaml:"dashboard"`
	Schedule    ScheduleConfig    `yaml:"schedule"`
}

// EnvironmentConfig defines the run environment.
type EnvironmentConfig struct {
	Mode     string `yaml:"mode"`      // paper | live
	LogLevel string `yaml:"log_level"` // debug | info | warn | error
}

// InstrumentsConfig names the mutually exclusive instrument pair.
type InstrumentsConfig struct {
	Symbol        string `yaml:"symbol"`         // long natural gas, e.g. BOIL
	InverseSymbol string `yaml:"inverse_symbol"` // inverse, e.g. KOLD
}

// SignalsConfig defines the composite-signal formula parameters.
type SignalsConfig struct {
	TemperatureWeight float64 `yaml:"temperature_weight"`
	InventoryWeight   float64 `yaml:"inventory_weight"`
	StormWeight       float64 `yaml:"storm_weight"`
	BuyThreshold      float64 `yaml:"buy_threshold"`
	SellThreshold     float64 `yaml:"sell_threshold"`
	ConfirmationDays  int     `yaml:"confirmation_days"`
}

// SizingConfig defines position-sizing bounds.
type SizingConfig struct {
	InitialCapital      float64 `yaml:"initial_capital"`
	BasePositionSize    float64 `yaml:"base_position_size"`
	MinPositionSize     float64 `yaml:"min_position_size"`
	MaxPositionSize     float64 `yaml:"max_position_size"`
	MinTradeValue       float64 `yaml:"min_trade_value"`
	SignalCapMultiplier float64 `yaml:"signal_cap_multiplier"`
}

// RiskConfig defines the stop-order percentages.
type RiskConfig struct {
	StopLossPct           float64 `yaml:"stop_loss_pct"`
	TakeProfitPct         float64 `yaml:"take_profit_pct"`
	TrailingStopPct       float64 `yaml:"trailing_stop_pct"`
	TrailingActivationPct float64 `yaml:"trailing_activation_pct"`
}

// CostsConfig defines execution-cost modeling.
type CostsConfig struct {
	CommissionPerTrade float64 `yaml:"commission_per_trade"`
	SlippagePct        float64 `yaml:"slippage_pct"`
}

// BacktestConfig defines the simulated date range and offline data files.
type BacktestConfig struct {
	StartDate string       `yaml:"start_date"` // YYYY-MM-DD
	EndDate   string       `yaml:"end_date"`   // YYYY-MM-DD
	DataDir   string       `yaml:"data_dir"`   // CSV directory for offline runs
	Files     BacktestData `yaml:"files"`
}

// BacktestData names the per-series CSV files inside DataDir.
type BacktestData struct {
	PrimaryPrices string `yaml:"primary_prices"`
	InversePrices string `yaml:"inverse_prices"`
	HDD           string `yaml:"hdd"`
	Inventory     string `yaml:"inventory"`
	Storms        string `yaml:"storms"`
}

// SourcesConfig defines the external data APIs.
type SourcesConfig struct {
	EIAAPIKey    string   `yaml:"eia_api_key"`
	EIAURL       string   `yaml:"eia_url"`
	WeatherURL   string   `yaml:"weather_url"`
	NOAAURL      string   `yaml:"noaa_url"`
	YahooURL     string   `yaml:"yahoo_url"`
	Regions      []string `yaml:"regions"` // "lat,lon" pairs
	HTTPTimeout  string   `yaml:"http_timeout"`
	MaxRetries   int      `yaml:"max_retries"`
	RetryBackoff string   `yaml:"retry_backoff"`
}

// StorageConfig defines the results database location.
type StorageConfig struct {
	Path string `yaml:"path"` // SQLite file; empty disables recording
}

// DashboardConfig defines the read-only dashboard server.
type DashboardConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Port      int    `yaml:"port"`
	AuthToken string `yaml:"auth_token"`
}

// ScheduleConfig defines the live-loop schedule.
type ScheduleConfig struct {
	Cron     string `yaml:"cron"` // robfig/cron expression
	Timezone string `yaml:"timezone"`
}

// Load reads config.env (if present), then reads and parses the YAML
// configuration file, expanding ${VAR} references from the environment.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	// API keys live in config.env, never in the YAML file.
	_ = godotenv.Load("config.env")

	data, err := os.ReadFile(configPath) // #nosec G304 -- configPath is a user-provided config file path
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var config Config
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	config.normalize()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// normalize fills unset fields with the documented defaults.
func (c *Config) normalize() {
	if c.Environment.Mode == "" {
		c.Environment.Mode = "paper"
	}
	if c.Environment.LogLevel == "" {
		c.Environment.LogLevel = "info"
	}
	if c.Risk.StopLossPct == 0 {
		c.Risk.StopLossPct = defaultStopLossPct
	}
	if c.Risk.TakeProfitPct == 0 {
		c.Risk.TakeProfitPct = defaultTakeProfitPct
	}
	if c.Risk.TrailingStopPct == 0 {
		c.Risk.TrailingStopPct = defaultTrailingStopPct
	}
	if c.Risk.TrailingActivationPct == 0 {
		c.Risk.TrailingActivationPct = defaultTrailingActivationPct
	}
	if c.Costs.CommissionPerTrade == 0 {
		c.Costs.CommissionPerTrade = defaultCommissionPerTrade
	}
	if c.Costs.SlippagePct == 0 {
		c.Costs.SlippagePct = defaultSlippagePct
	}
	if c.Sizing.MinTradeValue == 0 {
		c.Sizing.MinTradeValue = defaultMinTradeValue
	}
	if c.Sizing.SignalCapMultiplier == 0 {
		c.Sizing.SignalCapMultiplier = defaultSignalCapMultiplier
	}
	if c.Signals.ConfirmationDays == 0 {
		c.Signals.ConfirmationDays = 1
	}
	if c.Sources.HTTPTimeout == "" {
		c.Sources.HTTPTimeout = "30s"
	}
	if c.Sources.RetryBackoff == "" {
		c.Sources.RetryBackoff = "1s"
	}
	if c.Sources.MaxRetries == 0 {
		c.Sources.MaxRetries = 3
	}
}

// Validate checks that all configuration values are valid and
// consistent.
func (c *Config) Validate() error {
	if c.Environment.Mode != "paper" && c.Environment.Mode != "live" {
		return fmt.Errorf("environment.mode must be 'paper' or 'live'")
	}

	if c.Instruments.Symbol == "" {
		return fmt.Errorf("instruments.symbol is required")
	}
	if c.Instruments.InverseSymbol == "" {
		return fmt.Errorf("instruments.inverse_symbol is required")
	}
	if c.Instruments.Symbol == c.Instruments.InverseSymbol {
		return fmt.Errorf("instruments.symbol and instruments.inverse_symbol must differ")
	}

	weightSum := c.Signals.TemperatureWeight + c.Signals.InventoryWeight + c.Signals.StormWeight
	if math.Abs(weightSum-1.0) > 0.01 {
		return fmt.Errorf("signals weights must sum to 1.0 (got %.3f)", weightSum)
	}
	if c.Signals.BuyThreshold <= 0 {
		return fmt.Errorf("signals.buy_threshold must be > 0")
	}
	if c.Signals.SellThreshold >= 0 {
		return fmt.Errorf("signals.sell_threshold must be < 0")
	}
	if c.Signals.BuyThreshold <= c.Signals.SellThreshold {
		return fmt.Errorf("signals.buy_threshold must be > signals.sell_threshold")
	}
	if c.Signals.ConfirmationDays < 1 {
		return fmt.Errorf("signals.confirmation_days must be >= 1")
	}

	if c.Sizing.InitialCapital <= 0 {
		return fmt.Errorf("sizing.initial_capital must be > 0")
	}
	if c.Sizing.BasePositionSize <= 0 {
		return fmt.Errorf("sizing.base_position_size must be > 0")
	}
	if c.Sizing.MinPositionSize < 0 {
		return fmt.Errorf("sizing.min_position_size must be >= 0")
	}
	if c.Sizing.MaxPositionSize < c.Sizing.BasePositionSize {
		return fmt.Errorf("sizing.max_position_size (%.0f) must be >= sizing.base_position_size (%.0f)",
			c.Sizing.MaxPositionSize, c.Sizing.BasePositionSize)
	}
	if c.Sizing.MinPositionSize > c.Sizing.MaxPositionSize {
		return fmt.Errorf("sizing.min_position_size must be <= sizing.max_position_size")
	}
	if c.Sizing.SignalCapMultiplier < 1 {
		return fmt.Errorf("sizing.signal_cap_multiplier must be >= 1")
	}

	for name, pct := range map[string]float64{
		"risk.stop_loss_pct":           c.Risk.StopLossPct,
		"risk.take_profit_pct":         c.Risk.TakeProfitPct,
		"risk.trailing_stop_pct":       c.Risk.TrailingStopPct,
		"risk.trailing_activation_pct": c.Risk.TrailingActivationPct,
	} {
		if pct <= 0 || pct >= 1 {
			return fmt.Errorf("%s must be in (0,1)", name)
		}
	}

	if c.Costs.CommissionPerTrade < 0 {
		return fmt.Errorf("costs.commission_per_trade must be >= 0")
	}
	if c.Costs.SlippagePct < 0 || c.Costs.SlippagePct >= 0.1 {
		return fmt.Errorf("costs.slippage_pct must be in [0,0.1)")
	}

	if c.Backtest.StartDate != "" || c.Backtest.EndDate != "" {
		start, err := time.Parse(dateLayout, c.Backtest.StartDate)
		if err != nil {
			return fmt.Errorf("backtest.start_date invalid: %w", err)
		}
		end, err := time.Parse(dateLayout, c.Backtest.EndDate)
		if err != nil {
			return fmt.Errorf("backtest.end_date invalid: %w", err)
		}
		if !start.Before(end) {
			return fmt.Errorf("backtest.start_date must be before backtest.end_date")
		}
	}

	if _, err := time.ParseDuration(c.Sources.HTTPTimeout); err != nil {
		return fmt.Errorf("sources.http_timeout invalid: %w", err)
	}
	if _, err := time.ParseDuration(c.Sources.RetryBackoff); err != nil {
		return fmt.Errorf("sources.retry_backoff invalid: %w", err)
	}

	if c.Dashboard.Enabled && (c.Dashboard.Port <= 0 || c.Dashboard.Port > 65535) {
		return fmt.Errorf("dashboard.port must be in (0,65535]")
	}

	if c.Schedule.Timezone != "" {
		if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
			return fmt.Errorf("schedule.timezone invalid: %w", err)
		}
	}

	return nil
}

// IsPaperTrading reports whether the trader runs in paper mode.
func (c *Config) IsPaperTrading() bool {
	return c.Environment.Mode == "paper"
}

// BacktestRange returns the parsed simulation date range.
func (c *Config) BacktestRange() (start, end time.Time, err error) {
	start, err = time.Parse(dateLayout, c.Backtest.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("backtest.start_date: %w", err)
	}
	end, err = time.Parse(dateLayout, c.Backtest.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("backtest.end_date: %w", err)
	}
	return start, end, nil
}

// HTTPTimeout returns the configured source timeout.
func (c *Config) HTTPTimeout() time.Duration {
	d, err := time.ParseDuration(c.Sources.HTTPTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// RetryBackoff returns the configured initial retry backoff.
func (c *Config) RetryBackoff() time.Duration {
	d, err := time.ParseDuration(c.Sources.RetryBackoff)
	if err != nil {
		return time.Second
	}
	return d
}

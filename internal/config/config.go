// Package config provides configuration management for the spread bot.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/pgannon/spreadbot/internal/models"
)

// Defaults applied when optional values are unset.
const (
	defaultGreeksTimeout = "2s"
	defaultGreeksPoll    = "50ms"
	defaultTick          = 0.01
	defaultTimezone      = "America/New_York"
)

// Config represents the complete application configuration.
type Config struct {
	Environment EnvironmentConfig `yaml:"environment"`
	Broker      BrokerConfig      `yaml:"broker"`
	Schedule    ScheduleConfig    `yaml:"schedule"`
	Strategy    StrategyConfig    `yaml:"strategy"`
	Execution   ExecutionConfig   `yaml:"execution"`
	Dashboard   DashboardConfig   `yaml:"dashboard"`
}

// EnvironmentConfig defines the environment settings.
type EnvironmentConfig struct {
	Mode     string `yaml:"mode"`      // paper | live
	LogLevel string `yaml:"log_level"` // debug | info | warn | error
}

// BrokerConfig defines the venue connection settings.
type BrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	ClientID int    `yaml:"client_id"`
	Account  string `yaml:"account"`
	ReadOnly bool   `yaml:"read_only"`
}

// ScheduleConfig defines the trading task cadence and session handling.
type ScheduleConfig struct {
	Timezone          string `yaml:"timezone"`
	CheckInterval     string `yaml:"check_interval"`
	PreferLiquidHours bool   `yaml:"prefer_liquid_hours"`
}

// InstrumentConfig identifies the underlying contract.
type InstrumentConfig struct {
	Symbol   string `yaml:"symbol"`
	Exchange string `yaml:"exchange"`
	Currency string `yaml:"currency"`
}

// OptionClassConfig identifies the option class the legs trade in.
type OptionClassConfig struct {
	Symbol       string `yaml:"symbol"`
	Exchange     string `yaml:"exchange"`
	Currency     string `yaml:"currency"`
	TradingClass string `yaml:"trading_class"`
}

// VerticalConfig defines the strike selection parameters.
type VerticalConfig struct {
	TargetDelta float64 `yaml:"target_delta"`
	Width       float64 `yaml:"width"`
	ShortDTE    int     `yaml:"short_dte"`
	LongDTE     int     `yaml:"long_dte"`
	Increment   float64 `yaml:"increment"`
	StrikesDown int     `yaml:"strikes_down"`
}

// FilterConfig defines the optional entry filters.
type FilterConfig struct {
	MovingAverage MAFilterConfig     `yaml:"moving_average"`
	MoveUp        MoveUpFilterConfig `yaml:"move_up"`
}

// MAFilterConfig configures the close-above-moving-average filter.
type MAFilterConfig struct {
	Enabled bool   `yaml:"enabled"`
	Type    string `yaml:"type"` // sma | ema | wma
	Length  int    `yaml:"length"`
	BarSize string `yaml:"bar_size"`
}

// MoveUpFilterConfig configures the move-up-from-open filter.
type MoveUpFilterConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Threshold float64 `yaml:"threshold"`
	BarSize   string  `yaml:"bar_size"`
}

// StrategyConfig defines the spread strategy parameters.
type StrategyConfig struct {
	Underlying  InstrumentConfig  `yaml:"underlying"`
	OptionClass OptionClassConfig `yaml:"option_class"`
	Right       string            `yaml:"right"` // put | call
	Kind        string            `yaml:"kind"`  // credit | debit
	Vertical    VerticalConfig    `yaml:"vertical"`
	Quantity    int               `yaml:"quantity"`
	Filters     FilterConfig      `yaml:"filters"`
}

// ExecutionConfig defines the fill lifecycle parameters.
type ExecutionConfig struct {
	Deadline      string            `yaml:"deadline"`
	GreeksTimeout string            `yaml:"greeks_timeout"`
	GreeksPoll    string            `yaml:"greeks_poll"`
	Tick          float64           `yaml:"tick"`
	Progression   ProgressionConfig `yaml:"progression"`
}

// ProgressionConfig defines the fill progression policy.
type ProgressionConfig struct {
	Attempts   int     `yaml:"attempts"`
	Wait       string  `yaml:"wait"`
	Adjustment float64 `yaml:"adjustment"`
}

// DashboardConfig defines the status HTTP server settings.
type DashboardConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Port      int    `yaml:"port"`
	AuthToken string `yaml:"auth_token"`
}

// Load reads and parses the configuration file from the specified path.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- configPath is a user-provided config file path
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var config Config
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Schedule.Timezone == "" {
		c.Schedule.Timezone = defaultTimezone
	}
	if c.Execution.GreeksTimeout == "" {
		c.Execution.GreeksTimeout = defaultGreeksTimeout
	}
	if c.Execution.GreeksPoll == "" {
		c.Execution.GreeksPoll = defaultGreeksPoll
	}
	if c.Execution.Tick == 0 {
		c.Execution.Tick = defaultTick
	}
	if c.Strategy.Quantity == 0 {
		c.Strategy.Quantity = 1
	}
}

// Validate checks that all configuration values are valid and consistent.
func (c *Config) Validate() error {
	if c.Environment.Mode != "paper" && c.Environment.Mode != "live" {
		return fmt.Errorf("environment.mode must be 'paper' or 'live'")
	}

	if c.Strategy.Underlying.Symbol == "" {
		return fmt.Errorf("strategy.underlying.symbol is required")
	}
	if c.Strategy.OptionClass.Symbol == "" {
		return fmt.Errorf("strategy.option_class.symbol is required")
	}
	if c.Strategy.Right != "put" && c.Strategy.Right != "call" {
		return fmt.Errorf("strategy.right must be 'put' or 'call'")
	}
	if c.Strategy.Kind != "credit" && c.Strategy.Kind != "debit" {
		return fmt.Errorf("strategy.kind must be 'credit' or 'debit'")
	}
	if c.Strategy.Quantity <= 0 {
		return fmt.Errorf("strategy.quantity must be > 0")
	}
	if err := c.VerticalSpec().Validate(); err != nil {
		return fmt.Errorf("strategy.vertical: %w", err)
	}

	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("schedule.timezone invalid: %w", err)
	}
	if _, err := time.ParseDuration(c.Schedule.CheckInterval); err != nil {
		return fmt.Errorf("schedule.check_interval invalid: %w", err)
	}

	if _, err := time.ParseDuration(c.Execution.Deadline); err != nil {
		return fmt.Errorf("execution.deadline invalid: %w", err)
	}
	if _, err := time.ParseDuration(c.Execution.GreeksTimeout); err != nil {
		return fmt.Errorf("execution.greeks_timeout invalid: %w", err)
	}
	if _, err := time.ParseDuration(c.Execution.GreeksPoll); err != nil {
		return fmt.Errorf("execution.greeks_poll invalid: %w", err)
	}
	if c.Execution.Tick <= 0 {
		return fmt.Errorf("execution.tick must be > 0")
	}
	if c.Execution.Progression.Attempts > 0 {
		if _, err := time.ParseDuration(c.Execution.Progression.Wait); err != nil {
			return fmt.Errorf("execution.progression.wait invalid: %w", err)
		}
	}
	if err := c.Progression().Validate(); err != nil {
		return fmt.Errorf("execution.progression: %w", err)
	}

	if c.Dashboard.Enabled && (c.Dashboard.Port <= 0 || c.Dashboard.Port > 65535) {
		return fmt.Errorf("dashboard.port must be a valid TCP port")
	}

	return nil
}

// IsPaperTrading returns true if the bot is configured for paper trading.
func (c *Config) IsPaperTrading() bool {
	return c.Environment.Mode == "paper"
}

// Location returns the configured timezone, falling back to Eastern time.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		// Fallback for minimal containers
		return time.FixedZone("ET", -5*60*60)
	}
	return loc
}

// CheckInterval returns the configured task interval duration.
func (c *Config) CheckInterval() time.Duration {
	d, err := time.ParseDuration(c.Schedule.CheckInterval)
	if err != nil {
		return 15 * time.Minute // default
	}
	return d
}

// Right returns the configured option right.
func (c *Config) Right() models.Right {
	if c.Strategy.Right == "call" {
		return models.RightCall
	}
	return models.RightPut
}

// Kind returns the configured spread kind.
func (c *Config) Kind() models.SpreadKind {
	if c.Strategy.Kind == "debit" {
		return models.SpreadDebit
	}
	return models.SpreadCredit
}

// VerticalSpec returns the strike selection parameters as a model value.
func (c *Config) VerticalSpec() models.VerticalSpec {
	return models.VerticalSpec{
		TargetDelta: c.Strategy.Vertical.TargetDelta,
		Width:       c.Strategy.Vertical.Width,
		ShortDTE:    c.Strategy.Vertical.ShortDTE,
		LongDTE:     c.Strategy.Vertical.LongDTE,
		Increment:   c.Strategy.Vertical.Increment,
		StrikesDown: c.Strategy.Vertical.StrikesDown,
	}
}

// Progression returns the fill progression policy. Attempts of zero means
// fire-and-forget placement.
func (c *Config) Progression() models.FillProgression {
	wait, _ := time.ParseDuration(c.Execution.Progression.Wait)
	return models.FillProgression{
		Attempts:   c.Execution.Progression.Attempts,
		Wait:       wait,
		Adjustment: c.Execution.Progression.Adjustment,
	}
}

// Deadline returns the execution loop deadline duration.
func (c *Config) Deadline() time.Duration {
	d, _ := time.ParseDuration(c.Execution.Deadline)
	return d
}

// GreeksTimeout returns the greeks polling window.
func (c *Config) GreeksTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Execution.GreeksTimeout)
	return d
}

// GreeksPoll returns the greeks polling interval.
func (c *Config) GreeksPoll() time.Duration {
	d, _ := time.ParseDuration(c.Execution.GreeksPoll)
	return d
}

// Underlying returns the configured underlying instrument.
func (c *Config) Underlying() *models.Instrument {
	return models.NewStock(c.Strategy.Underlying.Symbol, c.Strategy.Underlying.Exchange,
		c.Strategy.Underlying.Currency)
}

// OptionClass returns the configured option class.
func (c *Config) OptionClass() models.OptionClass {
	return models.OptionClass{
		Symbol:       c.Strategy.OptionClass.Symbol,
		Exchange:     c.Strategy.OptionClass.Exchange,
		Currency:     c.Strategy.OptionClass.Currency,
		TradingClass: c.Strategy.OptionClass.TradingClass,
	}
}

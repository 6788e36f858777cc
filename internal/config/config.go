// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Browser() BrowserConfig
	Planner() PlannerConfig
	Loop() LoopConfig
	Extractor() ExtractorConfig

	// Browser Setters
	SetBrowserHeadless(bool)
	SetBrowserNavigationTimeout(d time.Duration)

	// Planner Setters
	SetPlannerProvider(p LLMProvider)
	SetPlannerFastModel(model string)
	SetPlannerPowerfulModel(model string)

	// Loop Setters
	SetLoopRetryLimit(int)
	SetLoopFailureBudget(int)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	BrowserCfg   BrowserConfig   `mapstructure:"browser" yaml:"browser"`
	PlannerCfg   PlannerConfig   `mapstructure:"planner" yaml:"planner"`
	LoopCfg      LoopConfig      `mapstructure:"loop" yaml:"loop"`
	ExtractorCfg ExtractorConfig `mapstructure:"extractor" yaml:"extractor"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig       { return c.LoggerCfg }
func (c *Config) Browser() BrowserConfig     { return c.BrowserCfg }
func (c *Config) Planner() PlannerConfig     { return c.PlannerCfg }
func (c *Config) Loop() LoopConfig           { return c.LoopCfg }
func (c *Config) Extractor() ExtractorConfig { return c.ExtractorCfg }

// --- Interface Method Implementations (Setters) ---

// Browser Setters
func (c *Config) SetBrowserHeadless(b bool) { c.BrowserCfg.Headless = b }
func (c *Config) SetBrowserNavigationTimeout(d time.Duration) {
	c.BrowserCfg.NavigationTimeout = d
}

// Planner Setters
func (c *Config) SetPlannerProvider(p LLMProvider)     { c.PlannerCfg.Provider = p }
func (c *Config) SetPlannerFastModel(model string)     { c.PlannerCfg.FastModel = model }
func (c *Config) SetPlannerPowerfulModel(model string) { c.PlannerCfg.PowerfulModel = model }

// Loop Setters
func (c *Config) SetLoopRetryLimit(n int)    { c.LoopCfg.RetryLimit = n }
func (c *Config) SetLoopFailureBudget(n int) { c.LoopCfg.FailureBudget = n }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the headless browser session.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	IgnoreTLSErrors   bool          `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	Debug             bool          `mapstructure:"debug" yaml:"debug"`
	Args              []string      `mapstructure:"args" yaml:"args"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	PostLoadWait      time.Duration `mapstructure:"post_load_wait" yaml:"post_load_wait"`
}

// LLMProvider defines the supported LLM providers.
type LLMProvider string

const (
	ProviderGemini    LLMProvider = "gemini"
	ProviderOpenAI    LLMProvider = "openai"
	ProviderAnthropic LLMProvider = "anthropic"
)

// PlannerConfig configures the oracle that turns page snapshots into actions.
type PlannerConfig struct {
	Provider      LLMProvider   `mapstructure:"provider" yaml:"provider"`
	FastModel     string        `mapstructure:"fast_model" yaml:"fast_model"`
	PowerfulModel string        `mapstructure:"powerful_model" yaml:"powerful_model"`
	APIKey        string        `mapstructure:"api_key" yaml:"-"`
	Endpoint      string        `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout    time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature   float32       `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens     int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	// RateInterval is the minimum spacing between consecutive oracle calls.
	RateInterval time.Duration `mapstructure:"rate_interval" yaml:"rate_interval"`
	// HistoryDepth bounds how many prior exchanges the planner keeps.
	HistoryDepth int `mapstructure:"history_depth" yaml:"history_depth"`
}

// LoopConfig tunes the plan/execute/verify state machine.
type LoopConfig struct {
	RetryLimit      int           `mapstructure:"retry_limit" yaml:"retry_limit"`
	RetryDelay      time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
	FailureBudget   int           `mapstructure:"failure_budget" yaml:"failure_budget"`
	SettleClick     time.Duration `mapstructure:"settle_click" yaml:"settle_click"`
	SettleSelect    time.Duration `mapstructure:"settle_select" yaml:"settle_select"`
	SettleType      time.Duration `mapstructure:"settle_type" yaml:"settle_type"`
	// MaxNoopClicks aborts a task after this many consecutive clicks with no
	// observable effect. Zero disables the escalation.
	MaxNoopClicks int `mapstructure:"max_noop_clicks" yaml:"max_noop_clicks"`
}

// ExtractorConfig tunes element snapshotting.
type ExtractorConfig struct {
	CacheEnabled bool `mapstructure:"cache_enabled" yaml:"cache_enabled"`
	// MaxElements caps how many descriptors one snapshot may carry.
	MaxElements int `mapstructure:"max_elements" yaml:"max_elements"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "voxweb")
	v.SetDefault("logger.log_file", "voxweb.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.debug", false)
	v.SetDefault("browser.navigation_timeout", "90s")
	v.SetDefault("browser.post_load_wait", "2s")

	// -- Planner --
	v.SetDefault("planner.provider", "gemini")
	v.SetDefault("planner.fast_model", "gemini-2.5-flash")
	v.SetDefault("planner.powerful_model", "gemini-2.5-pro")
	v.SetDefault("planner.api_timeout", "30s")
	v.SetDefault("planner.temperature", 0.2)
	v.SetDefault("planner.max_tokens", 2048)
	v.SetDefault("planner.rate_interval", "250ms")
	v.SetDefault("planner.history_depth", 8)

	// -- Loop --
	v.SetDefault("loop.retry_limit", 2)
	v.SetDefault("loop.retry_delay", "500ms")
	v.SetDefault("loop.failure_budget", 2)
	v.SetDefault("loop.settle_click", "1500ms")
	v.SetDefault("loop.settle_select", "800ms")
	v.SetDefault("loop.settle_type", "300ms")
	v.SetDefault("loop.max_noop_clicks", 0)

	// -- Extractor --
	v.SetDefault("extractor.cache_enabled", true)
	v.SetDefault("extractor.max_elements", 200)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Bind environment variables for sensitive data
	v.BindEnv("planner.api_key", "VOXWEB_PLANNER_API_KEY")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Manually load the key if Unmarshal didn't pick it up
	if cfg.PlannerCfg.APIKey == "" {
		cfg.PlannerCfg.APIKey = os.Getenv("VOXWEB_PLANNER_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.PlannerCfg.Validate(); err != nil {
		return fmt.Errorf("planner configuration invalid: %w", err)
	}
	if err := c.LoopCfg.Validate(); err != nil {
		return fmt.Errorf("loop configuration invalid: %w", err)
	}
	if c.BrowserCfg.NavigationTimeout <= 0 {
		return fmt.Errorf("browser.navigation_timeout must be a positive duration")
	}
	if c.ExtractorCfg.MaxElements <= 0 {
		return fmt.Errorf("extractor.max_elements must be a positive integer")
	}
	return nil
}

// Validate checks the planner settings.
func (p *PlannerConfig) Validate() error {
	switch p.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("unsupported provider %q", p.Provider)
	}
	if p.FastModel == "" || p.PowerfulModel == "" {
		return fmt.Errorf("fast_model and powerful_model are required")
	}
	if p.APITimeout <= 0 {
		return fmt.Errorf("api_timeout must be a positive duration")
	}
	if p.HistoryDepth < 0 {
		return fmt.Errorf("history_depth must not be negative")
	}
	return nil
}

// Validate checks the loop settings.
func (l *LoopConfig) Validate() error {
	if l.RetryLimit < 0 {
		return fmt.Errorf("retry_limit must not be negative")
	}
	if l.FailureBudget <= 0 {
		return fmt.Errorf("failure_budget must be a positive integer")
	}
	if l.MaxNoopClicks < 0 {
		return fmt.Errorf("max_noop_clicks must not be negative")
	}
	return nil
}

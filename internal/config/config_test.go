// File: internal/config/config_test.go
package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	// Verify a few key defaults to ensure the mechanism works.
	assert.Equal(t, "info", cfg.Logger().Level)
	assert.True(t, cfg.Browser().Headless)
	assert.Equal(t, 90*time.Second, cfg.Browser().NavigationTimeout)
	assert.Equal(t, ProviderGemini, cfg.Planner().Provider)
	assert.Equal(t, "gemini-2.5-pro", cfg.Planner().PowerfulModel)
	assert.Equal(t, 30*time.Second, cfg.Planner().APITimeout)
	assert.Equal(t, 8, cfg.Planner().HistoryDepth)
	assert.Equal(t, 2, cfg.Loop().RetryLimit)
	assert.Equal(t, 500*time.Millisecond, cfg.Loop().RetryDelay)
	assert.Equal(t, 2, cfg.Loop().FailureBudget)
	assert.Equal(t, 1500*time.Millisecond, cfg.Loop().SettleClick)
	assert.Equal(t, 0, cfg.Loop().MaxNoopClicks)
	assert.True(t, cfg.Extractor().CacheEnabled)
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	t.Run("Core Validation", func(t *testing.T) {
		cfg := NewDefaultConfig()

		err := cfg.Validate()
		assert.NoError(t, err, "A valid config should not produce a validation error")

		cfgBadNav := *cfg
		cfgBadNav.BrowserCfg.NavigationTimeout = 0
		err = cfgBadNav.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "browser.navigation_timeout must be a positive duration")

		cfgBadMax := *cfg
		cfgBadMax.ExtractorCfg.MaxElements = 0
		err = cfgBadMax.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "extractor.max_elements must be a positive integer")
	})

	t.Run("Planner Validation", func(t *testing.T) {
		valid := PlannerConfig{
			Provider:      ProviderOpenAI,
			FastModel:     "gpt-4o-mini",
			PowerfulModel: "gpt-4o",
			APITimeout:    30 * time.Second,
			HistoryDepth:  8,
		}
		assert.NoError(t, valid.Validate())

		badProvider := valid
		badProvider.Provider = "llama-on-a-toaster"
		err := badProvider.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported provider")

		missingModel := valid
		missingModel.FastModel = ""
		err = missingModel.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "fast_model and powerful_model are required")

		badTimeout := valid
		badTimeout.APITimeout = 0
		err = badTimeout.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "api_timeout must be a positive duration")

		badHistory := valid
		badHistory.HistoryDepth = -1
		err = badHistory.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "history_depth must not be negative")
	})

	t.Run("Loop Validation", func(t *testing.T) {
		valid := LoopConfig{
			RetryLimit:    2,
			FailureBudget: 2,
		}
		assert.NoError(t, valid.Validate())

		badRetry := valid
		badRetry.RetryLimit = -1
		err := badRetry.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "retry_limit must not be negative")

		badBudget := valid
		badBudget.FailureBudget = 0
		err = badBudget.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failure_budget must be a positive integer")
	})
}

// -- Factory Function Tests --

func TestNewConfigFromViper(t *testing.T) {
	t.Run("Successful Load from YAML", func(t *testing.T) {
		yamlBytes := []byte(`
planner:
  provider: anthropic
  fast_model: claude-haiku
  powerful_model: claude-sonnet
loop:
  retry_limit: 1
`)
		v := viper.New()
		SetDefaults(v)
		v.SetConfigType("yaml")
		err := v.ReadConfig(bytes.NewBuffer(yamlBytes))
		require.NoError(t, err)

		var cfg Config
		err = v.Unmarshal(&cfg)
		require.NoError(t, err)

		assert.Equal(t, ProviderAnthropic, cfg.Planner().Provider)
		assert.Equal(t, "claude-sonnet", cfg.Planner().PowerfulModel)
		assert.Equal(t, 1, cfg.Loop().RetryLimit)
		// Check a default value was also loaded
		assert.Equal(t, "info", cfg.Logger().Level)
	})

	t.Run("Validation Failure", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("planner.provider", "not-a-provider")

		cfg, err := NewConfigFromViper(v)
		assert.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "invalid configuration")
		assert.Contains(t, err.Error(), "unsupported provider")
	})

	t.Run("Environment Variable Binding", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)

		testKey := "sk-env-var-key-456"
		t.Setenv("VOXWEB_PLANNER_API_KEY", testKey)

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, testKey, cfg.Planner().APIKey)
	})
}

// -- Struct and Mapping Tests --

func TestConfigStructureMapping(t *testing.T) {
	yamlInput := `
logger:
  level: debug
  log_file: /var/log/voxweb.log
browser:
  post_load_wait: 5s
loop:
  settle_click: 2s
  max_noop_clicks: 3
`
	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	err := v.ReadConfig(bytes.NewBufferString(yamlInput))
	require.NoError(t, err)

	var cfg Config
	err = v.Unmarshal(&cfg)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger().Level)
	assert.Equal(t, "/var/log/voxweb.log", cfg.Logger().LogFile)
	assert.Equal(t, 5*time.Second, cfg.Browser().PostLoadWait)
	assert.Equal(t, 2*time.Second, cfg.Loop().SettleClick)
	assert.Equal(t, 3, cfg.Loop().MaxNoopClicks)
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"ENVIRONMENT", "AUTH_MODE", "ORACLE", "SEQUENCE_LENGTH", "DEFAULT_STEPS", "STEP_DURATION", "DATABASE_URL"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, AuthModeNone, cfg.AuthMode)
	assert.Equal(t, OracleMarkov, cfg.Oracle)
	assert.Equal(t, 64, cfg.SequenceLength)
	assert.Equal(t, 300, cfg.DefaultSteps)
	assert.Equal(t, 0.25, cfg.StepDuration)
	assert.False(t, cfg.PersistenceEnabled())
	assert.False(t, cfg.IsProduction())
	require.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("AUTH_MODE", "gateway")
	t.Setenv("SEQUENCE_LENGTH", "32")
	t.Setenv("DEFAULT_TEMPERATURE", "0.7")
	t.Setenv("ORACLE_TIMEOUT", "5s")
	t.Setenv("MAX_STEPS", "not-a-number")

	cfg := Load()
	assert.True(t, cfg.IsProduction())
	assert.True(t, cfg.IsGatewayMode())
	assert.Equal(t, 32, cfg.SequenceLength)
	assert.Equal(t, 0.7, cfg.DefaultTemperature)
	assert.Equal(t, 5*time.Second, cfg.OracleTimeout)
	assert.Equal(t, 2000, cfg.MaxSteps)
	assert.Equal(t, 512, cfg.MaxWindow)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"jwt without secret", func(c *Config) { c.AuthMode = AuthModeJWT }},
		{"unknown auth mode", func(c *Config) { c.AuthMode = "basic" }},
		{"unknown oracle", func(c *Config) { c.Oracle = "lstm" }},
		{"remote without url", func(c *Config) { c.Oracle = OracleRemote; c.OracleURL = "" }},
		{"zero markov order", func(c *Config) { c.MarkovOrder = 0 }},
		{"zero window", func(c *Config) { c.SequenceLength = 0 }},
		{"default above max", func(c *Config) { c.DefaultSteps = 10; c.MaxSteps = 5 }},
		{"window above max", func(c *Config) { c.SequenceLength = 64; c.MaxWindow = 32 }},
		{"zero temperature", func(c *Config) { c.DefaultTemperature = 0 }},
		{"zero step duration", func(c *Config) { c.StepDuration = 0 }},
		{"zero tempo", func(c *Config) { c.TempoBPM = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			cfg.AuthMode = AuthModeNone
			cfg.Oracle = OracleMarkov
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

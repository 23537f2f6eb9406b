package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Oracle backends
const (
	OracleMarkov = "markov"
	OracleRemote = "remote"
)

// Auth modes
const (
	AuthModeNone    = "none"
	AuthModeGateway = "gateway"
	AuthModeJWT     = "jwt"
)

// Config holds the application configuration
type Config struct {
	// Environment
	Environment string
	Port        string
	LogLevel    string

	// Observability
	SentryDSN string // Sentry DSN for error tracking

	// Auth mode
	// - "none": No auth (self-hosted, local dev)
	// - "gateway": Trust X-User-* headers from the gateway
	// - "jwt": Validate HS256 bearer tokens signed with JWTSecret
	AuthMode  string
	JWTSecret string

	// Persistence (optional, empty disables stored compositions)
	DatabaseURL string
	SlugSalt    string

	// Model
	VocabPath     string // mapping.json, embedded default when empty
	CorpusPath    string // training songs for the markov oracle, embedded default when empty
	Oracle        string // "markov" or "remote"
	OracleURL     string // TensorFlow Serving base URL
	OracleModel   string
	OracleTimeout time.Duration
	MarkovOrder   int
	MarkovAlpha   float64

	// Generation defaults and limits
	SequenceLength     int // context window fed to the oracle
	MaxWindow          int // largest window a request may ask for
	DefaultSteps       int
	MaxSteps           int
	DefaultTemperature float64
	StepDuration       float64 // quarter length of one symbol
	TempoBPM           float64
}

func Load() *Config {
	return &Config{
		Environment:        getEnv("ENVIRONMENT", "development"),
		Port:               getEnv("PORT", "8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		SentryDSN:          getEnv("SENTRY_DSN", ""),
		AuthMode:           getEnv("AUTH_MODE", AuthModeNone), // Default to no auth for self-hosted
		JWTSecret:          getEnv("JWT_SECRET", ""),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		SlugSalt:           getEnv("SLUG_SALT", "melody"),
		VocabPath:          getEnv("VOCAB_PATH", ""),
		CorpusPath:         getEnv("CORPUS_PATH", ""),
		Oracle:             getEnv("ORACLE", OracleMarkov),
		OracleURL:          getEnv("ORACLE_URL", "http://localhost:8501"),
		OracleModel:        getEnv("ORACLE_MODEL", "melody"),
		OracleTimeout:      getEnvDuration("ORACLE_TIMEOUT", 30*time.Second),
		MarkovOrder:        getEnvInt("MARKOV_ORDER", 4),
		MarkovAlpha:        getEnvFloat("MARKOV_ALPHA", 0.01),
		SequenceLength:     getEnvInt("SEQUENCE_LENGTH", 64),
		MaxWindow:          getEnvInt("MAX_WINDOW", 512),
		DefaultSteps:       getEnvInt("DEFAULT_STEPS", 300),
		MaxSteps:           getEnvInt("MAX_STEPS", 2000),
		DefaultTemperature: getEnvFloat("DEFAULT_TEMPERATURE", 1.0),
		StepDuration:       getEnvFloat("STEP_DURATION", 0.25),
		TempoBPM:           getEnvFloat("TEMPO_BPM", 120),
	}
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch c.AuthMode {
	case AuthModeNone, AuthModeGateway:
	case AuthModeJWT:
		if c.JWTSecret == "" {
			return fmt.Errorf("AUTH_MODE=jwt requires JWT_SECRET")
		}
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", c.AuthMode)
	}

	switch c.Oracle {
	case OracleMarkov:
		if c.MarkovOrder < 1 {
			return fmt.Errorf("MARKOV_ORDER must be at least 1, got %d", c.MarkovOrder)
		}
	case OracleRemote:
		if c.OracleURL == "" || c.OracleModel == "" {
			return fmt.Errorf("ORACLE=remote requires ORACLE_URL and ORACLE_MODEL")
		}
	default:
		return fmt.Errorf("unknown ORACLE %q", c.Oracle)
	}

	if c.SequenceLength <= 0 || c.MaxWindow < c.SequenceLength {
		return fmt.Errorf("need 0 < SEQUENCE_LENGTH <= MAX_WINDOW, got %d and %d", c.SequenceLength, c.MaxWindow)
	}
	if c.DefaultSteps <= 0 || c.MaxSteps < c.DefaultSteps {
		return fmt.Errorf("need 0 < DEFAULT_STEPS <= MAX_STEPS, got %d and %d", c.DefaultSteps, c.MaxSteps)
	}
	if c.DefaultTemperature <= 0 {
		return fmt.Errorf("DEFAULT_TEMPERATURE must be positive, got %v", c.DefaultTemperature)
	}
	if c.StepDuration <= 0 {
		return fmt.Errorf("STEP_DURATION must be positive, got %v", c.StepDuration)
	}
	if c.TempoBPM <= 0 {
		return fmt.Errorf("TEMPO_BPM must be positive, got %v", c.TempoBPM)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

// IsGatewayMode returns true if running behind the gateway
func (c *Config) IsGatewayMode() bool {
	return c.AuthMode == AuthModeGateway
}

// PersistenceEnabled returns true when a database is configured
func (c *Config) PersistenceEnabled() bool {
	return c.DatabaseURL != ""
}

// IsProduction returns true in the production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

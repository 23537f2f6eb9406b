package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/Conceptual-Machines/melody-api/internal/api"
	"github.com/Conceptual-Machines/melody-api/internal/api/middleware"
	"github.com/Conceptual-Machines/melody-api/internal/config"
	"github.com/Conceptual-Machines/melody-api/internal/database"
	"github.com/Conceptual-Machines/melody-api/internal/logger"
	"github.com/Conceptual-Machines/melody-api/internal/metrics"
	"github.com/Conceptual-Machines/melody-api/internal/services"
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

const (
	sentryFlushTimeout = 2 * time.Second
)

// releaseVersion is set via ldflags during build
var releaseVersion = "dev"

// GetVersion returns the current release version
func GetVersion() string {
	return releaseVersion
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, using environment variables", logger.Fields{})
	}

	// Load configuration
	cfg := config.Load()
	logger.SetLevel(cfg.LogLevel)
	if cfg.IsProduction() {
		logger.UseJSON()
	}
	if err := cfg.Validate(); err != nil {
		fatal("Invalid configuration", err)
	}

	// Initialize Sentry
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			Release:          "melody-api@" + releaseVersion,
			EnableTracing:    true,
			TracesSampleRate: 1.0,
			Debug:            !cfg.IsProduction(),
			BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
				// Filter out sensitive data
				if event.Request != nil {
					event.Request.Headers = filterSensitiveHeaders(event.Request.Headers)
				}
				return event
			},
		}); err != nil {
			logger.Warn("Failed to initialize Sentry", logger.Fields{"error": err.Error()})
		} else {
			logger.Info("Sentry initialized", logger.Fields{"environment": cfg.Environment, "release": releaseVersion})
			// Flush on shutdown
			defer sentry.Flush(sentryFlushTimeout)
		}
	} else {
		logger.Warn("Sentry not configured (SENTRY_DSN not set)", logger.Fields{})
	}

	// Database is optional, without it compositions are not stored
	var db *gorm.DB
	var store services.CompositionStore
	if cfg.PersistenceEnabled() {
		var err error
		db, err = database.Connect(cfg.DatabaseURL)
		if err != nil {
			fatal("Failed to connect to database", err)
		}
		if err := database.Migrate(db); err != nil {
			fatal("Failed to run migrations", err)
		}
		store = services.NewCompositionService(db, services.NewSlugCodec(cfg.SlugSalt))
	} else {
		logger.Warn("DATABASE_URL not set, composition storage disabled", logger.Fields{})
	}

	// Model
	v, err := services.LoadVocabulary(cfg)
	if err != nil {
		fatal("Failed to load vocabulary", err)
	}
	o, err := services.BuildOracle(cfg, v)
	if err != nil {
		fatal("Failed to build oracle", err)
	}

	// Metrics
	cloudwatch, err := metrics.NewClient(context.Background(), cfg.Environment)
	if err != nil {
		fatal("Failed to create metrics client", err)
	}
	recorder := metrics.Recorders{metrics.NewSentryMetrics(), cloudwatch}

	svc := services.NewGenerationService(cfg, v, o, recorder, store)

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	var apiRecorder middleware.APIRecorder = cloudwatch
	router := api.SetupRouter(db, cfg, svc, apiRecorder, GetVersion())

	logger.Info("Starting server", logger.Fields{
		"port":       cfg.Port,
		"oracle":     svc.OracleName(),
		"vocabulary": v.Size(),
	})
	if err := router.Run(":" + cfg.Port); err != nil {
		fatal("Failed to start server", err)
	}
}

func fatal(msg string, err error) {
	sentry.CaptureException(err)
	logger.Error(msg, err, logger.Fields{})
	sentry.Flush(sentryFlushTimeout)
	os.Exit(1)
}

func filterSensitiveHeaders(headers map[string]string) map[string]string {
	filtered := make(map[string]string)
	sensitiveKeys := map[string]bool{
		"authorization": true,
		"cookie":        true,
		"x-api-key":     true,
	}

	for k, v := range headers {
		if sensitiveKeys[strings.ToLower(k)] {
			filtered[k] = "[REDACTED]"
		} else {
			filtered[k] = v
		}
	}
	return filtered
}

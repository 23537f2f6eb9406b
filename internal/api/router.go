package api

import (
	"github.com/Conceptual-Machines/melody-api/internal/api/handlers"
	"github.com/Conceptual-Machines/melody-api/internal/api/middleware"
	"github.com/Conceptual-Machines/melody-api/internal/config"
	"github.com/Conceptual-Machines/melody-api/internal/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter builds the HTTP API. db may be nil when persistence is
// disabled and recorder may be nil outside production.
func SetupRouter(db *gorm.DB, cfg *config.Config, svc *services.GenerationService, recorder middleware.APIRecorder, version string) *gin.Engine {
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(middleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(middleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(middleware.RequestTracking(recorder))

	// Health check
	healthHandler := handlers.NewHealthHandler(db, svc)
	router.GET("/health", healthHandler.HealthCheck)

	// Metrics endpoint
	metricsHandler := handlers.NewMetricsHandler(version, cfg, svc)
	router.GET("/api/metrics", metricsHandler.GetMetrics)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth(cfg))
	{
		vocabularyHandler := handlers.NewVocabularyHandler(svc)
		v1.GET("/vocabulary", vocabularyHandler.GetVocabulary)
		v1.GET("/seeds/random", vocabularyHandler.RandomSeed)

		melodyHandler := handlers.NewMelodyHandler(svc)
		v1.POST("/melodies/generations", melodyHandler.Generate)
		v1.POST("/melodies/exports", melodyHandler.Export)

		compositionHandler := handlers.NewCompositionHandler(svc)
		v1.GET("/compositions", compositionHandler.List)
		v1.GET("/compositions/:slug", compositionHandler.Get)
		v1.GET("/compositions/:slug/file", compositionHandler.File)
	}

	return router
}

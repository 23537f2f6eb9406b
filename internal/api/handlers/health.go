package handlers

import (
	"net/http"

	"github.com/Conceptual-Machines/melody-api/internal/database"
	"github.com/Conceptual-Machines/melody-api/internal/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db  *gorm.DB
	svc *services.GenerationService
}

// NewHealthHandler creates a health handler. db may be nil when
// persistence is disabled.
func NewHealthHandler(db *gorm.DB, svc *services.GenerationService) *HealthHandler {
	return &HealthHandler{db: db, svc: svc}
}

// HealthCheck returns the health status of the API
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	dbStatus := "disabled"
	status := http.StatusOK
	if h.db != nil {
		dbStatus = "healthy"
		if err := database.Ping(h.db); err != nil {
			dbStatus = "unhealthy"
			status = http.StatusServiceUnavailable
		}
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "degraded"
	}

	c.JSON(status, gin.H{
		"status": overall,
		"oracle": h.svc.OracleName(),
		"vocabulary": gin.H{
			"size": h.svc.Vocabulary().Size(),
		},
		"database": gin.H{
			"status": dbStatus,
		},
	})
}

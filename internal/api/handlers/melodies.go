package handlers

import (
	"fmt"
	"net/http"

	"github.com/Conceptual-Machines/melody-api/internal/api/middleware"
	"github.com/Conceptual-Machines/melody-api/internal/melody"
	"github.com/Conceptual-Machines/melody-api/internal/models"
	"github.com/Conceptual-Machines/melody-api/internal/services"
	"github.com/gin-gonic/gin"
)

type MelodyHandler struct {
	svc *services.GenerationService
}

func NewMelodyHandler(svc *services.GenerationService) *MelodyHandler {
	return &MelodyHandler{svc: svc}
}

type GenerateRequest struct {
	Seed         string   `json:"seed"`
	Steps        int      `json:"steps"`
	Temperature  *float64 `json:"temperature"`
	Window       int      `json:"window"`
	RandomSeed   *int64   `json:"random_seed"`
	StepDuration float64  `json:"step_duration"`
	Save         bool     `json:"save"` // store as a composition
}

type GenerateResponse struct {
	Seed          string                     `json:"seed"`
	Melody        string                     `json:"melody"`
	Events        []melody.Event             `json:"events"`
	Description   string                     `json:"description"`
	TotalDuration float64                    `json:"total_duration"`
	Steps         int                        `json:"steps"`
	Window        int                        `json:"window"`
	Temperature   float64                    `json:"temperature"`
	RandomSeed    int64                      `json:"random_seed"`
	StepDuration  float64                    `json:"step_duration"`
	Oracle        string                     `json:"oracle"`
	Composition   *models.CompositionSummary `json:"composition,omitempty"`
}

// Generate extends a seed phrase and returns the melody with its decoded events
func (h *MelodyHandler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if req.Save && !h.svc.PersistenceEnabled() {
		respondError(c, services.ErrPersistenceDisabled)
		return
	}

	result, err := h.svc.Generate(c.Request.Context(), services.GenerateParams{
		Seed:         req.Seed,
		Steps:        req.Steps,
		Temperature:  req.Temperature,
		Window:       req.Window,
		RandomSeed:   req.RandomSeed,
		StepDuration: req.StepDuration,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	events := result.Events
	if events == nil {
		events = []melody.Event{}
	}

	resp := GenerateResponse{
		Seed:          melody.Join(result.Seed),
		Melody:        melody.Join(result.Melody),
		Events:        events,
		Description:   melody.String(result.Events),
		TotalDuration: result.TotalDuration,
		Steps:         result.Steps,
		Window:        result.Window,
		Temperature:   result.Temperature,
		RandomSeed:    result.RandomSeed,
		StepDuration:  result.StepDuration,
		Oracle:        result.Oracle,
	}

	if req.Save {
		composition, err := h.svc.Save(c.Request.Context(), result, middleware.GetUserID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		summary := composition.Summary()
		resp.Composition = &summary
		c.JSON(http.StatusCreated, resp)
		return
	}

	c.JSON(http.StatusOK, resp)
}

type ExportRequest struct {
	Melody       string  `json:"melody" binding:"required"`
	StepDuration float64 `json:"step_duration"`
	Format       string  `json:"format"`
}

// Export decodes a melody string and returns it as a file download
func (h *MelodyHandler) Export(c *gin.Context) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if req.Format == "" {
		req.Format = defaultExportFormat
	}

	data, serializer, err := h.svc.Export(req.Melody, req.StepDuration, req.Format)
	if err != nil {
		respondError(c, err)
		return
	}
	sendFile(c, exportFileBaseName, data, serializer.ContentType(), serializer.Extension())
}

func sendFile(c *gin.Context, baseName string, data []byte, contentType, extension string) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s%s"`, baseName, extension))
	c.Data(http.StatusOK, contentType, data)
}

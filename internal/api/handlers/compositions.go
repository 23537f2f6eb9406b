package handlers

import (
	"net/http"
	"strconv"

	"github.com/Conceptual-Machines/melody-api/internal/melody"
	"github.com/Conceptual-Machines/melody-api/internal/models"
	"github.com/Conceptual-Machines/melody-api/internal/services"
	"github.com/gin-gonic/gin"
)

type CompositionHandler struct {
	svc *services.GenerationService
}

func NewCompositionHandler(svc *services.GenerationService) *CompositionHandler {
	return &CompositionHandler{svc: svc}
}

type CompositionListResponse struct {
	Compositions []models.CompositionSummary `json:"compositions"`
	Total        int64                       `json:"total"`
	Limit        int                         `json:"limit"`
	Offset       int                         `json:"offset"`
}

type CompositionResponse struct {
	models.Composition
	Events []melody.Event `json:"events"`
}

// List returns stored compositions, newest first
func (h *CompositionHandler) List(c *gin.Context) {
	store, err := h.svc.Compositions()
	if err != nil {
		respondError(c, err)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	compositions, total, err := store.List(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	summaries := make([]models.CompositionSummary, 0, len(compositions))
	for i := range compositions {
		summaries = append(summaries, compositions[i].Summary())
	}

	c.JSON(http.StatusOK, CompositionListResponse{
		Compositions: summaries,
		Total:        total,
		Limit:        limit,
		Offset:       offset,
	})
}

// Get returns one composition with its decoded events
func (h *CompositionHandler) Get(c *gin.Context) {
	composition, events, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, CompositionResponse{Composition: *composition, Events: events})
}

// File downloads a composition, as MIDI unless ?format= says otherwise
func (h *CompositionHandler) File(c *gin.Context) {
	composition, events, ok := h.load(c)
	if !ok {
		return
	}

	data, serializer, err := h.svc.Serialize(events, c.DefaultQuery("format", defaultExportFormat))
	if err != nil {
		respondError(c, err)
		return
	}
	sendFile(c, exportFileBaseName+"-"+composition.Slug, data, serializer.ContentType(), serializer.Extension())
}

func (h *CompositionHandler) load(c *gin.Context) (*models.Composition, []melody.Event, bool) {
	store, err := h.svc.Compositions()
	if err != nil {
		respondError(c, err)
		return nil, nil, false
	}

	composition, err := store.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return nil, nil, false
	}

	events, err := melody.Decode(melody.Tokenize(composition.Melody), composition.StepDuration)
	if err != nil {
		respondError(c, err)
		return nil, nil, false
	}
	return composition, events, true
}

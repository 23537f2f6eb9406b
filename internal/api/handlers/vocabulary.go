package handlers

import (
	"net/http"
	"strconv"

	"github.com/Conceptual-Machines/melody-api/internal/services"
	"github.com/Conceptual-Machines/melody-api/internal/vocab"
	"github.com/gin-gonic/gin"
)

type VocabularyHandler struct {
	svc *services.GenerationService
}

func NewVocabularyHandler(svc *services.GenerationService) *VocabularyHandler {
	return &VocabularyHandler{svc: svc}
}

type VocabularyResponse struct {
	Size     int            `json:"size"`
	Symbols  []string       `json:"symbols"`
	Pitches  []string       `json:"pitches"`
	Mapping  map[string]int `json:"mapping"`
	Reserved ReservedTokens `json:"reserved"`
}

type ReservedTokens struct {
	Sentinel string `json:"sentinel"`
	Hold     string `json:"hold"`
	Rest     string `json:"rest"`
}

// GetVocabulary lists every symbol the sampler accepts in a seed
func (h *VocabularyHandler) GetVocabulary(c *gin.Context) {
	v := h.svc.Vocabulary()
	c.JSON(http.StatusOK, VocabularyResponse{
		Size:    v.Size(),
		Symbols: v.Symbols(),
		Pitches: v.Pitches(),
		Mapping: v.Mapping(),
		Reserved: ReservedTokens{
			Sentinel: vocab.Sentinel,
			Hold:     vocab.Hold,
			Rest:     vocab.Rest,
		},
	})
}

// RandomSeed returns a random seed phrase, reproducible with ?random_seed=n
func (h *VocabularyHandler) RandomSeed(c *gin.Context) {
	var randomSeed *int64
	if raw := c.Query("random_seed"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondBindError(c, err)
			return
		}
		randomSeed = &v
	}
	c.JSON(http.StatusOK, gin.H{"seed": h.svc.RandomSeed(randomSeed)})
}

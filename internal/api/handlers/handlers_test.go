package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Conceptual-Machines/melody-api/internal/config"
	"github.com/Conceptual-Machines/melody-api/internal/melody"
	"github.com/Conceptual-Machines/melody-api/internal/models"
	"github.com/Conceptual-Machines/melody-api/internal/oracle"
	"github.com/Conceptual-Machines/melody-api/internal/services"
	"github.com/Conceptual-Machines/melody-api/internal/vocab"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func oneHot(id int) []float64 {
	row := make([]float64, 6)
	row[id] = 1
	return row
}

// ids: / _ r 60 62 64. After a hold the table plays 62, 64 and stops.
func newService(t *testing.T, o melody.Oracle, store services.CompositionStore) *services.GenerationService {
	t.Helper()
	v, err := vocab.FromSymbols([]string{"/", "_", "r", "60", "62", "64"})
	require.NoError(t, err)
	if o == nil {
		o = &oracle.Table{Rows: map[int][]float64{
			1: oneHot(4),
			4: oneHot(5),
			5: oneHot(0),
		}, Default: oneHot(0)}
	}
	cfg := &config.Config{
		DefaultSteps:       10,
		MaxSteps:           20,
		MaxWindow:          16,
		DefaultTemperature: 1,
		SequenceLength:     4,
		StepDuration:       0.25,
		TempoBPM:           120,
	}
	return services.NewGenerationService(cfg, v, o, nil, store)
}

type memoryStore struct {
	items []models.Composition
}

func (m *memoryStore) Create(_ context.Context, c *models.Composition) error {
	c.ID = uint(len(m.items) + 1)
	c.Slug = fmt.Sprintf("slug%d", c.ID)
	m.items = append(m.items, *c)
	return nil
}

func (m *memoryStore) GetBySlug(_ context.Context, slug string) (*models.Composition, error) {
	for i := range m.items {
		if m.items[i].Slug == slug {
			c := m.items[i]
			return &c, nil
		}
	}
	return nil, services.ErrCompositionNotFound
}

func (m *memoryStore) List(_ context.Context, limit, offset int) ([]models.Composition, int64, error) {
	if offset > len(m.items) {
		offset = len(m.items)
	}
	end := offset + limit
	if end > len(m.items) {
		end = len(m.items)
	}
	return m.items[offset:end], int64(len(m.items)), nil
}

func newTestRouter(svc *services.GenerationService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	vocabularyHandler := NewVocabularyHandler(svc)
	r.GET("/vocabulary", vocabularyHandler.GetVocabulary)
	r.GET("/seeds/random", vocabularyHandler.RandomSeed)

	melodyHandler := NewMelodyHandler(svc)
	r.POST("/generations", melodyHandler.Generate)
	r.POST("/exports", melodyHandler.Export)

	compositionHandler := NewCompositionHandler(svc)
	r.GET("/compositions", compositionHandler.List)
	r.GET("/compositions/:slug", compositionHandler.Get)
	r.GET("/compositions/:slug/file", compositionHandler.File)

	healthHandler := NewHealthHandler(nil, svc)
	r.GET("/health", healthHandler.HealthCheck)
	return r
}

func do(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestGenerate(t *testing.T) {
	r := newTestRouter(newService(t, nil, nil))

	w := do(r, http.MethodPost, "/generations", gin.H{"seed": "60 _", "random_seed": 3})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp GenerateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "60 _", resp.Seed)
	assert.Equal(t, "60 _ 62 64", resp.Melody)
	assert.Equal(t, "60:0.5 62:0.25 64:0.25", resp.Description)
	assert.Len(t, resp.Events, 3)
	assert.InDelta(t, 1.0, resp.TotalDuration, 1e-9)
	assert.Equal(t, int64(3), resp.RandomSeed)
	assert.Equal(t, "table", resp.Oracle)
	assert.Nil(t, resp.Composition)
}

func TestGenerateEmptyMelodyHasEmptyEvents(t *testing.T) {
	r := newTestRouter(newService(t, nil, nil))

	w := do(r, http.MethodPost, "/generations", gin.H{})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"events":[]`)
}

func TestGenerateErrorMapping(t *testing.T) {
	failing := oracle.Func(func(context.Context, []int) ([]float64, error) {
		return nil, errors.New("model offline")
	})
	leadingHold := &oracle.Table{Rows: map[int][]float64{0: oneHot(1), 1: oneHot(0)}}

	tests := []struct {
		name   string
		oracle melody.Oracle
		body   any
		status int
		code   string
		field  string
	}{
		{"unknown symbol", nil, gin.H{"seed": "60 C4"}, http.StatusBadRequest, codeUnknownSymbol, "seed"},
		{"zero temperature", nil, gin.H{"seed": "60", "temperature": 0}, http.StatusBadRequest, codeInvalidParameter, "temperature"},
		{"too many steps", nil, gin.H{"seed": "60", "steps": 500}, http.StatusBadRequest, codeInvalidParameter, "steps"},
		{"negative window", nil, gin.H{"seed": "60", "window": -2}, http.StatusBadRequest, codeInvalidParameter, "window"},
		{"window too large", nil, gin.H{"seed": "60", "window": 17179869184}, http.StatusBadRequest, codeInvalidParameter, "window"},
		{"bad json", nil, "not an object", http.StatusBadRequest, codeInvalidRequest, ""},
		{"oracle failure", failing, gin.H{"seed": "60"}, http.StatusBadGateway, codeOracleFailure, ""},
		{"undecodable", leadingHold, gin.H{}, http.StatusBadGateway, codeUndecodable, ""},
		{"save without database", nil, gin.H{"seed": "60", "save": true}, http.StatusServiceUnavailable, codePersistenceDisabled, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(newService(t, tt.oracle, nil))
			w := do(r, http.MethodPost, "/generations", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())

			resp := decodeError(t, w)
			assert.Equal(t, tt.code, resp.Code)
			assert.Equal(t, tt.field, resp.Field)
		})
	}
}

func TestGenerateAndSave(t *testing.T) {
	store := &memoryStore{}
	r := newTestRouter(newService(t, nil, store))

	w := do(r, http.MethodPost, "/generations", gin.H{"seed": "60 _", "save": true})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp GenerateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Composition)
	assert.Equal(t, "slug1", resp.Composition.Slug)
	require.Len(t, store.items, 1)
	assert.Equal(t, "60 _ 62 64", store.items[0].Melody)

	w = do(r, http.MethodGet, "/compositions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list CompositionListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, int64(1), list.Total)
	assert.Equal(t, defaultPageSize, list.Limit)
	require.Len(t, list.Compositions, 1)
	assert.Equal(t, 3, list.Compositions[0].EventCount)

	w = do(r, http.MethodGet, "/compositions/slug1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var one CompositionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &one))
	assert.Equal(t, "60 _ 62 64", one.Melody)
	assert.Len(t, one.Events, 3)

	w = do(r, http.MethodGet, "/compositions/slug1/file", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "audio/midi", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="melody-slug1.mid"`)

	w = do(r, http.MethodGet, "/compositions/slug1/file?format=json", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "total_duration")

	w = do(r, http.MethodGet, "/compositions/slug1/file?format=ogg", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/compositions/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCompositionsWithoutDatabase(t *testing.T) {
	r := newTestRouter(newService(t, nil, nil))

	for _, path := range []string{"/compositions", "/compositions/abc", "/compositions/abc/file"} {
		w := do(r, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
	}
}

func TestExport(t *testing.T) {
	r := newTestRouter(newService(t, nil, nil))

	w := do(r, http.MethodPost, "/exports", gin.H{"melody": "60 _ r 64 _"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "audio/midi", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="melody.mid"`)
	assert.Equal(t, "MThd", w.Body.String()[:4])

	w = do(r, http.MethodPost, "/exports", gin.H{"melody": "60 _", "format": "json"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_duration": 0.5`)

	w = do(r, http.MethodPost, "/exports", gin.H{"melody": "_ 60"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, codeMalformedPitch, decodeError(t, w).Code)

	w = do(r, http.MethodPost, "/exports", gin.H{"melody": "60", "format": "wav"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, codeUnsupportedFormat, decodeError(t, w).Code)

	w = do(r, http.MethodPost, "/exports", gin.H{"format": "midi"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, codeInvalidRequest, decodeError(t, w).Code)
}

func TestVocabularyAndSeeds(t *testing.T) {
	r := newTestRouter(newService(t, nil, nil))

	w := do(r, http.MethodGet, "/vocabulary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp VocabularyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 6, resp.Size)
	assert.Equal(t, []string{"60", "62", "64"}, resp.Pitches)
	assert.Equal(t, "/", resp.Reserved.Sentinel)
	assert.Equal(t, 1, resp.Mapping["_"])

	first := do(r, http.MethodGet, "/seeds/random?random_seed=9", nil)
	second := do(r, http.MethodGet, "/seeds/random?random_seed=9", nil)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())

	w = do(r, http.MethodGet, "/seeds/random?random_seed=x", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthWithoutDatabase(t *testing.T) {
	r := newTestRouter(newService(t, nil, nil))

	w := do(r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"disabled"`)
	assert.Contains(t, w.Body.String(), `"oracle":"table"`)
}

func TestClassifyFallsBackToInternal(t *testing.T) {
	status, code, _ := classify(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, codeInternal, code)

	status, _, _ = classify(fmt.Errorf("remote: %w", context.DeadlineExceeded))
	assert.Equal(t, http.StatusGatewayTimeout, status)
}

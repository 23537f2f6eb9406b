package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/Conceptual-Machines/melody-api/internal/config"
	"github.com/Conceptual-Machines/melody-api/internal/export"
	"github.com/Conceptual-Machines/melody-api/internal/logger"
	"github.com/Conceptual-Machines/melody-api/internal/melody"
	"github.com/Conceptual-Machines/melody-api/internal/metrics"
	"github.com/Conceptual-Machines/melody-api/internal/models"
	"github.com/Conceptual-Machines/melody-api/internal/oracle"
	"github.com/Conceptual-Machines/melody-api/internal/vocab"
)

// ErrUndecodable is returned when the oracle produced a melody that does not
// decode, e.g. a hold before any note
var ErrUndecodable = errors.New("generated melody cannot be decoded")

// GenerateParams are the per-request generation settings. Zero values and
// nil pointers fall back to the configured defaults.
type GenerateParams struct {
	Seed         string
	Steps        int
	Temperature  *float64
	Window       int
	RandomSeed   *int64
	StepDuration float64
}

type resolvedParams struct {
	seed         []string
	steps        int
	temperature  float64
	window       int
	randomSeed   int64
	stepDuration float64
}

// GenerationResult is a generated melody and its decoded events
type GenerationResult struct {
	Seed          []string
	Melody        []string
	Events        []melody.Event
	TotalDuration float64
	Steps         int
	Window        int
	Temperature   float64
	RandomSeed    int64
	StepDuration  float64
	Oracle        string
}

// GenerationService runs the sampler and decoder for API requests
type GenerationService struct {
	cfg      *config.Config
	vocab    *vocab.Vocabulary
	oracle   melody.Oracle
	recorder metrics.GenerationRecorder
	store    CompositionStore
	now      func() time.Time
}

// NewGenerationService wires the sampler dependencies. store may be nil
// when persistence is disabled.
func NewGenerationService(cfg *config.Config, v *vocab.Vocabulary, o melody.Oracle, recorder metrics.GenerationRecorder, store CompositionStore) *GenerationService {
	return &GenerationService{
		cfg:      cfg,
		vocab:    v,
		oracle:   o,
		recorder: recorder,
		store:    store,
		now:      time.Now,
	}
}

func (s *GenerationService) Vocabulary() *vocab.Vocabulary {
	return s.vocab
}

func (s *GenerationService) OracleName() string {
	return oracle.NameOf(s.oracle)
}

// PersistenceEnabled reports whether Save can succeed
func (s *GenerationService) PersistenceEnabled() bool {
	return s.store != nil
}

// Generate extends params.Seed and decodes the result. Each call gets its
// own random source so concurrent requests never share one.
func (s *GenerationService) Generate(ctx context.Context, params GenerateParams) (*GenerationResult, error) {
	p, err := s.resolve(params)
	if err != nil {
		return nil, err
	}

	sampler := melody.NewSampler(s.vocab, s.oracle, rand.New(rand.NewSource(p.randomSeed)))
	oracleName := s.OracleName()

	start := s.now()
	generated, err := sampler.Generate(ctx, p.seed, p.steps, p.window, p.temperature)
	duration := s.now().Sub(start)
	if err != nil {
		s.record(ctx, oracleName, duration, 0, false)
		return nil, err
	}
	s.record(ctx, oracleName, duration, len(generated)-len(p.seed), true)

	events, err := melody.Decode(generated, p.stepDuration)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}

	logger.LogGenerationRequest(ctx, oracleName, duration, len(p.seed), len(generated), logger.Fields{
		"temperature": p.temperature,
		"window":      p.window,
		"events":      len(events),
	})

	return &GenerationResult{
		Seed:          p.seed,
		Melody:        generated,
		Events:        events,
		TotalDuration: melody.TotalDuration(events),
		Steps:         p.steps,
		Window:        p.window,
		Temperature:   p.temperature,
		RandomSeed:    p.randomSeed,
		StepDuration:  p.stepDuration,
		Oracle:        oracleName,
	}, nil
}

func (s *GenerationService) resolve(params GenerateParams) (resolvedParams, error) {
	p := resolvedParams{
		seed:         melody.Tokenize(params.Seed),
		steps:        params.Steps,
		temperature:  s.cfg.DefaultTemperature,
		window:       params.Window,
		stepDuration: params.StepDuration,
		randomSeed:   s.now().UnixNano(),
	}
	if p.steps == 0 {
		p.steps = s.cfg.DefaultSteps
	}
	if p.steps > s.cfg.MaxSteps {
		return p, &melody.InvalidParameterError{
			Name:   "steps",
			Value:  p.steps,
			Reason: fmt.Sprintf("must not exceed %d", s.cfg.MaxSteps),
		}
	}
	if params.Temperature != nil {
		p.temperature = *params.Temperature
	}
	if p.window == 0 {
		p.window = s.cfg.SequenceLength
	}
	if p.window > s.cfg.MaxWindow {
		return p, &melody.InvalidParameterError{
			Name:   "window",
			Value:  p.window,
			Reason: fmt.Sprintf("must not exceed %d", s.cfg.MaxWindow),
		}
	}
	if p.stepDuration == 0 {
		p.stepDuration = s.cfg.StepDuration
	}
	if !(p.stepDuration > 0) {
		return p, &melody.InvalidParameterError{Name: "step_duration", Value: p.stepDuration, Reason: "must be positive"}
	}
	if params.RandomSeed != nil {
		p.randomSeed = *params.RandomSeed
	}
	return p, nil
}

func (s *GenerationService) record(ctx context.Context, oracleName string, duration time.Duration, generated int, success bool) {
	if s.recorder != nil {
		s.recorder.RecordGeneration(ctx, oracleName, duration, generated, success)
	}
}

// RandomSeed returns a random seed phrase. A nil randomSeed uses the clock.
func (s *GenerationService) RandomSeed(randomSeed *int64) string {
	seed := s.now().UnixNano()
	if randomSeed != nil {
		seed = *randomSeed
	}
	return melody.Join(melody.RandomSeed(rand.New(rand.NewSource(seed)), melody.DefaultRandomSeedNotes))
}

// Save stores a generation result as a composition
func (s *GenerationService) Save(ctx context.Context, result *GenerationResult, userID string) (*models.Composition, error) {
	if s.store == nil {
		return nil, ErrPersistenceDisabled
	}
	c := &models.Composition{
		Seed:          melody.Join(result.Seed),
		Melody:        melody.Join(result.Melody),
		Steps:         result.Steps,
		Window:        result.Window,
		Temperature:   result.Temperature,
		RandomSeed:    result.RandomSeed,
		Oracle:        result.Oracle,
		StepDuration:  result.StepDuration,
		EventCount:    len(result.Events),
		TotalDuration: result.TotalDuration,
		UserID:        userID,
	}
	if err := s.store.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Compositions returns the store, or ErrPersistenceDisabled
func (s *GenerationService) Compositions() (CompositionStore, error) {
	if s.store == nil {
		return nil, ErrPersistenceDisabled
	}
	return s.store, nil
}

// Export decodes a melody string and serializes it. stepDuration 0 uses
// the configured default.
func (s *GenerationService) Export(melodyText string, stepDuration float64, format string) ([]byte, export.Serializer, error) {
	if stepDuration == 0 {
		stepDuration = s.cfg.StepDuration
	}
	events, err := melody.Decode(melody.Tokenize(melodyText), stepDuration)
	if err != nil {
		return nil, nil, err
	}
	return s.Serialize(events, format)
}

// Serialize writes events in format using the configured tempo
func (s *GenerationService) Serialize(events []melody.Event, format string) ([]byte, export.Serializer, error) {
	opts := export.DefaultOptions()
	opts.BPM = s.cfg.TempoBPM

	serializer, err := export.ForFormat(format, opts)
	if err != nil {
		return nil, nil, err
	}

	var buf bytes.Buffer
	if err := serializer.Write(&buf, events); err != nil {
		return nil, nil, err
	}
	return buf.Bytes(), serializer, nil
}

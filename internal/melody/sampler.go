package melody

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/Conceptual-Machines/melody-api/internal/vocab"
)

const maxPreallocSteps = 1024

// Oracle returns a probability distribution over the vocabulary given a
// fixed-length window of symbol ids.
type Oracle interface {
	Predict(ctx context.Context, window []int) ([]float64, error)
}

// RandomSource is the source of the stochastic draw. *math/rand.Rand and
// *math/rand/v2.Rand both satisfy it.
type RandomSource interface {
	Float64() float64
}

// Sampler extends seed phrases one symbol at a time. A Sampler holds no
// per-call state, but its random source must not be shared between
// goroutines unless that source is itself safe for concurrent use.
type Sampler struct {
	Vocab  *vocab.Vocabulary
	Oracle Oracle
	Rand   RandomSource
}

func NewSampler(v *vocab.Vocabulary, oracle Oracle, src RandomSource) *Sampler {
	return &Sampler{Vocab: v, Oracle: oracle, Rand: src}
}

// Generate extends seed for at most maxSteps steps. The context fed to the
// oracle is the last window ids of a sentinel-padded id sequence. Sampling
// the sentinel stops generation; it is never part of the returned melody.
// Running out of steps is not an error.
func (s *Sampler) Generate(ctx context.Context, seed []string, maxSteps, window int, temperature float64) ([]string, error) {
	if maxSteps <= 0 {
		return nil, &InvalidParameterError{Name: "max_steps", Value: maxSteps, Reason: "must be positive"}
	}
	if window <= 0 {
		return nil, &InvalidParameterError{Name: "window", Value: window, Reason: "must be positive"}
	}
	if err := validateTemperature(temperature); err != nil {
		return nil, err
	}

	seedIDs := make([]int, len(seed))
	for i, symbol := range seed {
		id, ok := s.Vocab.ID(symbol)
		if !ok {
			return nil, &UnknownSymbolError{Symbol: symbol, Index: i}
		}
		seedIDs[i] = id
	}

	sentinel := s.Vocab.SentinelID()
	ids := make([]int, window)
	pad := window - len(seedIDs)
	for i := 0; i < pad; i++ {
		ids[i] = sentinel
	}
	if pad < 0 {
		seedIDs = seedIDs[-pad:]
		pad = 0
	}
	copy(ids[pad:], seedIDs)

	// most runs stop on the sentinel long before maxSteps
	melody := make([]string, len(seed), len(seed)+min(maxSteps, maxPreallocSteps))
	copy(melody, seed)

	input := make([]int, window)
	for step := 0; step < maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		copy(input, ids)
		probs, err := s.Oracle.Predict(ctx, input)
		if err != nil {
			return nil, &OracleError{Step: step, Err: err}
		}
		if len(probs) != s.Vocab.Size() {
			return nil, &OracleError{
				Step: step,
				Err:  fmt.Errorf("distribution has %d entries, vocabulary has %d", len(probs), s.Vocab.Size()),
			}
		}

		weights, err := Rescale(probs, temperature)
		if err != nil {
			return nil, &OracleError{Step: step, Err: err}
		}
		id := Draw(weights, s.Rand)

		// slide the window by one
		copy(ids, ids[1:])
		ids[window-1] = id

		if id == sentinel {
			break
		}
		symbol, _ := s.Vocab.Symbol(id)
		melody = append(melody, symbol)
	}

	return melody, nil
}

func validateTemperature(temperature float64) error {
	if math.IsNaN(temperature) || math.IsInf(temperature, 0) || temperature <= 0 {
		return &InvalidParameterError{Name: "temperature", Value: temperature, Reason: "must be a positive finite number"}
	}
	return nil
}

// Rescale applies softmax temperature to a probability vector: log p is
// divided by temperature and re-normalised. Zero entries stay at zero. The
// input does not have to sum to one, but it must have some positive mass.
func Rescale(probs []float64, temperature float64) ([]float64, error) {
	if err := validateTemperature(temperature); err != nil {
		return nil, err
	}

	logits := make([]float64, len(probs))
	maxLogit := math.Inf(-1)
	for i, p := range probs {
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
			return nil, fmt.Errorf("invalid probability %v for id %d", p, i)
		}
		if p == 0 {
			logits[i] = math.Inf(-1)
			continue
		}
		logits[i] = math.Log(p) / temperature
		if logits[i] > maxLogit {
			maxLogit = logits[i]
		}
	}
	if math.IsInf(maxLogit, -1) {
		return nil, errors.New("distribution has no positive probability")
	}

	out := make([]float64, len(probs))
	sum := 0.0
	for i, l := range logits {
		if math.IsInf(l, -1) {
			continue
		}
		out[i] = math.Exp(l - maxLogit)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out, nil
}

// Draw picks an index with probability proportional to its weight.
// Non-positive weights are never picked. It returns -1 if no weight is positive.
func Draw(weights []float64, src RandomSource) int {
	total := 0.0
	last := -1
	for i, w := range weights {
		if w > 0 {
			total += w
			last = i
		}
	}
	if last < 0 {
		return -1
	}

	r := src.Float64() * total
	acc := 0.0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		acc += w
		if r < acc {
			return i
		}
	}
	return last
}

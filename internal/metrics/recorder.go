package metrics

import (
	"context"
	"time"
)

// GenerationRecorder receives one call per sampling run.
type GenerationRecorder interface {
	RecordGeneration(ctx context.Context, oracleName string, duration time.Duration, generatedSymbols int, success bool)
}

// Recorders fans a generation out to several backends.
type Recorders []GenerationRecorder

func (rs Recorders) RecordGeneration(ctx context.Context, oracleName string, duration time.Duration, generatedSymbols int, success bool) {
	for _, r := range rs {
		if r != nil {
			r.RecordGeneration(ctx, oracleName, duration, generatedSymbols, success)
		}
	}
}

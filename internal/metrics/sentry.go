package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
)

const (
	// HTTP status code threshold for considering a request successful
	successStatusCodeThreshold = http.StatusBadRequest
)

// SentryMetrics handles custom metrics for Sentry
type SentryMetrics struct {
	enabled bool
}

// NewSentryMetrics creates a new Sentry metrics client
func NewSentryMetrics() *SentryMetrics {
	return &SentryMetrics{
		enabled: true, // Always enabled if Sentry is configured
	}
}

// RecordAPIRequest records API request metrics
func (m *SentryMetrics) RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	if !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "api.request")
	defer span.Finish()

	span.SetTag("endpoint", endpoint)
	span.SetTag("status_code", fmt.Sprintf("%d", statusCode))
	span.SetTag("success", fmt.Sprintf("%t", statusCode < successStatusCodeThreshold))

	span.SetData("duration_ms", duration.Milliseconds())
	span.SetData("endpoint", endpoint)
	span.SetData("status_code", statusCode)

	if statusCode < successStatusCodeThreshold {
		span.Status = sentry.SpanStatusOK
	} else {
		span.Status = sentry.SpanStatusInternalError
	}

	span.Description = fmt.Sprintf("API Request: %s", endpoint)
}

// RecordGeneration records one sampling run
func (m *SentryMetrics) RecordGeneration(ctx context.Context, oracleName string, duration time.Duration, generatedSymbols int, success bool) {
	if !m.enabled {
		return
	}

	if transaction := sentry.TransactionFromContext(ctx); transaction != nil {
		transaction.SetTag("melody.oracle", oracleName)
		transaction.SetData("melody.generated_symbols", generatedSymbols)
	}

	span := sentry.StartSpan(ctx, "generation.request")
	defer span.Finish()

	span.SetTag("oracle", oracleName)
	span.SetTag("success", fmt.Sprintf("%t", success))

	span.SetData("duration_ms", duration.Milliseconds())
	span.SetData("generated_symbols", generatedSymbols)

	if success {
		span.Status = sentry.SpanStatusOK
	} else {
		span.Status = sentry.SpanStatusInternalError
	}

	span.Description = fmt.Sprintf("Generation: %s", oracleName)
}

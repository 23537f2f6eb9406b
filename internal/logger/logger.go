package logger

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Fields represents structured log fields
type Fields map[string]interface{}

func init() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}

// SetLevel sets the minimum level ("debug", "info", "warn", "error").
// Unknown levels fall back to info.
func SetLevel(level string) {
	parsed, err := log.ParseLevel(level)
	if err != nil {
		parsed = log.InfoLevel
	}
	log.SetLevel(parsed)
}

// UseJSON switches to JSON output, used in production
func UseJSON() {
	log.SetFormatter(&log.JSONFormatter{})
}

// WithContext extracts request context for logging
func WithContext(c *gin.Context) Fields {
	fields := Fields{
		"request_id": c.GetString("request_id"),
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
	}

	if userID, exists := c.Get("user_id"); exists {
		fields["user_id"] = userID
	}

	return fields
}

// Info logs an informational message with structured fields
func Info(msg string, fields Fields) {
	log.WithFields(log.Fields(fields)).Info(msg)
	breadcrumb("info", msg, fields, sentry.LevelInfo)
}

// Error logs an error message with structured fields and sends to Sentry
func Error(msg string, err error, fields Fields) {
	entry := log.WithFields(log.Fields(fields))
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Error(msg)

	if err == nil {
		return
	}
	if hub := sentry.CurrentHub(); hub.Client() != nil {
		hub.WithScope(func(scope *sentry.Scope) {
			for key, value := range fields {
				scope.SetContext(key, map[string]interface{}{
					"value": value,
				})
			}
			setTags(scope, fields)
			hub.CaptureException(err)
		})
	}
}

// Warn logs a warning message with structured fields
func Warn(msg string, fields Fields) {
	log.WithFields(log.Fields(fields)).Warn(msg)
	breadcrumb("warning", msg, fields, sentry.LevelWarning)
}

// Debug logs a debug message with structured fields
func Debug(msg string, fields Fields) {
	if !log.IsLevelEnabled(log.DebugLevel) {
		return
	}
	log.WithFields(log.Fields(fields)).Debug(msg)
	breadcrumb("debug", msg, fields, sentry.LevelDebug)
}

// LogAPIRequest logs API request metrics
func LogAPIRequest(c *gin.Context, duration time.Duration, statusCode int, fields Fields) {
	if fields == nil {
		fields = Fields{}
	}

	fields["duration_ms"] = duration.Milliseconds()
	fields["status_code"] = statusCode
	fields["request_id"] = c.GetString("request_id")
	fields["method"] = c.Request.Method
	fields["path"] = c.Request.URL.Path
	fields["client_ip"] = c.ClientIP()

	Info("API request completed", fields)
}

// LogGenerationRequest logs a finished melody generation and records it as a
// Sentry span when the context carries a hub.
func LogGenerationRequest(ctx context.Context, oracleName string, duration time.Duration, seedLength, melodyLength int, fields Fields) {
	if fields == nil {
		fields = Fields{}
	}

	fields["oracle"] = oracleName
	fields["duration_ms"] = duration.Milliseconds()
	fields["seed_symbols"] = seedLength
	fields["melody_symbols"] = melodyLength
	fields["generated_symbols"] = melodyLength - seedLength

	Info("Generation request completed", fields)

	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		span := sentry.StartSpan(ctx, "melody.generate")
		span.Description = oracleName
		span.SetData("melody_symbols", melodyLength)
		span.Finish()
	}
}

// LogToSentry sends a log message directly to Sentry as an event
func LogToSentry(level sentry.Level, msg string, fields Fields) {
	if hub := sentry.CurrentHub(); hub.Client() != nil {
		hub.WithScope(func(scope *sentry.Scope) {
			scope.SetLevel(level)
			for key, value := range fields {
				scope.SetContext(key, map[string]interface{}{
					"value": value,
				})
			}
			setTags(scope, fields)
			hub.CaptureMessage(msg)
		})
	}
}

func breadcrumb(kind, msg string, fields Fields, level sentry.Level) {
	if hub := sentry.CurrentHub(); hub.Client() != nil {
		sentry.AddBreadcrumb(&sentry.Breadcrumb{
			Type:     kind,
			Category: "log",
			Message:  msg,
			Data:     convertFieldsToMap(fields),
			Level:    level,
		})
	}
}

// Tags used for filtering in Sentry
func setTags(scope *sentry.Scope, fields Fields) {
	if requestID, ok := fields["request_id"].(string); ok {
		scope.SetTag("request_id", requestID)
	}
	if oracleName, ok := fields["oracle"].(string); ok {
		scope.SetTag("oracle", oracleName)
	}
}

func convertFieldsToMap(fields Fields) map[string]interface{} {
	result := make(map[string]interface{})
	for k, v := range fields {
		result[k] = v
	}
	return result
}

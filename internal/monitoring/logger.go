package monitoring

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/ZanzyTHEbar/aq10-triage/internal/screening"
)

// Logger provides structured logging with domain helpers
type Logger struct {
	*slog.Logger
}

// NewLogger creates a JSON logger writing to stdout at the given level
func NewLogger(level slog.Level) *Logger {
	return NewLoggerWithWriter(os.Stdout, level)
}

// NewLoggerWithWriter creates a JSON logger writing to w
func NewLoggerWithWriter(w io.Writer, level slog.Level) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	})

	return &Logger{
		Logger: slog.New(handler),
	}
}

// RequestLogger logs HTTP request details
func (l *Logger) RequestLogger(requestID, method, path, ip string, statusCode int, duration time.Duration) {
	l.Info("HTTP Request",
		"request_id", requestID,
		"method", method,
		"path", path,
		"ip", ip,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	)
}

// ScreeningLogger logs the outcome of one submission. Answers and demographics are
// never logged.
func (l *Logger) ScreeningLogger(requestID string, res screening.ScreeningResult, duration time.Duration) {
	attrs := []any{
		"request_id", requestID,
		"raw_score", res.RawScore,
		"predicted_class", res.PredictedClass,
		"elevated_risk", res.ElevatedRisk,
		"override_applied", res.OverrideApplied,
		"duration_ms", duration.Milliseconds(),
	}
	if res.Probability != nil {
		attrs = append(attrs, "probability", *res.Probability)
	}
	l.Info("Screening Completed", attrs...)
}

// ArtifactLogger logs what was loaded at startup
func (l *Logger) ArtifactLogger(dir, kind string, columns int, bindingMode string, unbound []screening.Field) {
	level := slog.LevelInfo
	if len(unbound) > 0 {
		level = slog.LevelWarn
	}
	l.Log(context.Background(), level, "Artifacts Loaded",
		"dir", dir,
		"model_kind", kind,
		"columns", columns,
		"binding", bindingMode,
		"unbound_fields", unbound,
	)
}

// APIErrorLogger logs API errors with context
func (l *Logger) APIErrorLogger(err error, method, path, ip string, statusCode int) {
	log := l.Error
	if statusCode < http.StatusInternalServerError {
		// client errors
		log = l.Warn
	}
	log("API Error",
		"error", err.Error(),
		"method", method,
		"path", path,
		"ip", ip,
		"status_code", statusCode,
	)
}

// SystemLogger logs system-level events
func (l *Logger) SystemLogger(event, details string) {
	l.Info("System Event",
		"event", event,
		"details", details,
		"uptime", Uptime().String(),
	)
}

// SecurityLogger logs security-related events
func (l *Logger) SecurityLogger(event, ip string, details map[string]interface{}) {
	attrs := []any{
		"event", event,
		"ip", ip,
	}
	for key, value := range details {
		attrs = append(attrs, key, value)
	}
	l.Warn("Security Event", attrs...)
}

var startTime = time.Now()

// Uptime returns the time since process start
func Uptime() time.Duration {
	return time.Since(startTime)
}

func statusLabel(code int) string {
	return strconv.Itoa(code)
}

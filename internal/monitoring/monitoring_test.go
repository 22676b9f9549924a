package monitoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/aq10-triage/internal/screening"
)

func TestMetrics_RecordScreening(t *testing.T) {
	m := NewMetrics()

	m.RecordScreening(screening.ScreeningResult{RawScore: 8, ElevatedRisk: true, OverrideApplied: true})
	m.RecordScreening(screening.ScreeningResult{RawScore: 2})
	m.RecordFailure("inference")
	m.RecordRequest(http.MethodPost, "/screen", http.StatusInternalServerError, time.Millisecond)

	stats := m.GetStats()
	assert.Equal(t, int64(2), stats["screenings"])
	assert.Equal(t, int64(1), stats["elevated_screenings"])
	assert.Equal(t, int64(1), stats["failed_screenings"])
	assert.Equal(t, int64(1), stats["requests"])
	assert.Equal(t, int64(1), stats["errors"])

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()

	assert.Contains(t, body, `aq10_screenings_total{outcome="elevated"} 1`)
	assert.Contains(t, body, `aq10_screenings_total{outcome="not_elevated"} 1`)
	assert.Contains(t, body, `aq10_score_overrides_total 1`)
	assert.Contains(t, body, `aq10_screening_failures_total{category="inference"} 1`)
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, RequestID(c))
	})

	t.Run("generates an id", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		_, err := uuid.Parse(w.Body.String())
		require.NoError(t, err)
		assert.Equal(t, w.Body.String(), w.Header().Get(RequestIDHeader))
	})

	t.Run("keeps a valid incoming id", func(t *testing.T) {
		id := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, id)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, id, w.Body.String())
	})

	t.Run("replaces a malformed incoming id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "<script>")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.NotEqual(t, "<script>", w.Body.String())
	})
}

func TestScreeningLogger_OmitsAnswers(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, slog.LevelInfo)
	p := 0.75

	logger.ScreeningLogger("req-1", screening.ScreeningResult{
		RawScore:       7,
		Items:          screening.ItemScores{1, 1, 1, 1, 1, 1, 1, 0, 0, 0},
		PredictedClass: 1,
		Probability:    &p,
		ElevatedRisk:   true,
	}, 3*time.Millisecond)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Screening Completed", entry["msg"])
	assert.Equal(t, float64(7), entry["raw_score"])
	assert.Equal(t, 0.75, entry["probability"])
	assert.Contains(t, entry, "timestamp")
	assert.NotContains(t, entry, "items")
	assert.False(t, strings.Contains(buf.String(), "answers"))
}

func TestMonitoringMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	metrics := NewMetrics()

	r := gin.New()
	r.Use(MonitoringMiddleware(metrics, NewLoggerWithWriter(&buf, slog.LevelInfo)))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

	stats := metrics.GetStats()
	assert.Equal(t, int64(2), stats["requests"])
	assert.Equal(t, int64(1), stats["errors"])
	assert.Contains(t, buf.String(), `"path":"/health"`)
	assert.Contains(t, buf.String(), `"path":"unmatched"`)
}

func TestMonitoringMiddleware_ErrorLevels(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{"rejected input", http.StatusBadRequest, "WARN"},
		{"rate limited", http.StatusTooManyRequests, "WARN"},
		{"inference failure", http.StatusInternalServerError, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			r := gin.New()
			r.Use(MonitoringMiddleware(NewMetrics(), NewLoggerWithWriter(&buf, slog.LevelInfo)))
			r.POST("/screen", func(c *gin.Context) {
				_ = c.Error(errors.New("boom"))
				c.Status(tt.status)
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/screen", nil))
			require.Equal(t, tt.status, w.Code)

			var found bool
			for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
				var entry map[string]interface{}
				require.NoError(t, json.Unmarshal([]byte(line), &entry))
				if entry["msg"] != "API Error" {
					continue
				}
				found = true
				assert.Equal(t, tt.wantLevel, entry["level"])
				assert.Equal(t, float64(tt.status), entry["status_code"])
			}
			assert.True(t, found, "no API Error entry in %s", buf.String())
		})
	}
}

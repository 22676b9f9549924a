package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/aq10-triage/internal/config"
	apperrors "github.com/ZanzyTHEbar/aq10-triage/internal/errors"
	"github.com/ZanzyTHEbar/aq10-triage/internal/model"
	"github.com/ZanzyTHEbar/aq10-triage/internal/monitoring"
	"github.com/ZanzyTHEbar/aq10-triage/internal/report"
	"github.com/ZanzyTHEbar/aq10-triage/internal/screening"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Port: "0", RequestTimeout: 5 * time.Second},
		Artifacts: config.ArtifactsConfig{Dir: "demo", StrictBinding: true},
		Logging:   config.LoggingConfig{Level: "error"},
		Security: config.SecurityConfig{
			RateLimitPerMin: 600,
			AllowedOrigins:  []string{"http://localhost:5173"},
		},
	}
}

func setupTestServer(t *testing.T, cfg *config.Config) (*server, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := monitoring.NewLoggerWithWriter(io.Discard, slog.LevelError)
	s, err := newServer(cfg, model.DemoArtifacts(), logger, monitoring.NewMetrics())
	require.NoError(t, err)

	return s, newRouter(s)
}

func answers(v bool) []bool {
	out := make([]bool, screening.ItemCount)
	for i := range out {
		out[i] = v
	}
	return out
}

func postJSON(r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(body)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	_, r := setupTestServer(t, testConfig())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "logistic_regression", body["model"])
	assert.Equal(t, float64(14), body["columns"])
	assert.Equal(t, true, body["probability"])
	assert.Contains(t, body, "uptime")

	_, err := uuid.Parse(w.Header().Get(monitoring.RequestIDHeader))
	assert.NoError(t, err)
}

func TestSchemaEndpoint(t *testing.T) {
	_, r := setupTestServer(t, testConfig())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/schema", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Binding string         `json:"binding"`
		Columns []schemaColumn `json:"columns"`
		Unbound []string       `json:"unbound"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "declared", body.Binding)
	assert.Empty(t, body.Unbound)
	require.Len(t, body.Columns, len(model.DemoColumns))
	assert.Equal(t, "A1_Score", body.Columns[0].Column)
	require.NotNil(t, body.Columns[0].Field)
	assert.Equal(t, screening.Field("a1"), *body.Columns[0].Field)
	require.NotNil(t, body.Columns[13].Field)
	assert.Equal(t, screening.FieldFamilyHistory, *body.Columns[13].Field)
}

func TestScreeningsEndpoint(t *testing.T) {
	_, r := setupTestServer(t, testConfig())

	tests := []struct {
		name         string
		req          map[string]any
		wantRaw      int
		wantElevated bool
		wantHeadline string
	}{
		{
			name:         "all no",
			req:          map[string]any{"answers": answers(false), "age": 36, "sex": "Masculino"},
			wantRaw:      8,
			wantElevated: true,
			wantHeadline: report.HeadlineElevated,
		},
		{
			name:         "all yes",
			req:          map[string]any{"answers": answers(true), "age": 36, "sex": "Feminino"},
			wantRaw:      2,
			wantHeadline: report.HeadlineLow,
		},
		{
			name:         "english sex label",
			req:          map[string]any{"answers": answers(false), "age": 120, "sex": "female", "jaundice": true},
			wantRaw:      8,
			wantElevated: true,
			wantHeadline: report.HeadlineElevated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(r, "/api/v1/screenings", tt.req)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			var resp struct {
				ID              string                `json:"id"`
				RawScore        int                   `json:"raw_score"`
				Items           []int                 `json:"items"`
				Probability     *float64              `json:"probability"`
				Confidence      *float64              `json:"confidence"`
				ElevatedRisk    bool                  `json:"elevated_risk"`
				OverrideApplied bool                  `json:"override_applied"`
				Recommendation  report.Recommendation `json:"recommendation"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

			_, err := uuid.Parse(resp.ID)
			assert.NoError(t, err)
			assert.Equal(t, tt.wantRaw, resp.RawScore)
			assert.Len(t, resp.Items, screening.ItemCount)
			assert.Equal(t, tt.wantElevated, resp.ElevatedRisk)
			assert.False(t, resp.OverrideApplied)
			assert.Equal(t, tt.wantHeadline, resp.Recommendation.Headline)
			require.NotNil(t, resp.Probability)
			require.NotNil(t, resp.Confidence)
			assert.GreaterOrEqual(t, *resp.Confidence, 0.5)
		})
	}
}

func TestScreeningsEndpoint_SafetyOverride(t *testing.T) {
	_, r := setupTestServer(t, testConfig())

	// raw score 6 with demographics that pull the demo model below its threshold
	ans := answers(false)
	ans[5], ans[6] = true, true
	w := postJSON(r, "/api/v1/screenings", map[string]any{
		"answers": ans, "age": 120, "sex": "Feminino",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(6), resp["raw_score"])
	assert.Equal(t, float64(0), resp["predicted_class"])
	assert.Equal(t, true, resp["elevated_risk"])
	assert.Equal(t, true, resp["override_applied"])
	rec := resp["recommendation"].(map[string]any)
	assert.Equal(t, report.OverrideNote, rec["override_note"])
}

func TestScreeningsEndpoint_Validation(t *testing.T) {
	_, r := setupTestServer(t, testConfig())

	tests := []struct {
		name      string
		body      any
		wantField string
	}{
		{"nine answers", map[string]any{"answers": answers(false)[:9], "age": 36, "sex": "Masculino"}, "Answers"},
		{"missing answers", map[string]any{"age": 36, "sex": "Masculino"}, "Answers"},
		{"age zero", map[string]any{"answers": answers(false), "age": 0, "sex": "Masculino"}, "Age"},
		{"age too high", map[string]any{"answers": answers(false), "age": 121, "sex": "Masculino"}, "Age"},
		{"unknown sex", map[string]any{"answers": answers(false), "age": 36, "sex": "X"}, ""},
		{"not an object", "answers", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(r, "/api/v1/screenings", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "validation", body["category"])
			if tt.wantField == "" {
				assert.NotContains(t, body, "fields")
				return
			}
			fields, ok := body["fields"].(map[string]any)
			require.True(t, ok, "expected per-field errors in %s", w.Body.String())
			assert.Contains(t, fields, tt.wantField)
		})
	}
}

func TestScreeningsEndpoint_InferenceFailure(t *testing.T) {
	s, r := setupTestServer(t, testConfig())

	artifacts := model.DemoArtifacts()
	s.screener = screening.NewScreener(
		s.screener.Binding(),
		&model.StandardScaler{Mean: []float64{0}, Scale: []float64{1}},
		artifacts.Classifier,
	)

	w := postJSON(r, "/api/v1/screenings", map[string]any{
		"answers": answers(false), "age": 36, "sex": "Masculino",
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "inference", body["category"])

	stats := s.metrics.GetStats()
	assert.Equal(t, int64(1), stats["failed_screenings"])
	assert.Equal(t, int64(0), stats["screenings"])
}

func TestFormRoutes(t *testing.T) {
	s, r := setupTestServer(t, testConfig())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "nonce-")
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))

	form := url.Values{}
	for i := 1; i <= screening.ItemCount; i++ {
		form.Set(fmt.Sprintf("q%d", i), "Não")
	}
	form.Set("idade", "36")
	form.Set("genero", "Masculino")
	form.Set("ictericia", "Não")
	form.Set("familia", "Não")

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/screen", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), report.HeadlineElevated)
	assert.Contains(t, w.Body.String(), "8/10")
	assert.Equal(t, int64(1), s.metrics.GetStats()["elevated_screenings"])
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RateLimitPerMin = 1
	s, r := setupTestServer(t, cfg)

	body := map[string]any{"answers": answers(true), "age": 36, "sex": "Masculino"}
	var last *httptest.ResponseRecorder
	for i := 0; i < 6; i++ {
		last = postJSON(r, "/api/v1/screenings", body)
	}

	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(last.Body.Bytes(), &resp))
	assert.Equal(t, "rate_limit", resp["category"])

	// the same bucket covers the HTML submission
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/screen", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), tooManyRequests)

	// reads are never limited
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/schema", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, int64(5), s.metrics.GetStats()["screenings"])
}

func TestCORS(t *testing.T) {
	_, r := setupTestServer(t, testConfig())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/screenings", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	r.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewServer_StrictBinding(t *testing.T) {
	artifacts := model.DemoArtifacts()
	artifacts.Declared = nil
	artifacts.Columns[7] = "Q8_Points"

	logger := monitoring.NewLoggerWithWriter(io.Discard, slog.LevelError)

	_, err := newServer(testConfig(), artifacts, logger, monitoring.NewMetrics())
	require.Error(t, err)
	assert.ErrorIs(t, err, screening.ErrUnboundFields)
	assert.Equal(t, apperrors.CategoryConfiguration, apperrors.ToAppError(err).Category)

	cfg := testConfig()
	cfg.Artifacts.StrictBinding = false
	s, err := newServer(cfg, artifacts, logger, monitoring.NewMetrics())
	require.NoError(t, err)
	assert.Equal(t, []screening.Field{screening.ItemField(8)}, s.screener.Binding().Missing())
}

func TestNotFound(t *testing.T) {
	_, r := setupTestServer(t, testConfig())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

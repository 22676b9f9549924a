package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/aq10-triage/internal/screening"
)

func f(v float64) *float64 { return &v }

func TestRecommend(t *testing.T) {
	tests := []struct {
		name         string
		res          screening.ScreeningResult
		wantHeadline string
		wantGuidance string
		wantOverride bool
	}{
		{
			name:         "low",
			res:          screening.ScreeningResult{RawScore: 2},
			wantHeadline: HeadlineLow,
			wantGuidance: GuidanceLow,
		},
		{
			name:         "elevated by model",
			res:          screening.ScreeningResult{RawScore: 3, PredictedClass: 1, ElevatedRisk: true},
			wantHeadline: HeadlineElevated,
			wantGuidance: GuidanceElevated,
		},
		{
			name:         "elevated by override",
			res:          screening.ScreeningResult{RawScore: 7, ElevatedRisk: true, OverrideApplied: true},
			wantHeadline: HeadlineElevated,
			wantGuidance: GuidanceElevated,
			wantOverride: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Recommend(tt.res)
			assert.Equal(t, tt.wantHeadline, rec.Headline)
			assert.Equal(t, tt.wantGuidance, rec.Guidance)
			assert.Equal(t, Disclaimer, rec.Disclaimer)
			assert.Equal(t, tt.wantOverride, rec.OverrideNote != "")
		})
	}
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "0/10", RawScoreLabel(0))
	assert.Equal(t, "6/10", RawScoreLabel(6))

	assert.Equal(t, "", ConfidenceLabel(nil))
	assert.Equal(t, "87.3%", ConfidenceLabel(f(0.873)))
	assert.Equal(t, "100.0%", ConfidenceLabel(f(1)))
}

func TestNewPanel(t *testing.T) {
	res := screening.ScreeningResult{
		RawScore:       2,
		Items:          screening.ItemScores{1, 0, 0, 0, 0, 0, 0, 0, 0, 1},
		PredictedClass: 0,
		Confidence:     f(0.9),
	}

	p := NewPanel(res)

	assert.Equal(t, ToneOK, p.Tone)
	assert.Equal(t, "2/10", p.RawScore)
	assert.Equal(t, "90.0%", p.Confidence)
	require.Len(t, p.Items, screening.ItemCount)
	assert.Equal(t, ItemLine{ID: "A1", Point: true}, p.Items[0])
	assert.Equal(t, ItemLine{ID: "A10", Point: true}, p.Items[9])
	assert.False(t, p.Items[4].Point)

	res.ElevatedRisk = true
	assert.Equal(t, ToneAlert, NewPanel(res).Tone)
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	p := NewPanel(screening.ScreeningResult{RawScore: 8, ElevatedRisk: true, OverrideApplied: true})

	require.NoError(t, WriteText(&buf, p))

	out := buf.String()
	assert.Contains(t, out, "Resultado: INDICATIVO DE TEA")
	assert.Contains(t, out, "Pontuação AQ-10: 8/10")
	assert.NotContains(t, out, "Confiança do modelo")
	assert.Contains(t, out, OverrideNote)
	assert.Contains(t, out, Disclaimer)
}

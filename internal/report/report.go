// Package report turns a screening result into the texts shown to the person
// who filled in the questionnaire.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/ZanzyTHEbar/aq10-triage/internal/screening"
)

const (
	HeadlineElevated = "INDICATIVO DE TEA"
	HeadlineLow      = "BAIXA PROBABILIDADE"

	GuidanceElevated = "Recomenda-se encaminhamento para avaliação multidisciplinar."
	GuidanceLow      = "O padrão de respostas não indica traços fortes no momento. Continue o acompanhamento padrão."

	Disclaimer = "Este resultado é uma triagem baseada em dados estatísticos e NÃO substitui o diagnóstico médico."

	OverrideNote = "Pontuação AQ-10 igual ou superior a 6: o indicativo foi elevado pela regra de segurança, independentemente da previsão do modelo."

	TechnicalError = "Erro técnico ao processar a triagem. Tente novamente."
)

// Tone selects the visual style of the result panel.
type Tone string

const (
	ToneAlert Tone = "alert"
	ToneOK    Tone = "ok"
)

// Recommendation is the textual part of a result, as returned by the JSON API.
type Recommendation struct {
	Headline     string `json:"headline" yaml:"headline"`
	Guidance     string `json:"guidance" yaml:"guidance"`
	Disclaimer   string `json:"disclaimer" yaml:"disclaimer"`
	OverrideNote string `json:"override_note,omitempty" yaml:"override_note,omitempty"`
}

// Recommend picks the recommendation texts for a result.
func Recommend(res screening.ScreeningResult) Recommendation {
	rec := Recommendation{
		Headline:   HeadlineLow,
		Guidance:   GuidanceLow,
		Disclaimer: Disclaimer,
	}
	if res.ElevatedRisk {
		rec.Headline = HeadlineElevated
		rec.Guidance = GuidanceElevated
	}
	if res.OverrideApplied {
		rec.OverrideNote = OverrideNote
	}
	return rec
}

// Panel is the view model of the rendered result.
type Panel struct {
	Recommendation
	Tone       Tone
	RawScore   string
	Confidence string
	Items      []ItemLine
}

// ItemLine shows whether one questionnaire item contributed a trait point.
type ItemLine struct {
	ID    string
	Point bool
}

// NewPanel builds the result panel for res.
func NewPanel(res screening.ScreeningResult) Panel {
	p := Panel{
		Recommendation: Recommend(res),
		Tone:           ToneOK,
		RawScore:       RawScoreLabel(res.RawScore),
		Confidence:     ConfidenceLabel(res.Confidence),
		Items:          make([]ItemLine, 0, screening.ItemCount),
	}
	if res.ElevatedRisk {
		p.Tone = ToneAlert
	}
	for i, pts := range res.Items {
		p.Items = append(p.Items, ItemLine{
			ID:    fmt.Sprintf("A%d", i+1),
			Point: pts == 1,
		})
	}
	return p
}

// RawScoreLabel formats a raw score out of the item count, e.g. "7/10".
func RawScoreLabel(raw int) string {
	return fmt.Sprintf("%d/%d", raw, screening.ItemCount)
}

// ConfidenceLabel formats a confidence as a percentage with one decimal.
// It returns "" when the model exposes no probability.
func ConfidenceLabel(confidence *float64) string {
	if confidence == nil {
		return ""
	}
	return fmt.Sprintf("%.1f%%", *confidence*100)
}

// WriteText prints the panel as plain text.
func WriteText(w io.Writer, p Panel) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Resultado: %s\n", p.Headline)
	fmt.Fprintf(&b, "Pontuação AQ-10: %s\n", p.RawScore)
	if p.Confidence != "" {
		fmt.Fprintf(&b, "Confiança do modelo: %s\n", p.Confidence)
	}
	if p.OverrideNote != "" {
		fmt.Fprintf(&b, "Nota: %s\n", p.OverrideNote)
	}
	fmt.Fprintf(&b, "%s\n", p.Guidance)
	fmt.Fprintf(&b, "Atenção: %s\n", p.Disclaimer)

	_, err := io.WriteString(w, b.String())
	return err
}

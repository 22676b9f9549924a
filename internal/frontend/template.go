package frontend

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/aq10-triage/internal/report"
	"github.com/ZanzyTHEbar/aq10-triage/internal/screening"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer executes the embedded page templates.
type Renderer struct {
	tmpl *template.Template
}

// LoadTemplates parses the embedded templates.
func LoadTemplates() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

type formData struct {
	Nonce     string
	Error     string
	Questions []Question
	Sexes     []screening.Sex
	Sex       screening.Sex
	Age       int
	MinAge    int
	MaxAge    int
}

type resultData struct {
	Nonce string
	Panel report.Panel
}

type errorData struct {
	Nonce   string
	Message string
}

// RenderForm writes the questionnaire page. A non-empty msg is shown above the form.
func (r *Renderer) RenderForm(c *gin.Context, status int, nonce, msg string) error {
	return r.render(c, status, "form", formData{
		Nonce:     nonce,
		Error:     msg,
		Questions: Questions,
		Sexes:     []screening.Sex{screening.SexMale, screening.SexFemale},
		Sex:       screening.ReferenceSex,
		Age:       DefaultAge,
		MinAge:    screening.MinAge,
		MaxAge:    screening.MaxAge,
	})
}

// RenderResult writes the result panel.
func (r *Renderer) RenderResult(c *gin.Context, nonce string, panel report.Panel) error {
	return r.render(c, http.StatusOK, "result", resultData{Nonce: nonce, Panel: panel})
}

// RenderError writes a page with a single message.
func (r *Renderer) RenderError(c *gin.Context, status int, nonce, msg string) error {
	return r.render(c, status, "error", errorData{Nonce: nonce, Message: msg})
}

func (r *Renderer) render(c *gin.Context, status int, name string, data any) error {
	var buf bytes.Buffer

	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")

	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
	return nil
}

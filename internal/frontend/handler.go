package frontend

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/ZanzyTHEbar/aq10-triage/internal/errors"
	"github.com/ZanzyTHEbar/aq10-triage/internal/report"
	"github.com/ZanzyTHEbar/aq10-triage/internal/screening"
	"github.com/ZanzyTHEbar/aq10-triage/internal/security"
)

// InvalidForm is shown when the posted form fails validation.
const InvalidForm = "Preencha todas as respostas do formulário com valores válidos."

// ScreenFunc runs one submission through the screening pipeline.
type ScreenFunc func(c *gin.Context, sub screening.Submission) (screening.ScreeningResult, error)

func nonceFor(c *gin.Context) string {
	nonce := security.GetNonce(c)
	if nonce == "" {
		slog.Warn("CSP nonce not found in context, generating new one")
		nonce, _ = security.GenerateNonce()
	}
	return nonce
}

// NewFormHandler serves the questionnaire page.
func NewFormHandler(r *Renderer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := r.RenderForm(c, http.StatusOK, nonceFor(c), ""); err != nil {
			slog.Error("Failed to render form", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to render page"})
		}
	}
}

// NewScreenHandler handles the posted questionnaire and renders the result panel.
// A failed screening renders a technical-error page and leaves the service usable.
func NewScreenHandler(r *Renderer, screen ScreenFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		nonce := nonceFor(c)

		var form ScreeningForm
		if err := c.ShouldBind(&form); err != nil {
			_ = c.Error(apperrors.FromBindingError(err))
			renderOrAbort(c, r.RenderForm(c, http.StatusBadRequest, nonce, InvalidForm))
			return
		}

		sub, err := form.ToSubmission()
		if err != nil {
			_ = c.Error(apperrors.NewValidationError("invalid form", err.Error()))
			renderOrAbort(c, r.RenderForm(c, http.StatusBadRequest, nonce, InvalidForm))
			return
		}

		res, err := screen(c, sub)
		if err != nil {
			appErr := apperrors.ToAppError(err)
			_ = c.Error(appErr)
			renderOrAbort(c, r.RenderError(c, appErr.HTTPStatus, nonce, report.TechnicalError))
			return
		}

		renderOrAbort(c, r.RenderResult(c, nonce, report.NewPanel(res)))
	}
}

func renderOrAbort(c *gin.Context, err error) {
	if err != nil {
		slog.Error("Failed to render page", "error", err, "path", c.Request.URL.Path)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to render page"})
	}
}

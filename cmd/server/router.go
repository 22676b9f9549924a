package main

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	apperrors "github.com/ZanzyTHEbar/aq10-triage/internal/errors"
	"github.com/ZanzyTHEbar/aq10-triage/internal/frontend"
	"github.com/ZanzyTHEbar/aq10-triage/internal/middleware"
	"github.com/ZanzyTHEbar/aq10-triage/internal/monitoring"
	"github.com/ZanzyTHEbar/aq10-triage/internal/security"
)

// tooManyRequests is shown on the HTML page when the submission limit is hit.
const tooManyRequests = "Muitas solicitações em pouco tempo. Aguarde um momento e tente novamente."

func newRouter(s *server) *gin.Engine {
	r := gin.New()

	// Request id and monitoring first so every response is counted
	r.Use(monitoring.RequestIDMiddleware())
	r.Use(monitoring.MonitoringMiddleware(s.metrics, s.logger))

	r.Use(apperrors.ErrorHandler())
	r.Use(apperrors.RecoveryHandler())
	r.Use(security.SecurityHeadersMiddleware(s.cfg.Security.EnableHSTS))

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	// HTML form
	compression := middleware.NewCompressionMiddleware(middleware.DefaultCompressionConfig())
	pages := r.Group("/", security.CSPMiddleware(), compression.Handler())
	{
		pages.GET("/", frontend.NewFormHandler(s.renderer))
		pages.POST("/screen", s.limiter.Middleware(), frontend.NewScreenHandler(s.renderer, s.screen))
	}

	// JSON API
	api := r.Group("/api/v1", cors.New(cors.Config{
		AllowOrigins:  s.cfg.Security.AllowedOrigins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", monitoring.RequestIDHeader},
		ExposeHeaders: []string{monitoring.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}))
	{
		api.GET("/schema", s.handleSchema)
		api.POST("/screenings", s.limiter.Middleware(), s.handleScreening)
		// preflight requests only reach the cors middleware through a matching route
		api.OPTIONS("/*path", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return r
}

func (s *server) rejectRateLimited(c *gin.Context) {
	s.metrics.IncrementRateLimited()
	s.logger.SecurityLogger("rate_limited", c.ClientIP(), map[string]interface{}{
		"path": c.Request.URL.Path,
	})

	if c.FullPath() == "/screen" {
		nonce := security.GetNonce(c)
		if err := s.renderer.RenderError(c, http.StatusTooManyRequests, nonce, tooManyRequests); err == nil {
			return
		}
	}

	appErr := apperrors.NewRateLimitError("1m")
	appErr.RequestID = monitoring.RequestID(c)
	c.JSON(appErr.HTTPStatus, appErr)
}

package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/ZanzyTHEbar/aq10-triage/internal/errors"
	"github.com/ZanzyTHEbar/aq10-triage/internal/monitoring"
	"github.com/ZanzyTHEbar/aq10-triage/internal/report"
	"github.com/ZanzyTHEbar/aq10-triage/internal/screening"
)

type screeningRequest struct {
	Answers       []bool `json:"answers" binding:"required,len=10"`
	Age           int    `json:"age" binding:"required,min=1,max=120"`
	Sex           string `json:"sex" binding:"required"`
	Jaundice      bool   `json:"jaundice"`
	FamilyHistory bool   `json:"family_history"`
}

func (req screeningRequest) toSubmission() (screening.Submission, error) {
	var sub screening.Submission

	copy(sub.Answers[:], req.Answers)

	sex, err := screening.ParseSex(req.Sex)
	if err != nil {
		return sub, err
	}
	sub.Profile = screening.DemographicProfile{
		Age:           req.Age,
		Sex:           sex,
		Jaundice:      req.Jaundice,
		FamilyHistory: req.FamilyHistory,
	}
	return sub, sub.Profile.Validate()
}

type screeningResponse struct {
	ID string `json:"id"`
	screening.ScreeningResult
	Recommendation report.Recommendation `json:"recommendation"`
}

type schemaColumn struct {
	Column string           `json:"column"`
	Field  *screening.Field `json:"field"`
}

// screen runs one submission with the request timeout and records its outcome.
func (s *server) screen(c *gin.Context, sub screening.Submission) (screening.ScreeningResult, error) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.Server.RequestTimeout)
	defer cancel()

	start := time.Now()
	res, err := s.screener.Screen(ctx, sub)
	if err != nil {
		s.metrics.RecordFailure(string(apperrors.ToAppError(err).Category))
		return res, err
	}

	s.metrics.RecordScreening(res)
	s.logger.ScreeningLogger(monitoring.RequestID(c), res, time.Since(start))
	return res, nil
}

func (s *server) handleScreening(c *gin.Context) {
	var req screeningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, apperrors.FromBindingError(err))
		return
	}

	sub, err := req.toSubmission()
	if err != nil {
		s.writeError(c, apperrors.NewValidationError("Invalid screening request", err.Error()))
		return
	}

	res, err := s.screen(c, sub)
	if err != nil {
		s.writeError(c, apperrors.ToAppError(err))
		return
	}

	c.JSON(http.StatusOK, screeningResponse{
		ID:              uuid.NewString(),
		ScreeningResult: res,
		Recommendation:  report.Recommend(res),
	})
}

func (s *server) handleSchema(c *gin.Context) {
	binding := s.screener.Binding()
	columns := binding.Columns()

	out := make([]schemaColumn, len(columns))
	for i, col := range columns {
		out[i] = schemaColumn{Column: col}
		if f := binding.FieldAt(i); f != "" {
			out[i].Field = &f
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"binding": bindingMode(s.artifacts),
		"columns": out,
		"unbound": binding.Missing(),
	})
}

func (s *server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"model":       s.artifacts.Classifier.Kind,
		"columns":     len(s.artifacts.Columns),
		"probability": s.artifacts.Classifier.HasProbability(),
		"uptime":      monitoring.Uptime().String(),
		"stats":       s.metrics.GetStats(),
		"timestamp":   time.Now().Unix(),
	})
}

func (s *server) writeError(c *gin.Context, appErr *apperrors.AppError) {
	appErr.RequestID = monitoring.RequestID(c)
	apperrors.LogError(c, appErr)
	c.JSON(appErr.HTTPStatus, appErr)
}

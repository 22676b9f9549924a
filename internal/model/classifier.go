package model

import (
	"fmt"
	"math"

	"github.com/ZanzyTHEbar/aq10-triage/internal/screening"
)

// Kind names the family of linear model stored in model.json.
type Kind string

const (
	KindLinearSVC          Kind = "linear_svc"
	KindLogisticRegression Kind = "logistic_regression"
)

// PlattParams calibrate an SVM decision value into a probability: 1/(1+exp(A*f+B)).
type PlattParams struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// LinearClassifier is a binary linear model: f = w.x + b, positive when f > 0.
type LinearClassifier struct {
	Kind         Kind         `json:"kind"`
	Classes      []int        `json:"classes"`
	Coefficients []float64    `json:"coefficients"`
	Intercept    float64      `json:"intercept"`
	Platt        *PlattParams `json:"platt,omitempty"`
}

func (c *LinearClassifier) validate() error {
	switch c.Kind {
	case KindLinearSVC, KindLogisticRegression:
	default:
		return fmt.Errorf("unsupported model kind %q", c.Kind)
	}
	if len(c.Classes) != 2 {
		return fmt.Errorf("expected 2 classes, got %d", len(c.Classes))
	}
	if c.Classes[1] != screening.PositiveClass || c.Classes[0] == c.Classes[1] {
		return fmt.Errorf("classes must be [negative, %d], got %v", screening.PositiveClass, c.Classes)
	}
	if len(c.Coefficients) == 0 {
		return fmt.Errorf("model has no coefficients")
	}
	for i, w := range c.Coefficients {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("coefficient %d is not finite", i)
		}
	}
	return nil
}

// NumFeatures is the row width the model expects.
func (c *LinearClassifier) NumFeatures() int {
	return len(c.Coefficients)
}

// Decision returns the signed distance to the separating hyperplane.
func (c *LinearClassifier) Decision(row []float64) (float64, error) {
	if len(row) != len(c.Coefficients) {
		return 0, fmt.Errorf("%w: model expects %d features, got %d", ErrShapeMismatch, len(c.Coefficients), len(row))
	}
	f := c.Intercept
	for i, w := range c.Coefficients {
		f += w * row[i]
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("decision value is not finite")
	}
	return f, nil
}

// Predict returns Classes[1] when the decision value is positive, Classes[0] otherwise.
func (c *LinearClassifier) Predict(row []float64) (int, error) {
	f, err := c.Decision(row)
	if err != nil {
		return 0, err
	}
	if f > 0 {
		return c.Classes[1], nil
	}
	return c.Classes[0], nil
}

// PredictProbability returns the probability of Classes[1]. ok is false for an
// SVM stored without Platt parameters.
func (c *LinearClassifier) PredictProbability(row []float64) (float64, bool, error) {
	f, err := c.Decision(row)
	if err != nil {
		return 0, false, err
	}
	switch {
	case c.Kind == KindLogisticRegression:
		return sigmoid(f), true, nil
	case c.Platt != nil:
		return 1 / (1 + math.Exp(c.Platt.A*f+c.Platt.B)), true, nil
	}
	return 0, false, nil
}

// HasProbability reports whether PredictProbability can produce a value.
func (c *LinearClassifier) HasProbability() bool {
	return c.Kind == KindLogisticRegression || c.Platt != nil
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

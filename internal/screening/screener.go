package screening

import (
	"context"
	"errors"
	"fmt"
)

// ErrInference marks a scaling or prediction failure for one submission.
var ErrInference = errors.New("inference failed")

// Scaler transforms a reconciled row into the space the classifier was trained in.
type Scaler interface {
	Transform(row []float64) ([]float64, error)
}

// Classifier predicts a class label and, when it can, the positive-class probability.
type Classifier interface {
	Predict(row []float64) (int, error)
	PredictProbability(row []float64) (p float64, ok bool, err error)
}

// Screener runs the full per-submission pipeline against loaded artifacts.
// It holds no mutable state and is safe for concurrent use.
type Screener struct {
	binding    *Binding
	scaler     Scaler
	classifier Classifier
}

func NewScreener(binding *Binding, scaler Scaler, classifier Classifier) *Screener {
	return &Screener{binding: binding, scaler: scaler, classifier: classifier}
}

// Binding returns the column binding in use.
func (s *Screener) Binding() *Binding {
	return s.binding
}

// Screen scores, reconciles, scales and classifies one submission.
// Scaling and prediction errors are wrapped in ErrInference.
func (s *Screener) Screen(ctx context.Context, sub Submission) (ScreeningResult, error) {
	if err := ctx.Err(); err != nil {
		return ScreeningResult{}, err
	}

	score := Score(sub.Answers)
	row := s.binding.Reconcile(score.Items, sub.Profile)

	scaled, err := s.scaler.Transform(row.Values)
	if err != nil {
		return ScreeningResult{}, fmt.Errorf("%w: scale: %v", ErrInference, err)
	}

	predicted, err := s.classifier.Predict(scaled)
	if err != nil {
		return ScreeningResult{}, fmt.Errorf("%w: predict: %v", ErrInference, err)
	}

	res := ScreeningResult{
		RawScore:        score.Raw,
		Items:           score.Items,
		PredictedClass:  predicted,
		ElevatedRisk:    ElevatedRisk(predicted, score.Raw),
		OverrideApplied: overrideApplied(predicted, score.Raw),
	}

	p, ok, err := s.classifier.PredictProbability(scaled)
	if err != nil {
		return ScreeningResult{}, fmt.Errorf("%w: probability: %v", ErrInference, err)
	}
	if ok {
		conf := p
		if predicted != PositiveClass {
			conf = 1 - p
		}
		res.Probability = &p
		res.Confidence = &conf
	}
	return res, nil
}

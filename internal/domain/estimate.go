package domain

import (
	"fmt"
	"math"
)

// Prediction method labels exposed in the API response.
const (
	MethodModel     = "model"
	MethodRuleBased = "rule-based"
)

// Classifier produces a positive-class fire probability for a feature row.
// Implementations are loaded once at startup and must be safe for concurrent
// reads; they reject rows whose field names or order differ from their
// training schema.
type Classifier interface {
	PredictProbability(row []FeatureField) (float64, error)
}

// Prediction is the estimator output for one request.
type Prediction struct {
	Probability float64
	Method      string
}

// EstimateProbability runs the model-backed estimator when clf is non-nil and
// the rule-based estimator otherwise. The two paths are never mixed within a
// request. Probabilities are rounded to 4 decimal places.
func EstimateProbability(clf Classifier, v FeatureVector) (Prediction, error) {
	if clf == nil {
		return Prediction{Probability: RuleBasedProbability(v), Method: MethodRuleBased}, nil
	}

	p, err := clf.PredictProbability(v.Fields())
	if err != nil {
		return Prediction{}, fmt.Errorf("model prediction: %w", err)
	}
	return Prediction{Probability: round4(p), Method: MethodModel}, nil
}

// RuleBasedProbability is the deterministic fallback estimator used when no
// trained model is loaded. It starts from a 0.01 base and adds one band
// increment per signal; bands within a signal are mutually exclusive, bands
// across signals are additive. Comparisons are strict, so a value exactly at
// a boundary takes the lower band. The result is capped at 0.99.
//
// The thresholds are heuristic constants kept for parity with the trained
// model's historical fallback; they have no derivation beyond operator
// judgment and should be replaced by a trained model wherever one can be
// deployed.
func RuleBasedProbability(v FeatureVector) float64 {
	p := 0.01

	switch {
	case v.AvgTempC > 30:
		p += 0.20
	case v.AvgTempC > 25:
		p += 0.10
	case v.AvgTempC > 20:
		p += 0.05
	}

	switch {
	case v.AvgHumidity < 30:
		p += 0.20
	case v.AvgHumidity < 40:
		p += 0.10
	}

	switch {
	case v.PrecipMM < 1:
		p += 0.15
	case v.PrecipMM < 5:
		p += 0.05
	}

	switch {
	case v.AvgWindKnots > 15:
		p += 0.15
	case v.AvgWindKnots > 10:
		p += 0.10
	}

	return math.Min(0.99, round4(p))
}

func round4(p float64) float64 {
	return math.Round(p*10000) / 10000
}

// Package mlmodel loads trained fire-probability model parameters and serves
// predictions in-process. Parameters are exported offline from the training
// pipeline as a JSON file (ordered feature names, per-feature coefficients,
// intercept) so the service binary stays self-contained.
package mlmodel

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/couchcryptid/wildfire-risk-service/internal/domain"
)

// Model is a binary logistic classifier over the 14-field feature schema.
// Loaded once at process start and read-only thereafter; safe for concurrent
// use across requests.
type Model struct {
	features     []string
	coefficients []float64
	intercept    float64
}

// parameterFile is the on-disk JSON layout.
type parameterFile struct {
	ModelType    string    `json:"model_type"`
	Features     []string  `json:"features"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
}

// Load reads a model parameter file from path. A missing file returns an
// error wrapping fs.ErrNotExist so callers can fall back to rule-based mode.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}

	var pf parameterFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse model file: %w", err)
	}

	if pf.ModelType != "logistic_regression" {
		return nil, fmt.Errorf("unsupported model type %q", pf.ModelType)
	}
	if len(pf.Features) == 0 {
		return nil, fmt.Errorf("model file declares no features")
	}
	if len(pf.Coefficients) != len(pf.Features) {
		return nil, fmt.Errorf("model file has %d coefficients for %d features",
			len(pf.Coefficients), len(pf.Features))
	}

	return &Model{
		features:     pf.Features,
		coefficients: pf.Coefficients,
		intercept:    pf.Intercept,
	}, nil
}

// FeatureCount returns the number of features in the model's schema.
func (m *Model) FeatureCount() int {
	return len(m.features)
}

// PredictProbability returns the positive-class probability for a feature row.
// The row must match the model's schema in field names and order exactly;
// mismatches are rejected rather than silently reordered.
func (m *Model) PredictProbability(row []domain.FeatureField) (float64, error) {
	if len(row) != len(m.features) {
		return 0, fmt.Errorf("feature row has %d fields, model expects %d", len(row), len(m.features))
	}

	z := m.intercept
	for i, f := range row {
		if f.Name != m.features[i] {
			return 0, fmt.Errorf("feature %d is %q, model expects %q", i, f.Name, m.features[i])
		}
		z += m.coefficients[i] * f.Value
	}

	return 1 / (1 + math.Exp(-z)), nil
}

package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// AnalysisRequest carries the inputs for a narrative risk analysis.
type AnalysisRequest struct {
	FireProbability float64
	WeatherData     map[string]any
	Location        string
}

// Narrative is the structured risk analysis returned to the client.
type Narrative struct {
	RiskAssessment      string   `json:"risk_assessment"`
	ContributingFactors []string `json:"contributing_factors"`
	RecommendedActions  string   `json:"recommended_actions"`
}

// Analyst generates a free-form risk narrative. Implementations return raw
// text that is expected, but not guaranteed, to be a JSON object; callers run
// it through ParseNarrative. May be entirely absent (unconfigured).
type Analyst interface {
	GenerateAnalysis(ctx context.Context, req AnalysisRequest) (string, error)
}

// ParseNarrative recovers a structured narrative from raw analyst output.
// The upstream model is only informally instructed to emit JSON and regularly
// decorates it, so parsing runs as a chain: strip a fenced code block (with
// optional leading "json" tag), attempt a direct parse, then attempt a
// best-effort parse of the substring from the first '{' to the last '}'.
// A non-nil error means the text is not recoverable as JSON.
func ParseNarrative(text string) (Narrative, error) {
	text = stripFences(strings.TrimSpace(text))

	var n Narrative
	if err := json.Unmarshal([]byte(text), &n); err == nil {
		return n, nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(text[start:end+1]), &n); err == nil {
			return n, nil
		}
	}

	return Narrative{}, fmt.Errorf("analyst output is not valid JSON")
}

// stripFences removes a surrounding markdown code fence, along with an
// optional "json" language tag, leaving the inner text untouched otherwise.
func stripFences(text string) string {
	if !strings.HasPrefix(text, "```") || !strings.Contains(text[3:], "```") {
		return text
	}

	first := strings.Index(text, "```")
	last := strings.LastIndex(text, "```")
	if first == last {
		return text
	}

	inner := strings.TrimSpace(text[first+3 : last])
	if len(inner) >= 4 && strings.EqualFold(inner[:4], "json") {
		inner = strings.TrimSpace(inner[4:])
	}
	return inner
}

// RiskBucket maps a probability to the coarse risk label used in fallback
// narratives: high above 0.5, moderate above 0.3, low otherwise.
func RiskBucket(p float64) string {
	switch {
	case p > 0.5:
		return "high"
	case p > 0.3:
		return "moderate"
	default:
		return "low"
	}
}

// UnavailableNarrative is the deterministic fallback returned when no analyst
// is configured at all.
func UnavailableNarrative(p float64) Narrative {
	return Narrative{
		RiskAssessment: fmt.Sprintf(
			"AI analysis is not available. The fire probability is %s, which suggests a %s risk level.",
			formatPercent(p), RiskBucket(p)),
		ContributingFactors: []string{
			"Temperature and humidity conditions",
			"Recent precipitation levels",
			"Wind conditions",
		},
		RecommendedActions: "Please consult local fire authorities for specific recommendations based on your location and conditions.",
	}
}

// ServiceErrorNarrative is the fallback returned when the analyst call itself
// fails (network, auth, rate limit). Distinct from the parse-failure body.
func ServiceErrorNarrative(p float64) Narrative {
	return Narrative{
		RiskAssessment: fmt.Sprintf(
			"Based on the data, the fire probability is %s, which indicates a %s risk level.",
			formatPercent(p), RiskBucket(p)),
		ContributingFactors: []string{
			"Temperature conditions",
			"Humidity levels",
			"Precipitation data",
		},
		RecommendedActions: "Stay informed about local fire conditions and follow guidance from authorities.",
	}
}

// ParseFailureNarrative is the fixed fallback returned when the analyst
// responded but its output could not be recovered as JSON. It deliberately
// does not mention a risk bucket.
func ParseFailureNarrative() Narrative {
	return Narrative{
		RiskAssessment: "Unable to parse AI response. Based on the fire probability, there is a risk of wildfire in your area.",
		ContributingFactors: []string{
			"Weather conditions",
			"Environmental factors",
		},
		RecommendedActions: "Monitor local fire warnings and follow guidance from local authorities.",
	}
}

func formatPercent(p float64) string {
	return fmt.Sprintf("%.2f%%", p*100)
}

// Package openai generates wildfire risk narratives via the OpenAI chat
// completions API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/couchcryptid/wildfire-risk-service/internal/domain"
)

const systemPrompt = "You are a wildfire risk assessment expert. Always respond with valid JSON only, without any markdown formatting or code blocks."

// Client implements domain.Analyst against the chat completions endpoint.
type Client struct {
	apiKey     string
	model      string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates an OpenAI narrative client.
func NewClient(apiKey, model string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://api.openai.com/v1",
		logger:  logger,
	}
}

// GenerateAnalysis sends the risk-analysis prompt and returns the raw reply
// text. One attempt, no retries: the caller degrades to a fallback narrative
// on any error.
func (c *Client) GenerateAnalysis(ctx context.Context, analysisReq domain.AnalysisRequest) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(analysisReq)},
		},
		Temperature: 0.5,
		MaxTokens:   500,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat completion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("openai API error: status %d: %s", resp.StatusCode, respBody)
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("openai response has no choices")
	}

	return strings.TrimSpace(chatResp.Choices[0].Message.Content), nil
}

// buildPrompt embeds the probability, location, and a flattened weather-field
// listing into the analysis prompt. Fields are listed in sorted key order so
// prompts are deterministic for identical inputs.
func buildPrompt(req domain.AnalysisRequest) string {
	keys := make([]string, 0, len(req.WeatherData))
	for k := range req.WeatherData {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = fmt.Sprintf("- %s: %v", k, req.WeatherData[k])
	}

	return fmt.Sprintf(`You are a wildfire risk assessment expert. Based on the following weather data for %s,
provide a comprehensive analysis of wildfire risk. The calculated fire probability is %v.

Weather data:
%s

Your analysis should include:
1. An overall fire risk assessment
2. Key contributing factors to the risk level
3. Recommended actions for residents and authorities

Format your response in JSON with the following structure:
{
    "risk_assessment": "Your overall assessment of fire risk",
    "contributing_factors": ["Factor 1", "Factor 2", "Factor 3"],
    "recommended_actions": "Your recommendations for handling the risk"
}

Important: Return ONLY the JSON object without any markdown formatting, code blocks, or additional text.`,
		req.Location, req.FireProbability, strings.Join(lines, "\n"))
}

// Chat completions API types.

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

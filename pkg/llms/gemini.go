package llms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/docmind/docmind/pkg/config"
	"github.com/docmind/docmind/pkg/httpclient"
)

const defaultGeminiHost = "https://generativelanguage.googleapis.com"

// GeminiProvider implements Provider for the Google Gemini API.
type GeminiProvider struct {
	config     *config.LLMConfig
	httpClient *httpclient.Client
}

// GeminiRequest represents the request payload for the Gemini API.
type GeminiRequest struct {
	Contents         []GeminiContent         `json:"contents"`
	GenerationConfig *GeminiGenerationConfig `json:"generationConfig,omitempty"`
}

// GeminiGenerationConfig configures generation parameters.
type GeminiGenerationConfig struct {
	Temperature      *float64       `json:"temperature,omitempty"`
	MaxOutputTokens  int            `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string         `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]any `json:"responseSchema,omitempty"`
}

// GeminiContent represents content in a message.
type GeminiContent struct {
	Role  string       `json:"role"`
	Parts []GeminiPart `json:"parts"`
}

// GeminiPart represents a part of content.
type GeminiPart struct {
	Text string `json:"text"`
}

// GeminiResponse represents the response from the Gemini API.
type GeminiResponse struct {
	Candidates    []GeminiCandidate    `json:"candidates"`
	UsageMetadata *GeminiUsageMetadata `json:"usageMetadata,omitempty"`
	Error         *GeminiError         `json:"error,omitempty"`
}

// GeminiCandidate represents a candidate response.
type GeminiCandidate struct {
	Content      GeminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

// GeminiUsageMetadata represents token usage information.
type GeminiUsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// GeminiError represents an API error.
type GeminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// NewGeminiProviderFromConfig creates a new Gemini provider from configuration.
func NewGeminiProviderFromConfig(cfg *config.LLMConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, config.NewConfigError("llm", "Gemini API key is required")
	}
	if cfg.Host == "" {
		cfg.Host = defaultGeminiHost
	}

	return &GeminiProvider{
		config: cfg,
		httpClient: httpclient.New(
			httpclient.WithTimeout(time.Duration(cfg.Timeout)*time.Second),
			httpclient.WithMaxRetries(cfg.MaxRetries),
		),
	}, nil
}

// GenerateStructured generates a response constrained to the given schema.
func (p *GeminiProvider) GenerateStructured(ctx context.Context, prompt string, schema *Schema) (json.RawMessage, int, error) {
	temperature := p.config.Temperature
	req := &GeminiRequest{
		Contents: []GeminiContent{
			{Role: "user", Parts: []GeminiPart{{Text: prompt}}},
		},
		GenerationConfig: &GeminiGenerationConfig{
			Temperature:      &temperature,
			MaxOutputTokens:  p.config.MaxTokens,
			ResponseMimeType: "application/json",
			ResponseSchema:   schema.GeminiMap(),
		},
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		p.config.Host, p.config.Model, p.config.APIKey)

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, 0, NewProviderError("gemini", "generate_structured", "failed to encode request", false, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, 0, NewProviderError("gemini", "generate_structured", "failed to create request", false, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, NewProviderError("gemini", "generate_structured", "API request failed",
			httpclient.IsTransient(err), err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, NewProviderError("gemini", "generate_structured", "failed to read response", false, err)
	}

	var geminiResp GeminiResponse
	if err := json.Unmarshal(respBody, &geminiResp); err != nil {
		return nil, 0, NewProviderError("gemini", "generate_structured", "failed to parse response", false, err)
	}

	if geminiResp.Error != nil {
		return nil, 0, NewProviderError("gemini", "generate_structured", geminiResp.Error.Message, false, nil)
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return nil, 0, NewProviderError("gemini", "generate_structured", "empty response", false, nil)
	}

	tokens := 0
	if geminiResp.UsageMetadata != nil {
		tokens = geminiResp.UsageMetadata.TotalTokenCount
	}

	return json.RawMessage(geminiResp.Candidates[0].Content.Parts[0].Text), tokens, nil
}

// GetModelName returns the model name.
func (p *GeminiProvider) GetModelName() string {
	return p.config.Model
}

// GetMaxTokens returns the maximum tokens for generation.
func (p *GeminiProvider) GetMaxTokens() int {
	return p.config.MaxTokens
}

// GetTemperature returns the temperature setting.
func (p *GeminiProvider) GetTemperature() float64 {
	return p.config.Temperature
}

// Close closes the provider and releases resources.
func (p *GeminiProvider) Close() error {
	return nil
}

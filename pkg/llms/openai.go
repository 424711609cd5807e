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

const defaultOpenAIHost = "https://api.openai.com/v1"

// OpenAIProvider implements Provider for the OpenAI chat completions API
// using the json_schema response format.
type OpenAIProvider struct {
	config     *config.LLMConfig
	httpClient *httpclient.Client
}

// OpenAIRequest represents the request payload for chat completions.
type OpenAIRequest struct {
	Model          string                `json:"model"`
	Messages       []OpenAIMessage       `json:"messages"`
	Temperature    float64               `json:"temperature"`
	MaxTokens      int                   `json:"max_tokens,omitempty"`
	ResponseFormat *OpenAIResponseFormat `json:"response_format,omitempty"`
}

// OpenAIMessage represents a chat message.
type OpenAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// OpenAIResponseFormat requests schema-constrained output.
type OpenAIResponseFormat struct {
	Type       string            `json:"type"`
	JSONSchema *OpenAIJSONSchema `json:"json_schema,omitempty"`
}

// OpenAIJSONSchema wraps the schema document.
type OpenAIJSONSchema struct {
	Name   string         `json:"name"`
	Schema map[string]any `json:"schema"`
	Strict bool           `json:"strict"`
}

// OpenAIResponse represents the chat completions response.
type OpenAIResponse struct {
	Choices []struct {
		Message OpenAIMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewOpenAIProviderFromConfig creates a new OpenAI provider from configuration.
func NewOpenAIProviderFromConfig(cfg *config.LLMConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, config.NewConfigError("llm", "OpenAI API key is required")
	}
	if cfg.Host == "" {
		cfg.Host = defaultOpenAIHost
	}

	return &OpenAIProvider{
		config: cfg,
		httpClient: httpclient.New(
			httpclient.WithTimeout(time.Duration(cfg.Timeout)*time.Second),
			httpclient.WithMaxRetries(cfg.MaxRetries),
		),
	}, nil
}

// GenerateStructured generates a response constrained to the given schema.
func (p *OpenAIProvider) GenerateStructured(ctx context.Context, prompt string, schema *Schema) (json.RawMessage, int, error) {
	req := &OpenAIRequest{
		Model:       p.config.Model,
		Messages:    []OpenAIMessage{{Role: "user", Content: prompt}},
		Temperature: p.config.Temperature,
		MaxTokens:   p.config.MaxTokens,
		ResponseFormat: &OpenAIResponseFormat{
			Type: "json_schema",
			JSONSchema: &OpenAIJSONSchema{
				Name:   schema.Name,
				Schema: schema.Map(),
				Strict: true,
			},
		},
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, 0, NewProviderError("openai", "generate_structured", "failed to encode request", false, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/chat/completions", p.config.Host), bytes.NewReader(reqBody))
	if err != nil {
		return nil, 0, NewProviderError("openai", "generate_structured", "failed to create request", false, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.config.APIKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, NewProviderError("openai", "generate_structured", "API request failed",
			httpclient.IsTransient(err), err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, NewProviderError("openai", "generate_structured", "failed to read response", false, err)
	}

	var openaiResp OpenAIResponse
	if err := json.Unmarshal(respBody, &openaiResp); err != nil {
		return nil, 0, NewProviderError("openai", "generate_structured", "failed to parse response", false, err)
	}

	if openaiResp.Error != nil {
		return nil, 0, NewProviderError("openai", "generate_structured", openaiResp.Error.Message, false, nil)
	}

	if len(openaiResp.Choices) == 0 {
		return nil, 0, NewProviderError("openai", "generate_structured", "empty response", false, nil)
	}

	return json.RawMessage(openaiResp.Choices[0].Message.Content), openaiResp.Usage.TotalTokens, nil
}

// GetModelName returns the model name.
func (p *OpenAIProvider) GetModelName() string {
	return p.config.Model
}

// GetMaxTokens returns the maximum tokens for generation.
func (p *OpenAIProvider) GetMaxTokens() int {
	return p.config.MaxTokens
}

// GetTemperature returns the temperature setting.
func (p *OpenAIProvider) GetTemperature() float64 {
	return p.config.Temperature
}

// Close closes the provider and releases resources.
func (p *OpenAIProvider) Close() error {
	return nil
}

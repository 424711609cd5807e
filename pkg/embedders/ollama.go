package embedders

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

// OllamaEmbedder implements Embedder for a local Ollama instance. Requests go
// through the retrying HTTP client like every other model-access call.
type OllamaEmbedder struct {
	config    *config.EmbedderConfig
	client    *httpclient.Client
	baseURL   string
	model     string
	dimension int
}

// OllamaEmbedRequest represents the request payload for /api/embeddings.
type OllamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// OllamaEmbedResponse represents the response from /api/embeddings.
type OllamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
	Error     string    `json:"error,omitempty"`
}

// NewOllamaEmbedderFromConfig creates an Ollama embedder.
func NewOllamaEmbedderFromConfig(cfg *config.EmbedderConfig) (*OllamaEmbedder, error) {
	model := cfg.Model
	if model == "" {
		model = "nomic-embed-text"
	}

	dimension := cfg.Dimension
	if dimension == 0 {
		dimension = 768
	}

	baseURL := cfg.Host
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	timeout := 30 * time.Second
	if cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Second
	}

	return &OllamaEmbedder{
		config: cfg,
		client: httpclient.New(
			httpclient.WithTimeout(timeout),
			httpclient.WithMaxRetries(cfg.MaxRetries),
		),
		baseURL:   baseURL,
		model:     model,
		dimension: dimension,
	}, nil
}

// Embed generates an embedding for a single text.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	reqBody, err := json.Marshal(OllamaEmbedRequest{Model: e.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("failed to encode embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		e.baseURL+"/api/embeddings", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		if resp != nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
		return nil, fmt.Errorf("embed request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read embed response: %w", err)
	}

	var embedResp OllamaEmbedResponse
	if err := json.Unmarshal(body, &embedResp); err != nil {
		return nil, fmt.Errorf("failed to parse embed response: %w", err)
	}

	if embedResp.Error != "" {
		return nil, fmt.Errorf("Ollama embeddings error: %s", embedResp.Error)
	}

	if len(embedResp.Embedding) == 0 {
		return nil, fmt.Errorf("Ollama embeddings returned no data")
	}

	return embedResp.Embedding, nil
}

// GetDimension returns the embedding dimension.
func (e *OllamaEmbedder) GetDimension() int {
	return e.dimension
}

// GetModelName returns the embedding model name.
func (e *OllamaEmbedder) GetModelName() string {
	return e.model
}

// Close closes the embedder.
func (e *OllamaEmbedder) Close() error {
	return nil
}

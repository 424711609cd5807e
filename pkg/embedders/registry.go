package embedders

import (
	"context"
	"fmt"

	"github.com/docmind/docmind/pkg/config"
)

// Embedder turns text into a vector for nearest-neighbor search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	GetDimension() int

	GetModelName() string

	Close() error
}

// NewFromConfig constructs an embedder from explicit configuration.
func NewFromConfig(cfg *config.EmbedderConfig) (Embedder, error) {
	if cfg == nil {
		return nil, fmt.Errorf("embedder config cannot be nil")
	}

	switch cfg.Type {
	case "openai":
		return NewOpenAIEmbedderFromConfig(cfg)
	case "ollama":
		return NewOllamaEmbedderFromConfig(cfg)
	default:
		return nil, config.NewConfigError("embedder",
			fmt.Sprintf("unsupported embedder type: %s (supported: openai, ollama)", cfg.Type))
	}
}

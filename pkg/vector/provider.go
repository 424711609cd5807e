package vector

import (
	"context"
	"fmt"

	"github.com/docmind/docmind/pkg/config"
)

// Result is a single nearest-neighbor search hit.
type Result struct {
	ID       string
	Score    float32
	Content  string
	Metadata map[string]any
}

// Provider is a nearest-neighbor search backend. Search is a pure read;
// Upsert is only used by the offline corpus sync.
type Provider interface {
	Name() string

	Upsert(ctx context.Context, collection string, id string, vector []float32, metadata map[string]any) error

	Search(ctx context.Context, collection string, vector []float32, topK int) ([]Result, error)

	Close() error
}

// NewFromConfig constructs a provider from explicit configuration.
func NewFromConfig(cfg *config.VectorConfig) (Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("vector config cannot be nil")
	}

	switch cfg.Type {
	case "chromem":
		chromemCfg := cfg.Chromem
		if chromemCfg == nil {
			chromemCfg = &config.ChromemConfig{}
		}
		return NewChromemProvider(*chromemCfg)
	case "qdrant":
		if cfg.Qdrant == nil {
			return nil, config.NewConfigError("vector", "qdrant configuration is required")
		}
		return NewQdrantProvider(*cfg.Qdrant)
	default:
		return nil, config.NewConfigError("vector",
			fmt.Sprintf("unsupported vector provider: %s (supported: chromem, qdrant)", cfg.Type))
	}
}

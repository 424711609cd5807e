package llms

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Provider is a language model capable of structured generation: given a
// prompt and a target schema, it returns raw JSON conforming to the schema.
//
// Providers are selected once at construction from explicit configuration.
// Retries for rate limits and transient failures live in the HTTP layer;
// callers never retry a Provider call themselves.
type Provider interface {
	// GenerateStructured returns the raw JSON payload and the total token
	// count reported by the API.
	GenerateStructured(ctx context.Context, prompt string, schema *Schema) (json.RawMessage, int, error)

	GetModelName() string

	GetMaxTokens() int

	GetTemperature() float64

	Close() error
}

// Schema describes the expected shape of a structured response. It is built
// from a Go struct, which makes the allowed fields an allow-list by
// construction: decoding targets the struct, unknown keys are dropped.
type Schema struct {
	// Name identifies the schema in provider requests.
	Name string

	root map[string]any
}

// NewSchema reflects a JSON Schema from the given Go value.
func NewSchema(name string, v any) (*Schema, error) {
	reflector := jsonschema.Reflector{
		Anonymous:                 true,
		DoNotReference:            true,
		AllowAdditionalProperties: false,
	}

	raw, err := json.Marshal(reflector.Reflect(v))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema %s: %w", name, err)
	}

	var root map[string]any
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("failed to rebuild schema %s: %w", name, err)
	}

	return &Schema{Name: name, root: root}, nil
}

// MustSchema is NewSchema that panics on failure. Schemas are built from
// static struct types at startup, so a failure here is a programming error.
func MustSchema(name string, v any) *Schema {
	s, err := NewSchema(name, v)
	if err != nil {
		panic(err)
	}
	return s
}

// Map returns the full JSON Schema document.
func (s *Schema) Map() map[string]any {
	return s.root
}

// GeminiMap returns the schema reduced to the subset the Gemini
// generationConfig.responseSchema field accepts (no $schema, no
// additionalProperties).
func (s *Schema) GeminiMap() map[string]any {
	return sanitizeForGemini(s.root)
}

var geminiUnsupportedKeys = map[string]bool{
	"$schema":              true,
	"$id":                  true,
	"$defs":                true,
	"additionalProperties": true,
	"patternProperties":    true,
}

func sanitizeForGemini(node map[string]any) map[string]any {
	out := make(map[string]any, len(node))
	for key, value := range node {
		if geminiUnsupportedKeys[key] {
			continue
		}
		out[key] = sanitizeValue(value)
	}
	return out
}

func sanitizeValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return sanitizeForGemini(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = sanitizeValue(item)
		}
		return out
	default:
		return value
	}
}

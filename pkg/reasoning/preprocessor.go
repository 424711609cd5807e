package reasoning

import (
	"context"
	"fmt"
	"strings"

	"github.com/docmind/docmind/pkg/llms"
)

// preprocessOutput is the schema the preprocessor model fills in. Decoding
// into this concrete struct discards any extra fields the model invents.
type preprocessOutput struct {
	NeedsInfo     bool     `json:"needs_info" jsonschema:"description=Whether documentation retrieval is required"`
	Answer        string   `json:"answer" jsonschema:"description=Direct answer when no retrieval is required"`
	UserKnowledge string   `json:"user_knowledge" jsonschema:"description=Summary of what the user already knows"`
	TypeSearch    string   `json:"type_search" jsonschema:"description=Search type: factual, procedural or troubleshooting"`
	Keywords      []string `json:"keywords" jsonschema:"description=Search keywords"`
	Questions     []string `json:"questions" jsonschema:"description=Self-contained questions to search for"`
}

var preprocessSchema = llms.MustSchema("preprocess", &preprocessOutput{})

// Preprocessor makes the single up-front model call that decides between a
// direct answer and a retrieval expansion.
type Preprocessor struct {
	provider llms.Provider
}

// NewPreprocessor creates a preprocessor over the given provider.
func NewPreprocessor(provider llms.Provider) *Preprocessor {
	return &Preprocessor{provider: provider}
}

// Preprocess runs the model once. Failures propagate; retries live in the
// model-access layer.
func (p *Preprocessor) Preprocess(ctx context.Context, query Query) (*PreprocessResult, error) {
	prompt := fmt.Sprintf(preprocessorPrompt, renderMemory(query.Memory), query.Text)

	raw, _, err := p.provider.GenerateStructured(ctx, prompt, preprocessSchema)
	if err != nil {
		return nil, fmt.Errorf("preprocess: %w", err)
	}

	var out preprocessOutput
	if err := llms.DecodeStructured(p.provider.GetModelName(), raw, &out); err != nil {
		return nil, err
	}

	result := &PreprocessResult{
		NeedsInfo: out.NeedsInfo,
		Answer:    strings.TrimSpace(out.Answer),
	}
	if out.NeedsInfo {
		result.Expansion = Expansion{
			UserKnowledge: out.UserKnowledge,
			TypeSearch:    out.TypeSearch,
			Keywords:      out.Keywords,
			Questions:     out.Questions,
		}
	}
	return result, nil
}

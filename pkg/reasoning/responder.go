package reasoning

import (
	"context"
	"fmt"
	"strings"

	"github.com/docmind/docmind/pkg/llms"
)

// respondOutput is the schema the responder model fills in. A non-empty
// answer field makes the result terminal.
type respondOutput struct {
	Answer           string           `json:"answer" jsonschema:"description=Final answer with inline [n] citations, empty when more context is needed"`
	URLSupporting    []string         `json:"url_supporting" jsonschema:"description=URLs of the cited sources"`
	NewQuestions     []string         `json:"new_questions" jsonschema:"description=Follow-up questions to search for, empty when answering"`
	KnowledgeSummary []KnowledgeClaim `json:"knowledge_summary" jsonschema:"description=All established facts with their supporting URLs"`
	TypeSearch       string           `json:"type_search" jsonschema:"description=Updated search type for the next round"`
}

var respondSchema = llms.MustSchema("respond", &respondOutput{})

// Responder makes the per-round model call that either answers or requests
// another round.
type Responder struct {
	provider llms.Provider
}

// NewResponder creates a responder over the given provider.
func NewResponder(provider llms.Provider) *Responder {
	return &Responder{provider: provider}
}

// Respond runs the model once for a round. When final is true the prompt
// forbids continuation, though the outcome still has to be checked.
func (r *Responder) Respond(ctx context.Context, query Query, knowledge []KnowledgeClaim, contextText, typeSearch string, final bool) (*RespondResult, error) {
	if typeSearch == "" {
		typeSearch = "factual"
	}
	extra := ""
	if final {
		extra = finalRoundInstruction
	}
	prompt := fmt.Sprintf(responderPrompt, renderKnowledge(knowledge), contextText, typeSearch, query.Text, extra)

	raw, _, err := r.provider.GenerateStructured(ctx, prompt, respondSchema)
	if err != nil {
		return nil, fmt.Errorf("respond: %w", err)
	}

	var out respondOutput
	if err := llms.DecodeStructured(r.provider.GetModelName(), raw, &out); err != nil {
		return nil, err
	}

	return &RespondResult{
		Answer:           strings.TrimSpace(out.Answer),
		URLSupporting:    out.URLSupporting,
		NewQuestions:     out.NewQuestions,
		KnowledgeSummary: out.KnowledgeSummary,
		TypeSearch:       out.TypeSearch,
	}, nil
}

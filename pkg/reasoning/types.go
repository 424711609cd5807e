package reasoning

// MemoryEntry is one prior conversation turn.
type MemoryEntry struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Query is the immutable input to one reasoning run.
type Query struct {
	Text   string
	Memory []MemoryEntry
}

// Expansion is the preprocessor's plan for a query that needs retrieval.
type Expansion struct {
	UserKnowledge string
	TypeSearch    string
	Keywords      []string
	Questions     []string
}

// KnowledgeClaim is an atomic fact the responder extracted from context,
// tied to the URL that supports it. Claims accumulate across rounds.
type KnowledgeClaim struct {
	Claim         string `json:"claim"`
	URLSupporting string `json:"url_supporting"`
}

// Answer is the terminal output of a reasoning run. Inline markers [k] in
// Text index into URLSupporting 1-based after citation reconciliation.
type Answer struct {
	Text          string   `json:"answer"`
	URLSupporting []string `json:"url_supporting"`
}

// PreprocessResult is the preprocessor's decision: either a direct answer or
// an expansion.
type PreprocessResult struct {
	NeedsInfo bool
	Answer    string
	Expansion Expansion
}

// RespondResult is one responder invocation's outcome. Terminal results carry
// an Answer; non-terminal results carry the updated knowledge summary plus
// the next round's questions.
type RespondResult struct {
	Answer           string
	URLSupporting    []string
	NewQuestions     []string
	KnowledgeSummary []KnowledgeClaim
	TypeSearch       string
}

// Terminal reports whether the responder produced a final answer.
func (r *RespondResult) Terminal() bool {
	return r.Answer != ""
}

// Empty reports whether a non-terminal result carries no actionable content.
// An empty continuation despite available context means the model response
// was unusable.
func (r *RespondResult) Empty() bool {
	return r.Answer == "" && len(r.NewQuestions) == 0 && len(r.KnowledgeSummary) == 0
}

// roundTrace records one round's context and raw outcome for diagnostics.
type roundTrace struct {
	Level   int
	Context string
	Result  string
}

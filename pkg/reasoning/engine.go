package reasoning

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/docmind/docmind/pkg/config"
	"github.com/docmind/docmind/pkg/corpus"
	"github.com/docmind/docmind/pkg/retrieval"
)

// Fallback answers for runs that cannot produce a grounded answer. The round
// cap fallback carries no sources; the empty-response fallback carries the
// context URLs the user would have needed.
const (
	capFallbackAnswer   = "I couldn't find enough information to answer. Please try rephrasing or ask something more specific."
	emptyFallbackAnswer = "I found relevant documentation but couldn't generate a full answer. Please try rephrasing or ask a more specific question."
)

// Orchestrator runs the bounded retrieve/filter/respond loop for one query at
// a time. It holds no per-request state; all loop state is local to Process.
type Orchestrator struct {
	store        *corpus.Store
	retriever    retrieval.Retriever
	filter       retrieval.Filter
	preprocessor *Preprocessor
	responder    *Responder

	reasoningLimit int
	maxQuestions   int
}

// NewOrchestrator wires the reasoning loop together.
func NewOrchestrator(store *corpus.Store, retriever retrieval.Retriever, filter retrieval.Filter, preprocessor *Preprocessor, responder *Responder, cfg config.ReasoningConfig) *Orchestrator {
	limit := cfg.ReasoningLimit
	if limit < 0 {
		limit = 0
	}
	maxQuestions := cfg.MaxExpansionQueries
	if maxQuestions <= 0 {
		maxQuestions = 2
	}
	return &Orchestrator{
		store:          store,
		retriever:      retriever,
		filter:         filter,
		preprocessor:   preprocessor,
		responder:      responder,
		reasoningLimit: limit,
		maxQuestions:   maxQuestions,
	}
}

// maxLevel is the hard round cap. The loop always ends within this many
// rounds regardless of what the model returns.
func (o *Orchestrator) maxLevel() int {
	if limit := o.reasoningLimit + 2; limit > 5 {
		return limit
	}
	return 5
}

// Process answers one question. It runs the preprocessor, short-circuits
// direct answers, and otherwise iterates retrieval rounds until the responder
// terminates or the round cap forces a fallback.
func (o *Orchestrator) Process(ctx context.Context, question string, memory []MemoryEntry) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("empty question")
	}
	query := Query{Text: question, Memory: memory}

	pre, err := o.preprocessor.Preprocess(ctx, query)
	if err != nil {
		return nil, err
	}
	if !pre.NeedsInfo {
		slog.Debug("direct answer, no retrieval", "question", question)
		return &Answer{
			Text:          NormalizeAnswerText(pre.Answer),
			URLSupporting: []string{},
		}, nil
	}

	snap, err := o.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	var (
		explored   []string
		knowledge  []KnowledgeClaim
		traces     []roundTrace
		typeSearch = pre.Expansion.TypeSearch
		pending    = initialSubQueries(pre.Expansion)
	)

	for level := 0; level < o.maxLevel(); level++ {
		subs := append([]retrieval.SubQuery{retrieval.QuerySubQuery(question)}, pending...)

		byQuery := make(map[string][]*corpus.Fragment, len(subs))
		order := make([]string, 0, len(subs))
		for _, sub := range subs {
			frags, err := o.retriever.Retrieve(ctx, snap, sub, level)
			if err != nil {
				return nil, err
			}
			key := sub.Value()
			if _, ok := byQuery[key]; !ok {
				order = append(order, key)
			}
			byQuery[key] = append(byQuery[key], frags...)
		}

		contextText, contextURLs, err := o.filter.Filter(ctx, retrieval.FilterRequest{
			ByQuery:      byQuery,
			QueryOrder:   order,
			ExploredURLs: explored,
			Query:        question,
			TypeSearch:   typeSearch,
		})
		if err != nil {
			return nil, err
		}
		explored = append(explored, contextURLs...)

		final := level > o.reasoningLimit
		result, err := o.responder.Respond(ctx, query, knowledge, contextText, typeSearch, final)
		if err != nil {
			return nil, err
		}
		traces = append(traces, roundTrace{Level: level, Context: contextText, Result: result.Answer})
		slog.Debug("reasoning round", "level", level, "final", final,
			"context_urls", len(contextURLs), "terminal", result.Terminal())

		if result.Terminal() {
			return o.terminalAnswer(result, knowledge, contextURLs), nil
		}

		// A continuation with nothing in it despite usable context means
		// the model response was unusable; answer with what we found
		// instead of looping on it.
		if contextText != "" && result.Empty() {
			slog.Warn("responder returned empty continuation", "level", level)
			return &Answer{
				Text:          emptyFallbackAnswer,
				URLSupporting: dedupeURLs(contextURLs),
			}, nil
		}

		// Claims accumulate; an empty summary from the model must not
		// erase what earlier rounds established.
		if len(result.KnowledgeSummary) > 0 {
			knowledge = result.KnowledgeSummary
		}
		if result.TypeSearch != "" {
			typeSearch = result.TypeSearch
		}
		pending = nextSubQueries(result.NewQuestions, o.maxQuestions)
	}

	slog.Warn("round cap reached without terminal answer",
		"question", question, "rounds", o.maxLevel(), "explored_urls", len(explored))
	for _, t := range traces {
		slog.Debug("round trace", "level", t.Level,
			"context_bytes", len(t.Context), "result", t.Result)
	}
	return &Answer{Text: capFallbackAnswer, URLSupporting: []string{}}, nil
}

// terminalAnswer augments the responder's sources with every URL backing an
// accumulated claim, then reconciles citations against the terminal round's
// context ordering.
func (o *Orchestrator) terminalAnswer(result *RespondResult, knowledge []KnowledgeClaim, contextURLs []string) *Answer {
	proposed := append([]string{}, result.URLSupporting...)
	for _, claim := range result.KnowledgeSummary {
		proposed = append(proposed, claim.URLSupporting)
	}
	for _, claim := range knowledge {
		proposed = append(proposed, claim.URLSupporting)
	}

	text, urls := ReconcileCitations(result.Answer, contextURLs, dedupeURLs(proposed))
	return &Answer{
		Text:          NormalizeAnswerText(text),
		URLSupporting: urls,
	}
}

func initialSubQueries(exp Expansion) []retrieval.SubQuery {
	subs := make([]retrieval.SubQuery, 0, len(exp.Keywords)+len(exp.Questions))
	for _, kw := range exp.Keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			subs = append(subs, retrieval.KeywordSubQuery(kw))
		}
	}
	for _, q := range exp.Questions {
		if q = strings.TrimSpace(q); q != "" {
			subs = append(subs, retrieval.QuestionSubQuery(q))
		}
	}
	return subs
}

func nextSubQueries(questions []string, max int) []retrieval.SubQuery {
	subs := make([]retrieval.SubQuery, 0, len(questions))
	for _, q := range questions {
		if q = strings.TrimSpace(q); q == "" {
			continue
		}
		subs = append(subs, retrieval.QuestionSubQuery(q))
		if len(subs) >= max {
			break
		}
	}
	return subs
}

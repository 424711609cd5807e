package retrieval

import (
	"context"

	"github.com/docmind/docmind/pkg/corpus"
)

// SubQuery is one retrieval request within a reasoning round. Exactly one
// variant is set:
//
//   - Keyword: lexical match, optionally narrowed by Instance containment
//   - Question: semantic search for a generated question
//   - Query: semantic search for the original user query
type SubQuery struct {
	Keyword  string
	Instance string
	Question string
	Query    string
}

// KeywordSubQuery builds a keyword variant.
func KeywordSubQuery(keyword string) SubQuery {
	return SubQuery{Keyword: keyword}
}

// QuestionSubQuery builds a question variant.
func QuestionSubQuery(question string) SubQuery {
	return SubQuery{Question: question}
}

// QuerySubQuery builds an original-query variant.
func QuerySubQuery(query string) SubQuery {
	return SubQuery{Query: query}
}

// Value returns the literal text of the active variant. Rounds key their
// retrieval results by this value.
func (s SubQuery) Value() string {
	switch {
	case s.Keyword != "":
		return s.Keyword
	case s.Question != "":
		return s.Question
	default:
		return s.Query
	}
}

// IsSemantic reports whether the sub-query targets the semantic index.
func (s SubQuery) IsSemantic() bool {
	return s.Keyword == ""
}

// Retriever returns ranked candidate fragments for one sub-query. It is a
// pure read of the snapshot; it may suspend on network I/O to the
// nearest-neighbor backend.
type Retriever interface {
	Retrieve(ctx context.Context, snap *corpus.Snapshot, sub SubQuery, level int) ([]*corpus.Fragment, error)
}

// Filter reduces a round's candidate union to a token-bounded context string
// and the ordered URL list it contains. The URL ordering defines the 1-based
// indices that citation markers refer to within the round.
type Filter interface {
	Filter(ctx context.Context, req FilterRequest) (string, []string, error)
}

// FilterRequest carries one round's candidates into the filter.
type FilterRequest struct {
	// ByQuery maps each sub-query literal to its retrieved fragments.
	ByQuery map[string][]*corpus.Fragment

	// QueryOrder lists sub-query literals in issue order.
	QueryOrder []string

	// ExploredURLs are URLs already offered in earlier rounds; the filter
	// skips them.
	ExploredURLs []string

	// Query is the original user query.
	Query string

	// TypeSearch is the preprocessor's search-type tag.
	TypeSearch string
}

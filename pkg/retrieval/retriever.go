package retrieval

import (
	"context"
	"log/slog"
	"strings"

	"github.com/docmind/docmind/pkg/config"
	"github.com/docmind/docmind/pkg/corpus"
	"github.com/docmind/docmind/pkg/embedders"
	"github.com/docmind/docmind/pkg/vector"
)

// Engine dispatches sub-queries against the corpus snapshot and the semantic
// index. It implements Retriever.
type Engine struct {
	embedder   embedders.Embedder
	provider   vector.Provider
	collection string
	topK       int
	maxMerged  int
	boosts     bool
}

// NewEngine creates a retrieval engine over the given embedder and vector
// backend.
func NewEngine(embedder embedders.Embedder, provider vector.Provider, collection string, cfg config.RetrievalConfig) *Engine {
	topK := cfg.TopK
	if topK <= 0 {
		topK = 8
	}
	maxMerged := cfg.MaxMerged
	if maxMerged <= 0 {
		maxMerged = 10
	}
	return &Engine{
		embedder:   embedder,
		provider:   provider,
		collection: collection,
		topK:       topK,
		maxMerged:  maxMerged,
		boosts:     cfg.BoostsEnabled(),
	}
}

// Retrieve resolves one sub-query to ranked fragments.
//
// Keyword sub-queries scan the snapshot lexically. Semantic sub-queries hit
// the vector index; before the first reasoning round a lexical pass is tried
// first and the index is only consulted when it comes back empty. Semantic
// results may be extended by deterministic boost searches, merged URL-unique
// behind the primary list.
func (e *Engine) Retrieve(ctx context.Context, snap *corpus.Snapshot, sub SubQuery, level int) ([]*corpus.Fragment, error) {
	if sub.Keyword != "" {
		return lexicalSearch(snap, sub.Keyword, sub.Instance, e.topK), nil
	}

	text := sub.Value()
	if text == "" {
		return nil, nil
	}

	if level < 1 {
		if hits := lexicalSearch(snap, text, "", e.topK); len(hits) > 0 {
			return e.withBoosts(ctx, snap, text, hits), nil
		}
	}

	primary, err := e.semanticSearch(ctx, snap, text)
	if err != nil {
		return nil, err
	}
	return e.withBoosts(ctx, snap, text, primary), nil
}

// withBoosts appends boost-search results behind the primary list. Boost
// failures degrade to the primary results alone.
func (e *Engine) withBoosts(ctx context.Context, snap *corpus.Snapshot, text string, primary []*corpus.Fragment) []*corpus.Fragment {
	if !e.boosts {
		return Merge(primary, e.maxMerged)
	}
	queries := boostQueriesFor(text)
	if len(queries) == 0 {
		return Merge(primary, e.maxMerged)
	}

	extras := make([][]*corpus.Fragment, 0, len(queries))
	for _, q := range queries {
		hits, err := e.semanticSearch(ctx, snap, q)
		if err != nil {
			slog.Warn("boost search failed", "query", q, "error", err)
			continue
		}
		extras = append(extras, hits)
	}
	return Merge(primary, e.maxMerged, extras...)
}

// semanticSearch embeds text and queries the vector backend, resolving hits
// back to snapshot fragments by URL when possible.
func (e *Engine) semanticSearch(ctx context.Context, snap *corpus.Snapshot, text string) ([]*corpus.Fragment, error) {
	vec, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return nil, NewSearchError("embedder", text, err)
	}

	results, err := e.provider.Search(ctx, e.collection, vec, e.topK)
	if err != nil {
		return nil, NewSearchError(e.provider.Name(), text, err)
	}

	fragments := make([]*corpus.Fragment, 0, len(results))
	for _, r := range results {
		if f := resultFragment(snap, r); f != nil {
			fragments = append(fragments, f)
		}
	}
	return fragments, nil
}

// resultFragment maps a vector hit to its snapshot fragment, falling back to
// the payload stored alongside the vector when the snapshot no longer carries
// the URL.
func resultFragment(snap *corpus.Snapshot, r vector.Result) *corpus.Fragment {
	url, _ := r.Metadata["url"].(string)
	if snap != nil && url != "" {
		if f := snap.ByURL(url); f != nil {
			return f
		}
	}
	if url == "" && r.Content == "" {
		return nil
	}
	title, _ := r.Metadata["title"].(string)
	sourceType, _ := r.Metadata["source_type"].(string)
	return &corpus.Fragment{
		URL:        url,
		Title:      title,
		Content:    r.Content,
		SourceType: sourceType,
	}
}

// lexicalSearch scans the snapshot for fragments containing the needle in
// their title, URL or content, in snapshot order. The needle matches
// case-insensitively; a non-empty instance narrows matches to fragments
// containing it verbatim.
func lexicalSearch(snap *corpus.Snapshot, needle, instance string, limit int) []*corpus.Fragment {
	if snap == nil || needle == "" {
		return nil
	}
	loweredNeedle := strings.ToLower(needle)

	var hits []*corpus.Fragment
	for _, f := range snap.Fragments() {
		if !fragmentContains(f, loweredNeedle) {
			continue
		}
		if instance != "" && !fragmentContainsLiteral(f, instance) {
			continue
		}
		hits = append(hits, f)
		if limit > 0 && len(hits) >= limit {
			break
		}
	}
	return hits
}

func fragmentContains(f *corpus.Fragment, needle string) bool {
	return strings.Contains(strings.ToLower(f.Title), needle) ||
		strings.Contains(strings.ToLower(f.URL), needle) ||
		strings.Contains(strings.ToLower(f.Content), needle)
}

func fragmentContainsLiteral(f *corpus.Fragment, needle string) bool {
	return strings.Contains(f.Title, needle) ||
		strings.Contains(f.URL, needle) ||
		strings.Contains(f.Content, needle)
}

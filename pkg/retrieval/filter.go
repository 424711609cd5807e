package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/docmind/docmind/pkg/config"
	"github.com/docmind/docmind/pkg/corpus"
)

// ContextFilter reduces a round's candidate union to a single context string
// bounded by a fragment cap and a token budget. It implements Filter.
//
// Candidates are drained round-robin across sub-queries so that every
// sub-query contributes before any one of them dominates the budget. URLs
// already explored in earlier rounds are skipped, which is what drives each
// round toward fresh material.
type ContextFilter struct {
	maxFragments int
	maxTokens    int
	encoder      *tiktoken.Tiktoken
}

// NewContextFilter creates a filter with the configured caps. Token counting
// uses the cl100k_base encoding; when the encoding cannot be loaded the
// filter falls back to a bytes/4 estimate.
func NewContextFilter(cfg config.ReasoningConfig) *ContextFilter {
	maxFragments := cfg.MaxContextFragments
	if maxFragments <= 0 {
		maxFragments = 10
	}
	maxTokens := cfg.MaxContextTokens
	if maxTokens <= 0 {
		maxTokens = 12000
	}

	encoder, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		slog.Warn("token encoding unavailable, using byte estimate", "error", err)
		encoder = nil
	}
	return &ContextFilter{
		maxFragments: maxFragments,
		maxTokens:    maxTokens,
		encoder:      encoder,
	}
}

// Filter builds the round's context string and the ordered URL list backing
// its 1-based citation indices.
func (f *ContextFilter) Filter(ctx context.Context, req FilterRequest) (string, []string, error) {
	explored := make(map[string]struct{}, len(req.ExploredURLs))
	for _, u := range req.ExploredURLs {
		explored[u] = struct{}{}
	}

	selected := f.selectFragments(req, explored)
	if len(selected) == 0 {
		return "", nil, nil
	}

	var b strings.Builder
	urls := make([]string, 0, len(selected))
	budget := f.maxTokens

	for _, frag := range selected {
		if err := ctx.Err(); err != nil {
			return "", nil, err
		}
		block := renderFragment(len(urls)+1, frag)
		cost := f.countTokens(block)
		if len(urls) > 0 && cost > budget {
			break
		}
		b.WriteString(block)
		budget -= cost
		urls = append(urls, frag.URL)
	}
	return b.String(), urls, nil
}

// selectFragments drains the per-query candidate lists round-robin, skipping
// explored and duplicate URLs, up to the fragment cap.
func (f *ContextFilter) selectFragments(req FilterRequest, explored map[string]struct{}) []*corpus.Fragment {
	queues := make([][]*corpus.Fragment, 0, len(req.QueryOrder))
	for _, key := range req.QueryOrder {
		if frags := req.ByQuery[key]; len(frags) > 0 {
			queues = append(queues, frags)
		}
	}

	seen := make(map[string]struct{})
	var selected []*corpus.Fragment
	for remaining := true; remaining && len(selected) < f.maxFragments; {
		remaining = false
		for i := range queues {
			var frag *corpus.Fragment
			for len(queues[i]) > 0 {
				candidate := queues[i][0]
				queues[i] = queues[i][1:]
				if candidate == nil || candidate.URL == "" {
					continue
				}
				if _, ok := explored[candidate.URL]; ok {
					continue
				}
				if _, ok := seen[candidate.URL]; ok {
					continue
				}
				frag = candidate
				break
			}
			if frag == nil {
				continue
			}
			seen[frag.URL] = struct{}{}
			selected = append(selected, frag)
			remaining = true
			if len(selected) >= f.maxFragments {
				break
			}
		}
	}
	return selected
}

// renderFragment formats one fragment as a numbered context block. The number
// is the citation index the responder is instructed to use.
func renderFragment(index int, f *corpus.Fragment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d] %s\n", index, f.URL)
	if f.Title != "" {
		b.WriteString(f.Title)
		b.WriteString("\n")
	}
	b.WriteString(f.Content)
	b.WriteString("\n\n")
	return b.String()
}

func (f *ContextFilter) countTokens(text string) int {
	if f.encoder != nil {
		return len(f.encoder.Encode(text, nil, nil))
	}
	return len(text) / 4
}

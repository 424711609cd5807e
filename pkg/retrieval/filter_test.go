package retrieval

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/docmind/docmind/pkg/config"
	"github.com/docmind/docmind/pkg/corpus"
)

func newTestFilter(maxFragments, maxTokens int) *ContextFilter {
	return NewContextFilter(config.ReasoningConfig{
		MaxContextFragments: maxFragments,
		MaxContextTokens:    maxTokens,
	})
}

func TestFilterInterleavesSubQueries(t *testing.T) {
	f := newTestFilter(10, 100000)

	_, urls, err := f.Filter(context.Background(), FilterRequest{
		ByQuery: map[string][]*corpus.Fragment{
			"q1": frags("a", "b"),
			"q2": frags("c", "d"),
		},
		QueryOrder: []string{"q1", "q2"},
	})
	if err != nil {
		t.Fatal(err)
	}

	// Round-robin: first of each queue, then second of each.
	want := []string{"a", "c", "b", "d"}
	if !reflect.DeepEqual(urls, want) {
		t.Fatalf("urls = %v, want %v", urls, want)
	}
}

func TestFilterSkipsExploredAndDuplicateURLs(t *testing.T) {
	f := newTestFilter(10, 100000)

	_, urls, err := f.Filter(context.Background(), FilterRequest{
		ByQuery: map[string][]*corpus.Fragment{
			"q1": frags("a", "b", "a"),
			"q2": frags("b", "c"),
		},
		QueryOrder:   []string{"q1", "q2"},
		ExploredURLs: []string{"a"},
	})
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"b", "c"}
	if !reflect.DeepEqual(urls, want) {
		t.Fatalf("urls = %v, want %v", urls, want)
	}
}

func TestFilterCapsFragments(t *testing.T) {
	f := newTestFilter(2, 100000)

	_, urls, err := f.Filter(context.Background(), FilterRequest{
		ByQuery:    map[string][]*corpus.Fragment{"q": frags("a", "b", "c", "d")},
		QueryOrder: []string{"q"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(urls) != 2 {
		t.Fatalf("urls = %v, want 2 entries", urls)
	}
}

func TestFilterContextNumbersMatchURLOrder(t *testing.T) {
	f := newTestFilter(10, 100000)

	text, urls, err := f.Filter(context.Background(), FilterRequest{
		ByQuery: map[string][]*corpus.Fragment{"q": {
			{URL: "url-a", Title: "A", Content: "alpha"},
			{URL: "url-b", Title: "B", Content: "beta"},
		}},
		QueryOrder: []string{"q"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(urls, []string{"url-a", "url-b"}) {
		t.Fatalf("urls = %v", urls)
	}
	if !strings.Contains(text, "[1] url-a") || !strings.Contains(text, "[2] url-b") {
		t.Fatalf("context numbering wrong:\n%s", text)
	}
	if strings.Index(text, "[1] url-a") > strings.Index(text, "[2] url-b") {
		t.Fatalf("context order wrong:\n%s", text)
	}
}

func TestFilterTokenBudgetKeepsAtLeastOneFragment(t *testing.T) {
	f := newTestFilter(10, 1)

	big := strings.Repeat("lengthy documentation text ", 200)
	text, urls, err := f.Filter(context.Background(), FilterRequest{
		ByQuery: map[string][]*corpus.Fragment{"q": {
			{URL: "url-a", Content: big},
			{URL: "url-b", Content: big},
		}},
		QueryOrder: []string{"q"},
	})
	if err != nil {
		t.Fatal(err)
	}

	// The first fragment is always offered even when over budget; the
	// second must be cut.
	if len(urls) != 1 || urls[0] != "url-a" {
		t.Fatalf("urls = %v, want [url-a]", urls)
	}
	if !strings.Contains(text, "url-a") || strings.Contains(text, "url-b") {
		t.Fatalf("budget not applied:\n%s", text[:100])
	}
}

func TestFilterEmptyCandidates(t *testing.T) {
	f := newTestFilter(10, 1000)

	text, urls, err := f.Filter(context.Background(), FilterRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if text != "" || len(urls) != 0 {
		t.Fatalf("text = %q, urls = %v, want empty", text, urls)
	}
}

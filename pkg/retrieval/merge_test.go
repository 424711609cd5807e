package retrieval

import (
	"testing"

	"github.com/docmind/docmind/pkg/corpus"
)

func frags(urls ...string) []*corpus.Fragment {
	out := make([]*corpus.Fragment, len(urls))
	for i, u := range urls {
		out[i] = &corpus.Fragment{URL: u}
	}
	return out
}

func urlsOf(fragments []*corpus.Fragment) []string {
	out := make([]string, len(fragments))
	for i, f := range fragments {
		out[i] = f.URL
	}
	return out
}

func TestMergeDeduplicatesByURL(t *testing.T) {
	merged := Merge(frags("a", "b", "a"), 0, frags("b", "c"), frags("c", "d"))

	want := []string{"a", "b", "c", "d"}
	got := urlsOf(merged)
	if len(got) != len(want) {
		t.Fatalf("merged = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("merged = %v, want %v", got, want)
		}
	}
}

func TestMergePrimaryNeverEvicted(t *testing.T) {
	merged := Merge(frags("a", "b", "c"), 3, frags("x", "y"))

	got := urlsOf(merged)
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("merged = %v, want [a b c]", got)
	}
}

func TestMergeCapsTotal(t *testing.T) {
	merged := Merge(frags("a"), 2, frags("b", "c", "d"))
	if len(merged) != 2 {
		t.Fatalf("len = %d, want 2", len(merged))
	}
}

func TestMergeAnonymousFragmentsByIdentity(t *testing.T) {
	f1 := &corpus.Fragment{Content: "no url"}
	f2 := &corpus.Fragment{Content: "no url"}

	merged := Merge([]*corpus.Fragment{f1, f1}, 0, []*corpus.Fragment{f2})
	if len(merged) != 2 {
		t.Fatalf("len = %d, want 2 (distinct anonymous fragments kept)", len(merged))
	}
}

func TestMergeEmptyInputs(t *testing.T) {
	if got := Merge(nil, 5); len(got) != 0 {
		t.Fatalf("merged = %v, want empty", got)
	}
}

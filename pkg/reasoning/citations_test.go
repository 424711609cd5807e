package reasoning

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"testing"
)

func TestReconcileCitationsRemapsAndRenumbers(t *testing.T) {
	contextURLs := []string{
		"https://docs.example.com/a",
		"https://docs.example.com/b",
		"https://docs.example.com/c",
	}
	text := "To get a quote, call the quote endpoint, see [2] and [1].\n\nReferences: [1] [2]"

	gotText, gotURLs := ReconcileCitations(text, contextURLs, nil)

	wantURLs := []string{"https://docs.example.com/b", "https://docs.example.com/a"}
	if !reflect.DeepEqual(gotURLs, wantURLs) {
		t.Fatalf("urls = %v, want %v", gotURLs, wantURLs)
	}
	wantText := "To get a quote, call the quote endpoint, see [1] and [2].\n\nReferences: [1] [2]"
	if gotText != wantText {
		t.Fatalf("text = %q, want %q", gotText, wantText)
	}
}

func TestReconcileCitationsDropsOrphanMarkers(t *testing.T) {
	contextURLs := []string{"https://docs.example.com/a", "https://docs.example.com/b"}
	text := "Fact one [1]. Fact two [11].\n\nReferences: [1] [11]"

	gotText, gotURLs := ReconcileCitations(text, contextURLs, nil)

	if len(gotURLs) != 1 || gotURLs[0] != contextURLs[0] {
		t.Fatalf("urls = %v, want [%s]", gotURLs, contextURLs[0])
	}
	assertCitationInvariant(t, gotText, gotURLs)
}

func TestReconcileCitationsFallsBackToProposedURLs(t *testing.T) {
	proposed := []string{"u1", "u2", "u1", "u3", "u4", "u5", "u6", "u7", "u8"}

	gotText, gotURLs := ReconcileCitations("No markers here.", []string{"x"}, proposed)

	if gotText != "No markers here." {
		t.Fatalf("text changed: %q", gotText)
	}
	want := []string{"u1", "u2", "u3", "u4", "u5", "u6"}
	if !reflect.DeepEqual(gotURLs, want) {
		t.Fatalf("urls = %v, want %v", gotURLs, want)
	}
}

func TestReconcileCitationsIdempotent(t *testing.T) {
	contextURLs := []string{"url-a", "url-b", "url-c", "url-d"}
	text := "Start with [3], then [1], then [3] again, ignore [9].\n\nReferences: [1] [3]"

	text1, urls1 := ReconcileCitations(text, contextURLs, nil)
	text2, urls2 := ReconcileCitations(text1, urls1, nil)

	if text1 != text2 {
		t.Fatalf("text not stable:\nfirst:  %q\nsecond: %q", text1, text2)
	}
	if !reflect.DeepEqual(urls1, urls2) {
		t.Fatalf("urls not stable: %v vs %v", urls1, urls2)
	}
	assertCitationInvariant(t, text1, urls1)
}

func TestReconcileCitationsAppendsReferencesLine(t *testing.T) {
	gotText, gotURLs := ReconcileCitations("Only one source [2].", []string{"a", "b"}, nil)

	wantText := "Only one source [1].\n\nReferences: [1]"
	if gotText != wantText {
		t.Fatalf("text = %q, want %q", gotText, wantText)
	}
	if !reflect.DeepEqual(gotURLs, []string{"b"}) {
		t.Fatalf("urls = %v", gotURLs)
	}
}

// assertCitationInvariant checks that every marker indexes into urls 1-based
// and that the references line enumerates exactly 1..len(urls).
func assertCitationInvariant(t *testing.T, text string, urls []string) {
	t.Helper()
	for _, m := range regexp.MustCompile(`\[(\d+)\]`).FindAllStringSubmatch(text, -1) {
		k, _ := strconv.Atoi(m[1])
		if k < 1 || k > len(urls) {
			t.Fatalf("marker [%d] out of range for %d urls in %q", k, len(urls), text)
		}
	}
	seen := make(map[string]bool)
	for _, u := range urls {
		if seen[u] {
			t.Fatalf("duplicate url %s in %v", u, urls)
		}
		seen[u] = true
	}
	if len(urls) > 0 {
		refs := "References:"
		for i := range urls {
			refs += fmt.Sprintf(" [%d]", i+1)
		}
		if !regexp.MustCompile(regexp.QuoteMeta(refs) + `$`).MatchString(text) {
			t.Fatalf("missing references line %q in %q", refs, text)
		}
	}
}

package corpus

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeArtifact(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fragments.jsonl")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFileLoaderReadsFragments(t *testing.T) {
	path := writeArtifact(t, `{"url": "https://docs.example.com/a", "title": "A", "content": "alpha", "source_type": "docs"}

{"url": "https://docs.example.com/b", "content": "beta", "source_type": "faq"}
`)

	fragments, err := NewFileLoader(path).Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(fragments) != 2 {
		t.Fatalf("len = %d, want 2 (blank lines skipped)", len(fragments))
	}
	if fragments[0].URL != "https://docs.example.com/a" || fragments[0].Title != "A" {
		t.Fatalf("fragment[0] = %+v", fragments[0])
	}
	if fragments[1].SourceType != "faq" {
		t.Fatalf("fragment[1] = %+v", fragments[1])
	}
}

func TestFileLoaderRejectsInvalidLine(t *testing.T) {
	path := writeArtifact(t, `{"url": "ok", "content": "x"}
not json
`)

	if _, err := NewFileLoader(path).Load(context.Background()); err == nil {
		t.Fatal("expected an error for an invalid line")
	}
}

func TestFileLoaderMissingFile(t *testing.T) {
	if _, err := NewFileLoader("/nonexistent/fragments.jsonl").Load(context.Background()); err == nil {
		t.Fatal("expected an error for a missing artifact")
	}
}

package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/docmind/docmind/pkg/config"
	"github.com/docmind/docmind/pkg/llms"
)

// echoProvider summarizes every thread the same way.
type echoProvider struct {
	calls atomic.Int64
	fail  bool
}

func (p *echoProvider) GenerateStructured(ctx context.Context, prompt string, schema *llms.Schema) (json.RawMessage, int, error) {
	p.calls.Add(1)
	if p.fail {
		return nil, 0, fmt.Errorf("model unavailable")
	}
	return json.RawMessage(`{"summary": "resolved by upgrading the SDK"}`), 0, nil
}

func (p *echoProvider) GetModelName() string    { return "echo" }
func (p *echoProvider) GetMaxTokens() int       { return 4096 }
func (p *echoProvider) GetTemperature() float64 { return 0 }
func (p *echoProvider) Close() error            { return nil }

type staticSource struct{ threads []Thread }

func (s *staticSource) Threads(ctx context.Context) ([]Thread, error) {
	return s.threads, nil
}

func makeThreads(n int) []Thread {
	threads := make([]Thread, n)
	for i := range threads {
		threads[i] = Thread{
			ID:       fmt.Sprintf("thread-%d", i),
			Title:    fmt.Sprintf("Problem %d", i),
			Messages: []string{"how?", "like this"},
		}
	}
	return threads
}

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "summaries.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testConfig() config.SummarizerConfig {
	cfg := config.SummarizerConfig{}
	cfg.SetDefaults()
	cfg.BatchSize = 4
	cfg.MaxConcurrent = 2
	return cfg
}

func TestRunSummarizesAllThreads(t *testing.T) {
	store := testStore(t)
	provider := &echoProvider{}
	job := New(provider, &staticSource{threads: makeThreads(10)}, store, testConfig())

	saved, err := job.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if saved != 10 {
		t.Fatalf("saved = %d, want 10", saved)
	}

	ids, err := store.SummarizedThreadIDs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 10 {
		t.Fatalf("stored = %d, want 10", len(ids))
	}
}

func TestRunSkipsAlreadySummarized(t *testing.T) {
	store := testStore(t)
	source := &staticSource{threads: makeThreads(5)}

	first := &echoProvider{}
	if _, err := New(first, source, store, testConfig()).Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	second := &echoProvider{}
	saved, err := New(second, source, store, testConfig()).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if saved != 0 {
		t.Fatalf("saved = %d on rerun, want 0", saved)
	}
	if got := second.calls.Load(); got != 0 {
		t.Fatalf("model called %d times on rerun, want 0", got)
	}
}

func TestRunSurvivesIndividualThreadFailures(t *testing.T) {
	store := testStore(t)
	provider := &echoProvider{fail: true}
	job := New(provider, &staticSource{threads: makeThreads(3)}, store, testConfig())

	saved, err := job.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if saved != 0 {
		t.Fatalf("saved = %d, want 0 when every summarization fails", saved)
	}
}

// brokenStore fails every save with a permanent error.
type brokenStore struct{}

func (brokenStore) SaveBatch(ctx context.Context, batch []Summary) error {
	return fmt.Errorf("schema mismatch")
}

func (brokenStore) SummarizedThreadIDs(ctx context.Context) (map[string]struct{}, error) {
	return map[string]struct{}{}, nil
}

func TestRunReleasesWorkersWhenSaveFails(t *testing.T) {
	before := runtime.NumGoroutine()

	cfg := testConfig()
	cfg.BatchSize = 2
	cfg.MaxConcurrent = 4
	provider := &echoProvider{}
	job := New(provider, &staticSource{threads: makeThreads(12)}, brokenStore{}, cfg)

	saved, err := job.Run(context.Background())
	if err == nil {
		t.Fatal("expected the failed save to abort the run")
	}
	if saved != 0 {
		t.Fatalf("saved = %d, want 0", saved)
	}

	// Every worker must finish instead of blocking on the results channel.
	deadline := time.Now().Add(2 * time.Second)
	for runtime.NumGoroutine() > before+1 {
		if time.Now().After(deadline) {
			t.Fatalf("goroutines leaked: %d before, %d after", before, runtime.NumGoroutine())
		}
		time.Sleep(10 * time.Millisecond)
	}
	if got := provider.calls.Load(); got != 12 {
		t.Fatalf("model calls = %d, want 12 (all workers ran to completion)", got)
	}
}

func TestSaveBatchIsIdempotentPerThread(t *testing.T) {
	store := testStore(t)
	batch := []Summary{{ThreadID: "t1", Title: "x", Text: "first", RunID: "r1"}}
	if err := store.SaveBatch(context.Background(), batch); err != nil {
		t.Fatal(err)
	}
	batch[0].Text = "second"
	if err := store.SaveBatch(context.Background(), batch); err != nil {
		t.Fatal(err)
	}

	ids, err := store.SummarizedThreadIDs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 {
		t.Fatalf("stored = %d, want 1", len(ids))
	}
}

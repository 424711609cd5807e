package summarize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/docmind/docmind/pkg/config"
	"github.com/docmind/docmind/pkg/llms"
)

// Thread is one discussion thread to summarize.
type Thread struct {
	ID       string
	Title    string
	Messages []string
}

// ThreadSource yields the threads eligible for summarization.
type ThreadSource interface {
	Threads(ctx context.Context) ([]Thread, error)
}

const summaryPrompt = `Summarize the following support thread for a documentation knowledge base. Capture the question, the accepted resolution and any version or configuration caveats in at most 5 sentences. Fill "summary" with the result.

Thread: %s

%s`

// summaryOutput is the schema the summarizer model fills in.
type summaryOutput struct {
	Summary string `json:"summary" jsonschema:"description=Concise summary of the thread"`
}

var summarySchema = llms.MustSchema("summarize", &summaryOutput{})

// SummaryStore persists summaries. *Store implements it.
type SummaryStore interface {
	SaveBatch(ctx context.Context, batch []Summary) error
	SummarizedThreadIDs(ctx context.Context) (map[string]struct{}, error)
}

// Summarizer is the offline corpus-enrichment batch job. It summarizes
// threads with a bounded number of concurrent model calls and persists
// results incrementally in batches, retrying transient storage failures
// with exponential backoff.
type Summarizer struct {
	provider llms.Provider
	source   ThreadSource
	store    SummaryStore

	maxConcurrent int64
	batchSize     int
	maxRetries    int
	retryDelay    time.Duration
}

// New creates a summarizer job.
func New(provider llms.Provider, source ThreadSource, store SummaryStore, cfg config.SummarizerConfig) *Summarizer {
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 5
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 10
	}
	retryDelay := time.Duration(cfg.RetryDelaySeconds * float64(time.Second))
	if retryDelay <= 0 {
		retryDelay = time.Second
	}
	return &Summarizer{
		provider:      provider,
		source:        source,
		store:         store,
		maxConcurrent: int64(maxConcurrent),
		batchSize:     batchSize,
		maxRetries:    cfg.MaxRetries,
		retryDelay:    retryDelay,
	}
}

// Run summarizes every thread that does not have a summary yet. It returns
// the number of summaries written. Individual thread failures are logged and
// skipped; only storage failures that survive retries abort the run.
func (s *Summarizer) Run(ctx context.Context) (int, error) {
	runID := uuid.NewString()

	threads, err := s.source.Threads(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list threads: %w", err)
	}
	done, err := s.store.SummarizedThreadIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read existing summaries: %w", err)
	}

	pending := threads[:0:0]
	for _, t := range threads {
		if _, ok := done[t.ID]; !ok {
			pending = append(pending, t)
		}
	}
	slog.Info("summarization run starting",
		"run_id", runID, "threads", len(threads), "pending", len(pending))

	sem := semaphore.NewWeighted(s.maxConcurrent)
	results := make(chan Summary, s.batchSize)

	var wg sync.WaitGroup
	go func() {
		for _, thread := range pending {
			if err := sem.Acquire(ctx, 1); err != nil {
				break
			}
			wg.Add(1)
			go func(t Thread) {
				defer sem.Release(1)
				defer wg.Done()
				sum, err := s.summarizeThread(ctx, t, runID)
				if err != nil {
					slog.Warn("thread summarization failed", "thread_id", t.ID, "error", err)
					return
				}
				results <- sum
			}(thread)
		}
		wg.Wait()
		close(results)
	}()

	// Workers block sending on results once the buffer fills; when a save
	// aborts the run, keep draining until the producer closes the channel
	// so every worker can exit.
	drainResults := func() {
		go func() {
			for range results {
			}
		}()
	}

	saved := 0
	batch := make([]Summary, 0, s.batchSize)
	for sum := range results {
		batch = append(batch, sum)
		if len(batch) >= s.batchSize {
			if err := s.saveWithRetry(ctx, batch); err != nil {
				drainResults()
				return saved, err
			}
			saved += len(batch)
			batch = batch[:0]
		}
	}
	if err := s.saveWithRetry(ctx, batch); err != nil {
		return saved, err
	}
	saved += len(batch)

	slog.Info("summarization run complete", "run_id", runID, "saved", saved)
	return saved, nil
}

func (s *Summarizer) summarizeThread(ctx context.Context, t Thread, runID string) (Summary, error) {
	prompt := fmt.Sprintf(summaryPrompt, t.Title, strings.Join(t.Messages, "\n"))

	raw, _, err := s.provider.GenerateStructured(ctx, prompt, summarySchema)
	if err != nil {
		return Summary{}, err
	}
	var out summaryOutput
	if err := llms.DecodeStructured(s.provider.GetModelName(), raw, &out); err != nil {
		return Summary{}, err
	}
	if strings.TrimSpace(out.Summary) == "" {
		return Summary{}, fmt.Errorf("model returned empty summary")
	}

	return Summary{
		ThreadID: t.ID,
		Title:    t.Title,
		Text:     strings.TrimSpace(out.Summary),
		RunID:    runID,
		Created:  time.Now().UTC(),
	}, nil
}

// saveWithRetry persists one batch, backing off exponentially on transient
// database errors up to the retry cap.
func (s *Summarizer) saveWithRetry(ctx context.Context, batch []Summary) error {
	if len(batch) == 0 {
		return nil
	}
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			delay := s.retryDelay * time.Duration(1<<(attempt-1))
			slog.Warn("retrying batch save", "attempt", attempt, "delay", delay, "error", lastErr)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		lastErr = s.store.SaveBatch(ctx, batch)
		if lastErr == nil {
			return nil
		}
		if !isTransientDBError(lastErr) {
			return lastErr
		}
	}
	return fmt.Errorf("batch save failed after %d retries: %w", s.maxRetries, lastErr)
}

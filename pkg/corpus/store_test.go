package corpus

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// countingLoader counts loads and can be told to fail.
type countingLoader struct {
	loads atomic.Int64
	fail  atomic.Bool
	delay time.Duration
}

func (l *countingLoader) Load(ctx context.Context) ([]*Fragment, error) {
	if l.delay > 0 {
		time.Sleep(l.delay)
	}
	n := l.loads.Add(1)
	if l.fail.Load() {
		return nil, fmt.Errorf("source unavailable")
	}
	return []*Fragment{
		{URL: fmt.Sprintf("https://docs.example.com/%d", n), Content: "body"},
	}, nil
}

func TestSnapshotCachedWithinTTL(t *testing.T) {
	loader := &countingLoader{}
	store := NewStore(loader, time.Hour)

	first, err := store.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	second, err := store.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if first != second {
		t.Fatal("expected the cached snapshot to be reused")
	}
	if got := loader.loads.Load(); got != 1 {
		t.Fatalf("loads = %d, want 1", got)
	}
}

func TestSnapshotRefreshesWhenStale(t *testing.T) {
	loader := &countingLoader{}
	store := NewStore(loader, time.Nanosecond)

	if _, err := store.Snapshot(context.Background()); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)
	if _, err := store.Snapshot(context.Background()); err != nil {
		t.Fatal(err)
	}

	if got := loader.loads.Load(); got != 2 {
		t.Fatalf("loads = %d, want 2", got)
	}
}

func TestConcurrentColdReadsSingleFlight(t *testing.T) {
	loader := &countingLoader{delay: 20 * time.Millisecond}
	store := NewStore(loader, time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Snapshot(context.Background()); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if got := loader.loads.Load(); got != 1 {
		t.Fatalf("loads = %d, want 1 (refreshes must collapse)", got)
	}
}

func TestStaleSnapshotServedOnRefreshFailure(t *testing.T) {
	loader := &countingLoader{}
	store := NewStore(loader, time.Nanosecond)

	first, err := store.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	loader.fail.Store(true)
	time.Sleep(time.Millisecond)
	second, err := store.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if second != first {
		t.Fatal("expected the stale snapshot to be served on refresh failure")
	}
}

func TestColdLoadFailurePropagates(t *testing.T) {
	loader := &countingLoader{}
	loader.fail.Store(true)
	store := NewStore(loader, time.Hour)

	if _, err := store.Snapshot(context.Background()); err == nil {
		t.Fatal("expected an error when the first load fails")
	}
}

func TestRefreshForcesReload(t *testing.T) {
	loader := &countingLoader{}
	store := NewStore(loader, time.Hour)

	if _, err := store.Snapshot(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := loader.loads.Load(); got != 2 {
		t.Fatalf("loads = %d, want 2", got)
	}
}

func TestSnapshotDropsDuplicateURLs(t *testing.T) {
	snap := NewSnapshot([]*Fragment{
		{URL: "a", Content: "first"},
		{URL: "a", Content: "second"},
		{URL: "b", Content: "third"},
	})

	if snap.Len() != 2 {
		t.Fatalf("len = %d, want 2", snap.Len())
	}
	if snap.ByURL("a").Content != "first" {
		t.Fatal("first occurrence must win")
	}
}

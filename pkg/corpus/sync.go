package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/docmind/docmind/pkg/embedders"
	"github.com/docmind/docmind/pkg/vector"
)

// Syncer pushes the current corpus snapshot into the vector store so the
// semantic retriever can find it. It embeds whole fragments; chunking happens
// upstream in the dataset pipeline.
type Syncer struct {
	store      *Store
	embedder   embedders.Embedder
	provider   vector.Provider
	collection string
}

// NewSyncer creates a corpus-to-vector-store syncer.
func NewSyncer(store *Store, embedder embedders.Embedder, provider vector.Provider, collection string) *Syncer {
	return &Syncer{
		store:      store,
		embedder:   embedder,
		provider:   provider,
		collection: collection,
	}
}

// Sync embeds and upserts every fragment in the snapshot. Returns the number
// of fragments indexed.
func (s *Syncer) Sync(ctx context.Context) (int, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return 0, err
	}

	started := time.Now()
	indexed := 0
	for _, fragment := range snap.Fragments() {
		if err := ctx.Err(); err != nil {
			return indexed, err
		}
		if fragment.URL == "" || fragment.Content == "" {
			continue
		}

		embedding, err := s.embedder.Embed(ctx, fragment.Content)
		if err != nil {
			slog.Warn("Failed to embed fragment", "url", fragment.URL, "error", err)
			continue
		}

		metadata := map[string]any{
			"url":         fragment.URL,
			"source_type": fragment.SourceType,
			"content":     fragment.Content,
		}
		if fragment.Title != "" {
			metadata["title"] = fragment.Title
		}

		if err := s.provider.Upsert(ctx, s.collection, fragment.URL, embedding, metadata); err != nil {
			return indexed, fmt.Errorf("failed to upsert fragment %s: %w", fragment.URL, err)
		}
		indexed++
	}

	slog.Info("Synced corpus to vector store",
		"collection", s.collection,
		"indexed", indexed,
		"total", snap.Len(),
		"elapsed", time.Since(started))

	return indexed, nil
}

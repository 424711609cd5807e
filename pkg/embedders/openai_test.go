package embedders

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docmind/docmind/pkg/config"
	"github.com/docmind/docmind/pkg/httpclient"
)

// fastRetryClient keeps retry backoff out of test runtime.
func fastRetryClient() *httpclient.Client {
	return httpclient.New(
		httpclient.WithTimeout(5*time.Second),
		httpclient.WithMaxRetries(3),
		httpclient.WithBaseDelay(time.Millisecond),
	)
}

func TestOpenAIEmbedRetriesRateLimit(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": [{"embedding": [0.1, 0.2, 0.3], "index": 0}]}`))
	}))
	defer srv.Close()

	cfg := &config.EmbedderConfig{Type: "openai", APIKey: "test-key", Host: srv.URL}
	cfg.SetDefaults()
	e, err := NewOpenAIEmbedderFromConfig(cfg)
	require.NoError(t, err)
	e.client = fastRetryClient()

	vec, err := e.Embed(context.Background(), "retry me")
	require.NoError(t, err)

	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, int64(2), calls.Load(), "a rate-limited attempt must be retried")
}

func TestOpenAIEmbedSurfacesExhaustedRetries(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	cfg := &config.EmbedderConfig{Type: "openai", APIKey: "test-key", Host: srv.URL}
	cfg.SetDefaults()
	e, err := NewOpenAIEmbedderFromConfig(cfg)
	require.NoError(t, err)
	e.client = fastRetryClient()

	_, err = e.Embed(context.Background(), "always limited")
	require.Error(t, err)
	assert.True(t, httpclient.IsTransient(err))
	assert.Equal(t, int64(4), calls.Load(), "the full retry budget must be spent")
}

func TestOllamaEmbedRetriesTransientError(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"embedding": [1, 2]}`))
	}))
	defer srv.Close()

	cfg := &config.EmbedderConfig{Type: "ollama", Host: srv.URL}
	cfg.SetDefaults()
	e, err := NewOllamaEmbedderFromConfig(cfg)
	require.NoError(t, err)
	e.client = fastRetryClient()

	vec, err := e.Embed(context.Background(), "retry me")
	require.NoError(t, err)

	assert.Equal(t, []float32{1, 2}, vec)
	assert.Equal(t, int64(2), calls.Load())
}

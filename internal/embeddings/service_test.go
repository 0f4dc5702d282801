package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/ragchatd/internal/config"
)

// newTestServer serves /v1/embeddings returning vectors of the given
// dimension for each input text.
func newTestServer(t *testing.T, dim int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/embeddings", r.URL.Path)

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		type datum struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		}
		data := make([]datum, len(req.Input))
		for i := range req.Input {
			vec := make([]float32, dim)
			vec[0] = float32(i + 1)
			data[i] = datum{Index: i, Embedding: vec}
		}
		json.NewEncoder(w).Encode(map[string]any{"data": data})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestService(t *testing.T, baseURL string, vectorSize int) *Service {
	t.Helper()
	svc, err := NewService(config.EmbeddingsConfig{
		BaseURL: baseURL,
		Model:   "all-MiniLM-L6-v2",
		Timeout: 5 * time.Second,
	}, vectorSize)
	require.NoError(t, err)
	return svc
}

func TestEmbedDocuments(t *testing.T) {
	srv := newTestServer(t, 4)
	svc := newTestService(t, srv.URL, 4)

	vectors, err := svc.EmbedDocuments(context.Background(), []string{"alpha", "beta", "gamma"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	for i, vec := range vectors {
		assert.Len(t, vec, 4)
		assert.Equal(t, float32(i+1), vec[0], "vectors must keep input order")
	}
}

func TestEmbedQuery(t *testing.T) {
	srv := newTestServer(t, 4)
	svc := newTestService(t, srv.URL, 4)

	vec, err := svc.EmbedQuery(context.Background(), "what is chunking?")
	require.NoError(t, err)
	assert.Len(t, vec, 4)
}

func TestEmbedEmptyInput(t *testing.T) {
	srv := newTestServer(t, 4)
	svc := newTestService(t, srv.URL, 4)

	_, err := svc.EmbedDocuments(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = svc.EmbedQuery(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestEmbedDimensionMismatchFailsFast(t *testing.T) {
	srv := newTestServer(t, 8)
	svc := newTestService(t, srv.URL, 4)

	_, err := svc.EmbedQuery(context.Background(), "query")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	assert.Error(t, svc.Probe(context.Background()))
}

func TestEmbedServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	svc := newTestService(t, srv.URL, 4)

	_, err := svc.EmbedDocuments(context.Background(), []string{"text"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmbeddingFailed)
}

func TestEmbedContextCancellation(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	t.Cleanup(func() {
		close(block)
		srv.Close()
	})
	svc := newTestService(t, srv.URL, 4)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := svc.EmbedQuery(ctx, "query")
	require.Error(t, err)
}

func TestProbeSuccess(t *testing.T) {
	srv := newTestServer(t, 4)
	svc := newTestService(t, srv.URL, 4)

	require.NoError(t, svc.Probe(context.Background()))
	assert.Equal(t, 4, svc.Dimension())
}

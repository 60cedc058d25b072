package encoder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaEmbedder_Encode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)

		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.Equal(t, []string{"запрос"}, req.Input)

		_ = json.NewEncoder(w).Encode(embedResponse{
			Embeddings: [][]float32{{0.1, 0.2, 0.3}},
		})
	}))
	defer srv.Close()

	embedder := NewOllamaEmbedder(srv.URL, "test-model", 5*time.Second, srv.Client())

	embeddings, err := embedder.Encode(context.Background(), []string{"запрос"})

	require.NoError(t, err)
	require.Len(t, embeddings, 1)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, embeddings[0])
}

func TestOllamaEmbedder_CountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(embedResponse{
			Embeddings: [][]float32{{0.1}},
		})
	}))
	defer srv.Close()

	embedder := NewOllamaEmbedder(srv.URL, "test-model", 5*time.Second, srv.Client())

	_, err := embedder.Encode(context.Background(), []string{"a", "b"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 2 embeddings")
}

func TestOllamaEmbedder_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	embedder := NewOllamaEmbedder(srv.URL, "missing-model", 5*time.Second, srv.Client())

	_, err := embedder.Encode(context.Background(), []string{"a"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestOllamaEmbedder_VersionIsModelName(t *testing.T) {
	embedder := NewOllamaEmbedder("http://example", "embeddinggemma", time.Second, nil)

	assert.Equal(t, "embeddinggemma", embedder.Version())
}

package rerank

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

func newTestScorer(t *testing.T, handler http.HandlerFunc) (*HTTPScorer, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	scorer := NewHTTPScorer(srv.URL, "test-model", 256, 5*time.Second, discardLogger(), srv.Client())
	return scorer, srv
}

func TestHTTPScorer_MapsScoresBackToInputOrder(t *testing.T) {
	scorer, _ := newTestScorer(t, func(w http.ResponseWriter, r *http.Request) {
		var req scoreRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "/v1/rerank", r.URL.Path)
		assert.Equal(t, "test-model", req.Model)
		assert.Len(t, req.Candidates, 2)

		// Results arrive out of order on purpose.
		_ = json.NewEncoder(w).Encode(scoreResponse{
			Results: []scoreResponseResult{
				{Index: 1, Score: 0.9},
				{Index: 0, Score: 0.2},
			},
			Model: "test-model",
		})
	})

	scores, err := scorer.Score(context.Background(), "query", []string{"first", "second"})

	require.NoError(t, err)
	assert.Equal(t, []float64{0.2, 0.9}, scores)
}

func TestHTTPScorer_MissingScoreIsAnError(t *testing.T) {
	scorer, _ := newTestScorer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(scoreResponse{
			Results: []scoreResponseResult{{Index: 0, Score: 0.5}},
		})
	})

	_, err := scorer.Score(context.Background(), "query", []string{"first", "second"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing score")
}

func TestHTTPScorer_InvalidIndexIsAnError(t *testing.T) {
	scorer, _ := newTestScorer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(scoreResponse{
			Results: []scoreResponseResult{{Index: 5, Score: 0.5}},
		})
	})

	_, err := scorer.Score(context.Background(), "query", []string{"only"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid result index")
}

func TestHTTPScorer_BadStatus(t *testing.T) {
	scorer, _ := newTestScorer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})

	_, err := scorer.Score(context.Background(), "query", []string{"a"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestHTTPScorer_EmptyContentsShortCircuits(t *testing.T) {
	called := false
	scorer, _ := newTestScorer(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	scores, err := scorer.Score(context.Background(), "query", nil)

	require.NoError(t, err)
	assert.Empty(t, scores)
	assert.False(t, called)
}

func TestHTTPScorer_Healthcheck(t *testing.T) {
	scorer, _ := newTestScorer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	assert.NoError(t, scorer.Healthcheck(context.Background()))
}

func TestHTTPScorer_HealthcheckFailsOnBadStatus(t *testing.T) {
	scorer, _ := newTestScorer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	assert.Error(t, scorer.Healthcheck(context.Background()))
}

func TestHTTPScorer_ReportsConfiguredLimits(t *testing.T) {
	scorer := NewHTTPScorer("http://example", "m", 0, time.Second, discardLogger(), nil)

	assert.Equal(t, defaultMaxInputRunes, scorer.MaxInputRunes())
	assert.Equal(t, "m", scorer.ModelName())
}

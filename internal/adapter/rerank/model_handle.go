package rerank

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"retrieval-orchestrator/internal/domain"
)

// LoaderFunc performs the one-time model initialization and returns the
// scorer backed by the loaded model.
type LoaderFunc func(ctx context.Context) (domain.CrossEncoderScorer, error)

// ModelHandle owns the process-wide rerank model. The model is loaded
// lazily on first use and then kept memory-resident for the life of the
// process; a failed load returns the handle to the unloaded state so later
// calls can retry. All loading and inference goes through one mutex, which
// both guards the state transitions and serializes inference calls (the
// underlying runtime is not assumed safe for concurrent use).
type ModelHandle struct {
	mu     sync.Mutex
	state  domain.ModelState
	scorer domain.CrossEncoderScorer
	load   LoaderFunc
	logger *slog.Logger

	// Scoring metrics, exposed on the info endpoint.
	totalCalls   int64
	totalLatency time.Duration
}

// NewModelHandle creates an unloaded handle around the given loader.
func NewModelHandle(load LoaderFunc, logger *slog.Logger) *ModelHandle {
	return &ModelHandle{
		state:  domain.ModelUnloaded,
		load:   load,
		logger: logger,
	}
}

var _ domain.CrossEncoderScorer = (*ModelHandle)(nil)

// State reports the handle's current lifecycle state.
func (h *ModelHandle) State() domain.ModelState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Metrics returns the number of scoring calls served and their cumulative
// latency.
func (h *ModelHandle) Metrics() (calls int64, total time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.totalCalls, h.totalLatency
}

// Score lazily loads the model on first use, then scores the pairs. Errors
// are wrapped as RerankerUnavailableError; the caller falls back to the
// Stage-1 fused order.
func (h *ModelHandle) Score(ctx context.Context, query string, contents []string) ([]float64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != domain.ModelReady {
		h.state = domain.ModelLoading
		start := time.Now()
		scorer, err := h.load(ctx)
		if err != nil {
			h.state = domain.ModelUnloaded
			h.logger.Warn("rerank_model_load_failed",
				slog.String("error", err.Error()),
				slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))
			return nil, &domain.RerankerUnavailableError{Cause: err}
		}
		h.scorer = scorer
		h.state = domain.ModelReady
		h.logger.Info("rerank_model_loaded",
			slog.String("model", scorer.ModelName()),
			slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))
	}

	start := time.Now()
	scores, err := h.scorer.Score(ctx, query, contents)
	if err != nil {
		return nil, &domain.RerankerUnavailableError{Cause: err}
	}
	h.totalCalls++
	h.totalLatency += time.Since(start)
	return scores, nil
}

func (h *ModelHandle) MaxInputRunes() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == domain.ModelReady {
		return h.scorer.MaxInputRunes()
	}
	return defaultMaxInputRunes
}

func (h *ModelHandle) ModelName() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == domain.ModelReady {
		return h.scorer.ModelName()
	}
	return "unloaded"
}

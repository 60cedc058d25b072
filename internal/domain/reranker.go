package domain

import "context"

// CrossEncoderScorer scores (query, document content) pairs jointly with a
// cross-encoder model, as opposed to comparing independently computed
// embeddings. Scores are returned aligned with the contents slice.
//
// Implementations are not required to be safe for concurrent calls; callers
// serialize access (see ModelState and the rerank adapter).
type CrossEncoderScorer interface {
	Score(ctx context.Context, query string, contents []string) ([]float64, error)

	// MaxInputRunes is the model's maximum document input length. Longer
	// contents are truncated deterministically before scoring.
	MaxInputRunes() int

	// ModelName returns the model identifier for logging.
	ModelName() string
}

// ModelState describes the lifecycle of the process-wide rerank model.
// The only legal transitions are Unloaded -> Loading -> Ready; a failed load
// returns to Unloaded so a later call may retry.
type ModelState string

const (
	ModelUnloaded ModelState = "unloaded"
	ModelLoading  ModelState = "loading"
	ModelReady    ModelState = "ready"
)

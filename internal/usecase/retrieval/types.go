package retrieval

import (
	"time"

	"retrieval-orchestrator/internal/domain"
)

// StageContext carries data between pipeline stages for a single query.
type StageContext struct {
	// Input
	RetrievalID   string
	Query         string
	ExpandedQuery string

	// Stage 1 outputs
	KeywordHits []domain.RankedCandidate
	VectorHits  []domain.RankedCandidate

	// Fusion output
	Fused []domain.FusedCandidate

	// Stage 2 output
	Results  []domain.ScoredResult
	Reranked bool

	// Timings for diagnostics
	Stage1Duration time.Duration
	Stage2Duration time.Duration
}

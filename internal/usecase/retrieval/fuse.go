package retrieval

import (
	"log/slog"
	"sort"

	"retrieval-orchestrator/internal/domain"

	"github.com/google/uuid"
)

// FusionConfig holds weighted reciprocal-rank fusion parameters. Weights
// need not sum to 1; rank position is the only signal compared across the
// two branches because their raw scores live on unrelated scales.
type FusionConfig struct {
	WeightKeyword float64
	WeightVector  float64
	RRFK          float64
}

// DefaultFusionConfig returns the standard weights (keyword 0.3 / vector
// 0.7) and RRF constant 60.
func DefaultFusionConfig() FusionConfig {
	return FusionConfig{
		WeightKeyword: 0.3,
		WeightVector:  0.7,
		RRFK:          60.0,
	}
}

// Fuse merges the two branch-local ranked lists into one globally ordered
// candidate set (Stage 2 of the pipeline). Each candidate at 1-based rank r
// contributes branchWeight / (rrfK + r) to its document's fusion score; a
// document present in both branches accumulates both contributions. Output
// covers every document seen in at least one branch, sorted by descending
// fusion score with ties broken by document id for determinism.
func Fuse(keyword, vector []domain.RankedCandidate, cfg FusionConfig, logger *slog.Logger) []domain.FusedCandidate {
	fusedMap := make(map[uuid.UUID]*domain.FusedCandidate, len(keyword)+len(vector))

	accumulate := func(hits []domain.RankedCandidate, weight float64, branch domain.Branch) {
		for _, hit := range hits {
			f, ok := fusedMap[hit.Document.ID]
			if !ok {
				f = &domain.FusedCandidate{Document: hit.Document}
				fusedMap[hit.Document.ID] = f
			}
			f.FusionScore += weight / (cfg.RRFK + float64(hit.Rank))
			f.PresentIn = append(f.PresentIn, branch)
		}
	}
	accumulate(keyword, cfg.WeightKeyword, domain.BranchKeyword)
	accumulate(vector, cfg.WeightVector, domain.BranchVector)

	results := make([]domain.FusedCandidate, 0, len(fusedMap))
	for _, f := range fusedMap {
		results = append(results, *f)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].FusionScore != results[j].FusionScore {
			return results[i].FusionScore > results[j].FusionScore
		}
		return results[i].Document.ID.String() < results[j].Document.ID.String()
	})

	if logger != nil {
		logger.Info("hybrid_rrf_fusion_completed",
			slog.Int("keyword_count", len(keyword)),
			slog.Int("vector_count", len(vector)),
			slog.Int("fused_count", len(results)))
	}

	return results
}

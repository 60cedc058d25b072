package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"retrieval-orchestrator/internal/domain"
)

// RerankConfig holds Stage-2 cross-encoder parameters.
type RerankConfig struct {
	// TopN is the number of results to keep after reranking.
	TopN int
	// BatchSize bounds how many candidates are sent to the scorer per call.
	// Batching is an execution-strategy detail only: output order and values
	// are identical to scoring one-by-one.
	BatchSize int
	// ScoreThreshold drops candidates scoring below it before truncation.
	ScoreThreshold float64
}

// DefaultRerankConfig returns the standard rerank-25-to-5 settings.
func DefaultRerankConfig() RerankConfig {
	return RerankConfig{
		TopN:      5,
		BatchSize: 16,
	}
}

// Rerank scores each fused candidate against the original (non-expanded)
// query with a cross-encoder and re-orders to a smaller, precision-ranked
// set (Stage 3). Every output document is a member of the input candidate
// set; ties on the rerank score are broken by the prior fusion score, then
// by document id. A scorer failure is returned as-is so the caller can fall
// back to the fused order.
func Rerank(
	ctx context.Context,
	sc *StageContext,
	scorer domain.CrossEncoderScorer,
	cfg RerankConfig,
	logger *slog.Logger,
) error {
	start := time.Now()

	candidates := sc.Fused
	if len(candidates) == 0 {
		sc.Results = nil
		sc.Reranked = true
		return nil
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 1
	}

	scores := make([]float64, 0, len(candidates))
	for lo := 0; lo < len(candidates); lo += batchSize {
		hi := lo + batchSize
		if hi > len(candidates) {
			hi = len(candidates)
		}
		contents := make([]string, 0, hi-lo)
		for _, c := range candidates[lo:hi] {
			contents = append(contents, truncateRunes(c.Document.Content, scorer.MaxInputRunes()))
		}
		batchScores, err := scorer.Score(ctx, sc.Query, contents)
		if err != nil {
			return fmt.Errorf("cross-encoder scoring: %w", err)
		}
		if len(batchScores) != len(contents) {
			return fmt.Errorf("cross-encoder returned %d scores for %d candidates", len(batchScores), len(contents))
		}
		scores = append(scores, batchScores...)
	}

	results := make([]domain.ScoredResult, 0, len(candidates))
	for i, c := range candidates {
		if scores[i] < cfg.ScoreThreshold {
			continue
		}
		results = append(results, domain.ScoredResult{
			Document:    c.Document,
			RerankScore: scores[i],
			Stage1Score: c.FusionScore,
			PresentIn:   c.PresentIn,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].RerankScore != results[j].RerankScore {
			return results[i].RerankScore > results[j].RerankScore
		}
		if results[i].Stage1Score != results[j].Stage1Score {
			return results[i].Stage1Score > results[j].Stage1Score
		}
		return results[i].Document.ID.String() < results[j].Document.ID.String()
	})

	if cfg.TopN > 0 && len(results) > cfg.TopN {
		results = results[:cfg.TopN]
	}

	sc.Results = results
	sc.Reranked = true
	sc.Stage2Duration = time.Since(start)

	logger.Info("reranking_completed",
		slog.String("retrieval_id", sc.RetrievalID),
		slog.Int("candidate_count", len(candidates)),
		slog.Int("result_count", len(results)),
		slog.String("model", scorer.ModelName()),
		slog.Int64("duration_ms", sc.Stage2Duration.Milliseconds()))

	return nil
}

// FallbackResults converts the fused order into final results without
// Stage-2 scores. Used when reranking is disabled or unavailable; re-ranking
// is an optional refinement, never a hard dependency of search correctness.
func FallbackResults(sc *StageContext, topN int) {
	results := make([]domain.ScoredResult, 0, len(sc.Fused))
	for _, c := range sc.Fused {
		results = append(results, domain.ScoredResult{
			Document:    c.Document,
			RerankScore: c.FusionScore,
			Stage1Score: c.FusionScore,
			PresentIn:   c.PresentIn,
		})
	}
	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}
	sc.Results = results
	sc.Reranked = false
}

// truncateRunes deterministically truncates s to at most max runes.
func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

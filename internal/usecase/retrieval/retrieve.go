package retrieval

import (
	"context"
	"log/slog"
	"time"

	"retrieval-orchestrator/internal/domain"

	"golang.org/x/sync/errgroup"
)

// RetrieveCandidates runs the keyword and vector branches concurrently
// (Stage 1). The branches have no data dependency on each other; the call
// suspends until both complete. Either branch failing aborts the whole
// query, wrapped as a RetrievalBackendError, and nothing partial is kept.
func RetrieveCandidates(
	ctx context.Context,
	sc *StageContext,
	keyword domain.Retriever,
	vector domain.Retriever,
	k int,
	logger *slog.Logger,
) error {
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hits, err := keyword.Retrieve(gctx, sc.ExpandedQuery, k)
		if err != nil {
			return &domain.RetrievalBackendError{Branch: domain.BranchKeyword, Cause: err}
		}
		sc.KeywordHits = hits
		return nil
	})
	g.Go(func() error {
		hits, err := vector.Retrieve(gctx, sc.ExpandedQuery, k)
		if err != nil {
			return &domain.RetrievalBackendError{Branch: domain.BranchVector, Cause: err}
		}
		sc.VectorHits = hits
		return nil
	})
	if err := g.Wait(); err != nil {
		sc.KeywordHits, sc.VectorHits = nil, nil
		return err
	}

	sc.Stage1Duration = time.Since(start)
	logger.Info("stage1_retrieval_completed",
		slog.String("retrieval_id", sc.RetrievalID),
		slog.Int("keyword_count", len(sc.KeywordHits)),
		slog.Int("vector_count", len(sc.VectorHits)),
		slog.Int64("duration_ms", sc.Stage1Duration.Milliseconds()))

	return nil
}

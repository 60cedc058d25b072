package retrieval

import (
	"context"
	"fmt"
	"sort"

	"retrieval-orchestrator/internal/domain"

	"github.com/google/uuid"
)

// KeywordRetriever feeds the keyword branch from a tokenized corpus index.
type KeywordRetriever struct {
	index domain.KeywordIndex
	docs  domain.ChunkLookup
}

// NewKeywordRetriever creates the keyword-branch retriever.
func NewKeywordRetriever(index domain.KeywordIndex, docs domain.ChunkLookup) *KeywordRetriever {
	return &KeywordRetriever{index: index, docs: docs}
}

func (r *KeywordRetriever) Source() domain.Branch { return domain.BranchKeyword }

func (r *KeywordRetriever) Retrieve(ctx context.Context, query string, k int) ([]domain.RankedCandidate, error) {
	hits, err := r.index.SearchKeyword(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("keyword index search: %w", err)
	}
	return resolveHits(ctx, r.docs, hits, domain.BranchKeyword)
}

// VectorRetriever feeds the vector branch: it embeds the query and runs a
// nearest-neighbor lookup.
type VectorRetriever struct {
	index   domain.VectorIndex
	docs    domain.ChunkLookup
	encoder domain.VectorEncoder
}

// NewVectorRetriever creates the vector-branch retriever.
func NewVectorRetriever(index domain.VectorIndex, docs domain.ChunkLookup, encoder domain.VectorEncoder) *VectorRetriever {
	return &VectorRetriever{index: index, docs: docs, encoder: encoder}
}

func (r *VectorRetriever) Source() domain.Branch { return domain.BranchVector }

func (r *VectorRetriever) Retrieve(ctx context.Context, query string, k int) ([]domain.RankedCandidate, error) {
	embeddings, err := r.encoder.Encode(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embedding returned for query")
	}

	hits, err := r.index.SearchVector(ctx, embeddings[0], k)
	if err != nil {
		return nil, fmt.Errorf("vector index search: %w", err)
	}
	return resolveHits(ctx, r.docs, hits, domain.BranchVector)
}

// resolveHits loads chunk bodies for index hits and assigns branch-local
// ranks 1..len in decreasing score order. Hits whose documents no longer
// resolve are skipped without disturbing rank continuity.
func resolveHits(ctx context.Context, docs domain.ChunkLookup, hits []domain.IndexHit, branch domain.Branch) ([]domain.RankedCandidate, error) {
	if len(hits) == 0 {
		return nil, nil
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID.String() < hits[j].ID.String()
	})

	ids := make([]uuid.UUID, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	chunks, err := docs.GetChunks(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve chunks: %w", err)
	}

	candidates := make([]domain.RankedCandidate, 0, len(hits))
	for _, h := range hits {
		chunk, ok := chunks[h.ID]
		if !ok {
			continue
		}
		candidates = append(candidates, domain.RankedCandidate{
			Document: chunk,
			Rank:     len(candidates) + 1,
			Source:   branch,
		})
	}
	return candidates, nil
}

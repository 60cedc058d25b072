package domain

import (
	"context"

	"github.com/google/uuid"
)

// Retriever produces one Stage-1 branch's ranked candidate list for a query.
// Implementations return at most k candidates sorted by decreasing relevance
// with ranks assigned 1..len. An empty corpus yields an empty list, not an
// error.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]RankedCandidate, error)

	// Source identifies the branch this retriever feeds.
	Source() Branch
}

// IndexHit is a raw (document id, score) pair returned by an index backend.
type IndexHit struct {
	ID    uuid.UUID
	Score float64
}

// KeywordIndex is the tokenized-corpus (keyword frequency) index backend.
// The saturating term-frequency scoring formula is the index's concern; this
// service only consumes the ordered result.
type KeywordIndex interface {
	SearchKeyword(ctx context.Context, query string, k int) ([]IndexHit, error)
}

// VectorIndex is the nearest-neighbor index backend over embedded chunks.
type VectorIndex interface {
	SearchVector(ctx context.Context, embedding []float32, k int) ([]IndexHit, error)
}

// ChunkLookup resolves document ids to full chunks.
type ChunkLookup interface {
	GetChunks(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]DocumentChunk, error)
}

// VectorEncoder generates embeddings for query text.
type VectorEncoder interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
	Version() string
}

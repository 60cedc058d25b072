package repository

import (
	"context"
	"fmt"

	"retrieval-orchestrator/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// ChunkRepository backs both Stage-1 index interfaces and document lookup
// with one Postgres schema: pgvector for the nearest-neighbor branch and
// Postgres full-text ranking for the keyword branch. The scoring formulas
// themselves are the database's concern; this adapter only consumes ordered
// (id, score) results. Strictly read-only: ingestion writes happen in a
// separate service.
type ChunkRepository struct {
	pool *pgxpool.Pool
}

// NewChunkRepository creates a repository over the given pool.
func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{pool: pool}
}

var (
	_ domain.KeywordIndex = (*ChunkRepository)(nil)
	_ domain.VectorIndex  = (*ChunkRepository)(nil)
	_ domain.ChunkLookup  = (*ChunkRepository)(nil)
)

// SearchKeyword runs full-text retrieval ordered by ts_rank_cd. The
// "simple" configuration keeps tokens unstemmed, which the temporal query
// expansion relies on (both inflected forms must match as distinct tokens).
func (r *ChunkRepository) SearchKeyword(ctx context.Context, query string, k int) ([]domain.IndexHit, error) {
	sql := `
		SELECT id,
		       ts_rank_cd(to_tsvector('simple', content), websearch_to_tsquery('simple', $1)) AS score
		FROM corpus_chunks
		WHERE to_tsvector('simple', content) @@ websearch_to_tsquery('simple', $1)
		ORDER BY score DESC, id ASC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, sql, query, k)
	if err != nil {
		return nil, fmt.Errorf("failed to query keyword index: %w", err)
	}
	defer rows.Close()

	var hits []domain.IndexHit
	for rows.Next() {
		var h domain.IndexHit
		var score float32
		if err := rows.Scan(&h.ID, &score); err != nil {
			return nil, fmt.Errorf("failed to scan keyword hit: %w", err)
		}
		h.Score = float64(score)
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return hits, nil
}

// SearchVector runs nearest-neighbor retrieval by cosine distance.
func (r *ChunkRepository) SearchVector(ctx context.Context, embedding []float32, k int) ([]domain.IndexHit, error) {
	sql := `
		SELECT id, 1 - (embedding <=> $1) AS score
		FROM corpus_chunks
		ORDER BY embedding <=> $1 ASC, id ASC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, sql, pgvector.NewVector(embedding), k)
	if err != nil {
		return nil, fmt.Errorf("failed to query vector index: %w", err)
	}
	defer rows.Close()

	var hits []domain.IndexHit
	for rows.Next() {
		var h domain.IndexHit
		if err := rows.Scan(&h.ID, &h.Score); err != nil {
			return nil, fmt.Errorf("failed to scan vector hit: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return hits, nil
}

// GetChunks resolves document ids to full chunks, keyed by id. Missing ids
// are simply absent from the result.
func (r *ChunkRepository) GetChunks(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.DocumentChunk, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]domain.DocumentChunk{}, nil
	}

	sql := `
		SELECT id, content, metadata
		FROM corpus_chunks
		WHERE id = ANY($1)
	`
	rows, err := r.pool.Query(ctx, sql, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	chunks := make(map[uuid.UUID]domain.DocumentChunk, len(ids))
	for rows.Next() {
		var c domain.DocumentChunk
		if err := rows.Scan(&c.ID, &c.Content, &c.Metadata); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunks[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return chunks, nil
}

package retrieval

import (
	"context"
	"testing"

	"retrieval-orchestrator/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIndex struct {
	keywordHits []domain.IndexHit
	vectorHits  []domain.IndexHit
	chunks      map[uuid.UUID]domain.DocumentChunk
	lastQuery   string
}

func (f *fakeIndex) SearchKeyword(ctx context.Context, query string, k int) ([]domain.IndexHit, error) {
	f.lastQuery = query
	return f.keywordHits, nil
}

func (f *fakeIndex) SearchVector(ctx context.Context, embedding []float32, k int) ([]domain.IndexHit, error) {
	return f.vectorHits, nil
}

func (f *fakeIndex) GetChunks(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.DocumentChunk, error) {
	out := map[uuid.UUID]domain.DocumentChunk{}
	for _, id := range ids {
		if c, ok := f.chunks[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

type fakeEncoder struct{}

func (fakeEncoder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2}
	}
	return out, nil
}

func (fakeEncoder) Version() string { return "fake-encoder" }

func TestKeywordRetriever_RanksByDescendingScore(t *testing.T) {
	idLow, idHigh := uuid.New(), uuid.New()
	index := &fakeIndex{
		keywordHits: []domain.IndexHit{
			{ID: idLow, Score: 0.2},
			{ID: idHigh, Score: 0.9},
		},
		chunks: map[uuid.UUID]domain.DocumentChunk{
			idLow:  {ID: idLow, Content: "low"},
			idHigh: {ID: idHigh, Content: "high"},
		},
	}

	r := NewKeywordRetriever(index, index)
	candidates, err := r.Retrieve(context.Background(), "query", 25)

	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, idHigh, candidates[0].Document.ID)
	assert.Equal(t, 1, candidates[0].Rank)
	assert.Equal(t, 2, candidates[1].Rank)
	assert.Equal(t, domain.BranchKeyword, candidates[0].Source)
}

func TestKeywordRetriever_SkipsUnresolvedDocumentsWithoutRankGaps(t *testing.T) {
	resolved, missing := uuid.New(), uuid.New()
	index := &fakeIndex{
		keywordHits: []domain.IndexHit{
			{ID: missing, Score: 0.9},
			{ID: resolved, Score: 0.2},
		},
		chunks: map[uuid.UUID]domain.DocumentChunk{
			resolved: {ID: resolved, Content: "still here"},
		},
	}

	r := NewKeywordRetriever(index, index)
	candidates, err := r.Retrieve(context.Background(), "query", 25)

	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, resolved, candidates[0].Document.ID)
	assert.Equal(t, 1, candidates[0].Rank, "ranks stay contiguous when a document no longer resolves")
}

func TestVectorRetriever_EmbedsQueryFirst(t *testing.T) {
	id := uuid.New()
	index := &fakeIndex{
		vectorHits: []domain.IndexHit{{ID: id, Score: 0.8}},
		chunks:     map[uuid.UUID]domain.DocumentChunk{id: {ID: id, Content: "doc"}},
	}

	r := NewVectorRetriever(index, index, fakeEncoder{})
	candidates, err := r.Retrieve(context.Background(), "query", 25)

	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, domain.BranchVector, candidates[0].Source)
}

func TestRetriever_EmptyIndexYieldsEmptyList(t *testing.T) {
	index := &fakeIndex{chunks: map[uuid.UUID]domain.DocumentChunk{}}

	r := NewKeywordRetriever(index, index)
	candidates, err := r.Retrieve(context.Background(), "query", 25)

	require.NoError(t, err)
	assert.Empty(t, candidates)
}

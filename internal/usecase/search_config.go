package usecase

import (
	"fmt"
	"time"

	"retrieval-orchestrator/internal/usecase/retrieval"
)

// RerankSettings holds Stage-2 cross-encoder settings.
type RerankSettings struct {
	// Enabled controls whether reranking is applied by default.
	Enabled bool
	// TopN is the number of results to return after reranking.
	TopN int
	// BatchSize bounds candidates per scorer call.
	BatchSize int
	// Threshold drops results scoring below it.
	Threshold float64
	// Timeout is the maximum duration for the whole rerank stage.
	Timeout time.Duration
}

// SearchConfig holds tunable parameters for the two-stage search pipeline.
type SearchConfig struct {
	// InitialLimit is the Stage-1 candidate budget per branch, and the size
	// of the fused pool handed to the reranker.
	InitialLimit int

	// Fusion holds the weighted RRF parameters.
	Fusion retrieval.FusionConfig

	// Rerank holds Stage-2 settings.
	Rerank RerankSettings

	// DefaultLanguage is the corpus language used when a request does not
	// specify one.
	DefaultLanguage string

	// ValidateLanguage controls the default for query language validation.
	ValidateLanguage bool

	// ExpandTemporal toggles calendar-month query expansion.
	ExpandTemporal bool

	// SnippetMaxRunes caps result snippets.
	SnippetMaxRunes int

	// CacheSize and CacheTTL configure the query result cache. A TTL of 0
	// disables caching.
	CacheSize int
	CacheTTL  time.Duration
}

// DefaultSearchConfig returns the standard retrieve-25-rerank-to-5 setup.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		InitialLimit: 25,
		Fusion:       retrieval.DefaultFusionConfig(),
		Rerank: RerankSettings{
			Enabled:   true,
			TopN:      5,
			BatchSize: 16,
			Threshold: 0.0,
			Timeout:   30 * time.Second,
		},
		DefaultLanguage:  "ru",
		ValidateLanguage: true,
		ExpandTemporal:   true,
		SnippetMaxRunes:  300,
		CacheSize:        100,
		CacheTTL:         0,
	}
}

// Validate checks the configuration values.
func (c SearchConfig) Validate() error {
	if c.InitialLimit <= 0 {
		return fmt.Errorf("initialLimit must be positive, got %d", c.InitialLimit)
	}
	if c.Fusion.WeightKeyword < 0 || c.Fusion.WeightVector < 0 {
		return fmt.Errorf("fusion weights must be non-negative, got %f/%f", c.Fusion.WeightKeyword, c.Fusion.WeightVector)
	}
	if c.Fusion.RRFK <= 0 {
		return fmt.Errorf("rrfK must be positive, got %f", c.Fusion.RRFK)
	}
	if c.Rerank.Enabled {
		if c.Rerank.TopN <= 0 {
			return fmt.Errorf("rerank topN must be positive, got %d", c.Rerank.TopN)
		}
		if c.Rerank.BatchSize <= 0 {
			return fmt.Errorf("rerank batchSize must be positive, got %d", c.Rerank.BatchSize)
		}
		if c.Rerank.Timeout <= 0 {
			return fmt.Errorf("rerank timeout must be positive, got %v", c.Rerank.Timeout)
		}
	}
	if c.SnippetMaxRunes <= 0 {
		return fmt.Errorf("snippetMaxRunes must be positive, got %d", c.SnippetMaxRunes)
	}
	return nil
}

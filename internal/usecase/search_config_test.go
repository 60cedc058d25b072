package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSearchConfig_IsValid(t *testing.T) {
	assert.NoError(t, DefaultSearchConfig().Validate())
}

func TestSearchConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SearchConfig)
	}{
		{"zero initial limit", func(c *SearchConfig) { c.InitialLimit = 0 }},
		{"negative keyword weight", func(c *SearchConfig) { c.Fusion.WeightKeyword = -0.1 }},
		{"zero rrfK", func(c *SearchConfig) { c.Fusion.RRFK = 0 }},
		{"zero rerank topN", func(c *SearchConfig) { c.Rerank.TopN = 0 }},
		{"zero rerank batch size", func(c *SearchConfig) { c.Rerank.BatchSize = 0 }},
		{"zero rerank timeout", func(c *SearchConfig) { c.Rerank.Timeout = 0 }},
		{"zero snippet length", func(c *SearchConfig) { c.SnippetMaxRunes = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultSearchConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSearchConfig_RerankChecksSkippedWhenDisabled(t *testing.T) {
	cfg := DefaultSearchConfig()
	cfg.Rerank.Enabled = false
	cfg.Rerank.TopN = 0

	assert.NoError(t, cfg.Validate())
}

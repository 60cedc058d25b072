package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"retrieval-orchestrator/internal/domain"
	"retrieval-orchestrator/internal/infra/logger"
	"retrieval-orchestrator/internal/usecase/retrieval"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// SearchInput defines one search request. The handler applies configuration
// defaults before calling Execute, so all fields are concrete here.
type SearchInput struct {
	Query            string
	ExpectedLanguage string
	ValidateLanguage bool
	InitialLimit     int
	WeightKeyword    float64
	WeightVector     float64
	EnableRerank     bool
	RerankTopN       int
	RerankThreshold  float64
	IncludeScores    bool
	FilterTags       []string
}

// SearchResultItem is one ranked result on the response surface.
type SearchResultItem struct {
	ID             string         `json:"id"`
	ContentSnippet string         `json:"content_snippet"`
	Score          float64        `json:"score"`
	SourceBranches []string       `json:"source_branches"`
	Metadata       map[string]any `json:"metadata"`
}

// Diagnostics describes how a search was executed.
type Diagnostics struct {
	Stage1CandidateCount int    `json:"stage1_candidate_count"`
	Reranked             bool   `json:"reranked"`
	Stage1TimeMs         *int64 `json:"stage1_time_ms,omitempty"`
	Stage2TimeMs         *int64 `json:"stage2_time_ms,omitempty"`
}

// SearchOutput is the full search response.
type SearchOutput struct {
	Results     []SearchResultItem `json:"results"`
	Diagnostics Diagnostics        `json:"diagnostics"`
}

// SearchUsecase executes the two-stage retrieval pipeline.
type SearchUsecase interface {
	Execute(ctx context.Context, input SearchInput) (*SearchOutput, error)
}

type searchUsecase struct {
	keyword domain.Retriever
	vector  domain.Retriever
	scorer  domain.CrossEncoderScorer // nil disables Stage-2 entirely
	cfg     SearchConfig
	cache   *expirable.LRU[string, *SearchOutput]
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewSearchUsecase wires the pipeline. scorer may be nil when reranking is
// disabled at deployment level.
func NewSearchUsecase(
	keyword domain.Retriever,
	vector domain.Retriever,
	scorer domain.CrossEncoderScorer,
	cfg SearchConfig,
	logger *slog.Logger,
) SearchUsecase {
	var cache *expirable.LRU[string, *SearchOutput]
	if cfg.CacheTTL > 0 {
		cache = expirable.NewLRU[string, *SearchOutput](cfg.CacheSize, nil, cfg.CacheTTL)
	}
	return &searchUsecase{
		keyword: keyword,
		vector:  vector,
		scorer:  scorer,
		cfg:     cfg,
		cache:   cache,
		logger:  logger,
		tracer:  otel.Tracer("retrieval-orchestrator"),
	}
}

func (u *searchUsecase) Execute(ctx context.Context, input SearchInput) (*SearchOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, fmt.Errorf("query is empty")
	}

	ctx, span := u.tracer.Start(ctx, "search")
	defer span.End()

	cacheKey := input.cacheKey()
	if u.cache != nil {
		if cached, ok := u.cache.Get(cacheKey); ok {
			u.logger.Debug("search_cache_hit", slog.String("query", input.Query))
			return cached, nil
		}
	}

	// Language validation happens before any index work so mismatches are
	// cheap and carry a user-facing hint.
	if input.ValidateLanguage {
		if err := retrieval.ValidateLanguage(input.Query, input.ExpectedLanguage); err != nil {
			return nil, err
		}
	}

	sc := &retrieval.StageContext{
		RetrievalID:   uuid.NewString(),
		Query:         input.Query,
		ExpandedQuery: input.Query,
	}
	ctx = logger.WithRetrievalID(ctx, sc.RetrievalID)

	lang := input.ExpectedLanguage
	if lang == "" || lang == retrieval.LanguageAll {
		lang = u.cfg.DefaultLanguage
	}
	ctx = logger.WithQueryLanguage(ctx, lang)

	if u.cfg.ExpandTemporal {
		sc.ExpandedQuery = retrieval.ExpandTemporal(input.Query, lang)
		if sc.ExpandedQuery != sc.Query {
			u.logger.DebugContext(ctx, "query_expanded",
				slog.String("original", sc.Query),
				slog.String("expanded", sc.ExpandedQuery))
		}
	}

	// Stage 1: both branches concurrently.
	stage1Ctx, stage1Span := u.tracer.Start(logger.WithPipelineStage(ctx, "stage1_retrieve"), "stage1_retrieve")
	err := retrieval.RetrieveCandidates(stage1Ctx, sc, u.keyword, u.vector, input.InitialLimit, u.logger)
	stage1Span.End()
	if err != nil {
		return nil, err
	}

	// Fusion is pure in-memory computation.
	fusionCfg := retrieval.FusionConfig{
		WeightKeyword: input.WeightKeyword,
		WeightVector:  input.WeightVector,
		RRFK:          u.cfg.Fusion.RRFK,
	}
	sc.Fused = retrieval.Fuse(sc.KeywordHits, sc.VectorHits, fusionCfg, u.logger)
	sc.Fused = filterByTags(sc.Fused, input.FilterTags)
	stage1Count := len(sc.Fused)
	if len(sc.Fused) > input.InitialLimit {
		sc.Fused = sc.Fused[:input.InitialLimit]
	}

	// Stage 2, with fallback to the fused order when the model is
	// unavailable. Cancellation of the request context still aborts.
	if input.EnableRerank && u.scorer != nil {
		rerankCtx, cancel := context.WithTimeout(logger.WithPipelineStage(ctx, "stage2_rerank"), u.cfg.Rerank.Timeout)
		rerankCtx, rerankSpan := u.tracer.Start(rerankCtx, "stage2_rerank")
		err := retrieval.Rerank(rerankCtx, sc, u.scorer, retrieval.RerankConfig{
			TopN:           input.RerankTopN,
			BatchSize:      u.cfg.Rerank.BatchSize,
			ScoreThreshold: input.RerankThreshold,
		}, u.logger)
		rerankSpan.End()
		cancel()

		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			var unavailable *domain.RerankerUnavailableError
			if !errors.As(err, &unavailable) {
				err = &domain.RerankerUnavailableError{Cause: err}
			}
			u.logger.WarnContext(ctx, "reranking_failed_using_fused_order",
				slog.String("error", err.Error()))
			retrieval.FallbackResults(sc, input.RerankTopN)
		}
	} else {
		retrieval.FallbackResults(sc, input.RerankTopN)
	}

	output := u.assemble(sc, input, stage1Count)
	if u.cache != nil {
		u.cache.Add(cacheKey, output)
	}

	u.logger.InfoContext(ctx, "search_completed",
		slog.Int("stage1_candidates", stage1Count),
		slog.Bool("reranked", sc.Reranked),
		slog.Int("result_count", len(output.Results)))

	return output, nil
}

// assemble attaches scores, provenance, and metadata to the final results.
func (u *searchUsecase) assemble(sc *retrieval.StageContext, input SearchInput, stage1Count int) *SearchOutput {
	results := make([]SearchResultItem, 0, len(sc.Results))
	for _, r := range sc.Results {
		branches := make([]string, 0, 2)
		seen := map[domain.Branch]bool{}
		for _, b := range r.PresentIn {
			if !seen[b] {
				branches = append(branches, string(b))
				seen[b] = true
			}
		}

		metadata := make(map[string]any, len(r.Document.Metadata)+2)
		for k, v := range r.Document.Metadata {
			metadata[k] = v
		}
		if input.IncludeScores {
			metadata["stage1_score"] = r.Stage1Score
			if sc.Reranked {
				metadata["stage2_score"] = r.RerankScore
			}
		}

		results = append(results, SearchResultItem{
			ID:             r.Document.ID.String(),
			ContentSnippet: snippet(r.Document.Content, u.cfg.SnippetMaxRunes),
			Score:          r.RerankScore,
			SourceBranches: branches,
			Metadata:       metadata,
		})
	}

	diag := Diagnostics{
		Stage1CandidateCount: stage1Count,
		Reranked:             sc.Reranked,
	}
	if input.IncludeScores {
		s1 := sc.Stage1Duration.Milliseconds()
		s2 := sc.Stage2Duration.Milliseconds()
		diag.Stage1TimeMs = &s1
		diag.Stage2TimeMs = &s2
	}

	return &SearchOutput{Results: results, Diagnostics: diag}
}

// filterByTags keeps candidates carrying at least one requested tag. An
// empty filter keeps everything.
func filterByTags(candidates []domain.FusedCandidate, tags []string) []domain.FusedCandidate {
	if len(tags) == 0 {
		return candidates
	}
	wanted := make(map[string]bool, len(tags))
	for _, t := range tags {
		wanted[t] = true
	}
	filtered := candidates[:0]
	for _, c := range candidates {
		for _, t := range c.Document.Tags() {
			if wanted[t] {
				filtered = append(filtered, c)
				break
			}
		}
	}
	return filtered
}

// snippet collapses whitespace and truncates to max runes.
func snippet(content string, max int) string {
	collapsed := strings.Join(strings.Fields(content), " ")
	runes := []rune(collapsed)
	if len(runes) <= max {
		return collapsed
	}
	return string(runes[:max]) + "..."
}

func (in SearchInput) cacheKey() string {
	return fmt.Sprintf("%s|%s|%t|%d|%g|%g|%t|%d|%g|%t|%s",
		in.Query, in.ExpectedLanguage, in.ValidateLanguage, in.InitialLimit,
		in.WeightKeyword, in.WeightVector, in.EnableRerank, in.RerankTopN,
		in.RerankThreshold, in.IncludeScores, strings.Join(in.FilterTags, ","))
}

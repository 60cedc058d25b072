package di

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"retrieval-orchestrator/internal/adapter/encoder"
	"retrieval-orchestrator/internal/adapter/repository"
	"retrieval-orchestrator/internal/adapter/rerank"
	"retrieval-orchestrator/internal/adapter/search_http"
	"retrieval-orchestrator/internal/domain"
	"retrieval-orchestrator/internal/infra/config"
	"retrieval-orchestrator/internal/infra/httpclient"
	"retrieval-orchestrator/internal/usecase"
	"retrieval-orchestrator/internal/usecase/retrieval"
)

// ApplicationComponents holds all wired dependencies for the application.
type ApplicationComponents struct {
	ChunkRepo *repository.ChunkRepository
	Embedder  domain.VectorEncoder

	// ModelHandle is nil when reranking is disabled.
	ModelHandle *rerank.ModelHandle

	SearchUsecase usecase.SearchUsecase
	Handler       *search_http.Handler
}

// NewApplicationComponents wires all dependencies from config and database pool.
func NewApplicationComponents(cfg *config.Config, pool *pgxpool.Pool, log *slog.Logger) *ApplicationComponents {
	// Repository backing both Stage-1 branches and chunk lookup
	chunkRepo := repository.NewChunkRepository(pool)

	// Shared HTTP clients with connection pooling
	embedderHTTP := httpclient.NewPooledClient(time.Duration(cfg.Embedder.Timeout) * time.Second)
	rerankHTTP := httpclient.NewPooledClient(time.Duration(cfg.Rerank.Timeout) * time.Second)

	embedder := encoder.NewOllamaEmbedder(cfg.Embedder.URL, cfg.Embedder.Model,
		time.Duration(cfg.Embedder.Timeout)*time.Second, embedderHTTP)

	keywordRetriever := retrieval.NewKeywordRetriever(chunkRepo, chunkRepo)
	vectorRetriever := retrieval.NewVectorRetriever(chunkRepo, chunkRepo, embedder)

	searchCfg := usecase.SearchConfig{
		InitialLimit: cfg.Search.InitialLimit,
		Fusion: retrieval.FusionConfig{
			WeightKeyword: cfg.Search.WeightKeyword,
			WeightVector:  cfg.Search.WeightVector,
			RRFK:          cfg.Search.RRFK,
		},
		Rerank: usecase.RerankSettings{
			Enabled:   cfg.Rerank.Enabled,
			TopN:      cfg.Rerank.TopN,
			BatchSize: cfg.Rerank.BatchSize,
			Threshold: cfg.Rerank.Threshold,
			Timeout:   time.Duration(cfg.Rerank.Timeout) * time.Second,
		},
		DefaultLanguage:  cfg.Search.Language,
		ValidateLanguage: cfg.Search.ValidateLanguage,
		ExpandTemporal:   cfg.Search.ExpandTemporal,
		SnippetMaxRunes:  cfg.Search.SnippetMaxRunes,
		CacheSize:        cfg.Cache.Size,
		CacheTTL:         time.Duration(cfg.Cache.TTL) * time.Minute,
	}

	// Optional Stage-2 model, loaded lazily on first scoring call
	var handle *rerank.ModelHandle
	var scorer domain.CrossEncoderScorer
	if cfg.Rerank.Enabled {
		loader := func(ctx context.Context) (domain.CrossEncoderScorer, error) {
			s := rerank.NewHTTPScorer(cfg.Rerank.URL, cfg.Rerank.Model, cfg.Rerank.MaxInputRunes,
				time.Duration(cfg.Rerank.Timeout)*time.Second, log, rerankHTTP)
			if err := s.Healthcheck(ctx); err != nil {
				return nil, err
			}
			return s, nil
		}
		handle = rerank.NewModelHandle(loader, log)
		scorer = handle
		log.Info("reranker_enabled",
			slog.String("url", cfg.Rerank.URL),
			slog.String("model", cfg.Rerank.Model))
	}

	searchUsecase := usecase.NewSearchUsecase(keywordRetriever, vectorRetriever, scorer, searchCfg, log)

	var inspector search_http.ModelInspector
	if handle != nil {
		inspector = handle
	}
	handler := search_http.NewHandler(searchUsecase, inspector, searchCfg)

	return &ApplicationComponents{
		ChunkRepo:     chunkRepo,
		Embedder:      embedder,
		ModelHandle:   handle,
		SearchUsecase: searchUsecase,
		Handler:       handler,
	}
}

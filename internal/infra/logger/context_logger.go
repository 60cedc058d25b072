package logger

import (
	"context"
	"log/slog"
)

type ContextKey string

const (
	// Business context keys for search observability.
	// These follow OpenTelemetry semantic conventions with a 'search.' prefix.
	RetrievalIDKey   ContextKey = "search.retrieval.id"
	PipelineStageKey ContextKey = "search.pipeline.stage"
	QueryLanguageKey ContextKey = "search.query.language"
)

// contextKeys is the extraction order used by contextAttrs.
var contextKeys = []ContextKey{RetrievalIDKey, PipelineStageKey, QueryLanguageKey}

// contextAttrs collects the business context values present on ctx.
func contextAttrs(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr
	for _, key := range contextKeys {
		if v := ctx.Value(key); v != nil {
			if s, ok := v.(string); ok {
				attrs = append(attrs, slog.String(string(key), s))
			}
		}
	}
	return attrs
}

// WithRetrievalID adds the per-request retrieval id to context for observability
func WithRetrievalID(ctx context.Context, retrievalID string) context.Context {
	return context.WithValue(ctx, RetrievalIDKey, retrievalID)
}

// WithPipelineStage adds the pipeline stage to context for observability
func WithPipelineStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, PipelineStageKey, stage)
}

// WithQueryLanguage adds the detected query language to context for observability
func WithQueryLanguage(ctx context.Context, language string) context.Context {
	return context.WithValue(ctx, QueryLanguageKey, language)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug", "DEBUG":
		return slog.LevelDebug
	case "warn", "WARN", "warning", "WARNING":
		return slog.LevelWarn
	case "error", "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

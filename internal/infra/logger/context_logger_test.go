package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logLine(t *testing.T, ctx context.Context, msg string) map[string]any {
	t.Helper()

	var buf bytes.Buffer
	handler := NewTraceContextHandler(slog.NewJSONHandler(&buf, nil))
	slog.New(handler).InfoContext(ctx, msg)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	return record
}

func TestTraceContextHandler_AddsBusinessContextKeys(t *testing.T) {
	ctx := WithRetrievalID(context.Background(), "rid-1")
	ctx = WithPipelineStage(ctx, "stage1_retrieve")
	ctx = WithQueryLanguage(ctx, "ru")

	record := logLine(t, ctx, "search_completed")

	assert.Equal(t, "rid-1", record["search.retrieval.id"])
	assert.Equal(t, "stage1_retrieve", record["search.pipeline.stage"])
	assert.Equal(t, "ru", record["search.query.language"])
}

func TestTraceContextHandler_PlainContextIsClean(t *testing.T) {
	record := logLine(t, context.Background(), "no context")

	assert.NotContains(t, record, "search.retrieval.id")
	assert.NotContains(t, record, "trace_id")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("WARNING"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
	assert.Equal(t, slog.LevelInfo, parseLevel("nonsense"))
}

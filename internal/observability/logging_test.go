package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(NewHandler(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
}

func TestFields_Chaining(t *testing.T) {
	ctx := WithBuildID(context.Background(), "build-1")
	ctx = WithPipeline(ctx, "posts")
	ctx = WithStage(ctx, "sync")
	ctx = WithStage(ctx, "render")

	assert.Equal(t, Fields{BuildID: "build-1", Pipeline: "posts", Stage: "render"}, FromContext(ctx))
	assert.Equal(t, Fields{}, FromContext(context.Background()))
}

func TestHandler_AddsContextFields(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf)

	ctx := WithStage(WithBuildID(context.Background(), "build-1"), "render")
	log.InfoContext(ctx, "test message", slog.String("extra", "value"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "build-1", rec["build_id"])
	assert.Equal(t, "render", rec["stage"])
	assert.Equal(t, "value", rec["extra"])
	assert.NotContains(t, rec, "pipeline")
}

func TestHandler_WithoutContextFields(t *testing.T) {
	var buf bytes.Buffer
	newTestLogger(&buf).Info("plain")
	assert.NotContains(t, buf.String(), "build_id")
}

func TestHandler_KeepsLevelsAndDerivedLoggers(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf).With(slog.String("component", "daemon"))
	ctx := WithPipeline(context.Background(), "icons")

	log.DebugContext(ctx, "d")
	log.WarnContext(ctx, "w")
	log.WithGroup("g").ErrorContext(ctx, "e")

	out := buf.String()
	for _, level := range []string{`"level":"DEBUG"`, `"level":"WARN"`, `"level":"ERROR"`} {
		assert.Contains(t, out, level)
	}
	assert.Equal(t, 3, strings.Count(out, `"pipeline":"icons"`))
	assert.Equal(t, 3, strings.Count(out, `"component":"daemon"`))
}

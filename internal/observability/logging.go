// Package observability carries per-build log context (build ID, pipeline,
// stage) through context.Context. Handler attaches it to every record logged
// with a context.
package observability

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// Fields is the log context of one pipeline run.
type Fields struct {
	BuildID  string
	Pipeline string
	Stage    string
}

type fieldsKey struct{}

// FromContext returns the fields stored in ctx.
func FromContext(ctx context.Context) Fields {
	f, _ := ctx.Value(fieldsKey{}).(Fields)
	return f
}

func with(ctx context.Context, set func(*Fields)) context.Context {
	f := FromContext(ctx)
	set(&f)
	return context.WithValue(ctx, fieldsKey{}, f)
}

func WithBuildID(ctx context.Context, id string) context.Context {
	return with(ctx, func(f *Fields) { f.BuildID = id })
}

// WithPipeline names the pipeline (posts, css, icons, ...).
func WithPipeline(ctx context.Context, pipeline string) context.Context {
	return with(ctx, func(f *Fields) { f.Pipeline = pipeline })
}

func WithStage(ctx context.Context, stage string) context.Context {
	return with(ctx, func(f *Fields) { f.Stage = stage })
}

func (f Fields) attrs() []slog.Attr {
	var attrs []slog.Attr
	if f.BuildID != "" {
		attrs = append(attrs, logfields.BuildID(f.BuildID))
	}
	if f.Pipeline != "" {
		attrs = append(attrs, slog.String("pipeline", f.Pipeline))
	}
	if f.Stage != "" {
		attrs = append(attrs, logfields.Stage(f.Stage))
	}
	return attrs
}

// Handler adds the context fields to records before passing them on.
type Handler struct {
	next slog.Handler
}

// NewHandler wraps next.
func NewHandler(next slog.Handler) *Handler {
	return &Handler{next: next}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if attrs := FromContext(ctx).attrs(); len(attrs) > 0 {
		r = r.Clone()
		r.AddAttrs(attrs...)
	}
	return h.next.Handle(ctx, r)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{next: h.next.WithAttrs(attrs)}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{next: h.next.WithGroup(name)}
}

package eventstore

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// Journal records pipeline events. A nil or zero Journal discards them; that
// is what runs without journal.path get.
type Journal struct {
	store Store
}

// OpenJournal opens the SQLite journal at path, creating its directory. An
// empty path gives a disabled journal.
func OpenJournal(path string) (*Journal, error) {
	if path == "" {
		return &Journal{}, nil
	}
	openErr := func(err error) error {
		return errors.WrapError(err, errors.CategoryEventStore, "could not open build journal").
			WithContext("path", path).
			Build()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, openErr(err)
		}
	}
	store, err := NewSQLiteStore(path)
	if err != nil {
		return nil, openErr(err)
	}
	return &Journal{store: store}, nil
}

// NewJournal wraps an existing store.
func NewJournal(store Store) *Journal {
	return &Journal{store: store}
}

// Enabled reports whether events are persisted.
func (j *Journal) Enabled() bool {
	return j != nil && j.store != nil
}

// Record appends e.
func (j *Journal) Record(ctx context.Context, e Event) error {
	if !j.Enabled() || e == nil {
		return nil
	}
	if err := j.store.Append(ctx, e); err != nil {
		return errors.WrapError(err, errors.CategoryEventStore, "failed to append event to journal").
			WithContext("type", e.Type()).
			WithContext("build_id", e.BuildID()).
			Build()
	}
	return nil
}

// RecordOrWarn appends e, or logs err when building the event failed. The
// journal is auxiliary, so failures never abort a run.
func (j *Journal) RecordOrWarn(ctx context.Context, e Event, err error) {
	if err == nil {
		err = j.Record(ctx, e)
	}
	if err != nil {
		slog.Warn("Failed to record build event", logfields.Error(err))
	}
}

// History returns up to limit recent builds, newest first.
func (j *Journal) History(ctx context.Context, limit int) ([]*BuildSummary, error) {
	if !j.Enabled() {
		return nil, nil
	}
	records, err := j.store.Since(ctx, time.Time{})
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryEventStore, "failed to query journal events").Build()
	}
	return Fold(records).Recent(limit), nil
}

// Close releases the store.
func (j *Journal) Close() error {
	if !j.Enabled() {
		return nil
	}
	return j.store.Close()
}

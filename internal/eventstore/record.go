package eventstore

import (
	"context"
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// Event is one journal entry.
type Event interface {
	BuildID() string
	Type() string
	Timestamp() time.Time
	Payload() []byte
}

// Record is a stored event. Typed events embed it; events read back from a
// Store are plain Records.
type Record struct {
	Seq   int64
	Build string
	Kind  string
	At    time.Time
	Data  []byte
}

func (r Record) BuildID() string      { return r.Build }
func (r Record) Type() string         { return r.Kind }
func (r Record) Timestamp() time.Time { return r.At }
func (r Record) Payload() []byte      { return r.Data }

func newRecord(buildID, kind string, payload any) (Record, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Record{}, errors.EventStoreError("failed to encode "+kind+" event").
			WithCause(err).
			WithContext("build_id", buildID).
			Build()
	}
	return Record{Build: buildID, Kind: kind, At: time.Now(), Data: raw}, nil
}

// Store persists events in append order.
type Store interface {
	Append(ctx context.Context, e Event) error
	// ByBuild returns the events of one build in append order.
	ByBuild(ctx context.Context, buildID string) ([]Record, error)
	// Since returns the events at or after t in append order.
	Since(ctx context.Context, t time.Time) ([]Record, error)
	Close() error
}

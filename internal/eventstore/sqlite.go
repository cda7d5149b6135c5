package eventstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const journalSchemaVersion = 1

const journalSchema = `
CREATE TABLE IF NOT EXISTS journal (
	seq      INTEGER PRIMARY KEY AUTOINCREMENT,
	build_id TEXT    NOT NULL,
	kind     TEXT    NOT NULL,
	at_ms    INTEGER NOT NULL,
	payload  BLOB    NOT NULL
);
CREATE INDEX IF NOT EXISTS journal_build ON journal(build_id);
CREATE INDEX IF NOT EXISTS journal_at ON journal(at_ms);
`

// SQLiteStore is a Store in a single SQLite file. ":memory:" gives a
// throwaway journal for tests.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the journal database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One connection serializes writers and keeps ":memory:" databases alive.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read journal schema version: %w", err)
	}
	if version > journalSchemaVersion {
		return fmt.Errorf("journal schema version %d is newer than supported version %d", version, journalSchemaVersion)
	}
	if _, err := db.Exec(journalSchema); err != nil {
		return fmt.Errorf("create journal schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", journalSchemaVersion)); err != nil {
		return fmt.Errorf("set journal schema version: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Append(ctx context.Context, e Event) error {
	payload := e.Payload()
	if payload == nil {
		payload = []byte("{}")
	}
	at := e.Timestamp()
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO journal (build_id, kind, at_ms, payload) VALUES (?, ?, ?, ?)`,
		e.BuildID(), e.Type(), at.UnixMilli(), payload)
	if err != nil {
		return fmt.Errorf("append %s: %w", e.Type(), err)
	}
	return nil
}

func (s *SQLiteStore) ByBuild(ctx context.Context, buildID string) ([]Record, error) {
	return s.query(ctx, `SELECT seq, build_id, kind, at_ms, payload FROM journal WHERE build_id = ? ORDER BY seq`, buildID)
}

func (s *SQLiteStore) Since(ctx context.Context, t time.Time) ([]Record, error) {
	return s.query(ctx, `SELECT seq, build_id, kind, at_ms, payload FROM journal WHERE at_ms >= ? ORDER BY seq`, t.UnixMilli())
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Record
	for rows.Next() {
		var (
			r  Record
			ms int64
		)
		if err := rows.Scan(&r.Seq, &r.Build, &r.Kind, &ms, &r.Data); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		r.At = time.UnixMilli(ms)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

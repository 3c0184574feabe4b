package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Harshitk-cp/knet/internal/domain"
	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS statements (
	id           TEXT PRIMARY KEY,
	position     INTEGER NOT NULL,
	type         TEXT NOT NULL,
	content      TEXT NOT NULL,
	confidence   REAL,
	tags         TEXT NOT NULL DEFAULT '[]',
	derived_from TEXT NOT NULL DEFAULT '[]',
	created_at   TEXT NOT NULL,
	updated_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshot_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// SQLiteStore keeps the snapshot in a single SQLite file. Save replaces the
// table contents inside one transaction.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: pragma %q: %w", p, err)
		}
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: migration: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Close() {
	_ = s.db.Close()
}

func (s *SQLiteStore) Load(ctx context.Context) (*domain.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, content, confidence, tags, derived_from, created_at, updated_at
		 FROM statements ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query statements: %w", err)
	}
	defer rows.Close()

	snap := emptySnapshot()
	for rows.Next() {
		var (
			st                   domain.Statement
			id, kind             string
			conf                 sql.NullFloat64
			tags, parents        string
			createdAt, updatedAt string
		)
		if err := rows.Scan(&id, &kind, &st.Content, &conf, &tags, &parents, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan statement: %w", err)
		}
		if st.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("sqlite: statement id %q: %w", id, err)
		}
		st.Kind = domain.StatementKind(kind)
		if conf.Valid {
			st.Confidence = domain.Float64(conf.Float64)
		}
		if err := json.Unmarshal([]byte(tags), &st.Tags); err != nil {
			return nil, fmt.Errorf("sqlite: tags of %s: %w", id, err)
		}
		if err := json.Unmarshal([]byte(parents), &st.DerivedFrom); err != nil {
			return nil, fmt.Errorf("sqlite: derived_from of %s: %w", id, err)
		}
		if st.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("sqlite: created_at of %s: %w", id, err)
		}
		if st.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: updated_at of %s: %w", id, err)
		}
		snap.Statements = append(snap.Statements, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate statements: %w", err)
	}

	var savedAt string
	err = s.db.QueryRowContext(ctx, `SELECT value FROM snapshot_meta WHERE key = 'saved_at'`).Scan(&savedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("sqlite: read metadata: %w", err)
	default:
		if t, perr := time.Parse(time.RFC3339Nano, savedAt); perr == nil {
			snap.Metadata.SavedAt = t
		}
	}
	snap.Metadata.StatementCount = len(snap.Statements)
	return snap, nil
}

func (s *SQLiteStore) Save(ctx context.Context, snap *domain.Snapshot) error {
	stamped := stamp(snap, s.now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM statements`); err != nil {
		return fmt.Errorf("sqlite: clear statements: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO statements (id, position, type, content, confidence, tags, derived_from, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, st := range stamped.Statements {
		tags, err := json.Marshal(nonNilTags(st.Tags))
		if err != nil {
			return fmt.Errorf("sqlite: encode tags: %w", err)
		}
		parents, err := json.Marshal(nonNilIDs(st.DerivedFrom))
		if err != nil {
			return fmt.Errorf("sqlite: encode derived_from: %w", err)
		}
		var conf sql.NullFloat64
		if st.Confidence != nil {
			conf = sql.NullFloat64{Float64: *st.Confidence, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			st.ID.String(), i, string(st.Kind), st.Content, conf, string(tags), string(parents),
			st.CreatedAt.UTC().Format(time.RFC3339Nano), st.UpdatedAt.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("sqlite: insert %s: %w", st.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshot_meta (key, value) VALUES ('saved_at', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		stamped.Metadata.SavedAt.Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("sqlite: write metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func nonNilIDs(ids []domain.StatementID) []domain.StatementID {
	if ids == nil {
		return []domain.StatementID{}
	}
	return ids
}

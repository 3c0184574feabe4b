package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Harshitk-cp/knet/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS statements (
	id           UUID PRIMARY KEY,
	position     INTEGER NOT NULL,
	type         TEXT NOT NULL,
	content      TEXT NOT NULL,
	confidence   DOUBLE PRECISION,
	tags         TEXT[] NOT NULL DEFAULT '{}',
	derived_from TEXT[] NOT NULL DEFAULT '{}',
	created_at   TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshot_meta (
	key   TEXT PRIMARY KEY,
	value TIMESTAMPTZ NOT NULL
);
`

// PostgresStore keeps the snapshot in Postgres for deployments that share
// one database between instances.
type PostgresStore struct {
	db  *pgxpool.Pool
	now func() time.Time
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: migration: %w", err)
	}
	return &PostgresStore{db: pool, now: time.Now}, nil
}

func (s *PostgresStore) Close() {
	s.db.Close()
}

func (s *PostgresStore) Load(ctx context.Context) (*domain.Snapshot, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, type, content, confidence, tags, derived_from, created_at, updated_at
		 FROM statements ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("postgres: query statements: %w", err)
	}
	defer rows.Close()

	snap := emptySnapshot()
	for rows.Next() {
		var (
			st      domain.Statement
			kind    string
			parents []string
		)
		if err := rows.Scan(&st.ID, &kind, &st.Content, &st.Confidence, &st.Tags, &parents,
			&st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan statement: %w", err)
		}
		st.Kind = domain.StatementKind(kind)
		st.DerivedFrom = make([]domain.StatementID, 0, len(parents))
		for _, p := range parents {
			id, err := uuid.Parse(p)
			if err != nil {
				return nil, fmt.Errorf("postgres: derived_from of %s: %w", st.ID, err)
			}
			st.DerivedFrom = append(st.DerivedFrom, id)
		}
		snap.Statements = append(snap.Statements, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate statements: %w", err)
	}

	var savedAt time.Time
	err = s.db.QueryRow(ctx, `SELECT value FROM snapshot_meta WHERE key = 'saved_at'`).Scan(&savedAt)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("postgres: read metadata: %w", err)
	}
	snap.Metadata.SavedAt = savedAt
	snap.Metadata.StatementCount = len(snap.Statements)
	return snap, nil
}

func (s *PostgresStore) Save(ctx context.Context, snap *domain.Snapshot) error {
	stamped := stamp(snap, s.now())

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM statements`)
	for i, st := range stamped.Statements {
		parents := make([]string, len(st.DerivedFrom))
		for j, p := range st.DerivedFrom {
			parents[j] = p.String()
		}
		batch.Queue(
			`INSERT INTO statements (id, position, type, content, confidence, tags, derived_from, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			st.ID, i, string(st.Kind), st.Content, st.Confidence, nonNilTags(st.Tags), parents, st.CreatedAt, st.UpdatedAt,
		)
	}
	batch.Queue(
		`INSERT INTO snapshot_meta (key, value) VALUES ('saved_at', $1)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		stamped.Metadata.SavedAt,
	)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("postgres: write snapshot: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

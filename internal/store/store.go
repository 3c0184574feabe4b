// Package store persists graph snapshots. Every backend implements
// domain.GraphStore and writes the whole snapshot at once; none of them
// mutate the in-memory graph.
package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Harshitk-cp/knet/internal/domain"
)

const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

var ErrUnknownDriver = errors.New("unknown store driver")

// Options selects and configures a backend.
type Options struct {
	Driver      string
	Path        string
	Backups     int
	DatabaseURL string
}

// Closer is implemented by backends holding a connection.
type Closer interface {
	Close()
}

// Open builds the backend named by opts.Driver.
func Open(ctx context.Context, opts Options) (domain.GraphStore, error) {
	switch opts.Driver {
	case DriverFile, "":
		format := FormatJSON
		switch strings.ToLower(filepath.Ext(opts.Path)) {
		case ".yaml", ".yml":
			format = FormatYAML
		}
		return NewFileStore(opts.Path, format, opts.Backups), nil
	case DriverSQLite:
		return NewSQLiteStore(ctx, opts.Path)
	case DriverPostgres:
		if opts.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
		return NewPostgresStore(ctx, opts.DatabaseURL)
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %s (valid options: file, sqlite, postgres, memory)", ErrUnknownDriver, opts.Driver)
	}
}

// emptySnapshot is what Load returns before anything has been saved.
func emptySnapshot() *domain.Snapshot {
	return &domain.Snapshot{
		Statements: []domain.Statement{},
		Metadata:   domain.SnapshotMetadata{Version: domain.SnapshotVersion},
	}
}

// stamp fills the metadata a backend writes alongside the statements.
func stamp(snap *domain.Snapshot, now time.Time) domain.Snapshot {
	out := domain.Snapshot{Statements: snap.Statements}
	if out.Statements == nil {
		out.Statements = []domain.Statement{}
	}
	out.Metadata = domain.SnapshotMetadata{
		Version:        domain.SnapshotVersion,
		SavedAt:        now.UTC(),
		StatementCount: len(out.Statements),
	}
	return out
}

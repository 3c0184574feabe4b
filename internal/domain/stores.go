package domain

import (
	"context"
	"time"
)

// SnapshotVersion is written into every saved snapshot.
const SnapshotVersion = "1"

// Snapshot is the plain record a graph is persisted as.
type Snapshot struct {
	Statements []Statement      `json:"statements" yaml:"statements"`
	Metadata   SnapshotMetadata `json:"metadata" yaml:"metadata"`
}

type SnapshotMetadata struct {
	Version        string    `json:"version" yaml:"version"`
	SavedAt        time.Time `json:"saved_at" yaml:"saved_at"`
	StatementCount int       `json:"statement_count" yaml:"statement_count"`
}

// GraphStore persists whole-graph snapshots. Load returns an empty snapshot,
// not an error, when nothing has been saved yet.
type GraphStore interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
}

package graph

import (
	"errors"
	"sort"
	"time"

	"github.com/Harshitk-cp/knet/internal/domain"
)

// Snapshot copies the graph into a plain record, statements in insertion
// order.
func (g *Graph) Snapshot() *domain.Snapshot {
	stmts := g.All()
	out := make([]domain.Statement, 0, len(stmts))
	for _, s := range stmts {
		out = append(out, *s)
	}
	return &domain.Snapshot{
		Statements: out,
		Metadata: domain.SnapshotMetadata{
			Version:        domain.SnapshotVersion,
			SavedAt:        time.Now().UTC(),
			StatementCount: len(out),
		},
	}
}

// FromSnapshot rebuilds a graph. Statements are inserted by ascending parent
// count so axioms go in before anything that references them; a statement
// whose parents are still missing is retried after the rest of its pass, so
// a valid snapshot loads regardless of the order it was written in.
func FromSnapshot(snap *domain.Snapshot, opts ...Option) (*Graph, error) {
	g := New(opts...)
	if snap == nil {
		return g, nil
	}

	pending := make([]*domain.Statement, 0, len(snap.Statements))
	for i := range snap.Statements {
		pending = append(pending, snap.Statements[i].Clone())
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return len(pending[i].DerivedFrom) < len(pending[j].DerivedFrom)
	})

	for len(pending) > 0 {
		var deferred []*domain.Statement
		var lastErr error
		for _, s := range pending {
			if err := g.Add(s); err != nil {
				if !isDangling(err) {
					return nil, err
				}
				deferred = append(deferred, s)
				lastErr = err
			}
		}
		if len(deferred) == len(pending) {
			return nil, lastErr
		}
		pending = deferred
	}
	return g, nil
}

func isDangling(err error) bool {
	var dangling *domain.DanglingParentError
	return errors.As(err, &dangling)
}

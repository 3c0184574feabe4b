package graph

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Harshitk-cp/knet/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureGraph(t *testing.T) (*Graph, []*domain.Statement) {
	t.Helper()
	g := New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	at := func(i int) func(*domain.StatementOptions) {
		return func(o *domain.StatementOptions) { o.Now = base.Add(time.Duration(i) * time.Minute) }
	}

	ax1 := mustAxiom(t, g, "Humans need food", at(0), func(o *domain.StatementOptions) { o.Tags = []string{"body"} })
	ax2 := mustAxiom(t, g, "Time is limited", at(1), func(o *domain.StatementOptions) { o.Confidence = domain.Float64(0.9) })
	th1 := mustTheory(t, g, "Food must be prioritized under time limits", []domain.StatementID{ax1.ID, ax2.ID}, at(2),
		func(o *domain.StatementOptions) { o.Tags = []string{"food", "time"} })
	th2 := mustTheory(t, g, "Cooking in bulk saves time", []domain.StatementID{th1.ID}, at(3),
		func(o *domain.StatementOptions) { o.Confidence = domain.Float64(0.6) })
	cc := mustAdd(t, g, domain.KindConclusion, "Plan meals on Sunday", []domain.StatementID{th2.ID, ax2.ID}, at(4),
		func(o *domain.StatementOptions) { o.Tags = []string{"plan"} })

	return g, []*domain.Statement{ax1, ax2, th1, th2, cc}
}

func TestSnapshotRoundTrip(t *testing.T) {
	g, stmts := fixtureGraph(t)

	raw, err := json.Marshal(g.Snapshot())
	require.NoError(t, err)

	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal(raw, &snap))
	assert.Equal(t, 5, snap.Metadata.StatementCount)
	assert.Equal(t, domain.SnapshotVersion, snap.Metadata.Version)

	restored, err := FromSnapshot(&snap)
	require.NoError(t, err)
	require.Equal(t, g.Len(), restored.Len())

	for _, s := range stmts {
		got, ok := restored.Get(s.ID)
		require.True(t, ok)
		assert.Equal(t, s.ID, got.ID)
		assert.Equal(t, s.Kind, got.Kind)
		assert.Equal(t, s.Content, got.Content)
		assert.Equal(t, s.Confidence, got.Confidence)
		assert.Equal(t, s.Tags, got.Tags)
		assert.Equal(t, s.DerivedFrom, got.DerivedFrom)
		assert.True(t, s.CreatedAt.Equal(got.CreatedAt))
		assert.True(t, s.UpdatedAt.Equal(got.UpdatedAt))
		assert.ElementsMatch(t, g.DependentIDs(s.ID), restored.DependentIDs(s.ID))
	}
}

func TestFromSnapshot_ArbitraryOrder(t *testing.T) {
	g, _ := fixtureGraph(t)
	snap := g.Snapshot()

	// Reverse so every child precedes its parents, and put the two-parent
	// theory ahead of the one-parent theory it feeds.
	for i, j := 0, len(snap.Statements)-1; i < j; i, j = i+1, j-1 {
		snap.Statements[i], snap.Statements[j] = snap.Statements[j], snap.Statements[i]
	}

	restored, err := FromSnapshot(snap)
	require.NoError(t, err)
	assert.Equal(t, 5, restored.Len())
}

func TestFromSnapshot_Invalid(t *testing.T) {
	t.Run("missing parent", func(t *testing.T) {
		s, err := domain.NewStatement(domain.KindTheory, "orphan", domain.StatementOptions{DerivedFrom: []domain.StatementID{uuid.New()}})
		require.NoError(t, err)

		_, err = FromSnapshot(&domain.Snapshot{Statements: []domain.Statement{*s}})
		assert.True(t, errors.Is(err, domain.ErrDanglingParent))
	})

	t.Run("duplicate id", func(t *testing.T) {
		s, err := domain.NewStatement(domain.KindAxiom, "dup", domain.StatementOptions{})
		require.NoError(t, err)

		_, err = FromSnapshot(&domain.Snapshot{Statements: []domain.Statement{*s, *s}})
		assert.True(t, errors.Is(err, domain.ErrDuplicateID))
	})

	t.Run("nil snapshot", func(t *testing.T) {
		g, err := FromSnapshot(nil)
		require.NoError(t, err)
		assert.Equal(t, 0, g.Len())
	})
}

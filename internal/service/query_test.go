package service

import (
	"testing"
	"time"

	"github.com/Harshitk-cp/knet/internal/derivation"
	"github.com/Harshitk-cp/knet/internal/domain"
	"github.com/Harshitk-cp/knet/internal/graph"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type network struct {
	g                  *graph.Graph
	q                  *QueryService
	ax1, ax2, th1, th2 domain.StatementID
	co1, lone          domain.StatementID
}

// newNetwork builds:
//
//	ax1 ──┬─> th1 ──> th2 ──> co1
//	ax2 ──┘      └──────────────^
//	lone (conclusion, no parents)
func newNetwork(t *testing.T) *network {
	t.Helper()
	g := graph.New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	step := 0
	add := func(kind domain.StatementKind, content string, conf *float64, tags []string, parents ...domain.StatementID) domain.StatementID {
		step++
		s, err := domain.NewStatement(kind, content, domain.StatementOptions{
			Confidence: conf, Tags: tags, DerivedFrom: parents, Now: base.Add(time.Duration(step) * time.Hour),
		})
		require.NoError(t, err)
		require.NoError(t, g.Add(s))
		return s.ID
	}

	n := &network{g: g}
	n.ax1 = add(domain.KindAxiom, "Humans need food", nil, []string{"biology", "needs"})
	n.ax2 = add(domain.KindAxiom, "Time is limited", domain.Float64(0.8), []string{"time"})
	n.th1 = add(domain.KindTheory, "Food must be prioritized under time limits", nil, []string{"planning", "biology"}, n.ax1, n.ax2)
	n.th2 = add(domain.KindTheory, "Cooking in batches saves time", domain.Float64(0.6), []string{"planning"}, n.th1)
	n.co1 = add(domain.KindConclusion, "Plan meals ahead", nil, []string{"planning"}, n.th2, n.th1)
	n.lone = add(domain.KindConclusion, "Sleep matters", nil, nil)
	n.q = NewQueryService(g, derivation.NewEngine(g))
	return n
}

func ids(stmts []*domain.Statement) []domain.StatementID {
	out := make([]domain.StatementID, len(stmts))
	for i, s := range stmts {
		out[i] = s.ID
	}
	return out
}

func TestQueryService_SearchAndTags(t *testing.T) {
	n := newNetwork(t)

	assert.Equal(t, []domain.StatementID{n.ax1, n.th1}, ids(n.q.Search("FOOD")))
	assert.Empty(t, n.q.Search("quantum"))

	assert.Equal(t, []domain.StatementID{n.ax1, n.th1, n.th2, n.co1}, ids(n.q.ByTags([]string{"biology", "planning"}, false)))
	assert.Equal(t, []domain.StatementID{n.th1}, ids(n.q.ByTags([]string{"biology", "planning"}, true)))
	assert.Empty(t, n.q.ByTags(nil, false))
}

func TestQueryService_Query(t *testing.T) {
	n := newNetwork(t)
	theory := domain.KindTheory

	got := n.q.Query(domain.StatementFilter{Kind: &theory, Tags: []string{"planning"}, MinConfidence: domain.Float64(0.5)})
	assert.Equal(t, []domain.StatementID{n.th2}, ids(got))

	got = n.q.Query(domain.StatementFilter{DerivedFrom: []domain.StatementID{n.th1}})
	assert.Equal(t, []domain.StatementID{n.th2, n.co1}, ids(got))
}

func TestQueryService_Relations(t *testing.T) {
	n := newNetwork(t)

	rel, ok := n.q.Relations(n.th2)
	require.True(t, ok)
	assert.Equal(t, []domain.StatementID{n.th1}, ids(rel.Parents))
	assert.Equal(t, []domain.StatementID{n.co1}, ids(rel.Children))
	assert.Equal(t, []domain.StatementID{n.co1}, ids(rel.Siblings))

	_, ok = n.q.Relations(uuid.New())
	assert.False(t, ok)
}

func TestQueryService_Derivations(t *testing.T) {
	n := newNetwork(t)

	anc, ok := n.q.Ancestors(n.co1)
	require.True(t, ok)
	assert.ElementsMatch(t, []domain.StatementID{n.th2, n.th1, n.ax1, n.ax2}, ids(anc))

	desc, ok := n.q.Descendants(n.ax2)
	require.True(t, ok)
	assert.ElementsMatch(t, []domain.StatementID{n.th1, n.th2, n.co1}, ids(desc))

	deps, ok := n.q.Dependents(n.th1)
	require.True(t, ok)
	assert.Equal(t, []domain.StatementID{n.th2, n.co1}, ids(deps))

	_, ok = n.q.Ancestors(uuid.New())
	assert.False(t, ok)

	chain, ok := n.q.Chain(n.co1)
	require.True(t, ok)
	assert.Len(t, chain.Parents, 2)

	depth, ok := n.q.Depth(n.co1)
	require.True(t, ok)
	assert.Equal(t, 3, depth)

	path := n.q.Path(n.ax1, n.ax2)
	assert.Equal(t, []domain.StatementID{n.ax1, n.th1, n.ax2}, ids(path))
	assert.Nil(t, n.q.Path(n.ax1, n.lone))
}

func TestQueryService_Confidence(t *testing.T) {
	n := newNetwork(t)

	tests := []struct {
		name     string
		id       domain.StatementID
		want     float64
		explicit bool
		resolved bool
	}{
		{"axiom default", n.ax1, 1.0, false, true},
		{"explicit axiom", n.ax2, 0.8, true, true},
		{"propagated", n.th1, 0.8 * 0.95, false, true},
		{"min of parents", n.co1, 0.6 * 0.95, false, true},
		{"unresolved", n.lone, 0, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep, ok := n.q.Confidence(tt.id)
			require.True(t, ok)
			assert.Equal(t, tt.explicit, rep.Explicit)
			assert.Equal(t, tt.resolved, rep.Resolved)
			if tt.resolved {
				require.NotNil(t, rep.Confidence)
				assert.InDelta(t, tt.want, *rep.Confidence, 1e-9)
			} else {
				assert.Nil(t, rep.Confidence)
			}
		})
	}

	_, ok := n.q.Confidence(uuid.New())
	assert.False(t, ok)
}

func TestQueryService_ByConfidenceRange(t *testing.T) {
	n := newNetwork(t)

	got := n.q.ByConfidenceRange(0.7, 0.9)
	require.Len(t, got, 2)
	assert.Equal(t, n.ax2, got[0].Statement.ID)
	assert.False(t, got[0].Derived)
	assert.Equal(t, n.th1, got[1].Statement.ID)
	assert.True(t, got[1].Derived)

	all := n.q.ByConfidenceRange(0, 1)
	assert.Len(t, all, 5, "unresolved statements are left out")
}

func TestQueryService_Analytics(t *testing.T) {
	n := newNetwork(t)

	most := n.q.MostDerived(2)
	require.Len(t, most, 2)
	assert.Equal(t, n.th1, most[0].Statement.ID)
	assert.Equal(t, 2, most[0].Dependents)

	deepest := n.q.Deepest(1)
	require.Len(t, deepest, 1)
	assert.Equal(t, n.co1, deepest[0].Statement.ID)
	assert.Equal(t, 3, deepest[0].Depth)

	assert.Equal(t, []domain.StatementID{n.co1, n.lone}, ids(n.q.Orphans()))

	freq := n.q.TagFrequency()
	require.NotEmpty(t, freq)
	assert.Equal(t, TagCount{Tag: "planning", Count: 3}, freq[0])
	assert.Equal(t, TagCount{Tag: "biology", Count: 2}, freq[1])
	assert.Equal(t, TagCount{Tag: "needs", Count: 1}, freq[2])

	assert.Equal(t, []domain.StatementID{n.lone, n.co1}, ids(n.q.Recent(2)))

	sum := n.q.Summary()
	assert.Equal(t, 6, sum.Total)
	assert.Equal(t, 2, sum.ByKind[domain.KindAxiom])
	assert.Equal(t, 2, sum.ByKind[domain.KindTheory])
	assert.Equal(t, 2, sum.ByKind[domain.KindConclusion])
	assert.Equal(t, 4, sum.DistinctTags)
	assert.InDelta(t, (0+0+1+2+3+0)/6.0, sum.AverageDepth, 1e-9)
	assert.InDelta(t, (1.0+0.8+0.76+0.6+0.57)/5, sum.AverageConfidence, 1e-9)
}

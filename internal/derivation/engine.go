// Package derivation implements read-only algorithms over the derivation
// relation: chain reconstruction, ancestor and descendant closure, confidence
// propagation, shortest relatedness path and derivation depth.
//
// Unknown ids are a normal query outcome and yield nil, empty or false
// results rather than errors. Every traversal keeps a visited set so shared
// ancestors (diamonds) are expanded once.
package derivation

import (
	"math"

	"github.com/Harshitk-cp/knet/internal/domain"
)

// DerivationDiscount is applied once per derivation step when confidence is
// inherited from parents.
const DerivationDiscount = 0.95

// AxiomConfidence is the confidence of an axiom with none set explicitly.
const AxiomConfidence = 1.0

// Graph is the read surface the engine needs. *graph.Graph satisfies it.
type Graph interface {
	Get(id domain.StatementID) (*domain.Statement, bool)
	DependentIDs(id domain.StatementID) []domain.StatementID
}

type Engine struct {
	graph Graph
}

func NewEngine(g Graph) *Engine {
	return &Engine{graph: g}
}

// Chain is the parent tree rooted at one statement. A statement reached
// through several paths appears once per path but shares the same *Chain.
type Chain struct {
	StatementID domain.StatementID `json:"statement_id"`
	Statement   *domain.Statement  `json:"statement"`
	Parents     []*Chain           `json:"parents"`
}

// BuildChain returns the derivation tree for id, or nil if id is unknown.
// Parents that no longer resolve are left out.
func (e *Engine) BuildChain(id domain.StatementID) *Chain {
	return e.buildChain(id, make(map[domain.StatementID]*Chain))
}

func (e *Engine) buildChain(id domain.StatementID, built map[domain.StatementID]*Chain) *Chain {
	if c, ok := built[id]; ok {
		return c
	}
	s, ok := e.graph.Get(id)
	if !ok {
		return nil
	}
	c := &Chain{StatementID: id, Statement: s, Parents: []*Chain{}}
	built[id] = c
	for _, p := range s.DerivedFrom {
		if pc := e.buildChain(p, built); pc != nil {
			c.Parents = append(c.Parents, pc)
		}
	}
	return c
}

// Ancestors returns every statement id reachable through derivedFrom, in
// breadth-first discovery order, excluding id itself.
func (e *Engine) Ancestors(id domain.StatementID) []domain.StatementID {
	return e.closure(id, func(cur domain.StatementID) []domain.StatementID {
		s, ok := e.graph.Get(cur)
		if !ok {
			return nil
		}
		return s.DerivedFrom
	})
}

// Descendants returns every statement id that transitively derives from id.
func (e *Engine) Descendants(id domain.StatementID) []domain.StatementID {
	return e.closure(id, e.graph.DependentIDs)
}

func (e *Engine) closure(id domain.StatementID, next func(domain.StatementID) []domain.StatementID) []domain.StatementID {
	if _, ok := e.graph.Get(id); !ok {
		return []domain.StatementID{}
	}
	visited := map[domain.StatementID]bool{id: true}
	queue := []domain.StatementID{id}
	out := []domain.StatementID{}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range next(cur) {
			if visited[n] {
				continue
			}
			visited[n] = true
			out = append(out, n)
			queue = append(queue, n)
		}
	}
	return out
}

// Confidence resolves the confidence of id. An explicit value wins; an axiom
// without one is fully trusted; anything else takes the weakest resolved
// parent confidence discounted by DerivationDiscount. It returns false when
// the statement is unknown or no parent resolves.
func (e *Engine) Confidence(id domain.StatementID) (float64, bool) {
	return e.confidence(id, make(map[domain.StatementID]*float64))
}

func (e *Engine) confidence(id domain.StatementID, memo map[domain.StatementID]*float64) (float64, bool) {
	if v, ok := memo[id]; ok {
		if v == nil {
			return 0, false
		}
		return *v, true
	}
	// Seed the memo before recursing so a revisit resolves to "unknown"
	// instead of looping.
	memo[id] = nil

	s, ok := e.graph.Get(id)
	if !ok {
		return 0, false
	}

	var result *float64
	switch {
	case s.Confidence != nil:
		result = domain.Float64(*s.Confidence)
	case s.IsAxiom():
		result = domain.Float64(AxiomConfidence)
	default:
		weakest := math.Inf(1)
		for _, p := range s.DerivedFrom {
			if c, ok := e.confidence(p, memo); ok && c < weakest {
				weakest = c
			}
		}
		if !math.IsInf(weakest, 1) {
			result = domain.Float64(weakest * DerivationDiscount)
		}
	}

	memo[id] = result
	if result == nil {
		return 0, false
	}
	return *result, true
}

// ShortestPath finds the fewest-hop path between two statements treating
// derivation edges as undirected: a statement neighbours both its parents
// and its dependents. The path includes both endpoints; nil means the ids
// are unknown or not connected.
func (e *Engine) ShortestPath(fromID, toID domain.StatementID) []domain.StatementID {
	if _, ok := e.graph.Get(fromID); !ok {
		return nil
	}
	if _, ok := e.graph.Get(toID); !ok {
		return nil
	}
	if fromID == toID {
		return []domain.StatementID{fromID}
	}

	visited := map[domain.StatementID]bool{fromID: true}
	parent := make(map[domain.StatementID]domain.StatementID)
	queue := []domain.StatementID{fromID}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, n := range e.neighbours(current) {
			if visited[n] {
				continue
			}
			visited[n] = true
			parent[n] = current

			if n == toID {
				return reconstruct(parent, fromID, toID)
			}
			queue = append(queue, n)
		}
	}
	return nil
}

func (e *Engine) neighbours(id domain.StatementID) []domain.StatementID {
	var out []domain.StatementID
	if s, ok := e.graph.Get(id); ok {
		out = append(out, s.DerivedFrom...)
	}
	return append(out, e.graph.DependentIDs(id)...)
}

func reconstruct(parent map[domain.StatementID]domain.StatementID, fromID, toID domain.StatementID) []domain.StatementID {
	path := []domain.StatementID{toID}
	for cur := toID; cur != fromID; {
		cur = parent[cur]
		path = append(path, cur)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Depth is the length of the longest derivation chain from id back to a
// statement with no parents. It returns false for unknown ids.
func (e *Engine) Depth(id domain.StatementID) (int, bool) {
	if _, ok := e.graph.Get(id); !ok {
		return 0, false
	}
	return e.depth(id, make(map[domain.StatementID]int)), true
}

func (e *Engine) depth(id domain.StatementID, memo map[domain.StatementID]int) int {
	if d, ok := memo[id]; ok {
		return d
	}
	memo[id] = 0

	s, ok := e.graph.Get(id)
	if !ok || s.IsAxiom() || len(s.DerivedFrom) == 0 {
		return 0
	}
	deepest := 0
	for _, p := range s.DerivedFrom {
		if _, ok := e.graph.Get(p); !ok {
			continue
		}
		if d := e.depth(p, memo) + 1; d > deepest {
			deepest = d
		}
	}
	memo[id] = deepest
	return deepest
}

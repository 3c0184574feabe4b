// Package graph holds the knowledge graph aggregate: every statement in the
// network plus a reverse index from each statement to the statements derived
// from it.
//
// # Invariants
//
//   - Every id in a statement's DerivedFrom resolves to a live statement.
//   - The derivation relation is acyclic.
//   - A statement with dependents cannot be deleted.
//
// Add and Update are the only places these are checked, and the reverse
// index is only touched by the same mutation methods, so the two tables
// cannot drift apart.
//
// # Thread Safety
//
// Every exported method holds the graph lock for its full duration.
// Statements are copied in and out; callers never share memory with the
// graph.
package graph

import (
	"sync"
	"time"

	"github.com/Harshitk-cp/knet/internal/domain"
)

type Graph struct {
	mu         sync.RWMutex
	statements map[domain.StatementID]*domain.Statement
	order      []domain.StatementID
	dependents map[domain.StatementID][]domain.StatementID
	now        func() time.Time
}

type Option func(*Graph)

// WithClock overrides the clock used to stamp UpdatedAt on updates.
func WithClock(now func() time.Time) Option {
	return func(g *Graph) { g.now = now }
}

func New(opts ...Option) *Graph {
	g := &Graph{
		statements: make(map[domain.StatementID]*domain.Statement),
		dependents: make(map[domain.StatementID][]domain.StatementID),
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Add inserts a statement built by domain.NewStatement.
func (g *Graph) Add(s *domain.Statement) error {
	if err := s.Validate(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.statements[s.ID]; exists {
		return &domain.DuplicateIDError{ID: s.ID}
	}
	if err := g.checkParents(s.ID, s.DerivedFrom); err != nil {
		return err
	}

	stored := s.Clone()
	g.statements[stored.ID] = stored
	g.order = append(g.order, stored.ID)
	g.link(stored.ID, stored.DerivedFrom)
	return nil
}

// Get returns a copy of the statement, or false if the id is unknown.
func (g *Graph) Get(id domain.StatementID) (*domain.Statement, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	s, ok := g.statements[id]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

func (g *Graph) Has(id domain.StatementID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.statements[id]
	return ok
}

// Update applies u to the statement on a scratch copy and commits only if
// the result is valid and, when parents change, still dangling- and
// cycle-free.
func (g *Graph) Update(id domain.StatementID, u domain.StatementUpdate) (*domain.Statement, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	cur, ok := g.statements[id]
	if !ok {
		return nil, &domain.NotFoundError{ID: id}
	}

	next, err := cur.Apply(u, g.now())
	if err != nil {
		return nil, err
	}

	if u.ChangesParents() {
		if err := g.checkParents(id, next.DerivedFrom); err != nil {
			return nil, err
		}
		g.unlink(id, cur.DerivedFrom)
		g.link(id, next.DerivedFrom)
	}
	g.statements[id] = next
	return next.Clone(), nil
}

// Delete removes a statement that nothing derives from.
func (g *Graph) Delete(id domain.StatementID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.statements[id]
	if !ok {
		return &domain.NotFoundError{ID: id}
	}
	if deps := g.dependents[id]; len(deps) > 0 {
		return &domain.HasDependentsError{ID: id, Dependents: append([]domain.StatementID(nil), deps...)}
	}

	g.unlink(id, s.DerivedFrom)
	delete(g.dependents, id)
	delete(g.statements, id)
	for i, oid := range g.order {
		if oid == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	return nil
}

// Dependents returns the direct children of id in the order they were
// linked. Unknown ids yield an empty slice.
func (g *Graph) Dependents(id domain.StatementID) []*domain.Statement {
	g.mu.RLock()
	defer g.mu.RUnlock()

	deps := g.dependents[id]
	out := make([]*domain.Statement, 0, len(deps))
	for _, d := range deps {
		out = append(out, g.statements[d].Clone())
	}
	return out
}

// DependentIDs is Dependents without resolving the statements.
func (g *Graph) DependentIDs(id domain.StatementID) []domain.StatementID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]domain.StatementID(nil), g.dependents[id]...)
}

func (g *Graph) DependentCount(id domain.StatementID) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.dependents[id])
}

// Query returns every statement matching f, in insertion order.
func (g *Graph) Query(f domain.StatementFilter) []*domain.Statement {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []*domain.Statement
	for _, id := range g.order {
		s := g.statements[id]
		if f.Matches(s) {
			out = append(out, s.Clone())
		}
	}
	return out
}

// All returns every statement in insertion order.
func (g *Graph) All() []*domain.Statement {
	return g.Query(domain.StatementFilter{})
}

func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.statements)
}

// checkParents verifies that every parent exists and that deriving id from
// them does not make id its own ancestor. Callers hold the write lock.
func (g *Graph) checkParents(id domain.StatementID, parents []domain.StatementID) error {
	for _, p := range parents {
		if p == id {
			return &domain.CycleError{ID: id, ParentID: p}
		}
		if _, ok := g.statements[p]; !ok {
			return &domain.DanglingParentError{ID: id, ParentID: p}
		}
	}
	for _, p := range parents {
		if g.reachesAncestor(p, id) {
			return &domain.CycleError{ID: id, ParentID: p}
		}
	}
	return nil
}

// reachesAncestor walks derivedFrom edges depth-first from start and reports
// whether target is among start's ancestors.
func (g *Graph) reachesAncestor(start, target domain.StatementID) bool {
	visited := map[domain.StatementID]bool{start: true}
	stack := []domain.StatementID{start}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		s, ok := g.statements[cur]
		if !ok {
			continue
		}
		for _, p := range s.DerivedFrom {
			if p == target {
				return true
			}
			if visited[p] {
				continue
			}
			visited[p] = true
			stack = append(stack, p)
		}
	}
	return false
}

func (g *Graph) link(id domain.StatementID, parents []domain.StatementID) {
	for _, p := range parents {
		if contains(g.dependents[p], id) {
			continue
		}
		g.dependents[p] = append(g.dependents[p], id)
	}
}

func (g *Graph) unlink(id domain.StatementID, parents []domain.StatementID) {
	for _, p := range parents {
		deps := g.dependents[p]
		for i, d := range deps {
			if d == id {
				deps = append(deps[:i], deps[i+1:]...)
				break
			}
		}
		if len(deps) == 0 {
			delete(g.dependents, p)
		} else {
			g.dependents[p] = deps
		}
	}
}

func contains(ids []domain.StatementID, id domain.StatementID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

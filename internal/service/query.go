package service

import (
	"sort"

	"github.com/Harshitk-cp/knet/internal/derivation"
	"github.com/Harshitk-cp/knet/internal/domain"
	"github.com/Harshitk-cp/knet/internal/graph"
)

// QueryService answers read-only questions by combining the graph with the
// derivation engine. It never mutates the graph.
type QueryService struct {
	graph  *graph.Graph
	engine *derivation.Engine
}

func NewQueryService(g *graph.Graph, engine *derivation.Engine) *QueryService {
	return &QueryService{graph: g, engine: engine}
}

type Relations struct {
	Statement *domain.Statement   `json:"statement"`
	Parents   []*domain.Statement `json:"parents"`
	Children  []*domain.Statement `json:"children"`
	Siblings  []*domain.Statement `json:"siblings"`
}

type ScoredStatement struct {
	Statement  *domain.Statement `json:"statement"`
	Confidence float64           `json:"confidence"`
	Derived    bool              `json:"derived"`
}

type DerivedCount struct {
	Statement  *domain.Statement `json:"statement"`
	Dependents int               `json:"dependents"`
}

type DepthEntry struct {
	Statement *domain.Statement `json:"statement"`
	Depth     int               `json:"depth"`
}

type ConfidenceReport struct {
	StatementID domain.StatementID `json:"statement_id"`
	Confidence  *float64           `json:"confidence"`
	Explicit    bool               `json:"explicit"`
	Resolved    bool               `json:"resolved"`
}

type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

type Summary struct {
	Total             int                          `json:"total"`
	ByKind            map[domain.StatementKind]int `json:"by_kind"`
	AverageConfidence float64                      `json:"average_confidence"`
	AverageDepth      float64                      `json:"average_depth"`
	DistinctTags      int                          `json:"distinct_tags"`
}

func (s *QueryService) Chain(id domain.StatementID) (*derivation.Chain, bool) {
	c := s.engine.BuildChain(id)
	return c, c != nil
}

// Ancestors returns every statement id transitively derives from, nearest
// first.
func (s *QueryService) Ancestors(id domain.StatementID) ([]*domain.Statement, bool) {
	if !s.graph.Has(id) {
		return nil, false
	}
	return s.Resolve(s.engine.Ancestors(id)), true
}

// Descendants returns every statement transitively derived from id.
func (s *QueryService) Descendants(id domain.StatementID) ([]*domain.Statement, bool) {
	if !s.graph.Has(id) {
		return nil, false
	}
	return s.Resolve(s.engine.Descendants(id)), true
}

func (s *QueryService) Dependents(id domain.StatementID) ([]*domain.Statement, bool) {
	if !s.graph.Has(id) {
		return nil, false
	}
	return s.graph.Dependents(id), true
}

// Confidence reports the explicit or propagated confidence of id. A
// statement with no explicit value and no resolvable parents is reported
// with Resolved false and a nil Confidence.
func (s *QueryService) Confidence(id domain.StatementID) (*ConfidenceReport, bool) {
	st, ok := s.graph.Get(id)
	if !ok {
		return nil, false
	}
	rep := &ConfidenceReport{StatementID: id, Explicit: st.Confidence != nil}
	if conf, ok := s.engine.Confidence(id); ok {
		rep.Confidence = &conf
		rep.Resolved = true
	}
	return rep, true
}

func (s *QueryService) Depth(id domain.StatementID) (int, bool) {
	return s.engine.Depth(id)
}

// Search matches keyword against statement content, case-insensitively.
func (s *QueryService) Search(keyword string) []*domain.Statement {
	return s.graph.Query(domain.StatementFilter{Content: keyword})
}

func (s *QueryService) Query(f domain.StatementFilter) []*domain.Statement {
	return s.graph.Query(f)
}

// ByTags returns statements carrying any of tags, or all of them when
// matchAll is set.
func (s *QueryService) ByTags(tags []string, matchAll bool) []*domain.Statement {
	tags = domain.NormalizeTags(tags)
	if len(tags) == 0 {
		return []*domain.Statement{}
	}
	candidates := s.graph.Query(domain.StatementFilter{Tags: tags})
	if !matchAll {
		return candidates
	}
	out := make([]*domain.Statement, 0, len(candidates))
	for _, st := range candidates {
		if hasAllTags(st, tags) {
			out = append(out, st)
		}
	}
	return out
}

// Relations returns the parents, children and siblings (other children of
// the same parents) of id.
func (s *QueryService) Relations(id domain.StatementID) (*Relations, bool) {
	st, ok := s.graph.Get(id)
	if !ok {
		return nil, false
	}

	rel := &Relations{
		Statement: st,
		Parents:   []*domain.Statement{},
		Children:  s.graph.Dependents(id),
		Siblings:  []*domain.Statement{},
	}

	seen := map[domain.StatementID]bool{id: true}
	for _, pid := range st.DerivedFrom {
		parent, ok := s.graph.Get(pid)
		if !ok {
			continue
		}
		rel.Parents = append(rel.Parents, parent)
		for _, sib := range s.graph.Dependents(pid) {
			if seen[sib.ID] {
				continue
			}
			seen[sib.ID] = true
			rel.Siblings = append(rel.Siblings, sib)
		}
	}
	return rel, true
}

// Resolve maps ids to statements in order, dropping any that no longer
// resolve.
func (s *QueryService) Resolve(ids []domain.StatementID) []*domain.Statement {
	out := make([]*domain.Statement, 0, len(ids))
	for _, id := range ids {
		if st, ok := s.graph.Get(id); ok {
			out = append(out, st)
		}
	}
	return out
}

// Path resolves the engine's shortest path to statements, dropping any id
// that no longer resolves.
func (s *QueryService) Path(fromID, toID domain.StatementID) []*domain.Statement {
	ids := s.engine.ShortestPath(fromID, toID)
	if ids == nil {
		return nil
	}
	return s.Resolve(ids)
}

// ByConfidenceRange returns statements whose confidence lies in [min, max],
// using the propagated confidence when none is set explicitly. Statements
// with no resolvable confidence are left out.
func (s *QueryService) ByConfidenceRange(min, max float64) []ScoredStatement {
	out := []ScoredStatement{}
	for _, st := range s.graph.All() {
		conf, derived, ok := s.confidenceOf(st)
		if !ok || conf < min || conf > max {
			continue
		}
		out = append(out, ScoredStatement{Statement: st, Confidence: conf, Derived: derived})
	}
	return out
}

// MostDerived ranks statements by direct dependent count, highest first.
// A non-positive limit returns everything.
func (s *QueryService) MostDerived(limit int) []DerivedCount {
	all := s.graph.All()
	out := make([]DerivedCount, 0, len(all))
	for _, st := range all {
		out = append(out, DerivedCount{Statement: st, Dependents: s.graph.DependentCount(st.ID)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Dependents > out[j].Dependents })
	return truncate(out, limit)
}

// Deepest ranks statements by derivation depth, deepest first.
func (s *QueryService) Deepest(limit int) []DepthEntry {
	all := s.graph.All()
	out := make([]DepthEntry, 0, len(all))
	for _, st := range all {
		d, _ := s.engine.Depth(st.ID)
		out = append(out, DepthEntry{Statement: st, Depth: d})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Depth > out[j].Depth })
	return truncate(out, limit)
}

// Orphans are non-axiom statements nothing derives from.
func (s *QueryService) Orphans() []*domain.Statement {
	out := []*domain.Statement{}
	for _, st := range s.graph.All() {
		if !st.IsAxiom() && s.graph.DependentCount(st.ID) == 0 {
			out = append(out, st)
		}
	}
	return out
}

// TagFrequency counts tag usage, most used first; ties sort by tag.
func (s *QueryService) TagFrequency() []TagCount {
	counts := make(map[string]int)
	for _, st := range s.graph.All() {
		for _, t := range st.Tags {
			counts[t]++
		}
	}
	out := make([]TagCount, 0, len(counts))
	for tag, n := range counts {
		out = append(out, TagCount{Tag: tag, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	return out
}

// Recent returns the most recently updated statements first.
func (s *QueryService) Recent(limit int) []*domain.Statement {
	all := s.graph.All()
	sort.SliceStable(all, func(i, j int) bool { return all[i].UpdatedAt.After(all[j].UpdatedAt) })
	return truncate(all, limit)
}

func (s *QueryService) Summary() Summary {
	all := s.graph.All()
	sum := Summary{
		Total: len(all),
		ByKind: map[domain.StatementKind]int{
			domain.KindAxiom:      0,
			domain.KindTheory:     0,
			domain.KindConclusion: 0,
		},
	}

	tags := make(map[string]struct{})
	var confTotal float64
	var confN, depthTotal int
	for _, st := range all {
		sum.ByKind[st.Kind]++
		for _, t := range st.Tags {
			tags[t] = struct{}{}
		}
		if c, _, ok := s.confidenceOf(st); ok {
			confTotal += c
			confN++
		}
		d, _ := s.engine.Depth(st.ID)
		depthTotal += d
	}

	if confN > 0 {
		sum.AverageConfidence = confTotal / float64(confN)
	}
	if len(all) > 0 {
		sum.AverageDepth = float64(depthTotal) / float64(len(all))
	}
	sum.DistinctTags = len(tags)
	return sum
}

func (s *QueryService) confidenceOf(st *domain.Statement) (conf float64, derived bool, ok bool) {
	if st.Confidence != nil {
		return *st.Confidence, false, true
	}
	conf, ok = s.engine.Confidence(st.ID)
	return conf, true, ok
}

func hasAllTags(st *domain.Statement, tags []string) bool {
	for _, t := range tags {
		if !st.HasTag(t) {
			return false
		}
	}
	return true
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

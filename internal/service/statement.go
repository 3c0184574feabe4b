package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Harshitk-cp/knet/internal/contradiction"
	"github.com/Harshitk-cp/knet/internal/domain"
	"github.com/Harshitk-cp/knet/internal/graph"
	"go.uber.org/zap"
)

var (
	ErrContradiction = errors.New("statement contradicts existing statements")
	ErrInvalidKind   = errors.New("invalid statement type")
	ErrStoreNotWired = errors.New("no graph store configured")
)

// ContradictionError is returned by Create when the contradiction gate
// rejects a candidate.
type ContradictionError struct {
	Pairs []contradiction.Pair
}

func (e *ContradictionError) Error() string {
	return fmt.Sprintf("%s (%d conflict(s))", ErrContradiction, len(e.Pairs))
}

func (e *ContradictionError) Unwrap() error { return ErrContradiction }

type CreateStatementInput struct {
	ID          domain.StatementID
	Kind        domain.StatementKind
	Content     string
	Confidence  *float64
	Tags        []string
	DerivedFrom []domain.StatementID
	// Force inserts the statement even if it contradicts existing ones.
	Force bool
}

type CreateResult struct {
	Statement      *domain.Statement    `json:"statement"`
	Contradictions []contradiction.Pair `json:"contradictions"`
}

// StatementService is the write path: every mutation goes through the graph
// and is then handed to the store.
type StatementService struct {
	graph    *graph.Graph
	store    domain.GraphStore
	detector *contradiction.Detector
	logger   *zap.Logger

	// GateContradictions rejects new statements that contradict existing
	// ones unless the caller forces the insert.
	GateContradictions bool
}

func NewStatementService(g *graph.Graph, store domain.GraphStore, detector *contradiction.Detector, logger *zap.Logger) *StatementService {
	return &StatementService{
		graph:              g,
		store:              store,
		detector:           detector,
		logger:             logger,
		GateContradictions: true,
	}
}

// LoadGraph builds a graph from whatever the store holds. An empty store
// yields an empty graph.
func LoadGraph(ctx context.Context, store domain.GraphStore, opts ...graph.Option) (*graph.Graph, error) {
	snap, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	g, err := graph.FromSnapshot(snap, opts...)
	if err != nil {
		return nil, fmt.Errorf("rebuild graph: %w", err)
	}
	return g, nil
}

func (s *StatementService) Create(ctx context.Context, in CreateStatementInput) (*CreateResult, error) {
	if !domain.ValidStatementKind(string(in.Kind)) {
		return nil, ErrInvalidKind
	}

	stmt, err := domain.NewStatement(in.Kind, in.Content, domain.StatementOptions{
		ID:          in.ID,
		Confidence:  in.Confidence,
		Tags:        in.Tags,
		DerivedFrom: in.DerivedFrom,
	})
	if err != nil {
		return nil, err
	}

	pairs := s.detector.CheckAgainstExisting(stmt, s.graph.All())
	if len(pairs) > 0 {
		s.logger.Info("contradictions detected for new statement",
			zap.String("content", stmt.Content),
			zap.Int("count", len(pairs)),
			zap.Bool("forced", in.Force))
		if s.GateContradictions && !in.Force {
			return nil, &ContradictionError{Pairs: pairs}
		}
	}

	if err := s.graph.Add(stmt); err != nil {
		return nil, err
	}

	s.logger.Info("statement created",
		zap.String("statement_id", stmt.ID.String()),
		zap.String("kind", string(stmt.Kind)),
		zap.Int("parents", len(stmt.DerivedFrom)))

	if err := s.persist(ctx); err != nil {
		return nil, err
	}
	return &CreateResult{Statement: stmt, Contradictions: pairs}, nil
}

func (s *StatementService) Get(id domain.StatementID) (*domain.Statement, error) {
	stmt, ok := s.graph.Get(id)
	if !ok {
		return nil, &domain.NotFoundError{ID: id}
	}
	return stmt, nil
}

func (s *StatementService) Update(ctx context.Context, id domain.StatementID, u domain.StatementUpdate) (*domain.Statement, error) {
	if u.Kind != nil && !domain.ValidStatementKind(string(*u.Kind)) {
		return nil, ErrInvalidKind
	}

	stmt, err := s.graph.Update(id, u)
	if err != nil {
		return nil, err
	}

	s.logger.Info("statement updated",
		zap.String("statement_id", id.String()),
		zap.Bool("parents_changed", u.ChangesParents()))

	if err := s.persist(ctx); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (s *StatementService) Delete(ctx context.Context, id domain.StatementID) error {
	if err := s.graph.Delete(id); err != nil {
		return err
	}

	s.logger.Info("statement deleted", zap.String("statement_id", id.String()))
	return s.persist(ctx)
}

// Contradictions checks one statement against the rest of the graph.
func (s *StatementService) Contradictions(id domain.StatementID) ([]contradiction.Pair, error) {
	stmt, ok := s.graph.Get(id)
	if !ok {
		return nil, &domain.NotFoundError{ID: id}
	}
	return s.detector.CheckAgainstExisting(stmt, s.graph.All()), nil
}

// AllContradictions runs the full pairwise sweep.
func (s *StatementService) AllContradictions() []contradiction.Pair {
	stmts := s.graph.All()
	s.logger.Debug("running full contradiction sweep", zap.Int("statements", len(stmts)))
	return s.detector.DetectAll(stmts)
}

// Save writes the current graph to the store.
func (s *StatementService) Save(ctx context.Context) error {
	if s.store == nil {
		return ErrStoreNotWired
	}
	if err := s.store.Save(ctx, s.graph.Snapshot()); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *StatementService) persist(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	if err := s.Save(ctx); err != nil {
		s.logger.Error("failed to persist graph", zap.Error(err))
		return err
	}
	return nil
}

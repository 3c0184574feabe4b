package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Harshitk-cp/knet/internal/domain"
	"github.com/Harshitk-cp/knet/internal/graph"
	"go.uber.org/zap"
)

var (
	ErrNoSourceStatements   = errors.New("at least one source statement is required")
	ErrGeneratorUnavailable = errors.New("theory generator is not configured")
	ErrEmptyDraft           = errors.New("theory generator returned empty content")
	// ErrGeneration wraps any failure reported by the generator itself.
	ErrGeneration = errors.New("theory generation failed")
)

// TheoryService drafts new theories from existing statements through an
// external generator. It performs no retries: a generator failure fails
// the call.
type TheoryService struct {
	graph      *graph.Graph
	generator  domain.TheoryGenerator
	statements *StatementService
	logger     *zap.Logger
}

func NewTheoryService(g *graph.Graph, generator domain.TheoryGenerator, statements *StatementService, logger *zap.Logger) *TheoryService {
	return &TheoryService{
		graph:      g,
		generator:  generator,
		statements: statements,
		logger:     logger,
	}
}

// Generate returns a draft built from the given source statements without
// inserting it.
func (s *TheoryService) Generate(ctx context.Context, sourceIDs []domain.StatementID) (*domain.TheoryDraft, error) {
	if s.generator == nil {
		return nil, ErrGeneratorUnavailable
	}
	if len(sourceIDs) == 0 {
		return nil, ErrNoSourceStatements
	}

	sources := make([]domain.Statement, 0, len(sourceIDs))
	for _, id := range sourceIDs {
		st, ok := s.graph.Get(id)
		if !ok {
			return nil, &domain.NotFoundError{ID: id}
		}
		sources = append(sources, *st)
	}

	s.logger.Debug("generating theory", zap.Int("sources", len(sources)))

	draft, err := s.generator.GenerateTheory(ctx, domain.TheoryRequest{SourceStatements: sources})
	if err != nil {
		s.logger.Warn("theory generation failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	if draft == nil || strings.TrimSpace(draft.Content) == "" {
		return nil, fmt.Errorf("%w: %w", ErrGeneration, ErrEmptyDraft)
	}
	draft.SuggestedTags = domain.NormalizeTags(draft.SuggestedTags)
	draft.SuggestedConfidence = clamp01(draft.SuggestedConfidence)
	return draft, nil
}

type GeneratedTheory struct {
	Draft  *domain.TheoryDraft `json:"draft"`
	Result *CreateResult       `json:"result"`
}

// GenerateAndAdd drafts a theory and inserts it derived from its sources.
func (s *TheoryService) GenerateAndAdd(ctx context.Context, sourceIDs []domain.StatementID, force bool) (*GeneratedTheory, error) {
	draft, err := s.Generate(ctx, sourceIDs)
	if err != nil {
		return nil, err
	}

	conf := draft.SuggestedConfidence
	res, err := s.statements.Create(ctx, CreateStatementInput{
		Kind:        domain.KindTheory,
		Content:     draft.Content,
		Confidence:  &conf,
		Tags:        draft.SuggestedTags,
		DerivedFrom: sourceIDs,
		Force:       force,
	})
	if err != nil {
		return nil, err
	}
	return &GeneratedTheory{Draft: draft, Result: res}, nil
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

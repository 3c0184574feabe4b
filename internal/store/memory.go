package store

import (
	"context"
	"sync"
	"time"

	"github.com/Harshitk-cp/knet/internal/domain"
)

// MemoryStore keeps the last saved snapshot in process. It backs tests and
// the "memory" driver.
type MemoryStore struct {
	mu    sync.Mutex
	snap  *domain.Snapshot
	saves int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) (*domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snap == nil {
		return emptySnapshot(), nil
	}
	return cloneSnapshot(s.snap), nil
}

func (s *MemoryStore) Save(ctx context.Context, snap *domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stamped := stamp(snap, time.Now())
	s.snap = cloneSnapshot(&stamped)
	s.saves++
	return nil
}

// Saves reports how many times Save has been called.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func cloneSnapshot(snap *domain.Snapshot) *domain.Snapshot {
	out := &domain.Snapshot{
		Statements: make([]domain.Statement, len(snap.Statements)),
		Metadata:   snap.Metadata,
	}
	for i := range snap.Statements {
		out.Statements[i] = *snap.Statements[i].Clone()
	}
	return out
}

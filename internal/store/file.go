package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Harshitk-cp/knet/internal/domain"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FileStore writes the snapshot to a single file. Saves go through a
// temporary file and a rename so a crash never leaves a half-written
// snapshot; the previous Backups versions are kept as path.bak.1..N.
type FileStore struct {
	mu      sync.Mutex
	path    string
	format  Format
	backups int
	now     func() time.Time
}

func NewFileStore(path string, format Format, backups int) *FileStore {
	if backups < 0 {
		backups = 0
	}
	return &FileStore{
		path:    path,
		format:  format,
		backups: backups,
		now:     time.Now,
	}
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load(ctx context.Context) (*domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return emptySnapshot(), nil
		}
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	snap := &domain.Snapshot{}
	if err := s.unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	if snap.Statements == nil {
		snap.Statements = []domain.Statement{}
	}
	return snap, nil
}

func (s *FileStore) Save(ctx context.Context, snap *domain.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stamped := stamp(snap, s.now())
	data, err := s.marshal(&stamped)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := s.rotate(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

// rotate shifts path.bak.N-1 to path.bak.N and copies the current file to
// path.bak.1. The oldest backup falls off.
func (s *FileStore) rotate() error {
	if s.backups == 0 {
		return nil
	}
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	for i := s.backups - 1; i >= 1; i-- {
		from, to := backupName(s.path, i), backupName(s.path, i+1)
		if err := os.Rename(from, to); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("rotate %s: %w", from, err)
		}
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read %s for backup: %w", s.path, err)
	}
	if err := os.WriteFile(backupName(s.path, 1), data, 0o644); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	return nil
}

func backupName(path string, n int) string {
	return fmt.Sprintf("%s.bak.%d", path, n)
}

func (s *FileStore) marshal(snap *domain.Snapshot) ([]byte, error) {
	if s.format == FormatYAML {
		return yaml.Marshal(snap)
	}
	return json.MarshalIndent(snap, "", "  ")
}

func (s *FileStore) unmarshal(data []byte, snap *domain.Snapshot) error {
	if s.format == FormatYAML {
		return yaml.Unmarshal(data, snap)
	}
	return json.Unmarshal(data, snap)
}

package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/docmerge/pkg/domain"
)

// Storage implements ports.Storage in memory.
// Safe for concurrent use.
type Storage struct {
	data map[string][]byte
	mu   sync.RWMutex
}

// NewStorage creates a new in-memory storage.
func NewStorage() *Storage {
	return &Storage{
		data: make(map[string][]byte),
	}
}

// Save keeps a copy of data under name.
func (s *Storage) Save(ctx context.Context, name string, format domain.Format, data []byte) (domain.StoredFile, error) {
	if name == "" {
		return domain.StoredFile{}, fmt.Errorf("memory: empty file name")
	}
	copied := append([]byte(nil), data...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[name] = copied
	return domain.StoredFile{Format: format, Path: name, FileName: name}, nil
}

// Load returns a copy of the stored bytes.
func (s *Storage) Load(ctx context.Context, path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.data[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrFileNotFound, path)
	}
	return append([]byte(nil), data...), nil
}

// List returns stored paths in sorted order.
func (s *Storage) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paths := make([]string, 0, len(s.data))
	for p := range s.data {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

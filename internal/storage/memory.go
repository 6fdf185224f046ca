package storage

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/tulisan/ocr-uploader/internal/models"
)

// MemoryStore keeps preview bytes in process memory and serves them
// under a URL prefix handled by the api package.
type MemoryStore struct {
	prefix string

	mu    sync.RWMutex
	files map[string]models.ImageFile
}

// NewMemoryStore creates a store whose URLs are prefix + key
func NewMemoryStore(prefix string) *MemoryStore {
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &MemoryStore{
		prefix: prefix,
		files:  make(map[string]models.ImageFile),
	}
}

func (s *MemoryStore) Put(ctx context.Context, file models.ImageFile) (Preview, error) {
	key := uuid.New().String()

	s.mu.Lock()
	s.files[key] = file
	s.mu.Unlock()

	return Preview{Key: key, URL: s.prefix + key}, nil
}

func (s *MemoryStore) Release(ctx context.Context, p Preview) error {
	s.mu.Lock()
	delete(s.files, p.Key)
	s.mu.Unlock()
	return nil
}

// Open returns the file stored under key
func (s *MemoryStore) Open(key string) (models.ImageFile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[key]
	return f, ok
}

// Len returns the number of live previews
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

func (s *MemoryStore) Status() models.ServiceStatus {
	return models.ServiceStatus{Available: true, Version: "in-memory"}
}

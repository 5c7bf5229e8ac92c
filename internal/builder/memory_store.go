package builder

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-showcase/internal/idmap"
)

// MemoryStore keeps documents in process.
type MemoryStore struct {
	mu   sync.RWMutex
	ids  idmap.Store
	docs map[uuid.UUID]*Document
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an in-memory store. A nil id map gets its own
// in-memory one.
func NewMemoryStore(ids idmap.Store) *MemoryStore {
	if ids == nil {
		ids = idmap.NewMemoryStore()
	}
	return &MemoryStore{ids: ids, docs: map[uuid.UUID]*Document{}}
}

func (s *MemoryStore) Ensure(ctx context.Context, demo, page string, payload any, settings map[string]any) (*Document, error) {
	demo, page, text, err := prepareEnsure(demo, page, payload)
	if err != nil {
		return nil, err
	}
	mapping, _, err := s.ids.Claim(ctx, demo, idmap.KindBuilderDocument, page)
	if err != nil {
		return nil, err
	}
	doc := newDocument(mapping, demo, page, text, settings)

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.docs[doc.ID]; ok {
		doc.CreatedAt = existing.CreatedAt
	} else {
		doc.CreatedAt = time.Now().UTC()
	}
	s.docs[doc.ID] = doc
	return cloneDocument(doc), nil
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return cloneDocument(doc), nil
}

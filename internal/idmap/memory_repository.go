package idmap

import (
	"context"
	"slices"
	"strings"
	"sync"
)

type memoryStore struct {
	mu      sync.Mutex
	byScope map[string]*Mapping
}

// NewMemoryStore returns an in-process Store. Claims are serialised by a
// mutex, which gives the same once-only guarantee as the unique index.
func NewMemoryStore() Store {
	return &memoryStore{byScope: make(map[string]*Mapping)}
}

func scopeKey(demo, kind, key string) string {
	return demo + "\x00" + kind + "\x00" + key
}

func (m *memoryStore) Claim(_ context.Context, demo, kind, key string) (*Mapping, bool, error) {
	demo, kind, key = normalizeScope(demo, kind, key)
	if !validScope(demo, kind, key) {
		return nil, false, ErrInvalidScope
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	k := scopeKey(demo, kind, key)
	if existing, ok := m.byScope[k]; ok {
		return cloneMapping(existing), false, nil
	}
	mapping := newMapping(demo, kind, key)
	m.byScope[k] = mapping
	return cloneMapping(mapping), true, nil
}

func (m *memoryStore) Lookup(_ context.Context, demo, kind, key string) (*Mapping, error) {
	demo, kind, key = normalizeScope(demo, kind, key)

	m.mu.Lock()
	defer m.mu.Unlock()

	mapping, ok := m.byScope[scopeKey(demo, kind, key)]
	if !ok {
		return nil, &NotFoundError{DemoSlug: demo, Kind: kind, Key: key}
	}
	return cloneMapping(mapping), nil
}

func (m *memoryStore) ListByDemo(_ context.Context, demo, kind string) ([]*Mapping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*Mapping, 0)
	for _, mapping := range m.byScope {
		if mapping.DemoSlug != demo || (kind != "" && mapping.Kind != kind) {
			continue
		}
		out = append(out, cloneMapping(mapping))
	}
	slices.SortFunc(out, func(a, b *Mapping) int {
		return strings.Compare(a.LogicalKey, b.LogicalKey)
	})
	return out, nil
}

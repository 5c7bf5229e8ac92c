package catalog

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository keeps catalog records in process.
type MemoryRepository struct {
	mu          sync.RWMutex
	attachments map[uuid.UUID]*Attachment
	items       map[uuid.UUID]*Item
	now         func() time.Time
}

var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		attachments: map[uuid.UUID]*Attachment{},
		items:       map[uuid.UUID]*Item{},
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryRepository) CreateAttachment(_ context.Context, record *Attachment) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.attachments[record.ID]; ok {
		return false, nil
	}
	stored := *record
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = m.now()
	}
	m.attachments[record.ID] = &stored
	return true, nil
}

func (m *MemoryRepository) GetAttachment(_ context.Context, id uuid.UUID) (*Attachment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.attachments[id]
	if !ok {
		return nil, &NotFoundError{Resource: "attachment", Key: id.String()}
	}
	cloned := *record
	return &cloned, nil
}

func (m *MemoryRepository) ListAttachments(_ context.Context, demo string, oldIDs []int64) ([]*Attachment, error) {
	wanted := make(map[int64]bool, len(oldIDs))
	for _, id := range oldIDs {
		wanted[id] = true
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Attachment
	for _, record := range m.attachments {
		if record.DemoSlug != demo || (len(wanted) > 0 && !wanted[record.OldID]) {
			continue
		}
		cloned := *record
		out = append(out, &cloned)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OldID < out[j].OldID })
	return out, nil
}

func (m *MemoryRepository) CreateItem(_ context.Context, record *Item) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[record.ID]; ok {
		return false, nil
	}
	stored := cloneItem(record)
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = m.now()
	}
	m.items[record.ID] = stored
	return true, nil
}

func (m *MemoryRepository) GetItem(_ context.Context, id uuid.UUID) (*Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.items[id]
	if !ok {
		return nil, &NotFoundError{Resource: "catalog item", Key: id.String()}
	}
	return cloneItem(record), nil
}

func (m *MemoryRepository) ListItems(_ context.Context, demo string) ([]*Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Item
	for _, record := range m.items {
		if record.DemoSlug == demo {
			out = append(out, cloneItem(record))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func cloneItem(record *Item) *Item {
	cloned := *record
	cloned.Categories = append([]string(nil), record.Categories...)
	cloned.Tags = append([]string(nil), record.Tags...)
	cloned.GalleryImageIDs = append([]uuid.UUID(nil), record.GalleryImageIDs...)
	if record.FeaturedImageID != nil {
		id := *record.FeaturedImageID
		cloned.FeaturedImageID = &id
	}
	if record.Stock != nil {
		stock := *record.Stock
		cloned.Stock = &stock
	}
	return &cloned
}

package catalog

import (
	"context"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	cache "github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	attachmentNamespace = "catalog_attachment"
	itemNamespace       = "catalog_item"
)

// BunRepository persists catalog records with bun. Reads go through
// go-repository-bun, optionally cached.
type BunRepository struct {
	db           bun.IDB
	attachments  repository.Repository[*Attachment]
	items        repository.Repository[*Item]
	cacheService cache.CacheService
}

var _ Repository = (*BunRepository)(nil)

// NewBunRepository creates a repository without caching.
func NewBunRepository(db *bun.DB) *BunRepository {
	return NewBunRepositoryWithCache(db, nil, nil)
}

// NewBunRepositoryWithCache creates a repository with caching services.
func NewBunRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer) *BunRepository {
	attachments := newAttachmentRepository(db)
	items := newItemRepository(db)
	var svc cache.CacheService
	if cacheService != nil && serializer != nil {
		attachments = repositorycache.New(attachments, cacheService, serializer)
		items = repositorycache.New(items, cacheService, serializer)
		svc = cacheService
	}
	return &BunRepository{db: db, attachments: attachments, items: items, cacheService: svc}
}

func newAttachmentRepository(db *bun.DB) repository.Repository[*Attachment] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Attachment]{
		NewRecord: func() *Attachment { return &Attachment{} },
		GetID: func(a *Attachment) uuid.UUID {
			return a.ID
		},
		SetID: func(a *Attachment, id uuid.UUID) {
			a.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(a *Attachment) string {
			return a.ID.String()
		},
	})
}

func newItemRepository(db *bun.DB) repository.Repository[*Item] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Item]{
		NewRecord: func() *Item { return &Item{} },
		GetID: func(i *Item) uuid.UUID {
			return i.ID
		},
		SetID: func(i *Item, id uuid.UUID) {
			i.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(i *Item) string {
			return i.ID.String()
		},
	})
}

func (r *BunRepository) CreateAttachment(ctx context.Context, record *Attachment) (bool, error) {
	res, err := r.db.NewInsert().
		Model(record).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("attachment insert %s/%d: %w", record.DemoSlug, record.OldID, err)
	}
	affected, _ := res.RowsAffected()
	if affected > 0 {
		return true, r.invalidate(ctx, attachmentNamespace)
	}
	return false, nil
}

func (r *BunRepository) GetAttachment(ctx context.Context, id uuid.UUID) (*Attachment, error) {
	record, err := r.attachments.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "attachment", id.String())
	}
	return record, nil
}

func (r *BunRepository) ListAttachments(ctx context.Context, demo string, oldIDs []int64) ([]*Attachment, error) {
	records, _, err := r.attachments.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			q = q.Where("?TableAlias.demo_slug = ?", demo)
			if len(oldIDs) > 0 {
				q = q.Where("?TableAlias.old_id IN (?)", bun.In(oldIDs))
			}
			return q.OrderExpr("?TableAlias.old_id ASC")
		}),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "attachment", demo)
	}
	return records, nil
}

func (r *BunRepository) CreateItem(ctx context.Context, record *Item) (bool, error) {
	res, err := r.db.NewInsert().
		Model(record).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("catalog item insert %s/%s: %w", record.DemoSlug, record.Slug, err)
	}
	affected, _ := res.RowsAffected()
	if affected > 0 {
		return true, r.invalidate(ctx, itemNamespace)
	}
	return false, nil
}

func (r *BunRepository) GetItem(ctx context.Context, id uuid.UUID) (*Item, error) {
	record, err := r.items.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "catalog item", id.String())
	}
	return record, nil
}

func (r *BunRepository) ListItems(ctx context.Context, demo string) ([]*Item, error) {
	records, _, err := r.items.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.demo_slug = ?", demo).
				OrderExpr("?TableAlias.slug ASC")
		}),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "catalog item", demo)
	}
	return records, nil
}

func (r *BunRepository) invalidate(ctx context.Context, namespace string) error {
	if r.cacheService == nil {
		return nil
	}
	return r.cacheService.DeleteByPrefix(ctx, namespace+cache.KeySeparator)
}

func mapRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Resource: resource, Key: key}
	}
	return fmt.Errorf("%s repository error: %w", resource, err)
}

package builder

import (
	"context"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	cache "github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-showcase/internal/idmap"
)

const documentNamespace = "builder_documents"

// BunStore persists documents with bun.
type BunStore struct {
	db           bun.IDB
	ids          idmap.Store
	repo         repository.Repository[*Document]
	cacheService cache.CacheService
	cachePrefix  string
}

var _ Store = (*BunStore)(nil)

// NewBunStore creates a document store without caching.
func NewBunStore(db *bun.DB, ids idmap.Store) *BunStore {
	return NewBunStoreWithCache(db, ids, nil, nil)
}

// NewBunStoreWithCache creates a document store whose reads are cached.
func NewBunStoreWithCache(db *bun.DB, ids idmap.Store, cacheService cache.CacheService, serializer cache.KeySerializer) *BunStore {
	base := newDocumentRepository(db)
	var svc cache.CacheService
	if cacheService != nil && serializer != nil {
		base = repositorycache.New(base, cacheService, serializer)
		svc = cacheService
	}
	prefix := ""
	if svc != nil {
		prefix = documentNamespace + cache.KeySeparator
	}
	return &BunStore{db: db, ids: ids, repo: base, cacheService: svc, cachePrefix: prefix}
}

func newDocumentRepository(db *bun.DB) repository.Repository[*Document] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Document]{
		NewRecord: func() *Document { return &Document{} },
		GetID: func(d *Document) uuid.UUID {
			return d.ID
		},
		SetID: func(d *Document, id uuid.UUID) {
			d.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(d *Document) string {
			return d.ID.String()
		},
	})
}

func (s *BunStore) Ensure(ctx context.Context, demo, page string, payload any, settings map[string]any) (*Document, error) {
	demo, page, text, err := prepareEnsure(demo, page, payload)
	if err != nil {
		return nil, err
	}
	mapping, _, err := s.ids.Claim(ctx, demo, idmap.KindBuilderDocument, page)
	if err != nil {
		return nil, err
	}

	doc := newDocument(mapping, demo, page, text, settings)
	// the id is derived from the claim, so racing writers target one row
	_, err = s.db.NewInsert().
		Model(doc).
		On("CONFLICT (id) DO UPDATE").
		Set("payload = EXCLUDED.payload").
		Set("settings = EXCLUDED.settings").
		Set("title = EXCLUDED.title").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("builder document ensure %s/%s: %w", demo, page, err)
	}
	if err := s.invalidate(ctx); err != nil {
		return nil, err
	}

	stored := &Document{}
	if err := s.db.NewSelect().Model(stored).Where("?TableAlias.id = ?", doc.ID).Scan(ctx); err != nil {
		return nil, fmt.Errorf("builder document reload %s/%s: %w", demo, page, err)
	}
	return stored, nil
}

func (s *BunStore) Get(ctx context.Context, id uuid.UUID) (*Document, error) {
	record, err := s.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, id)
	}
	return record, nil
}

func (s *BunStore) invalidate(ctx context.Context) error {
	if s.cacheService == nil || s.cachePrefix == "" {
		return nil
	}
	return s.cacheService.DeleteByPrefix(ctx, s.cachePrefix)
}

func mapRepositoryError(err error, id uuid.UUID) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{ID: id}
	}
	return fmt.Errorf("builder document repository error: %w", err)
}

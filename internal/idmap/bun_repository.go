package idmap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	cache "github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const mappingNamespace = "id_map"

// BunStore implements Store on bun. Claims go straight to the database;
// lookups go through go-repository-bun with an optional cache.
type BunStore struct {
	db           bun.IDB
	repo         repository.Repository[*Mapping]
	cacheService cache.CacheService
	cachePrefix  string
}

var _ Store = (*BunStore)(nil)

// NewBunStore creates an id map store without caching.
func NewBunStore(db *bun.DB) *BunStore {
	return NewBunStoreWithCache(db, nil, nil)
}

// NewBunStoreWithCache creates an id map store with caching services.
func NewBunStoreWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer) *BunStore {
	base := newMappingRepository(db)
	var svc cache.CacheService
	if cacheService != nil && serializer != nil {
		base = repositorycache.New(base, cacheService, serializer)
		svc = cacheService
	}
	prefix := ""
	if svc != nil {
		prefix = mappingNamespace + cache.KeySeparator
	}
	return &BunStore{db: db, repo: base, cacheService: svc, cachePrefix: prefix}
}

func newMappingRepository(db *bun.DB) repository.Repository[*Mapping] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Mapping]{
		NewRecord: func() *Mapping { return &Mapping{} },
		GetID: func(m *Mapping) uuid.UUID {
			return m.ID
		},
		SetID: func(m *Mapping, id uuid.UUID) {
			m.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(m *Mapping) string {
			return m.ID.String()
		},
	})
}

func (s *BunStore) Claim(ctx context.Context, demo, kind, key string) (*Mapping, bool, error) {
	demo, kind, key = normalizeScope(demo, kind, key)
	if !validScope(demo, kind, key) {
		return nil, false, ErrInvalidScope
	}

	candidate := newMapping(demo, kind, key)
	res, err := s.db.NewInsert().
		Model(candidate).
		On("CONFLICT (demo_slug, kind, logical_key) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("id map claim %s/%s/%s: %w", demo, kind, key, err)
	}
	affected, _ := res.RowsAffected()
	created := affected > 0

	stored := new(Mapping)
	err = s.db.NewSelect().
		Model(stored).
		Where("?TableAlias.demo_slug = ?", demo).
		Where("?TableAlias.kind = ?", kind).
		Where("?TableAlias.logical_key = ?", key).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, &NotFoundError{DemoSlug: demo, Kind: kind, Key: key}
		}
		return nil, false, fmt.Errorf("id map read %s/%s/%s: %w", demo, kind, key, err)
	}

	if created {
		if err := s.InvalidateCache(ctx); err != nil {
			return stored, created, err
		}
	}
	return stored, created, nil
}

func (s *BunStore) Lookup(ctx context.Context, demo, kind, key string) (*Mapping, error) {
	demo, kind, key = normalizeScope(demo, kind, key)
	records, _, err := s.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.demo_slug = ?", demo).
				Where("?TableAlias.kind = ?", kind).
				Where("?TableAlias.logical_key = ?", key)
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, mapRepositoryError(err, demo, kind, key)
	}
	if len(records) == 0 {
		return nil, &NotFoundError{DemoSlug: demo, Kind: kind, Key: key}
	}
	return records[0], nil
}

func (s *BunStore) ListByDemo(ctx context.Context, demo, kind string) ([]*Mapping, error) {
	records, _, err := s.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			q = q.Where("?TableAlias.demo_slug = ?", demo)
			if kind != "" {
				q = q.Where("?TableAlias.kind = ?", kind)
			}
			return q.OrderExpr("?TableAlias.logical_key ASC")
		}),
	)
	if err != nil {
		return nil, mapRepositoryError(err, demo, kind, "")
	}
	return records, nil
}

func (s *BunStore) InvalidateCache(ctx context.Context) error {
	if s.cacheService == nil || s.cachePrefix == "" {
		return nil
	}
	return s.cacheService.DeleteByPrefix(ctx, s.cachePrefix)
}

func mapRepositoryError(err error, demo, kind, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{DemoSlug: demo, Kind: kind, Key: key}
	}
	return fmt.Errorf("id map repository error: %w", err)
}

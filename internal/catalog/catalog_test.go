package catalog_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/google/uuid"

	"github.com/goliatone/go-showcase/internal/catalog"
	"github.com/goliatone/go-showcase/internal/identity"
	"github.com/goliatone/go-showcase/internal/idmap"
	"github.com/goliatone/go-showcase/internal/previewctx"
	"github.com/goliatone/go-showcase/pkg/testsupport"
)

type backend struct {
	repo catalog.Repository
	ids  idmap.Store
}

func backends(t *testing.T) map[string]backend {
	t.Helper()

	cacheCfg := repocache.DefaultConfig()
	cacheCfg.TTL = time.Minute
	cacheService, err := repocache.NewCacheService(cacheCfg)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}

	tables := append(idmap.Tables(), catalog.Tables()...)
	plainDB := testsupport.NewBunDB(t, tables...)
	cachedDB := testsupport.NewBunDB(t, tables...)

	return map[string]backend{
		"memory": {repo: catalog.NewMemoryRepository(), ids: idmap.NewMemoryStore()},
		"bun":    {repo: catalog.NewBunRepository(plainDB), ids: idmap.NewBunStore(plainDB)},
		"bun-cached": {
			repo: catalog.NewBunRepositoryWithCache(cachedDB, cacheService, repocache.NewDefaultKeySerializer()),
			ids:  idmap.NewBunStore(cachedDB),
		},
	}
}

func writeManifests(t *testing.T, base, name string) *testsupport.PackageBuilder {
	t.Helper()
	return testsupport.NewPackage(t, base, name).
		JSON("media.json", map[string]any{"items": []any{
			map[string]any{"old_id": 101, "rel_path": "/2024/01/bag.jpg"},
			map[string]any{"old_id": 102, "rel_path": "2024/01/bag-side.jpg", "title": "Side"},
			map[string]any{"old_id": 0, "rel_path": "zero.jpg"},
			map[string]any{"old_id": 103, "rel_path": ""},
		}}).
		JSON("products.json", map[string]any{"items": []any{
			map[string]any{
				"slug": "Leather Bag", "title": "Leather Bag",
				"regular_price": "120", "sale_price": "99",
				"manage_stock": "yes", "stock": "7", "sku": "LB-1",
				"product_cat": []any{"Bags", "bags", " "}, "product_tag": []any{"Leather"},
				"featured_image_id": 101, "gallery_image_ids": []any{102, 999},
			},
			map[string]any{"slug": "mug", "price": "12", "regular_price": "15", "stock_status": "outofstock", "categories": "Kitchen"},
			map[string]any{"slug": "scarf", "regular_price": "30", "product_cat": []any{"bags"}},
			map[string]any{"title": "No slug"},
		}})
}

func previewFor(demo, dir string) previewctx.Context {
	return previewctx.New("demo", demo, dir, "", "")
}

func TestEnsureMaterializesAndReuses(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			fixture := writeManifests(t, t.TempDir(), "shop1")
			pc := previewFor("shop1", fixture.Dir)
			materializer := catalog.NewMaterializer(b.repo, b.ids, catalog.WithPublicURL("https://preview.example.com/"))

			report, err := materializer.Ensure(ctx, pc)
			if err != nil {
				t.Fatalf("ensure: %v", err)
			}
			if report.Attachments.Created != 2 || report.Attachments.Skipped != 2 {
				t.Fatalf("unexpected attachment counts %+v", report.Attachments)
			}
			if report.Items.Created != 3 || report.Items.Skipped != 1 || report.Failed != 0 {
				t.Fatalf("unexpected item counts %+v (failed %d)", report.Items, report.Failed)
			}

			again, err := materializer.Ensure(ctx, pc)
			if err != nil {
				t.Fatalf("ensure again: %v", err)
			}
			if again.Attachments.Created != 0 || again.Attachments.Reused != 2 || again.Items.Created != 0 || again.Items.Reused != 3 {
				t.Fatalf("expected second run to reuse records, got %+v", again)
			}

			att, err := b.repo.GetAttachment(ctx, identity.AttachmentUUID("shop1", 101))
			if err != nil {
				t.Fatalf("get attachment: %v", err)
			}
			if att.PreviewURL != "https://preview.example.com/demo/shop1/media/2024/01/bag.jpg" {
				t.Fatalf("unexpected preview url %q", att.PreviewURL)
			}
			if att.Title != "bag.jpg" || att.MimeType != "image/jpeg" {
				t.Fatalf("unexpected attachment %+v", att)
			}

			item, err := b.repo.GetItem(ctx, identity.CatalogItemUUID("shop1", "leather-bag"))
			if err != nil {
				t.Fatalf("get item: %v", err)
			}
			if item.Price != "99" || !item.ManageStock || item.Stock == nil || *item.Stock != 7 {
				t.Fatalf("unexpected pricing or stock %+v", item)
			}
			if item.StockStatus != catalog.StockInStock {
				t.Fatalf("expected default stock status, got %q", item.StockStatus)
			}
			if strings.Join(item.Categories, ",") != "bags" || strings.Join(item.Tags, ",") != "leather" {
				t.Fatalf("unexpected terms %v %v", item.Categories, item.Tags)
			}
			if item.FeaturedImageID == nil || *item.FeaturedImageID != att.ID {
				t.Fatalf("expected featured image to resolve, got %v", item.FeaturedImageID)
			}
			if len(item.GalleryImageIDs) != 1 || item.GalleryImageIDs[0] != identity.AttachmentUUID("shop1", 102) {
				t.Fatalf("expected unknown gallery ids to be dropped, got %v", item.GalleryImageIDs)
			}

			mug, err := b.repo.GetItem(ctx, identity.CatalogItemUUID("shop1", "mug"))
			if err != nil {
				t.Fatalf("get mug: %v", err)
			}
			if mug.Price != "12" || mug.StockStatus != catalog.StockOutOfStock || mug.Title != "mug" {
				t.Fatalf("unexpected mug %+v", mug)
			}
		})
	}
}

func TestCatalogQueriesAreDemoScoped(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := t.TempDir()
			shop1 := previewFor("shop1", writeManifests(t, base, "shop1").Dir)
			shop2 := previewFor("shop2", writeManifests(t, base, "shop2").Dir)
			materializer := catalog.NewMaterializer(b.repo, b.ids)
			for _, pc := range []previewctx.Context{shop1, shop2} {
				if _, err := materializer.Ensure(ctx, pc); err != nil {
					t.Fatalf("ensure %s: %v", pc.DemoSlug, err)
				}
			}

			c := catalog.NewCatalog(b.repo, nil)
			items, err := c.ListItems(ctx, shop1, catalog.ListOptions{})
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(items) != 3 {
				t.Fatalf("expected 3 items for shop1, got %d", len(items))
			}
			for _, item := range items {
				if item.DemoSlug != "shop1" {
					t.Fatalf("leaked item from %s", item.DemoSlug)
				}
			}

			bags, err := c.ListItems(ctx, shop1, catalog.ListOptions{Category: "Bags", Limit: 1})
			if err != nil {
				t.Fatalf("list bags: %v", err)
			}
			if len(bags) != 1 || bags[0].Slug != "leather-bag" {
				t.Fatalf("expected first bag by slug, got %+v", bags)
			}

			tagged, _ := c.ListItems(ctx, shop1, catalog.ListOptions{Tag: "leather"})
			if len(tagged) != 1 {
				t.Fatalf("expected one tagged item, got %d", len(tagged))
			}

			none, _ := c.ListItems(ctx, previewctx.Context{}, catalog.ListOptions{})
			if none != nil {
				t.Fatalf("expected no items for inactive context, got %d", len(none))
			}

			shop2Att := identity.AttachmentUUID("shop2", 101)
			if got := c.AttachmentURL(ctx, shop1, shop2Att, "fallback.jpg"); got != "fallback.jpg" {
				t.Fatalf("expected fallback for other demo attachment, got %q", got)
			}
			if got := c.AttachmentURL(ctx, shop2, shop2Att, "fallback.jpg"); got != "/demo/shop2/media/2024/01/bag.jpg" {
				t.Fatalf("expected preview url, got %q", got)
			}
			if got := c.AttachmentURL(ctx, shop1, uuid.New(), "fallback.jpg"); got != "fallback.jpg" {
				t.Fatalf("expected fallback for unknown attachment, got %q", got)
			}

			atts, err := c.AttachmentsByOldID(ctx, shop1, []int64{102, 7, 101})
			if err != nil {
				t.Fatalf("attachments: %v", err)
			}
			if len(atts) != 2 || atts[0].OldID != 102 || atts[1].OldID != 101 {
				t.Fatalf("expected request order without unknown ids, got %+v", atts)
			}

			item, err := c.Item(ctx, shop2, "Mug")
			if err != nil || item.DemoSlug != "shop2" {
				t.Fatalf("expected shop2 mug, got %+v (%v)", item, err)
			}
		})
	}
}

func TestEnsureRequiresActiveContext(t *testing.T) {
	m := catalog.NewMaterializer(catalog.NewMemoryRepository(), idmap.NewMemoryStore())
	if _, err := m.Ensure(context.Background(), previewctx.Context{}); !errors.Is(err, catalog.ErrInactiveContext) {
		t.Fatalf("expected ErrInactiveContext, got %v", err)
	}
}

func TestEnsureToleratesMissingManifests(t *testing.T) {
	fixture := testsupport.NewPackage(t, t.TempDir(), "empty").File("media.json", []byte("{oops"))
	m := catalog.NewMaterializer(catalog.NewMemoryRepository(), idmap.NewMemoryStore())

	report, err := m.Ensure(context.Background(), previewFor("empty", fixture.Dir))
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if report.Attachments != (catalog.Counts{}) || report.Items != (catalog.Counts{}) {
		t.Fatalf("expected empty report, got %+v", report)
	}
}

type failingRepository struct {
	*catalog.MemoryRepository
}

func (f failingRepository) CreateItem(ctx context.Context, record *catalog.Item) (bool, error) {
	if record.Slug == "mug" {
		return false, errors.New("disk full")
	}
	return f.MemoryRepository.CreateItem(ctx, record)
}

func TestEnsureCountsFailuresPerItem(t *testing.T) {
	fixture := writeManifests(t, t.TempDir(), "shop1")
	m := catalog.NewMaterializer(failingRepository{catalog.NewMemoryRepository()}, idmap.NewMemoryStore())

	report, err := m.Ensure(context.Background(), previewFor("shop1", fixture.Dir))
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if report.Items.Failed != 1 || report.Items.Created != 2 || report.Failed != 1 {
		t.Fatalf("expected one failed item, got %+v", report)
	}
}

type countingMetrics struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *countingMetrics) ObserveMaterialized(kind, outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[kind+"/"+outcome]++
}

func TestConcurrentEnsureCreatesOnce(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			fixture := writeManifests(t, t.TempDir(), "shop1")
			pc := previewFor("shop1", fixture.Dir)
			metrics := &countingMetrics{counts: map[string]int{}}
			m := catalog.NewMaterializer(b.repo, b.ids, catalog.WithMetrics(metrics))

			var wg sync.WaitGroup
			errs := make(chan error, 8)
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if _, err := m.Ensure(context.Background(), pc); err != nil {
						errs <- err
					}
				}()
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				t.Fatalf("ensure: %v", err)
			}

			if metrics.counts["attachment/created"] != 2 || metrics.counts["catalog_item/created"] != 3 {
				t.Fatalf("expected each record created once, got %v", metrics.counts)
			}
			items, err := b.repo.ListItems(context.Background(), "shop1")
			if err != nil || len(items) != 3 {
				t.Fatalf("expected 3 stored items, got %d (%v)", len(items), err)
			}
		})
	}
}

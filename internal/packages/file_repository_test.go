package packages_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-showcase/internal/packages"
	"github.com/goliatone/go-showcase/pkg/testsupport"
)

func TestListSortsByTitleAndSkipsInvalid(t *testing.T) {
	base := t.TempDir()
	testsupport.NewPackage(t, base, "zeta").Descriptor(map[string]any{"title": "Alpha"})
	testsupport.NewPackage(t, base, "beta").Descriptor(map[string]any{"title": "Alpha"})
	testsupport.NewPackage(t, base, "gamma").Descriptor(map[string]any{})
	testsupport.NewPackage(t, base, "broken").File("demo.json", []byte("{not json"))
	testsupport.NewPackage(t, base, "empty")
	if err := os.WriteFile(filepath.Join(base, "stray.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	repo := packages.NewFileRepository(base)
	list, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	got := make([]string, 0, len(list))
	for _, pkg := range list {
		got = append(got, pkg.Slug)
	}
	want := []string{"beta", "zeta", "gamma"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if list[2].Title != "gamma" {
		t.Fatalf("expected title to default to slug, got %q", list[2].Title)
	}
}

func TestListMissingBaseDir(t *testing.T) {
	repo := packages.NewFileRepository(filepath.Join(t.TempDir(), "missing"))
	list, err := repo.List(context.Background())
	if err != nil || len(list) != 0 {
		t.Fatalf("expected empty list, got %v, %v", list, err)
	}
}

func TestGetNormalizesDescriptor(t *testing.T) {
	base := t.TempDir()
	testsupport.NewPackage(t, base, "shop1").
		Descriptor(map[string]any{
			"title":       "Shop One",
			"description": "A store",
			"category":    "E Commerce",
			"front_page":  "Welcome Page",
			"meta":        map[string]any{"theme": "storefront"},
		}).
		File("cover.png", []byte("png"))

	repo := packages.NewFileRepository(base, packages.WithPublicBaseURL("https://cdn.example.com/packages/"))
	pkg, err := repo.Get(context.Background(), " Shop1 ")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if pkg.Title != "Shop One" || pkg.Description != "A store" {
		t.Fatalf("unexpected package %+v", pkg)
	}
	if len(pkg.Categories) != 1 || pkg.Categories[0] != "e-commerce" {
		t.Fatalf("unexpected categories %v", pkg.Categories)
	}
	if pkg.FrontPageSlug != "welcome-page" {
		t.Fatalf("unexpected front page %q", pkg.FrontPageSlug)
	}
	if pkg.Cover.File != "cover.png" || pkg.Cover.URL != "https://cdn.example.com/packages/shop1/cover.png" {
		t.Fatalf("unexpected cover %+v", pkg.Cover)
	}
	if pkg.Paths.CoverFile != filepath.Join(pkg.Paths.Dir, "cover.png") {
		t.Fatalf("unexpected cover path %q", pkg.Paths.CoverFile)
	}
	if pkg.Meta["theme"] != "storefront" {
		t.Fatalf("expected meta to be kept, got %v", pkg.Meta)
	}
}

func TestCoverPrefersDeclaredFileAndOmitsURLWithoutPublicBase(t *testing.T) {
	base := t.TempDir()
	testsupport.NewPackage(t, base, "shop1").
		Descriptor(map[string]any{"cover": "/shots/front.webp"}).
		File("shots/front.webp", []byte("webp")).
		File("cover.jpg", []byte("jpg"))

	pkg, err := packages.NewFileRepository(base).Get(context.Background(), "shop1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if pkg.Cover.File != "shots/front.webp" || pkg.Cover.URL != "" {
		t.Fatalf("unexpected cover %+v", pkg.Cover)
	}
}

func TestGetMatchesNonCanonicalDirectory(t *testing.T) {
	base := t.TempDir()
	testsupport.NewPackage(t, base, "Shop Two").Descriptor(map[string]any{"title": "Two"})

	pkg, err := packages.NewFileRepository(base).Get(context.Background(), "shop-two")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if pkg.Slug != "shop-two" {
		t.Fatalf("expected normalized slug, got %q", pkg.Slug)
	}
}

func TestGetUnknown(t *testing.T) {
	_, err := packages.NewFileRepository(t.TempDir()).Get(context.Background(), "nope")
	var notFound *packages.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestManifestCacheRefreshesOnChange(t *testing.T) {
	base := t.TempDir()
	b := testsupport.NewPackage(t, base, "shop1").Descriptor(map[string]any{"title": "First"})

	hits := 0
	cache := packages.NewManifestCache()
	cache.OnHit(func() { hits++ })
	repo := packages.NewFileRepository(base, packages.WithManifestCache(cache))

	ctx := context.Background()
	if _, err := repo.Get(ctx, "shop1"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, err := repo.Get(ctx, "shop1"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if hits != 1 {
		t.Fatalf("expected one cache hit, got %d", hits)
	}

	b.Descriptor(map[string]any{"title": "Second, longer title"})
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(filepath.Join(b.Dir, "demo.json"), future, future); err != nil {
		t.Fatal(err)
	}

	pkg, err := repo.Get(ctx, "shop1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if pkg.Title != "Second, longer title" {
		t.Fatalf("expected refreshed title, got %q", pkg.Title)
	}
}

func TestWatcherEvictsChangedManifests(t *testing.T) {
	base := t.TempDir()
	b := testsupport.NewPackage(t, base, "shop1").Descriptor(map[string]any{"title": "First"})

	cache := packages.NewManifestCache()
	if _, err := cache.ReadFile(filepath.Join(b.Dir, "demo.json")); err != nil {
		t.Fatalf("prime cache: %v", err)
	}

	changed := make(chan []string, 4)
	w, err := packages.NewWatcher(base, cache,
		packages.WithDebounce(20*time.Millisecond),
		packages.WithChangeHook(func(paths []string) { changed <- paths }),
	)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		_ = w.Close()
	})
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	b.Descriptor(map[string]any{"title": "Second"})

	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for watcher flush")
	}
	if cache.Len() != 0 {
		t.Fatalf("expected cache to be evicted, has %d entries", cache.Len())
	}
}

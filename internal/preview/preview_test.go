package preview_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-showcase/internal/catalog"
	"github.com/goliatone/go-showcase/internal/content"
	"github.com/goliatone/go-showcase/internal/idmap"
	"github.com/goliatone/go-showcase/internal/linkrewrite"
	"github.com/goliatone/go-showcase/internal/menus"
	"github.com/goliatone/go-showcase/internal/packages"
	"github.com/goliatone/go-showcase/internal/preview"
	"github.com/goliatone/go-showcase/pkg/testsupport"
)

type fixture struct {
	baseDir  string
	repo     *packages.FileRepository
	renderer *content.Renderer
	rewriter *linkrewrite.Rewriter
	loader   *content.Loader
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	baseDir := t.TempDir()

	testsupport.NewPackage(t, baseDir, "Shop1").
		Descriptor(map[string]any{"title": "Shop One", "front_page": "Welcome"}).
		JSON("pages.json", []any{
			map[string]any{"slug": "welcome", "title": "Welcome", "content": "Hello shoppers"},
			map[string]any{"slug": "about", "title": "About", "content": `<p>Read <a href="https://shop.example.com/contact/">contact</a></p>`},
			map[string]any{"slug": "shop-checkout", "title": "Checkout", "content": "Pay here"},
		}).
		JSON("theme_mods.json", map[string]any{"wp_css_custom": "body{color:red}"}).
		JSON("media.json", map[string]any{"items": []any{
			map[string]any{"old_id": 5, "rel_path": "2024/01/shirt.jpg"},
		}}).
		JSON("products.json", map[string]any{"items": []any{
			map[string]any{"slug": "blue-shirt", "title": "Blue Shirt", "price": "25", "sku": "BS-1", "featured_image_id": 5, "content": "Soft cotton"},
		}}).
		Media("2024/01/shirt.jpg", []byte("jpeg"))
	testsupport.NewPackage(t, baseDir, "blog").
		Descriptor(map[string]any{"title": "Blog"})

	repo := packages.NewFileRepository(baseDir)
	rewriter := linkrewrite.New("demo", "https://preview.example.com", "https://shop.example.com")
	loader := content.NewLoader()
	return fixture{
		baseDir:  baseDir,
		repo:     repo,
		loader:   loader,
		rewriter: rewriter,
		renderer: content.NewRenderer(loader, content.WithRewriter(rewriter)),
	}
}

func (f fixture) service(opts ...preview.ServiceOption) *preview.Service {
	base := []preview.ServiceOption{
		preview.WithRewriter(f.rewriter),
		preview.WithMenus(menus.NewService(menus.WithPages(f.loader), menus.WithRewriter(f.rewriter))),
		preview.WithPublicHost("https://preview.example.com"),
	}
	return preview.NewService(preview.NewResolver(f.repo), f.renderer, append(base, opts...)...)
}

func TestResolverRoutes(t *testing.T) {
	f := newFixture(t)
	resolver := preview.NewResolver(f.repo)
	ctx := context.Background()

	cases := []struct {
		path  string
		kind  preview.RouteKind
		page  string
		media string
	}{
		{path: "shop1", kind: preview.RoutePage, page: "welcome"},
		{path: "/Shop1/", kind: preview.RoutePage, page: "welcome"},
		{path: "shop1/About/", kind: preview.RoutePage, page: "about"},
		{path: "shop1/shop/checkout", kind: preview.RoutePage, page: "shop-checkout"},
		{path: "shop1/media/2024/01/Shirt.JPG", kind: preview.RouteMedia, media: "2024/01/Shirt.JPG"},
		{path: "shop1/media", kind: preview.RouteMedia, media: ""},
		{path: "shop1/mediakit", kind: preview.RoutePage, page: "mediakit"},
		{path: "blog/", kind: preview.RoutePage, page: preview.DefaultPage},
	}
	for _, tc := range cases {
		route, err := resolver.Resolve(ctx, "demo", tc.path)
		if err != nil {
			t.Fatalf("%s: resolve: %v", tc.path, err)
		}
		if route.Kind != tc.kind {
			t.Fatalf("%s: expected kind %s, got %s", tc.path, tc.kind, route.Kind)
		}
		if !route.Context.Active || route.Context.Base != "demo" {
			t.Fatalf("%s: expected active demo context, got %+v", tc.path, route.Context)
		}
		if tc.kind == preview.RoutePage && route.Context.PageSlug != tc.page {
			t.Fatalf("%s: expected page %q, got %q", tc.path, tc.page, route.Context.PageSlug)
		}
		if tc.kind == preview.RouteMedia && route.MediaPath != tc.media {
			t.Fatalf("%s: expected media path %q, got %q", tc.path, tc.media, route.MediaPath)
		}
	}
}

func TestResolverUnknownDemo(t *testing.T) {
	f := newFixture(t)
	resolver := preview.NewResolver(f.repo, preview.WithDefaultPage("start"))

	for _, path := range []string{"missing/about", "", "///"} {
		_, err := resolver.Resolve(context.Background(), "demo", path)
		if !errors.Is(err, preview.ErrDemoNotFound) {
			t.Fatalf("%q: expected ErrDemoNotFound, got %v", path, err)
		}
		if !goerrors.IsCategory(err, goerrors.CategoryNotFound) {
			t.Fatalf("%q: expected not found category, got %v", path, err)
		}
	}
}

func TestRenderPageDocument(t *testing.T) {
	f := newFixture(t)
	resp, err := f.service().Render(context.Background(), "demo", "shop1/about")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if resp.Status != http.StatusOK || resp.Kind != preview.RoutePage {
		t.Fatalf("unexpected response %d %s", resp.Status, resp.Kind)
	}

	for _, want := range []string{
		`<meta name="robots" content="noindex,nofollow">`,
		`<title>About | Shop One</title>`,
		`<meta name="showcase-demo" content="shop1">`,
		`<style id="showcase-custom-css">`,
		`<a href="/demo/shop1/contact/">contact</a>`,
		`<li class="menu-item"><a href="/demo/shop1/welcome/">Welcome</a></li>`,
		`class="site-title" href="/demo/shop1/"`,
		`<h1 class="entry-title">About</h1>`,
	} {
		if !strings.Contains(resp.HTML, want) {
			t.Fatalf("expected document to contain %q\n%s", want, resp.HTML)
		}
	}
	if strings.Contains(resp.HTML, "shop.example.com") {
		t.Fatalf("expected no links to the source site\n%s", resp.HTML)
	}
}

func TestRenderUnknownPageIsNotFound(t *testing.T) {
	f := newFixture(t)
	resp, err := f.service().Render(context.Background(), "demo", "shop1/nowhere")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if resp.Status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Status)
	}
	if !strings.Contains(resp.HTML, `class="showcase-not-found"`) || !strings.Contains(resp.HTML, `<a href="/demo/shop1/">Back to the demo home</a>`) {
		t.Fatalf("expected inline not found block\n%s", resp.HTML)
	}
	if !strings.Contains(resp.HTML, "error404") {
		t.Fatalf("expected error404 body class\n%s", resp.HTML)
	}
}

func TestRenderMediaRoute(t *testing.T) {
	f := newFixture(t)
	resp, err := f.service().Render(context.Background(), "demo", "shop1/media/2024/01/shirt.jpg")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if resp.Kind != preview.RouteMedia || resp.MediaPath != "2024/01/shirt.jpg" || resp.HTML != "" {
		t.Fatalf("unexpected media response %+v", resp)
	}
	if resp.Package.Paths.Dir == "" {
		t.Fatalf("expected package dir for media route")
	}
}

func TestRenderProductPage(t *testing.T) {
	f := newFixture(t)
	repo := catalog.NewMemoryRepository()
	materializer := catalog.NewMaterializer(repo, idmap.NewMemoryStore())
	svc := f.service(
		preview.WithMaterializer(materializer),
		preview.WithProducts(catalog.NewCatalog(repo, nil)),
	)

	resp, err := svc.Render(context.Background(), "demo", "shop1/product/blue-shirt/")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Fatalf("expected 200, got %d\n%s", resp.Status, resp.HTML)
	}
	for _, want := range []string{
		`<title>Blue Shirt | Shop One</title>`,
		`<span class="woocommerce-Price-amount amount">25</span>`,
		`src="/demo/shop1/media/2024/01/shirt.jpg"`,
		`<span class="sku">BS-1</span>`,
		`<p>Soft cotton</p>`,
	} {
		if !strings.Contains(resp.HTML, want) {
			t.Fatalf("expected product page to contain %q\n%s", want, resp.HTML)
		}
	}

	missing, err := svc.Render(context.Background(), "demo", "shop1/product/red-shirt")
	if err != nil {
		t.Fatalf("render missing product: %v", err)
	}
	if missing.Status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown product, got %d", missing.Status)
	}
}

func TestRenderUnknownDemo(t *testing.T) {
	f := newFixture(t)
	_, err := f.service().Render(context.Background(), "demo", "nope/")
	if !errors.Is(err, preview.ErrDemoNotFound) {
		t.Fatalf("expected ErrDemoNotFound, got %v", err)
	}
}

func TestInspect(t *testing.T) {
	f := newFixture(t)
	svc := f.service()
	ctx := context.Background()

	status, err := svc.Inspect(ctx, "demo", "shop1", "/shop/checkout/")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if !status.Known || !status.Resolvable || status.PageSlug != "shop-checkout" {
		t.Fatalf("unexpected status %+v", status)
	}
	if status.PreviewURL != "https://preview.example.com/demo/shop1/shop/checkout/" {
		t.Fatalf("unexpected preview url %q", status.PreviewURL)
	}

	status, err = svc.Inspect(ctx, "demo", "shop1", "missing")
	if err != nil || !status.Known || status.Resolvable {
		t.Fatalf("expected known but unresolvable, got %+v (%v)", status, err)
	}

	status, err = svc.Inspect(ctx, "demo", "unknown", "")
	if err != nil || status.Known {
		t.Fatalf("expected unknown package, got %+v (%v)", status, err)
	}
}

func TestWarm(t *testing.T) {
	f := newFixture(t)
	repo := catalog.NewMemoryRepository()
	svc := f.service(preview.WithMaterializer(catalog.NewMaterializer(repo, idmap.NewMemoryStore())))

	result, err := svc.Warm(context.Background(), "demo", "Shop1")
	if err != nil {
		t.Fatalf("warm: %v", err)
	}
	if result.Report.Items.Created != 1 || result.Report.Attachments.Created != 1 {
		t.Fatalf("unexpected report %+v", result.Report)
	}
	if result.PreviewURL != "https://preview.example.com/demo/shop1/" {
		t.Fatalf("unexpected preview url %q", result.PreviewURL)
	}

	plain, err := f.service().Warm(context.Background(), "demo", "blog")
	if err != nil || plain.Report.DemoSlug != "blog" {
		t.Fatalf("expected empty report without materializer, got %+v (%v)", plain, err)
	}
}

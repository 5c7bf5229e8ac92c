package content_test

import (
	"context"
	"strings"
	"testing"

	"github.com/goliatone/go-showcase/internal/builder"
	"github.com/goliatone/go-showcase/internal/content"
	"github.com/goliatone/go-showcase/internal/linkrewrite"
	"github.com/goliatone/go-showcase/internal/previewctx"
	"github.com/goliatone/go-showcase/internal/shortcode"
	showcasepackages "github.com/goliatone/go-showcase/packages"
	"github.com/goliatone/go-showcase/pkg/testsupport"
)

func newPackage(t *testing.T) (showcasepackages.Package, *testsupport.PackageBuilder) {
	t.Helper()
	fixture := testsupport.NewPackage(t, t.TempDir(), "shop1").
		Descriptor(map[string]any{"title": "Shop"})
	pkg := showcasepackages.Package{
		Slug:  "shop1",
		Title: "Shop",
		Paths: showcasepackages.Paths{Dir: fixture.Dir},
	}
	return pkg, fixture
}

func TestLoaderReadsListWithTolerantKeys(t *testing.T) {
	pkg, fixture := newPackage(t)
	fixture.JSON("pages.json", []any{
		map[string]any{"slug": "Home Page", "title": "Home", "content": "<p>hi</p>"},
		map[string]any{"post_name": "about", "post_title": "About", "post_content": "About us"},
		map[string]any{"name": "contact", "html": "<form></form>"},
		map[string]any{"slug": "  ", "title": "Nameless"},
		"not an object",
	})

	pages, err := content.NewLoader().Load(context.Background(), pkg.Paths.Dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if pages.Len() != 3 {
		t.Fatalf("expected 3 pages, got %d", pages.Len())
	}
	order := []string{"home-page", "about", "contact"}
	for i, page := range pages.Pages() {
		if page.Slug != order[i] {
			t.Fatalf("expected manifest order %v, got %s at %d", order, page.Slug, i)
		}
	}
	about, _ := pages.Get("about")
	if about.Title != "About" || about.Content != "About us" {
		t.Fatalf("unexpected about page %+v", about)
	}
	contact, _ := pages.Get("contact")
	if contact.Title != "contact" || contact.Content != "<form></form>" {
		t.Fatalf("unexpected contact page %+v", contact)
	}
}

func TestLoaderReadsWrappedPagesAndMarkdown(t *testing.T) {
	pkg, fixture := newPackage(t)
	fixture.JSON("pages.json", map[string]any{"pages": []any{
		map[string]any{"slug": "about", "title": "About JSON", "content": "json"},
	}}).
		File("pages/about.md", []byte("---\ntitle: About Markdown\n---\nmarkdown")).
		File("pages/faq.md", []byte("---\ntitle: FAQ\n---\n# Questions"))

	pages, err := content.NewLoader().Load(context.Background(), pkg.Paths.Dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	about, _ := pages.Get("about")
	if about.Title != "About JSON" || about.Source != content.SourceJSON {
		t.Fatalf("expected JSON page to win over markdown, got %+v", about)
	}
	faq, ok := pages.Get("faq")
	if !ok || faq.Source != content.SourceMarkdown || !strings.Contains(faq.Content, "<h1") {
		t.Fatalf("expected rendered markdown page, got %+v", faq)
	}
}

func TestLoaderToleratesMissingAndMalformedManifests(t *testing.T) {
	pkg, fixture := newPackage(t)

	pages, err := content.NewLoader().Load(context.Background(), pkg.Paths.Dir)
	if err != nil || pages.Len() != 0 {
		t.Fatalf("expected empty pages for missing manifest, got %d (%v)", pages.Len(), err)
	}

	fixture.File("pages.json", []byte(`{"pages": [`))
	pages, err = content.NewLoader().Load(context.Background(), pkg.Paths.Dir)
	if err != nil || pages.Len() != 0 {
		t.Fatalf("expected empty pages for malformed manifest, got %d (%v)", pages.Len(), err)
	}
}

func TestLoaderLaterDuplicateReplaces(t *testing.T) {
	pkg, fixture := newPackage(t)
	fixture.JSON("pages.json", []any{
		map[string]any{"slug": "home", "title": "First"},
		map[string]any{"slug": "about", "title": "About"},
		map[string]any{"slug": "home", "title": "Second"},
	})
	pages, err := content.NewLoader(content.WithMarkdown(nil)).Load(context.Background(), pkg.Paths.Dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	all := pages.Pages()
	if len(all) != 2 || all[0].Slug != "home" || all[0].Title != "Second" {
		t.Fatalf("expected replaced page in first position, got %+v", all)
	}
}

func TestAutop(t *testing.T) {
	cases := map[string]string{
		"":                                 "",
		"one":                              "<p>one</p>",
		"one\ntwo":                         "<p>one<br />\ntwo</p>",
		"one\n\n two ":                     "<p>one</p>\n<p>two</p>",
		"<div>block</div>\n\ntext":         "<div>block</div>\n<p>text</p>",
		"<h2>Title</h2>":                   "<h2>Title</h2>",
		"<!-- note -->":                    "<!-- note -->",
		"<a href=\"/x/\">inline</a>":       "<p><a href=\"/x/\">inline</a></p>",
		"line\r\n\r\n<ul><li>a</li></ul>":  "<p>line</p>\n<ul><li>a</li></ul>",
		"<figure><img src=\"a\"></figure>": "<figure><img src=\"a\"></figure>",
	}
	for in, want := range cases {
		if got := content.Autop(in); got != want {
			t.Fatalf("Autop(%q) = %q, want %q", in, got, want)
		}
	}
}

func newShortcodes(t *testing.T) *shortcode.Service {
	t.Helper()
	registry := shortcode.NewRegistry(shortcode.NewValidator())
	if err := shortcode.RegisterBuiltIns(registry, nil); err != nil {
		t.Fatalf("register built-ins: %v", err)
	}
	return shortcode.NewService(registry, shortcode.NewRenderer(registry, shortcode.NewValidator()))
}

func newRenderer(t *testing.T, store builder.Store) *content.Renderer {
	t.Helper()
	return content.NewRenderer(
		content.NewLoader(),
		content.WithShortcodes(newShortcodes(t)),
		content.WithRewriter(linkrewrite.New("demo", "https://preview.example.com", "https://source.example.com")),
		content.WithBuilder(store, builder.NewRenderer(store)),
	)
}

func previewFor(page string) previewctx.Context {
	return previewctx.New("demo", "shop1", "", page, page)
}

func TestRenderPageMissing(t *testing.T) {
	pkg, fixture := newPackage(t)
	fixture.JSON("pages.json", []any{map[string]any{"slug": "home", "content": "x"}})

	page, err := newRenderer(t, builder.NewMemoryStore(nil)).RenderPage(context.Background(), previewFor("nope"), pkg, "nope")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if page.Found || page.Content != "" {
		t.Fatalf("expected not found page, got %+v", page)
	}
}

func TestRenderPageRawContent(t *testing.T) {
	pkg, fixture := newPackage(t)
	fixture.JSON("pages.json", []any{map[string]any{
		"slug":    "home",
		"title":   "Home",
		"content": "Intro text\n\n[button url=\"/cart/\"]Cart[/button]\n\n<a href=\"https://source.example.com/about/\">About</a>",
	}})

	page, err := newRenderer(t, builder.NewMemoryStore(nil)).RenderPage(context.Background(), previewFor("home"), pkg, "home")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !page.Found || page.Builder || page.Fallback || page.Title != "Home" {
		t.Fatalf("unexpected page flags %+v", page)
	}
	for _, want := range []string{
		"<p>Intro text</p>",
		`href="/demo/shop1/cart/"`,
		`<a href="/demo/shop1/about/">About</a>`,
	} {
		if !strings.Contains(page.Content, want) {
			t.Fatalf("expected %q in %s", want, page.Content)
		}
	}
	if strings.Contains(page.Content, "[button") {
		t.Fatalf("expected shortcode to be expanded, got %s", page.Content)
	}
}

func TestRenderPageBuilderLayout(t *testing.T) {
	pkg, fixture := newPackage(t)
	fixture.JSON("pages.json", []any{map[string]any{
		"slug":    "home",
		"title":   "Home",
		"content": "raw content",
		"meta": map[string]any{
			builder.MetaKey: `[{"id":"w1","elType":"widget","widgetType":"heading","settings":{"title":"Built","link":{"url":"/shop/"}}}]`,
		},
	}})

	store := builder.NewMemoryStore(nil)
	page, err := newRenderer(t, store).RenderPage(context.Background(), previewFor("home"), pkg, "home")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !page.Builder || page.Fallback {
		t.Fatalf("expected builder page, got %+v", page)
	}
	if !strings.Contains(page.Content, `<a href="/demo/shop1/shop/">Built</a>`) {
		t.Fatalf("expected rewritten builder markup, got %s", page.Content)
	}
	if strings.Contains(page.Content, "raw content") {
		t.Fatalf("expected raw content to be skipped, got %s", page.Content)
	}
}

func TestRenderPageBuilderFallback(t *testing.T) {
	pkg, fixture := newPackage(t)
	fixture.JSON("pages.json", []any{map[string]any{
		"slug":    "home",
		"content": "raw content",
		"meta":    map[string]any{builder.MetaKey: `{"broken"`},
	}})

	page, err := newRenderer(t, builder.NewMemoryStore(nil)).RenderPage(context.Background(), previewFor("home"), pkg, "home")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if page.Builder || !page.Fallback {
		t.Fatalf("expected fallback flags, got %+v", page)
	}
	if page.Content != "<p>raw content</p>" {
		t.Fatalf("expected raw content, got %q", page.Content)
	}
}

package markdown

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-showcase/pkg/interfaces"
	"github.com/goliatone/go-showcase/pkg/testsupport"
)

func TestParseFrontMatter(t *testing.T) {
	src := []byte("---\ntitle: About Us\nslug: about\norder: 2\nmeta:\n  layout: wide\nhero: true\n---\n# Hello\n")

	fm, body, err := ParseFrontMatter(src)
	if err != nil {
		t.Fatalf("ParseFrontMatter: %v", err)
	}
	if fm.Title != "About Us" || fm.Slug != "about" || fm.Order != 2 {
		t.Fatalf("unexpected frontmatter %+v", fm)
	}
	if fm.Meta["layout"] != "wide" {
		t.Fatalf("expected meta layout, got %#v", fm.Meta)
	}
	if fm.Custom["hero"] != true {
		t.Fatalf("expected custom key, got %#v", fm.Custom)
	}
	if _, ok := fm.Custom["title"]; ok {
		t.Fatalf("reserved keys must not leak into custom: %#v", fm.Custom)
	}
	if !strings.Contains(string(body), "# Hello") {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestParseFrontMatterWithoutHeader(t *testing.T) {
	fm, body, err := ParseFrontMatter([]byte("Just text"))
	if err != nil {
		t.Fatalf("ParseFrontMatter: %v", err)
	}
	if fm.Title != "" || string(body) != "Just text" {
		t.Fatalf("unexpected result %+v %q", fm, body)
	}
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"b-services.md": {Data: []byte("---\ntitle: Services\norder: 1\n---\nWe *build* things.\n")},
		"a-about.md":    {Data: []byte("---\ntitle: About\nslug: About Us\norder: 1\n---\n<div class=\"raw\">kept</div>\n")},
		"draft.md":      {Data: []byte("---\ndraft: true\n---\nhidden\n")},
		"Team Page.md":  {Data: []byte("No frontmatter here.\n")},
		"notes.txt":     {Data: []byte("ignored")},
	}

	pages, err := NewLoader().LoadFS(context.Background(), fsys)
	if err != nil {
		t.Fatalf("LoadFS: %v", err)
	}
	if len(pages) != 3 {
		t.Fatalf("expected 3 pages, got %d: %+v", len(pages), pages)
	}

	// order 0 first, ties keep file name order
	if pages[0].Slug != "team-page" || pages[0].Title != "team-page" {
		t.Fatalf("unexpected first page %+v", pages[0])
	}
	if pages[1].Slug != "about-us" || !strings.Contains(pages[1].HTML, `<div class="raw">kept</div>`) {
		t.Fatalf("unexpected about page %+v", pages[1])
	}
	if pages[2].Slug != "b-services" || !strings.Contains(pages[2].HTML, "<em>build</em>") {
		t.Fatalf("unexpected services page %+v", pages[2])
	}
	if pages[2].Source != "pages/b-services.md" {
		t.Fatalf("unexpected source %q", pages[2].Source)
	}
}

func TestLoadPagesMissingDirectory(t *testing.T) {
	pkg := testsupport.NewPackage(t, t.TempDir(), "shop1")
	pages, err := NewLoader().LoadPages(context.Background(), pkg.Dir)
	if err != nil || len(pages) != 0 {
		t.Fatalf("expected no pages, got %v %v", pages, err)
	}

	pkg.File("pages/contact.md", []byte("---\ntitle: Contact\n---\nMail us.\n"))
	pages, err = NewLoader().LoadPages(context.Background(), pkg.Dir)
	if err != nil || len(pages) != 1 || pages[0].Slug != "contact" {
		t.Fatalf("unexpected pages %+v %v", pages, err)
	}
}

func TestLoadFSHonoursHardWraps(t *testing.T) {
	fsys := fstest.MapFS{
		"poem.md":  {Data: []byte("---\ntitle: Poem\nhard_wraps: true\n---\nline one\nline two\n")},
		"prose.md": {Data: []byte("---\ntitle: Prose\n---\nline one\nline two\n")},
	}
	pages, err := NewLoader().LoadFS(context.Background(), fsys)
	if err != nil {
		t.Fatalf("LoadFS: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	bySlug := map[string]Page{}
	for _, page := range pages {
		bySlug[page.Slug] = page
	}
	if !strings.Contains(bySlug["poem"].HTML, "<br") {
		t.Fatalf("expected hard break in %q", bySlug["poem"].HTML)
	}
	if strings.Contains(bySlug["prose"].HTML, "<br") {
		t.Fatalf("unexpected hard break in %q", bySlug["prose"].HTML)
	}
	if _, ok := bySlug["poem"].Meta["hard_wraps"]; ok {
		t.Fatalf("hard_wraps must not leak into meta")
	}
}

func TestParserExtensions(t *testing.T) {
	html, err := NewParser(interfaces.ParseOptions{}).Parse([]byte("| a |\n|---|\n| 1 |\n\nSee[^1].\n\n[^1]: note\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !strings.Contains(string(html), "<table>") || !strings.Contains(string(html), "footnote") {
		t.Fatalf("expected table and footnote in %q", html)
	}

	safe, err := NewParser(interfaces.ParseOptions{}).ParseWithOptions([]byte("<b>x</b>"), interfaces.ParseOptions{SafeMode: true, Extensions: []string{"nope"}})
	if err != nil {
		t.Fatalf("ParseWithOptions: %v", err)
	}
	if strings.Contains(string(safe), "<b>") {
		t.Fatalf("safe mode must drop raw html, got %q", safe)
	}
}

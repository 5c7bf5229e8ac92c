// Package content turns the pages of a package into rendered markup. Pages
// come from pages.json and optional Markdown files; a page carrying a builder
// layout is rendered through the builder with a raw content fallback.
package content

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/goliatone/go-showcase/internal/logging"
	"github.com/goliatone/go-showcase/internal/manifest"
	"github.com/goliatone/go-showcase/internal/markdown"
	showcasepackages "github.com/goliatone/go-showcase/packages"
	"github.com/goliatone/go-showcase/pkg/interfaces"
)

// PagesFile lists the exported pages of a package.
const PagesFile = "pages.json"

// Page sources.
const (
	SourceJSON     = "pages.json"
	SourceMarkdown = "markdown"
)

// VirtualPage is one page of a package as exported.
type VirtualPage struct {
	Slug    string
	Title   string
	Content string
	Meta    map[string]any
	Source  string
}

// PageMap holds the pages of a package keyed by slug, keeping manifest order.
type PageMap struct {
	order []string
	pages map[string]VirtualPage
}

// NewPageMap builds a map from pages. A later page with the same slug
// replaces the earlier one in place.
func NewPageMap(pages ...VirtualPage) *PageMap {
	m := &PageMap{pages: map[string]VirtualPage{}}
	for _, page := range pages {
		m.put(page, true)
	}
	return m
}

func (m *PageMap) put(page VirtualPage, replace bool) bool {
	if page.Slug == "" {
		return false
	}
	if _, exists := m.pages[page.Slug]; exists {
		if !replace {
			return false
		}
	} else {
		m.order = append(m.order, page.Slug)
	}
	m.pages[page.Slug] = page
	return true
}

// Get returns the page stored under slug.
func (m *PageMap) Get(slug string) (VirtualPage, bool) {
	if m == nil {
		return VirtualPage{}, false
	}
	page, ok := m.pages[slug]
	return page, ok
}

// Pages returns pages in manifest order.
func (m *PageMap) Pages() []VirtualPage {
	if m == nil {
		return nil
	}
	out := make([]VirtualPage, 0, len(m.order))
	for _, slug := range m.order {
		out = append(out, m.pages[slug])
	}
	return out
}

// Len reports the number of pages.
func (m *PageMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.order)
}

// Loader reads the pages of a package.
type Loader struct {
	reader   manifest.Reader
	markdown *markdown.Loader
	logger   interfaces.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithReader sets the manifest reader, typically the package manifest cache.
func WithReader(reader manifest.Reader) LoaderOption {
	return func(l *Loader) {
		l.reader = manifest.Or(reader)
	}
}

// WithMarkdown enables Markdown pages. A nil loader disables them.
func WithMarkdown(loader *markdown.Loader) LoaderOption {
	return func(l *Loader) {
		l.markdown = loader
	}
}

// WithLoaderLogger sets the loader logger.
func WithLoaderLogger(logger interfaces.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader constructs a Loader. Markdown pages are read unless disabled.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		reader: manifest.OS,
		logger: logging.NoOp(),
	}
	l.markdown = markdown.NewLoader()
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Load reads {packageDir}/pages.json and {packageDir}/pages/*.md. A missing
// or malformed manifest yields no JSON pages; only context errors fail.
func (l *Loader) Load(ctx context.Context, packageDir string) (*PageMap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger := logging.WithManifest(l.logger, packageDir, PagesFile)

	pages := NewPageMap()
	var raw json.RawMessage
	switch err := manifest.ReadJSON(l.reader, packageDir, PagesFile, &raw); {
	case err == nil:
		for _, entry := range decodeEntries(raw) {
			pages.put(entry, true)
		}
	case manifest.IsMissing(err):
	default:
		logging.WithError(logger, err).Debug("content.loader.manifest_skipped")
	}

	if l.markdown != nil {
		mdPages, err := l.markdown.LoadPages(ctx, packageDir)
		if err != nil {
			return nil, err
		}
		for _, md := range mdPages {
			page := VirtualPage{
				Slug:    md.Slug,
				Title:   md.Title,
				Content: md.HTML,
				Meta:    md.Meta,
				Source:  SourceMarkdown,
			}
			if !pages.put(page, false) {
				logging.WithFields(logger, map[string]any{"slug": md.Slug}).Debug("content.loader.markdown_shadowed")
			}
		}
	}
	return pages, nil
}

// decodeEntries accepts a list of pages or an object with a pages list.
func decodeEntries(raw json.RawMessage) []VirtualPage {
	var list []any
	if err := json.Unmarshal(raw, &list); err != nil {
		var wrapped struct {
			Pages []any `json:"pages"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil
		}
		list = wrapped.Pages
	}

	out := make([]VirtualPage, 0, len(list))
	for _, item := range list {
		entry := manifest.Map(item)
		if entry == nil {
			continue
		}
		slug := showcasepackages.NormalizeSlug(manifest.FirstString(entry, "slug", "post_name", "name"))
		if slug == "" {
			continue
		}
		title := strings.TrimSpace(manifest.FirstString(entry, "title", "post_title"))
		if title == "" {
			title = slug
		}
		out = append(out, VirtualPage{
			Slug:    slug,
			Title:   title,
			Content: manifest.FirstString(entry, "content", "post_content", "html"),
			Meta:    manifest.Map(entry["meta"]),
			Source:  SourceJSON,
		})
	}
	return out
}

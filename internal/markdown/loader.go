// Package markdown renders the optional Markdown pages a package ships under
// pages/*.md into virtual pages.
package markdown

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goliatone/go-showcase/internal/logging"
	showcasepackages "github.com/goliatone/go-showcase/packages"
	"github.com/goliatone/go-showcase/pkg/interfaces"
)

// PagesDir is the package subdirectory holding Markdown pages.
const PagesDir = "pages"

// Page is one rendered Markdown file.
type Page struct {
	Slug   string
	Title  string
	Order  int
	HTML   string
	Meta   map[string]any
	Source string
}

// Loader discovers and renders Markdown pages.
type Loader struct {
	parser interfaces.MarkdownParser
	logger interfaces.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithParser overrides the Markdown parser.
func WithParser(parser interfaces.MarkdownParser) LoaderOption {
	return func(l *Loader) {
		if parser != nil {
			l.parser = parser
		}
	}
}

// WithLogger sets the loader logger.
func WithLogger(logger interfaces.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader constructs a Loader backed by goldmark.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		parser: NewParser(interfaces.ParseOptions{}),
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// LoadPages renders {packageDir}/pages/*.md. Drafts, unreadable files and
// files whose slug normalizes to "" are skipped. Pages are ordered by their
// order key, then file name. A package without a pages directory has none.
func (l *Loader) LoadPages(ctx context.Context, packageDir string) ([]Page, error) {
	dir := filepath.Join(packageDir, PagesDir)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, nil
	}
	return l.LoadFS(ctx, os.DirFS(dir))
}

// LoadFS renders every *.md file at the root of fsys.
func (l *Loader) LoadFS(ctx context.Context, fsys fs.FS) ([]Page, error) {
	names, err := fs.Glob(fsys, "*.md")
	if err != nil {
		return nil, fmt.Errorf("markdown pages: %w", err)
	}
	sort.Strings(names)

	pages := make([]Page, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, ok := l.loadFile(fsys, name)
		if ok {
			pages = append(pages, page)
		}
	}
	sort.SliceStable(pages, func(i, j int) bool {
		return pages[i].Order < pages[j].Order
	})
	return pages, nil
}

func (l *Loader) loadFile(fsys fs.FS, name string) (Page, bool) {
	logger := logging.WithFields(l.logger, map[string]any{"file": name})

	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		logging.WithError(logger, err).Debug("markdown.loader.read_failed")
		return Page{}, false
	}
	fm, body, err := ParseFrontMatter(data)
	if err != nil {
		logging.WithError(logger, err).Debug("markdown.loader.frontmatter_invalid")
		return Page{}, false
	}
	if fm.Draft {
		return Page{}, false
	}

	stem := strings.TrimSuffix(path.Base(name), path.Ext(name))
	slug := showcasepackages.NormalizeSlug(fm.Slug)
	if slug == "" {
		slug = showcasepackages.NormalizeSlug(stem)
	}
	if slug == "" {
		return Page{}, false
	}

	var html []byte
	if fm.HardWraps {
		html, err = l.parser.ParseWithOptions(body, interfaces.ParseOptions{HardWraps: true})
	} else {
		html, err = l.parser.Parse(body)
	}
	if err != nil {
		logging.WithError(logger, err).Debug("markdown.loader.render_failed")
		return Page{}, false
	}

	title := strings.TrimSpace(fm.Title)
	if title == "" {
		title = slug
	}
	meta := cloneMap(fm.Meta)
	for key, value := range fm.Custom {
		if _, exists := meta[key]; !exists {
			meta[key] = value
		}
	}
	return Page{
		Slug:   slug,
		Title:  title,
		Order:  fm.Order,
		HTML:   string(html),
		Meta:   meta,
		Source: path.Join(PagesDir, name),
	}, true
}

// Package menus rebuilds the navigation of a package from its exported menu
// manifests, falling back to a flat menu of its pages.
package menus

import (
	"context"
	"encoding/json"

	"github.com/goliatone/go-showcase/internal/content"
	"github.com/goliatone/go-showcase/internal/linkrewrite"
	"github.com/goliatone/go-showcase/internal/logging"
	"github.com/goliatone/go-showcase/internal/manifest"
	"github.com/goliatone/go-showcase/internal/previewctx"
	"github.com/goliatone/go-showcase/pkg/interfaces"
)

// Service reconstructs and renders package menus.
type Service interface {
	// BuildTree returns the menu for location, or the page fallback.
	BuildTree(ctx context.Context, pc previewctx.Context, location string) ([]*Node, error)
	// RenderHTML renders a forest as nested menu items.
	RenderHTML(pc previewctx.Context, forest []*Node) string
}

// PageSource loads the pages used by the fallback menu.
type PageSource interface {
	Load(ctx context.Context, packageDir string) (*content.PageMap, error)
}

// ServiceOption configures the menu service.
type ServiceOption func(*service)

// WithReader sets the manifest reader.
func WithReader(reader manifest.Reader) ServiceOption {
	return func(s *service) {
		s.reader = manifest.Or(reader)
	}
}

// WithPages sets the page source for fallback menus.
func WithPages(pages PageSource) ServiceOption {
	return func(s *service) {
		s.pages = pages
	}
}

// WithRewriter sets the rewriter used for absolute and root-relative links.
func WithRewriter(rw *linkrewrite.Rewriter) ServiceOption {
	return func(s *service) {
		s.rewriter = rw
	}
}

// WithFallbackSize caps the page fallback menu.
func WithFallbackSize(size int) ServiceOption {
	return func(s *service) {
		if size > 0 {
			s.fallbackSize = size
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

type service struct {
	reader       manifest.Reader
	pages        PageSource
	rewriter     *linkrewrite.Rewriter
	fallbackSize int
	logger       interfaces.Logger
}

// NewService constructs the menu service.
func NewService(opts ...ServiceOption) Service {
	s := &service{
		reader:       manifest.OS,
		fallbackSize: DefaultFallbackSize,
		logger:       logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *service) BuildTree(ctx context.Context, pc previewctx.Context, location string) ([]*Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !pc.Active || pc.PackageDir == "" {
		return nil, nil
	}
	logger := logging.WithFields(logging.WithPreviewContext(s.logger, pc.DemoSlug, pc.PageSlug, ""), map[string]any{
		"location": location,
	})

	tree, shape := s.loadTree(pc.PackageDir, location)
	if len(tree) > 0 {
		logging.WithFields(logger, map[string]any{"shape": string(shape)}).Debug("menus.service.tree_built")
		return tree, nil
	}

	fallback, err := s.fallback(ctx, pc.PackageDir)
	if err != nil {
		return nil, err
	}
	logging.WithFields(logger, map[string]any{"items": len(fallback)}).Debug("menus.service.page_fallback")
	return fallback, nil
}

func (s *service) loadTree(dir, location string) ([]*Node, Shape) {
	var raw json.RawMessage
	if err := manifest.ReadJSON(s.reader, dir, MenusFile, &raw); err != nil {
		if !manifest.IsMissing(err) {
			logging.WithError(logging.WithManifest(s.logger, dir, MenusFile), err).Debug("menus.service.manifest_skipped")
		}
		return nil, ShapeNone
	}

	var locations map[string]any
	if location != "" {
		if err := manifest.ReadJSON(s.reader, dir, LocationsFile, &locations); err != nil && !manifest.IsMissing(err) {
			logging.WithError(logging.WithManifest(s.logger, dir, LocationsFile), err).Debug("menus.service.manifest_skipped")
		}
	}
	return decodeMenus(raw, location, locations)
}

func (s *service) fallback(ctx context.Context, dir string) ([]*Node, error) {
	if s.pages == nil {
		return nil, nil
	}
	pages, err := s.pages.Load(ctx, dir)
	if err != nil {
		return nil, err
	}
	return PageMenu(pages.Pages(), s.fallbackSize), nil
}

// PageMenu builds a flat menu from the first limit pages.
func PageMenu(pages []content.VirtualPage, limit int) []*Node {
	var out []*Node
	for _, page := range pages {
		if limit > 0 && len(out) >= limit {
			break
		}
		title := page.Title
		if title == "" {
			title = page.Slug
		}
		out = append(out, &Node{Title: title, URL: page.Slug})
	}
	return out
}

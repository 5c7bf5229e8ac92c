package content

import (
	"context"

	"github.com/google/uuid"

	"github.com/goliatone/go-showcase/internal/builder"
	"github.com/goliatone/go-showcase/internal/linkrewrite"
	"github.com/goliatone/go-showcase/internal/logging"
	"github.com/goliatone/go-showcase/internal/manifest"
	"github.com/goliatone/go-showcase/internal/previewctx"
	showcasepackages "github.com/goliatone/go-showcase/packages"
	"github.com/goliatone/go-showcase/pkg/interfaces"
)

// Page is a rendered virtual page.
type Page struct {
	Found   bool
	Title   string
	Content string
	// Builder is set when Content came from a builder layout.
	Builder bool
	// Fallback is set when a builder layout failed and raw content was used.
	Fallback bool
}

// BuilderRenderer renders a stored builder document.
type BuilderRenderer interface {
	Render(ctx context.Context, pc previewctx.Context, id uuid.UUID) builder.Result
}

// Renderer renders virtual pages for the active preview.
type Renderer struct {
	loader     *Loader
	documents  builder.Store
	builder    BuilderRenderer
	shortcodes interfaces.ShortcodeService
	rewriter   *linkrewrite.Rewriter
	logger     interfaces.Logger
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithBuilder enables builder layouts. Both store and renderer are needed.
func WithBuilder(store builder.Store, renderer BuilderRenderer) RendererOption {
	return func(r *Renderer) {
		r.documents = store
		r.builder = renderer
	}
}

// WithShortcodes sets the shortcode pipeline applied to raw content.
func WithShortcodes(svc interfaces.ShortcodeService) RendererOption {
	return func(r *Renderer) {
		r.shortcodes = svc
	}
}

// WithRewriter sets the link rewriter applied to rendered content.
func WithRewriter(rw *linkrewrite.Rewriter) RendererOption {
	return func(r *Renderer) {
		r.rewriter = rw
	}
}

// WithLogger sets the renderer logger.
func WithLogger(logger interfaces.Logger) RendererOption {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRenderer constructs a Renderer reading pages through loader.
func NewRenderer(loader *Loader, opts ...RendererOption) *Renderer {
	if loader == nil {
		loader = NewLoader()
	}
	r := &Renderer{
		loader: loader,
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Loader returns the page loader used by RenderPage.
func (r *Renderer) Loader() *Loader {
	return r.loader
}

// RenderPage loads the pages of pkg and renders pageSlug.
func (r *Renderer) RenderPage(ctx context.Context, pc previewctx.Context, pkg showcasepackages.Package, pageSlug string) (Page, error) {
	pages, err := r.loader.Load(ctx, pkg.Paths.Dir)
	if err != nil {
		return Page{}, err
	}
	return r.Render(ctx, pc, pages, pageSlug)
}

// Render renders pageSlug from already loaded pages.
func (r *Renderer) Render(ctx context.Context, pc previewctx.Context, pages *PageMap, pageSlug string) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	slug := showcasepackages.NormalizeSlug(pageSlug)
	vp, ok := pages.Get(slug)
	if !ok {
		return Page{}, nil
	}

	logger := logging.WithPreviewContext(r.logger, pc.DemoSlug, slug, pc.InnerPath)
	page := Page{Found: true, Title: vp.Title}

	if payload, ok := builderPayload(vp); ok && r.documents != nil && r.builder != nil {
		html, err := r.renderBuilder(ctx, pc, slug, payload, manifest.Map(vp.Meta[builder.SettingsMetaKey]))
		if err == nil {
			page.Builder = true
			page.Content = r.rewrite(pc, html)
			return page, nil
		}
		if ctx.Err() != nil {
			return Page{}, ctx.Err()
		}
		// raw content is rendered below
		logging.WithError(logger, err).Warn("content.renderer.builder_fallback")
		page.Fallback = true
	}

	html, err := r.renderRaw(ctx, pc, vp.Content)
	if err != nil {
		return Page{}, err
	}
	page.Content = r.rewrite(pc, html)
	return page, nil
}

func (r *Renderer) renderBuilder(ctx context.Context, pc previewctx.Context, slug string, payload any, settings map[string]any) (string, error) {
	doc, err := r.documents.Ensure(ctx, pc.DemoSlug, slug, payload, settings)
	if err != nil {
		return "", err
	}
	result := r.builder.Render(ctx, pc, doc.ID)
	if result.Err != nil {
		return "", result.Err
	}
	return result.HTML, nil
}

func (r *Renderer) renderRaw(ctx context.Context, pc previewctx.Context, content string) (string, error) {
	if r.shortcodes != nil {
		processed, err := r.shortcodes.Process(ctx, content, interfaces.ShortcodeProcessOptions{
			DemoSlug:        pc.DemoSlug,
			PreviewBase:     pc.Base,
			EnableWordPress: true,
			Lenient:         true,
		})
		if err != nil {
			return "", err
		}
		content = processed
	}
	return Autop(content), nil
}

func (r *Renderer) rewrite(pc previewctx.Context, html string) string {
	if r.rewriter == nil {
		return html
	}
	return r.rewriter.RewriteHTML(pc, html)
}

// builderPayload returns the layout meta of a page. Empty strings and empty
// lists count as absent.
func builderPayload(vp VirtualPage) (any, bool) {
	raw, ok := vp.Meta[builder.MetaKey]
	if !ok || raw == nil {
		return nil, false
	}
	switch t := raw.(type) {
	case string:
		if t == "" || t == "[]" {
			return nil, false
		}
	case []any:
		if len(t) == 0 {
			return nil, false
		}
	}
	return raw, true
}

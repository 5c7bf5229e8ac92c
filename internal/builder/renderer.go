package builder

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-showcase/internal/logging"
	"github.com/goliatone/go-showcase/internal/manifest"
	"github.com/goliatone/go-showcase/internal/previewctx"
	"github.com/goliatone/go-showcase/pkg/interfaces"
)

// Result is the outcome of rendering a document. A non-nil Err means the
// caller should fall back to the page's raw content.
type Result struct {
	HTML string
	Err  error
}

// WidgetFunc renders the inner markup of one widget.
type WidgetFunc func(rc *RenderContext, el Element) (string, error)

// RenderContext is handed to widget renderers.
type RenderContext struct {
	Context    context.Context
	Preview    previewctx.Context
	Document   *Document
	shortcodes interfaces.ShortcodeService
}

// Shortcodes expands shortcodes in content for the current demo. Failing
// shortcodes keep their markup.
func (rc *RenderContext) Shortcodes(content string) (string, error) {
	if rc.shortcodes == nil || strings.TrimSpace(content) == "" {
		return content, nil
	}
	return rc.shortcodes.Process(rc.Context, content, interfaces.ShortcodeProcessOptions{
		DemoSlug:        rc.Preview.DemoSlug,
		PreviewBase:     rc.Preview.Base,
		EnableWordPress: true,
		Lenient:         true,
	})
}

// Renderer turns stored documents into HTML.
type Renderer struct {
	store      Store
	shortcodes interfaces.ShortcodeService
	widgets    map[string]WidgetFunc
	logger     interfaces.Logger
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithShortcodes enables shortcode expansion in text and shortcode widgets.
func WithShortcodes(svc interfaces.ShortcodeService) RendererOption {
	return func(r *Renderer) {
		r.shortcodes = svc
	}
}

// WithWidget registers or replaces a widget renderer.
func WithWidget(widgetType string, fn WidgetFunc) RendererOption {
	return func(r *Renderer) {
		if fn != nil && widgetType != "" {
			r.widgets[widgetType] = fn
		}
	}
}

// WithRendererLogger sets the renderer logger.
func WithRendererLogger(logger interfaces.Logger) RendererOption {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRenderer constructs a Renderer reading documents from store.
func NewRenderer(store Store, opts ...RendererOption) *Renderer {
	r := &Renderer{
		store:   store,
		widgets: defaultWidgets(),
		logger:  logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Render loads document id and renders its element tree.
func (r *Renderer) Render(ctx context.Context, pc previewctx.Context, id uuid.UUID) Result {
	if r.store == nil {
		return Result{Err: fmt.Errorf("builder renderer has no store")}
	}
	doc, err := r.store.Get(ctx, id)
	if err != nil {
		return Result{Err: err}
	}
	elements, err := ParseElements(doc.Payload)
	if err != nil {
		return Result{Err: err}
	}

	rc := &RenderContext{Context: ctx, Preview: pc, Document: doc, shortcodes: r.shortcodes}
	var b strings.Builder
	fmt.Fprintf(&b, `<div class="elementor elementor-%s" data-elementor-type="wp-page" data-elementor-id="%s">`,
		shortID(doc.ID), doc.ID.String())
	for _, el := range elements {
		if err := r.renderElement(rc, &b, el); err != nil {
			logging.WithError(logging.WithFields(r.logger, map[string]any{
				"document": doc.ID.String(),
				"element":  el.ID,
			}), err).Debug("builder.renderer.element_failed")
			return Result{Err: err}
		}
	}
	b.WriteString(`</div>`)
	return Result{HTML: b.String()}
}

func (r *Renderer) renderElement(rc *RenderContext, b *strings.Builder, el Element) error {
	if err := rc.Context.Err(); err != nil {
		return err
	}
	id := html.EscapeString(el.ID)
	switch el.ElType {
	case "section":
		fmt.Fprintf(b, `<section class="elementor-section elementor-element elementor-element-%s%s" data-id="%s" data-element_type="section"><div class="elementor-container">`,
			id, extraClasses(el), id)
		if err := r.renderChildren(rc, b, el); err != nil {
			return err
		}
		b.WriteString(`</div></section>`)
	case "container":
		fmt.Fprintf(b, `<div class="e-con elementor-element elementor-element-%s%s" data-id="%s" data-element_type="container">`,
			id, extraClasses(el), id)
		if err := r.renderChildren(rc, b, el); err != nil {
			return err
		}
		b.WriteString(`</div>`)
	case "column":
		fmt.Fprintf(b, `<div class="elementor-column elementor-element elementor-element-%s%s" data-id="%s" data-element_type="column"><div class="elementor-widget-wrap">`,
			id, extraClasses(el), id)
		if err := r.renderChildren(rc, b, el); err != nil {
			return err
		}
		b.WriteString(`</div></div>`)
	case "widget":
		widgetType := html.EscapeString(el.WidgetType)
		fmt.Fprintf(b, `<div class="elementor-widget elementor-widget-%s elementor-element elementor-element-%s%s" data-id="%s" data-element_type="widget" data-widget_type="%s.default"><div class="elementor-widget-container">`,
			widgetType, id, extraClasses(el), id, widgetType)
		if fn, ok := r.widgets[el.WidgetType]; ok {
			inner, err := fn(rc, el)
			if err != nil {
				return fmt.Errorf("widget %s (%s): %w", el.WidgetType, el.ID, err)
			}
			b.WriteString(inner)
		}
		b.WriteString(`</div></div>`)
	default:
		// unknown element types keep their children
		return r.renderChildren(rc, b, el)
	}
	return nil
}

func (r *Renderer) renderChildren(rc *RenderContext, b *strings.Builder, el Element) error {
	for _, child := range el.Elements {
		if err := r.renderElement(rc, b, child); err != nil {
			return err
		}
	}
	return nil
}

func extraClasses(el Element) string {
	classes := strings.Fields(manifest.String(el.Settings["css_classes"]))
	if len(classes) == 0 {
		return ""
	}
	return " " + html.EscapeString(strings.Join(classes, " "))
}

func shortID(id uuid.UUID) string {
	return strings.ReplaceAll(id.String(), "-", "")[:8]
}

package shortcode

import (
	"context"
	"fmt"
	"html/template"
	"strings"
	"sync"

	"github.com/goliatone/go-showcase/pkg/interfaces"
)

// Renderer runs one shortcode invocation: attribute checks, parameter
// binding, the definition's handler or template, then output sanitising.
type Renderer struct {
	registry  interfaces.ShortcodeRegistry
	validator *Validator
	sanitizer interfaces.ShortcodeSanitizer

	// compiled templates keyed by canonical name and source
	templates sync.Map
}

type RendererOption func(*Renderer)

// WithRendererSanitizer replaces the default output sanitizer.
func WithRendererSanitizer(s interfaces.ShortcodeSanitizer) RendererOption {
	return func(r *Renderer) {
		r.sanitizer = s
	}
}

func NewRenderer(registry interfaces.ShortcodeRegistry, validator *Validator, opts ...RendererOption) *Renderer {
	if validator == nil {
		validator = NewValidator()
	}
	r := &Renderer{registry: registry, validator: validator, sanitizer: NewSanitizer()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render resolves shortcode, aliases included, and returns its sanitised
// output. The call context's sanitizer wins over the renderer's.
func (r *Renderer) Render(ctx interfaces.ShortcodeContext, shortcode string, params map[string]any, inner string) (template.HTML, error) {
	if r.registry == nil {
		return "", ErrNotInitialised
	}
	def, ok := r.registry.Get(shortcode)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownShortcode, shortcode)
	}
	if ctx.Context == nil {
		ctx.Context = context.Background()
	}
	sanitizer := ctx.Sanitizer
	if sanitizer == nil {
		sanitizer = r.sanitizer
	}

	if sanitizer != nil {
		if err := sanitizer.ValidateAttributes(params); err != nil {
			return "", err
		}
	}
	bound, err := r.validator.CoerceParams(def, params)
	if err != nil {
		return "", err
	}
	if !def.AllowInner {
		inner = ""
	}

	output, err := r.execute(ctx, def, bound, inner)
	if err != nil {
		return "", err
	}
	if sanitizer != nil {
		if output, err = sanitizer.Sanitize(output); err != nil {
			return "", err
		}
	}
	return template.HTML(output), nil
}

func (r *Renderer) execute(ctx interfaces.ShortcodeContext, def interfaces.ShortcodeDefinition, params map[string]any, inner string) (string, error) {
	if def.Handler != nil {
		out, err := def.Handler(ctx, params, inner)
		return string(out), err
	}
	if def.Template == "" {
		return "", fmt.Errorf("%w: %s has no handler or template", ErrInvalidDefinition, def.Name)
	}

	tmpl, err := r.compile(def)
	if err != nil {
		return "", err
	}
	data := make(map[string]any, len(params)+1)
	for key, value := range params {
		data[key] = value
	}
	// inner is package content, already trusted
	data["Inner"] = template.HTML(inner)

	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("shortcode %s: %w", def.Name, err)
	}
	return buf.String(), nil
}

// compile parses a definition template once. A definition re-registered
// with another template gets a new cache entry.
func (r *Renderer) compile(def interfaces.ShortcodeDefinition) (*template.Template, error) {
	key := canonicalName(def.Name) + "\x00" + def.Template
	if cached, ok := r.templates.Load(key); ok {
		return cached.(*template.Template), nil
	}
	tmpl, err := template.New(canonicalName(def.Name)).Parse(def.Template)
	if err != nil {
		return nil, fmt.Errorf("%w: %s template: %v", ErrInvalidDefinition, def.Name, err)
	}
	actual, _ := r.templates.LoadOrStore(key, tmpl)
	return actual.(*template.Template), nil
}

var _ interfaces.ShortcodeRenderer = (*Renderer)(nil)

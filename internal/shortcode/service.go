package shortcode

import (
	"context"
	"html/template"
	"strconv"
	"strings"

	"github.com/goliatone/go-showcase/internal/logging"
	parserpkg "github.com/goliatone/go-showcase/internal/shortcode/parser"
	"github.com/goliatone/go-showcase/pkg/interfaces"
)

// Service orchestrates shortcode parsing and rendering for arbitrary content.
type Service struct {
	registry         interfaces.ShortcodeRegistry
	renderer         interfaces.ShortcodeRenderer
	parser           interfaces.ShortcodeParser
	wordpress        interfaces.ShortcodeParser
	defaultSanitizer interfaces.ShortcodeSanitizer
	logger           interfaces.Logger
	metrics          interfaces.ShortcodeMetrics
	wordpressEnabled bool
}

// ServiceOption customises service behaviour.
type ServiceOption func(*Service)

// WithWordPressSyntax toggles the [name attr="x"] syntax for every call.
func WithWordPressSyntax(enabled bool) ServiceOption {
	return func(s *Service) {
		s.wordpressEnabled = enabled
	}
}

// WithLogger attaches a logger used for structured diagnostics.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics wires the metrics recorder used for telemetry.
func WithMetrics(metrics interfaces.ShortcodeMetrics) ServiceOption {
	return func(s *Service) {
		if metrics != nil {
			s.metrics = metrics
		}
	}
}

// WithParser overrides the Hugo-style parser.
func WithParser(parser interfaces.ShortcodeParser) ServiceOption {
	return func(s *Service) {
		if parser != nil {
			s.parser = parser
		}
	}
}

// NewService constructs a shortcode service using the supplied registry and
// renderer. The WordPress parser only recognises registered names.
func NewService(registry interfaces.ShortcodeRegistry, renderer interfaces.ShortcodeRenderer, opts ...ServiceOption) *Service {
	service := &Service{
		registry:         registry,
		renderer:         renderer,
		parser:           parserpkg.NewHugoParser(),
		defaultSanitizer: NewSanitizer(),
		logger:           logging.NoOp(),
		metrics:          NoOpMetrics(),
	}
	var known func(string) bool
	if registry != nil {
		known = func(name string) bool {
			_, ok := registry.Get(name)
			return ok
		}
	}
	service.wordpress = parserpkg.NewWordPressParser(known)

	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Process renders the shortcodes found within content. Nested shortcodes are
// rendered first and their output becomes part of the enclosing shortcode's
// inner content. In lenient mode a shortcode that fails keeps its original
// markup and the pass continues.
func (s *Service) Process(ctx context.Context, content string, opts interfaces.ShortcodeProcessOptions) (string, error) {
	if strings.TrimSpace(content) == "" {
		return content, nil
	}
	if s.renderer == nil || s.parser == nil {
		return "", ErrNotInitialised
	}
	if ctx == nil {
		ctx = context.Background()
	}

	logger := logging.WithFields(s.baseLogger(ctx), map[string]any{
		"operation": "shortcode.process",
		"demo":      opts.DemoSlug,
	})

	parser := s.parser
	if (s.wordpressEnabled || opts.EnableWordPress) && s.wordpress != nil {
		parser = s.wordpress
	}

	transformed, parsed, err := parser.Extract(content)
	if err != nil {
		logging.WithError(logger, err).Error("shortcode.service.parse_failed")
		if opts.Lenient {
			return content, nil
		}
		return "", err
	}
	if len(parsed) == 0 {
		return transformed, nil
	}

	shortcodeCtx := interfaces.ShortcodeContext{
		Context:     ctx,
		DemoSlug:    opts.DemoSlug,
		PreviewBase: opts.PreviewBase,
		Sanitizer:   opts.Sanitizer,
	}
	if shortcodeCtx.Sanitizer == nil {
		shortcodeCtx.Sanitizer = s.defaultSanitizer
	}

	rendered := make([]string, len(parsed))
	for idx, sc := range parsed {
		inner := expandPlaceholders(sc.Inner, rendered)

		html, elapsed, err := timed(s.metrics, sc.Name, func() (template.HTML, error) {
			return s.renderer.Render(shortcodeCtx, sc.Name, sc.Params, inner)
		})

		entryFields := map[string]any{
			"shortcode":   sc.Name,
			"index":       idx,
			"duration_ms": elapsed.Milliseconds(),
		}
		if err != nil {
			entryFields["error"] = err
			if opts.Lenient {
				logging.WithFields(logger, entryFields).Warn("shortcode.service.render_skipped")
				rendered[idx] = sc.Raw
				continue
			}
			logging.WithFields(logger, entryFields).Error("shortcode.service.render_failed")
			return "", err
		}
		logging.WithFields(logger, entryFields).Debug("shortcode.service.render_succeeded")
		rendered[idx] = string(html)
	}

	logging.WithFields(logger, map[string]any{
		"shortcodes": len(parsed),
	}).Debug("shortcode.service.process_completed")
	return expandPlaceholders(transformed, rendered), nil
}

// Render executes a single shortcode definition and returns the HTML output.
func (s *Service) Render(ctx interfaces.ShortcodeContext, shortcode string, params map[string]any, inner string) (template.HTML, error) {
	if s.renderer == nil {
		return "", ErrNotInitialised
	}
	if ctx.Context == nil {
		ctx.Context = context.Background()
	}
	if ctx.Sanitizer == nil {
		ctx.Sanitizer = s.defaultSanitizer
	}

	logger := logging.WithFields(s.baseLogger(ctx.Context), map[string]any{
		"operation": "shortcode.render",
		"shortcode": shortcode,
	})

	result, elapsed, err := timed(s.metrics, shortcode, func() (template.HTML, error) {
		return s.renderer.Render(ctx, shortcode, params, inner)
	})

	fields := map[string]any{
		"duration_ms": elapsed.Milliseconds(),
	}
	if err != nil {
		fields["error"] = err
		logging.WithFields(logger, fields).Error("shortcode.service.render_failed")
		return "", err
	}
	logging.WithFields(logger, fields).Debug("shortcode.service.render_succeeded")

	return result, nil
}

var _ interfaces.ShortcodeService = (*Service)(nil)

func (s *Service) baseLogger(ctx context.Context) interfaces.Logger {
	logger := s.logger
	if logger == nil {
		logger = logging.NoOp()
	}
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	return logger
}

func expandPlaceholders(content string, rendered []string) string {
	if !strings.Contains(content, "<!-- shortcode:") {
		return content
	}
	return parserpkg.PlaceholderPattern.ReplaceAllStringFunc(content, func(marker string) string {
		m := parserpkg.PlaceholderPattern.FindStringSubmatch(marker)
		idx, err := strconv.Atoi(m[1])
		if err != nil || idx < 0 || idx >= len(rendered) {
			return marker
		}
		return rendered[idx]
	})
}

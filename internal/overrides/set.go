// Package overrides layers a package's exported site settings over the
// values of the shared rendering host while a preview is active.
package overrides

import (
	"html"
	"maps"
	"strings"

	"github.com/goliatone/go-showcase/internal/previewctx"
)

// Provider returns the override for the named setting given the host value.
// ok is false when the provider does not own name; the returned value is then
// base unchanged.
type Provider func(pc previewctx.Context, name string, base any) (value any, ok bool)

const (
	themeModsOption = "theme_mods"
	regionsOption   = "sidebars_widgets"
)

// Set is the resolved override data of one package. It is immutable after
// Load and may be shared between requests.
type Set struct {
	PackageDir string

	ThemeMods  map[string]any
	Stylesheet string
	CustomCSS  string

	Regions       map[string]any
	WidgetOptions map[string]any

	BuilderOptions    map[string]any
	BuilderKitOptions map[string]any

	CompiledCSS string

	hostStylesheet string
}

// Empty reports whether the package shipped no overrides at all.
func (s *Set) Empty() bool {
	if s == nil {
		return true
	}
	return len(s.ThemeMods) == 0 && s.CustomCSS == "" && len(s.Regions) == 0 &&
		len(s.WidgetOptions) == 0 && len(s.BuilderOptions) == 0 &&
		len(s.BuilderKitOptions) == 0 && s.CompiledCSS == ""
}

// ThemeModNames lists the option names theme mods answer to: the generic
// name plus one per known stylesheet.
func (s *Set) ThemeModNames() []string {
	names := []string{themeModsOption}
	seen := map[string]bool{}
	for _, sheet := range []string{s.Stylesheet, s.hostStylesheet} {
		sheet = SanitizeName(sheet)
		if sheet == "" || seen[sheet] {
			continue
		}
		seen[sheet] = true
		names = append(names, themeModsOption+"_"+sheet)
	}
	return names
}

// Providers returns the providers in resolution order: theme mods, region
// assignments, widget options, builder options, builder kit options.
func (s *Set) Providers() []Provider {
	if s == nil {
		return nil
	}
	var out []Provider
	if len(s.ThemeMods) > 0 {
		out = append(out, s.themeModsProvider())
	}
	if len(s.Regions) > 0 {
		out = append(out, s.regionsProvider())
	}
	for _, options := range []map[string]any{s.WidgetOptions, s.BuilderOptions, s.BuilderKitOptions} {
		if len(options) > 0 {
			out = append(out, optionsProvider(options))
		}
	}
	return out
}

// Resolve runs name through every provider, feeding each result into the
// next one.
func (s *Set) Resolve(pc previewctx.Context, name string, base any) any {
	value := base
	for _, provider := range s.Providers() {
		if next, ok := provider(pc, name, value); ok {
			value = next
		}
	}
	return value
}

// ThemeMod returns a single resolved theme modification.
func (s *Set) ThemeMod(pc previewctx.Context, key string) (any, bool) {
	mods, _ := s.Resolve(pc, themeModsOption, nil).(map[string]any)
	v, ok := mods[key]
	return v, ok
}

// HeadMarkup is injected into the document head: a debug marker, the
// custom CSS and the compiled builder CSS.
func (s *Set) HeadMarkup(pc previewctx.Context) string {
	if !pc.Active || pc.DemoSlug == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString(`<meta name="showcase-demo" content="` + html.EscapeString(pc.DemoSlug) + `">` + "\n")
	if s == nil {
		return b.String()
	}
	if s.CustomCSS != "" {
		b.WriteString("<style id=\"showcase-custom-css\">\n" + escapeStyle(s.CustomCSS) + "\n</style>\n")
	}
	if s.CompiledCSS != "" {
		b.WriteString("<style id=\"showcase-compiled-css\">\n" + escapeStyle(s.CompiledCSS) + "\n</style>\n")
	}
	return b.String()
}

func (s *Set) themeModsProvider() Provider {
	names := map[string]bool{}
	for _, name := range s.ThemeModNames() {
		names[name] = true
	}
	mods := s.ThemeMods
	return func(pc previewctx.Context, name string, base any) (any, bool) {
		if !pc.Active || !names[SanitizeName(name)] {
			return base, false
		}
		return mergeMap(base, mods), true
	}
}

func (s *Set) regionsProvider() Provider {
	regions := s.Regions
	return func(pc previewctx.Context, name string, base any) (any, bool) {
		if !pc.Active || SanitizeName(name) != regionsOption {
			return base, false
		}
		return mergeMap(base, regions), true
	}
}

func optionsProvider(options map[string]any) Provider {
	return func(pc previewctx.Context, name string, base any) (any, bool) {
		if !pc.Active {
			return base, false
		}
		v, ok := options[SanitizeName(name)]
		if !ok {
			return base, false
		}
		return v, true
	}
}

// mergeMap replaces keys of base with those of over. A non-map base is
// treated as empty.
func mergeMap(base any, over map[string]any) map[string]any {
	src, _ := base.(map[string]any)
	out := make(map[string]any, len(src)+len(over))
	maps.Copy(out, src)
	maps.Copy(out, over)
	return out
}

// SanitizeName lowercases name and drops everything outside [a-z0-9_-].
func SanitizeName(name string) string {
	name = strings.ToLower(name)
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func sanitizeKeys(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		if clean := SanitizeName(key); clean != "" {
			out[clean] = value
		}
	}
	return out
}

func escapeStyle(css string) string {
	lower := strings.ToLower(css)
	if !strings.Contains(lower, "</style") {
		return css
	}
	var b strings.Builder
	for {
		idx := strings.Index(lower, "</style")
		if idx < 0 {
			b.WriteString(css)
			return b.String()
		}
		b.WriteString(css[:idx])
		b.WriteString(`<\/`)
		css, lower = css[idx+2:], lower[idx+2:]
	}
}

package overrides

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-showcase/internal/logging"
	"github.com/goliatone/go-showcase/internal/manifest"
	"github.com/goliatone/go-showcase/pkg/interfaces"
)

const (
	themeModsFile      = "theme_mods.json"
	widgetsFile        = "widgets.json"
	builderOptionsFile = "elementor_options.json"
	builderKitFile     = "elementor_kit.json"
	compiledCSSFile    = "elementor_css.zip"
)

// Injector loads override sets from package directories.
type Injector struct {
	reader         manifest.Reader
	logger         interfaces.Logger
	hostStylesheet string
}

// Option configures an Injector.
type Option func(*Injector)

// WithLogger sets the injector logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(i *Injector) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithReader reads manifests through r, typically the package manifest cache.
func WithReader(r manifest.Reader) Option {
	return func(i *Injector) {
		i.reader = manifest.Or(r)
	}
}

// WithHostStylesheet names the stylesheet of the rendering host so theme
// mods also answer to theme_mods_{host}.
func WithHostStylesheet(name string) Option {
	return func(i *Injector) {
		i.hostStylesheet = strings.TrimSpace(name)
	}
}

// NewInjector constructs an Injector.
func NewInjector(opts ...Option) *Injector {
	injector := &Injector{
		reader: manifest.OS,
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(injector)
		}
	}
	return injector
}

// Load reads every override manifest of packageDir. Each file is optional;
// a missing or malformed file leaves its part of the set empty.
func (i *Injector) Load(ctx context.Context, packageDir string) *Set {
	set := &Set{PackageDir: packageDir, hostStylesheet: i.hostStylesheet}
	if packageDir == "" {
		return set
	}

	var themeMods map[string]any
	if i.read(packageDir, themeModsFile, &themeMods) {
		set.ThemeMods = manifest.Map(themeMods["theme_mods"])
		set.Stylesheet = manifest.String(themeMods["stylesheet"])
		if css, ok := themeMods["wp_css_custom"].(string); ok {
			set.CustomCSS = css
		}
	}

	var widgets map[string]any
	if i.read(packageDir, widgetsFile, &widgets) {
		set.Regions = manifest.Map(widgets["sidebars_widgets"])
		set.WidgetOptions = sanitizeKeys(manifest.Map(widgets["widgets"]))
	}

	var builderOptions map[string]any
	if i.read(packageDir, builderOptionsFile, &builderOptions) {
		set.BuilderOptions = sanitizeKeys(builderOptions)
	}

	var kit map[string]any
	if i.read(packageDir, builderKitFile, &kit) {
		set.BuilderKitOptions = sanitizeKeys(manifest.Map(kit["options"]))
	}

	if ctx.Err() == nil {
		css, err := readCompiledCSS(filepath.Join(packageDir, compiledCSSFile))
		if err != nil && !manifest.IsMissing(err) {
			logging.WithManifest(i.logger, packageDir, compiledCSSFile).Debug("overrides.injector.manifest_skipped", "error", err)
		}
		set.CompiledCSS = css
	}
	return set
}

func (i *Injector) read(packageDir, name string, v any) bool {
	err := manifest.ReadJSON(i.reader, packageDir, name, v)
	if err == nil {
		return true
	}
	if !manifest.IsMissing(err) {
		logging.WithManifest(i.logger, packageDir, name).Debug("overrides.injector.manifest_skipped", "error", err)
	}
	return false
}

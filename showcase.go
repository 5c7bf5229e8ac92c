package showcase

import (
	"context"
	"net/http"

	"github.com/goliatone/go-showcase/internal/catalog"
	"github.com/goliatone/go-showcase/internal/di"
	"github.com/goliatone/go-showcase/internal/packages"
	"github.com/goliatone/go-showcase/internal/preview"
	"github.com/goliatone/go-showcase/internal/validation"
	"github.com/goliatone/go-showcase/pkg/interfaces"
)

// Package exports the package descriptor.
type Package = packages.Package

// PreviewStatus exports the status reported for a package path.
type PreviewStatus = preview.Status

// WarmResult exports the outcome of a catalog warm-up.
type WarmResult = preview.WarmResult

// ValidationIssue exports a single manifest schema failure.
type ValidationIssue = validation.ValidationIssue

// CatalogReport exports the materialization report of one package.
type CatalogReport = catalog.Report

// Module is the top level preview runtime façade.
type Module struct {
	container *di.Container
	validator *validation.Validator
}

// New constructs a module using the provided configuration and optional DI overrides.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container, validator: validation.NewValidator()}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Config returns the validated configuration the module was built with.
func (m *Module) Config() Config {
	return m.container.Config
}

// Logger returns the root module logger.
func (m *Module) Logger() interfaces.Logger {
	return m.container.Logger()
}

// Handler returns the HTTP handler serving previews, the package API and
// the operational routes.
func (m *Module) Handler() http.Handler {
	return m.container.Server().Handler()
}

// Run serves HTTP until ctx is cancelled. When manifest caching and watching
// are both enabled the packages directory is watched for the lifetime of the
// server.
func (m *Module) Run(ctx context.Context) error {
	if m.container.Config.Packages.Watch {
		watcher, err := m.container.Watcher()
		if err != nil {
			return err
		}
		if watcher != nil {
			if err := watcher.Start(ctx); err != nil {
				return err
			}
			defer watcher.Close()
		}
	}
	return m.container.Server().Run(ctx)
}

// Close releases the resources held by the module.
func (m *Module) Close() error {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Close()
}

// Packages lists every package found in the packages directory.
func (m *Module) Packages(ctx context.Context) ([]Package, error) {
	return m.container.Packages().List(ctx)
}

// Package returns the package with the given slug.
func (m *Module) Package(ctx context.Context, slug string) (Package, error) {
	return m.container.Packages().Get(ctx, slug)
}

// Render renders inner under the demo slug and returns the status code and
// document. Media paths are reported as an empty document.
func (m *Module) Render(ctx context.Context, slug, inner string) (int, string, error) {
	resp, err := m.container.Preview().Render(ctx, m.container.Config.Preview.Base, slug+"/"+inner)
	if err != nil {
		return 0, "", err
	}
	return resp.Status, resp.HTML, nil
}

// Status reports whether inner can be previewed for slug.
func (m *Module) Status(ctx context.Context, slug, inner string) (PreviewStatus, error) {
	return m.container.Preview().Inspect(ctx, m.container.Config.Preview.Base, slug, inner)
}

// Warm materializes the catalog of slug.
func (m *Module) Warm(ctx context.Context, slug string) (WarmResult, error) {
	return m.container.Preview().Warm(ctx, m.container.Config.Preview.Base, slug)
}

// Validate checks the manifests of slug against the embedded schemas.
func (m *Module) Validate(ctx context.Context, slug string) ([]ValidationIssue, error) {
	pkg, err := m.Package(ctx, slug)
	if err != nil {
		return nil, err
	}
	return m.validator.ValidatePackage(pkg.Paths.Dir)
}

// Shortcodes returns the configured shortcode service.
func (m *Module) Shortcodes() interfaces.ShortcodeService {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.ShortcodeService()
}

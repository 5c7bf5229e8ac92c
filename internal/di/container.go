package di

import (
	"context"
	"strings"
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-showcase/internal/builder"
	"github.com/goliatone/go-showcase/internal/catalog"
	"github.com/goliatone/go-showcase/internal/content"
	showcasehttp "github.com/goliatone/go-showcase/internal/http"
	"github.com/goliatone/go-showcase/internal/idmap"
	"github.com/goliatone/go-showcase/internal/linkrewrite"
	"github.com/goliatone/go-showcase/internal/logging"
	"github.com/goliatone/go-showcase/internal/logging/gologger"
	"github.com/goliatone/go-showcase/internal/markdown"
	"github.com/goliatone/go-showcase/internal/media"
	"github.com/goliatone/go-showcase/internal/menus"
	"github.com/goliatone/go-showcase/internal/metrics"
	"github.com/goliatone/go-showcase/internal/overrides"
	"github.com/goliatone/go-showcase/internal/packages"
	"github.com/goliatone/go-showcase/internal/preview"
	"github.com/goliatone/go-showcase/internal/runtimeconfig"
	"github.com/goliatone/go-showcase/internal/shortcode"
	"github.com/goliatone/go-showcase/internal/storage"
	"github.com/goliatone/go-showcase/pkg/interfaces"
)

// Container wires the preview server. Every collaborator is built once in
// NewContainer and shared by all requests.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	logger         interfaces.Logger

	bunDB         *bun.DB
	ownsDB        bool
	cacheTTL      time.Duration
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	manifestCache *packages.ManifestCache
	packages      *packages.FileRepository
	metrics       *metrics.Recorder
	rewriter      *linkrewrite.Rewriter

	ids          idmap.Store
	documents    builder.Store
	catalogRepo  catalog.Repository
	catalog      *catalog.Catalog
	materializer *catalog.Materializer

	shortcodes interfaces.ShortcodeService
	pageLoader *content.Loader
	content    *content.Renderer
	menus      menus.Service
	injector   *overrides.Injector
	media      *media.Server
	preview    *preview.Service
	server     *showcasehttp.Server
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the provider built from Config.Logging.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithBunDB supplies the database instead of opening Config.Storage. The
// caller keeps ownership.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithCache overrides the repository cache.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithMetricsRecorder overrides the recorder built from Config.Metrics.
func WithMetricsRecorder(recorder *metrics.Recorder) Option {
	return func(c *Container) {
		c.metrics = recorder
	}
}

// NewContainer validates cfg and builds every collaborator.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{Config: cfg, cacheTTL: cfg.Cache.TTL}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLogger(); err != nil {
		return nil, err
	}
	c.configureCacheDefaults()
	if err := c.configureStorage(); err != nil {
		return nil, err
	}
	c.configureMetrics()
	c.configurePackages()
	c.configureRecords()
	c.configureRendering()
	c.configurePreview()
	return c, nil
}

func (c *Container) configureLogger() error {
	if c.loggerProvider != nil {
		c.logger = logging.ModuleLogger(c.loggerProvider, "")
		return nil
	}
	logCfg := c.Config.Logging
	if strings.EqualFold(strings.TrimSpace(logCfg.Provider), "noop") {
		c.logger = logging.NoOp()
		return nil
	}
	provider, err := gologger.NewProvider(gologger.Config{
		Level:     logCfg.Level,
		Format:    logCfg.Format,
		AddSource: logCfg.AddSource,
		Focus:     logCfg.Focus,
	})
	if err != nil {
		return err
	}
	c.loggerProvider = provider
	c.logger = logging.ModuleLogger(provider, "")
	return nil
}

func (c *Container) configureCacheDefaults() {
	if !c.Config.Cache.Enabled {
		return
	}

	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if c.cacheTTL > 0 {
			cfg.TTL = c.cacheTTL
		}
		service, err := repocache.NewCacheService(cfg)
		if err == nil {
			c.cacheService = service
		} else {
			logging.WithError(c.logger, err).Warn("di.container.cache_disabled")
		}
	}

	if c.cacheService != nil && c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
}

// configureStorage opens the configured database and creates the record
// tables. An empty driver keeps every record in memory.
func (c *Container) configureStorage() error {
	if c.bunDB == nil {
		if strings.TrimSpace(c.Config.Storage.Driver) == "" {
			return nil
		}
		db, err := storage.Open(c.Config.Storage, storage.WithLogger(logging.ModuleLogger(c.loggerProvider, "showcase.storage")))
		if err != nil {
			return err
		}
		c.bunDB = db
		c.ownsDB = true
	}

	tables := append(idmap.Tables(), builder.Tables()...)
	tables = append(tables, catalog.Tables()...)
	if err := storage.Migrate(context.Background(), c.bunDB, tables...); err != nil {
		_ = c.Close()
		return err
	}
	return nil
}

func (c *Container) configureMetrics() {
	if c.metrics != nil || !c.Config.Metrics.Enabled {
		return
	}
	c.metrics = metrics.NewRecorder(nil, c.Config.Metrics.Namespace)
}

func (c *Container) configurePackages() {
	opts := []packages.FileRepositoryOption{
		packages.WithLogger(logging.PackagesLogger(c.loggerProvider)),
		packages.WithPublicBaseURL(c.Config.Packages.PublicBaseURL),
	}
	if c.Config.Packages.CacheManifests {
		c.manifestCache = packages.NewManifestCache()
		opts = append(opts, packages.WithManifestCache(c.manifestCache))
	}
	c.packages = packages.NewFileRepository(c.Config.Packages.BaseDir, opts...)

	previewCfg := c.Config.Preview
	c.rewriter = linkrewrite.New(previewCfg.Base, previewCfg.Host, previewCfg.SourceBaseURL)
}

// configureRecords selects bun or memory backends for the ephemeral records.
func (c *Container) configureRecords() {
	catalogLogger := logging.CatalogLogger(c.loggerProvider)
	cached := c.cacheService != nil && c.keySerializer != nil

	switch {
	case c.bunDB != nil && cached:
		c.ids = idmap.NewBunStoreWithCache(c.bunDB, c.cacheService, c.keySerializer)
		c.documents = builder.NewBunStoreWithCache(c.bunDB, c.ids, c.cacheService, c.keySerializer)
		c.catalogRepo = catalog.NewBunRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
	case c.bunDB != nil:
		c.ids = idmap.NewBunStore(c.bunDB)
		c.documents = builder.NewBunStore(c.bunDB, c.ids)
		c.catalogRepo = catalog.NewBunRepository(c.bunDB)
	default:
		c.ids = idmap.NewMemoryStore()
		c.documents = builder.NewMemoryStore(c.ids)
		c.catalogRepo = catalog.NewMemoryRepository()
	}

	c.catalog = catalog.NewCatalog(c.catalogRepo, catalogLogger)
	if c.Config.Catalog.Enabled {
		c.materializer = catalog.NewMaterializer(c.catalogRepo, c.ids,
			catalog.WithReader(c.packages.Reader()),
			catalog.WithPublicURL(c.Config.Preview.Host),
			catalog.WithLogger(catalogLogger),
			catalog.WithMetrics(c.metrics),
		)
	}
}

func (c *Container) configureRendering() {
	contentLogger := logging.ContentLogger(c.loggerProvider)
	reader := c.packages.Reader()

	registry := shortcode.NewRegistry(shortcode.NewValidator())
	if err := shortcode.RegisterBuiltIns(registry, nil, shortcode.WithCatalog(c.catalog)); err != nil {
		logging.WithError(contentLogger, err).Warn("di.container.shortcodes_partial")
	}
	shortcodeOpts := []shortcode.ServiceOption{
		shortcode.WithWordPressSyntax(true),
		shortcode.WithLogger(logging.ModuleLogger(c.loggerProvider, "showcase.shortcode")),
	}
	if c.metrics != nil {
		shortcodeOpts = append(shortcodeOpts, shortcode.WithMetrics(c.metrics))
	}
	c.shortcodes = shortcode.NewService(registry, shortcode.NewRenderer(registry, shortcode.NewValidator()), shortcodeOpts...)

	c.pageLoader = content.NewLoader(
		content.WithReader(reader),
		content.WithMarkdown(markdown.NewLoader(markdown.WithLogger(contentLogger))),
		content.WithLoaderLogger(contentLogger),
	)
	builderRenderer := builder.NewRenderer(c.documents,
		builder.WithShortcodes(c.shortcodes),
		builder.WithRendererLogger(contentLogger),
	)
	c.content = content.NewRenderer(c.pageLoader,
		content.WithBuilder(c.documents, builderRenderer),
		content.WithShortcodes(c.shortcodes),
		content.WithRewriter(c.rewriter),
		content.WithLogger(contentLogger),
	)

	c.menus = menus.NewService(
		menus.WithReader(reader),
		menus.WithPages(c.pageLoader),
		menus.WithRewriter(c.rewriter),
		menus.WithFallbackSize(c.Config.Preview.FallbackMenuSize),
		menus.WithLogger(logging.MenusLogger(c.loggerProvider)),
	)
	c.injector = overrides.NewInjector(
		overrides.WithReader(reader),
		overrides.WithHostStylesheet(c.Config.Preview.HostStylesheet),
		overrides.WithLogger(logging.OverridesLogger(c.loggerProvider)),
	)
	c.media = media.NewServer(media.WithLogger(logging.MediaLogger(c.loggerProvider)))
}

func (c *Container) configurePreview() {
	cfg := c.Config.Preview
	opts := []preview.ServiceOption{
		preview.WithInjector(c.injector),
		preview.WithMenus(c.menus),
		preview.WithProducts(c.catalog),
		preview.WithRewriter(c.rewriter),
		preview.WithMenuLocation(cfg.MenuLocation),
		preview.WithPublicHost(cfg.Host),
		preview.WithLogger(logging.PreviewLogger(c.loggerProvider)),
	}
	if c.materializer != nil {
		opts = append(opts, preview.WithMaterializer(c.materializer))
	}
	if c.metrics != nil {
		opts = append(opts, preview.WithMetrics(c.metrics))
	}
	resolver := preview.NewResolver(c.packages, preview.WithDefaultPage(cfg.DefaultPage))
	c.preview = preview.NewService(resolver, c.content, opts...)

	serverOpts := []showcasehttp.Option{
		showcasehttp.WithBase(cfg.Base),
		showcasehttp.WithPublicHost(cfg.Host),
		showcasehttp.WithMediaServer(c.media),
		showcasehttp.WithServerConfig(c.Config.Server),
		showcasehttp.WithLogger(logging.HTTPLogger(c.loggerProvider)),
	}
	if c.metrics != nil {
		serverOpts = append(serverOpts, showcasehttp.WithMetrics(c.metrics, c.Config.Metrics.Path))
	}
	c.server = showcasehttp.NewServer(c.packages, c.preview, serverOpts...)
}

// Watcher returns a manifest cache watcher over the packages directory, or
// nil when manifests are not cached.
func (c *Container) Watcher() (*packages.Watcher, error) {
	if c.manifestCache == nil {
		return nil, nil
	}
	logger := logging.PackagesLogger(c.loggerProvider)
	return packages.NewWatcher(c.Config.Packages.BaseDir, c.manifestCache,
		packages.WithWatcherLogger(logger),
		packages.WithChangeHook(func(paths []string) {
			logging.WithFields(logger, map[string]any{"paths": len(paths)}).Debug("di.container.manifests_evicted")
		}),
	)
}

// Close releases the database when the container opened it.
func (c *Container) Close() error {
	if c.bunDB == nil || !c.ownsDB {
		return nil
	}
	return c.bunDB.Close()
}

// LoggerProvider exposes the configured logger provider. It is nil for the
// noop provider.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

func (c *Container) Logger() interfaces.Logger {
	return c.logger
}

func (c *Container) Packages() *packages.FileRepository {
	return c.packages
}

func (c *Container) Preview() *preview.Service {
	return c.preview
}

func (c *Container) Server() *showcasehttp.Server {
	return c.server
}

// Materializer is nil when the catalog is disabled.
func (c *Container) Materializer() *catalog.Materializer {
	return c.materializer
}

func (c *Container) Catalog() *catalog.Catalog {
	return c.catalog
}

func (c *Container) Metrics() *metrics.Recorder {
	return c.metrics
}

func (c *Container) ShortcodeService() interfaces.ShortcodeService {
	return c.shortcodes
}

func (c *Container) DB() *bun.DB {
	return c.bunDB
}

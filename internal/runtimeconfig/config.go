package runtimeconfig

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
)

var ErrPackagesBaseDirRequired = errors.New("showcase config: packages base directory is required")
var ErrPreviewBaseInvalid = errors.New("showcase config: preview base must be a single path segment")
var ErrStorageDriverUnknown = errors.New("showcase config: storage driver is invalid")
var ErrStorageDSNRequired = errors.New("showcase config: storage dsn is required for postgres")
var ErrLoggingProviderUnknown = errors.New("showcase config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("showcase config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("showcase config: logging format is invalid")

// ErrCatalogRequiresStorage keeps catalog materialization behind a configured database.
var ErrCatalogRequiresStorage = errors.New("showcase config: catalog requires a storage driver")

// Config aggregates every runtime option of the preview server.
type Config struct {
	Packages PackagesConfig `yaml:"packages"`
	Preview  PreviewConfig  `yaml:"preview"`
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Cache    CacheConfig    `yaml:"cache"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Catalog  CatalogConfig  `yaml:"catalog"`
}

// PackagesConfig locates the exported packages on disk.
type PackagesConfig struct {
	BaseDir string `yaml:"base_dir"`
	// PublicBaseURL is the URL the base directory is published under. Covers
	// and attachment preview URLs are prefixed with it when set.
	PublicBaseURL  string `yaml:"public_base_url"`
	Watch          bool   `yaml:"watch"`
	CacheManifests bool   `yaml:"cache_manifests"`
}

// PreviewConfig captures how demos are namespaced and rendered.
type PreviewConfig struct {
	Base        string `yaml:"base"`
	DefaultPage string `yaml:"default_page"`
	// Host is the origin of the rendering host, e.g. https://preview.example.com.
	Host string `yaml:"host"`
	// SourceBaseURL is the origin the packages were exported from.
	SourceBaseURL    string `yaml:"source_base_url"`
	HostStylesheet   string `yaml:"host_stylesheet"`
	MenuLocation     string `yaml:"menu_location"`
	FallbackMenuSize int    `yaml:"fallback_menu_size"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StorageConfig selects the database backing the ephemeral records.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	Debug  bool   `yaml:"debug"`
}

// CacheConfig captures repository cache toggles.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `yaml:"provider"`
	Level     string   `yaml:"level"`
	Format    string   `yaml:"format"`
	AddSource bool     `yaml:"add_source"`
	Focus     []string `yaml:"focus"`
}

// MetricsConfig toggles the Prometheus recorder.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
	Path      string `yaml:"path"`
}

// CatalogConfig controls ephemeral catalog materialization.
type CatalogConfig struct {
	Enabled         bool `yaml:"enabled"`
	WarmConcurrency int  `yaml:"warm_concurrency"`
}

// DefaultConfig returns the defaults used by the CLI and tests.
func DefaultConfig() Config {
	return Config{
		Packages: PackagesConfig{
			BaseDir:        "packages",
			CacheManifests: true,
		},
		Preview: PreviewConfig{
			Base:             "demo",
			DefaultPage:      "home",
			MenuLocation:     "primary",
			FallbackMenuSize: 12,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			DSN:    "file:showcase.db?cache=shared&_fk=1",
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     time.Minute,
		},
		Logging: LoggingConfig{
			Provider: "gologger",
			Level:    "info",
			Format:   "json",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "showcase",
			Path:      "/metrics",
		},
		Catalog: CatalogConfig{
			Enabled:         true,
			WarmConcurrency: 4,
		},
	}
}

// Validate performs field and consistency checks. Failures are returned as
// go-errors validation errors carrying the CONFIG_INVALID text code; the
// sentinel errors above stay reachable through errors.Is.
func (cfg Config) Validate() error {
	if err := cfg.validateFields(); err != nil {
		return err
	}

	if strings.Contains(strings.Trim(cfg.Preview.Base, "/"), "/") {
		return invalid(fmt.Errorf("%w: %s", ErrPreviewBaseInvalid, cfg.Preview.Base))
	}

	driver := normalize(cfg.Storage.Driver)
	switch driver {
	case "", "sqlite":
	case "postgres":
		if strings.TrimSpace(cfg.Storage.DSN) == "" {
			return invalid(ErrStorageDSNRequired)
		}
	default:
		return invalid(fmt.Errorf("%w: %s", ErrStorageDriverUnknown, driver))
	}
	if cfg.Catalog.Enabled && driver == "" {
		return invalid(ErrCatalogRequiresStorage)
	}

	provider := normalize(cfg.Logging.Provider)
	if provider != "" && !isSupportedProvider(provider) {
		return invalid(fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider))
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return invalid(fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level))
	}
	if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
		return invalid(fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format))
	}
	return nil
}

func (cfg Config) validateFields() error {
	err := validation.ValidateStruct(&cfg.Packages,
		validation.Field(&cfg.Packages.BaseDir, validation.Required.ErrorObject(
			validation.NewError("showcase.config.packages.base_dir_required", ErrPackagesBaseDirRequired.Error()),
		)),
		validation.Field(&cfg.Packages.PublicBaseURL, validation.By(absoluteURL)),
	)
	if err == nil {
		err = validation.ValidateStruct(&cfg.Preview,
			validation.Field(&cfg.Preview.Base, validation.Required),
			validation.Field(&cfg.Preview.Host, validation.By(absoluteURL)),
			validation.Field(&cfg.Preview.SourceBaseURL, validation.By(absoluteURL)),
			validation.Field(&cfg.Preview.FallbackMenuSize, validation.Min(0)),
		)
	}
	if err == nil {
		err = validation.ValidateStruct(&cfg.Server,
			validation.Field(&cfg.Server.Addr, validation.Required),
			validation.Field(&cfg.Server.ShutdownTimeout, validation.Min(time.Duration(0))),
		)
	}
	if err == nil {
		err = validation.ValidateStruct(&cfg.Catalog,
			validation.Field(&cfg.Catalog.WarmConcurrency, validation.Min(0)),
		)
	}
	if err == nil {
		return nil
	}
	return goerrors.FromOzzoValidation(err, "showcase config is invalid").
		WithTextCode("CONFIG_INVALID")
}

func invalid(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryValidation, "showcase config is invalid").
		WithTextCode("CONFIG_INVALID")
}

func absoluteURL(value any) error {
	raw, _ := value.(string)
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return validation.NewError("showcase.config.url_invalid", "must be an absolute URL")
	}
	return nil
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "gologger", "noop":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch normalize(level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch normalize(format) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}

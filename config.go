package showcase

import "github.com/goliatone/go-showcase/internal/runtimeconfig"

var (
	ErrPackagesBaseDirRequired = runtimeconfig.ErrPackagesBaseDirRequired
	ErrPreviewBaseInvalid      = runtimeconfig.ErrPreviewBaseInvalid
	ErrStorageDriverUnknown    = runtimeconfig.ErrStorageDriverUnknown
	ErrStorageDSNRequired      = runtimeconfig.ErrStorageDSNRequired
	ErrCatalogRequiresStorage  = runtimeconfig.ErrCatalogRequiresStorage
	ErrLoggingProviderUnknown  = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid     = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid    = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config         = runtimeconfig.Config
	PackagesConfig = runtimeconfig.PackagesConfig
	PreviewConfig  = runtimeconfig.PreviewConfig
	ServerConfig   = runtimeconfig.ServerConfig
	StorageConfig  = runtimeconfig.StorageConfig
	CacheConfig    = runtimeconfig.CacheConfig
	LoggingConfig  = runtimeconfig.LoggingConfig
	MetricsConfig  = runtimeconfig.MetricsConfig
	CatalogConfig  = runtimeconfig.CatalogConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads a YAML config file over the defaults.
func LoadConfig(path string) (Config, error) {
	return runtimeconfig.Load(path)
}

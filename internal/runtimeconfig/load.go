package runtimeconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "SHOWCASE_"

// DefaultEnvFiles are loaded, when present, before environment overrides apply.
var DefaultEnvFiles = []string{".env", ".env.local"}

// Load reads the YAML file at path over DefaultConfig. An empty path returns
// the defaults. ${VAR} references in the file are expanded.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("showcase config: read %s: %w", path, err)
	}

	expanded := os.ExpandEnv(string(data))
	decoder := yaml.NewDecoder(bytes.NewBufferString(expanded))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("showcase config: decode %s: %w", path, err)
	}
	return cfg, nil
}

// LoadEnvFiles loads the given dotenv files without overwriting variables
// already present in the process. Missing files are ignored.
func LoadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = DefaultEnvFiles
	}
	for _, file := range files {
		if _, err := os.Stat(file); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return fmt.Errorf("showcase config: load %s: %w", file, err)
		}
	}
	return nil
}

// ApplyEnv overlays SHOWCASE_* variables read through lookup onto cfg.
// Pass os.LookupEnv in production.
func (cfg *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if cfg == nil || lookup == nil {
		return nil
	}

	strs := map[string]*string{
		"PACKAGES_DIR":            &cfg.Packages.BaseDir,
		"PACKAGES_PUBLIC_URL":     &cfg.Packages.PublicBaseURL,
		"PREVIEW_BASE":            &cfg.Preview.Base,
		"PREVIEW_DEFAULT_PAGE":    &cfg.Preview.DefaultPage,
		"PREVIEW_HOST":            &cfg.Preview.Host,
		"PREVIEW_SOURCE_BASE_URL": &cfg.Preview.SourceBaseURL,
		"PREVIEW_HOST_STYLESHEET": &cfg.Preview.HostStylesheet,
		"PREVIEW_MENU_LOCATION":   &cfg.Preview.MenuLocation,
		"SERVER_ADDR":             &cfg.Server.Addr,
		"STORAGE_DRIVER":          &cfg.Storage.Driver,
		"STORAGE_DSN":             &cfg.Storage.DSN,
		"LOG_PROVIDER":            &cfg.Logging.Provider,
		"LOG_LEVEL":               &cfg.Logging.Level,
		"LOG_FORMAT":              &cfg.Logging.Format,
		"METRICS_NAMESPACE":       &cfg.Metrics.Namespace,
		"METRICS_PATH":            &cfg.Metrics.Path,
	}
	for key, target := range strs {
		if value, ok := lookup(EnvPrefix + key); ok {
			*target = strings.TrimSpace(value)
		}
	}

	bools := map[string]*bool{
		"PACKAGES_WATCH":  &cfg.Packages.Watch,
		"PACKAGES_CACHE":  &cfg.Packages.CacheManifests,
		"STORAGE_DEBUG":   &cfg.Storage.Debug,
		"CACHE_ENABLED":   &cfg.Cache.Enabled,
		"LOG_ADD_SOURCE":  &cfg.Logging.AddSource,
		"METRICS_ENABLED": &cfg.Metrics.Enabled,
		"CATALOG_ENABLED": &cfg.Catalog.Enabled,
	}
	for key, target := range bools {
		value, ok := lookup(EnvPrefix + key)
		if !ok {
			continue
		}
		parsed, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("showcase config: %s%s: %w", EnvPrefix, key, err)
		}
		*target = parsed
	}

	ints := map[string]*int{
		"PREVIEW_FALLBACK_MENU_SIZE": &cfg.Preview.FallbackMenuSize,
		"CATALOG_WARM_CONCURRENCY":   &cfg.Catalog.WarmConcurrency,
	}
	for key, target := range ints {
		value, ok := lookup(EnvPrefix + key)
		if !ok {
			continue
		}
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("showcase config: %s%s: %w", EnvPrefix, key, err)
		}
		*target = parsed
	}

	durations := map[string]*time.Duration{
		"SERVER_READ_TIMEOUT":     &cfg.Server.ReadTimeout,
		"SERVER_WRITE_TIMEOUT":    &cfg.Server.WriteTimeout,
		"SERVER_SHUTDOWN_TIMEOUT": &cfg.Server.ShutdownTimeout,
		"CACHE_TTL":               &cfg.Cache.TTL,
	}
	for key, target := range durations {
		value, ok := lookup(EnvPrefix + key)
		if !ok {
			continue
		}
		parsed, err := time.ParseDuration(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("showcase config: %s%s: %w", EnvPrefix, key, err)
		}
		*target = parsed
	}

	if value, ok := lookup(EnvPrefix + "LOG_FOCUS"); ok {
		cfg.Logging.Focus = splitList(value)
	}
	return nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

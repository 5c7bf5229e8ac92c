package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-showcase/pkg/interfaces"
)

const (
	rootModule      = "showcase"
	packagesModule  = "showcase.packages"
	previewModule   = "showcase.preview"
	overridesModule = "showcase.overrides"
	contentModule   = "showcase.content"
	menusModule     = "showcase.menus"
	mediaModule     = "showcase.media"
	catalogModule   = "showcase.catalog"
	httpModule      = "showcase.http"
)

const (
	fieldDemo     = "demo"
	fieldPage     = "page"
	fieldPath     = "inner_path"
	fieldPackage  = "package_dir"
	fieldModule   = "module"
	fieldManifest = "manifest"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The module identifier is
// attached as a structured field so entries can be filtered per component.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{fieldModule: module})
}

// PackagesLogger returns the logger namespace reserved for the package repository.
func PackagesLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, packagesModule)
}

// PreviewLogger returns the logger namespace reserved for the preview pipeline.
func PreviewLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, previewModule)
}

// OverridesLogger returns the logger namespace reserved for override manifests.
func OverridesLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, overridesModule)
}

// ContentLogger returns the logger namespace reserved for page rendering.
func ContentLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, contentModule)
}

// MenusLogger returns the logger namespace reserved for menu reconstruction.
func MenusLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, menusModule)
}

// MediaLogger returns the logger namespace reserved for media streaming.
func MediaLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, mediaModule)
}

// CatalogLogger returns the logger namespace reserved for catalog materialization.
func CatalogLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, catalogModule)
}

// HTTPLogger returns the logger namespace reserved for the HTTP surface.
func HTTPLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, httpModule)
}

// WithPreviewContext enriches the logger with the demo, page and inner path
// of the request being served. Empty values are ignored.
func WithPreviewContext(logger interfaces.Logger, demo, page, innerPath string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(demo); trimmed != "" {
		fields[fieldDemo] = trimmed
	}
	if trimmed := strings.TrimSpace(page); trimmed != "" {
		fields[fieldPage] = trimmed
	}
	if trimmed := strings.TrimSpace(innerPath); trimmed != "" {
		fields[fieldPath] = trimmed
	}
	return WithFields(logger, fields)
}

// WithManifest annotates entries about a single manifest file of a package.
func WithManifest(logger interfaces.Logger, packageDir, manifest string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(packageDir); trimmed != "" {
		fields[fieldPackage] = trimmed
	}
	if trimmed := strings.TrimSpace(manifest); trimmed != "" {
		fields[fieldManifest] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every log entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}

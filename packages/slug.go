package packages

import (
	"strings"

	"github.com/goliatone/go-slug"
)

// NormalizeSlug maps any identifier (directory name, URL segment, manifest
// key) onto the canonical slug form. Path separators become dashes so a
// nested inner path collapses into a single key. Values that cannot be
// normalized yield "".
func NormalizeSlug(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	value = strings.NewReplacer("/", "-", "\\", "-").Replace(value)
	normalized, err := slug.Normalize(value)
	if err != nil {
		return ""
	}
	return strings.Trim(normalized, "-")
}

// IsValidSlug reports whether value is already canonical.
func IsValidSlug(value string) bool {
	return value != "" && slug.IsValid(value)
}

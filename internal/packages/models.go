package packages

import showcasepackages "github.com/goliatone/go-showcase/packages"

type (
	Package = showcasepackages.Package
	Cover   = showcasepackages.Cover
	Paths   = showcasepackages.Paths
)

const DescriptorFile = showcasepackages.DescriptorFile

// NormalizeSlug re-exports the canonical slug rule.
func NormalizeSlug(value string) string {
	return showcasepackages.NormalizeSlug(value)
}

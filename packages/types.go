package packages

// Package describes one exported site found in the packages directory.
type Package struct {
	Slug          string         `json:"slug"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Categories    []string       `json:"categories"`
	FrontPageSlug string         `json:"front_page_slug"`
	Cover         Cover          `json:"cover"`
	Paths         Paths          `json:"-"`
	Meta          map[string]any `json:"meta,omitempty"`
}

// Cover points at the package preview image. URL is empty when the packages
// directory has no public URL.
type Cover struct {
	File string `json:"file"`
	URL  string `json:"url"`
}

// Paths holds absolute filesystem locations of the package.
type Paths struct {
	Dir        string
	Descriptor string
	CoverFile  string
}

// DescriptorFile is the manifest every package directory must contain.
const DescriptorFile = "demo.json"

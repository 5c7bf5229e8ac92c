package interfaces

// MarkdownParser defines how raw Markdown bytes are converted into HTML.
type MarkdownParser interface {
	// Parse converts Markdown into HTML using the parser's default settings.
	Parse(markdown []byte) ([]byte, error)
	// ParseWithOptions converts Markdown into HTML using the supplied overrides.
	ParseWithOptions(markdown []byte, opts ParseOptions) ([]byte, error)
}

// ParseOptions customises Markdown parsing behaviour.
type ParseOptions struct {
	Extensions []string
	HardWraps  bool
	SafeMode   bool
}

// FrontMatter models metadata extracted from Markdown page files shipped
// inside a package.
type FrontMatter struct {
	Title string `yaml:"title" json:"title"`
	Slug  string `yaml:"slug" json:"slug"`
	Order int    `yaml:"order" json:"order"`
	Draft bool   `yaml:"draft" json:"draft"`
	// HardWraps renders single newlines of the body as line breaks.
	HardWraps bool           `yaml:"hard_wraps" json:"hard_wraps"`
	Meta      map[string]any `yaml:"meta" json:"meta"`
	Custom    map[string]any `yaml:",inline" json:"custom"`
}

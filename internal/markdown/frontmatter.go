package markdown

import (
	"bytes"
	"fmt"
	"maps"

	"github.com/adrg/frontmatter"

	"github.com/goliatone/go-showcase/pkg/interfaces"
)

// ParseFrontMatter splits source into its YAML or TOML frontmatter and the
// Markdown body. A file without frontmatter yields an empty FrontMatter.
func ParseFrontMatter(source []byte) (interfaces.FrontMatter, []byte, error) {
	var meta interfaces.FrontMatter

	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return interfaces.FrontMatter{}, nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	if meta.Meta == nil {
		meta.Meta = map[string]any{}
	}
	meta.Custom = cloneMap(meta.Custom)
	// reserved keys surface through the typed fields only
	for _, key := range []string{"title", "slug", "order", "draft", "hard_wraps", "meta"} {
		delete(meta.Custom, key)
	}
	return meta, body, nil
}

func cloneMap(input map[string]any) map[string]any {
	out := make(map[string]any, len(input))
	maps.Copy(out, input)
	return out
}

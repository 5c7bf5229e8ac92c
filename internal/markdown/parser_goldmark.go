package markdown

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/goliatone/go-showcase/pkg/interfaces"
)

// Parser renders page bodies with goldmark. The engine for the default
// options is built once and shared; pages asking for other options get a
// fresh engine.
type Parser struct {
	defaults interfaces.ParseOptions
	engine   goldmark.Markdown
}

// NewParser builds a parser. Zero options mean GFM with footnotes, and raw
// HTML kept since exported pages embed it routinely.
func NewParser(defaults interfaces.ParseOptions) *Parser {
	return &Parser{defaults: defaults, engine: newEngine(defaults)}
}

func (p *Parser) Parse(source []byte) ([]byte, error) {
	return convert(p.engine, source)
}

func (p *Parser) ParseWithOptions(source []byte, opts interfaces.ParseOptions) ([]byte, error) {
	if sameOptions(opts, p.defaults) {
		return convert(p.engine, source)
	}
	return convert(newEngine(opts), source)
}

func convert(engine goldmark.Markdown, source []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := engine.Convert(source, &buf); err != nil {
		return nil, fmt.Errorf("markdown: %w", err)
	}
	return buf.Bytes(), nil
}

func sameOptions(a, b interfaces.ParseOptions) bool {
	return a.HardWraps == b.HardWraps && a.SafeMode == b.SafeMode && slices.Equal(a.Extensions, b.Extensions)
}

func newEngine(opts interfaces.ParseOptions) goldmark.Markdown {
	var rendererOpts []renderer.Option
	if opts.HardWraps {
		rendererOpts = append(rendererOpts, html.WithHardWraps())
	}
	if !opts.SafeMode {
		rendererOpts = append(rendererOpts, html.WithUnsafe())
	}
	return goldmark.New(
		goldmark.WithExtensions(extensionsFor(opts.Extensions)...),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(rendererOpts...),
	)
}

var extensions = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"tasklist":      extension.TaskList,
	"definition":    extension.DefinitionList,
	"footnote":      extension.Footnote,
	"typographer":   extension.Typographer,
}

// extensionsFor maps names to extenders, skipping unknown and repeated names.
func extensionsFor(names []string) []goldmark.Extender {
	if len(names) == 0 {
		return []goldmark.Extender{extension.GFM, extension.Footnote}
	}
	seen := make(map[string]bool, len(names))
	var out []goldmark.Extender
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		ext, ok := extensions[key]
		if !ok || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, ext)
	}
	return out
}

var _ interfaces.MarkdownParser = (*Parser)(nil)

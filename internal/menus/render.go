package menus

import (
	"html"
	"regexp"
	"strings"

	"github.com/goliatone/go-showcase/internal/previewctx"
)

var absoluteURL = regexp.MustCompile(`(?i)^https?://`)

func (s *service) RenderHTML(pc previewctx.Context, forest []*Node) string {
	var b strings.Builder
	for _, node := range forest {
		s.renderNode(&b, pc, node)
	}
	return b.String()
}

func (s *service) renderNode(b *strings.Builder, pc previewctx.Context, node *Node) {
	if node == nil || node.Title == "" {
		return
	}
	b.WriteString(`<li class="menu-item">`)
	b.WriteString(`<a href="`)
	b.WriteString(html.EscapeString(s.itemURL(pc, node.URL)))
	b.WriteString(`"`)
	if node.Target != "" {
		b.WriteString(` target="`)
		b.WriteString(html.EscapeString(node.Target))
		b.WriteString(`"`)
	}
	b.WriteString(`>`)
	b.WriteString(html.EscapeString(node.Title))
	b.WriteString(`</a>`)
	if len(node.Children) > 0 {
		b.WriteString(`<ul class="sub-menu">`)
		for _, child := range node.Children {
			s.renderNode(b, pc, child)
		}
		b.WriteString(`</ul>`)
	}
	b.WriteString(`</li>`)
}

// itemURL resolves a menu link: absolute and root-relative URLs go through
// the rewriter, anything else is a page slug or path inside the demo.
func (s *service) itemURL(pc previewctx.Context, raw string) string {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return "#"
	case absoluteURL.MatchString(raw) || strings.HasPrefix(raw, "/"):
		if s.rewriter == nil {
			return raw
		}
		return s.rewriter.RewriteURL(pc, raw)
	case strings.HasPrefix(raw, "#") || strings.Contains(raw, ":"):
		return raw
	default:
		return pc.URL(raw)
	}
}

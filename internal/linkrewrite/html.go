package linkrewrite

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-showcase/internal/previewctx"
)

// urlAttributes are rewritten on every element that carries them.
var urlAttributes = map[string]struct{}{
	"href":     {},
	"src":      {},
	"action":   {},
	"poster":   {},
	"data-src": {},
}

// RewriteHTML rewrites URL attributes in an HTML fragment or document. Tags
// whose attributes do not change are copied byte for byte, as is all text,
// comment, script and style content.
func (r *Rewriter) RewriteHTML(pc previewctx.Context, src string) string {
	if r == nil || !pc.Active || src == "" {
		return src
	}

	z := html.NewTokenizer(strings.NewReader(src))
	var out bytes.Buffer
	out.Grow(len(src))

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if z.Err() != io.EOF {
				// the reader never fails; keep whatever is left untouched
				out.Write(z.Raw())
			}
			break
		}

		// Token lowercases names inside the tokenizer buffer, so copy first.
		raw := append([]byte(nil), z.Raw()...)
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			out.Write(raw)
			continue
		}

		tok := z.Token()
		changed := false
		for i, attr := range tok.Attr {
			if attr.Namespace != "" {
				continue
			}
			var next string
			switch {
			case attr.Key == "srcset" || attr.Key == "data-srcset":
				next = r.rewriteSrcset(pc, attr.Val)
			case isURLAttribute(attr.Key):
				next = r.RewriteURL(pc, attr.Val)
			default:
				continue
			}
			if next != attr.Val {
				tok.Attr[i].Val = next
				changed = true
			}
		}
		if changed {
			out.WriteString(tok.String())
			continue
		}
		out.Write(raw)
	}
	return out.String()
}

func isURLAttribute(key string) bool {
	_, ok := urlAttributes[key]
	return ok
}

// rewriteSrcset rewrites each candidate of a srcset list and keeps its
// descriptor.
func (r *Rewriter) rewriteSrcset(pc previewctx.Context, value string) string {
	candidates := strings.Split(value, ",")
	changed := false
	for i, candidate := range candidates {
		trimmed := strings.TrimSpace(candidate)
		if trimmed == "" {
			continue
		}
		u, descriptor, _ := strings.Cut(trimmed, " ")
		next := r.RewriteURL(pc, u)
		if next == u {
			continue
		}
		changed = true
		if descriptor != "" {
			candidates[i] = next + " " + strings.TrimSpace(descriptor)
		} else {
			candidates[i] = next
		}
		if i > 0 {
			candidates[i] = " " + candidates[i]
		}
	}
	if !changed {
		return value
	}
	return strings.Join(candidates, ",")
}

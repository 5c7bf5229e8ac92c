package content

import (
	"regexp"
	"strings"
)

var (
	blankLines = regexp.MustCompile(`\n[ \t]*\n+`)
	// blocks that must not be wrapped in a paragraph
	blockStart = regexp.MustCompile(`(?i)^<(?:/?(?:p|div|h[1-6]|ul|ol|li|dl|dt|dd|table|thead|tbody|tfoot|tr|td|th|blockquote|pre|figure|figcaption|section|article|aside|header|footer|nav|main|form|fieldset|address|hr|iframe|script|style|noscript|video|audio|details|summary)\b|!--)`)
)

// Autop wraps blank-line separated text blocks in paragraphs. Blocks that
// already start with block markup are left alone; single newlines inside a
// wrapped block become line breaks.
func Autop(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	if strings.TrimSpace(content) == "" {
		return ""
	}

	blocks := blankLines.Split(strings.TrimSpace(content), -1)
	out := make([]string, 0, len(blocks))
	for _, block := range blocks {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		if blockStart.MatchString(block) {
			out = append(out, block)
			continue
		}
		out = append(out, "<p>"+strings.ReplaceAll(block, "\n", "<br />\n")+"</p>")
	}
	return strings.Join(out, "\n")
}

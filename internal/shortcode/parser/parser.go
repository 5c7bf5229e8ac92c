// Package parser extracts shortcode invocations from content, replacing each
// with a numbered placeholder the service later swaps for rendered output.
package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/goliatone/go-showcase/pkg/interfaces"
)

// PlaceholderFormat is the marker left where a shortcode was extracted.
const PlaceholderFormat = "<!-- shortcode:%d -->"

// PlaceholderPattern matches markers produced with PlaceholderFormat.
var PlaceholderPattern = regexp.MustCompile(`<!-- shortcode:(\d+) -->`)

var attrPattern = regexp.MustCompile(`([\w-]+)\s*=\s*"([^"]*)"|([\w-]+)\s*=\s*'([^']*)'|([\w-]+)\s*=\s*([^\s'"]+)|"([^"]*)"|'([^']*)'|(\S+)`)

// Syntax describes the delimiters of one shortcode dialect.
type Syntax struct {
	Open  string
	Close string
}

var (
	HugoSyntax      = Syntax{Open: "{{<", Close: ">}}"}
	WordPressSyntax = Syntax{Open: "[", Close: "]"}
)

// Parser scans content for shortcodes in a single dialect.
type Parser struct {
	syntax Syntax
	// strict parsers fail on unbalanced tags; lenient ones keep them as text.
	strict bool
	// escapes enables [[name]] as a literal [name].
	escapes bool
	known   func(name string) bool
}

var _ interfaces.ShortcodeParser = (*Parser)(nil)

// NewHugoParser parses {{< name param >}} shortcodes and rejects unbalanced
// markup.
func NewHugoParser() *Parser {
	return &Parser{syntax: HugoSyntax, strict: true}
}

// NewWordPressParser parses [name attr="x"] shortcodes. Only names accepted
// by known are treated as shortcodes, everything else in brackets is plain
// text. A nil known accepts every name.
func NewWordPressParser(known func(name string) bool) *Parser {
	return &Parser{syntax: WordPressSyntax, escapes: true, known: known}
}

// Parse returns the shortcodes found in content.
func (p *Parser) Parse(content string) ([]interfaces.ParsedShortcode, error) {
	_, shortcodes, err := p.Extract(content)
	return shortcodes, err
}

type tag struct {
	name    string
	attrs   string
	closing bool
	start   int
	end     int
}

type stackEntry struct {
	tag        tag
	params     map[string]any
	startIndex int
}

// Extract replaces every shortcode with a placeholder. Shortcodes are listed
// in completion order, so nested shortcodes precede the one enclosing them.
func (p *Parser) Extract(content string) (string, []interfaces.ParsedShortcode, error) {
	if !strings.Contains(content, p.syntax.Open) {
		return content, nil, nil
	}

	var (
		result     = make([]byte, 0, len(content))
		shortcodes []interfaces.ParsedShortcode
		stack      []stackEntry
		position   int
		closers    = map[string]*regexp.Regexp{}
	)

	placeholder := func() {
		result = append(result, fmt.Sprintf(PlaceholderFormat, len(shortcodes))...)
	}

	for position < len(content) {
		idx := strings.Index(content[position:], p.syntax.Open)
		if idx < 0 {
			result = append(result, content[position:]...)
			break
		}
		start := position + idx
		result = append(result, content[position:start]...)

		if p.escapes {
			if end, ok := p.escaped(content, start); ok {
				result = append(result, content[start+1:end-1]...)
				position = end
				continue
			}
		}

		t, ok := p.readTag(content, start)
		if !ok || (p.known != nil && !p.known(t.name)) {
			result = append(result, p.syntax.Open...)
			position = start + len(p.syntax.Open)
			continue
		}
		raw := content[t.start:t.end]

		if t.closing {
			if len(stack) == 0 || stack[len(stack)-1].tag.name != t.name {
				if p.strict {
					if len(stack) == 0 {
						return "", nil, fmt.Errorf("unexpected closing shortcode %s at position %d", t.name, start)
					}
					return "", nil, fmt.Errorf("mismatched shortcode end tag %s, expected %s", t.name, stack[len(stack)-1].tag.name)
				}
				result = append(result, raw...)
				position = t.end
				continue
			}

			entry := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			inner := string(result[entry.startIndex:])
			result = result[:entry.startIndex]
			placeholder()
			shortcodes = append(shortcodes, interfaces.ParsedShortcode{
				Name:   t.name,
				Params: entry.params,
				Inner:  inner,
				Raw:    content[entry.tag.start:t.end],
			})
			position = t.end
			continue
		}

		attrs := strings.TrimSpace(t.attrs)
		selfClosing := strings.HasSuffix(attrs, "/")
		if selfClosing {
			attrs = strings.TrimSpace(strings.TrimSuffix(attrs, "/"))
		}
		params := ParseParams(attrs)

		if !selfClosing {
			closer, ok := closers[t.name]
			if !ok {
				closer = regexp.MustCompile(regexp.QuoteMeta(p.syntax.Open) + `\s*/\s*` + regexp.QuoteMeta(t.name) + `\s*` + regexp.QuoteMeta(p.syntax.Close))
				closers[t.name] = closer
			}
			selfClosing = !closer.MatchString(content[t.end:])
		}

		if selfClosing {
			placeholder()
			shortcodes = append(shortcodes, interfaces.ParsedShortcode{
				Name:   t.name,
				Params: params,
				Raw:    raw,
			})
			position = t.end
			continue
		}

		stack = append(stack, stackEntry{tag: t, params: params, startIndex: len(result)})
		position = t.end
	}

	if len(stack) > 0 {
		if p.strict {
			return "", nil, fmt.Errorf("unterminated shortcode %s", stack[len(stack)-1].tag.name)
		}
		for i := len(stack) - 1; i >= 0; i-- {
			entry := stack[i]
			open := content[entry.tag.start:entry.tag.end]
			restored := make([]byte, 0, len(result)+len(open))
			restored = append(restored, result[:entry.startIndex]...)
			restored = append(restored, open...)
			restored = append(restored, result[entry.startIndex:]...)
			result = restored
		}
	}

	return string(result), shortcodes, nil
}

// readTag reads a tag starting at content[start:].
func (p *Parser) readTag(content string, start int) (tag, bool) {
	i := start + len(p.syntax.Open)
	for i < len(content) && content[i] == ' ' {
		i++
	}
	t := tag{start: start}
	if i < len(content) && content[i] == '/' {
		t.closing = true
		i++
		for i < len(content) && content[i] == ' ' {
			i++
		}
	}
	nameStart := i
	for i < len(content) && isNameByte(content[i]) {
		i++
	}
	if i == nameStart {
		return tag{}, false
	}
	t.name = strings.ToLower(content[nameStart:i])

	end := strings.Index(content[i:], p.syntax.Close)
	if end < 0 {
		return tag{}, false
	}
	// an opening delimiter before the close means this was not a tag
	if nested := strings.Index(content[i:i+end], p.syntax.Open); nested >= 0 {
		return tag{}, false
	}
	t.attrs = content[i : i+end]
	if t.attrs != "" && !isSpace(t.attrs[0]) && t.attrs[0] != '/' {
		return tag{}, false
	}
	if t.closing && strings.TrimSpace(t.attrs) != "" {
		return tag{}, false
	}
	t.end = i + end + len(p.syntax.Close)
	return t, true
}

// escaped recognizes [[name ...]] and returns the index just past it.
func (p *Parser) escaped(content string, start int) (int, bool) {
	if !strings.HasPrefix(content[start:], "[[") {
		return 0, false
	}
	t, ok := p.readTag(content, start+1)
	if !ok || !strings.HasPrefix(content[t.end:], "]") {
		return 0, false
	}
	if p.known != nil && !p.known(t.name) {
		return 0, false
	}
	return t.end + 1, true
}

// ParseParams parses shortcode attributes. Keys are lowercased; positional
// values are named param1, param2 and so on.
func ParseParams(raw string) map[string]any {
	params := map[string]any{}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return params
	}
	positional := 0
	for _, m := range attrPattern.FindAllStringSubmatch(raw, -1) {
		switch {
		case m[1] != "":
			params[strings.ToLower(m[1])] = m[2]
		case m[3] != "":
			params[strings.ToLower(m[3])] = m[4]
		case m[5] != "":
			params[strings.ToLower(m[5])] = m[6]
		default:
			value := m[7] + m[8] + m[9]
			if value == "" {
				continue
			}
			positional++
			params[fmt.Sprintf("param%d", positional)] = value
		}
	}
	return params
}

func isNameByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' || c == '-'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

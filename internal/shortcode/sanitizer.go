package shortcode

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-showcase/pkg/interfaces"
)

// Sanitizer is a conservative check applied to shortcode output. Package
// content is trusted, shortcode attributes are not.
type Sanitizer struct {
	allowedSchemes map[string]struct{}
}

// NewSanitizer returns a sanitizer allowing relative, http(s), mailto and
// tel URLs.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{
		allowedSchemes: map[string]struct{}{
			"http":   {},
			"https":  {},
			"mailto": {},
			"tel":    {},
			"":       {},
		},
	}
}

// Sanitize rejects inline scripts and javascript: URLs.
func (s *Sanitizer) Sanitize(html string) (string, error) {
	lower := strings.ToLower(html)
	if strings.Contains(lower, "<script") {
		return "", fmt.Errorf("shortcode: script tags are not allowed")
	}
	if strings.Contains(lower, "javascript:") {
		return "", fmt.Errorf("shortcode: javascript urls are not allowed")
	}
	return html, nil
}

// ValidateURL ensures the URL has an allowed scheme.
func (s *Sanitizer) ValidateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return err
	}

	if _, ok := s.allowedSchemes[strings.ToLower(parsed.Scheme)]; !ok {
		return fmt.Errorf("shortcode: url scheme %q not permitted", parsed.Scheme)
	}
	return nil
}

// ValidateAttributes rejects inline event handlers such as onload.
func (s *Sanitizer) ValidateAttributes(attrs map[string]any) error {
	for key := range attrs {
		if isEventHandler(strings.ToLower(key)) {
			return fmt.Errorf("shortcode: attribute %q not permitted", key)
		}
	}
	return nil
}

// isEventHandler matches on[a-z]+, leaving attributes like on_sale alone.
func isEventHandler(key string) bool {
	if len(key) < 3 || !strings.HasPrefix(key, "on") {
		return false
	}
	for _, r := range key[2:] {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

var _ interfaces.ShortcodeSanitizer = (*Sanitizer)(nil)

package linkrewrite

import (
	"net/url"
	"strings"

	"github.com/goliatone/go-showcase/internal/previewctx"
	"github.com/goliatone/go-showcase/packages"
)

// DefaultExcludedPrefixes are host system paths that must keep working from
// inside a preview.
var DefaultExcludedPrefixes = []string{
	"/wp-admin/",
	"/wp-login.php",
	"/wp-content/",
	"/wp-includes/",
	"/api/",
	"/metrics",
	"/healthz",
}

// DefaultLegacyUploadPrefixes are upload locations exported content still
// points at; they are served from the package media directory.
var DefaultLegacyUploadPrefixes = []string{"/wp-content/uploads/"}

var passthroughSchemes = map[string]struct{}{
	"mailto":     {},
	"tel":        {},
	"sms":        {},
	"javascript": {},
	"data":       {},
	"blob":       {},
}

// Rewriter keeps links inside the active demo namespace. It holds only
// configuration; all methods are pure.
type Rewriter struct {
	// Base is used when the context does not carry one.
	Base string
	// Host is the origin of the rendering host.
	Host string
	// SourceBaseURL is the origin the packages were exported from.
	SourceBaseURL        string
	LegacyUploadPrefixes []string
	ExcludedPrefixes     []string

	host   *url.URL
	source *url.URL
}

// New returns a Rewriter with the default prefix lists.
func New(base, host, sourceBaseURL string) *Rewriter {
	r := &Rewriter{
		Base:                 strings.Trim(base, "/"),
		Host:                 host,
		SourceBaseURL:        sourceBaseURL,
		LegacyUploadPrefixes: DefaultLegacyUploadPrefixes,
		ExcludedPrefixes:     DefaultExcludedPrefixes,
	}
	r.host = parseOrigin(host)
	r.source = parseOrigin(sourceBaseURL)
	return r
}

func parseOrigin(raw string) *url.URL {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil
	}
	u.Path = strings.TrimRight(u.Path, "/")
	return u
}

// RewriteURL maps raw into the namespace of pc. The result is root-relative
// when rewritten and raw otherwise. An inactive context returns raw.
func (r *Rewriter) RewriteURL(pc previewctx.Context, raw string) string {
	if r == nil || !pc.Active || pc.DemoSlug == "" {
		return raw
	}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "?") {
		return raw
	}

	path, origin, ok := r.localPath(trimmed)
	if !ok {
		return raw
	}
	pathOnly, suffix := splitSuffix(path)

	for _, prefix := range r.legacyPrefixes() {
		if hasPathPrefix(pathOnly, prefix) && len(pathOnly) > len(prefix) {
			return pc.MediaURL(pathOnly[len(prefix):]) + suffix
		}
	}

	for _, prefix := range r.excludedPrefixes() {
		if hasPathPrefix(pathOnly, prefix) {
			return raw
		}
	}

	base := pc.Base
	if base == "" {
		base = r.Base
	}
	namespace := previewctx.NamespacePrefix(base)
	if strings.EqualFold(pathOnly, strings.TrimSuffix(namespace, "/")) || strings.EqualFold(pathOnly, namespace) {
		return pc.URL("") + suffix
	}
	if hasPathPrefix(pathOnly, namespace) {
		rest := pathOnly[len(namespace):]
		segment, tail, _ := strings.Cut(rest, "/")
		normalized := packages.NormalizeSlug(segment)
		switch {
		case normalized == pc.DemoSlug && origin != originSource:
			return raw
		case normalized == pc.DemoSlug:
			return pathOnly + suffix
		case normalized != "":
			return pc.Prefix() + "/" + tail + suffix
		}
	}

	if pathOnly == "/" || pathOnly == "" {
		return pc.URL("") + suffix
	}
	return pc.Prefix() + pathOnly + suffix
}

type originKind int

const (
	originRelative originKind = iota
	originHost
	originSource
)

// localPath reduces trimmed to a root-relative path when it points at the
// host or the export source. ok is false for foreign, relative or
// non-navigational URLs.
func (r *Rewriter) localPath(trimmed string) (string, originKind, bool) {
	if strings.HasPrefix(trimmed, "//") {
		u, err := url.Parse("http:" + trimmed)
		if err != nil {
			return "", 0, false
		}
		return r.sameOrigin(u)
	}
	if strings.HasPrefix(trimmed, "/") {
		return trimmed, originRelative, true
	}

	scheme, _, hasScheme := strings.Cut(trimmed, ":")
	if !hasScheme || strings.ContainsAny(scheme, "/?#") {
		// relative reference; it resolves against a page already inside the namespace
		return "", 0, false
	}
	scheme = strings.ToLower(scheme)
	if _, skip := passthroughSchemes[scheme]; skip || !isWebScheme(scheme) {
		return "", 0, false
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", 0, false
	}
	return r.sameOrigin(u)
}

// sameOrigin matches u against the export source first, then the host.
// http and https of the same host count as the same site.
func (r *Rewriter) sameOrigin(u *url.URL) (string, originKind, bool) {
	candidates := []struct {
		origin *url.URL
		kind   originKind
	}{
		{r.source, originSource},
		{r.host, originHost},
	}
	if r.source == nil {
		candidates[0].origin = parseOrigin(r.SourceBaseURL)
	}
	if r.host == nil {
		candidates[1].origin = parseOrigin(r.Host)
	}

	for _, c := range candidates {
		if c.origin == nil || !strings.EqualFold(c.origin.Host, u.Host) {
			continue
		}
		path := u.EscapedPath()
		if c.origin.Path != "" {
			if path != c.origin.Path && !hasPathPrefix(path, c.origin.Path+"/") {
				continue
			}
			path = path[len(c.origin.Path):]
		}
		if path == "" {
			path = "/"
		}
		if u.RawQuery != "" {
			path += "?" + u.RawQuery
		}
		if u.Fragment != "" {
			path += "#" + u.EscapedFragment()
		}
		return path, c.kind, true
	}
	return "", 0, false
}

func (r *Rewriter) legacyPrefixes() []string {
	if r.LegacyUploadPrefixes == nil {
		return DefaultLegacyUploadPrefixes
	}
	return r.LegacyUploadPrefixes
}

func (r *Rewriter) excludedPrefixes() []string {
	if r.ExcludedPrefixes == nil {
		return DefaultExcludedPrefixes
	}
	return r.ExcludedPrefixes
}

func isWebScheme(s string) bool {
	s = strings.ToLower(s)
	return s == "http" || s == "https"
}

// hasPathPrefix matches prefix as a path prefix, case-insensitively. A prefix
// without a trailing slash also matches the exact path and paths continuing
// with "/", "?" or "#".
func hasPathPrefix(path, prefix string) bool {
	if len(path) < len(prefix) || !strings.EqualFold(path[:len(prefix)], prefix) {
		return false
	}
	if strings.HasSuffix(prefix, "/") || len(path) == len(prefix) {
		return true
	}
	switch path[len(prefix)] {
	case '/', '?', '#':
		return true
	}
	return false
}

func splitSuffix(path string) (string, string) {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		return path[:i], path[i:]
	}
	return path, ""
}

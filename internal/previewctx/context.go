// Package previewctx carries the per-request preview scope. A Context is a
// plain value passed explicitly to every collaborator; the zero value means
// no preview is active.
package previewctx

import "strings"

// Context identifies the demo and page a request is rendering.
type Context struct {
	// Base is the namespace segment, "demo" in /demo/{slug}/...
	Base       string
	DemoSlug   string
	PackageDir string
	InnerPath  string
	PageSlug   string
	Active     bool
}

// New returns an active context.
func New(base, demo, packageDir, innerPath, pageSlug string) Context {
	return Context{
		Base:       strings.Trim(base, "/"),
		DemoSlug:   demo,
		PackageDir: packageDir,
		InnerPath:  innerPath,
		PageSlug:   pageSlug,
		Active:     demo != "",
	}
}

// Prefix returns "/{base}/{demo}" or "" when inactive.
func (c Context) Prefix() string {
	if !c.Active {
		return ""
	}
	return "/" + c.Base + "/" + c.DemoSlug
}

// URL joins inner onto the demo namespace with a trailing slash for page
// paths: URL("about") is "/{base}/{demo}/about/". URL("") is the demo root.
func (c Context) URL(inner string) string {
	if !c.Active {
		return inner
	}
	inner = strings.Trim(inner, "/")
	if inner == "" {
		return c.Prefix() + "/"
	}
	return c.Prefix() + "/" + inner + "/"
}

// MediaURL returns the media route for a path relative to the package media
// directory.
func (c Context) MediaURL(rel string) string {
	return c.Prefix() + "/media/" + strings.TrimLeft(rel, "/")
}

// NamespacePrefix is "/{base}/" for the given base.
func NamespacePrefix(base string) string {
	return "/" + strings.Trim(base, "/") + "/"
}

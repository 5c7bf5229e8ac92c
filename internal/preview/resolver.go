// Package preview turns a namespaced request path into a rendered demo page.
package preview

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-showcase/internal/packages"
	"github.com/goliatone/go-showcase/internal/previewctx"
)

// DefaultPage is rendered for the demo root when the package names no front page.
const DefaultPage = "home"

// mediaSegment routes the remainder of the inner path to the media server.
const mediaSegment = "media"

// RouteKind tells the caller which branch handles a resolved route.
type RouteKind int

const (
	RoutePage RouteKind = iota
	RouteMedia
)

func (k RouteKind) String() string {
	if k == RouteMedia {
		return "media"
	}
	return "page"
}

// ErrDemoNotFound is returned for paths whose first segment names no package.
var ErrDemoNotFound = goerrors.New("Demo not found.", goerrors.CategoryNotFound).
	WithTextCode("DEMO_NOT_FOUND")

// Route is a resolved preview path.
type Route struct {
	Kind    RouteKind
	Package packages.Package
	Context previewctx.Context
	// MediaPath is relative to the package media directory and is not
	// normalized; the media server validates it.
	MediaPath string
}

// Resolver maps "{demo}/{inner...}" onto a package and page slug.
type Resolver struct {
	packages    packages.Repository
	defaultPage string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithDefaultPage sets the page used for the demo root when the package
// declares no front page.
func WithDefaultPage(slug string) ResolverOption {
	return func(r *Resolver) {
		if slug = packages.NormalizeSlug(slug); slug != "" {
			r.defaultPage = slug
		}
	}
}

func NewResolver(repo packages.Repository, opts ...ResolverOption) *Resolver {
	r := &Resolver{packages: repo, defaultPage: DefaultPage}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Resolve splits rawPath (relative to the base namespace) into demo and inner
// path. Unknown demos fail with ErrDemoNotFound.
func (r *Resolver) Resolve(ctx context.Context, base, rawPath string) (Route, error) {
	demo, inner, _ := strings.Cut(strings.TrimLeft(strings.TrimSpace(rawPath), "/"), "/")
	slug := packages.NormalizeSlug(demo)
	if slug == "" {
		return Route{}, fmt.Errorf("%w: %q", ErrDemoNotFound, demo)
	}

	pkg, err := r.packages.Get(ctx, slug)
	if err != nil {
		var notFound *packages.NotFoundError
		if errors.As(err, &notFound) {
			return Route{}, fmt.Errorf("%w: %q", ErrDemoNotFound, slug)
		}
		return Route{}, err
	}

	inner = strings.Trim(strings.TrimSpace(inner), "/")
	if inner == mediaSegment || strings.HasPrefix(inner, mediaSegment+"/") {
		rel := strings.TrimPrefix(strings.TrimPrefix(inner, mediaSegment), "/")
		return Route{
			Kind:      RouteMedia,
			Package:   pkg,
			Context:   previewctx.New(base, pkg.Slug, pkg.Paths.Dir, inner, ""),
			MediaPath: rel,
		}, nil
	}

	return Route{
		Kind:    RoutePage,
		Package: pkg,
		Context: previewctx.New(base, pkg.Slug, pkg.Paths.Dir, inner, r.PageSlug(pkg, inner)),
	}, nil
}

// PageSlug is the virtual page key of inner: the front page for the root,
// else the whole inner path normalized as one slug.
func (r *Resolver) PageSlug(pkg packages.Package, inner string) string {
	inner = strings.Trim(strings.TrimSpace(inner), "/")
	if inner == "" {
		if front := packages.NormalizeSlug(pkg.FrontPageSlug); front != "" {
			return front
		}
		return r.defaultPage
	}
	return packages.NormalizeSlug(inner)
}

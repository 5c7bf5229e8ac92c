package preview

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-showcase/internal/catalog"
	"github.com/goliatone/go-showcase/internal/content"
	"github.com/goliatone/go-showcase/internal/linkrewrite"
	"github.com/goliatone/go-showcase/internal/logging"
	"github.com/goliatone/go-showcase/internal/menus"
	"github.com/goliatone/go-showcase/internal/metrics"
	"github.com/goliatone/go-showcase/internal/overrides"
	"github.com/goliatone/go-showcase/internal/packages"
	"github.com/goliatone/go-showcase/internal/previewctx"
	"github.com/goliatone/go-showcase/pkg/interfaces"
)

// productSegment prefixes catalog item pages linked from product listings.
const productSegment = "product/"

// Materializer creates the ephemeral catalog of a demo.
type Materializer interface {
	Ensure(ctx context.Context, pc previewctx.Context) (catalog.Report, error)
}

// Metrics observes render durations.
type Metrics interface {
	ObserveRender(kind string, d time.Duration)
}

// Response is the outcome of one preview request. Media routes carry the
// resolved path and leave HTML empty.
type Response struct {
	Kind      RouteKind
	Status    int
	HTML      string
	Context   previewctx.Context
	Package   packages.Package
	MediaPath string
	Page      content.Page
}

// Status describes whether a path of a package can be previewed.
type Status struct {
	Known      bool   `json:"known"`
	Resolvable bool   `json:"resolvable"`
	PageSlug   string `json:"page_slug,omitempty"`
	PreviewURL string `json:"preview_url,omitempty"`
}

// WarmResult reports a catalog warm-up of one package.
type WarmResult struct {
	Report     catalog.Report `json:"report"`
	PreviewURL string         `json:"preview_url"`
}

// Service renders preview documents.
type Service struct {
	resolver     *Resolver
	content      *content.Renderer
	injector     *overrides.Injector
	menus        menus.Service
	materializer Materializer
	products     *catalog.Catalog
	rewriter     *linkrewrite.Rewriter
	menuLocation string
	publicHost   string
	logger       interfaces.Logger
	metrics      Metrics
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

func WithInjector(injector *overrides.Injector) ServiceOption {
	return func(s *Service) {
		if injector != nil {
			s.injector = injector
		}
	}
}

func WithMenus(svc menus.Service) ServiceOption {
	return func(s *Service) {
		if svc != nil {
			s.menus = svc
		}
	}
}

// WithMaterializer runs catalog materialization before every page render.
func WithMaterializer(m Materializer) ServiceOption {
	return func(s *Service) {
		s.materializer = m
	}
}

// WithProducts enables product pages under "product/{slug}".
func WithProducts(c *catalog.Catalog) ServiceOption {
	return func(s *Service) {
		s.products = c
	}
}

// WithRewriter sets the rewriter applied to the assembled document.
func WithRewriter(rw *linkrewrite.Rewriter) ServiceOption {
	return func(s *Service) {
		s.rewriter = rw
	}
}

func WithMenuLocation(location string) ServiceOption {
	return func(s *Service) {
		if location = strings.TrimSpace(location); location != "" {
			s.menuLocation = location
		}
	}
}

// WithPublicHost prefixes preview URLs returned by Inspect and Warm.
func WithPublicHost(host string) ServiceOption {
	return func(s *Service) {
		s.publicHost = strings.TrimRight(strings.TrimSpace(host), "/")
	}
}

func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m Metrics) ServiceOption {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

type noopMetrics struct{}

func (noopMetrics) ObserveRender(string, time.Duration) {}

// NewService wires the preview pipeline around resolver and renderer.
func NewService(resolver *Resolver, renderer *content.Renderer, opts ...ServiceOption) *Service {
	s := &Service{
		resolver:     resolver,
		content:      renderer,
		injector:     overrides.NewInjector(),
		menus:        menus.NewService(),
		menuLocation: menus.DefaultLocation,
		logger:       logging.NoOp(),
		metrics:      noopMetrics{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Render resolves rawPath under base and renders the page document.
func (s *Service) Render(ctx context.Context, base, rawPath string) (Response, error) {
	route, err := s.resolver.Resolve(ctx, base, rawPath)
	if err != nil {
		return Response{}, err
	}
	if route.Kind == RouteMedia {
		return Response{
			Kind:      RouteMedia,
			Status:    http.StatusOK,
			Context:   route.Context,
			Package:   route.Package,
			MediaPath: route.MediaPath,
		}, nil
	}

	start := time.Now()
	pc := route.Context
	logger := logging.WithPreviewContext(s.logger, pc.DemoSlug, pc.PageSlug, pc.InnerPath)

	if s.materializer != nil {
		if _, err := s.materializer.Ensure(ctx, pc); err != nil {
			if ctx.Err() != nil {
				return Response{}, ctx.Err()
			}
			logging.WithError(logger, err).Warn("preview.service.materialize_failed")
		}
	}

	set := s.injector.Load(ctx, pc.PackageDir)

	page, err := s.content.RenderPage(ctx, pc, route.Package, pc.PageSlug)
	if err != nil {
		return Response{}, err
	}
	status := http.StatusOK
	if !page.Found {
		page, err = s.renderProduct(ctx, pc)
		if err != nil {
			return Response{}, err
		}
	}
	if !page.Found {
		status = http.StatusNotFound
		page, err = s.notFoundPage(pc)
		if err != nil {
			return Response{}, err
		}
		logger.Debug("preview.service.page_not_found")
	}

	forest, err := s.menus.BuildTree(ctx, pc, s.menuLocation)
	if err != nil {
		if ctx.Err() != nil {
			return Response{}, ctx.Err()
		}
		logging.WithError(logger, err).Warn("preview.service.menu_failed")
		forest = nil
	}

	siteTitle := siteTitle(set, pc, route.Package)
	doc, err := renderDocument(documentData{
		Title:        documentTitle(page.Title, siteTitle),
		SiteTitle:    siteTitle,
		PageTitle:    page.Title,
		ShowTitle:    !page.Builder,
		HomeURL:      pc.URL(""),
		BodyClass:    bodyClass(pc, page, status),
		ArticleClass: "page page-" + pc.PageSlug,
		Head:         template.HTML(set.HeadMarkup(pc)),
		Menu:         template.HTML(s.menus.RenderHTML(pc, forest)),
		Content:      template.HTML(page.Content),
	})
	if err != nil {
		return Response{}, err
	}
	if s.rewriter != nil {
		doc = s.rewriter.RewriteHTML(pc, doc)
	}

	s.metrics.ObserveRender(metrics.KindPage, time.Since(start))
	logging.WithFields(logger, map[string]any{
		"status":   status,
		"builder":  page.Builder,
		"fallback": page.Fallback,
	}).Debug("preview.service.rendered")

	return Response{
		Kind:    RoutePage,
		Status:  status,
		HTML:    doc,
		Context: pc,
		Package: route.Package,
		Page:    page,
	}, nil
}

func (s *Service) renderProduct(ctx context.Context, pc previewctx.Context) (content.Page, error) {
	if s.products == nil || !strings.HasPrefix(pc.InnerPath, productSegment) {
		return content.Page{}, nil
	}
	item, err := s.products.Item(ctx, pc, strings.TrimPrefix(pc.InnerPath, productSegment))
	if err != nil {
		var notFound *catalog.NotFoundError
		if errors.As(err, &notFound) {
			return content.Page{}, nil
		}
		return content.Page{}, err
	}

	data := productData{
		Slug:        item.Slug,
		Title:       item.Title,
		Price:       item.Price,
		StockStatus: item.StockStatus,
		SKU:         item.SKU,
		Excerpt:     template.HTML(item.Excerpt),
		Content:     template.HTML(content.Autop(item.Content)),
	}
	if item.FeaturedImageID != nil {
		data.ImageURL = s.products.AttachmentURL(ctx, pc, *item.FeaturedImageID, "")
	}
	html, err := renderProduct(data)
	if err != nil {
		return content.Page{}, err
	}
	return content.Page{Found: true, Title: item.Title, Content: html}, nil
}

func (s *Service) notFoundPage(pc previewctx.Context) (content.Page, error) {
	html, err := renderNotFound(notFoundData{Path: "/" + pc.InnerPath, HomeURL: pc.URL("")})
	if err != nil {
		return content.Page{}, err
	}
	return content.Page{Title: "Page not found", Content: html}, nil
}

// Inspect reports whether inner resolves to a page of the package slug.
// Unknown packages are not an error.
func (s *Service) Inspect(ctx context.Context, base, slug, inner string) (Status, error) {
	route, err := s.resolver.Resolve(ctx, base, slug+"/"+strings.TrimLeft(inner, "/"))
	if err != nil {
		if errors.Is(err, ErrDemoNotFound) {
			return Status{}, nil
		}
		return Status{}, err
	}
	pc := route.Context
	status := Status{Known: true, PreviewURL: s.publicHost + pc.URL(pc.InnerPath)}
	if route.Kind == RouteMedia {
		status.PreviewURL = s.publicHost + pc.MediaURL(route.MediaPath)
		status.Resolvable = route.MediaPath != ""
		return status, nil
	}

	status.PageSlug = pc.PageSlug
	pages, err := s.content.Loader().Load(ctx, pc.PackageDir)
	if err != nil {
		return Status{}, err
	}
	_, status.Resolvable = pages.Get(pc.PageSlug)
	return status, nil
}

// Warm materializes the catalog of slug ahead of the first request.
func (s *Service) Warm(ctx context.Context, base, slug string) (WarmResult, error) {
	route, err := s.resolver.Resolve(ctx, base, slug)
	if err != nil {
		return WarmResult{}, err
	}
	pc := route.Context
	result := WarmResult{Report: catalog.Report{DemoSlug: pc.DemoSlug}, PreviewURL: s.publicHost + pc.URL("")}
	if s.materializer == nil {
		return result, nil
	}
	report, err := s.materializer.Ensure(ctx, pc)
	if err != nil {
		return WarmResult{}, err
	}
	result.Report = report
	return result, nil
}

// siteTitle lets a package rename itself through its exported options.
func siteTitle(set *overrides.Set, pc previewctx.Context, pkg packages.Package) string {
	if title, ok := set.Resolve(pc, "blogname", pkg.Title).(string); ok && strings.TrimSpace(title) != "" {
		return title
	}
	return pkg.Title
}

func bodyClass(pc previewctx.Context, page content.Page, status int) string {
	classes := []string{"showcase-preview", "showcase-demo-" + pc.DemoSlug}
	if status == http.StatusNotFound {
		classes = append(classes, "error404")
	} else {
		classes = append(classes, "page-"+pc.PageSlug)
	}
	if page.Builder {
		classes = append(classes, "elementor-page")
	}
	return strings.Join(classes, " ")
}

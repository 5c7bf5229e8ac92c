package packages

import (
	"context"
	"errors"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goliatone/go-showcase/internal/logging"
	"github.com/goliatone/go-showcase/internal/manifest"
	"github.com/goliatone/go-showcase/pkg/interfaces"
)

var coverCandidates = []string{"cover.jpg", "cover.jpeg", "cover.png", "cover.webp"}

// FileRepository reads one package per immediate subdirectory of baseDir.
type FileRepository struct {
	baseDir       string
	publicBaseURL string
	reader        manifest.Reader
	logger        interfaces.Logger
}

var _ Repository = (*FileRepository)(nil)

// FileRepositoryOption configures a FileRepository.
type FileRepositoryOption func(*FileRepository)

// WithLogger sets the repository logger.
func WithLogger(logger interfaces.Logger) FileRepositoryOption {
	return func(r *FileRepository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithPublicBaseURL sets the URL baseDir is served under. Cover URLs are
// only produced when it is set.
func WithPublicBaseURL(raw string) FileRepositoryOption {
	return func(r *FileRepository) {
		r.publicBaseURL = strings.TrimRight(strings.TrimSpace(raw), "/")
	}
}

// WithManifestCache reads manifests through cache.
func WithManifestCache(cache *ManifestCache) FileRepositoryOption {
	return func(r *FileRepository) {
		if cache != nil {
			r.reader = cache
		}
	}
}

// NewFileRepository constructs a filesystem package repository.
func NewFileRepository(baseDir string, opts ...FileRepositoryOption) *FileRepository {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		abs = filepath.Clean(baseDir)
	}
	repo := &FileRepository{
		baseDir: abs,
		reader:  manifest.OS,
		logger:  logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repo)
		}
	}
	return repo
}

func (r *FileRepository) BaseDir() string {
	return r.baseDir
}

// Reader exposes the manifest reader so collaborators share the cache.
func (r *FileRepository) Reader() manifest.Reader {
	return r.reader
}

// List returns every readable package sorted by title, then slug. A missing
// base directory yields an empty list.
func (r *FileRepository) List(ctx context.Context) ([]Package, error) {
	entries, err := os.ReadDir(r.baseDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Package{}, nil
		}
		return nil, err
	}

	out := make([]Package, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.IsDir() {
			continue
		}
		pkg, ok := r.readPackage(filepath.Join(r.baseDir, entry.Name()))
		if ok {
			out = append(out, pkg)
		}
	}

	slices.SortStableFunc(out, func(a, b Package) int {
		if c := strings.Compare(a.Title, b.Title); c != 0 {
			return c
		}
		return strings.Compare(a.Slug, b.Slug)
	})
	return out, nil
}

// Get returns the package whose normalized directory name equals slug.
func (r *FileRepository) Get(ctx context.Context, slug string) (Package, error) {
	normalized := NormalizeSlug(slug)
	if normalized == "" {
		return Package{}, &NotFoundError{Resource: "package", Key: slug}
	}

	if pkg, ok := r.readPackage(filepath.Join(r.baseDir, normalized)); ok && pkg.Slug == normalized {
		return pkg, nil
	}

	// Directory names are not always canonical (e.g. "Shop1"); scan for one
	// that normalizes to the requested slug.
	entries, err := os.ReadDir(r.baseDir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Package{}, err
	}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return Package{}, err
		}
		if !entry.IsDir() || NormalizeSlug(entry.Name()) != normalized {
			continue
		}
		if pkg, ok := r.readPackage(filepath.Join(r.baseDir, entry.Name())); ok {
			return pkg, nil
		}
	}
	return Package{}, &NotFoundError{Resource: "package", Key: normalized}
}

func (r *FileRepository) readPackage(dir string) (Package, bool) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return Package{}, false
	}

	slug := NormalizeSlug(filepath.Base(dir))
	if slug == "" {
		return Package{}, false
	}

	var raw map[string]any
	if err := manifest.ReadJSON(r.reader, dir, DescriptorFile, &raw); err != nil {
		if !manifest.IsMissing(err) {
			logging.WithError(logging.WithManifest(r.logger, dir, DescriptorFile), err).
				Debug("packages.repository.descriptor_skipped")
		}
		return Package{}, false
	}
	if raw == nil {
		return Package{}, false
	}

	pkg := Package{
		Slug:        slug,
		Title:       slug,
		Description: manifest.String(raw["description"]),
		Categories:  []string{},
		Meta:        manifest.Map(raw["meta"]),
		Paths: Paths{
			Dir:        dir,
			Descriptor: filepath.Join(dir, DescriptorFile),
		},
	}
	if title, ok := raw["title"]; ok && title != nil {
		pkg.Title = manifest.String(title)
	}

	var categories []string
	if list, ok := raw["categories"].([]any); ok {
		categories = manifest.Strings(list)
	} else if single, ok := raw["category"]; ok {
		categories = []string{manifest.String(single)}
	}
	for _, category := range categories {
		if normalized := NormalizeSlug(category); normalized != "" {
			pkg.Categories = append(pkg.Categories, normalized)
		}
	}

	pkg.FrontPageSlug = NormalizeSlug(manifest.FirstString(raw, "front_page_slug", "front_page"))

	declared, _ := raw["cover"].(string)
	pkg.Cover = r.resolveCover(dir, declared)
	if pkg.Cover.File != "" {
		pkg.Paths.CoverFile = filepath.Join(dir, filepath.FromSlash(pkg.Cover.File))
	}
	if pkg.Meta == nil {
		pkg.Meta = map[string]any{}
	}
	return pkg, true
}

func (r *FileRepository) resolveCover(dir, declared string) Cover {
	candidates := make([]string, 0, len(coverCandidates)+1)
	if trimmed := strings.TrimLeft(strings.TrimSpace(declared), "/\\"); trimmed != "" {
		candidates = append(candidates, trimmed)
	}
	candidates = append(candidates, coverCandidates...)

	for _, rel := range candidates {
		abs := filepath.Join(dir, filepath.FromSlash(rel))
		if !withinDir(dir, abs) {
			continue
		}
		info, err := os.Stat(abs)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		cover := Cover{File: rel}
		if r.publicBaseURL != "" {
			cover.URL = r.publicBaseURL + "/" + url.PathEscape(filepath.Base(dir)) + "/" + escapePath(rel)
		}
		return cover
	}
	return Cover{}
}

func escapePath(rel string) string {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

func withinDir(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Package catalog materializes the attachments and products of a package as
// demo scoped records so content can query them like a live store.
package catalog

import (
	"context"
	"errors"
	"mime"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/goliatone/go-showcase/internal/idmap"
	"github.com/goliatone/go-showcase/internal/logging"
	"github.com/goliatone/go-showcase/internal/manifest"
	"github.com/goliatone/go-showcase/internal/previewctx"
	showcasepackages "github.com/goliatone/go-showcase/packages"
	"github.com/goliatone/go-showcase/pkg/interfaces"
)

// Manifest files read by the materializer.
const (
	MediaFile    = "media.json"
	ProductsFile = "products.json"
)

// Materialization outcomes reported to metrics.
const (
	OutcomeCreated = "created"
	OutcomeReused  = "reused"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Metrics observes materialization outcomes.
type Metrics interface {
	ObserveMaterialized(kind, outcome string)
}

type noopMetrics struct{}

func (noopMetrics) ObserveMaterialized(string, string) {}

// Materializer creates the catalog records of a demo on first use.
type Materializer struct {
	repo      Repository
	ids       idmap.Store
	reader    manifest.Reader
	publicURL string
	logger    interfaces.Logger
	metrics   Metrics
	group     singleflight.Group
}

// MaterializerOption configures a Materializer.
type MaterializerOption func(*Materializer)

// WithReader sets the manifest reader.
func WithReader(reader manifest.Reader) MaterializerOption {
	return func(m *Materializer) {
		m.reader = manifest.Or(reader)
	}
}

// WithPublicURL prefixes attachment preview URLs with the host origin.
func WithPublicURL(raw string) MaterializerOption {
	return func(m *Materializer) {
		m.publicURL = strings.TrimRight(strings.TrimSpace(raw), "/")
	}
}

// WithLogger sets the materializer logger.
func WithLogger(logger interfaces.Logger) MaterializerOption {
	return func(m *Materializer) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMetrics sets the outcome recorder.
func WithMetrics(metrics Metrics) MaterializerOption {
	return func(m *Materializer) {
		if metrics != nil {
			m.metrics = metrics
		}
	}
}

// NewMaterializer constructs a Materializer over repo and the id map.
func NewMaterializer(repo Repository, ids idmap.Store, opts ...MaterializerOption) *Materializer {
	m := &Materializer{
		repo:    repo,
		ids:     ids,
		reader:  manifest.OS,
		logger:  logging.NoOp(),
		metrics: noopMetrics{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// ErrInactiveContext rejects materialization without an active preview.
var ErrInactiveContext = errors.New("catalog: preview context is not active")

// Ensure materializes the media and products manifests of the demo in pc.
// Existing records are reused, never updated. Concurrent calls for the same
// demo share one run.
func (m *Materializer) Ensure(ctx context.Context, pc previewctx.Context) (Report, error) {
	if !pc.Active || pc.DemoSlug == "" || pc.PackageDir == "" {
		return Report{}, ErrInactiveContext
	}
	key := pc.DemoSlug + "\x00" + pc.PackageDir
	v, err, _ := m.group.Do(key, func() (any, error) {
		// shared by every waiter, so one caller leaving must not cancel it
		return m.ensure(context.WithoutCancel(ctx), pc)
	})
	if err != nil {
		return Report{DemoSlug: pc.DemoSlug}, err
	}
	return v.(Report), nil
}

func (m *Materializer) ensure(ctx context.Context, pc previewctx.Context) (Report, error) {
	report := Report{DemoSlug: pc.DemoSlug}
	logger := logging.WithPreviewContext(m.logger, pc.DemoSlug, "", "")

	attachments, err := m.ensureAttachments(ctx, pc, logger, &report.Attachments)
	if err != nil {
		return report, err
	}
	if err := m.ensureItems(ctx, pc, logger, attachments, &report.Items); err != nil {
		return report, err
	}
	report.Failed = report.Attachments.Failed + report.Items.Failed

	logging.WithFields(logger, map[string]any{
		"attachments_created": report.Attachments.Created,
		"attachments_reused":  report.Attachments.Reused,
		"items_created":       report.Items.Created,
		"items_reused":        report.Items.Reused,
		"failed":              report.Failed,
	}).Debug("catalog.materializer.completed")
	return report, nil
}

func (m *Materializer) readItems(pc previewctx.Context, name string, logger interfaces.Logger) []any {
	var doc map[string]any
	if err := manifest.ReadJSON(m.reader, pc.PackageDir, name, &doc); err != nil {
		if !manifest.IsMissing(err) {
			logging.WithError(logging.WithManifest(logger, pc.PackageDir, name), err).Debug("catalog.materializer.manifest_skipped")
		}
		return nil
	}
	return manifest.List(doc["items"])
}

// ensureAttachments returns the old id to record id map of the demo.
func (m *Materializer) ensureAttachments(ctx context.Context, pc previewctx.Context, logger interfaces.Logger, counts *Counts) (map[int64]uuid.UUID, error) {
	out := map[int64]uuid.UUID{}
	for _, raw := range m.readItems(pc, MediaFile, logger) {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		entry := manifest.Map(raw)
		oldID, _ := manifest.Int64(entry["old_id"])
		rel := strings.TrimLeft(manifest.String(entry["rel_path"]), "/")
		if oldID <= 0 || rel == "" {
			m.count(counts, idmap.KindAttachment, OutcomeSkipped)
			continue
		}

		id, outcome, err := m.ensureAttachment(ctx, pc, oldID, rel, manifest.String(entry["title"]))
		if err != nil {
			logging.WithError(logging.WithFields(logger, map[string]any{"old_id": oldID}), err).
				Warn("catalog.materializer.attachment_failed")
			m.count(counts, idmap.KindAttachment, OutcomeFailed)
			continue
		}
		m.count(counts, idmap.KindAttachment, outcome)
		out[oldID] = id
	}
	return out, nil
}

func (m *Materializer) ensureAttachment(ctx context.Context, pc previewctx.Context, oldID int64, rel, title string) (uuid.UUID, string, error) {
	mapping, _, err := m.ids.Claim(ctx, pc.DemoSlug, idmap.KindAttachment, strconv.FormatInt(oldID, 10))
	if err != nil {
		return uuid.Nil, "", err
	}
	if _, err := m.repo.GetAttachment(ctx, mapping.RecordID); err == nil {
		return mapping.RecordID, OutcomeReused, nil
	} else if !isNotFound(err) {
		return uuid.Nil, "", err
	}

	if title == "" {
		title = path.Base(rel)
	}
	record := &Attachment{
		ID:         mapping.RecordID,
		DemoSlug:   pc.DemoSlug,
		OldID:      oldID,
		RelPath:    rel,
		Title:      title,
		MimeType:   mime.TypeByExtension(path.Ext(rel)),
		PreviewURL: m.publicURL + pc.MediaURL(rel),
	}
	created, err := m.repo.CreateAttachment(ctx, record)
	if err != nil {
		return uuid.Nil, "", err
	}
	if !created {
		return mapping.RecordID, OutcomeReused, nil
	}
	return mapping.RecordID, OutcomeCreated, nil
}

func (m *Materializer) ensureItems(ctx context.Context, pc previewctx.Context, logger interfaces.Logger, attachments map[int64]uuid.UUID, counts *Counts) error {
	for _, raw := range m.readItems(pc, ProductsFile, logger) {
		if err := ctx.Err(); err != nil {
			return err
		}
		entry := manifest.Map(raw)
		slug := showcasepackages.NormalizeSlug(manifest.String(entry["slug"]))
		if slug == "" {
			m.count(counts, idmap.KindCatalogItem, OutcomeSkipped)
			continue
		}

		outcome, err := m.ensureItem(ctx, pc, slug, entry, attachments)
		if err != nil {
			logging.WithError(logging.WithFields(logger, map[string]any{"slug": slug}), err).
				Warn("catalog.materializer.item_failed")
			m.count(counts, idmap.KindCatalogItem, OutcomeFailed)
			continue
		}
		m.count(counts, idmap.KindCatalogItem, outcome)
	}
	return nil
}

func (m *Materializer) ensureItem(ctx context.Context, pc previewctx.Context, slug string, entry map[string]any, attachments map[int64]uuid.UUID) (string, error) {
	mapping, _, err := m.ids.Claim(ctx, pc.DemoSlug, idmap.KindCatalogItem, slug)
	if err != nil {
		return "", err
	}
	if _, err := m.repo.GetItem(ctx, mapping.RecordID); err == nil {
		return OutcomeReused, nil
	} else if !isNotFound(err) {
		return "", err
	}

	record := buildItem(mapping.RecordID, pc.DemoSlug, slug, entry, attachments)
	created, err := m.repo.CreateItem(ctx, record)
	if err != nil {
		return "", err
	}
	if !created {
		return OutcomeReused, nil
	}
	return OutcomeCreated, nil
}

func buildItem(id uuid.UUID, demo, slug string, entry map[string]any, attachments map[int64]uuid.UUID) *Item {
	regular := manifest.String(entry["regular_price"])
	sale := manifest.String(entry["sale_price"])
	price := manifest.String(entry["price"])
	if price == "" {
		price = sale
	}
	if price == "" {
		price = regular
	}
	status := manifest.String(entry["stock_status"])
	if status == "" {
		status = StockInStock
	}
	title := manifest.String(entry["title"])
	if title == "" {
		title = slug
	}

	item := &Item{
		ID:           id,
		DemoSlug:     demo,
		Slug:         slug,
		Title:        title,
		Content:      manifest.String(entry["content"]),
		Excerpt:      manifest.String(entry["excerpt"]),
		RegularPrice: regular,
		SalePrice:    sale,
		Price:        price,
		StockStatus:  status,
		ManageStock:  manifest.String(entry["manage_stock"]) == "yes",
		SKU:          manifest.String(entry["sku"]),
		Categories:   normalizeTerms(entry, "product_cat", "categories"),
		Tags:         normalizeTerms(entry, "product_tag", "tags"),
		Preview:      true,
	}
	if stock, ok := manifest.Int64(entry["stock"]); ok {
		n := int(stock)
		item.Stock = &n
	}
	if oldID, ok := manifest.Int64(entry["featured_image_id"]); ok {
		if ref, found := attachments[oldID]; found {
			item.FeaturedImageID = &ref
		}
	}
	for _, oldID := range manifest.IDs(entry["gallery_image_ids"]) {
		if ref, found := attachments[oldID]; found {
			item.GalleryImageIDs = append(item.GalleryImageIDs, ref)
		}
	}
	return item
}

func normalizeTerms(entry map[string]any, keys ...string) []string {
	v, _ := manifest.First(entry, keys...)
	var out []string
	seen := map[string]bool{}
	for _, term := range manifest.Strings(v) {
		slug := showcasepackages.NormalizeSlug(term)
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true
		out = append(out, slug)
	}
	return out
}

func (m *Materializer) count(counts *Counts, kind, outcome string) {
	switch outcome {
	case OutcomeCreated:
		counts.Created++
	case OutcomeReused:
		counts.Reused++
	case OutcomeSkipped:
		counts.Skipped++
	case OutcomeFailed:
		counts.Failed++
	}
	m.metrics.ObserveMaterialized(kind, outcome)
}

func isNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

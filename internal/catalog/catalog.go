package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-showcase/internal/logging"
	"github.com/goliatone/go-showcase/internal/previewctx"
	showcasepackages "github.com/goliatone/go-showcase/packages"
	"github.com/goliatone/go-showcase/pkg/interfaces"
)

// Catalog answers demo scoped queries. Every read filters on the demo of the
// preview context and returns nothing when it is inactive.
type Catalog struct {
	repo   Repository
	logger interfaces.Logger
}

// NewCatalog constructs a query service over repo.
func NewCatalog(repo Repository, logger interfaces.Logger) *Catalog {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Catalog{repo: repo, logger: logger}
}

// ListItems returns the items of the active demo matching opts.
func (c *Catalog) ListItems(ctx context.Context, pc previewctx.Context, opts ListOptions) ([]Item, error) {
	if !pc.Active || pc.DemoSlug == "" {
		return nil, nil
	}
	records, err := c.repo.ListItems(ctx, pc.DemoSlug)
	if err != nil {
		return nil, err
	}
	category := showcasepackages.NormalizeSlug(opts.Category)
	tag := showcasepackages.NormalizeSlug(opts.Tag)

	out := make([]Item, 0, len(records))
	for _, record := range records {
		if record.DemoSlug != pc.DemoSlug {
			continue
		}
		if category != "" && !record.HasCategory(category) {
			continue
		}
		if tag != "" && !record.HasTag(tag) {
			continue
		}
		out = append(out, *record)
		if opts.Limit > 0 && len(out) >= opts.Limit {
			break
		}
	}
	return out, nil
}

// Item returns the item of the active demo with slug.
func (c *Catalog) Item(ctx context.Context, pc previewctx.Context, slug string) (*Item, error) {
	slug = showcasepackages.NormalizeSlug(slug)
	if !pc.Active || pc.DemoSlug == "" || slug == "" {
		return nil, &NotFoundError{Resource: "catalog item", Key: slug}
	}
	records, err := c.repo.ListItems(ctx, pc.DemoSlug)
	if err != nil {
		return nil, err
	}
	for _, record := range records {
		if record.Slug == slug && record.DemoSlug == pc.DemoSlug {
			return record, nil
		}
	}
	return nil, &NotFoundError{Resource: "catalog item", Key: slug}
}

// AttachmentURL returns the preview URL of attachment id when it belongs to
// the active demo, else fallback.
func (c *Catalog) AttachmentURL(ctx context.Context, pc previewctx.Context, id uuid.UUID, fallback string) string {
	if !pc.Active || pc.DemoSlug == "" || id == uuid.Nil {
		return fallback
	}
	record, err := c.repo.GetAttachment(ctx, id)
	if err != nil {
		if !isNotFound(err) {
			logging.WithError(c.logger, err).Debug("catalog.attachment_url.lookup_failed")
		}
		return fallback
	}
	if record.DemoSlug != pc.DemoSlug || strings.TrimSpace(record.PreviewURL) == "" {
		return fallback
	}
	return record.PreviewURL
}

// AttachmentsByOldID returns the attachments of the active demo with the given
// exported ids, in request order. Unknown ids are dropped.
func (c *Catalog) AttachmentsByOldID(ctx context.Context, pc previewctx.Context, oldIDs []int64) ([]Attachment, error) {
	if !pc.Active || pc.DemoSlug == "" || len(oldIDs) == 0 {
		return nil, nil
	}
	records, err := c.repo.ListAttachments(ctx, pc.DemoSlug, oldIDs)
	if err != nil {
		return nil, err
	}
	byOldID := make(map[int64]*Attachment, len(records))
	for _, record := range records {
		if record.DemoSlug == pc.DemoSlug {
			byOldID[record.OldID] = record
		}
	}
	out := make([]Attachment, 0, len(oldIDs))
	for _, id := range oldIDs {
		if record, ok := byOldID[id]; ok {
			out = append(out, *record)
		}
	}
	return out, nil
}

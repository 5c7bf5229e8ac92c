package builder

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"

	"github.com/goliatone/go-showcase/internal/idmap"
	"github.com/goliatone/go-showcase/internal/manifest"
)

// Store keeps the backing documents of builder layouts.
type Store interface {
	// Ensure returns the document for (demo, page), creating it through an
	// id map claim when absent. A changed payload replaces the stored one.
	Ensure(ctx context.Context, demo, page string, payload any, settings map[string]any) (*Document, error)
	Get(ctx context.Context, id uuid.UUID) (*Document, error)
}

// ErrInvalidScope rejects an Ensure without demo or page.
var ErrInvalidScope = goerrors.New("builder document requires demo and page", goerrors.CategoryBadInput).
	WithTextCode("BUILDER_SCOPE_INVALID")

func newDocument(mapping *idmap.Mapping, demo, page, payload string, settings map[string]any) *Document {
	doc := &Document{
		ID:       mapping.RecordID,
		DemoSlug: demo,
		PageSlug: page,
		Payload:  payload,
		Settings: settings,
	}
	if doc.Settings == nil {
		doc.Settings = map[string]any{}
	}
	doc.Title = manifest.FirstString(doc.Settings, "post_title", "title")
	return doc
}

func prepareEnsure(demo, page string, payload any) (string, string, string, error) {
	demo, page = strings.TrimSpace(demo), strings.TrimSpace(page)
	if demo == "" || page == "" {
		return "", "", "", ErrInvalidScope
	}
	text, err := NormalizePayload(payload)
	if err != nil {
		return "", "", "", err
	}
	return demo, page, text, nil
}

func cloneDocument(doc *Document) *Document {
	if doc == nil {
		return nil
	}
	cloned := *doc
	if doc.Settings != nil {
		cloned.Settings = make(map[string]any, len(doc.Settings))
		for k, v := range doc.Settings {
			cloned.Settings[k] = v
		}
	}
	return &cloned
}

package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/goliatone/go-showcase/internal/storage"
)

// Repository stores materialized records. Creates never overwrite: a second
// insert with the same id reports created=false.
type Repository interface {
	CreateAttachment(ctx context.Context, record *Attachment) (created bool, err error)
	GetAttachment(ctx context.Context, id uuid.UUID) (*Attachment, error)
	// ListAttachments returns the attachments of demo, restricted to oldIDs
	// when given.
	ListAttachments(ctx context.Context, demo string, oldIDs []int64) ([]*Attachment, error)

	CreateItem(ctx context.Context, record *Item) (created bool, err error)
	GetItem(ctx context.Context, id uuid.UUID) (*Item, error)
	// ListItems returns the items of demo ordered by slug.
	ListItems(ctx context.Context, demo string) ([]*Item, error)
}

// Tables returns the schema Migrate needs for catalog records.
func Tables() []storage.Table {
	return []storage.Table{
		{
			Model: (*Attachment)(nil),
			Indexes: []storage.Index{{
				Name:    "showcase_attachments_demo_idx",
				Columns: []string{"demo_slug", "old_id"},
			}},
		},
		{
			Model: (*Item)(nil),
			Indexes: []storage.Index{{
				Name:    "showcase_items_demo_idx",
				Columns: []string{"demo_slug", "slug"},
			}},
		},
	}
}

// NotFoundError is returned when a catalog record is missing.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

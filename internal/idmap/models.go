package idmap

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-showcase/internal/storage"
)

const (
	KindAttachment      = "attachment"
	KindCatalogItem     = "catalog_item"
	KindBuilderDocument = "builder_document"
)

// Mapping ties a logical key from a package manifest to the record
// materialized for it, scoped to one demo.
type Mapping struct {
	bun.BaseModel `bun:"table:showcase_id_map,alias:idm"`

	ID         uuid.UUID `bun:",pk,type:uuid" json:"id"`
	DemoSlug   string    `bun:"demo_slug,notnull" json:"demo_slug"`
	Kind       string    `bun:"kind,notnull" json:"kind"`
	LogicalKey string    `bun:"logical_key,notnull" json:"logical_key"`
	RecordID   uuid.UUID `bun:"record_id,notnull,type:uuid" json:"record_id"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// Tables returns the schema Migrate needs for the id map.
func Tables() []storage.Table {
	return []storage.Table{{
		Model: (*Mapping)(nil),
		Indexes: []storage.Index{{
			Name:    "showcase_id_map_scope_uidx",
			Columns: []string{"demo_slug", "kind", "logical_key"},
			Unique:  true,
		}},
	}}
}

// NotFoundError is returned when no mapping exists for a key.
type NotFoundError struct {
	DemoSlug string
	Kind     string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("id mapping %s/%s/%q not found", e.DemoSlug, e.Kind, e.Key)
}

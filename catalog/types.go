// Package catalog holds the records materialized from a package's media and
// product manifests. Every record is tagged with the demo it belongs to.
package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	StockInStock    = "instock"
	StockOutOfStock = "outofstock"
	StockBackorder  = "onbackorder"
)

// Attachment is a media file of a package addressable by its exported id.
type Attachment struct {
	bun.BaseModel `bun:"table:showcase_attachments,alias:att"`

	ID         uuid.UUID `bun:",pk,type:uuid" json:"id"`
	DemoSlug   string    `bun:"demo_slug,notnull" json:"demo_slug"`
	OldID      int64     `bun:"old_id,notnull" json:"old_id"`
	RelPath    string    `bun:"rel_path,notnull" json:"rel_path"`
	Title      string    `bun:"title" json:"title,omitempty"`
	MimeType   string    `bun:"mime_type" json:"mime_type,omitempty"`
	PreviewURL string    `bun:"preview_url,notnull" json:"preview_url"`
	CreatedAt  time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
}

// Item is a product exported with a package.
type Item struct {
	bun.BaseModel `bun:"table:showcase_items,alias:itm"`

	ID              uuid.UUID   `bun:",pk,type:uuid" json:"id"`
	DemoSlug        string      `bun:"demo_slug,notnull" json:"demo_slug"`
	Slug            string      `bun:"slug,notnull" json:"slug"`
	Title           string      `bun:"title,notnull" json:"title"`
	Content         string      `bun:"content" json:"content,omitempty"`
	Excerpt         string      `bun:"excerpt" json:"excerpt,omitempty"`
	RegularPrice    string      `bun:"regular_price" json:"regular_price,omitempty"`
	SalePrice       string      `bun:"sale_price" json:"sale_price,omitempty"`
	Price           string      `bun:"price" json:"price,omitempty"`
	StockStatus     string      `bun:"stock_status,notnull" json:"stock_status"`
	ManageStock     bool        `bun:"manage_stock,notnull,default:false" json:"manage_stock"`
	Stock           *int        `bun:"stock" json:"stock,omitempty"`
	SKU             string      `bun:"sku" json:"sku,omitempty"`
	Categories      []string    `bun:"categories,type:jsonb" json:"categories,omitempty"`
	Tags            []string    `bun:"tags,type:jsonb" json:"tags,omitempty"`
	FeaturedImageID *uuid.UUID  `bun:"featured_image_id,type:uuid" json:"featured_image_id,omitempty"`
	GalleryImageIDs []uuid.UUID `bun:"gallery_image_ids,type:jsonb" json:"gallery_image_ids,omitempty"`
	Preview         bool        `bun:"preview,notnull,default:true" json:"preview"`
	CreatedAt       time.Time   `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
}

// HasCategory reports whether slug is one of the item's categories.
func (i Item) HasCategory(slug string) bool {
	for _, c := range i.Categories {
		if c == slug {
			return true
		}
	}
	return false
}

// HasTag reports whether slug is one of the item's tags.
func (i Item) HasTag(slug string) bool {
	for _, t := range i.Tags {
		if t == slug {
			return true
		}
	}
	return false
}

// ListOptions filters a demo-scoped item listing. Zero values mean no filter.
type ListOptions struct {
	Category string
	Tag      string
	Limit    int
}

// Counts tallies one kind of record during materialization.
type Counts struct {
	Created int `json:"created"`
	Reused  int `json:"reused"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Report summarizes a materialization run for one demo.
type Report struct {
	DemoSlug    string `json:"demo_slug"`
	Attachments Counts `json:"attachments"`
	Items       Counts `json:"items"`
	Failed      int    `json:"failed"`
}

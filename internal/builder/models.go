// Package builder renders page-builder layouts exported with a package. Each
// layout is stored as a demo scoped document before it is rendered.
package builder

import (
	"encoding/json"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-showcase/internal/manifest"
	"github.com/goliatone/go-showcase/internal/storage"
)

// MetaKey is the page meta key holding the layout payload.
const MetaKey = "_elementor_data"

// SettingsMetaKey holds optional page level builder settings.
const SettingsMetaKey = "_elementor_page_settings"

// Document is the backing record of one page layout.
type Document struct {
	bun.BaseModel `bun:"table:showcase_builder_documents,alias:bd"`

	ID        uuid.UUID      `bun:",pk,type:uuid" json:"id"`
	DemoSlug  string         `bun:"demo_slug,notnull" json:"demo_slug"`
	PageSlug  string         `bun:"page_slug,notnull" json:"page_slug"`
	Title     string         `bun:"title" json:"title,omitempty"`
	Payload   string         `bun:"payload,type:text" json:"payload"`
	Settings  map[string]any `bun:"settings,type:jsonb" json:"settings,omitempty"`
	CreatedAt time.Time      `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
}

// Tables returns the schema Migrate needs for builder documents.
func Tables() []storage.Table {
	return []storage.Table{{
		Model: (*Document)(nil),
		Indexes: []storage.Index{{
			Name:    "showcase_builder_documents_page_idx",
			Columns: []string{"demo_slug", "page_slug"},
		}},
	}}
}

// Element is one node of a layout tree.
type Element struct {
	ID         string
	ElType     string
	WidgetType string
	Settings   map[string]any
	Elements   []Element
}

// UnmarshalJSON accepts settings exported as [] when empty.
func (e *Element) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID         any       `json:"id"`
		ElType     string    `json:"elType"`
		WidgetType string    `json:"widgetType"`
		Settings   any       `json:"settings"`
		Elements   []Element `json:"elements"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.ID = manifest.String(raw.ID)
	e.ElType = raw.ElType
	e.WidgetType = raw.WidgetType
	e.Settings = manifest.Map(raw.Settings)
	e.Elements = raw.Elements
	return nil
}

var (
	// ErrInvalidPayload marks a layout that is not a JSON element list.
	ErrInvalidPayload = goerrors.New("builder payload is not a valid element list", goerrors.CategoryValidation).
				WithTextCode("BUILDER_PAYLOAD_INVALID")
	// ErrEmptyDocument marks a layout without elements.
	ErrEmptyDocument = goerrors.New("builder document has no elements", goerrors.CategoryValidation).
				WithTextCode("BUILDER_DOCUMENT_EMPTY")
)

// NotFoundError is returned when a document id is unknown.
type NotFoundError struct {
	ID uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("builder document %s not found", e.ID)
}

// NormalizePayload turns a meta value into the stored JSON text. Strings are
// kept verbatim; decoded lists and objects are re-encoded.
func NormalizePayload(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", ErrInvalidPayload
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return "", goerrors.Wrap(err, goerrors.CategoryValidation, "builder payload encode failed")
		}
		return string(data), nil
	}
}

// ParseElements decodes a stored payload.
func ParseElements(payload string) ([]Element, error) {
	var elements []Element
	if err := json.Unmarshal([]byte(payload), &elements); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if len(elements) == 0 {
		return nil, ErrEmptyDocument
	}
	return elements, nil
}

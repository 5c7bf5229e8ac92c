package idmap

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-showcase/internal/identity"
)

// Store persists the demo scoped id map.
type Store interface {
	// Claim returns the mapping for (demo, kind, key), inserting it when
	// absent. created reports whether this call performed the insert. Two
	// concurrent claims for the same key observe the same mapping.
	Claim(ctx context.Context, demo, kind, key string) (mapping *Mapping, created bool, err error)
	Lookup(ctx context.Context, demo, kind, key string) (*Mapping, error)
	ListByDemo(ctx context.Context, demo, kind string) ([]*Mapping, error)
}

// newMapping builds the deterministic row for a key. Mapping and record ids
// only depend on the scope so every process derives the same values.
func newMapping(demo, kind, key string) *Mapping {
	return &Mapping{
		ID:         identity.MappingUUID(demo, kind, key),
		DemoSlug:   demo,
		Kind:       kind,
		LogicalKey: key,
		RecordID:   identity.RecordUUID(demo, kind, key),
		CreatedAt:  time.Now().UTC(),
	}
}

func normalizeScope(demo, kind, key string) (string, string, string) {
	return strings.TrimSpace(demo), strings.TrimSpace(kind), strings.TrimSpace(key)
}

// ErrInvalidScope rejects claims with an empty demo, kind or key.
var ErrInvalidScope = goerrors.New("id map scope requires demo, kind and key", goerrors.CategoryBadInput).
	WithTextCode("IDMAP_SCOPE_INVALID")

func validScope(demo, kind, key string) bool {
	return demo != "" && kind != "" && key != ""
}

func cloneMapping(m *Mapping) *Mapping {
	if m == nil {
		return nil
	}
	cloned := *m
	return &cloned
}

package identity

import (
	"strconv"
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must ensure key construction prevents cross-entity collisions (prefix by domain/type).
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// MappingUUID identifies the id map row claiming (demo, kind, key).
func MappingUUID(demo, kind, key string) uuid.UUID {
	return UUID("showcase:idmap:" + scope(demo, kind, key))
}

// RecordUUID identifies the record materialized for (demo, kind, key). Two
// processes racing on the same key derive the same id, so the second insert
// collides instead of creating a duplicate.
func RecordUUID(demo, kind, key string) uuid.UUID {
	return UUID("showcase:record:" + scope(demo, kind, key))
}

func AttachmentUUID(demo string, oldID int64) uuid.UUID {
	return RecordUUID(demo, "attachment", strconv.FormatInt(oldID, 10))
}

func CatalogItemUUID(demo, slug string) uuid.UUID {
	return RecordUUID(demo, "catalog_item", slug)
}

func BuilderDocumentUUID(demo, pageSlug string) uuid.UUID {
	return RecordUUID(demo, "builder_document", pageSlug)
}

func scope(demo, kind, key string) string {
	return strings.ToLower(strings.TrimSpace(demo)) + ":" +
		strings.ToLower(strings.TrimSpace(kind)) + ":" +
		strings.TrimSpace(key)
}

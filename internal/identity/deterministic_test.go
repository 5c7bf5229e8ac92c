package identity

import (
	"testing"

	"github.com/google/uuid"
)

func TestUUIDIsStable(t *testing.T) {
	first := UUID("showcase:record:shop1:attachment:12")
	second := UUID("showcase:record:shop1:attachment:12")
	if first != second {
		t.Fatalf("expected stable ids, got %s and %s", first, second)
	}
	if first == uuid.Nil {
		t.Fatal("expected non-nil id")
	}
}

func TestUUIDEmptyKey(t *testing.T) {
	if got := UUID("  "); got != uuid.Nil {
		t.Fatalf("expected nil uuid for blank key, got %s", got)
	}
}

func TestRecordIDsAreScopedPerDemoAndKind(t *testing.T) {
	a := AttachmentUUID("shop1", 12)
	b := AttachmentUUID("shop2", 12)
	c := RecordUUID("shop1", "catalog_item", "12")
	if a == b || a == c {
		t.Fatalf("expected distinct ids, got %s %s %s", a, b, c)
	}
	if MappingUUID("shop1", "attachment", "12") == a {
		t.Fatal("mapping and record ids must not collide")
	}
}

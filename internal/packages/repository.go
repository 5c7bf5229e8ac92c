package packages

import (
	"context"
	"fmt"
)

// Repository reads packages from storage. Implementations are read-only and
// safe for concurrent use.
type Repository interface {
	List(ctx context.Context) ([]Package, error)
	Get(ctx context.Context, slug string) (Package, error)
	BaseDir() string
}

// NotFoundError is returned when no package matches a slug.
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

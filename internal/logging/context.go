package logging

import (
	"context"
	"maps"

	"github.com/goliatone/go-showcase/pkg/interfaces"
)

type contextKey string

const contextFieldsKey contextKey = "showcase.logging.fields"

// ContextWithFields returns a context carrying structured logging fields.
// Fields already on the context are preserved; new values win on conflict.
func ContextWithFields(ctx context.Context, fields map[string]any) context.Context {
	if ctx == nil || len(fields) == 0 {
		return ctx
	}

	existing := ContextFields(ctx)
	merged := make(map[string]any, len(existing)+len(fields))
	maps.Copy(merged, existing)
	maps.Copy(merged, fields)
	return context.WithValue(ctx, contextFieldsKey, merged)
}

// ContextFields extracts previously annotated logging fields from the context.
// A copy is returned so callers can mutate it freely.
func ContextFields(ctx context.Context) map[string]any {
	if ctx == nil {
		return nil
	}
	fields, ok := ctx.Value(contextFieldsKey).(map[string]any)
	if !ok || len(fields) == 0 {
		return nil
	}
	return maps.Clone(fields)
}

// FromContext returns the logger enriched with fields stored on ctx.
func FromContext(ctx context.Context, logger interfaces.Logger) interfaces.Logger {
	if logger == nil {
		logger = NoOp()
	}
	if ctx == nil {
		return logger
	}
	return WithFields(logger.WithContext(ctx), ContextFields(ctx))
}

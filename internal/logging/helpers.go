package logging

import (
	"maps"

	"github.com/goliatone/go-showcase/pkg/interfaces"
)

// WithFields attaches structured fields to a logger when the implementation
// supports the optional FieldsLogger extension. Nil loggers and empty maps are
// returned untouched.
func WithFields(logger interfaces.Logger, fields map[string]any) interfaces.Logger {
	if logger == nil || len(fields) == 0 {
		return logger
	}

	if fieldsLogger, ok := logger.(interfaces.FieldsLogger); ok {
		copied := make(map[string]any, len(fields))
		maps.Copy(copied, fields)
		return fieldsLogger.WithFields(copied)
	}

	return logger
}

// WithError is shorthand for attaching an error field.
func WithError(logger interfaces.Logger, err error) interfaces.Logger {
	if err == nil {
		return logger
	}
	return WithFields(logger, map[string]any{"error": err})
}

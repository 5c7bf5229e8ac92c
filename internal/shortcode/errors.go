package shortcode

import goerrors "github.com/goliatone/go-errors"

var (
	ErrDuplicateDefinition = goerrors.New("Shortcode is already registered.", goerrors.CategoryValidation).
				WithTextCode("SHORTCODE_DUPLICATE")
	ErrInvalidDefinition = goerrors.New("Shortcode definition is invalid.", goerrors.CategoryValidation).
				WithTextCode("SHORTCODE_INVALID")
	// ErrUnknownShortcode is returned for names no definition or alias claims.
	ErrUnknownShortcode = goerrors.New("Unknown shortcode.", goerrors.CategoryNotFound).
				WithTextCode("SHORTCODE_UNKNOWN")
	ErrNotInitialised = goerrors.New("Shortcode service is not initialised.", goerrors.CategoryInternal).
				WithTextCode("SHORTCODE_NOT_INITIALISED")

	ErrUnknownParameter = goerrors.New("Unknown shortcode attribute.", goerrors.CategoryBadInput).
				WithTextCode("SHORTCODE_UNKNOWN_ATTRIBUTE")
	ErrMissingParameter = goerrors.New("Missing required shortcode attribute.", goerrors.CategoryBadInput).
				WithTextCode("SHORTCODE_MISSING_ATTRIBUTE")
	ErrParameterType = goerrors.New("Shortcode attribute has the wrong type.", goerrors.CategoryBadInput).
				WithTextCode("SHORTCODE_ATTRIBUTE_TYPE")
)

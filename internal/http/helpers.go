package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-showcase/internal/packages"
)

type errorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func joinPath(base, suffix string) string {
	trimmedBase := strings.Trim(strings.TrimSpace(base), "/")
	trimmedSuffix := strings.Trim(strings.TrimSpace(suffix), "/")
	switch {
	case trimmedBase == "" && trimmedSuffix == "":
		return "/"
	case trimmedBase == "":
		return "/" + trimmedSuffix
	case trimmedSuffix == "":
		return "/" + trimmedBase
	}
	return "/" + trimmedBase + "/" + trimmedSuffix
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status, payload := mapError(err)
	writeJSON(w, status, payload)
}

// writeTextError answers preview routes, which are browsed by people.
func writeTextError(w http.ResponseWriter, err error) {
	status, payload := mapError(err)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	msg := payload.Message
	if status == http.StatusInternalServerError || msg == "" {
		msg = http.StatusText(status)
	}
	_, _ = w.Write([]byte(msg + "\n"))
}

func mapError(err error) (int, errorResponse) {
	if err == nil {
		return http.StatusInternalServerError, errorResponse{Error: "unknown_error"}
	}

	var packageNotFound *packages.NotFoundError
	if errors.As(err, &packageNotFound) {
		return http.StatusNotFound, errorResponse{
			Error:   "not_found",
			Code:    "PACKAGE_NOT_FOUND",
			Message: packageNotFound.Error(),
		}
	}

	var categorized *goerrors.Error
	if errors.As(err, &categorized) {
		resp := errorResponse{Code: categorized.TextCode, Message: categorized.Message}
		switch {
		case goerrors.IsCategory(err, goerrors.CategoryNotFound):
			resp.Error = "not_found"
			return http.StatusNotFound, resp
		case goerrors.IsCategory(err, goerrors.CategoryValidation),
			goerrors.IsCategory(err, goerrors.CategoryBadInput):
			resp.Error = "bad_request"
			return http.StatusBadRequest, resp
		}
	}

	return http.StatusInternalServerError, errorResponse{
		Error:   "internal_error",
		Message: err.Error(),
	}
}

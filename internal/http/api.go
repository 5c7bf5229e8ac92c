package http

import (
	"net/http"
	"strings"

	"github.com/goliatone/go-showcase/internal/logging"
	"github.com/goliatone/go-showcase/internal/packages"
	"github.com/goliatone/go-showcase/internal/previewctx"
)

type packageResponse struct {
	packages.Package
	PreviewURL string `json:"preview_url"`
}

type packageListResponse struct {
	Packages []packageResponse `json:"packages"`
	Total    int               `json:"total"`
}

func (s *Server) registerAPIRoutes(mux *http.ServeMux) {
	root := s.apiBase
	mux.Handle("GET "+root, s.instrument(routeAPI, http.HandlerFunc(s.handlePackageList)))
	mux.Handle("GET "+root+"/{slug}", s.instrument(routeAPI, http.HandlerFunc(s.handlePackageGet)))
	mux.Handle("GET "+root+"/{slug}/status", s.instrument(routeAPI, http.HandlerFunc(s.handlePackageStatus)))
	mux.Handle("POST "+root+"/{slug}/warm", s.instrument(routeAPI, http.HandlerFunc(s.handlePackageWarm)))
}

func (s *Server) handlePackageList(w http.ResponseWriter, r *http.Request) {
	list, err := s.packages.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	category := packages.NormalizeSlug(r.URL.Query().Get("category"))
	out := packageListResponse{Packages: make([]packageResponse, 0, len(list))}
	for _, pkg := range list {
		if category != "" && !hasCategory(pkg, category) {
			continue
		}
		out.Packages = append(out.Packages, s.packageResponse(pkg))
	}
	out.Total = len(out.Packages)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePackageGet(w http.ResponseWriter, r *http.Request) {
	pkg, err := s.packages.Get(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.packageResponse(pkg))
}

func (s *Server) handlePackageStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.previews.Inspect(r.Context(), s.base, r.PathValue("slug"), r.URL.Query().Get("path"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handlePackageWarm(w http.ResponseWriter, r *http.Request) {
	result, err := s.previews.Warm(r.Context(), s.base, r.PathValue("slug"))
	if err != nil {
		logging.WithError(logging.FromContext(r.Context(), s.logger), err).Warn("http.api.warm_failed")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) packageResponse(pkg packages.Package) packageResponse {
	pc := previewctx.New(s.base, pkg.Slug, "", "", "")
	return packageResponse{Package: pkg, PreviewURL: s.publicHost + pc.URL("")}
}

func hasCategory(pkg packages.Package, category string) bool {
	for _, c := range pkg.Categories {
		if strings.EqualFold(c, category) {
			return true
		}
	}
	return false
}

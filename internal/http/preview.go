package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/goliatone/go-showcase/internal/logging"
	"github.com/goliatone/go-showcase/internal/metrics"
	"github.com/goliatone/go-showcase/internal/preview"
)

func (s *Server) registerPreviewRoutes(mux *http.ServeMux) {
	root := joinPath(s.base, "")
	handler := s.instrument(routePreview, http.HandlerFunc(s.handlePreview))
	// GET patterns also match HEAD.
	mux.Handle("GET "+root+"/{path...}", handler)
	mux.Handle("GET "+root, http.RedirectHandler(root+"/", http.StatusMovedPermanently))
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	rawPath := r.PathValue("path")
	if rawPath == "" {
		writeTextError(w, preview.ErrDemoNotFound)
		return
	}

	start := time.Now()
	resp, err := s.previews.Render(r.Context(), s.base, rawPath)
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		logging.WithError(logging.FromContext(r.Context(), s.logger), err).
			Debug("http.preview.render_failed")
		writeTextError(w, err)
		return
	}

	if resp.Kind == preview.RouteMedia {
		relabel(w, routeMedia)
		s.media.Serve(w, r, resp.Package.Paths.Dir, resp.MediaPath)
		s.metrics.ObserveRender(metrics.KindMedia, time.Since(start))
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("Content-Length", strconv.Itoa(len(resp.HTML)))
	h.Set("Cache-Control", "no-store")
	h.Set("X-Robots-Tag", "noindex, nofollow")
	h.Set("X-Showcase-Demo", resp.Context.DemoSlug)
	w.WriteHeader(resp.Status)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write([]byte(resp.HTML))
}

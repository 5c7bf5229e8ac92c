// Package http exposes the preview server routes.
//
// Routes:
//   - Preview pages and media: /{base}/{demo}/..., /{base}/{demo}/media/...
//   - Health: /healthz
//   - Metrics: /metrics (when a recorder is configured)
//   - Packages: /api/packages, /api/packages/{slug},
//     /api/packages/{slug}/status, /api/packages/{slug}/warm
//
// Server.Handler returns a plain http.Handler so hosts can mount it on their
// own mux.
package http

package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-showcase/internal/metrics"
	"github.com/goliatone/go-showcase/pkg/interfaces"
)

var _ interfaces.ShortcodeMetrics = (*metrics.Recorder)(nil)

func TestRecorderCountsSeries(t *testing.T) {
	reg := prom.NewRegistry()
	rec := metrics.NewRecorder(reg, "")

	rec.IncRequest("preview", 200)
	rec.IncRequest("preview", 200)
	rec.IncRequest("preview", 404)
	rec.ObserveRender(metrics.KindPage, 25*time.Millisecond)
	rec.ObserveMaterialized("attachment", "created")
	rec.ObserveRenderDuration("gallery", time.Millisecond)
	rec.IncrementRenderError("gallery")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) != 5 {
		t.Fatalf("expected 5 metric families, got %d", len(mfs))
	}

	counts := map[string]float64{}
	for _, mf := range mfs {
		if mf.GetName() != "showcase_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "status" {
					counts[label.GetValue()] = m.GetCounter().GetValue()
				}
			}
		}
	}
	if counts["200"] != 2 || counts["404"] != 1 {
		t.Fatalf("unexpected request counts %v", counts)
	}
}

func TestNilRecorderIsNoOp(t *testing.T) {
	var rec *metrics.Recorder
	rec.IncRequest("preview", 200)
	rec.ObserveRender(metrics.KindMedia, time.Second)
	rec.ObserveMaterialized("catalog_item", "reused")
	rec.ObserveRenderDuration("gallery", time.Second)
	rec.IncrementRenderError("gallery")
	if rec.Registry() != nil {
		t.Fatalf("expected nil registry")
	}
}

func TestHandlerServesRegistry(t *testing.T) {
	rec := metrics.NewRecorder(nil, "demo")
	rec.ObserveMaterialized("attachment", "skipped")

	w := httptest.NewRecorder()
	rec.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `demo_materialized_total{kind="attachment",outcome="skipped"} 1`) {
		t.Fatalf("expected materialized series in body, got %s", w.Body.String())
	}
}

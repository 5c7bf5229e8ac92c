package shortcode

import (
	"html/template"
	"time"

	"github.com/goliatone/go-showcase/pkg/interfaces"
)

func NoOpMetrics() interfaces.ShortcodeMetrics {
	return noopMetrics{}
}

type noopMetrics struct{}

func (noopMetrics) ObserveRenderDuration(string, time.Duration) {}
func (noopMetrics) IncrementRenderError(string)                 {}

// timed runs render and records its duration and any failure under the
// lowercased tag.
func timed(m interfaces.ShortcodeMetrics, name string, render func() (template.HTML, error)) (template.HTML, time.Duration, error) {
	start := time.Now()
	html, err := render()
	elapsed := time.Since(start)

	name = canonicalName(name)
	m.ObserveRenderDuration(name, elapsed)
	if err != nil {
		m.IncrementRenderError(name)
	}
	return html, elapsed, err
}

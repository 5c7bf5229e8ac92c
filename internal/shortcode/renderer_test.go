package shortcode

import (
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-showcase/pkg/interfaces"
)

func newBuiltInRenderer(t *testing.T, opts ...BuiltInOption) (*Registry, *Renderer) {
	t.Helper()
	registry := NewRegistry(NewValidator())
	if err := RegisterBuiltIns(registry, nil, opts...); err != nil {
		t.Fatalf("register built-ins: %v", err)
	}
	return registry, NewRenderer(registry, NewValidator())
}

func TestRenderer_RenderHandler(t *testing.T) {
	_, renderer := newBuiltInRenderer(t)

	html, err := renderer.Render(interfaces.ShortcodeContext{}, "youtube", map[string]any{"id": "dQw4w9WgXcQ", "start": "30"}, "")
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.Contains(string(html), "youtube.com/embed/dQw4w9WgXcQ?start=30") {
		t.Fatalf("expected iframe embed, got %s", html)
	}
}

func TestRenderer_RenderTemplatePassesInnerThrough(t *testing.T) {
	_, renderer := newBuiltInRenderer(t)

	html, err := renderer.Render(interfaces.ShortcodeContext{}, "alert", map[string]any{"type": "warning", "title": "<b>Hi</b>"}, "<em>careful</em>")
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	out := string(html)
	if !strings.Contains(out, "shortcode--alert-warning") || !strings.Contains(out, "<em>careful</em>") {
		t.Fatalf("unexpected alert markup %s", out)
	}
	if !strings.Contains(out, "&lt;b&gt;Hi&lt;/b&gt;") {
		t.Fatalf("expected attributes to be escaped, got %s", out)
	}
}

func TestRenderer_SanitizerBlocksScript(t *testing.T) {
	registry := NewRegistry(NewValidator())
	malicious := interfaces.ShortcodeDefinition{
		Name:     "bad",
		Schema:   interfaces.ShortcodeSchema{},
		Template: `<script>alert('xss')</script>`,
	}
	if err := registry.Register(malicious); err != nil {
		t.Fatalf("register: %v", err)
	}

	renderer := NewRenderer(registry, NewValidator())
	if _, err := renderer.Render(interfaces.ShortcodeContext{}, "bad", nil, ""); err == nil {
		t.Fatal("expected sanitizer error")
	}
}

func TestRenderer_RejectsEventHandlers(t *testing.T) {
	_, renderer := newBuiltInRenderer(t)
	if _, err := renderer.Render(interfaces.ShortcodeContext{}, "button", map[string]any{"onclick": "x()"}, "Go"); err == nil {
		t.Fatal("expected event handler attribute to be rejected")
	}
	if _, err := renderer.Render(interfaces.ShortcodeContext{}, "products", map[string]any{"on_sale": "true"}, ""); err != nil {
		t.Fatalf("expected on_sale to be accepted, got %v", err)
	}
}

func TestRenderer_UnknownShortcode(t *testing.T) {
	_, renderer := newBuiltInRenderer(t)
	if _, err := renderer.Render(interfaces.ShortcodeContext{}, "contact-form-7", nil, ""); !errors.Is(err, ErrUnknownShortcode) {
		t.Fatalf("expected ErrUnknownShortcode, got %v", err)
	}
}

func TestRenderer_ResolvesAliasesAndCachesTemplates(t *testing.T) {
	registry := NewRegistry(NewValidator())
	def := interfaces.ShortcodeDefinition{
		Name:       "note",
		Aliases:    []string{"vc_note"},
		AllowInner: true,
		Template:   `<aside class="note">{{.Inner}}</aside>`,
	}
	if err := registry.Register(def); err != nil {
		t.Fatalf("register: %v", err)
	}
	renderer := NewRenderer(registry, NewValidator())

	for _, name := range []string{"note", "VC_NOTE"} {
		html, err := renderer.Render(interfaces.ShortcodeContext{}, name, nil, "<p>hi</p>")
		if err != nil {
			t.Fatalf("Render(%s): %v", name, err)
		}
		if string(html) != `<aside class="note"><p>hi</p></aside>` {
			t.Fatalf("Render(%s) = %s", name, html)
		}
	}

	count := 0
	renderer.templates.Range(func(_, _ any) bool { count++; return true })
	if count != 1 {
		t.Fatalf("expected one compiled template, got %d", count)
	}
}

func TestRenderer_BrokenTemplate(t *testing.T) {
	registry := NewRegistry(nil)
	if err := registry.Register(interfaces.ShortcodeDefinition{Name: "broken", Template: "{{.Inner"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := NewRenderer(registry, nil).Render(interfaces.ShortcodeContext{}, "broken", nil, ""); !errors.Is(err, ErrInvalidDefinition) {
		t.Fatalf("expected ErrInvalidDefinition, got %v", err)
	}
}

package overrides

import (
	"context"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/goliatone/go-showcase/internal/previewctx"
	"github.com/goliatone/go-showcase/pkg/testsupport"
)

func loadFixtureSet(t *testing.T) (*Set, previewctx.Context) {
	t.Helper()
	pkg := testsupport.NewPackage(t, t.TempDir(), "shop1").
		Descriptor(map[string]any{"title": "Shop"}).
		JSON("theme_mods.json", map[string]any{
			"stylesheet":    "Astra-Child",
			"theme_mods":    map[string]any{"header_color": "#000", "logo": 12},
			"wp_css_custom": "body{color:red}",
		}).
		JSON("widgets.json", map[string]any{
			"sidebars_widgets": map[string]any{"sidebar-1": []any{"text-2"}},
			"widgets":          map[string]any{"Widget_Text": map[string]any{"2": map[string]any{"text": "hi"}}},
		}).
		JSON("elementor_options.json", map[string]any{"elementor_cpt_support": []any{"page"}, "shared": "options"}).
		JSON("elementor_kit.json", map[string]any{"options": map[string]any{"shared": "kit", "elementor_active_kit": 7}}).
		Zip("elementor_css.zip", map[string]string{
			"css/post-10.css": ".p10{}",
			"css/post-9.css":  ".p9{}",
			"css/global.css":  ".g{}",
			"readme.txt":      "ignored",
		})

	injector := NewInjector(WithHostStylesheet("hello-elementor"))
	set := injector.Load(context.Background(), pkg.Dir)
	return set, previewctx.New("demo", "shop1", pkg.Dir, "", "home")
}

func TestInjectorLoad(t *testing.T) {
	set, _ := loadFixtureSet(t)

	if set.Empty() {
		t.Fatalf("expected overrides to be loaded")
	}
	if set.CustomCSS != "body{color:red}" {
		t.Fatalf("unexpected custom css %q", set.CustomCSS)
	}
	if _, ok := set.WidgetOptions["widget_text"]; !ok {
		t.Fatalf("expected widget option names to be sanitized, got %v", set.WidgetOptions)
	}

	g := strings.Index(set.CompiledCSS, "css/global.css")
	p9 := strings.Index(set.CompiledCSS, "css/post-9.css")
	p10 := strings.Index(set.CompiledCSS, "css/post-10.css")
	if g < 0 || p9 < 0 || p10 < 0 || !(g < p9 && p9 < p10) {
		t.Fatalf("expected natural order global, post-9, post-10:\n%s", set.CompiledCSS)
	}
	if strings.Contains(set.CompiledCSS, "ignored") {
		t.Fatalf("non css entries must be skipped")
	}
}

func TestInjectorLoadToleratesMissingAndMalformed(t *testing.T) {
	pkg := testsupport.NewPackage(t, t.TempDir(), "bare").
		Descriptor(map[string]any{"title": "Bare"}).
		File("widgets.json", []byte("{not json")).
		File("elementor_css.zip", []byte("not a zip"))

	set := NewInjector().Load(context.Background(), pkg.Dir)
	if !set.Empty() {
		t.Fatalf("expected empty set, got %+v", set)
	}
	if len(set.Providers()) != 0 {
		t.Fatalf("expected no providers")
	}
}

func TestThemeModNames(t *testing.T) {
	set, _ := loadFixtureSet(t)
	got := set.ThemeModNames()
	want := []string{"theme_mods", "theme_mods_astra-child", "theme_mods_hello-elementor"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected names %v", got)
	}
}

func TestResolveMergesThemeMods(t *testing.T) {
	set, pc := loadFixtureSet(t)

	base := map[string]any{"header_color": "#fff", "footer": "x"}
	got, ok := set.Resolve(pc, "theme_mods_hello-elementor", base).(map[string]any)
	if !ok {
		t.Fatalf("expected map result")
	}
	if got["header_color"] != "#000" || got["footer"] != "x" {
		t.Fatalf("unexpected merge %v", got)
	}
	if base["header_color"] != "#fff" {
		t.Fatalf("base map must not be mutated")
	}

	if v, ok := set.ThemeMod(pc, "logo"); !ok || v != float64(12) {
		t.Fatalf("unexpected theme mod %v %v", v, ok)
	}
}

func TestResolveRegionsAndOptions(t *testing.T) {
	set, pc := loadFixtureSet(t)

	regions := set.Resolve(pc, "sidebars_widgets", map[string]any{"footer-1": []any{"search-1"}}).(map[string]any)
	if _, ok := regions["footer-1"]; !ok {
		t.Fatalf("expected base regions kept")
	}
	if !reflect.DeepEqual(regions["sidebar-1"], []any{"text-2"}) {
		t.Fatalf("expected sidebar replaced, got %v", regions["sidebar-1"])
	}

	// the kit map runs after the builder options map
	if got := set.Resolve(pc, "shared", "host"); got != "kit" {
		t.Fatalf("expected kit value to win, got %v", got)
	}
	if got := set.Resolve(pc, "Widget_Text", nil); got == nil {
		t.Fatalf("expected widget option for unsanitized name")
	}
	if got := set.Resolve(pc, "blogname", "Host"); got != "Host" {
		t.Fatalf("expected unknown option untouched, got %v", got)
	}
}

func TestProvidersInactiveContext(t *testing.T) {
	set, _ := loadFixtureSet(t)
	inactive := previewctx.Context{}

	if got := set.Resolve(inactive, "shared", "host"); got != "host" {
		t.Fatalf("expected base value when inactive, got %v", got)
	}
	for i, provider := range set.Providers() {
		if _, ok := provider(inactive, "theme_mods", nil); ok {
			t.Fatalf("provider %d answered while inactive", i)
		}
	}
	if markup := set.HeadMarkup(inactive); markup != "" {
		t.Fatalf("expected no head markup, got %q", markup)
	}
}

func TestHeadMarkup(t *testing.T) {
	set, pc := loadFixtureSet(t)
	set.CustomCSS = "a{}</STYLE><script>x</script>"

	markup := set.HeadMarkup(pc)
	for _, want := range []string{
		`<meta name="showcase-demo" content="shop1">`,
		`<style id="showcase-custom-css">`,
		`<style id="showcase-compiled-css">`,
		`a{}<\/STYLE>`,
	} {
		if !strings.Contains(markup, want) {
			t.Fatalf("expected %q in\n%s", want, markup)
		}
	}
	if strings.Count(strings.ToLower(markup), "</style>") != 2 {
		t.Fatalf("expected custom css to be unable to close its style tag:\n%s", markup)
	}
}

func TestSanitizeName(t *testing.T) {
	cases := map[string]string{
		"Widget_Text":    "widget_text",
		"theme mods!":    "thememods",
		"elementor-kit7": "elementor-kit7",
		"../../":         "",
	}
	for in, want := range cases {
		if got := SanitizeName(in); got != want {
			t.Fatalf("SanitizeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNaturalLess(t *testing.T) {
	names := []string{"post-10.css", "post-2.css", "global.css", "post-1.css", "post-02.css"}
	sort.Slice(names, func(a, b int) bool { return NaturalLess(names[a], names[b]) })
	want := []string{"global.css", "post-1.css", "post-2.css", "post-02.css", "post-10.css"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("unexpected order %v", names)
	}
}

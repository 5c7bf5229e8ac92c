package linkrewrite

import (
	"strings"
	"testing"

	"github.com/goliatone/go-showcase/internal/previewctx"
)

func testContext() previewctx.Context {
	return previewctx.New("demo", "shop1", "/pkgs/shop1", "about", "about")
}

func testRewriter() *Rewriter {
	return New("demo", "https://preview.example.com", "https://source.example.com")
}

func TestRewriteURL(t *testing.T) {
	r := testRewriter()
	pc := testContext()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"root relative", "/about/", "/demo/shop1/about/"},
		{"root", "/", "/demo/shop1/"},
		{"query kept", "/shop/?orderby=price#top", "/demo/shop1/shop/?orderby=price#top"},
		{"already namespaced", "/demo/shop1/contact/", "/demo/shop1/contact/"},
		{"other demo", "/demo/shop2/contact/", "/demo/shop1/contact/"},
		{"other demo root", "/demo/shop2", "/demo/shop1/"},
		{"bare namespace", "/demo/", "/demo/shop1/"},
		{"same host absolute", "https://preview.example.com/pricing/", "/demo/shop1/pricing/"},
		{"http same host", "http://preview.example.com/pricing/", "/demo/shop1/pricing/"},
		{"source absolute", "https://source.example.com/team/", "/demo/shop1/team/"},
		{"protocol relative source", "//source.example.com/team/", "/demo/shop1/team/"},
		{"source namespaced", "https://source.example.com/demo/shop1/x/", "/demo/shop1/x/"},
		{"legacy upload", "/wp-content/uploads/2023/01/a.jpg", "/demo/shop1/media/2023/01/a.jpg"},
		{"legacy upload on source", "https://source.example.com/wp-content/uploads/a.png?v=2", "/demo/shop1/media/a.png?v=2"},
		{"excluded admin", "/wp-admin/options.php", "/wp-admin/options.php"},
		{"excluded login", "/wp-login.php?redirect_to=x", "/wp-login.php?redirect_to=x"},
		{"excluded assets", "/wp-content/themes/x/style.css", "/wp-content/themes/x/style.css"},
		{"excluded api", "/api/packages", "/api/packages"},
		{"excluded metrics", "/metrics", "/metrics"},
		{"metrics lookalike", "/metricsboard/", "/demo/shop1/metricsboard/"},
		{"foreign absolute", "https://cdn.other.com/a.js", "https://cdn.other.com/a.js"},
		{"foreign protocol relative", "//fonts.googleapis.com/css", "//fonts.googleapis.com/css"},
		{"mailto", "mailto:hi@example.com", "mailto:hi@example.com"},
		{"tel", "tel:+123", "tel:+123"},
		{"javascript", "javascript:void(0)", "javascript:void(0)"},
		{"data", "data:image/png;base64,AAA", "data:image/png;base64,AAA"},
		{"fragment", "#main", "#main"},
		{"relative", "contact/", "contact/"},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := r.RewriteURL(pc, tc.in); got != tc.want {
				t.Fatalf("RewriteURL(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestRewriteURLInactiveContext(t *testing.T) {
	r := testRewriter()
	if got := r.RewriteURL(previewctx.Context{}, "/about/"); got != "/about/" {
		t.Fatalf("expected untouched url, got %q", got)
	}
}

func TestRewriteURLSourceWithPath(t *testing.T) {
	r := New("demo", "https://preview.example.com", "https://source.example.com/blog")
	pc := testContext()
	if got := r.RewriteURL(pc, "https://source.example.com/blog/post-1/"); got != "/demo/shop1/post-1/" {
		t.Fatalf("unexpected rewrite %q", got)
	}
	if got := r.RewriteURL(pc, "https://source.example.com/other/"); got != "https://source.example.com/other/" {
		t.Fatalf("paths outside the source base should stay, got %q", got)
	}
}

func TestRewriteHTML(t *testing.T) {
	r := testRewriter()
	pc := testContext()

	in := `<!DOCTYPE html><HTML><body class="x">` +
		`<a href="/about/" class="btn">About</a>` +
		`<A HREF="https://cdn.other.com/x">ext</A>` +
		`<img src="/wp-content/uploads/a.jpg" srcset="/wp-content/uploads/a.jpg 1x, /wp-content/uploads/a@2x.jpg 2x" alt="a">` +
		`<form action="/search/"><input type="text"/></form>` +
		`<script>var u = "/about/";</script>` +
		`<!-- <a href="/hidden/"> -->` +
		`</body></HTML>`

	out := r.RewriteHTML(pc, in)

	for _, want := range []string{
		`<a href="/demo/shop1/about/" class="btn">`,
		`<A HREF="https://cdn.other.com/x">ext</A>`,
		`src="/demo/shop1/media/a.jpg"`,
		`srcset="/demo/shop1/media/a.jpg 1x, /demo/shop1/media/a@2x.jpg 2x"`,
		`action="/demo/shop1/search/"`,
		`<script>var u = "/about/";</script>`,
		`<!-- <a href="/hidden/"> -->`,
		`<!DOCTYPE html><HTML><body class="x">`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q\n%s", want, out)
		}
	}
}

func TestRewriteHTMLIsIdempotent(t *testing.T) {
	r := testRewriter()
	pc := testContext()
	in := `<nav><a href="/">Home</a><a href="/demo/shop2/x/?a=1&amp;b=2">X</a><video poster="/p.jpg" data-src="/v.mp4"></video></nav>`

	once := r.RewriteHTML(pc, in)
	twice := r.RewriteHTML(pc, once)
	if once != twice {
		t.Fatalf("expected idempotent rewrite\nonce:  %s\ntwice: %s", once, twice)
	}
	if !strings.Contains(once, `href="/demo/shop1/x/?a=1&amp;b=2"`) {
		t.Fatalf("expected escaped query to survive, got %s", once)
	}
}

func TestRewriteHTMLUntouchedIsByteIdentical(t *testing.T) {
	r := testRewriter()
	in := "<p CLASS='lead'>Hello <b>world</b> &amp; friends</p>\n<a href='#top'>top</a>"
	if out := r.RewriteHTML(testContext(), in); out != in {
		t.Fatalf("expected byte identical output\nin:  %q\nout: %q", in, out)
	}
}

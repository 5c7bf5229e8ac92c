package shortcode

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-showcase/catalog"
	"github.com/goliatone/go-showcase/internal/manifest"
	"github.com/goliatone/go-showcase/internal/previewctx"
	"github.com/goliatone/go-showcase/pkg/interfaces"
)

// Catalog is the part of the demo catalog the gallery and products
// shortcodes read. Implementations scope every call to pc.
type Catalog interface {
	AttachmentsByOldID(ctx context.Context, pc previewctx.Context, oldIDs []int64) ([]catalog.Attachment, error)
	ListItems(ctx context.Context, pc previewctx.Context, opts catalog.ListOptions) ([]catalog.Item, error)
	AttachmentURL(ctx context.Context, pc previewctx.Context, id uuid.UUID, fallback string) string
}

type builtInConfig struct {
	catalog Catalog
}

// BuiltInOption configures the built-in catalogue.
type BuiltInOption func(*builtInConfig)

// WithCatalog backs the gallery and products shortcodes. Without it both
// render empty containers.
func WithCatalog(c Catalog) BuiltInOption {
	return func(cfg *builtInConfig) {
		cfg.catalog = c
	}
}

// BuiltInDefinitions returns the shortcodes exported sites commonly use.
func BuiltInDefinitions(opts ...BuiltInOption) []interfaces.ShortcodeDefinition {
	cfg := builtInConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return []interfaces.ShortcodeDefinition{
		alertDefinition(),
		buttonDefinition(),
		captionDefinition(),
		galleryDefinition(cfg.catalog),
		productsDefinition(cfg.catalog),
		youTubeDefinition(),
	}
}

// RegisterBuiltIns registers the built-ins on registry. When names is empty
// every built-in is registered.
func RegisterBuiltIns(registry interfaces.ShortcodeRegistry, names []string, opts ...BuiltInOption) error {
	if registry == nil {
		return fmt.Errorf("shortcode: registry is required")
	}

	available := make(map[string]interfaces.ShortcodeDefinition)
	ordered := BuiltInDefinitions(opts...)
	for _, def := range ordered {
		available[strings.ToLower(strings.TrimSpace(def.Name))] = def
	}

	if len(names) == 0 {
		for _, def := range ordered {
			if err := registry.Register(def); err != nil {
				return err
			}
		}
		return nil
	}

	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		def, ok := available[key]
		if !ok {
			return fmt.Errorf("shortcode: built-in %q not found", name)
		}
		if err := registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}

func alertDefinition() interfaces.ShortcodeDefinition {
	validateType := func(value any) error {
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("alert type must be string")
		}
		switch str {
		case "info", "success", "warning", "danger":
			return nil
		default:
			return fmt.Errorf("alert type %q not supported", str)
		}
	}

	return interfaces.ShortcodeDefinition{
		Name:        "alert",
		Description: "Displays contextual alert callouts",
		Category:    "content",
		AllowInner:  true,
		Schema: interfaces.ShortcodeSchema{
			Params: []interfaces.ShortcodeParam{
				{Name: "type", Type: interfaces.ShortcodeParamString, Default: "info", Validate: validateType},
				{Name: "title", Type: interfaces.ShortcodeParamString},
			},
			AllowUnknown: true,
		},
		Template: `<div class="shortcode shortcode--alert shortcode--alert-{{ .type }}" role="note">
  {{- if .title }}<div class="shortcode__title">{{ .title }}</div>{{ end -}}
  <div class="shortcode__body">{{ .Inner }}</div>
</div>`,
	}
}

func buttonDefinition() interfaces.ShortcodeDefinition {
	return interfaces.ShortcodeDefinition{
		Name:        "button",
		Description: "Call to action link styled as a button",
		Category:    "content",
		AllowInner:  true,
		Schema: interfaces.ShortcodeSchema{
			Params: []interfaces.ShortcodeParam{
				{Name: "url", Type: interfaces.ShortcodeParamString, Default: "#"},
				{Name: "text", Type: interfaces.ShortcodeParamString},
				{Name: "target", Type: interfaces.ShortcodeParamString},
				{Name: "style", Type: interfaces.ShortcodeParamString, Default: "primary"},
			},
			AllowUnknown: true,
		},
		Handler: func(ctx interfaces.ShortcodeContext, params map[string]any, inner string) (template.HTML, error) {
			href, _ := params["url"].(string)
			if href = strings.TrimSpace(href); href == "" {
				href = "#"
			}
			if ctx.Sanitizer != nil {
				if err := ctx.Sanitizer.ValidateURL(href); err != nil {
					return "", err
				}
			}
			label := template.HTML(template.HTMLEscapeString(manifest.String(params["text"])))
			if label == "" {
				label = template.HTML(strings.TrimSpace(inner))
			}
			return executeTemplate(buttonTemplate, map[string]any{
				"URL":    href,
				"Label":  label,
				"Target": manifest.String(params["target"]),
				"Style":  manifest.String(params["style"]),
			})
		},
	}
}

var buttonTemplate = template.Must(template.New("button").Parse(
	`<a class="shortcode shortcode--button button button--{{ .Style }}" href="{{ .URL }}"{{ if .Target }} target="{{ .Target }}"{{ if eq .Target "_blank" }} rel="noopener"{{ end }}{{ end }}>{{ .Label }}</a>`))

var captionImagePattern = regexp.MustCompile(`(?is)^\s*((?:<a\s[^>]+>\s*)?<img\s[^>]+>(?:\s*</a>)?)(.*)$`)

func captionDefinition() interfaces.ShortcodeDefinition {
	return interfaces.ShortcodeDefinition{
		Name:        "caption",
		Aliases:     []string{"wp_caption"},
		Description: "Image with a caption",
		Category:    "media",
		AllowInner:  true,
		Schema: interfaces.ShortcodeSchema{
			Params: []interfaces.ShortcodeParam{
				{Name: "id", Type: interfaces.ShortcodeParamString},
				{Name: "align", Type: interfaces.ShortcodeParamString, Default: "alignnone"},
				{Name: "width", Type: interfaces.ShortcodeParamInt, Default: 0},
				{Name: "caption", Type: interfaces.ShortcodeParamString},
			},
			AllowUnknown: true,
		},
		Handler: func(_ interfaces.ShortcodeContext, params map[string]any, inner string) (template.HTML, error) {
			image, text := strings.TrimSpace(inner), ""
			if m := captionImagePattern.FindStringSubmatch(inner); m != nil {
				image, text = m[1], strings.TrimSpace(m[2])
			}
			if caption := manifest.String(params["caption"]); caption != "" {
				text = template.HTMLEscapeString(caption)
			}
			width, _ := params["width"].(int)
			return executeTemplate(captionTemplate, map[string]any{
				"ID":      manifest.String(params["id"]),
				"Align":   manifest.String(params["align"]),
				"Width":   width,
				"Image":   template.HTML(image),
				"Caption": template.HTML(text),
			})
		},
	}
}

var captionTemplate = template.Must(template.New("caption").Parse(
	`<figure{{ if .ID }} id="{{ .ID }}"{{ end }} class="wp-caption {{ .Align }}"{{ if gt .Width 0 }} style="width: {{ .Width }}px"{{ end }}>{{ .Image }}{{ if .Caption }}<figcaption class="wp-caption-text">{{ .Caption }}</figcaption>{{ end }}</figure>`))

var youTubeIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{6,20}$`)

func youTubeDefinition() interfaces.ShortcodeDefinition {
	return interfaces.ShortcodeDefinition{
		Name:        "youtube",
		Description: "Embeds a responsive YouTube iframe player",
		Category:    "media",
		Schema: interfaces.ShortcodeSchema{
			Params: []interfaces.ShortcodeParam{
				{Name: "id", Type: interfaces.ShortcodeParamString},
				{Name: "url", Type: interfaces.ShortcodeParamString},
				{Name: "param1", Type: interfaces.ShortcodeParamString},
				{Name: "start", Type: interfaces.ShortcodeParamInt, Default: 0},
				{Name: "autoplay", Type: interfaces.ShortcodeParamBool, Default: false},
			},
			AllowUnknown: true,
		},
		Handler: func(_ interfaces.ShortcodeContext, params map[string]any, _ string) (template.HTML, error) {
			id := youTubeID(manifest.String(params["id"]), manifest.String(params["url"]), manifest.String(params["param1"]))
			if id == "" {
				return "", fmt.Errorf("youtube: video id is required")
			}
			src := "https://www.youtube.com/embed/" + id
			query := url.Values{}
			if start, _ := params["start"].(int); start > 0 {
				query.Set("start", fmt.Sprint(start))
			}
			if autoplay, _ := params["autoplay"].(bool); autoplay {
				query.Set("autoplay", "1")
			}
			if encoded := query.Encode(); encoded != "" {
				src += "?" + encoded
			}
			return executeTemplate(youTubeTemplate, map[string]any{"Src": src})
		},
	}
}

var youTubeTemplate = template.Must(template.New("youtube").Parse(
	`<div class="shortcode shortcode--youtube"><iframe src="{{ .Src }}" title="YouTube video" loading="lazy" allowfullscreen></iframe></div>`))

// youTubeID accepts a bare id or a watch, share or embed URL.
func youTubeID(candidates ...string) string {
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		if youTubeIDPattern.MatchString(candidate) {
			return candidate
		}
		u, err := url.Parse(candidate)
		if err != nil {
			continue
		}
		if v := u.Query().Get("v"); youTubeIDPattern.MatchString(v) {
			return v
		}
		segments := strings.Split(strings.Trim(u.Path, "/"), "/")
		if last := segments[len(segments)-1]; youTubeIDPattern.MatchString(last) {
			return last
		}
	}
	return ""
}

func galleryDefinition(source Catalog) interfaces.ShortcodeDefinition {
	return interfaces.ShortcodeDefinition{
		Name:        "gallery",
		Description: "Image grid built from exported attachment ids",
		Category:    "media",
		Schema: interfaces.ShortcodeSchema{
			Params: []interfaces.ShortcodeParam{
				{Name: "ids", Type: interfaces.ShortcodeParamString},
				{Name: "include", Type: interfaces.ShortcodeParamString},
				{Name: "columns", Type: interfaces.ShortcodeParamInt, Default: 3},
				{Name: "size", Type: interfaces.ShortcodeParamString, Default: "thumbnail"},
			},
			AllowUnknown: true,
		},
		Handler: func(ctx interfaces.ShortcodeContext, params map[string]any, _ string) (template.HTML, error) {
			ids := manifest.IDs(params["ids"])
			if len(ids) == 0 {
				ids = manifest.IDs(params["include"])
			}
			var images []catalog.Attachment
			pc := previewctx.New(ctx.PreviewBase, ctx.DemoSlug, "", "", "")
			if source != nil && len(ids) > 0 && pc.Active {
				found, err := source.AttachmentsByOldID(ctx.Context, pc, ids)
				if err != nil {
					return "", err
				}
				images = found
			}
			columns, _ := params["columns"].(int)
			if columns <= 0 {
				columns = 3
			}
			return executeTemplate(galleryTemplate, map[string]any{
				"Columns": columns,
				"Size":    manifest.String(params["size"]),
				"Images":  images,
			})
		},
	}
}

var galleryTemplate = template.Must(template.New("gallery").Parse(
	`<div class="gallery gallery-columns-{{ .Columns }} gallery-size-{{ .Size }}">` +
		`{{ range .Images }}<figure class="gallery-item"><a href="{{ .PreviewURL }}"><img src="{{ .PreviewURL }}" alt="{{ .Title }}" loading="lazy"></a></figure>{{ end }}` +
		`</div>`))

type productCard struct {
	Title string
	URL   string
	Image string
	Price string
	Sale  bool
	Stock string
}

func productsDefinition(source Catalog) interfaces.ShortcodeDefinition {
	return interfaces.ShortcodeDefinition{
		Name:        "products",
		Aliases:     []string{"recent_products", "featured_products"},
		Description: "Product grid from the demo catalog",
		Category:    "commerce",
		Schema: interfaces.ShortcodeSchema{
			Params: []interfaces.ShortcodeParam{
				{Name: "limit", Type: interfaces.ShortcodeParamInt, Default: 4},
				{Name: "columns", Type: interfaces.ShortcodeParamInt, Default: 4},
				{Name: "category", Type: interfaces.ShortcodeParamString},
				{Name: "tag", Type: interfaces.ShortcodeParamString},
			},
			AllowUnknown: true,
		},
		Handler: func(ctx interfaces.ShortcodeContext, params map[string]any, _ string) (template.HTML, error) {
			limit, _ := params["limit"].(int)
			columns, _ := params["columns"].(int)
			if columns <= 0 {
				columns = 4
			}
			pc := previewctx.New(ctx.PreviewBase, ctx.DemoSlug, "", "", "")

			var cards []productCard
			if source != nil && pc.Active {
				items, err := source.ListItems(ctx.Context, pc, catalog.ListOptions{
					Category: firstCSV(manifest.String(params["category"])),
					Tag:      firstCSV(manifest.String(params["tag"])),
					Limit:    limit,
				})
				if err != nil {
					return "", err
				}
				for _, item := range items {
					card := productCard{
						Title: item.Title,
						URL:   pc.URL("product/" + item.Slug),
						Price: item.Price,
						Sale:  item.SalePrice != "" && item.SalePrice == item.Price,
						Stock: item.StockStatus,
					}
					if item.FeaturedImageID != nil {
						card.Image = source.AttachmentURL(ctx.Context, pc, *item.FeaturedImageID, "")
					}
					cards = append(cards, card)
				}
			}
			return executeTemplate(productsTemplate, map[string]any{
				"Columns":  columns,
				"Products": cards,
			})
		},
	}
}

var productsTemplate = template.Must(template.New("products").Parse(
	`<ul class="products columns-{{ .Columns }}">` +
		`{{ range .Products }}<li class="product{{ if .Sale }} sale{{ end }} {{ .Stock }}"><a href="{{ .URL }}" class="woocommerce-loop-product__link">` +
		`{{ if .Image }}<img src="{{ .Image }}" alt="{{ .Title }}" loading="lazy">{{ end }}` +
		`<h2 class="woocommerce-loop-product__title">{{ .Title }}</h2>` +
		`{{ if .Price }}<span class="price">{{ .Price }}</span>{{ end }}</a></li>{{ end }}` +
		`</ul>`))

func firstCSV(value string) string {
	first, _, _ := strings.Cut(value, ",")
	return strings.TrimSpace(first)
}

func executeTemplate(tmpl *template.Template, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

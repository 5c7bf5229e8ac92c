package preview

import (
	"html/template"
	"strings"
)

const documentTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta name="robots" content="noindex,nofollow">
<title>{{.Title}}</title>
{{.Head}}</head>
<body class="{{.BodyClass}}">
<header class="site-header">
<a class="site-title" href="{{.HomeURL}}" rel="home">{{.SiteTitle}}</a>
{{- if .Menu}}
<nav class="main-navigation" aria-label="Primary"><ul id="primary-menu" class="menu">{{.Menu}}</ul></nav>
{{- end}}
</header>
<main id="main" class="site-main">
<article class="{{.ArticleClass}}">
{{- if .ShowTitle}}
<header class="entry-header"><h1 class="entry-title">{{.PageTitle}}</h1></header>
{{- end}}
<div class="entry-content">
{{.Content}}
</div>
</article>
</main>
<footer class="site-footer"><p class="showcase-notice">Preview of {{.SiteTitle}}</p></footer>
</body>
</html>
`

const notFoundTemplate = `<div class="showcase-not-found">
<p>The page <code>{{.Path}}</code> is not part of this demo.</p>
<p><a href="{{.HomeURL}}">Back to the demo home</a></p>
</div>`

const productTemplate = `<div class="product type-product product-{{.Slug}} {{.StockStatus}}">
{{- if .ImageURL}}
<div class="woocommerce-product-gallery"><img class="wp-post-image" src="{{.ImageURL}}" alt="{{.Title}}"></div>
{{- end}}
<div class="summary entry-summary">
{{- if .Price}}
<p class="price"><span class="woocommerce-Price-amount amount">{{.Price}}</span></p>
{{- end}}
{{- if .Excerpt}}
<div class="woocommerce-product-details__short-description">{{.Excerpt}}</div>
{{- end}}
{{- if .SKU}}
<div class="product_meta"><span class="sku_wrapper">SKU: <span class="sku">{{.SKU}}</span></span></div>
{{- end}}
</div>
{{- if .Content}}
<div class="woocommerce-Tabs-panel woocommerce-Tabs-panel--description">{{.Content}}</div>
{{- end}}
</div>`

var (
	documentTmpl = template.Must(template.New("document").Parse(documentTemplate))
	notFoundTmpl = template.Must(template.New("not_found").Parse(notFoundTemplate))
	productTmpl  = template.Must(template.New("product").Parse(productTemplate))
)

type documentData struct {
	Title        string
	SiteTitle    string
	PageTitle    string
	ShowTitle    bool
	HomeURL      string
	BodyClass    string
	ArticleClass string
	Head         template.HTML
	Menu         template.HTML
	Content      template.HTML
}

type notFoundData struct {
	Path    string
	HomeURL string
}

type productData struct {
	Slug        string
	Title       string
	Price       string
	StockStatus string
	SKU         string
	ImageURL    string
	Excerpt     template.HTML
	Content     template.HTML
}

func renderDocument(data documentData) (string, error) {
	return execute(documentTmpl, data)
}

func renderNotFound(data notFoundData) (string, error) {
	return execute(notFoundTmpl, data)
}

func renderProduct(data productData) (string, error) {
	return execute(productTmpl, data)
}

func execute(tmpl *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

func documentTitle(page, site string) string {
	switch {
	case page == "" || page == site:
		return site
	case site == "":
		return page
	}
	return page + " | " + site
}

package builder

import (
	"fmt"
	"html"
	"strings"

	"github.com/goliatone/go-showcase/internal/manifest"
)

func defaultWidgets() map[string]WidgetFunc {
	return map[string]WidgetFunc{
		"heading":     headingWidget,
		"text-editor": textEditorWidget,
		"image":       imageWidget,
		"button":      buttonWidget,
		"html":        htmlWidget,
		"spacer":      spacerWidget,
		"divider":     dividerWidget,
		"shortcode":   shortcodeWidget,
	}
}

var headingTags = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"div": true, "span": true, "p": true,
}

func headingWidget(_ *RenderContext, el Element) (string, error) {
	tag := strings.ToLower(manifest.String(el.Settings["header_size"]))
	if !headingTags[tag] {
		tag = "h2"
	}
	title := manifest.String(el.Settings["title"])
	if href, attrs := linkAttrs(el.Settings["link"]); href != "" {
		title = fmt.Sprintf(`<a href="%s"%s>%s</a>`, html.EscapeString(href), attrs, title)
	}
	return fmt.Sprintf(`<%s class="elementor-heading-title">%s</%s>`, tag, title, tag), nil
}

func textEditorWidget(rc *RenderContext, el Element) (string, error) {
	content, err := rc.Shortcodes(manifest.String(el.Settings["editor"]))
	if err != nil {
		return "", err
	}
	return content, nil
}

func imageWidget(_ *RenderContext, el Element) (string, error) {
	image := manifest.Map(el.Settings["image"])
	src := manifest.String(image["url"])
	if src == "" {
		return "", nil
	}
	alt := manifest.FirstString(image, "alt")
	if alt == "" {
		alt = manifest.String(el.Settings["image_alt"])
	}
	img := fmt.Sprintf(`<img src="%s" alt="%s" loading="lazy">`, html.EscapeString(src), html.EscapeString(alt))

	linkTo := manifest.String(el.Settings["link_to"])
	switch {
	case linkTo == "file":
		img = fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(src), img)
	case linkTo == "custom" || linkTo == "":
		if href, attrs := linkAttrs(el.Settings["link"]); href != "" {
			img = fmt.Sprintf(`<a href="%s"%s>%s</a>`, html.EscapeString(href), attrs, img)
		}
	}

	caption := manifest.String(el.Settings["caption"])
	if manifest.String(el.Settings["caption_source"]) == "none" || caption == "" {
		return img, nil
	}
	return fmt.Sprintf(`<figure class="wp-caption">%s<figcaption class="widget-image-caption wp-caption-text">%s</figcaption></figure>`,
		img, caption), nil
}

func buttonWidget(_ *RenderContext, el Element) (string, error) {
	text := manifest.String(el.Settings["text"])
	if text == "" {
		text = "Click here"
	}
	href, attrs := linkAttrs(el.Settings["link"])
	if href == "" {
		href = "#"
	}
	size := manifest.String(el.Settings["size"])
	if size == "" {
		size = "sm"
	}
	return fmt.Sprintf(`<div class="elementor-button-wrapper"><a class="elementor-button elementor-size-%s" href="%s"%s><span class="elementor-button-text">%s</span></a></div>`,
		html.EscapeString(size), html.EscapeString(href), attrs, text), nil
}

func htmlWidget(_ *RenderContext, el Element) (string, error) {
	return manifest.String(el.Settings["html"]), nil
}

func spacerWidget(_ *RenderContext, el Element) (string, error) {
	style := ""
	space := manifest.Map(el.Settings["space"])
	if size, ok := manifest.Int64(space["size"]); ok && size > 0 {
		unit := manifest.String(space["unit"])
		if unit == "" {
			unit = "px"
		}
		style = fmt.Sprintf(` style="height: %d%s"`, size, html.EscapeString(unit))
	}
	return fmt.Sprintf(`<div class="elementor-spacer"><div class="elementor-spacer-inner"%s></div></div>`, style), nil
}

func dividerWidget(_ *RenderContext, _ Element) (string, error) {
	return `<div class="elementor-divider"><span class="elementor-divider-separator"></span></div>`, nil
}

func shortcodeWidget(rc *RenderContext, el Element) (string, error) {
	content, err := rc.Shortcodes(manifest.String(el.Settings["shortcode"]))
	if err != nil {
		return "", err
	}
	return `<div class="elementor-shortcode">` + content + `</div>`, nil
}

// linkAttrs reads an exported link setting {url, is_external, nofollow}.
func linkAttrs(v any) (string, string) {
	link := manifest.Map(v)
	href := strings.TrimSpace(manifest.String(link["url"]))
	if href == "" {
		return "", ""
	}
	var attrs strings.Builder
	if isOn(link["is_external"]) {
		attrs.WriteString(` target="_blank"`)
	}
	if isOn(link["nofollow"]) {
		attrs.WriteString(` rel="nofollow"`)
	}
	return href, attrs.String()
}

func isOn(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "on" || t == "yes" || t == "true" || t == "1"
	default:
		return false
	}
}

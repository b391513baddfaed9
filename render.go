package mopage

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// richText is the sanitization policy for user-authored header and text
// content. Pages are shared by URL, so stored markup is treated as
// untrusted on every render.
var richText = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("style").OnElements("span", "p", "b", "i", "u", "strong", "em")
	return p
}()

// Render produces the HTML fragment for a single block. Rendering is
// total: unknown variants and mismatched content shapes produce a visible
// placeholder, never an error, so one bad block cannot blank a page.
func Render(b *Block) string {
	if b == nil {
		return ""
	}
	v, ok := variants[b.Type]
	if !ok {
		return fmt.Sprintf(`<div class="block block-unknown" data-block-id="%s">Unsupported block</div>`,
			html.EscapeString(b.ID))
	}
	return v.render(b)
}

// RenderPage renders the whole block sequence in order inside the page
// frame, applying the page-level background.
func RenderPage(d *Document) string {
	var sb strings.Builder
	bg := d.Global.BackgroundColor
	if bg == "" {
		bg = "#ffffff"
	}
	fmt.Fprintf(&sb, `<div class="page" style="background-color:%s">`, html.EscapeString(bg))
	for _, b := range d.Blocks {
		sb.WriteString(Render(b))
	}
	sb.WriteString(`</div>`)
	return sb.String()
}

// blockOpen emits the opening wrapper div with the block's style overrides
// inlined. Empty overrides fall back to inheriting values so the wrapper
// never fights the page styles.
func blockOpen(b *Block, class string) string {
	s := b.Style
	color := s.Color
	if color == "" {
		color = "inherit"
	}
	bg := s.BackgroundColor
	if bg == "" {
		bg = "transparent"
	}
	align := s.TextAlign
	if align == "" {
		align = "left"
	}
	weight := s.FontWeight
	if weight == "" {
		weight = "normal"
	}
	css := fmt.Sprintf("color:%s;background-color:%s;text-align:%s;font-weight:%s",
		html.EscapeString(color), html.EscapeString(bg),
		html.EscapeString(align), html.EscapeString(weight))
	if s.FontSize != "" {
		css += ";font-size:" + html.EscapeString(s.FontSize)
	}
	if s.Width != "" {
		css += ";width:" + html.EscapeString(s.Width)
	}
	return fmt.Sprintf(`<div class="block %s" data-block-id="%s" style="%s">`,
		class, html.EscapeString(b.ID), css)
}

func textOf(b *Block) string {
	s, _ := b.Content.(TextContent)
	return string(s)
}

// webURL admits only http(s) URLs into hrefs and embeds. Stored documents
// may predate dispatcher-side validation, so the renderer enforces the
// scheme on its own; anything else renders as an unset field.
func webURL(s string) string {
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	return s
}

// imageURL additionally admits the data URIs the image compressor emits
// and scheme-less relative paths; any other scheme is blanked.
func imageURL(s string) string {
	if strings.HasPrefix(s, "data:image/") {
		return s
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	return s
}

func renderHeader(b *Block) string {
	return blockOpen(b, "block-header") +
		"<h2>" + richText.Sanitize(textOf(b)) + "</h2></div>"
}

func renderText(b *Block) string {
	// Newlines in the editor become line breaks on the page.
	body := richText.Sanitize(textOf(b))
	body = strings.ReplaceAll(body, "\n", "<br>")
	return blockOpen(b, "block-text") + "<p>" + body + "</p></div>"
}

func renderImage(b *Block) string {
	src := html.EscapeString(imageURL(textOf(b)))
	img := fmt.Sprintf(`<img src="%s" alt="">`, src)
	if link := webURL(b.Link); link != "" {
		img = fmt.Sprintf(`<a href="%s" target="_blank" rel="noopener">%s</a>`,
			html.EscapeString(link), img)
	}
	return blockOpen(b, "block-image") + img + "</div>"
}

func renderVideo(b *Block) string {
	inner := `<div class="video-empty">No video URL</div>`
	if src := webURL(textOf(b)); src != "" {
		inner = fmt.Sprintf(`<iframe src="%s" frameborder="0" allowfullscreen></iframe>`,
			html.EscapeString(src))
	}
	return blockOpen(b, "block-video") + inner + "</div>"
}

func renderSlide(b *Block) string {
	sc, _ := b.Content.(SlideContent)
	sc = normalizeSlide(sc)
	var sb strings.Builder
	sb.WriteString(blockOpen(b, "block-slide"))
	fmt.Fprintf(&sb, `<div class="slide" data-slide-duration="%g" data-slide-count="%d">`,
		sc.DurationSeconds, len(sc.Images))
	if len(sc.Images) == 0 {
		sb.WriteString(`<div class="slide-empty">No images yet</div>`)
	}
	for i, src := range sc.Images {
		cls := "slide-frame"
		if i == 0 {
			cls += " active"
		}
		fmt.Fprintf(&sb, `<img class="%s" data-slide-index="%d" src="%s" alt="">`,
			cls, i, html.EscapeString(imageURL(src)))
	}
	// Navigation only makes sense with something to navigate between.
	if len(sc.Images) > 1 {
		sb.WriteString(`<button class="slide-nav slide-prev" data-slide-nav="prev">&#8249;</button>`)
		sb.WriteString(`<button class="slide-nav slide-next" data-slide-nav="next">&#8250;</button>`)
	}
	sb.WriteString("</div></div>")
	return sb.String()
}

func renderGallery(b *Block) string {
	gc, _ := b.Content.(GalleryContent)
	var sb strings.Builder
	sb.WriteString(blockOpen(b, "block-gallery"))
	sb.WriteString(`<div class="gallery">`)
	for _, src := range gc {
		fmt.Fprintf(&sb, `<img src="%s" alt="">`, html.EscapeString(imageURL(src)))
	}
	sb.WriteString("</div></div>")
	return sb.String()
}

func renderSchedule(b *Block) string {
	sc, _ := b.Content.(ScheduleContent)
	start := sc.Start
	if start == "" {
		start = "not set"
	}
	end := sc.End
	if end == "" {
		end = "not set"
	}
	return blockOpen(b, "block-schedule") +
		fmt.Sprintf(`<div class="schedule"><strong>%s</strong><div class="schedule-time">%s &ndash; %s</div></div>`,
			html.EscapeString(sc.Title), html.EscapeString(start), html.EscapeString(end)) +
		"</div>"
}

func renderList(b *Block) string {
	lc, _ := b.Content.(ListContent)
	var sb strings.Builder
	sb.WriteString(blockOpen(b, "block-list"))
	sb.WriteString("<ul>")
	for _, it := range lc {
		fmt.Fprintf(&sb, `<li><span class="list-label">%s</span><span class="list-value">%s</span></li>`,
			html.EscapeString(it.Label), html.EscapeString(it.Value))
	}
	sb.WriteString("</ul></div>")
	return sb.String()
}

func renderMap(b *Block) string {
	mc, _ := b.Content.(MapContent)
	q := url.QueryEscape(mc.Address)
	google := "https://www.google.com/maps/search/?api=1&query=" + q
	naver := "https://map.naver.com/v5/search/" + url.PathEscape(mc.Address)
	return blockOpen(b, "block-map") +
		fmt.Sprintf(`<div class="map"><strong>%s</strong><div class="map-address">%s</div>`+
			`<a href="%s" target="_blank" rel="noopener">Google Maps</a> `+
			`<a href="%s" target="_blank" rel="noopener">Naver Map</a></div>`,
			html.EscapeString(mc.Title), html.EscapeString(mc.Address),
			html.EscapeString(google), html.EscapeString(naver)) +
		"</div>"
}

func renderLink(b *Block) string {
	lc, _ := b.Content.(LinkContent)
	attrs := ""
	if hover := b.Style.HoverBackgroundColor; hover != "" {
		attrs = fmt.Sprintf(` data-hover-bg="%s"`, html.EscapeString(hover))
	}
	return blockOpen(b, "block-link") +
		fmt.Sprintf(`<a class="link-button" href="%s" target="_blank" rel="noopener"%s>%s</a>`,
			html.EscapeString(webURL(lc.URL)), attrs, html.EscapeString(lc.Text)) +
		"</div>"
}

func renderDivider(b *Block) string {
	return blockOpen(b, "block-divider") + "<hr></div>"
}

package render

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ZaguanLabs/polyglot"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLRenderer renders results as HTML fragments for a page.
type HTMLRenderer struct {
	trustedAnalysis bool
}

// HTMLOption configures the HTML renderer.
type HTMLOption func(*HTMLRenderer)

// WithTrustedAnalysis renders analysis HTML exactly as the backend sent it.
// Only use this when the backend is known to produce safe markup.
func WithTrustedAnalysis() HTMLOption {
	return func(r *HTMLRenderer) {
		r.trustedAnalysis = true
	}
}

// NewHTMLRenderer creates a new HTML renderer. Analysis HTML is sanitized
// unless WithTrustedAnalysis is given.
func NewHTMLRenderer(opts ...HTMLOption) *HTMLRenderer {
	r := &HTMLRenderer{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Translations renders one translation-item block per pair:
//
//	<div class="translation-item" lang="ru" dir="ltr">
//	  <div class="translation-lang">RU</div>
//	  <div class="translation-text">Привет</div>
//	</div>
//
// Text is escaped.
func (r *HTMLRenderer) Translations(items []Translation) (string, error) {
	var b strings.Builder
	for _, t := range items {
		item := element(atom.Div, "translation-item",
			html.Attribute{Key: "lang", Val: t.Language},
			html.Attribute{Key: "dir", Val: polyglot.GetDirection(t.Language)},
		)
		label := element(atom.Div, "translation-lang")
		label.AppendChild(&html.Node{Type: html.TextNode, Data: polyglot.LanguageLabel(t.Language)})
		text := element(atom.Div, "translation-text")
		text.AppendChild(&html.Node{Type: html.TextNode, Data: t.Text})
		item.AppendChild(label)
		item.AppendChild(text)

		if err := html.Render(&b, item); err != nil {
			return "", &polyglot.RenderError{Message: "failed to serialize translation", Cause: err, ContentType: "translation"}
		}
	}
	return b.String(), nil
}

// Analysis renders the backend's analysis fragment. Unless trusted, blocked
// elements, event handler attributes and script URLs are removed.
func (r *HTMLRenderer) Analysis(fragment string) (string, error) {
	if r.trustedAnalysis {
		return fragment, nil
	}
	return SanitizeFragment(fragment)
}

// SanitizeFragment strips active content from an HTML fragment.
func SanitizeFragment(fragment string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", &polyglot.RenderError{Message: "failed to parse HTML", Cause: err, ContentType: "analysis"}
	}

	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		n := s.Get(0)
		if BlockedTags[strings.ToLower(n.Data)] {
			s.Remove()
			return
		}
		n.Attr = safeAttrs(n.Attr)
	})

	out, err := doc.Find("body").Html()
	if err != nil {
		return "", &polyglot.RenderError{Message: "failed to serialize HTML", Cause: err, ContentType: "analysis"}
	}
	return strings.TrimSpace(out), nil
}

// safeAttrs drops event handlers, inline styles and script URLs.
func safeAttrs(attrs []html.Attribute) []html.Attribute {
	kept := attrs[:0]
	for _, a := range attrs {
		key := strings.ToLower(a.Key)
		if strings.HasPrefix(key, "on") || key == "style" || key == "srcdoc" {
			continue
		}
		if urlAttrs[key] && unsafeURL(a.Val) {
			continue
		}
		kept = append(kept, a)
	}
	return kept
}

func unsafeURL(val string) bool {
	v := strings.ToLower(strings.Map(func(r rune) rune {
		if r <= ' ' {
			return -1
		}
		return r
	}, val))
	return strings.HasPrefix(v, "javascript:") || strings.HasPrefix(v, "vbscript:") ||
		(strings.HasPrefix(v, "data:") && !strings.HasPrefix(v, "data:image/"))
}

func element(a atom.Atom, class string, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: a,
		Data:     a.String(),
		Attr:     append([]html.Attribute{{Key: "class", Val: class}}, attrs...),
	}
}

// Verify HTMLRenderer implements Renderer
var _ Renderer = (*HTMLRenderer)(nil)

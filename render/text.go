package render

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ZaguanLabs/polyglot"
	"golang.org/x/net/html"
)

// blockTags start a new line when converting HTML to text.
var blockTags = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "header": true,
	"footer": true, "ul": true, "ol": true, "table": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true, "dl": true, "dt": true, "dd": true,
}

var blankLines = regexp.MustCompile(`\n{3,}`)

// TextRenderer renders results as plain text for a terminal.
type TextRenderer struct {
	names bool
}

// NewTextRenderer creates a text renderer. With names set, translation
// labels include the language's English name ("RU (Russian)").
func NewTextRenderer(names bool) *TextRenderer {
	return &TextRenderer{names: names}
}

// Translations renders each pair as a label line followed by the indented text.
func (r *TextRenderer) Translations(items []Translation) (string, error) {
	var b strings.Builder
	for i, t := range items {
		if i > 0 {
			b.WriteString("\n")
		}
		label := polyglot.LanguageLabel(t.Language)
		if r.names {
			label = fmt.Sprintf("%s (%s)", label, polyglot.GetLanguageName(t.Language))
		}
		b.WriteString(label)
		b.WriteString("\n")
		for _, line := range strings.Split(t.Text, "\n") {
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}

// Analysis converts the analysis fragment to readable text. Active content
// is dropped first, so scripts never leak into the output.
func (r *TextRenderer) Analysis(fragment string) (string, error) {
	clean, err := SanitizeFragment(fragment)
	if err != nil {
		return "", err
	}
	return HTMLToText(clean)
}

// HTMLToText flattens an HTML fragment into text with line breaks at block
// boundaries and bullets for list items.
func HTMLToText(fragment string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", &polyglot.RenderError{Message: "failed to parse HTML", Cause: err, ContentType: "analysis"}
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(collapseSpace(n.Data))
			return
		case html.ElementNode:
			tag := strings.ToLower(n.Data)
			if BlockedTags[tag] {
				return
			}
			switch {
			case tag == "br":
				b.WriteString("\n")
			case tag == "li":
				b.WriteString("\n• ")
			case blockTags[tag]:
				b.WriteString("\n")
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
			if blockTags[tag] {
				b.WriteString("\n")
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	for _, n := range doc.Find("body").Nodes {
		walk(n)
	}

	lines := strings.Split(b.String(), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	text := blankLines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(text), nil
}

// collapseSpace folds runs of whitespace into one space, as a browser would.
func collapseSpace(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		if s != "" {
			return " "
		}
		return ""
	}
	out := strings.Join(fields, " ")
	if first := s[0]; first == ' ' || first == '\n' || first == '\t' || first == '\r' {
		out = " " + out
	}
	if last := s[len(s)-1]; last == ' ' || last == '\n' || last == '\t' || last == '\r' {
		out += " "
	}
	return out
}

// Verify TextRenderer implements Renderer
var _ Renderer = (*TextRenderer)(nil)

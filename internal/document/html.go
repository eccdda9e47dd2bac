package document

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// glyphWidth approximates the advance of one character as a fraction of
// the font size. MuPDF HTML output positions lines, not glyphs.
const glyphWidth = 0.5

var styleProperty = regexp.MustCompile(`([a-z-]+)\s*:\s*(-?[0-9.]+)pt`)

// parseStyle returns the point-valued properties of an inline style
func parseStyle(style string) map[string]float64 {
	props := make(map[string]float64)
	for _, m := range styleProperty.FindAllStringSubmatch(style, -1) {
		if v, err := strconv.ParseFloat(m[2], 64); err == nil {
			props[m[1]] = v
		}
	}
	return props
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// parseHTMLWords turns MuPDF page HTML into words with estimated boxes.
// Each absolutely positioned <p> is one physical line.
func parseHTMLWords(body string) ([]Word, error) {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil, err
	}

	var words []Word
	line := 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.P {
			words = append(words, lineWords(n, line)...)
			line++
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return words, nil
}

func lineWords(p *html.Node, line int) []Word {
	props := parseStyle(attr(p, "style"))
	top, left := props["top"], props["left"]
	size := fontSize(p)
	if size == 0 {
		size = props["line-height"]
	}
	if size == 0 {
		return nil
	}

	var words []Word
	x := left
	advance := size * glyphWidth
	for _, text := range strings.Fields(extractText(p)) {
		width := float64(utf8.RuneCountInString(text)) * advance
		words = append(words, Word{
			Text: text,
			Box:  Rect{X: x, Y: top, Width: width, Height: size},
			Line: line,
		})
		x += width + advance
	}
	return words
}

// fontSize returns the first font-size set on a descendant span
func fontSize(n *html.Node) float64 {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if v, ok := parseStyle(attr(c, "style"))["font-size"]; ok && v > 0 {
			return v
		}
		if v := fontSize(c); v > 0 {
			return v
		}
	}
	return 0
}

func extractText(n *html.Node) string {
	var sb strings.Builder
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	return strings.TrimSpace(sb.String())
}

package scanning

import (
	"image"
	"strings"
)

type lineKey struct {
	block, paragraph, line int
}

// GroupWords groups words by physical line, in order of first appearance.
// A line box spans the smallest left and top of its words, the tallest word
// and the sum of word widths, which approximates the line extent without
// counting inter-word gaps.
func GroupWords(words []Word) []Line {
	index := make(map[lineKey]int)
	var lines []Line
	var texts [][]string
	var widths []int

	for _, w := range words {
		text := strings.TrimSpace(w.Text)
		if text == "" {
			continue
		}
		key := lineKey{w.Block, w.Paragraph, w.Line}
		i, ok := index[key]
		if !ok {
			i = len(lines)
			index[key] = i
			lines = append(lines, Line{Box: w.Box, Block: w.Block, Number: w.Line})
			texts = append(texts, nil)
			widths = append(widths, 0)
		}
		texts[i] = append(texts[i], text)
		widths[i] += w.Box.Dx()

		b := lines[i].Box
		minX := min(b.Min.X, w.Box.Min.X)
		minY := min(b.Min.Y, w.Box.Min.Y)
		height := max(b.Dy(), w.Box.Dy())
		lines[i].Box = image.Rect(minX, minY, minX+widths[i], minY+height)
	}

	for i := range lines {
		lines[i].Text = strings.Join(texts[i], " ")
	}
	return lines
}

// PlainText joins line texts with newlines
func PlainText(lines []Line) string {
	texts := make([]string, 0, len(lines))
	for _, l := range lines {
		texts = append(texts, l.Text)
	}
	return strings.Join(texts, "\n")
}

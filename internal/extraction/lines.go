package extraction

import (
	"image"

	"github.com/zombor/stamp-extractor/internal/document"
	"github.com/zombor/stamp-extractor/internal/scanning"
	"github.com/zombor/stamp-extractor/internal/stamp"
)

// pointsPerInch is the PDF user-space resolution
const pointsPerInch = 72

// textLayerLines converts text-layer words to lines in pixels at dpi,
// keeping only lines that touch window
func textLayerLines(words []document.Word, dpi float64, window stamp.BoundingBox) []stamp.Line {
	scale := dpi / pointsPerInch
	scanned := make([]scanning.Word, 0, len(words))
	for _, w := range words {
		b := w.Box.Scale(scale)
		scanned = append(scanned, scanning.Word{
			Text: w.Text,
			Box:  image.Rect(int(b.X), int(b.Y), int(b.X+b.Width+0.5), int(b.Y+b.Height+0.5)),
			Line: w.Line,
		})
	}

	win := window.Rect()
	var lines []stamp.Line
	for _, l := range toStampLines(scanning.GroupWords(scanned)) {
		if l.Box.Rect().Overlaps(win) {
			l.Number = len(lines)
			lines = append(lines, l)
		}
	}
	return lines
}

// toStampLines converts OCR lines to extractor input
func toStampLines(in []scanning.Line) []stamp.Line {
	out := make([]stamp.Line, 0, len(in))
	for _, l := range in {
		out = append(out, stamp.Line{
			Text:   l.Text,
			Box:    stamp.BoxFromRect(l.Box),
			Block:  l.Block,
			Number: l.Number,
		})
	}
	return out
}

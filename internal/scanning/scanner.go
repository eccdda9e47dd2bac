package scanning

import (
	"context"
	"image"
)

// Mode selects the page segmentation used when recognizing a crop
type Mode int

const (
	// ModeSparse finds as much text as possible in no particular order.
	// Suited to seals where text is curved, rotated and widely spaced.
	ModeSparse Mode = iota
	// ModeBlock assumes a single uniform block of text
	ModeBlock
)

// String returns the mode name
func (m Mode) String() string {
	switch m {
	case ModeSparse:
		return "sparse"
	case ModeBlock:
		return "block"
	default:
		return "unknown"
	}
}

// ParseMode converts a mode name to a Mode
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "sparse", "":
		return ModeSparse, true
	case "block":
		return ModeBlock, true
	default:
		return ModeSparse, false
	}
}

// Word is a single recognized token with its position in the image.
// Block, Paragraph and Line identify the physical line it belongs to.
type Word struct {
	Text      string
	Box       image.Rectangle
	Block     int
	Paragraph int
	Line      int
}

// Line is a recognized line of text
type Line struct {
	Text   string
	Box    image.Rectangle
	Block  int
	Number int
}

// Engine defines the interface for OCR operations
type Engine interface {
	// Name identifies the engine in logs
	Name() string
	// RecognizeText returns the plain text found in img
	RecognizeText(ctx context.Context, img image.Image, mode Mode) (string, error)
	// RecognizeLines returns the lines found in img with their boxes
	RecognizeLines(ctx context.Context, img image.Image, mode Mode) ([]Line, error)
	// Close releases engine resources
	Close() error
}

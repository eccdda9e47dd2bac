// Package document opens uploaded drawings and exposes their pages as
// rasters and, for PDFs, as positioned text-layer words.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"strings"
)

// ErrPageOutOfRange is returned when a page index is not in the document
var ErrPageOutOfRange = errors.New("page out of range")

// Rect is an axis-aligned rectangle in PDF points
type Rect struct {
	X, Y, Width, Height float64
}

// Scale multiplies every coordinate by f
func (r Rect) Scale(f float64) Rect {
	return Rect{X: r.X * f, Y: r.Y * f, Width: r.Width * f, Height: r.Height * f}
}

// Word is a text-layer token. Line numbers the physical line it sits on.
type Word struct {
	Text string
	Box  Rect
	Line int
}

// Document is an opened multi-page drawing
type Document interface {
	// PageCount returns the number of pages
	PageCount() int
	// PageSize returns the page width and height in points
	PageSize(page int) (width, height float64, err error)
	// Render rasterizes a page at dpi
	Render(page int, dpi float64) (image.Image, error)
	// Words returns the native text-layer words of a page, if any
	Words(page int) ([]Word, error)
	// Close releases the document
	Close() error
}

// Open detects the document kind from its bytes and content type
func Open(data []byte, contentType string) (Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("opening document: empty upload")
	}
	if IsPDF(data, contentType) {
		return OpenPDF(data)
	}
	return OpenImage(data, contentType)
}

// IsPDF reports whether the upload is a PDF
func IsPDF(data []byte, contentType string) bool {
	if bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("%PDF")) {
		return true
	}
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	return mimeType == "application/pdf"
}

func checkPage(page, count int) error {
	if page < 0 || page >= count {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrPageOutOfRange, page, count)
	}
	return nil
}

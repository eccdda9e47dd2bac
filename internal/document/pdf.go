package document

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// PDF is a document decoded by MuPDF
type PDF struct {
	doc *fitz.Document
}

// OpenPDF opens a PDF from memory
func OpenPDF(data []byte) (*PDF, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	if doc.NumPage() == 0 {
		doc.Close()
		return nil, fmt.Errorf("opening PDF: document has no pages")
	}
	return &PDF{doc: doc}, nil
}

// PageCount returns the number of pages
func (p *PDF) PageCount() int {
	return p.doc.NumPage()
}

// PageSize returns the page width and height in points
func (p *PDF) PageSize(page int) (float64, float64, error) {
	if err := checkPage(page, p.PageCount()); err != nil {
		return 0, 0, err
	}
	b, err := p.doc.Bound(page)
	if err != nil {
		return 0, 0, fmt.Errorf("bounding page %d: %w", page, err)
	}
	return float64(b.Dx()), float64(b.Dy()), nil
}

// Render rasterizes a page at dpi
func (p *PDF) Render(page int, dpi float64) (image.Image, error) {
	if err := checkPage(page, p.PageCount()); err != nil {
		return nil, err
	}
	img, err := p.doc.ImageDPI(page, dpi)
	if err != nil {
		return nil, fmt.Errorf("rendering page %d: %w", page, err)
	}
	return img, nil
}

// Words returns the text-layer words of a page. Flat scans return none.
func (p *PDF) Words(page int) ([]Word, error) {
	if err := checkPage(page, p.PageCount()); err != nil {
		return nil, err
	}
	body, err := p.doc.HTML(page, false)
	if err != nil {
		return nil, fmt.Errorf("reading text layer of page %d: %w", page, err)
	}
	words, err := parseHTMLWords(body)
	if err != nil {
		return nil, fmt.Errorf("parsing text layer of page %d: %w", page, err)
	}
	return words, nil
}

// Close closes the document
func (p *PDF) Close() error {
	return p.doc.Close()
}

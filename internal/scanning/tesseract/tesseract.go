// Package tesseract provides a local OCR engine backed by libtesseract.
package tesseract

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/zombor/stamp-extractor/internal/scanning"
)

// Tesseract implements scanning.Engine using the gosseract client.
// A fresh client is created per call so the engine is safe for concurrent use.
type Tesseract struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

// New creates a Tesseract engine for the given languages (default "eng")
func New(languages ...string) *Tesseract {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &Tesseract{languages: languages, clientFactory: gosseract.NewClient}
}

// Name returns the engine name
func (t *Tesseract) Name() string { return "tesseract" }

// RecognizeText returns the plain text found in img
func (t *Tesseract) RecognizeText(ctx context.Context, img image.Image, mode scanning.Mode) (string, error) {
	c, err := t.client(ctx, img, mode)
	if err != nil {
		return "", err
	}
	defer c.Close()

	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// RecognizeLines returns recognized lines with boxes, grouped from word boxes
func (t *Tesseract) RecognizeLines(ctx context.Context, img image.Image, mode scanning.Mode) ([]scanning.Line, error) {
	c, err := t.client(ctx, img, mode)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	boxes, err := c.GetBoundingBoxesVerbose()
	if err != nil {
		return nil, fmt.Errorf("recognize words: %w", err)
	}

	words := make([]scanning.Word, 0, len(boxes))
	for _, b := range boxes {
		words = append(words, scanning.Word{
			Text:      b.Word,
			Box:       b.Box,
			Block:     b.BlockNum,
			Paragraph: b.ParNum,
			Line:      b.LineNum,
		})
	}
	return scanning.GroupWords(words), nil
}

// Close is a no-op; clients are released after every call
func (t *Tesseract) Close() error { return nil }

func (t *Tesseract) client(ctx context.Context, img image.Image, mode scanning.Mode) (*gosseract.Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := scanning.EncodePNG(img)
	if err != nil {
		return nil, err
	}

	c := t.clientFactory()
	if err := c.SetLanguage(t.languages...); err != nil {
		c.Close()
		return nil, fmt.Errorf("set languages: %w", err)
	}
	if err := c.SetPageSegMode(pageSegMode(mode)); err != nil {
		c.Close()
		return nil, fmt.Errorf("set page segmentation: %w", err)
	}
	if err := c.SetImageFromBytes(data); err != nil {
		c.Close()
		return nil, fmt.Errorf("set image: %w", err)
	}
	return c, nil
}

func pageSegMode(mode scanning.Mode) gosseract.PageSegMode {
	if mode == scanning.ModeBlock {
		return gosseract.PSM_SINGLE_BLOCK
	}
	return gosseract.PSM_SPARSE_TEXT
}

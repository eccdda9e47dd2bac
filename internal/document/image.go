package document

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"strings"

	"github.com/gen2brain/heic"
	"golang.org/x/image/draw"
)

// ImageDPI is the resolution assumed for photo and scan uploads
const ImageDPI = 150

// Image is a single raster treated as a one-page document without text
type Image struct {
	img image.Image
}

// OpenImage decodes a JPEG, PNG, GIF or HEIC upload
func OpenImage(data []byte, contentType string) (*Image, error) {
	var img image.Image
	var err error

	// Check for HEIC/HEIF format (common on iPhones) - Go's standard image package doesn't support it
	if isHEICFormat(data) || isHEICMimeType(contentType) {
		img, err = heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
	} else {
		img, _, err = image.Decode(bytes.NewReader(data))
		if err != nil {
			if strings.Contains(err.Error(), "unknown format") {
				return nil, fmt.Errorf("unsupported format. Supported formats: PDF, JPEG, PNG, GIF, HEIC, HEIF. Error: %w", err)
			}
			return nil, fmt.Errorf("decoding image: %w", err)
		}
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("decoding image: image is empty")
	}
	return &Image{img: img}, nil
}

// PageCount returns 1
func (d *Image) PageCount() int { return 1 }

// PageSize returns the image size in points at ImageDPI
func (d *Image) PageSize(page int) (float64, float64, error) {
	if err := checkPage(page, 1); err != nil {
		return 0, 0, err
	}
	b := d.img.Bounds()
	return float64(b.Dx()) * 72 / ImageDPI, float64(b.Dy()) * 72 / ImageDPI, nil
}

// Render returns the image resampled from ImageDPI to dpi
func (d *Image) Render(page int, dpi float64) (image.Image, error) {
	if err := checkPage(page, 1); err != nil {
		return nil, err
	}
	if dpi <= 0 {
		return nil, fmt.Errorf("rendering image: invalid dpi %v", dpi)
	}

	b := d.img.Bounds()
	f := dpi / ImageDPI
	w, h := max(1, int(float64(b.Dx())*f+0.5)), max(1, int(float64(b.Dy())*f+0.5))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), d.img, b.Min, draw.Src)
		return dst, nil
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), d.img, b, draw.Src, nil)
	return dst, nil
}

// Words returns no words; images have no text layer
func (d *Image) Words(page int) ([]Word, error) {
	return nil, checkPage(page, 1)
}

// Close is a no-op
func (d *Image) Close() error { return nil }

// isHEICFormat checks if the image data is in HEIC/HEIF format
// HEIC files typically start with specific magic bytes
func isHEICFormat(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	// ftyp box at offset 4 with a HEIC-related brand
	if string(data[4:8]) == "ftyp" {
		brand := string(data[8:12])
		if brand == "heic" || brand == "heif" || brand == "mif1" || brand == "msf1" {
			return true
		}
	}
	return false
}

// isHEICMimeType checks if the MIME type indicates HEIC/HEIF format
func isHEICMimeType(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	return strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}

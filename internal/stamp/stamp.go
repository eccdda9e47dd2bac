package stamp

import "image"

// BoundingBox is an axis-aligned box in pixel coordinates
type BoundingBox struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// BoxFromRect converts an image.Rectangle to a BoundingBox
func BoxFromRect(r image.Rectangle) BoundingBox {
	r = r.Canon()
	return BoundingBox{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// Rect returns the box as an image.Rectangle
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// Area returns width × height
func (b BoundingBox) Area() int {
	return b.Width * b.Height
}

// Empty reports whether the box has no area
func (b BoundingBox) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Expand grows the box by the given margins on each side
func (b BoundingBox) Expand(left, top, right, bottom int) BoundingBox {
	return BoundingBox{
		X:      b.X - left,
		Y:      b.Y - top,
		Width:  b.Width + left + right,
		Height: b.Height + top + bottom,
	}
}

// Clamp restricts the box to [0,width) × [0,height)
func (b BoundingBox) Clamp(width, height int) BoundingBox {
	r := b.Rect().Intersect(image.Rect(0, 0, width, height))
	if r.Empty() {
		return BoundingBox{}
	}
	return BoxFromRect(r)
}

// Within reports whether the box lies fully inside a width × height image
func (b BoundingBox) Within(width, height int) bool {
	return b.X >= 0 && b.Y >= 0 && b.X+b.Width <= width && b.Y+b.Height <= height
}

// Scale multiplies every coordinate by f, rounding to the nearest pixel
func (b BoundingBox) Scale(f float64) BoundingBox {
	return BoundingBox{
		X:      round(float64(b.X) * f),
		Y:      round(float64(b.Y) * f),
		Width:  round(float64(b.Width) * f),
		Height: round(float64(b.Height) * f),
	}
}

// Translate shifts the box by (dx, dy)
func (b BoundingBox) Translate(dx, dy int) BoundingBox {
	b.X += dx
	b.Y += dy
	return b
}

// Normalize expresses the box as fractions of a width × height page
func (b BoundingBox) Normalize(width, height int) [4]float64 {
	if width <= 0 || height <= 0 {
		return [4]float64{}
	}
	w, h := float64(width), float64(height)
	return [4]float64{float64(b.X) / w, float64(b.Y) / h, float64(b.Width) / w, float64(b.Height) / h}
}

func round(f float64) int {
	if f < 0 {
		return -int(-f + 0.5)
	}
	return int(f + 0.5)
}

// Shape is the geometric measurement of one extracted contour
type Shape struct {
	Bounds   BoundingBox
	Area     float64 // area enclosed by the contour
	HullArea float64 // area of the contour's convex hull
}

// Circle is a circle found by the Hough pass, in page pixels
type Circle struct {
	X, Y, Radius float64
}

// Box returns the circle's bounding box
func (c Circle) Box() BoundingBox {
	return BoundingBox{
		X:      round(c.X - c.Radius),
		Y:      round(c.Y - c.Radius),
		Width:  round(2 * c.Radius),
		Height: round(2 * c.Radius),
	}
}

// Candidate is a scored stamp-like region
type Candidate struct {
	Box   BoundingBox
	Score float64
}

// Line is a unit of recognized text with an optional source box.
// Block and Number identify the physical line it came from.
type Line struct {
	Text   string
	Box    BoundingBox
	Block  int
	Number int
}

// HasBox reports whether the line carries a usable position
func (l Line) HasBox() bool {
	return !l.Box.Empty()
}

// Source identifies which evidence path produced a record
type Source string

const (
	SourceTextLayer Source = "text_layer"
	SourceOCR       Source = "ocr"
)

// Record is one stamp found on a page
type Record struct {
	Box           BoundingBox
	EngineerName  *string
	LicenseNumber string
	Source        Source
}

// Fields is the single best-effort guess made from a plain text snippet
type Fields struct {
	EngineerName  *string
	LicenseNumber *string
}

// Frame describes the raster that a set of lines was recognized on
type Frame struct {
	Width  int
	Height int
	DPI    float64
}

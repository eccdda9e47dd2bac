// Package vision implements contour, circle and OCR-cleanup passes with OpenCV.
package vision

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
	"golang.org/x/image/draw"
)

// grayImage copies the window of img into a tightly packed 8-bit gray image
func grayImage(img image.Image, window image.Rectangle) *image.Gray {
	window = window.Intersect(img.Bounds())
	gray := image.NewGray(image.Rect(0, 0, window.Dx(), window.Dy()))
	draw.Draw(gray, gray.Bounds(), img, window.Min, draw.Src)
	return gray
}

// grayMat converts the window of img into a single-channel Mat
func grayMat(img image.Image, window image.Rectangle) (gocv.Mat, error) {
	gray := grayImage(img, window)
	if gray.Bounds().Empty() {
		return gocv.Mat{}, fmt.Errorf("empty window %v", window)
	}
	return matFromGray(gray)
}

func matFromGray(gray *image.Gray) (gocv.Mat, error) {
	b := gray.Bounds()
	view, err := gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8U, gray.Pix)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("convert image: %w", err)
	}
	defer view.Close()
	// The view borrows gray.Pix; the clone owns its pixels.
	return view.Clone(), nil
}

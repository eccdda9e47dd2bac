package vision

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
	"golang.org/x/image/draw"
)

// Preprocessor cleans a stamp crop for OCR: grayscale, upscale, adaptive
// threshold to black text on white, then a light dilation.
type Preprocessor struct {
	MinSide   int     // shorter side after upscaling, in pixels
	BlockSize int     // adaptive threshold neighbourhood, odd
	C         float32 // adaptive threshold offset
	Dilate    int     // dilation kernel size; 0 disables
}

// NewPreprocessor returns the default OCR preprocessing
func NewPreprocessor() *Preprocessor {
	return &Preprocessor{MinSide: 300, BlockSize: 31, C: 10, Dilate: 2}
}

// Prepare returns the cleaned crop scaled by at least scale
func (p *Preprocessor) Prepare(crop image.Image, scale float64) (image.Image, error) {
	b := crop.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("preprocess: empty crop")
	}

	if short := min(b.Dx(), b.Dy()); p.MinSide > 0 && float64(short)*scale < float64(p.MinSide) {
		scale = float64(p.MinSide) / float64(short)
	}
	if scale < 1 {
		scale = 1
	}

	gray := grayImage(crop, b)
	if scale > 1 {
		w, h := int(float64(b.Dx())*scale), int(float64(b.Dy())*scale)
		scaled := image.NewGray(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), gray, gray.Bounds(), draw.Src, nil)
		gray = scaled
	}

	src, err := matFromGray(gray)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.AdaptiveThreshold(src, &binary, 255, gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinary, p.BlockSize, p.C)

	if p.Dilate > 0 {
		kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(p.Dilate, p.Dilate))
		defer kernel.Close()
		gocv.Dilate(binary, &binary, kernel)
	}

	out, err := binary.ToImage()
	if err != nil {
		return nil, fmt.Errorf("preprocess: %w", err)
	}
	return out, nil
}

package vision

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/zombor/stamp-extractor/internal/stamp"
)

// ContourFinder finds ink blobs by thresholding and merging nearby strokes
// so that a seal's ring and lettering become one external contour.
type ContourFinder struct {
	BlurSize   int     // Gaussian kernel size, odd
	BlockSize  int     // adaptive threshold neighbourhood, odd
	C          float32 // adaptive threshold offset
	MergeSize  int     // dilation kernel size
	Iterations int     // dilation passes
}

// NewContourFinder returns a ContourFinder tuned for 150 DPI renders
func NewContourFinder() *ContourFinder {
	return &ContourFinder{
		BlurSize:   5,
		BlockSize:  31,
		C:          10,
		MergeSize:  5,
		Iterations: 2,
	}
}

// FindShapes returns the external contours inside window, in page coordinates
func (f *ContourFinder) FindShapes(page image.Image, window image.Rectangle) ([]stamp.Shape, error) {
	gray, err := grayMat(page, window)
	if err != nil {
		return nil, err
	}
	defer gray.Close()
	origin := window.Intersect(page.Bounds()).Min

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(f.BlurSize, f.BlurSize), 0, 0, gocv.BorderDefault)

	// Ink becomes white so contours trace the marks, not the paper
	binary := gocv.NewMat()
	defer binary.Close()
	gocv.AdaptiveThreshold(blurred, &binary, 255, gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinaryInv, f.BlockSize, f.C)

	kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(f.MergeSize, f.MergeSize))
	defer kernel.Close()
	for i := 0; i < f.Iterations; i++ {
		gocv.Dilate(binary, &binary, kernel)
	}

	contours := gocv.FindContours(binary, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	shapes := make([]stamp.Shape, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		if contour.Size() < 3 {
			continue
		}
		rect := gocv.BoundingRect(contour).Add(origin)
		shapes = append(shapes, stamp.Shape{
			Bounds:   stamp.BoxFromRect(rect),
			Area:     gocv.ContourArea(contour),
			HullArea: hullArea(contour),
		})
	}
	return shapes, nil
}

func hullArea(contour gocv.PointVector) float64 {
	hull := gocv.NewMat()
	defer hull.Close()
	gocv.ConvexHull(contour, &hull, false, true)
	if hull.Empty() {
		return 0
	}

	points := gocv.NewPointVectorFromMat(hull)
	defer points.Close()
	return gocv.ContourArea(points)
}

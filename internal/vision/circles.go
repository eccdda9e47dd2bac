package vision

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/zombor/stamp-extractor/internal/stamp"
)

// CircleFinder detects round seals with the Hough gradient transform
type CircleFinder struct {
	MedianSize int     // median blur aperture, odd
	DP         float64 // inverse accumulator resolution
	EdgeHigh   float64 // Canny high threshold
	Votes      float64 // accumulator threshold for centres
}

// NewCircleFinder returns a CircleFinder tuned for thin printed rings
func NewCircleFinder() *CircleFinder {
	return &CircleFinder{
		MedianSize: 5,
		DP:         1.2,
		EdgeHigh:   100,
		Votes:      40,
	}
}

// FindCircles returns circles with radius in [minRadius, maxRadius], in page coordinates
func (f *CircleFinder) FindCircles(page image.Image, window image.Rectangle, minRadius, maxRadius int) ([]stamp.Circle, error) {
	gray, err := grayMat(page, window)
	if err != nil {
		return nil, err
	}
	defer gray.Close()
	origin := window.Intersect(page.Bounds()).Min

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.MedianBlur(gray, &blurred, f.MedianSize)

	circles := gocv.NewMat()
	defer circles.Close()
	minDist := float64(max(minRadius, 1)) * 2
	gocv.HoughCirclesWithParams(blurred, &circles, gocv.HoughGradient, f.DP, minDist, f.EdgeHigh, f.Votes, minRadius, maxRadius)
	if circles.Empty() {
		return nil, nil
	}

	found := make([]stamp.Circle, 0, circles.Cols())
	for i := 0; i < circles.Cols(); i++ {
		v := circles.GetVecfAt(0, i)
		if len(v) < 3 {
			continue
		}
		found = append(found, stamp.Circle{
			X:      float64(v[0]) + float64(origin.X),
			Y:      float64(v[1]) + float64(origin.Y),
			Radius: float64(v[2]),
		})
	}
	return found, nil
}

package stamp

import (
	"image"
	"log/slog"
	"math"
	"sort"
)

// ContourFinder extracts external contours of dark marks inside a window
// of the page. Shape bounds are in page coordinates.
type ContourFinder interface {
	FindShapes(page image.Image, window image.Rectangle) ([]Shape, error)
}

// CircleFinder runs a Hough circle pass inside a window of the page
type CircleFinder interface {
	FindCircles(page image.Image, window image.Rectangle, minRadius, maxRadius int) ([]Circle, error)
}

// regionStrategy proposes boxes within the search window; an empty result
// hands over to the next strategy
type regionStrategy struct {
	name string
	find func(page image.Image, window BoundingBox) ([]BoundingBox, error)
}

// Locator finds candidate stamp regions on a rendered page
type Locator struct {
	cfg        Config
	scorer     *Scorer
	contours   ContourFinder
	circles    CircleFinder
	strategies []regionStrategy
}

// NewLocator creates a Locator. Either finder may be nil, in which case the
// strategies depending on it are skipped.
func NewLocator(cfg Config, contours ContourFinder, circles CircleFinder) *Locator {
	l := &Locator{
		cfg:      cfg,
		scorer:   NewScorer(cfg.Geometry),
		contours: contours,
		circles:  circles,
	}
	if contours != nil {
		l.strategies = append(l.strategies, regionStrategy{name: "contours", find: l.fromContours})
	}
	if circles != nil {
		l.strategies = append(l.strategies, regionStrategy{name: "circles", find: l.fromCircles})
	}
	return l
}

// SearchWindow returns the layout prior for a width × height page
func (l *Locator) SearchWindow(width, height int) BoundingBox {
	w := l.cfg.Window
	if height > 0 && float64(width)/float64(height) > w.LandscapeAspect {
		stripWidth := int(float64(width) * w.StripWidth)
		return BoundingBox{X: width - stripWidth, Y: 0, Width: stripWidth, Height: height}.Clamp(width, height)
	}
	cornerWidth := int(float64(width) * w.CornerWidth)
	cornerHeight := int(float64(height) * w.CornerHeight)
	return BoundingBox{
		X:      width - cornerWidth,
		Y:      height - cornerHeight,
		Width:  cornerWidth,
		Height: cornerHeight,
	}.Clamp(width, height)
}

// Locate returns the stamp regions on page, relative to page.Bounds().Min.
// The result is never empty: when no strategy finds anything, the search
// window itself is returned.
func (l *Locator) Locate(page image.Image) []BoundingBox {
	bounds := page.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	window := l.SearchWindow(width, height)

	for _, s := range l.strategies {
		boxes, err := s.find(page, window)
		if err != nil {
			slog.Warn("Region strategy failed", "strategy", s.name, "error", err)
			continue
		}
		if len(boxes) > 0 {
			slog.Debug("Regions located", "strategy", s.name, "count", len(boxes))
			return boxes
		}
	}

	slog.Debug("No regions located, using layout fallback", "window", window)
	if window.Empty() {
		return []BoundingBox{{X: 0, Y: 0, Width: width, Height: height}}
	}
	return []BoundingBox{window}
}

func (l *Locator) candidates(page image.Image, window BoundingBox) ([]Candidate, error) {
	if l.contours == nil {
		return nil, nil
	}
	origin := page.Bounds().Min
	shapes, err := l.contours.FindShapes(page, window.Rect().Add(origin))
	if err != nil {
		return nil, err
	}

	pageArea := float64(page.Bounds().Dx() * page.Bounds().Dy())
	var candidates []Candidate
	for _, shape := range shapes {
		shape.Bounds = shape.Bounds.Translate(-origin.X, -origin.Y)
		score, ok := l.scorer.Score(shape, pageArea)
		if !ok {
			continue
		}
		candidates = append(candidates, Candidate{Box: shape.Bounds, Score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Box.Area() != b.Box.Area() {
			return a.Box.Area() > b.Box.Area()
		}
		if a.Box.Y != b.Box.Y {
			return a.Box.Y < b.Box.Y
		}
		return a.Box.X < b.Box.X
	})
	return candidates, nil
}

func (l *Locator) fromContours(page image.Image, window BoundingBox) ([]BoundingBox, error) {
	candidates, err := l.candidates(page, window)
	if err != nil {
		return nil, err
	}
	boxes := make([]BoundingBox, 0, len(candidates))
	for _, c := range candidates {
		boxes = append(boxes, c.Box)
	}
	boxes = l.dedup(boxes)
	for i, b := range boxes {
		boxes[i] = l.refine(page, b)
	}
	return l.finish(boxes, page.Bounds().Dx(), page.Bounds().Dy()), nil
}

func (l *Locator) fromCircles(page image.Image, window BoundingBox) ([]BoundingBox, error) {
	pageArea := float64(page.Bounds().Dx() * page.Bounds().Dy())
	minRadius := int(math.Sqrt(l.cfg.Geometry.MinAreaFrac*pageArea) / 2)
	maxRadius := int(math.Sqrt(l.cfg.Geometry.MaxAreaFrac*pageArea) / 2)

	origin := page.Bounds().Min
	circles, err := l.circles.FindCircles(page, window.Rect().Add(origin), minRadius, maxRadius)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(circles, func(i, j int) bool { return circles[i].Radius > circles[j].Radius })

	boxes := make([]BoundingBox, 0, len(circles))
	for _, c := range circles {
		b := c.Box().Translate(-origin.X, -origin.Y)
		if b.Rect().Intersect(window.Rect()).Empty() {
			continue
		}
		boxes = append(boxes, b)
	}
	return l.finish(l.dedup(boxes), page.Bounds().Dx(), page.Bounds().Dy()), nil
}

// dedup drops boxes whose top-left corner lies within the tolerance of an
// already accepted box, then caps the count
func (l *Locator) dedup(boxes []BoundingBox) []BoundingBox {
	tol := l.cfg.Regions.DedupTolerance
	var kept []BoundingBox
	for _, b := range boxes {
		duplicate := false
		for _, k := range kept {
			if abs(b.X-k.X) <= tol && abs(b.Y-k.Y) <= tol {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		kept = append(kept, b)
		if len(kept) == l.cfg.Regions.MaxRegions {
			break
		}
	}
	return kept
}

// refine tightens a coarse box to the largest circle found inside it.
// The box is returned unchanged unless the circle fits fully within it.
func (l *Locator) refine(page image.Image, box BoundingBox) BoundingBox {
	if !l.cfg.Regions.RefineCircles || l.circles == nil {
		return box
	}
	short := min(box.Width, box.Height)
	minRadius := int(l.cfg.Regions.MinCircleFraction * float64(short) / 2)
	maxRadius := short / 2
	if maxRadius <= 0 || minRadius > maxRadius {
		return box
	}

	origin := page.Bounds().Min
	circles, err := l.circles.FindCircles(page, box.Rect().Add(origin), minRadius, maxRadius)
	if err != nil {
		slog.Debug("Circle refinement failed", "box", box, "error", err)
		return box
	}

	var best *Circle
	for i := range circles {
		if best == nil || circles[i].Radius > best.Radius {
			best = &circles[i]
		}
	}
	if best == nil {
		return box
	}
	tight := best.Box().Translate(-origin.X, -origin.Y)
	if tight.Empty() || !tight.Rect().In(box.Rect()) {
		return box
	}
	return tight
}

// finish applies margin, clamping and the side-by-side split
func (l *Locator) finish(boxes []BoundingBox, width, height int) []BoundingBox {
	m := l.cfg.Regions.Margin
	out := make([]BoundingBox, 0, len(boxes))
	for _, b := range boxes {
		b = b.Expand(m, m, m, m).Clamp(width, height)
		if b.Empty() {
			continue
		}
		if float64(b.Width) > l.cfg.Regions.SplitRatio*float64(b.Height) {
			left := b.Width / 2
			out = append(out,
				BoundingBox{X: b.X, Y: b.Y, Width: left, Height: b.Height},
				BoundingBox{X: b.X + left, Y: b.Y, Width: b.Width - left, Height: b.Height},
			)
			continue
		}
		out = append(out, b)
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

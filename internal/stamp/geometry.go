package stamp

import "math"

// Scorer rates contours against stamp-like geometric criteria
type Scorer struct {
	cfg GeometryConfig
}

// NewScorer creates a Scorer with the given bounds
func NewScorer(cfg GeometryConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score returns a value in [0,1] for a shape on a page of pageArea pixels.
// The second return is false when any bound rejects the shape.
func (s *Scorer) Score(shape Shape, pageArea float64) (float64, bool) {
	bw, bh := float64(shape.Bounds.Width), float64(shape.Bounds.Height)
	if bw <= 0 || bh <= 0 || pageArea <= 0 {
		return 0, false
	}
	boxArea := bw * bh
	maxArea := s.cfg.MaxAreaFrac * pageArea
	if boxArea < s.cfg.MinAreaFrac*pageArea || boxArea > maxArea {
		return 0, false
	}

	squareness := bw / bh
	if squareness < s.cfg.MinSquareness || squareness > s.cfg.MaxSquareness {
		return 0, false
	}

	fill := shape.Area / boxArea
	if fill < s.cfg.MinFill || fill > s.cfg.MaxFill {
		return 0, false
	}

	if shape.HullArea <= 0 {
		return 0, false
	}
	convexity := shape.Area / shape.HullArea
	if convexity < s.cfg.MinConvexity {
		return 0, false
	}

	squarenessScore := 1 - math.Abs(1-squareness)
	score := squarenessScore * math.Min(convexity, 1) * (boxArea / maxArea)
	if math.IsNaN(score) {
		return 0, false
	}
	return math.Max(0, math.Min(1, score)), true
}

package stamp

import (
	"errors"
	"image"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// fakeContours is a ContourFinder returning fixed shapes
type fakeContours struct {
	shapes  []Shape
	err     error
	windows []image.Rectangle
}

func (f *fakeContours) FindShapes(page image.Image, window image.Rectangle) ([]Shape, error) {
	f.windows = append(f.windows, window)
	if f.err != nil {
		return nil, f.err
	}
	return f.shapes, nil
}

// fakeCircles is a CircleFinder returning fixed circles
type fakeCircles struct {
	circles []Circle
	err     error
}

func (f *fakeCircles) FindCircles(page image.Image, window image.Rectangle, minRadius, maxRadius int) ([]Circle, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.circles, nil
}

// stampShape builds a half-filled, 0.9-convex shape with the given bounds
func stampShape(x, y, w, h int) Shape {
	area := float64(w*h) / 2
	return Shape{Bounds: BoundingBox{X: x, Y: y, Width: w, Height: h}, Area: area, HullArea: area / 0.9}
}

var _ = Describe("Locator", func() {
	var (
		cfg      Config
		contours *fakeContours
		circles  CircleFinder
		page     image.Image
		locator  *Locator
		boxes    []BoundingBox
	)

	landscape := image.NewGray(image.Rect(0, 0, 1700, 1100))
	portrait := image.NewGray(image.Rect(0, 0, 1000, 1400))

	BeforeEach(func() {
		cfg = DefaultConfig()
		cfg.Window.StripWidth = 0.25
		cfg.Window.CornerWidth = 0.5
		cfg.Window.CornerHeight = 0.5
		contours = &fakeContours{}
		circles = nil
		page = landscape
	})

	JustBeforeEach(func() {
		locator = NewLocator(cfg, contours, circles)
		boxes = locator.Locate(page)
	})

	Describe("SearchWindow", func() {
		It("uses the right strip on landscape pages", func() {
			Expect(locator.SearchWindow(1700, 1100)).To(Equal(BoundingBox{X: 1275, Y: 0, Width: 425, Height: 1100}))
		})

		It("uses the bottom-right corner on portrait pages", func() {
			Expect(locator.SearchWindow(1000, 1400)).To(Equal(BoundingBox{X: 500, Y: 700, Width: 500, Height: 700}))
		})
	})

	When("a stamp-like contour is in the right strip", func() {
		BeforeEach(func() {
			contours.shapes = []Shape{stampShape(1300, 150, 200, 200)}
		})

		It("searches only the strip", func() {
			Expect(contours.windows).To(ConsistOf(image.Rect(1275, 0, 1700, 1100)))
		})

		It("returns the contour expanded by the margin", func() {
			Expect(boxes).To(Equal([]BoundingBox{{X: 1280, Y: 130, Width: 240, Height: 240}}))
		})

		It("returns the same boxes when run again", func() {
			Expect(locator.Locate(page)).To(Equal(boxes))
		})
	})

	When("no contour qualifies on a portrait page", func() {
		BeforeEach(func() {
			page = portrait
			contours.shapes = []Shape{stampShape(600, 800, 5, 5)}
		})

		It("returns exactly the bottom-right fallback", func() {
			Expect(boxes).To(Equal([]BoundingBox{{X: 500, Y: 700, Width: 500, Height: 700}}))
		})
	})

	When("contour extraction fails", func() {
		BeforeEach(func() {
			contours.err = errors.New("bad image")
		})

		It("falls back to the layout window", func() {
			Expect(boxes).To(Equal([]BoundingBox{{X: 1275, Y: 0, Width: 425, Height: 1100}}))
		})
	})

	When("there are no finders at all", func() {
		JustBeforeEach(func() {
			locator = NewLocator(cfg, nil, nil)
			boxes = locator.Locate(page)
		})

		It("still returns one box", func() {
			Expect(boxes).To(HaveLen(1))
		})
	})

	When("contours are jittered copies of the same mark", func() {
		BeforeEach(func() {
			contours.shapes = []Shape{
				stampShape(1300, 150, 200, 200),
				stampShape(1310, 160, 190, 190),
			}
		})

		It("keeps only the best one", func() {
			Expect(boxes).To(HaveLen(1))
			Expect(boxes[0]).To(Equal(BoundingBox{X: 1280, Y: 130, Width: 240, Height: 240}))
		})
	})

	When("contours are far apart", func() {
		BeforeEach(func() {
			contours.shapes = []Shape{
				stampShape(1300, 150, 200, 200),
				stampShape(1300, 700, 180, 180),
			}
		})

		It("keeps both, best first", func() {
			Expect(boxes).To(HaveLen(2))
			Expect(boxes[0].Y).To(Equal(130))
			Expect(boxes[1].Y).To(Equal(680))
		})
	})

	When("there are more candidates than the cap", func() {
		BeforeEach(func() {
			cfg.Regions.MaxRegions = 1
			contours.shapes = []Shape{
				stampShape(1300, 150, 200, 200),
				stampShape(1300, 700, 180, 180),
			}
		})

		It("keeps only the allowed number", func() {
			Expect(boxes).To(HaveLen(1))
		})
	})

	When("a region is much wider than tall", func() {
		BeforeEach(func() {
			contours.shapes = []Shape{stampShape(1300, 100, 300, 200)}
		})

		It("splits it into two equal halves", func() {
			Expect(boxes).To(Equal([]BoundingBox{
				{X: 1280, Y: 80, Width: 170, Height: 240},
				{X: 1450, Y: 80, Width: 170, Height: 240},
			}))
		})
	})

	When("a contour touches the page edge", func() {
		BeforeEach(func() {
			contours.shapes = []Shape{stampShape(1640, 1040, 60, 60)}
		})

		It("clamps the expanded box to the image", func() {
			Expect(boxes).To(Equal([]BoundingBox{{X: 1620, Y: 1020, Width: 80, Height: 80}}))
			for _, b := range boxes {
				Expect(b.Within(1700, 1100)).To(BeTrue())
			}
		})
	})

	When("only the circle pass finds something", func() {
		BeforeEach(func() {
			circles = &fakeCircles{circles: []Circle{{X: 1500, Y: 300, Radius: 80}}}
		})

		It("returns the circle box with margin", func() {
			Expect(boxes).To(Equal([]BoundingBox{{X: 1400, Y: 200, Width: 200, Height: 200}}))
		})
	})

	When("a circle fits inside a contour box", func() {
		BeforeEach(func() {
			contours.shapes = []Shape{stampShape(1300, 150, 200, 200)}
			circles = &fakeCircles{circles: []Circle{{X: 1400, Y: 250, Radius: 90}}}
		})

		It("tightens the box to the circle", func() {
			Expect(boxes).To(Equal([]BoundingBox{{X: 1290, Y: 140, Width: 220, Height: 220}}))
		})
	})

	When("the circle spills outside the contour box", func() {
		BeforeEach(func() {
			contours.shapes = []Shape{stampShape(1300, 150, 200, 200)}
			circles = &fakeCircles{circles: []Circle{{X: 1320, Y: 250, Radius: 90}}}
		})

		It("keeps the coarse box", func() {
			Expect(boxes).To(Equal([]BoundingBox{{X: 1280, Y: 130, Width: 240, Height: 240}}))
		})
	})

	When("circle refinement errors", func() {
		BeforeEach(func() {
			contours.shapes = []Shape{stampShape(1300, 150, 200, 200)}
			circles = &fakeCircles{err: errors.New("hough failed")}
		})

		It("keeps the coarse box", func() {
			Expect(boxes).To(Equal([]BoundingBox{{X: 1280, Y: 130, Width: 240, Height: 240}}))
		})
	})

	DescribeTable("never returns an empty or out-of-bounds list",
		func(width, height int) {
			l := NewLocator(cfg, &fakeContours{}, nil)
			got := l.Locate(image.NewGray(image.Rect(0, 0, width, height)))
			Expect(got).NotTo(BeEmpty())
			for _, b := range got {
				Expect(b.Within(width, height)).To(BeTrue())
			}
		},
		Entry("letter portrait", 1275, 1650),
		Entry("ANSI D landscape", 5100, 3300),
		Entry("square", 800, 800),
		Entry("tiny", 3, 2),
	)
})

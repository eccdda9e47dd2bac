package extraction

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"strings"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/zombor/stamp-extractor/internal/document"
	"github.com/zombor/stamp-extractor/internal/scanning"
	"github.com/zombor/stamp-extractor/internal/stamp"
)

// Opener opens an uploaded document
type Opener func(data []byte, contentType string) (document.Document, error)

// Preprocessor prepares a region crop for OCR, scaling it by at least scale
type Preprocessor interface {
	Prepare(crop image.Image, scale float64) (image.Image, error)
}

// Options are the per-process pipeline settings
type Options struct {
	SearchDPI   float64       // render resolution for region search and previews
	OCRDPI      float64       // effective resolution of crops handed to OCR
	Workers     int           // regions processed in parallel
	PageTimeout time.Duration // deadline for one page; 0 disables
	Mode        scanning.Mode // OCR page segmentation
	Units       Units         // units used when a request names none
}

// DefaultOptions returns the standard pipeline settings
func DefaultOptions() Options {
	return Options{
		SearchDPI:   150,
		OCRDPI:      300,
		Workers:     1,
		PageTimeout: 60 * time.Second,
		Mode:        scanning.ModeSparse,
		Units:       UnitsPixels,
	}
}

// Request carries the caller's choices for one extraction
type Request struct {
	Page    int
	Units   Units
	RawText bool
}

// Deps are the collaborators of a Service. Open defaults to document.Open;
// Cache, Storage and Preprocessor are optional.
type Deps struct {
	Open         Opener
	Locator      *stamp.Locator
	Engine       scanning.Engine
	Preprocessor Preprocessor
	Cache        Cache
	Storage      Storage
}

// Service runs the stamp pipeline over uploaded documents
type Service struct {
	open        Opener
	locator     *stamp.Locator
	extractor   *stamp.Extractor
	engine      scanning.Engine
	prep        Preprocessor
	cache       Cache
	storage     Storage
	opts        Options
	fingerprint string
}

// NewService creates a new Service
func NewService(cfg stamp.Config, deps Deps, opts Options) *Service {
	s := &Service{
		open:        deps.Open,
		locator:     deps.Locator,
		extractor:   stamp.NewExtractor(cfg),
		engine:      deps.Engine,
		prep:        deps.Preprocessor,
		cache:       deps.Cache,
		storage:     deps.Storage,
		opts:        opts,
		fingerprint: cfg.Fingerprint(),
	}
	if s.open == nil {
		s.open = document.Open
	}
	if s.locator == nil {
		s.locator = stamp.NewLocator(cfg, nil, nil)
	}
	if s.cache == nil {
		s.cache = nopCache{}
	}
	if s.opts.Workers < 1 {
		s.opts.Workers = 1
	}
	if s.opts.Units == "" {
		s.opts.Units = UnitsPixels
	}
	return s
}

func (s *Service) openDocument(data []byte, contentType string) (document.Document, error) {
	doc, err := s.open(data, contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}
	return doc, nil
}

func checkPage(doc document.Document, page int) error {
	if page < 0 || page >= doc.PageCount() {
		return fmt.Errorf("%w: %d (document has %d pages)", ErrInvalidPage, page, doc.PageCount())
	}
	return nil
}

// PageCount returns the number of pages in an upload
func (s *Service) PageCount(data []byte, contentType string) (*PageInfo, error) {
	doc, err := s.openDocument(data, contentType)
	if err != nil {
		return nil, err
	}
	defer doc.Close()
	return &PageInfo{PageCount: doc.PageCount()}, nil
}

// PagePreview renders a page at the search resolution as a JPEG data URL
func (s *Service) PagePreview(data []byte, contentType string, page int) (*Preview, error) {
	doc, err := s.openDocument(data, contentType)
	if err != nil {
		return nil, err
	}
	defer doc.Close()
	if err := checkPage(doc, page); err != nil {
		return nil, err
	}

	img, err := doc.Render(page, s.opts.SearchDPI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("encoding preview: %w", err)
	}
	b := img.Bounds()
	return &Preview{
		Image:  "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}

// ExtractPage locates stamps on one page and extracts their fields
func (s *Service) ExtractPage(ctx context.Context, data []byte, contentType string, req Request) (*Result, error) {
	if req.Units == "" {
		req.Units = s.opts.Units
	}
	log := Logger(ctx)

	doc, err := s.openDocument(data, contentType)
	if err != nil {
		return nil, err
	}
	defer doc.Close()
	if err := checkPage(doc, req.Page); err != nil {
		return nil, err
	}

	sum := sha256.Sum256(data)
	docID := hex.EncodeToString(sum[:])
	key := s.cacheKey(docID, req)
	if cached, ok, err := s.cache.Get(key); err != nil {
		log.Warn("Cache lookup failed", "error", err)
	} else if ok {
		log.Debug("Cache hit", "page", req.Page)
		return cached, nil
	}

	if s.opts.PageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.PageTimeout)
		defer cancel()
	}

	start := time.Now()
	result, err := s.extract(ctx, doc, docID[:12], req)
	if errors.Is(err, context.DeadlineExceeded) || (err == nil && errors.Is(ctx.Err(), context.DeadlineExceeded)) {
		log.Error("Page timed out", "page", req.Page, "timeout", s.opts.PageTimeout)
		return nil, fmt.Errorf("%w after %s", ErrPageTimeout, s.opts.PageTimeout)
	}
	if err != nil {
		return nil, err
	}
	log.Info("Page extracted", "page", req.Page, "stamps", len(result.Stamps), "duration", time.Since(start))

	if err := s.cache.Put(key, result); err != nil {
		log.Warn("Cache store failed", "error", err)
	}
	return result, nil
}

func (s *Service) cacheKey(docID string, req Request) string {
	engine := "none"
	if s.engine != nil {
		engine = s.engine.Name()
	}
	return fmt.Sprintf("%s/%d/%s/%t/%s/%s/%s/%g/%g",
		docID, req.Page, req.Units, req.RawText, s.fingerprint,
		engine, s.opts.Mode, s.opts.SearchDPI, s.opts.OCRDPI)
}

// regionResult is what one region contributed
type regionResult struct {
	records []stamp.Record
	text    string
}

func (s *Service) extract(ctx context.Context, doc document.Document, docID string, req Request) (*Result, error) {
	log := Logger(ctx)

	page, err := doc.Render(req.Page, s.opts.SearchDPI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}
	b := page.Bounds()
	width, height := b.Dx(), b.Dy()
	sink := stamp.NewSink()

	// Text layer first: PDF glyphs and line origins, no OCR needed
	words, err := doc.Words(req.Page)
	if err != nil {
		log.Warn("Text layer unavailable", "page", req.Page, "error", err)
	}
	if len(words) > 0 {
		lines := textLayerLines(words, s.opts.SearchDPI, s.locator.SearchWindow(width, height))
		for _, r := range s.extractor.ExtractMulti(lines, stamp.Frame{Width: width, Height: height, DPI: s.opts.SearchDPI}) {
			r.Source = stamp.SourceTextLayer
			sink.Add(r)
		}
	}

	regions := s.locator.Locate(page)
	log.Debug("Located regions", "page", req.Page, "count", len(regions))

	results, err := s.scanRegions(ctx, page, regions, docID, req.Page)
	if err != nil {
		return nil, err
	}

	var texts []string
	for _, rr := range results {
		for _, r := range rr.records {
			sink.Add(r)
		}
		if rr.text != "" {
			texts = append(texts, rr.text)
		}
	}

	result := &Result{
		Page:   req.Page,
		Stamps: []Stamp{},
		Units:  req.Units,
		Width:  width,
		Height: height,
	}
	for _, r := range sink.Records() {
		result.Stamps = append(result.Stamps, newStamp(r, req.Units, width, height))
	}
	if req.RawText {
		result.RawText = strings.Join(texts, "\n")
	}
	return result, nil
}

// scanRegions runs OCR over every region on the worker pool.
// Results are returned in region order regardless of completion order.
func (s *Service) scanRegions(ctx context.Context, page image.Image, regions []stamp.BoundingBox, docID string, pageNum int) ([]regionResult, error) {
	results := make([]regionResult, len(regions))
	if s.engine == nil {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i, region := range regions {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rr, err := s.scanRegion(gctx, page, region, fmt.Sprintf("%s_p%d_r%d", docID, pageNum, i))
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				Logger(ctx).Warn("Skipping region", "page", pageNum, "region", i, "box", region, "error", err)
				return nil
			}
			results[i] = rr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// scanRegion crops, cleans and reads one region, returning records in page pixels
func (s *Service) scanRegion(ctx context.Context, page image.Image, region stamp.BoundingBox, name string) (regionResult, error) {
	crop := cropImage(page, region)
	if crop.Bounds().Empty() {
		return regionResult{}, fmt.Errorf("empty crop")
	}

	// go-fitz renders whole pages only, so the crop is upscaled from the
	// search raster rather than re-rendered at OCR resolution.
	prepared := crop
	if s.prep != nil {
		var err error
		prepared, err = s.prep.Prepare(crop, s.opts.OCRDPI/s.opts.SearchDPI)
		if err != nil {
			return regionResult{}, fmt.Errorf("preprocessing: %w", err)
		}
	}
	factor := float64(prepared.Bounds().Dx()) / float64(crop.Bounds().Dx())
	s.saveCrop(ctx, name, prepared)

	ocrLines, err := s.engine.RecognizeLines(ctx, prepared, s.opts.Mode)
	if err != nil {
		return regionResult{}, fmt.Errorf("recognizing lines: %w", err)
	}
	lines := toStampLines(ocrLines)
	pb := prepared.Bounds()
	frame := stamp.Frame{Width: pb.Dx(), Height: pb.Dy(), DPI: s.opts.SearchDPI * factor}

	rr := regionResult{text: scanning.PlainText(ocrLines)}
	for _, r := range s.extractor.ExtractMulti(lines, frame) {
		r.Box = r.Box.Scale(1/factor).Translate(region.X, region.Y).Clamp(page.Bounds().Dx(), page.Bounds().Dy())
		r.Source = stamp.SourceOCR
		rr.records = append(rr.records, r)
	}
	if len(rr.records) > 0 {
		return rr, nil
	}

	// No positioned hit; read the region as plain text instead
	text, err := s.engine.RecognizeText(ctx, prepared, s.opts.Mode)
	if err != nil {
		return rr, fmt.Errorf("recognizing text: %w", err)
	}
	if text != "" {
		rr.text = text
	}
	fields := s.extractor.Extract(text)
	if fields.LicenseNumber != nil {
		rr.records = append(rr.records, stamp.Record{
			Box:           region,
			EngineerName:  fields.EngineerName,
			LicenseNumber: *fields.LicenseNumber,
			Source:        stamp.SourceOCR,
		})
	}
	return rr, nil
}

func (s *Service) saveCrop(ctx context.Context, name string, img image.Image) {
	if s.storage == nil {
		return
	}
	data, err := scanning.EncodePNG(img)
	if err == nil {
		_, err = s.storage.Save(name+".png", data)
	}
	if err != nil {
		Logger(ctx).Warn("Failed to save debug crop", "name", name, "error", err)
	}
}

// cropImage copies region out of page into a new image at the origin
func cropImage(page image.Image, region stamp.BoundingBox) image.Image {
	r := region.Rect().Add(page.Bounds().Min).Intersect(page.Bounds())
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), page, r.Min, draw.Src)
	return dst
}

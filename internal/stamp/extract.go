package stamp

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	labeledLicensePattern = regexp.MustCompile(`(?i)(?:\b(?:NO\.?|LICENSE|LIC\.?|REG\.?|PE|P\.E\.|S\.E\.|NUMBER)|#)\s*[:#\-]?\s*(\d{4,8})`)
	bareLicensePattern    = regexp.MustCompile(`\b(\d{4,6})\b`)
	yearPattern           = regexp.MustCompile(`^(?:19|20)\d{2}$`)
	namePattern           = regexp.MustCompile(`\b([A-Z]{2,}(?:\s+[A-Z]\.?)?\s+[A-Z]{2,}(?:\s+[A-Z]{2,})?)\b`)
	ocrNoisePattern       = regexp.MustCompile("[|_~`@#$%^&*(){}\\[\\]<>]")
	numberLabelNoise      = regexp.MustCompile(`(?i)\bN[O0][.,:]?\s*(\d)`)
	numberCommaNoise      = regexp.MustCompile(`\bO,\s*(\d)`)
	digitRun              = regexp.MustCompile(`\d+`)
	whitespace            = regexp.MustCompile(`\s+`)
)

// truncationHints are characters OCR commonly produces in place of a digit.
// A year-like run touching one of them is likely part of a longer number.
const truncationHints = "OoIlSB|"

// licenseStrategy proposes a license number from plain text
type licenseStrategy func(text string) (string, bool)

// Extractor turns recognized text into stamp fields
type Extractor struct {
	cfg        RecordConfig
	vocab      *Vocabulary
	associator *Associator
	strategies []licenseStrategy
}

// NewExtractor creates an Extractor from the heuristics
func NewExtractor(cfg Config) *Extractor {
	vocab := NewVocabulary(cfg.Blacklist, cfg.Titles)
	return &Extractor{
		cfg:        cfg.Record,
		vocab:      vocab,
		associator: NewAssociator(cfg.Association, vocab),
		strategies: []licenseStrategy{labeledLicense, bareLicense},
	}
}

// Extract makes a single best-effort guess of name and license number from
// a plain text snippet. Missing fields are nil.
func (e *Extractor) Extract(text string) Fields {
	var fields Fields
	for _, s := range e.strategies {
		if num, ok := s(text); ok {
			fields.LicenseNumber = &num
			break
		}
	}
	fields.EngineerName = e.plainName(text)
	return fields
}

func labeledLicense(text string) (string, bool) {
	m := labeledLicensePattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func bareLicense(text string) (string, bool) {
	for _, m := range bareLicensePattern.FindAllStringSubmatch(text, -1) {
		if yearPattern.MatchString(m[1]) {
			continue
		}
		return m[1], true
	}
	return "", false
}

func (e *Extractor) plainName(text string) *string {
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(ocrNoisePattern.ReplaceAllString(raw, ""))
		if len(line) < 4 || strings.ContainsAny(line, "0123456789") {
			continue
		}
		upper := strings.ToUpper(line)
		if e.vocab.Boilerplate(upper) {
			continue
		}
		for _, match := range namePattern.FindAllString(upper, -1) {
			name := whitespace.ReplaceAllString(strings.TrimSpace(match), " ")
			if len(strings.Fields(name)) < 2 || hasWord(name, "OF") || e.vocab.Boilerplate(name) {
				continue
			}
			return &name
		}
	}
	return nil
}

// ExtractMulti finds every license number in lines and builds one record per
// distinct number. Boxes are derived from the anchor line and clamped to
// frame; lines without a box get the whole frame.
func (e *Extractor) ExtractMulti(lines []Line, frame Frame) []Record {
	associator := e.associator.AtDPI(frame.DPI)
	scale := 1.0
	if frame.DPI > 0 && e.cfg.DPI > 0 {
		scale = frame.DPI / e.cfg.DPI
	}
	marginX := int(float64(e.cfg.MarginX) * scale)
	marginTop := int(float64(e.cfg.MarginTop) * scale)
	marginBottom := int(float64(e.cfg.MarginBottom) * scale)

	seen := make(map[string]struct{})
	var records []Record
	for i, line := range lines {
		for _, num := range e.licenseRuns(line.Text) {
			if _, ok := seen[num]; ok {
				continue
			}
			seen[num] = struct{}{}

			box := BoundingBox{Width: frame.Width, Height: frame.Height}
			if line.HasBox() {
				box = line.Box.Expand(marginX, marginTop, marginX, marginBottom)
				if frame.Width > 0 && frame.Height > 0 {
					box = box.Clamp(frame.Width, frame.Height)
				}
			}
			records = append(records, Record{
				Box:           box,
				EngineerName:  associator.AssociateName(lines, i),
				LicenseNumber: num,
			})
		}
	}
	return records
}

// licenseRuns returns the plausible license numbers in one line, in order
func (e *Extractor) licenseRuns(text string) []string {
	text = numberLabelNoise.ReplaceAllString(text, " ${1}")
	text = numberCommaNoise.ReplaceAllString(text, " ${1}")

	var out []string
	for _, loc := range digitRun.FindAllStringIndex(text, -1) {
		num := text[loc[0]:loc[1]]
		if len(num) < 4 || len(num) > 6 {
			continue
		}
		if len(num) == 4 && yearPattern.MatchString(num) && !truncated(text, loc[0], loc[1]) {
			continue
		}
		if v, err := strconv.Atoi(num); err != nil || v < e.cfg.MinLicense {
			continue
		}
		out = append(out, num)
	}
	return out
}

func truncated(text string, start, end int) bool {
	if start > 0 && strings.IndexByte(truncationHints, text[start-1]) >= 0 {
		return true
	}
	return end < len(text) && strings.IndexByte(truncationHints, text[end]) >= 0
}

package stamp

// Sink collects records for one page, keyed by license number.
// The first record per number wins, except that text-layer evidence
// replaces an earlier OCR record. Text-layer line tops and lefts come
// from the PDF; word extents within a line are estimated from font size.
// A kept record without a name adopts one from a later duplicate.
type Sink struct {
	index   map[string]int
	records []Record
}

// NewSink creates an empty page-scoped Sink
func NewSink() *Sink {
	return &Sink{index: make(map[string]int)}
}

// Add offers r to the sink and reports whether it was kept
func (s *Sink) Add(r Record) bool {
	if r.LicenseNumber == "" {
		return false
	}
	i, ok := s.index[r.LicenseNumber]
	if !ok {
		s.index[r.LicenseNumber] = len(s.records)
		s.records = append(s.records, r)
		return true
	}
	existing := s.records[i]
	if existing.Source != SourceTextLayer && r.Source == SourceTextLayer {
		if r.EngineerName == nil {
			r.EngineerName = existing.EngineerName
		}
		s.records[i] = r
		return true
	}
	if existing.EngineerName == nil && r.EngineerName != nil {
		s.records[i].EngineerName = r.EngineerName
	}
	return false
}

// Records returns the kept records in insertion order
func (s *Sink) Records() []Record {
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

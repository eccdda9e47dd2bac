package extraction

import (
	"fmt"

	"github.com/zombor/stamp-extractor/internal/stamp"
)

// SymbolApprovalStamp is the symbol type reported for every stamp
const SymbolApprovalStamp = "approval_stamp"

// Units selects the coordinate system of reported boxes
type Units string

const (
	// UnitsPixels reports boxes in search-resolution raster pixels
	UnitsPixels Units = "pixels"
	// UnitsNormalized reports boxes as fractions of the page size
	UnitsNormalized Units = "normalized"
)

// ParseUnits validates a units name; empty means pixels
func ParseUnits(s string) (Units, error) {
	switch Units(s) {
	case "", UnitsPixels:
		return UnitsPixels, nil
	case UnitsNormalized:
		return UnitsNormalized, nil
	default:
		return "", fmt.Errorf("unknown units %q, want %q or %q", s, UnitsPixels, UnitsNormalized)
	}
}

// Stamp is one extracted stamp as returned to callers
type Stamp struct {
	SymbolType    string       `json:"symbol_type"`
	BoundingBox   []float64    `json:"bounding_box"` // [x, y, w, h]
	EngineerName  *string      `json:"engineer_name"`
	LicenseNumber *string      `json:"license_number"`
	Source        stamp.Source `json:"source"`
}

// Result is the extraction outcome for one page
type Result struct {
	Page    int     `json:"page"`
	Stamps  []Stamp `json:"stamps"`
	RawText string  `json:"raw_text,omitempty"`
	Units   Units   `json:"units"`
	Width   int     `json:"width"`
	Height  int     `json:"height"`
}

// PageInfo describes an uploaded document
type PageInfo struct {
	PageCount int `json:"page_count"`
}

// Preview is a low-resolution page image as a data URL
type Preview struct {
	Image  string `json:"image"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// newStamp converts a record into caller units for a width × height page
func newStamp(r stamp.Record, units Units, width, height int) Stamp {
	var box []float64
	if units == UnitsNormalized {
		n := r.Box.Normalize(width, height)
		box = n[:]
	} else {
		box = []float64{float64(r.Box.X), float64(r.Box.Y), float64(r.Box.Width), float64(r.Box.Height)}
	}
	license := r.LicenseNumber
	return Stamp{
		SymbolType:    SymbolApprovalStamp,
		BoundingBox:   box,
		EngineerName:  r.EngineerName,
		LicenseNumber: &license,
		Source:        r.Source,
	}
}

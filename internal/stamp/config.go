package stamp

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable heuristic of the locator and extractors.
// It is loaded once at start and shared read-only afterwards.
type Config struct {
	Window      WindowConfig      `yaml:"window"`
	Geometry    GeometryConfig    `yaml:"geometry"`
	Regions     RegionConfig      `yaml:"regions"`
	Association AssociationConfig `yaml:"association"`
	Record      RecordConfig      `yaml:"record"`
	Blacklist   []string          `yaml:"blacklist"`
	Titles      []string          `yaml:"titles"`
}

// WindowConfig sets the layout prior used to bound the search
type WindowConfig struct {
	// LandscapeAspect is the width/height ratio above which a page is treated
	// as having a right-side vertical title block.
	LandscapeAspect float64 `yaml:"landscape_aspect"`
	StripWidth      float64 `yaml:"strip_width"`   // fraction of page width, landscape
	CornerWidth     float64 `yaml:"corner_width"`  // fraction of page width, portrait
	CornerHeight    float64 `yaml:"corner_height"` // fraction of page height, portrait
}

// GeometryConfig bounds what counts as a stamp-like contour
type GeometryConfig struct {
	MinAreaFrac   float64 `yaml:"min_area_frac"`
	MaxAreaFrac   float64 `yaml:"max_area_frac"`
	MinSquareness float64 `yaml:"min_squareness"`
	MaxSquareness float64 `yaml:"max_squareness"`
	MinFill       float64 `yaml:"min_fill"`
	MaxFill       float64 `yaml:"max_fill"`
	MinConvexity  float64 `yaml:"min_convexity"`
}

// RegionConfig controls candidate post-processing. Pixel values are at the
// search resolution.
type RegionConfig struct {
	DedupTolerance int     `yaml:"dedup_tolerance"`
	Margin         int     `yaml:"margin"`
	SplitRatio     float64 `yaml:"split_ratio"`
	MaxRegions     int     `yaml:"max_regions"`
	RefineCircles  bool    `yaml:"refine_circles"`
	// MinCircleFraction is the smallest accepted refined diameter as a
	// fraction of the coarse box's shorter side.
	MinCircleFraction float64 `yaml:"min_circle_fraction"`
}

// AssociationConfig controls name lookup around a license anchor. Pixel
// values are at DPI and are rescaled to the frame being searched.
type AssociationConfig struct {
	MaxAbove      int     `yaml:"max_above"`
	MaxHorizontal int     `yaml:"max_horizontal"`
	NearestLines  int     `yaml:"nearest_lines"`
	MaxFragments  int     `yaml:"max_fragments"`
	MaxOffset     int     `yaml:"max_offset"`
	MinLetters    int     `yaml:"min_letters"`
	DPI           float64 `yaml:"dpi"`
}

// RecordConfig sets how a record box is grown around its anchor line.
// Pixel values are at DPI.
type RecordConfig struct {
	MarginX      int     `yaml:"margin_x"`
	MarginTop    int     `yaml:"margin_top"`
	MarginBottom int     `yaml:"margin_bottom"`
	DPI          float64 `yaml:"dpi"`
	MinLicense   int     `yaml:"min_license"`
}

// DefaultConfig returns the built-in heuristics
func DefaultConfig() Config {
	return Config{
		Window: WindowConfig{
			LandscapeAspect: 1.3,
			StripWidth:      0.25,
			CornerWidth:     0.42,
			CornerHeight:    0.40,
		},
		Geometry: GeometryConfig{
			MinAreaFrac:   0.0005,
			MaxAreaFrac:   0.08,
			MinSquareness: 0.5,
			MaxSquareness: 2.0,
			MinFill:       0.15,
			MaxFill:       0.98,
			MinConvexity:  0.35,
		},
		Regions: RegionConfig{
			DedupTolerance:    200,
			Margin:            20,
			SplitRatio:        1.4,
			MaxRegions:        4,
			RefineCircles:     true,
			MinCircleFraction: 0.5,
		},
		Association: AssociationConfig{
			MaxAbove:      400,
			MaxHorizontal: 300,
			NearestLines:  4,
			MaxFragments:  2,
			MaxOffset:     7,
			MinLetters:    3,
			DPI:           300,
		},
		Record: RecordConfig{
			MarginX:      50,
			MarginTop:    350,
			MarginBottom: 200,
			DPI:          300,
			MinLicense:   1000,
		},
		Blacklist: defaultBlacklist(),
		Titles:    defaultTitles(),
	}
}

// LoadConfig reads a YAML heuristics file over the defaults.
// Keys missing from the file keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading heuristics file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing heuristics file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validating heuristics file: %w", err)
	}
	return cfg, nil
}

// Validate checks that the heuristics are internally consistent
func (c Config) Validate() error {
	fraction := func(name string, v float64) error {
		if v <= 0 || v > 1 {
			return fmt.Errorf("%s must be in (0,1], got %v", name, v)
		}
		return nil
	}
	checks := []error{
		fraction("window.strip_width", c.Window.StripWidth),
		fraction("window.corner_width", c.Window.CornerWidth),
		fraction("window.corner_height", c.Window.CornerHeight),
		fraction("geometry.min_area_frac", c.Geometry.MinAreaFrac),
		fraction("geometry.max_area_frac", c.Geometry.MaxAreaFrac),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	if c.Window.LandscapeAspect <= 0 {
		return fmt.Errorf("window.landscape_aspect must be positive")
	}
	if c.Geometry.MinAreaFrac >= c.Geometry.MaxAreaFrac {
		return fmt.Errorf("geometry.min_area_frac must be below max_area_frac")
	}
	if c.Geometry.MinSquareness <= 0 || c.Geometry.MinSquareness >= c.Geometry.MaxSquareness {
		return fmt.Errorf("geometry squareness bounds are invalid")
	}
	if c.Geometry.MinFill < 0 || c.Geometry.MinFill >= c.Geometry.MaxFill || c.Geometry.MaxFill > 1 {
		return fmt.Errorf("geometry fill bounds are invalid")
	}
	if c.Regions.SplitRatio <= 1 {
		return fmt.Errorf("regions.split_ratio must be above 1")
	}
	if c.Regions.MaxRegions < 1 {
		return fmt.Errorf("regions.max_regions must be at least 1")
	}
	if c.Association.DPI <= 0 || c.Record.DPI <= 0 {
		return fmt.Errorf("association.dpi and record.dpi must be positive")
	}
	if c.Association.MaxFragments < 1 {
		return fmt.Errorf("association.max_fragments must be at least 1")
	}
	return nil
}

// Fingerprint returns a short stable digest of the configuration
func (c Config) Fingerprint() string {
	data, err := yaml.Marshal(c)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

func defaultBlacklist() []string {
	return []string{
		// boilerplate
		"PREPARED BY", "TOWN OF", "STATE OF", "COMMONWEALTH", "DEPARTMENT OF",
		"PUBLIC WORKS", "PERMIT DRAWINGS", "NOT FOR CONSTRUCTION", "NOT FOR",
		"COMPLETE SET", "THIS DOCUMENT", "RELEASED TEMPORARILY", "FOR REVIEW ONLY",
		"PRELIMINARY", "ISSUED FOR", "SEAL", "SIGNATURE", "DATE", "SHEET",
		"DRAWING", "PROJECT", "SCALE", "REVISION", "APPROVED", "CHECKED", "DRAWN",
		"LICENSE", "LICENSE NO", "REG NO", "NUMBER", "ENVIRONMENTAL", "TIGHE BOND",
		// jurisdictions
		"ALABAMA", "ALASKA", "ARIZONA", "ARKANSAS", "CALIFORNIA", "COLORADO",
		"CONNECTICUT", "DELAWARE", "FLORIDA", "GEORGIA", "HAWAII", "IDAHO",
		"ILLINOIS", "INDIANA", "IOWA", "KANSAS", "KENTUCKY", "LOUISIANA", "MAINE",
		"MARYLAND", "MASSACHUSETTS", "MICHIGAN", "MINNESOTA", "MISSISSIPPI",
		"MISSOURI", "MONTANA", "NEBRASKA", "NEVADA", "NEW HAMPSHIRE", "NEW JERSEY",
		"NEW MEXICO", "NEW YORK", "NORTH CAROLINA", "NORTH DAKOTA", "OHIO",
		"OKLAHOMA", "OREGON", "PENNSYLVANIA", "RHODE ISLAND", "SOUTH CAROLINA",
		"SOUTH DAKOTA", "TENNESSEE", "TEXAS", "UTAH", "VERMONT", "VIRGINIA",
		"WASHINGTON", "WEST VIRGINIA", "WISCONSIN", "WYOMING",
		// stray OCR artifacts
		"III", "LLL", "EEE", "OOO", "WWW",
	}
}

func defaultTitles() []string {
	return []string{
		"ENGINEER", "ENGINEERING", "PROFESSIONAL", "PROFESSIONAL ENGINEER",
		"REGISTERED", "REGISTERED PROFESSIONAL ENGINEER", "LICENSED",
		"LICENSED PROFESSIONAL ENGINEER", "CIVIL", "CIVIL ENGINEER", "STRUCTURAL",
		"STRUCTURAL ENGINEER", "MECHANICAL", "ELECTRICAL", "GEOTECHNICAL",
		"ARCHITECT", "REGISTERED ARCHITECT", "LAND SURVEYOR", "SURVEYOR",
		"P E", "S E", "PLS", "AIA",
	}
}

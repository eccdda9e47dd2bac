package stamp

import (
	"sort"
	"strings"
	"unicode"
)

// Associator finds the name fragments that belong to a license anchor
type Associator struct {
	cfg   AssociationConfig
	vocab *Vocabulary
	scale float64
}

// NewAssociator creates an Associator working at the configured DPI
func NewAssociator(cfg AssociationConfig, vocab *Vocabulary) *Associator {
	return &Associator{cfg: cfg, vocab: vocab, scale: 1}
}

// AtDPI returns a copy whose pixel radii are rescaled for lines recognized
// at dpi
func (a *Associator) AtDPI(dpi float64) *Associator {
	c := *a
	if dpi > 0 && a.cfg.DPI > 0 {
		c.scale = dpi / a.cfg.DPI
	}
	return &c
}

// AssociateName returns the name found near lines[anchor], or nil.
// Lines with boxes are searched spatially; otherwise by line index.
func (a *Associator) AssociateName(lines []Line, anchor int) *string {
	if anchor < 0 || anchor >= len(lines) {
		return nil
	}

	var fragments []string
	if lines[anchor].HasBox() {
		fragments = a.spatial(lines, anchor)
	} else {
		fragments = a.byIndex(lines, anchor)
	}
	if len(fragments) == 0 {
		return nil
	}
	name := strings.Join(fragments, " ")
	return &name
}

type nearbyLine struct {
	index    int
	distance int
	fragment string
}

func (a *Associator) spatial(lines []Line, anchor int) []string {
	ref := lines[anchor].Box
	maxAbove := int(float64(a.cfg.MaxAbove) * a.scale)
	maxHorizontal := int(float64(a.cfg.MaxHorizontal) * a.scale)

	var nearby []nearbyLine
	for i, line := range lines {
		if i == anchor || !line.HasBox() {
			continue
		}
		dy := ref.Y - line.Box.Y
		dx := abs(line.Box.X - ref.X)
		if dy < 0 || dy > maxAbove || dx > maxHorizontal {
			continue
		}
		fragment, ok := a.ValidFragment(line.Text)
		if !ok {
			continue
		}
		nearby = append(nearby, nearbyLine{index: i, distance: dy, fragment: fragment})
	}

	sort.SliceStable(nearby, func(i, j int) bool { return nearby[i].distance < nearby[j].distance })
	if len(nearby) > a.cfg.NearestLines {
		nearby = nearby[:a.cfg.NearestLines]
	}
	sort.SliceStable(nearby, func(i, j int) bool { return nearby[i].index < nearby[j].index })

	fragments := make([]string, 0, a.cfg.MaxFragments)
	for _, n := range nearby {
		if len(fragments) == a.cfg.MaxFragments {
			break
		}
		fragments = append(fragments, n.fragment)
	}
	return fragments
}

func (a *Associator) byIndex(lines []Line, anchor int) []string {
	var found []nearbyLine
	for k := 1; k <= a.cfg.MaxOffset && len(found) < a.cfg.MaxFragments; k++ {
		for _, i := range []int{anchor - k, anchor + k} {
			if i < 0 || i >= len(lines) || len(found) == a.cfg.MaxFragments {
				continue
			}
			if fragment, ok := a.ValidFragment(lines[i].Text); ok {
				found = append(found, nearbyLine{index: i, distance: k, fragment: fragment})
			}
		}
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].index < found[j].index })
	fragments := make([]string, 0, len(found))
	for _, f := range found {
		fragments = append(fragments, f.fragment)
	}
	return fragments
}

// ValidFragment cleans text and reports whether it can be part of a name
func (a *Associator) ValidFragment(text string) (string, bool) {
	if strings.IndexFunc(text, unicode.IsDigit) >= 0 {
		return "", false
	}
	cleaned := strings.Join(strings.Fields(strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, text)), " ")
	if len([]rune(cleaned)) < 2 {
		return "", false
	}
	if hasWord(cleaned, "OF") || a.vocab.Boilerplate(cleaned) {
		return "", false
	}
	letters := 0
	for _, r := range cleaned {
		if !unicode.IsSpace(r) {
			letters++
		}
	}
	if letters < a.cfg.MinLetters {
		return "", false
	}
	return cleaned, true
}

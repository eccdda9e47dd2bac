package stamp

import (
	"strings"
	"unicode"
)

// Vocabulary is the read-only lexical data shared by the extractors
type Vocabulary struct {
	entries map[string]struct{} // whole blacklist and title entries
	words   map[string]struct{} // single-word entries
	phrases []string            // multi-word entries matched inside text
}

// minPhraseLen is the shortest multi-word entry matched inside longer text;
// shorter entries such as "P E" only match exactly
const minPhraseLen = 4

// minRemainder is how many letters must be left once single-word entries
// are removed for text to still count as a possible name
const minRemainder = 2

// NewVocabulary builds a Vocabulary from blacklist and title entries.
// Entries are matched after letter-only, upper-case normalization.
func NewVocabulary(blacklist, titles []string) *Vocabulary {
	v := &Vocabulary{
		entries: make(map[string]struct{}, len(blacklist)+len(titles)),
		words:   make(map[string]struct{}),
	}
	for _, e := range append(append([]string{}, blacklist...), titles...) {
		n := normalizeWords(e)
		if n == "" {
			continue
		}
		v.entries[n] = struct{}{}
		switch {
		case !strings.Contains(n, " "):
			v.words[n] = struct{}{}
		case len(n) >= minPhraseLen:
			v.phrases = append(v.phrases, n)
		}
	}
	return v
}

// Boilerplate reports whether s is stamp boilerplate rather than a name:
// it equals an entry, contains a multi-word entry on word boundaries, or
// has almost nothing left once single-word entries and "OF" are removed.
// A single-word entry inside a longer name, as in "VIRGINIA A MURPHY",
// does not make it boilerplate.
func (v *Vocabulary) Boilerplate(s string) bool {
	n := normalizeWords(s)
	if n == "" {
		return true
	}
	if _, ok := v.entries[n]; ok {
		return true
	}
	padded := " " + n + " "
	for _, p := range v.phrases {
		if strings.Contains(padded, " "+p+" ") {
			return true
		}
	}

	remainder := 0
	for _, w := range strings.Fields(n) {
		if _, ok := v.words[w]; ok || w == "OF" {
			continue
		}
		remainder += len([]rune(w))
	}
	return remainder < minRemainder
}

// hasWord reports whether s contains word as a standalone word, ignoring case
func hasWord(s, word string) bool {
	for _, w := range strings.Fields(normalizeWords(s)) {
		if strings.EqualFold(w, word) {
			return true
		}
	}
	return false
}

// normalizeWords upper-cases s, turns every non-letter into a separator and
// collapses runs of separators
func normalizeWords(s string) string {
	return strings.Join(strings.FieldsFunc(strings.ToUpper(s), func(r rune) bool {
		return !unicode.IsLetter(r)
	}), " ")
}

package collation

import (
	"strings"
	"unicode"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Collator compares strings with base sensitivity (case- and accent-insensitive)
// and numeric-aware ordering, so "2" sorts before "10". Punctuation is stripped
// during folding; the collate package exposes no alternate-weight toggle.
type Collator struct {
	c *collate.Collator
}

// New builds a collator for the given UI language. Arabic pages collate under
// Arabic rules, everything else under English.
func New(uiLang string) *Collator {
	tag := language.English
	if strings.HasPrefix(strings.ToLower(uiLang), "ar") {
		tag = language.Arabic
	}
	return &Collator{c: collate.New(tag, collate.Loose, collate.Numeric)}
}

// Compare reports the order of a and b after folding.
func (c *Collator) Compare(a, b string) int {
	return c.c.CompareString(Fold(a), Fold(b))
}

// SortStrings orders the slice in place.
func (c *Collator) SortStrings(ss []string) {
	c.c.Sort(foldedSlice(ss))
}

type foldedSlice []string

func (s foldedSlice) Len() int           { return len(s) }
func (s foldedSlice) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }
func (s foldedSlice) Bytes(i int) []byte { return []byte(Fold(s[i])) }

// Fold lowercases and drops punctuation, keeping letters, digits and spaces.
func Fold(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

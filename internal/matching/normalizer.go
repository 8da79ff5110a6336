// Package matching scores how likely a scraped listing name and a canonical
// specification name describe the same hardware SKU. Everything here is pure:
// no I/O, no shared mutable state, safe for concurrent use.
package matching

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// nonWordPattern matches anything that is not a letter, digit or whitespace
	nonWordPattern = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)

	// dotlessI has no decomposition, so folding handles it explicitly
	dotlessI = strings.NewReplacer("ı", "i")
)

var stopWords = map[string]bool{
	"the":  true,
	"and":  true,
	"or":   true,
	"with": true,
	"for":  true,
}

// Normalize lowercases text, replaces punctuation with spaces, collapses
// whitespace and drops stopwords. Normalize(Normalize(x)) == Normalize(x).
func Normalize(text string) string {
	words := strings.Fields(cleanText(text))
	kept := words[:0]
	for _, w := range words {
		if !stopWords[w] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// cleanText is Normalize without stopword removal. Feature extraction and
// tokenization run on this form so that "for" inside a name never shifts a pattern.
func cleanText(text string) string {
	s := strings.ToLower(foldDiacritics(text))
	s = nonWordPattern.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// foldDiacritics maps "Güç Kaynağı" to "Guc Kaynagi" so that storefronts that
// drop Turkish characters still compare equal.
func foldDiacritics(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, text)
	if err != nil {
		out = text
	}
	return dotlessI.Replace(out)
}

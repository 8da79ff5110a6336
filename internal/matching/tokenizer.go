package matching

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	gpuCompound   = regexp.MustCompile(`^(rx|rtx|gtx)(\d{4})(xtx|xt|xe|ti|super|gre)?$`)
	ryzenCompound = regexp.MustCompile(`^ryzen(\d)(\d{4})([a-z][a-z0-9]*)?$`)
	coreCompound  = regexp.MustCompile(`^core(i[3579])(\d{4,5})([a-z]{1,2})?$`)
)

// Tokenize splits a name into lowercase tokens longer than one character and
// expands compound brand+model tokens: "rx9070xt" also yields "rx", "9070xt",
// "9070" and "xt". The result is deduplicated in first-seen order.
func Tokenize(name string) []string {
	words := strings.Fields(cleanText(name))
	tokens := make([]string, 0, len(words)*2)
	seen := make(map[string]bool, len(words)*2)

	add := func(t string) {
		if utf8.RuneCountInString(t) <= 1 || seen[t] {
			return
		}
		seen[t] = true
		tokens = append(tokens, t)
	}

	for _, w := range words {
		add(w)
		for _, t := range expandCompound(w) {
			add(t)
		}
	}
	return tokens
}

func expandCompound(word string) []string {
	if m := gpuCompound.FindStringSubmatch(word); m != nil {
		return []string{m[1], m[2] + m[3], m[2], m[3]}
	}
	if m := ryzenCompound.FindStringSubmatch(word); m != nil {
		return []string{"ryzen", m[2] + m[3], m[2], m[3]}
	}
	if m := coreCompound.FindStringSubmatch(word); m != nil {
		return []string{"core", m[1], m[2] + m[3], m[2], m[3]}
	}
	return nil
}

// SharedTokens returns the tokens of a that also occur in b, in a's order
func SharedTokens(a, b []string) []string {
	inB := make(map[string]bool, len(b))
	for _, t := range b {
		inB[t] = true
	}
	shared := make([]string, 0)
	for _, t := range a {
		if inB[t] {
			shared = append(shared, t)
		}
	}
	return shared
}

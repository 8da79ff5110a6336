package matching

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/JustEmoBut/scraper-backend/internal/domain"
)

// Outcome names the scoring path that produced a Result
type Outcome string

const (
	OutcomeEmpty        Outcome = "empty"
	OutcomeExact        Outcome = "exact"
	OutcomeNormalized   Outcome = "normalized"
	OutcomeDisqualified Outcome = "disqualified"
	OutcomeWeighted     Outcome = "weighted"
	OutcomeFallback     Outcome = "fallback"
)

const (
	exactScore      = 1.0
	normalizedScore = 0.95

	// below this much comparable weight the features say too little
	minComparableWeight = 0.3

	fallbackScale = 0.4
	fallbackCap   = 0.35

	sameBaseModelScore = 0.8
	capacityTolerance  = 0.9
	nearCapacityScore  = 0.8
)

// Result is a score plus everything that went into it
type Result struct {
	Score           float64       `json:"score"`
	Outcome         Outcome       `json:"outcome"`
	Reason          string        `json:"reason,omitempty"`
	SpecFeatures    Features      `json:"specFeatures"`
	ProductFeatures Features      `json:"productFeatures"`
	Weights         WeightProfile `json:"weights"`
}

// Scorer exposes Explain as a method for callers that inject scoring
type Scorer struct{}

// Explain implements the injected scoring interface of the orchestrator
func (Scorer) Explain(specName, productName string, c domain.Category) Result {
	return Explain(specName, productName, c)
}

// CalculateSimilarity returns a confidence in [0,1] that both names describe
// the same SKU. category may be the enumeration name or the storefront label;
// unknown categories use DefaultWeights.
func CalculateSimilarity(specName, productName, category string) float64 {
	c, err := domain.ParseCategory(category)
	if err != nil {
		c = ""
	}
	return Explain(specName, productName, c).Score
}

// Explain scores a pair of names and reports the path taken
func Explain(specName, productName string, c domain.Category) Result {
	spec := strings.ToLower(strings.TrimSpace(specName))
	product := strings.ToLower(strings.TrimSpace(productName))
	if spec == "" || product == "" {
		return Result{Outcome: OutcomeEmpty}
	}
	if spec == product {
		return Result{Score: exactScore, Outcome: OutcomeExact}
	}
	if ns := Normalize(spec); ns != "" && ns == Normalize(product) {
		return Result{Score: normalizedScore, Outcome: OutcomeNormalized}
	}

	r := Result{
		SpecFeatures:    ExtractFeatures(spec),
		ProductFeatures: ExtractFeatures(product),
		Weights:         WeightsFor(c),
	}

	if reason, ok := disqualify(r.SpecFeatures, r.ProductFeatures); ok {
		r.Outcome = OutcomeDisqualified
		r.Reason = reason
		return r
	}

	score, maxScore := weightedScore(r.SpecFeatures, r.ProductFeatures, r.Weights)
	if maxScore < minComparableWeight {
		r.Score = tokenOverlap(spec, product)
		r.Outcome = OutcomeFallback
		return r
	}

	r.Score = math.Max(0, math.Min(score/maxScore, 1))
	r.Outcome = OutcomeWeighted
	return r
}

func weightedScore(a, b Features, w WeightProfile) (score, maxScore float64) {
	if a.ModelNumber != "" && b.ModelNumber != "" {
		maxScore += w.Model
		score += w.Model * modelSimilarity(a.ModelNumber, b.ModelNumber)
	}
	if a.Variant != "" && b.Variant != "" {
		maxScore += w.Variant
		score += w.Variant * variantSimilarity(a.Variant, b.Variant)
	}
	if a.Brand != "" && b.Brand != "" {
		maxScore += w.Brand
		if a.Brand == b.Brand {
			score += w.Brand
		}
	}
	if a.CapacityGB > 0 && b.CapacityGB > 0 {
		maxScore += w.Capacity
		score += w.Capacity * capacitySimilarity(a.CapacityGB, b.CapacityGB)
	}
	return score, maxScore
}

var modelShape = regexp.MustCompile(`^([a-z]*)(\d+)([a-z][a-z0-9]*)?$`)

type modelCode struct {
	prefix, digits, suffix string
}

func splitModel(code string) (modelCode, bool) {
	m := modelShape.FindStringSubmatch(code)
	if m == nil {
		return modelCode{}, false
	}
	return modelCode{prefix: m[1], digits: m[2], suffix: m[3]}, true
}

// disqualify applies the hard rules: different model numbers or families never
// match, a variant suffix on only one side of the same base ("5070" vs
// "5070ti") is a different SKU, and so are two different suffixes unless both
// are GPU tier suffixes ("5800x" vs "5800x3d", "14600k" vs "14600kf").
func disqualify(a, b Features) (string, bool) {
	if a.ModelNumber == "" || b.ModelNumber == "" || a.ModelNumber == b.ModelNumber {
		return "", false
	}
	ma, okA := splitModel(a.ModelNumber)
	mb, okB := splitModel(b.ModelNumber)
	if !okA || !okB {
		return "", false
	}
	if ma.prefix != "" && mb.prefix != "" && ma.prefix != mb.prefix {
		return fmt.Sprintf("model family %s vs %s", ma.prefix, mb.prefix), true
	}
	if ma.digits != mb.digits {
		return fmt.Sprintf("model number %s vs %s", ma.digits, mb.digits), true
	}
	if (ma.suffix == "") != (mb.suffix == "") {
		return fmt.Sprintf("variant mismatch %s vs %s", a.ModelNumber, b.ModelNumber), true
	}
	if ma.suffix != mb.suffix && !(tierSuffixes[ma.suffix] && tierSuffixes[mb.suffix]) {
		return fmt.Sprintf("different sku %s vs %s", a.ModelNumber, b.ModelNumber), true
	}
	return "", false
}

func modelSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	ma, okA := splitModel(a)
	mb, okB := splitModel(b)
	if okA && okB && ma.digits == mb.digits {
		return sameBaseModelScore
	}
	maxLen := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if maxLen == 0 {
		return 0
	}
	return math.Max(0, 1-float64(levenshteinDistance(a, b))/float64(maxLen))
}

func capacitySimilarity(a, b int) float64 {
	if a == b {
		return 1.0
	}
	lo, hi := min(a, b), max(a, b)
	if float64(lo)/float64(hi) >= capacityTolerance {
		return nearCapacityScore
	}
	return 0
}

// tokenOverlap counts spec words that contain, or are contained in, some
// product word. Only words longer than two characters count.
func tokenOverlap(spec, product string) float64 {
	specWords := significantWords(spec)
	productWords := significantWords(product)
	if len(specWords) == 0 || len(productWords) == 0 {
		return 0
	}

	matches := 0
	for _, sw := range specWords {
		for _, pw := range productWords {
			if strings.Contains(sw, pw) || strings.Contains(pw, sw) {
				matches++
				break
			}
		}
	}

	similarity := float64(matches) / float64(max(len(specWords), len(productWords)))
	return math.Min(similarity*fallbackScale, fallbackCap)
}

func significantWords(s string) []string {
	words := strings.Fields(cleanText(s))
	out := words[:0]
	for _, w := range words {
		if utf8.RuneCountInString(w) > 2 {
			out = append(out, w)
		}
	}
	return out
}

// levenshteinDistance keeps two rows instead of the full matrix
func levenshteinDistance(s1, s2 string) int {
	r1 := []rune(s1)
	r2 := []rune(s2)
	if len(r1) == 0 {
		return len(r2)
	}
	if len(r2) == 0 {
		return len(r1)
	}

	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(r2)]
}

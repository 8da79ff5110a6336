package matching

import (
	"regexp"
	"strconv"
)

// Features are the structured attributes pulled out of a product name. Empty
// fields mean "no judgment", never "zero".
type Features struct {
	ModelNumber string `json:"modelNumber,omitempty"`
	Variant     string `json:"variant,omitempty"`
	Brand       string `json:"brand,omitempty"`
	// CapacityGB is normalized to gigabytes; 1TB is 1000GB
	CapacityGB int `json:"capacity,omitempty"`
	// ModelRule names the extraction rule that produced ModelNumber
	ModelRule string `json:"modelRule,omitempty"`
}

// IsEmpty reports whether nothing could be extracted
func (f Features) IsEmpty() bool {
	return f.ModelNumber == "" && f.Variant == "" && f.Brand == "" && f.CapacityGB == 0
}

// modelRule is one entry of the ordered extraction chain. The first rule that
// matches decides the model code; guard, when set, must accept the whole text.
type modelRule struct {
	name    string
	guard   *regexp.Regexp
	pattern *regexp.Regexp
	extract func(m []string) (model, suffix string)
}

var (
	storageContext = regexp.MustCompile(`\b(?:ssd|nvme|hdd|sata|m 2)\b`)
	ramContext     = regexp.MustCompile(`\bddr[345]\b`)
)

// digitsAndSuffix builds the code from a numeric group and the first
// non-empty suffix group.
func digitsAndSuffix(digits int, suffixes ...int) func(m []string) (string, string) {
	return func(m []string) (string, string) {
		suffix := ""
		for _, i := range suffixes {
			if m[i] != "" {
				suffix = m[i]
				break
			}
		}
		return m[digits] + suffix, suffix
	}
}

// modelRules run on cleanText output, most specific first
var modelRules = []modelRule{
	{
		name:    "gpu",
		pattern: regexp.MustCompile(`\b(?:rtx|gtx|rx)\s*(\d{3,4})\s*(xtx|xt|xe|ti|super|gre)?\b`),
		extract: digitsAndSuffix(1, 2),
	},
	{
		name:    "intel-arc",
		pattern: regexp.MustCompile(`\barc\s*([ab])\s*(\d{3})\b`),
		extract: func(m []string) (string, string) { return m[1] + m[2], "" },
	},
	{
		name:    "ryzen",
		pattern: regexp.MustCompile(`\bryzen\s*(?:\d\s*)?(\d{4})(?:([a-z][a-z0-9]{0,2})|\s(x3d|xt|x|g|f))?\b`),
		extract: digitsAndSuffix(1, 2, 3),
	},
	{
		name:    "core-ultra",
		pattern: regexp.MustCompile(`\bcore\s*ultra\s*\d\s*(\d{3})([a-z]{1,2})?\b`),
		extract: digitsAndSuffix(1, 2),
	},
	{
		name:    "core",
		pattern: regexp.MustCompile(`\b(?:core\s*)?i[3579]\s*(\d{4,5})(?:([a-z]{1,2})|\s(kf|ks|k|f))?\b`),
		extract: digitsAndSuffix(1, 2, 3),
	},
	{
		name:    "cpu-code",
		pattern: regexp.MustCompile(`\b(\d{4,5})(kf|ks|k|f|x3d|x)\b`),
		extract: digitsAndSuffix(1, 2),
	},
	{
		name:    "chipset",
		pattern: regexp.MustCompile(`\b([abhxz])(\d{3})([em])?\b`),
		extract: func(m []string) (string, string) { return m[1] + m[2] + m[3], "" },
	},
	{
		name:    "ram-speed",
		guard:   ramContext,
		pattern: regexp.MustCompile(`\b(\d{4})\s*(?:mhz|mt\s?s)\b|\bddr[345]\s(\d{4})\b`),
		extract: func(m []string) (string, string) {
			if m[1] != "" {
				return m[1], ""
			}
			return m[2], ""
		},
	},
	{
		name:    "ssd-series",
		guard:   storageContext,
		pattern: regexp.MustCompile(`\b(\d{3,4})\s*(pro|evo|plus)\b`),
		extract: digitsAndSuffix(1, 2),
	},
	{
		name:    "storage-capacity",
		guard:   storageContext,
		pattern: regexp.MustCompile(`\b(\d+)\s*(tb|gb)\b`),
		extract: func(m []string) (string, string) {
			gb := toGB(m[1], m[2])
			if gb == 0 {
				return "", ""
			}
			return strconv.Itoa(gb) + "gb", ""
		},
	},
	{
		name:    "bare-four-digit",
		pattern: regexp.MustCompile(`\b(\d{4})\s*(ti|super|xt|xe)?\b`),
		extract: digitsAndSuffix(1, 2),
	},
	{
		name:    "series-code",
		pattern: regexp.MustCompile(`\b([a-z]{1,4})(\d{3,4})([a-z]{0,3})\b`),
		extract: func(m []string) (string, string) { return m[1] + m[2] + m[3], "" },
	},
	{
		name:    "wattage",
		pattern: regexp.MustCompile(`\b(\d{3,4})\s*w(?:att)?\b`),
		extract: func(m []string) (string, string) { return m[1] + "w", "" },
	},
}

// standaloneVariant finds a multi-letter variant word anywhere in the name.
// Single-letter suffixes only count when attached to a model code, so "(non-X)"
// never reads as an X variant.
var standaloneVariant = regexp.MustCompile(`\b(ti|super|xt|xe|pro|gaming|oc|boost)\b`)

type brandRule struct {
	pattern *regexp.Regexp
	brand   string
}

// brandRules check chip vendors before CPU families
var brandRules = []brandRule{
	{regexp.MustCompile(`\b(?:nvidia|geforce|rtx|gtx)`), "nvidia"},
	{regexp.MustCompile(`\b(?:amd|radeon|rx\s?\d|ryzen|athlon|epyc|threadripper)`), "amd"},
	{regexp.MustCompile(`\b(?:intel|arc\b|core\s?(?:i[3579]|ultra)|corei[3579]|xeon|pentium|celeron)`), "intel"},
}

var (
	terabytePattern = regexp.MustCompile(`\b(\d+)\s*tb\b`)
	kitPattern      = regexp.MustCompile(`\b(\d+)\s*x\s*(\d+)\s*gb\b`)
	gigabytePattern = regexp.MustCompile(`\b(\d+)\s*gb\b`)
)

// ExtractFeatures derives model, variant, brand and capacity from a free-text
// name. It never fails; unparseable input yields empty Features.
func ExtractFeatures(name string) Features {
	text := cleanText(name)
	if text == "" {
		return Features{}
	}

	var f Features
	model, suffix, rule := extractModel(text)
	f.ModelNumber = model
	f.ModelRule = rule
	if _, ok := variantClusters[suffix]; ok {
		f.Variant = suffix
	} else if m := standaloneVariant.FindStringSubmatch(text); m != nil {
		f.Variant = m[1]
	}
	f.Brand = extractBrand(text)
	f.CapacityGB = extractCapacity(text)
	return f
}

func extractModel(text string) (model, suffix, rule string) {
	for _, r := range modelRules {
		if r.guard != nil && !r.guard.MatchString(text) {
			continue
		}
		m := r.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if model, suffix := r.extract(m); model != "" {
			return model, suffix, r.name
		}
	}
	return "", "", ""
}

func extractBrand(text string) string {
	for _, r := range brandRules {
		if r.pattern.MatchString(text) {
			return r.brand
		}
	}
	return ""
}

// extractCapacity tries terabytes, then memory kits ("2x16gb"), then gigabytes
func extractCapacity(text string) int {
	if m := terabytePattern.FindStringSubmatch(text); m != nil {
		return toGB(m[1], "tb")
	}
	if m := kitPattern.FindStringSubmatch(text); m != nil {
		sticks, _ := strconv.Atoi(m[1])
		each, _ := strconv.Atoi(m[2])
		return sticks * each
	}
	if m := gigabytePattern.FindStringSubmatch(text); m != nil {
		return toGB(m[1], "gb")
	}
	return 0
}

func toGB(value, unit string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	if unit == "tb" {
		return n * 1000
	}
	return n
}

package matching

type variantCluster int

const (
	// noTier marks a recognized suffix that shares partial credit with nothing
	noTier variantCluster = iota
	performanceTier
	efficiencyTier
	overclockTier
)

// variantClusters is the variant vocabulary. Compound suffixes (x3d, kf, ks,
// xtx, gre) name their own SKUs and sit in no tier.
var variantClusters = map[string]variantCluster{
	"ti":     performanceTier,
	"super":  performanceTier,
	"xt":     performanceTier,
	"xe":     performanceTier,
	"x":      performanceTier,
	"pro":    performanceTier,
	"f":      efficiencyTier,
	"k":      overclockTier,
	"oc":     overclockTier,
	"gaming": overclockTier,
	"boost":  overclockTier,
	"x3d":    noTier,
	"kf":     noTier,
	"ks":     noTier,
	"xtx":    noTier,
	"gre":    noTier,
}

// tierSuffixes are GPU model suffixes that refresh one base die ("4070 ti" vs
// "4070 super"). Any other pair of different suffixes on the same base number
// is a different SKU.
var tierSuffixes = map[string]bool{"ti": true, "super": true, "xt": true, "xe": true}

// variantSimilarity is 1 for identical variants, 0.6 inside one tier, 0.2 otherwise
func variantSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	ca, okA := variantClusters[a]
	cb, okB := variantClusters[b]
	if okA && okB && ca != noTier && ca == cb {
		return 0.6
	}
	return 0.2
}

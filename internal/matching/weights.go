package matching

import "github.com/JustEmoBut/scraper-backend/internal/domain"

// WeightProfile weights the four feature factors. Profiles are hand tuned and
// conceptually sum to 1, but scores are normalized by the weights actually used.
type WeightProfile struct {
	Model    float64 `json:"model"`
	Variant  float64 `json:"variant"`
	Brand    float64 `json:"brand"`
	Capacity float64 `json:"capacity"`
}

// DefaultWeights applies to categories outside the enumeration
var DefaultWeights = WeightProfile{Model: 0.5, Variant: 0.2, Brand: 0.15, Capacity: 0.15}

var categoryWeights = map[domain.Category]WeightProfile{
	domain.CategoryProcessor:    {Model: 0.6, Variant: 0.25, Brand: 0.1, Capacity: 0.05},
	domain.CategoryGraphicsCard: {Model: 0.55, Variant: 0.3, Brand: 0.1, Capacity: 0.05},
	domain.CategoryRAM:          {Model: 0.3, Variant: 0.1, Brand: 0.15, Capacity: 0.45},
	domain.CategorySSD:          {Model: 0.35, Variant: 0.1, Brand: 0.15, Capacity: 0.4},
	domain.CategoryMotherboard:  {Model: 0.5, Variant: 0.2, Brand: 0.2, Capacity: 0.1},
	domain.CategoryPowerSupply:  {Model: 0.4, Variant: 0.15, Brand: 0.25, Capacity: 0.2},
	domain.CategoryCase:         {Model: 0.45, Variant: 0.2, Brand: 0.25, Capacity: 0.1},
}

// WeightsFor returns the profile for c, or DefaultWeights when c is unknown
func WeightsFor(c domain.Category) WeightProfile {
	if w, ok := categoryWeights[c]; ok {
		return w
	}
	return DefaultWeights
}

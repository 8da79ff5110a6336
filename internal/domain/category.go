package domain

import (
	"fmt"
	"strings"
)

// Category is the fixed enumeration of hardware categories a specification belongs to
type Category string

const (
	CategoryProcessor    Category = "Processor"
	CategoryGraphicsCard Category = "GraphicsCard"
	CategoryMotherboard  Category = "Motherboard"
	CategoryRAM          Category = "RAM"
	CategorySSD          Category = "SSD"
	CategoryPowerSupply  Category = "PowerSupply"
	CategoryCase         Category = "Case"
)

// Categories lists every category in display order
var Categories = []Category{
	CategoryProcessor,
	CategoryGraphicsCard,
	CategoryMotherboard,
	CategoryRAM,
	CategorySSD,
	CategoryPowerSupply,
	CategoryCase,
}

// displayNames are the storefront labels the scraped catalog and curators use
var displayNames = map[Category]string{
	CategoryProcessor:    "İşlemci",
	CategoryGraphicsCard: "Ekran Kartı",
	CategoryMotherboard:  "Anakart",
	CategoryRAM:          "RAM",
	CategorySSD:          "SSD",
	CategoryPowerSupply:  "Güç Kaynağı",
	CategoryCase:         "Bilgisayar Kasası",
}

// Valid reports whether c is part of the enumeration
func (c Category) Valid() bool {
	_, ok := displayNames[c]
	return ok
}

// DisplayName returns the storefront label for the category
func (c Category) DisplayName() string {
	if name, ok := displayNames[c]; ok {
		return name
	}
	return string(c)
}

// ParseCategory resolves either the enumeration name ("GraphicsCard") or the
// storefront label ("Ekran Kartı"), ignoring case and surrounding whitespace.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: empty category", ErrInvalidCategory)
	}
	for _, c := range Categories {
		if strings.EqualFold(s, string(c)) || strings.EqualFold(s, displayNames[c]) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

// CategoryMapping translates a category into the source-taxonomy keys used by
// the scraped catalog (one key per storefront).
type CategoryMapping map[Category][]string

// DefaultCategoryMapping returns the storefront taxonomy the scrapers write
func DefaultCategoryMapping() CategoryMapping {
	return CategoryMapping{
		CategoryProcessor:    {"itopya_islemci", "incehesap_islemci", "sinerji_islemci"},
		CategoryGraphicsCard: {"itopya_ekran-karti", "incehesap_ekran-karti", "sinerji_ekran-karti"},
		CategoryMotherboard:  {"itopya_anakart", "incehesap_anakart", "sinerji_anakart"},
		CategoryRAM:          {"itopya_ram", "incehesap_ram", "sinerji_ram"},
		CategorySSD:          {"itopya_ssd", "incehesap_ssd", "sinerji_ssd"},
		CategoryPowerSupply:  {"itopya_guc-kaynagi", "incehesap_guc-kaynagi", "sinerji_guc-kaynagi"},
		CategoryCase: {
			"itopya_bilgisayar-kasasi", "incehesap_bilgisayar-kasasi", "sinerji_bilgisayar-kasasi",
			"incehesap_bilgisayar-kasası", "sinerji_bilgisayar-kasası",
		},
	}
}

// SourceKeys returns the source keys for c. A category with no configured keys
// falls back to its own name so that catalogs keyed by category still resolve.
func (m CategoryMapping) SourceKeys(c Category) []string {
	if keys, ok := m[c]; ok && len(keys) > 0 {
		out := make([]string, len(keys))
		copy(out, keys)
		return out
	}
	return []string{string(c)}
}

// CategoryOf returns the category that subsumes a source key
func (m CategoryMapping) CategoryOf(sourceKey string) (Category, bool) {
	for c, keys := range m {
		for _, k := range keys {
			if k == sourceKey {
				return c, true
			}
		}
	}
	if c, err := ParseCategory(sourceKey); err == nil {
		return c, true
	}
	return "", false
}

package domain

import "time"

// Product is a retailer listing from the scraped catalog. The catalog owns its
// lifecycle; the matcher only reads it.
type Product struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Category     string    `json:"category" db:"category"`
	Brand        string    `json:"brand,omitempty" db:"brand"`
	CurrentPrice float64   `json:"currentPrice" db:"current_price"`
	Source       string    `json:"source" db:"source"`
	Link         string    `json:"link,omitempty" db:"link"`
	IsActive     bool      `json:"isActive" db:"is_active"`
	ScrapedAt    time.Time `json:"scrapedAt" db:"scraped_at"`
}

// ProductQuery narrows the catalog for a scoring pass
type ProductQuery struct {
	// Categories are source-taxonomy keys; empty means all
	Categories []string
	// NameContains is a case-insensitive substring filter on the product name
	NameContains string
	// ExcludeIDs are skipped (already matched products)
	ExcludeIDs []string
	ActiveOnly bool
	// Limit caps the number of rows; zero means unlimited
	Limit int
}

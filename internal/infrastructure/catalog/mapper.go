package catalog

import (
	"time"

	"github.com/JustEmoBut/scraper-backend/internal/domain"
)

// productDTO is a product as the scraper API serves it
type productDTO struct {
	ID           string    `json:"_id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	CurrentPrice float64   `json:"currentPrice"`
	Brand        string    `json:"brand"`
	Link         string    `json:"link"`
	Source       string    `json:"source"`
	IsActive     *bool     `json:"isActive"`
	ScrapedAt    time.Time `json:"scrapedAt"`
}

// Pagination mirrors the paging block of a product listing
type Pagination struct {
	CurrentPage   int  `json:"currentPage"`
	TotalPages    int  `json:"totalPages"`
	TotalProducts int  `json:"totalProducts"`
	HasNextPage   bool `json:"hasNextPage"`
	HasPrevPage   bool `json:"hasPrevPage"`
}

type listResponse struct {
	Success    bool         `json:"success"`
	Message    string       `json:"message"`
	Products   []productDTO `json:"products"`
	Pagination Pagination   `json:"pagination"`
}

type productResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Product *productDTO `json:"product"`
}

// Page is one page of a category listing
type Page struct {
	Products   []domain.Product
	Pagination Pagination
}

// mapToProduct converts an API product to the domain model. The listing
// endpoint serves active products only, so a missing isActive means active.
func mapToProduct(dto productDTO) domain.Product {
	active := true
	if dto.IsActive != nil {
		active = *dto.IsActive
	}
	return domain.Product{
		ID:           dto.ID,
		Name:         dto.Name,
		Category:     dto.Category,
		Brand:        dto.Brand,
		CurrentPrice: dto.CurrentPrice,
		Source:       dto.Source,
		Link:         dto.Link,
		IsActive:     active,
		ScrapedAt:    dto.ScrapedAt,
	}
}

func mapToProducts(dtos []productDTO) []domain.Product {
	products := make([]domain.Product, 0, len(dtos))
	for _, dto := range dtos {
		if dto.ID == "" {
			continue
		}
		products = append(products, mapToProduct(dto))
	}
	return products
}

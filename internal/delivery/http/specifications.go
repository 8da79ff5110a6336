package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JustEmoBut/scraper-backend/internal/domain"
	"github.com/JustEmoBut/scraper-backend/internal/usecase"
)

// ListSpecifications handles GET /specifications?category=&productId=&active=&limit=
func (h *Handler) ListSpecifications(c *gin.Context) {
	var filter domain.SpecificationFilter
	if raw := c.Query("category"); raw != "" {
		category, err := domain.ParseCategory(raw)
		if err != nil {
			h.respondError(c, err)
			return
		}
		filter.Category = category
	}
	filter.ProductID = c.Query("productId")

	active, err := boolQuery(c, "active")
	if err != nil {
		h.respondError(c, err)
		return
	}
	filter.ActiveOnly = active

	if filter.Limit, err = intQuery(c, "limit"); err != nil {
		h.respondError(c, err)
		return
	}

	specs, err := h.specs.List(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    specs,
		"count":   len(specs),
	})
}

// CreateSpecification handles POST /specifications
func (h *Handler) CreateSpecification(c *gin.Context) {
	var req usecase.CreateSpecificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	spec, err := h.specs.Create(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, spec)
}

// GetSpecification handles GET /specifications/:id
func (h *Handler) GetSpecification(c *gin.Context) {
	spec, err := h.specs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, spec)
}

// UpdateSpecification handles PATCH /specifications/:id
func (h *Handler) UpdateSpecification(c *gin.Context) {
	var req usecase.UpdateSpecificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	spec, err := h.specs.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, spec)
}

// GetTemplate handles GET /templates/:category
func (h *Handler) GetTemplate(c *gin.Context) {
	category, fields, err := h.specs.Template(c.Param("category"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{
		"category":    category,
		"displayName": category.DisplayName(),
		"fields":      fields,
	})
}

// ListCategories handles GET /categories
func (h *Handler) ListCategories(c *gin.Context) {
	out := make([]gin.H, 0, len(domain.Categories))
	for _, category := range domain.Categories {
		out = append(out, gin.H{
			"category":    category,
			"displayName": category.DisplayName(),
		})
	}
	respondOK(c, http.StatusOK, out)
}

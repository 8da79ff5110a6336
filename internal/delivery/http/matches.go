package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JustEmoBut/scraper-backend/internal/domain"
	"github.com/JustEmoBut/scraper-backend/internal/matching"
	"github.com/JustEmoBut/scraper-backend/internal/usecase"
)

type addMatchRequest struct {
	ProductID string `json:"productId" binding:"required"`
}

type bulkMatchRequest struct {
	Matches []usecase.MatchRequest `json:"matches" binding:"required,dive"`
}

type rematchAllRequest struct {
	Category      string `json:"category"`
	Limit         int    `json:"limit"`
	All           bool   `json:"all"`
	ClearExisting bool   `json:"clearExisting"`
}

type similarityRequest struct {
	SpecName    string `json:"specName" binding:"required"`
	ProductName string `json:"productName" binding:"required"`
	Category    string `json:"category"`
}

type nameRequest struct {
	Name string `json:"name" binding:"required"`
}

// AddMatch handles POST /specifications/:id/matches
func (h *Handler) AddMatch(c *gin.Context) {
	var req addMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	match, err := h.matcher.AddMatch(c.Request.Context(), c.Param("id"), req.ProductID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, match)
}

// RemoveMatch handles DELETE /specifications/:id/matches/:productId
func (h *Handler) RemoveMatch(c *gin.Context) {
	if err := h.matcher.RemoveMatch(c.Request.Context(), c.Param("id"), c.Param("productId")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// BulkCreateMatches handles POST /matches/bulk
func (h *Handler) BulkCreateMatches(c *gin.Context) {
	var req bulkMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	result, err := h.matcher.BulkCreateMatches(c.Request.Context(), req.Matches)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, result)
}

// PotentialMatches handles GET /specifications/:id/potential-matches?search=&limit=
func (h *Handler) PotentialMatches(c *gin.Context) {
	limit, err := intQuery(c, "limit")
	if err != nil {
		h.respondError(c, err)
		return
	}

	result, err := h.matcher.FindPotentialMatches(c.Request.Context(), c.Param("id"), c.Query("search"), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, result)
}

// RematchSpecification handles POST /specifications/:id/rematch?clearExisting=
func (h *Handler) RematchSpecification(c *gin.Context) {
	clearExisting, err := boolQuery(c, "clearExisting")
	if err != nil {
		h.respondError(c, err)
		return
	}

	result, err := h.matcher.RematchSpecification(c.Request.Context(), c.Param("id"), clearExisting)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, result)
}

// RematchAll handles POST /matches/rematch-all. The body is optional.
func (h *Handler) RematchAll(c *gin.Context) {
	var req rematchAllRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.badRequest(c, err)
			return
		}
	}

	batch := usecase.RematchAllRequest{Limit: req.Limit, All: req.All, ClearExisting: req.ClearExisting}
	if req.Category != "" {
		category, err := domain.ParseCategory(req.Category)
		if err != nil {
			h.respondError(c, err)
			return
		}
		batch.Category = category
	}

	stats, err := h.matcher.RematchAll(c.Request.Context(), batch)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, stats)
}

// CleanupMatches handles POST /matches/cleanup
func (h *Handler) CleanupMatches(c *gin.Context) {
	result, err := h.matcher.CleanupLowQualityMatches(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, result)
}

// ClearAllMatches handles DELETE /matches
func (h *Handler) ClearAllMatches(c *gin.Context) {
	cleared, err := h.matcher.ClearAllMatches(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"clearedCount": cleared})
}

// Coverage handles GET /coverage
func (h *Handler) Coverage(c *gin.Context) {
	report, err := h.matcher.Coverage(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, report)
}

// UnmatchedProducts handles GET /products/unmatched?category=&limit=
func (h *Handler) UnmatchedProducts(c *gin.Context) {
	category, err := domain.ParseCategory(c.Query("category"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	limit, err := intQuery(c, "limit")
	if err != nil {
		h.respondError(c, err)
		return
	}

	products, err := h.matcher.UnmatchedProducts(c.Request.Context(), category, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    products,
		"count":   len(products),
	})
}

// ProductSpecifications handles GET /products/:id/specifications
func (h *Handler) ProductSpecifications(c *gin.Context) {
	specs, err := h.matcher.SpecificationsForProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, specs)
}

// Similarity handles POST /matching/similarity
func (h *Handler) Similarity(c *gin.Context) {
	var req similarityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	category, err := domain.ParseCategory(req.Category)
	if err != nil && req.Category != "" {
		h.respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, matching.Explain(req.SpecName, req.ProductName, category))
}

// Features handles POST /matching/features
func (h *Handler) Features(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{
		"name":       req.Name,
		"normalized": matching.Normalize(req.Name),
		"features":   matching.ExtractFeatures(req.Name),
	})
}

// Tokenize handles POST /matching/tokenize
func (h *Handler) Tokenize(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{
		"name":   req.Name,
		"tokens": matching.Tokenize(req.Name),
	})
}

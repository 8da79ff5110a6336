package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/JustEmoBut/scraper-backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger zerolog.Logger) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(RequestIDMiddleware())
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/categories", handler.ListCategories)
		v1.GET("/templates/:category", handler.GetTemplate)
		v1.GET("/coverage", handler.Coverage)

		specs := v1.Group("/specifications")
		{
			specs.GET("", handler.ListSpecifications)
			specs.POST("", handler.CreateSpecification)
			specs.GET("/:id", handler.GetSpecification)
			specs.PATCH("/:id", handler.UpdateSpecification)
			specs.GET("/:id/potential-matches", handler.PotentialMatches)
			specs.POST("/:id/rematch", handler.RematchSpecification)
			specs.POST("/:id/matches", handler.AddMatch)
			specs.DELETE("/:id/matches/:productId", handler.RemoveMatch)
		}

		matches := v1.Group("/matches")
		{
			matches.POST("/bulk", handler.BulkCreateMatches)
			matches.POST("/rematch-all", handler.RematchAll)
			matches.POST("/cleanup", handler.CleanupMatches)
			matches.DELETE("", handler.ClearAllMatches)
		}

		products := v1.Group("/products")
		{
			products.GET("/unmatched", handler.UnmatchedProducts)
			products.GET("/:id/specifications", handler.ProductSpecifications)
		}

		tools := v1.Group("/matching")
		{
			tools.POST("/similarity", handler.Similarity)
			tools.POST("/features", handler.Features)
			tools.POST("/tokenize", handler.Tokenize)
		}
	}

	return router
}

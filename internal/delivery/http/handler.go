package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/JustEmoBut/scraper-backend/internal/domain"
	"github.com/JustEmoBut/scraper-backend/internal/usecase"
)

const (
	serviceName    = "scraper-backend"
	serviceVersion = "1.0.0"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	specs   *usecase.SpecificationService
	matcher *usecase.MatchingService
	logger  zerolog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(specs *usecase.SpecificationService, matcher *usecase.MatchingService, logger zerolog.Logger) *Handler {
	return &Handler{
		specs:   specs,
		matcher: matcher,
		logger:  logger.With().Str("component", "http").Logger(),
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
	})
}

func respondOK(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSpecificationNotFound),
		errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrMatchNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidCategory),
		errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrMatchExists),
		errors.Is(err, domain.ErrVersionConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error().Err(err).
			Str("request_id", c.GetString(requestIDKey)).
			Str("path", c.FullPath()).
			Msg("request failed")
		message = "internal server error"
	}
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   message,
	})
}

func (h *Handler) badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   err.Error(),
	})
}

// intQuery parses an optional non-negative integer query parameter
func intQuery(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, &queryError{key: key, value: raw}
	}
	return v, nil
}

func boolQuery(c *gin.Context, key string) (bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &queryError{key: key, value: raw}
	}
	return v, nil
}

type queryError struct {
	key, value string
}

func (e *queryError) Error() string {
	return "invalid query parameter " + e.key + "=" + strconv.Quote(e.value)
}

// Unwrap lets statusFor classify malformed parameters as bad requests
func (e *queryError) Unwrap() error {
	return domain.ErrInvalidRequest
}

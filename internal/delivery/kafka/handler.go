package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/JustEmoBut/scraper-backend/internal/domain"
	"github.com/JustEmoBut/scraper-backend/internal/usecase"
)

// CatalogEvent is published by the scrapers after a category was refreshed.
// Category may be a storefront key ("itopya_ram"), an enumeration name or a
// display name; an empty category means the whole catalog.
type CatalogEvent struct {
	Category string `json:"category"`
	Source   string `json:"source"`
}

// Rematcher runs a bulk re-match
type Rematcher interface {
	RematchAll(ctx context.Context, req usecase.RematchAllRequest) (*usecase.BatchStats, error)
}

// CacheFlusher drops cached catalog reads
type CacheFlusher interface {
	FlushProductCache(ctx context.Context) error
}

// RefreshHandler turns catalog events into re-match passes
type RefreshHandler struct {
	rematcher  Rematcher
	cache      CacheFlusher
	categories domain.CategoryMapping
	logger     zerolog.Logger
}

// NewRefreshHandler creates a handler. cache may be nil when catalog reads
// are not cached. A nil mapping uses the default storefront mapping.
func NewRefreshHandler(rematcher Rematcher, cache CacheFlusher, categories domain.CategoryMapping, logger zerolog.Logger) *RefreshHandler {
	if categories == nil {
		categories = domain.DefaultCategoryMapping()
	}
	return &RefreshHandler{
		rematcher:  rematcher,
		cache:      cache,
		categories: categories,
		logger:     logger.With().Str("component", "catalog_events").Logger(),
	}
}

// Handle processes one message value. Malformed events and unknown categories
// are permanent failures; everything else may succeed on redelivery.
func (h *RefreshHandler) Handle(ctx context.Context, msg *IncomingMessage) error {
	var event CatalogEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("%w: decode catalog event: %v", domain.ErrInvalidRequest, err)
	}

	req := usecase.RematchAllRequest{All: true}
	if raw := strings.TrimSpace(event.Category); raw != "" {
		category, ok := h.categories.CategoryOf(raw)
		if !ok {
			return fmt.Errorf("%w: %q", domain.ErrInvalidCategory, raw)
		}
		req.Category = category
	}

	// the pass has to see the refreshed catalog, not the cached one
	if h.cache != nil {
		if err := h.cache.FlushProductCache(ctx); err != nil {
			h.logger.Warn().Err(err).Msg("failed to flush product cache; re-matching against cached catalog")
		}
	}

	stats, err := h.rematcher.RematchAll(ctx, req)
	if err != nil {
		return err
	}

	h.logger.Info().
		Str("category", string(req.Category)).
		Str("source", event.Source).
		Int64("offset", msg.Offset).
		Int("processed", stats.Processed).
		Int("failed", stats.Failed).
		Int("matches", stats.TotalMatches).
		Msg("catalog refresh re-matched")
	return nil
}

// IsPermanent reports whether redelivering a message cannot help
func IsPermanent(err error) bool {
	return errors.Is(err, domain.ErrInvalidRequest) || errors.Is(err, domain.ErrInvalidCategory)
}

// Package catalog reads products from the scraper's public product API.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/JustEmoBut/scraper-backend/internal/domain"
)

const (
	// MaxPageSize is the largest page the product API accepts
	MaxPageSize = 100

	maxAttempts  = 3
	maxBodyBytes = 4 << 20
	maxPages     = 1000
)

// Config holds client settings. Zero values fall back to defaults.
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	PageSize          int
}

// Client handles communication with the product API
type Client struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rate.Limiter
	pageSize    int
	logger      zerolog.Logger
	backoff     func(attempt int) time.Duration
}

// NewClient creates a new product API client
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	if cfg.PageSize <= 0 || cfg.PageSize > MaxPageSize {
		cfg.PageSize = MaxPageSize
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		pageSize:    cfg.PageSize,
		logger:      logger.With().Str("component", "catalog").Logger(),
		backoff:     exponentialBackoff,
	}
}

// exponentialBackoff returns 500ms, 1s, 2s, ... for attempts 1, 2, 3, ...
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// readLimitedBody reads at most limit bytes of r
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}

// Get returns a single product by id
func (c *Client) Get(ctx context.Context, id string) (*domain.Product, error) {
	endpoint := fmt.Sprintf("%s/api/products/%s", c.baseURL, url.PathEscape(id))

	var resp productResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || resp.Product == nil || resp.Product.ID == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	}

	product := mapToProduct(*resp.Product)
	return &product, nil
}

// ListPage fetches one page of products for a source category key. An empty
// category lists the whole catalog.
func (c *Client) ListPage(ctx context.Context, category string, page int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(c.pageSize))
	if category != "" {
		params.Set("category", category)
	}
	endpoint := fmt.Sprintf("%s/api/products?%s", c.baseURL, params.Encode())

	var resp listResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("%w: %s", domain.ErrCatalogFailure, resp.Message)
	}

	return &Page{Products: mapToProducts(resp.Products), Pagination: resp.Pagination}, nil
}

// Find walks every page of each requested category and applies the
// remaining filters locally.
func (c *Client) Find(ctx context.Context, query domain.ProductQuery) ([]domain.Product, error) {
	categories := query.Categories
	if len(categories) == 0 {
		categories = []string{""}
	}
	excluded := make(map[string]bool, len(query.ExcludeIDs))
	for _, id := range query.ExcludeIDs {
		excluded[id] = true
	}
	needle := strings.ToLower(strings.TrimSpace(query.NameContains))
	seen := make(map[string]bool)

	out := make([]domain.Product, 0)
	for _, category := range categories {
		for page := 1; page <= maxPages; page++ {
			result, err := c.ListPage(ctx, category, page)
			if err != nil {
				return nil, err
			}
			for _, p := range result.Products {
				if seen[p.ID] || excluded[p.ID] {
					continue
				}
				if query.ActiveOnly && !p.IsActive {
					continue
				}
				if needle != "" && !strings.Contains(strings.ToLower(p.Name), needle) {
					continue
				}
				seen[p.ID] = true
				out = append(out, p)
				if query.Limit > 0 && len(out) == query.Limit {
					return out, nil
				}
			}
			if !result.Pagination.HasNextPage || len(result.Products) == 0 {
				break
			}
		}
	}

	c.logger.Debug().Strs("categories", query.Categories).Int("products", len(out)).Msg("catalog query complete")
	return out, nil
}

// getJSON issues a rate-limited GET and decodes the body into dst. Transport
// errors, 429 and 5xx responses are retried; other statuses are final.
func (c *Client) getJSON(ctx context.Context, reqURL string, dst any) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, c.backoff(attempt-1)); err != nil {
				return err
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}

		status, body, err := c.doRequest(ctx, reqURL)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn().Err(err).Int("attempt", attempt).Msg("catalog request failed")
			lastErr = err
			continue
		}

		switch {
		case status == http.StatusOK:
			if err := json.Unmarshal(body, dst); err != nil {
				return fmt.Errorf("%w: decode response: %v", domain.ErrCatalogFailure, err)
			}
			return nil
		case status == http.StatusNotFound:
			return domain.ErrProductNotFound
		case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
			c.logger.Warn().Int("status", status).Int("attempt", attempt).Msg("catalog request will be retried")
			lastErr = fmt.Errorf("%w: status %d", domain.ErrCatalogFailure, status)
		default:
			return fmt.Errorf("%w: status %d: %s", domain.ErrCatalogFailure, status, string(body))
		}
	}

	c.logger.Error().Err(lastErr).Str("url", reqURL).Msg("all catalog retries failed")
	return lastErr
}

// doRequest executes an HTTP GET request with proper headers
func (c *Client) doRequest(ctx context.Context, reqURL string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "scraper-backend/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", domain.ErrCatalogFailure, err)
	}
	defer resp.Body.Close()

	body, err := readLimitedBody(resp.Body, maxBodyBytes)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: read body: %v", domain.ErrCatalogFailure, err)
	}
	return resp.StatusCode, body, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

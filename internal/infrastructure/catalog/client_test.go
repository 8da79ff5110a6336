package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustEmoBut/scraper-backend/internal/domain"
)

func newTestClient(baseURL string, pageSize int) *Client {
	c := NewClient(Config{BaseURL: baseURL, RequestsPerSecond: 1000, Burst: 100, PageSize: pageSize}, zerolog.Nop())
	c.backoff = func(int) time.Duration { return time.Millisecond }
	return c
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

// catalogServer pages through products of a single category
func catalogServer(t *testing.T, products []map[string]any) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products", r.URL.Path)
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		category := r.URL.Query().Get("category")

		filtered := make([]map[string]any, 0)
		for _, p := range products {
			if category == "" || p["category"] == category {
				filtered = append(filtered, p)
			}
		}
		start := (page - 1) * limit
		end := min(start+limit, len(filtered))
		if start > len(filtered) {
			start = end
		}
		totalPages := (len(filtered) + limit - 1) / limit

		writeJSON(t, w, map[string]any{
			"success":  true,
			"products": filtered[start:end],
			"pagination": map[string]any{
				"currentPage":   page,
				"totalPages":    totalPages,
				"totalProducts": len(filtered),
				"hasNextPage":   page < totalPages,
				"hasPrevPage":   page > 1,
			},
		})
	}))
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(Config{BaseURL: "https://api.example.com/"}, zerolog.Nop())

	assert.Equal(t, "https://api.example.com", client.baseURL)
	assert.Equal(t, MaxPageSize, client.pageSize)
	assert.Equal(t, 30*time.Second, client.httpClient.Timeout)
	assert.NotNil(t, client.rateLimiter)
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 500 * time.Millisecond},
		{2, 1000 * time.Millisecond},
		{3, 2000 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.expected.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, exponentialBackoff(tt.attempt))
		})
	}
}

func TestReadLimitedBody(t *testing.T) {
	body, err := readLimitedBody(strings.NewReader("0123456789"), 4)
	require.NoError(t, err)
	assert.Equal(t, "0123", string(body))
}

func TestGet_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products/abc123", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		writeJSON(t, w, map[string]any{
			"success": true,
			"product": map[string]any{
				"_id":          "abc123",
				"name":         "ASUS TUF RTX 5070 Ti",
				"category":     "itopya_ekran-karti",
				"currentPrice": 42999.0,
				"brand":        "ASUS",
				"source":       "itopya",
				"link":         "https://example.com/p/abc123",
				"scrapedAt":    "2025-06-01T10:00:00Z",
			},
		})
	}))
	defer server.Close()

	product, err := newTestClient(server.URL, 10).Get(context.Background(), "abc123")
	require.NoError(t, err)

	assert.Equal(t, "abc123", product.ID)
	assert.Equal(t, "ASUS TUF RTX 5070 Ti", product.Name)
	assert.Equal(t, 42999.0, product.CurrentPrice)
	assert.True(t, product.IsActive)
	assert.Equal(t, 2025, product.ScrapedAt.Year())
}

func TestGet_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, 10).Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestGet_UnsuccessfulEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"success": false, "message": "Ürün bulunamadı"})
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, 10).Get(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestGetJSON_ServerError_Retries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeJSON(t, w, map[string]any{"success": true, "product": map[string]any{"_id": "p1", "name": "x"}})
	}))
	defer server.Close()

	product, err := newTestClient(server.URL, 10).Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", product.ID)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetJSON_TooManyRequests_AllRetriesFail(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, 10).Get(context.Background(), "p1")
	assert.ErrorIs(t, err, domain.ErrCatalogFailure)
	assert.Equal(t, int32(maxAttempts), calls.Load())
}

func TestGetJSON_ClientError_NoRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"message":"Limit must be between 1 and 100"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, 10).ListPage(context.Background(), "itopya_ram", 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCatalogFailure)
	assert.Contains(t, err.Error(), "Limit must be between")
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetJSON_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, 10).ListPage(context.Background(), "", 1)
	assert.ErrorIs(t, err, domain.ErrCatalogFailure)
}

func TestGetJSON_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(server.URL, 10).Get(ctx, "p1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestListPage_QueryParameters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "25", q.Get("limit"))
		assert.Equal(t, "incehesap_ssd", q.Get("category"))
		writeJSON(t, w, map[string]any{
			"success": true,
			"products": []map[string]any{
				{"_id": "s1", "name": "Samsung 990 PRO 2TB", "category": "incehesap_ssd", "isActive": false},
				{"name": "no id is skipped"},
			},
			"pagination": map[string]any{"currentPage": 2, "totalPages": 3, "hasNextPage": true, "hasPrevPage": true},
		})
	}))
	defer server.Close()

	page, err := newTestClient(server.URL, 25).ListPage(context.Background(), "incehesap_ssd", 2)
	require.NoError(t, err)

	require.Len(t, page.Products, 1)
	assert.False(t, page.Products[0].IsActive)
	assert.Equal(t, 3, page.Pagination.TotalPages)
	assert.True(t, page.Pagination.HasNextPage)
}

func TestFind_WalksPagesAndFilters(t *testing.T) {
	products := []map[string]any{
		{"_id": "c1", "name": "AMD Ryzen 5 7600X", "category": "itopya_islemci"},
		{"_id": "c2", "name": "AMD Ryzen 7 7800X3D", "category": "itopya_islemci"},
		{"_id": "c3", "name": "Intel Core i5-14600K", "category": "itopya_islemci"},
		{"_id": "c4", "name": "AMD Ryzen 5 7600", "category": "incehesap_islemci", "isActive": false},
		{"_id": "c5", "name": "AMD Ryzen 9 9950X", "category": "incehesap_islemci"},
		{"_id": "g1", "name": "RTX 5070", "category": "itopya_ekran-karti"},
	}
	server := catalogServer(t, products)
	defer server.Close()
	client := newTestClient(server.URL, 2)
	ctx := context.Background()

	tests := []struct {
		name  string
		query domain.ProductQuery
		want  []string
	}{
		{
			name:  "all pages of two categories",
			query: domain.ProductQuery{Categories: []string{"itopya_islemci", "incehesap_islemci"}},
			want:  []string{"c1", "c2", "c3", "c4", "c5"},
		},
		{
			name:  "active only with exclusions",
			query: domain.ProductQuery{Categories: []string{"itopya_islemci", "incehesap_islemci"}, ActiveOnly: true, ExcludeIDs: []string{"c2"}},
			want:  []string{"c1", "c3", "c5"},
		},
		{
			name:  "name filter is case insensitive",
			query: domain.ProductQuery{Categories: []string{"itopya_islemci"}, NameContains: "ryzen"},
			want:  []string{"c1", "c2"},
		},
		{
			name:  "limit stops paging",
			query: domain.ProductQuery{Limit: 3},
			want:  []string{"c1", "c2", "c3"},
		},
		{
			name:  "unknown category",
			query: domain.ProductQuery{Categories: []string{"nowhere"}},
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := client.Find(ctx, tt.query)
			require.NoError(t, err)
			ids := make([]string, 0, len(got))
			for _, p := range got {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

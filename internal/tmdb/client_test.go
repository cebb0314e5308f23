package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, cfg Config) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg.BaseURL = srv.URL
	if cfg.AccessToken == "" && cfg.APIKey == "" {
		cfg.AccessToken = "token"
	}
	c, err := NewClient(cfg)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	c, err := NewClient(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.baseURL)
}

func TestMovie_BearerAuthAndAppend(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/550", r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		assert.Equal(t, "videos,credits", r.URL.Query().Get("append_to_response"))
		assert.Empty(t, r.URL.Query().Get("api_key"))
		writeJSON(w, map[string]any{
			"id":          550,
			"title":       "Fight Club",
			"poster_path": "/p.jpg",
			"videos": map[string]any{"results": []map[string]any{
				{"key": "abc", "site": "YouTube", "type": "Trailer"},
			}},
			"credits": map[string]any{"cast": []map[string]any{{"id": 1, "name": "Edward Norton"}}},
		})
	}, Config{})

	movie, err := c.Movie(context.Background(), 550)

	require.NoError(t, err)
	assert.Equal(t, "Fight Club", movie.Title)
	assert.Equal(t, ImageBase+"/p.jpg", movie.PosterURL())
	require.NotNil(t, movie.Videos)
	assert.Equal(t, "abc", movie.Videos.Results[0].Key)
	require.NotNil(t, movie.Credits)
	assert.Equal(t, "Edward Norton", movie.Credits.Cast[0].Name)
}

func TestGet_APIKeyQueryParam(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret-key", r.URL.Query().Get("api_key"))
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, map[string]any{"id": 1399, "name": "Game of Thrones"})
	}, Config{APIKey: "secret-key"})

	show, err := c.TV(context.Background(), 1399)

	require.NoError(t, err)
	assert.Equal(t, "Game of Thrones", show.Name)
}

func TestMovie_Cached(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, map[string]any{"id": 550, "title": "Fight Club"})
	}, Config{CacheTTL: time.Minute})

	for i := 0; i < 3; i++ {
		_, err := c.Movie(context.Background(), 550)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), calls.Load())

	// Movie and TV ids share a number space but not a cache key.
	_, err := c.TV(context.Background(), 550)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestDiscover(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/discover/tv", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("page"))
		writeJSON(w, Page{Page: 3, TotalPages: 10, TotalResults: 200, Results: []Result{{ID: 1, Name: "Show"}}})
	}, Config{})

	p, err := c.Discover(context.Background(), "tv", 3)

	require.NoError(t, err)
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 10, p.TotalPages)
	require.Len(t, p.Results, 1)
	assert.Equal(t, "Show", p.Results[0].DisplayTitle())
}

func TestSearchMulti_EncodesQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/multi", r.URL.Path)
		assert.Equal(t, "star wars & co", r.URL.Query().Get("query"))
		writeJSON(w, Page{Page: 1})
	}, Config{})

	_, err := c.SearchMulti(context.Background(), "star wars & co", 1)
	require.NoError(t, err)
}

func TestTrendingAndVideos(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/trending/all/week":
			writeJSON(w, Page{Page: 1, Results: []Result{{ID: 7, MediaType: "movie", Title: "M"}}})
		case "/movie/7/videos":
			writeJSON(w, VideoList{Results: []Video{{Key: "k1", Site: "YouTube", Type: "Teaser"}}})
		default:
			http.NotFound(w, r)
		}
	}, Config{})

	p, err := c.Trending(context.Background(), "all", "week")
	require.NoError(t, err)
	assert.Equal(t, "movie", p.Results[0].MediaType)

	videos, err := c.Videos(context.Background(), "movie", 7)
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, "k1", videos[0].Key)
}

func TestGet_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusTooManyRequests, ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}, Config{})

			_, err := c.Movie(context.Background(), 1)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGet_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		writeJSON(w, map[string]any{"status_code": 43, "status_message": "Service offline."})
	}, Config{})

	_, err := c.Discover(context.Background(), "movie", 1)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, 43, apiErr.Code)
	assert.Contains(t, apiErr.Error(), "Service offline.")
}

func TestGet_DecodeError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	}, Config{})

	_, err := c.Trending(context.Background(), "movie", "day")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestGet_ErrorsNotCached(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{"id": 1, "title": "ok"})
	}, Config{CacheTTL: time.Minute})

	_, err := c.Movie(context.Background(), 1)
	require.Error(t, err)

	movie, err := c.Movie(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "ok", movie.Title)
}

func TestTTLCache_Expiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newTTLCache(DetailTTL)
	c.now = func() time.Time { return now }

	c.set("k", 1)
	v, ok := c.get("k")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	now = now.Add(DetailTTL)
	_, ok = c.get("k")
	assert.False(t, ok)
}

func TestTTLCache_Disabled(t *testing.T) {
	c := newTTLCache(0)
	c.set("k", 1)
	_, ok := c.get("k")
	assert.False(t, ok)

	var nilCache *ttlCache
	nilCache.set("k", 1)
	_, ok = nilCache.get("k")
	assert.False(t, ok)
}

func TestTTLCache_BoundedSize(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newTTLCache(DetailTTL)
	c.max = 3
	c.now = func() time.Time { return now }

	for _, k := range []string{"a", "b", "c", "d", "e"} {
		c.set(k, k)
		now = now.Add(time.Second)
	}

	assert.Len(t, c.items, 3)
	_, ok := c.get("a")
	assert.False(t, ok, "oldest entry evicted first")
	_, ok = c.get("b")
	assert.False(t, ok)
	v, ok := c.get("e")
	require.True(t, ok)
	assert.Equal(t, "e", v)

	// Overwriting an existing key does not evict anything.
	c.set("e", "e2")
	assert.Len(t, c.items, 3)
	_, ok = c.get("c")
	assert.True(t, ok)
}

func TestTTLCache_ExpiredSweptBeforeOldest(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newTTLCache(time.Minute)
	c.max = 2
	c.now = func() time.Time { return now }

	c.set("stale", 1)
	now = now.Add(50 * time.Second)
	c.set("fresh", 2)
	now = now.Add(15 * time.Second) // "stale" has expired, "fresh" has not

	c.set("new", 3)

	assert.Len(t, c.items, 2)
	assert.Contains(t, c.items, "fresh")
	assert.Contains(t, c.items, "new")
}

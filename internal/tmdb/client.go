// Package tmdb is a small client for The Movie Database v3 API covering the
// endpoints the catalog needs: details, discover, multi search, trending and
// videos.
//
// Authentication uses the v4 read access token as a Bearer header when set,
// otherwise the v3 api_key query parameter.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/reelshelf/reelshelf-go/internal/metrics"
)

// DefaultBaseURL is the public TMDB v3 endpoint.
const DefaultBaseURL = "https://api.themoviedb.org/3"

// DetailTTL is how long detail responses are reused.
const DetailTTL = 60 * time.Second

var (
	ErrNotConfigured = errors.New("tmdb: no access token or api key configured")
	ErrUnauthorized  = errors.New("tmdb: invalid credentials")
	ErrNotFound      = errors.New("tmdb: resource not found")
	ErrRateLimited   = errors.New("tmdb: rate limited")
)

// Config configures a Client.
type Config struct {
	BaseURL     string
	AccessToken string
	APIKey      string
	Timeout     time.Duration
	CacheTTL    time.Duration
}

// Client is a TMDB API client. Create with NewClient.
type Client struct {
	baseURL     string
	accessToken string
	apiKey      string
	httpClient  *http.Client
	details     *ttlCache
}

// NewClient creates a Client. It fails when neither an access token nor an
// API key is set.
func NewClient(cfg Config) (*Client, error) {
	if cfg.AccessToken == "" && cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		accessToken: cfg.AccessToken,
		apiKey:      cfg.APIKey,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		details:     newTTLCache(cfg.CacheTTL),
	}, nil
}

// Movie fetches movie details with videos and credits appended.
func (c *Client) Movie(ctx context.Context, id int) (*Movie, error) {
	key := "movie/" + strconv.Itoa(id)
	if v, ok := c.details.get(key); ok {
		return v.(*Movie), nil
	}

	var movie Movie
	q := url.Values{"append_to_response": {"videos,credits"}}
	if err := c.get(ctx, "movie", "/movie/"+strconv.Itoa(id), q, &movie); err != nil {
		return nil, err
	}
	c.details.set(key, &movie)
	return &movie, nil
}

// TV fetches TV show details with videos and credits appended.
func (c *Client) TV(ctx context.Context, id int) (*TVShow, error) {
	key := "tv/" + strconv.Itoa(id)
	if v, ok := c.details.get(key); ok {
		return v.(*TVShow), nil
	}

	var show TVShow
	q := url.Values{"append_to_response": {"videos,credits"}}
	if err := c.get(ctx, "tv", "/tv/"+strconv.Itoa(id), q, &show); err != nil {
		return nil, err
	}
	c.details.set(key, &show)
	return &show, nil
}

// Discover lists popular titles of mediaType ("movie" or "tv").
func (c *Client) Discover(ctx context.Context, mediaType string, page int) (*Page, error) {
	q := url.Values{
		"page":    {strconv.Itoa(page)},
		"sort_by": {"popularity.desc"},
	}
	var p Page
	if err := c.get(ctx, "discover", "/discover/"+mediaType, q, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// SearchMulti searches movies, TV shows and people at once.
func (c *Client) SearchMulti(ctx context.Context, query string, page int) (*Page, error) {
	q := url.Values{
		"query":         {query},
		"page":          {strconv.Itoa(page)},
		"include_adult": {"false"},
	}
	var p Page
	if err := c.get(ctx, "search", "/search/multi", q, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Trending lists trending titles. mediaType is "all", "movie" or "tv";
// window is "day" or "week".
func (c *Client) Trending(ctx context.Context, mediaType, window string) (*Page, error) {
	var p Page
	if err := c.get(ctx, "trending", "/trending/"+mediaType+"/"+window, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Videos lists the videos attached to a title.
func (c *Client) Videos(ctx context.Context, mediaType string, id int) ([]Video, error) {
	var list VideoList
	if err := c.get(ctx, "videos", "/"+mediaType+"/"+strconv.Itoa(id)+"/videos", nil, &list); err != nil {
		return nil, err
	}
	return list.Results, nil
}

// get performs a GET request against the API and decodes the JSON response.
// endpoint labels the request in metrics.
func (c *Client) get(ctx context.Context, endpoint, path string, q url.Values, dst any) error {
	if q == nil {
		q = url.Values{}
	}
	if c.accessToken == "" {
		q.Set("api_key", c.apiKey)
	}

	reqURL := c.baseURL + path
	if len(q) > 0 {
		reqURL += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("tmdb: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.TMDBRequests.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("tmdb: request failed: %w", err)
	}
	defer resp.Body.Close()
	metrics.TMDBRequests.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		apiErr := &APIError{StatusCode: resp.StatusCode}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = json.Unmarshal(body, apiErr)
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("tmdb: decode response: %w", err)
	}
	return nil
}

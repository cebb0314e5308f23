package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/reelshelf/reelshelf-go/internal/model"
	"github.com/reelshelf/reelshelf-go/internal/service"
	"github.com/reelshelf/reelshelf-go/internal/tmdb"
	"github.com/reelshelf/reelshelf-go/internal/validate"
)

// Catalog browses movie and TV metadata.
type Catalog interface {
	Movie(ctx context.Context, id string) (*tmdb.Movie, error)
	TV(ctx context.Context, id string) (*tmdb.TVShow, error)
	Discover(ctx context.Context, mediaType string, page int) (*tmdb.Page, error)
	Search(ctx context.Context, query string, page int) (*tmdb.Page, error)
	Trending(ctx context.Context, mediaType, window string) (*tmdb.Page, error)
	Trailer(ctx context.Context, mediaType, id string) (model.Trailer, error)
}

// CatalogHandler handles the public browsing endpoints.
type CatalogHandler struct {
	catalog Catalog
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalog Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// HandleMovie handles GET /api/v1/movies/{id}.
func (h *CatalogHandler) HandleMovie(w http.ResponseWriter, r *http.Request) {
	movie, err := h.catalog.Movie(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, movie)
}

// HandleTV handles GET /api/v1/tv/{id}.
func (h *CatalogHandler) HandleTV(w http.ResponseWriter, r *http.Request) {
	show, err := h.catalog.TV(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, show)
}

// HandleDiscover handles GET /api/v1/discover/{type}?page=.
func (h *CatalogHandler) HandleDiscover(w http.ResponseWriter, r *http.Request) {
	page, err := pageParam(r)
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}

	p, err := h.catalog.Discover(r.Context(), chi.URLParam(r, "type"), page)
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleSearch handles GET /api/v1/search?query=&page=.
func (h *CatalogHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	page, err := pageParam(r)
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}

	p, err := h.catalog.Search(r.Context(), r.URL.Query().Get("query"), page)
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleTrending handles GET /api/v1/trending/{type}/{window}.
func (h *CatalogHandler) HandleTrending(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.Trending(r.Context(), chi.URLParam(r, "type"), chi.URLParam(r, "window"))
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleTrailer handles GET /api/v1/{type}/{id}/trailer.
func (h *CatalogHandler) HandleTrailer(w http.ResponseWriter, r *http.Request) {
	trailer, err := h.catalog.Trailer(r.Context(), chi.URLParam(r, "type"), chi.URLParam(r, "id"))
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trailer)
}

func pageParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &validate.ValidationError{Field: "page", Message: "must be an integer"}
	}
	return page, nil
}

func writeCatalogError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *validate.ValidationError
	switch {
	case errors.As(err, &ve):
		writeValidationError(w, ve)
	case errors.Is(err, service.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse("not found"))
	case errors.Is(err, service.ErrNoTrailer):
		writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, tmdb.ErrRateLimited):
		w.Header().Set("Retry-After", "1")
		writeJSON(w, http.StatusServiceUnavailable, errorResponse("metadata provider busy"))
	default:
		slog.ErrorContext(r.Context(), "metadata request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusBadGateway, errorResponse("metadata provider unavailable"))
	}
}

package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/reelshelf/reelshelf-go/internal/middleware"
	"github.com/reelshelf/reelshelf-go/internal/model"
	"github.com/reelshelf/reelshelf-go/internal/service"
	"github.com/reelshelf/reelshelf-go/internal/validate"
)

// Collections mutates one per-user collection.
type Collections interface {
	Add(ctx context.Context, identity *model.Identity, mediaID, mediaType string) (model.CollectionEntry, bool, error)
	Remove(ctx context.Context, identity *model.Identity, entryID string) error
	List(ctx context.Context, identity *model.Identity) ([]model.CollectionEntry, error)
}

// Enricher attaches metadata to collection entries.
type Enricher interface {
	Enrich(ctx context.Context, entries []model.CollectionEntry) []model.CollectionEntryResponse
}

// CollectionHandler handles HTTP requests for favorites or the watchlist.
type CollectionHandler struct {
	service Collections
	catalog Enricher
}

// NewCollectionHandler creates a new CollectionHandler. catalog may be nil,
// in which case ?details=true is ignored.
func NewCollectionHandler(svc Collections, catalog Enricher) *CollectionHandler {
	return &CollectionHandler{service: svc, catalog: catalog}
}

// HandleList handles GET requests on the collection.
func (h *CollectionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())

	entries, err := h.service.List(r.Context(), identity)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if h.catalog != nil && r.URL.Query().Get("details") == "true" {
		writeJSON(w, http.StatusOK, h.catalog.Enrich(r.Context(), entries))
		return
	}
	writeJSON(w, http.StatusOK, service.EntriesToResponse(entries))
}

// HandleAdd handles POST requests with a {movieId, type} body. A repeated add
// answers 200 with the existing entry instead of 201.
func (h *CollectionHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())

	var req model.CollectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	entry, created, err := h.service.Add(r.Context(), identity, string(req.MovieID), req.Type)
	if err != nil {
		h.writeError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, entry.ToResponse())
}

// HandleRemove handles DELETE requests. The entry id comes from the {id} URL
// parameter when routed that way, otherwise from an {id} body.
func (h *CollectionHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())

	entryID := chi.URLParam(r, "id")
	if entryID == "" {
		var req model.RemoveRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		entryID = req.ID
	}

	if err := h.service.Remove(r.Context(), identity, entryID); err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *CollectionHandler) writeError(w http.ResponseWriter, err error) {
	var ve *validate.ValidationError
	switch {
	case errors.As(err, &ve):
		writeValidationError(w, ve)
	case errors.Is(err, service.ErrNotOwner):
		writeJSON(w, http.StatusForbidden, errorResponse("forbidden"))
	case errors.Is(err, service.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
	case errors.Is(err, service.ErrEntryNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
	}
}

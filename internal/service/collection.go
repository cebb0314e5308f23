package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/reelshelf/reelshelf-go/internal/metrics"
	"github.com/reelshelf/reelshelf-go/internal/model"
	"github.com/reelshelf/reelshelf-go/internal/repository"
	"github.com/reelshelf/reelshelf-go/internal/validate"
)

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrNotOwner      = fmt.Errorf("%w: entry belongs to another user", ErrUnauthorized)
	ErrEntryNotFound = errors.New("collection entry not found")
)

// CollectionStore is the persistence a CollectionService depends on.
type CollectionStore interface {
	Create(ctx context.Context, entry *model.CollectionEntry) error
	GetByID(ctx context.Context, id string) (*model.CollectionEntry, error)
	GetByMedia(ctx context.Context, userID, mediaID, mediaType string) (*model.CollectionEntry, error)
	ListByUser(ctx context.Context, userID string) ([]model.CollectionEntry, error)
	DeleteOwned(ctx context.Context, userID, id string) error
}

// CollectionService mutates one per-user collection (favorites or watchlist).
type CollectionService struct {
	kind  model.CollectionKind
	store CollectionStore
}

// NewCollectionService creates a CollectionService for kind.
func NewCollectionService(kind model.CollectionKind, store CollectionStore) *CollectionService {
	return &CollectionService{kind: kind, store: store}
}

// Add records a media item for the identity. Adding an item that is already
// present returns the existing entry with created set to false.
func (s *CollectionService) Add(ctx context.Context, identity *model.Identity, mediaID, mediaType string) (entry model.CollectionEntry, created bool, err error) {
	defer func() { s.record("add", created, err) }()

	if identity == nil || identity.ID == "" {
		return model.CollectionEntry{}, false, ErrUnauthorized
	}
	mediaID, err = validate.CollectionEntry(mediaID, mediaType)
	if err != nil {
		return model.CollectionEntry{}, false, err
	}

	entry = model.CollectionEntry{
		UserID:    identity.ID,
		MediaID:   mediaID,
		MediaType: mediaType,
	}

	err = s.store.Create(ctx, &entry)
	switch {
	case err == nil:
		slog.InfoContext(ctx, "collection entry added",
			"collection", s.kind, "user_id", identity.ID, "entry_id", entry.ID)
		return entry, true, nil
	case errors.Is(err, repository.ErrDuplicateEntry):
		existing, err := s.store.GetByMedia(ctx, identity.ID, mediaID, mediaType)
		if err != nil {
			return model.CollectionEntry{}, false, err
		}
		return *existing, false, nil
	default:
		return model.CollectionEntry{}, false, err
	}
}

// Remove deletes an entry owned by the identity.
func (s *CollectionService) Remove(ctx context.Context, identity *model.Identity, entryID string) (err error) {
	defer func() { s.record("remove", err == nil, err) }()

	if identity == nil || identity.ID == "" {
		return ErrUnauthorized
	}
	if err := validate.EntryID(entryID); err != nil {
		return err
	}

	entry, err := s.store.GetByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, repository.ErrEntryNotFound) {
			return ErrEntryNotFound
		}
		return err
	}
	if entry.UserID != identity.ID {
		slog.WarnContext(ctx, "collection entry removal denied",
			"collection", s.kind, "user_id", identity.ID, "entry_id", entryID)
		return ErrNotOwner
	}

	// Ownership is re-checked by the delete itself in case the row changed hands.
	if err := s.store.DeleteOwned(ctx, identity.ID, entryID); err != nil {
		if errors.Is(err, repository.ErrEntryNotFound) {
			return ErrEntryNotFound
		}
		return err
	}

	slog.InfoContext(ctx, "collection entry removed",
		"collection", s.kind, "user_id", identity.ID, "entry_id", entryID)
	return nil
}

// List returns the identity's entries, newest first.
func (s *CollectionService) List(ctx context.Context, identity *model.Identity) ([]model.CollectionEntry, error) {
	if identity == nil || identity.ID == "" {
		return nil, ErrUnauthorized
	}

	entries, err := s.store.ListByUser(ctx, identity.ID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []model.CollectionEntry{}
	}
	return entries, nil
}

func (s *CollectionService) record(action string, changed bool, err error) {
	result := "ok"
	switch {
	case err != nil:
		result = "error"
		var ve *validate.ValidationError
		switch {
		case errors.As(err, &ve):
			result = "invalid"
		case errors.Is(err, ErrUnauthorized):
			result = "unauthorized"
		case errors.Is(err, ErrEntryNotFound):
			result = "not_found"
		}
	case !changed:
		result = "unchanged"
	}
	metrics.CollectionEvents.WithLabelValues(string(s.kind), action, result).Inc()
}

// EntriesToResponse converts entries to their API representation.
func EntriesToResponse(entries []model.CollectionEntry) []model.CollectionEntryResponse {
	result := make([]model.CollectionEntryResponse, 0, len(entries))
	for _, e := range entries {
		result = append(result, e.ToResponse())
	}
	return result
}

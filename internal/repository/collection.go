package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/reelshelf/reelshelf-go/internal/model"
)

var (
	ErrEntryNotFound  = errors.New("collection entry not found")
	ErrDuplicateEntry = errors.New("collection entry already exists")
)

// CollectionRepository handles persistence for one collection table
// (favorites or watchlist). Both tables share the same shape.
type CollectionRepository struct {
	db    *sql.DB
	table string
}

// NewCollectionRepository creates a repository bound to the table for kind.
func NewCollectionRepository(db *sql.DB, kind model.CollectionKind) (*CollectionRepository, error) {
	switch kind {
	case model.Favorites, model.Watchlist:
	default:
		return nil, fmt.Errorf("unknown collection %q", kind)
	}
	return &CollectionRepository{db: db, table: string(kind)}, nil
}

// Create inserts a new entry and sets the generated ID and creation time.
// A second entry for the same (user, media id, media type) yields ErrDuplicateEntry.
func (r *CollectionRepository) Create(ctx context.Context, entry *model.CollectionEntry) error {
	query := `INSERT INTO ` + r.table + ` (id, user_id, media_id, media_type, created_at) VALUES (?, ?, ?, ?, ?)`

	id := uuid.NewString()
	now := time.Now().UTC().Truncate(time.Millisecond)

	_, err := r.db.ExecContext(ctx, query, id, entry.UserID, entry.MediaID, entry.MediaType, now)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrDuplicateEntry
		}
		return err
	}

	entry.ID = id
	entry.CreatedAt = now
	return nil
}

// GetByID retrieves an entry by its ID regardless of owner.
func (r *CollectionRepository) GetByID(ctx context.Context, id string) (*model.CollectionEntry, error) {
	query := `SELECT id, user_id, media_id, media_type, created_at FROM ` + r.table + ` WHERE id = ?`

	entry := &model.CollectionEntry{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&entry.ID, &entry.UserID, &entry.MediaID, &entry.MediaType, &entry.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}

	return entry, nil
}

// GetByMedia retrieves a user's entry for the given media item.
func (r *CollectionRepository) GetByMedia(ctx context.Context, userID, mediaID, mediaType string) (*model.CollectionEntry, error) {
	query := `SELECT id, user_id, media_id, media_type, created_at FROM ` + r.table + `
		WHERE user_id = ? AND media_id = ? AND media_type = ?`

	entry := &model.CollectionEntry{}
	err := r.db.QueryRowContext(ctx, query, userID, mediaID, mediaType).Scan(
		&entry.ID, &entry.UserID, &entry.MediaID, &entry.MediaType, &entry.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}

	return entry, nil
}

// ListByUser retrieves all entries owned by a user, most recent first.
func (r *CollectionRepository) ListByUser(ctx context.Context, userID string) ([]model.CollectionEntry, error) {
	query := `SELECT id, user_id, media_id, media_type, created_at FROM ` + r.table + `
		WHERE user_id = ? ORDER BY created_at DESC, id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.CollectionEntry
	for rows.Next() {
		var e model.CollectionEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.MediaID, &e.MediaType, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// DeleteOwned removes an entry only if it belongs to userID.
func (r *CollectionRepository) DeleteOwned(ctx context.Context, userID, id string) error {
	query := `DELETE FROM ` + r.table + ` WHERE id = ? AND user_id = ?`

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrEntryNotFound
	}

	return nil
}

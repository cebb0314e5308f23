package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"
)

// CollectionKind names one of the per-user media collections.
type CollectionKind string

const (
	Favorites CollectionKind = "favorites"
	Watchlist CollectionKind = "watchlist"
)

// Media types understood by the metadata provider.
const (
	MediaMovie = "movie"
	MediaTV    = "tv"
)

// CollectionEntry is a favorite or watchlist row linking a user to a media item.
type CollectionEntry struct {
	ID        string
	UserID    string
	MediaID   string
	MediaType string
	CreatedAt time.Time
}

// MediaID accepts both JSON strings and numbers, since TMDB ids are numeric
// but stored as strings.
type MediaID string

func (m *MediaID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*m = MediaID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.New("movieId must be a string or number")
	}
	*m = MediaID(n.String())
	return nil
}

// CollectionRequest is the body of POST /favorites and POST /watchlist.
type CollectionRequest struct {
	MovieID MediaID `json:"movieId"`
	Type    string  `json:"type"`
}

// RemoveRequest is the body of DELETE /favorites and DELETE /watchlist.
type RemoveRequest struct {
	ID string `json:"id"`
}

// CollectionEntryResponse is a collection entry as returned by the API,
// optionally enriched with metadata.
type CollectionEntryResponse struct {
	ID        string        `json:"id"`
	UserID    string        `json:"userId"`
	MovieID   string        `json:"movieId"`
	Type      string        `json:"type"`
	CreatedAt time.Time     `json:"createdAt"`
	Details   *MediaSummary `json:"details,omitempty"`
}

// ToResponse converts an entry into its API representation.
func (e CollectionEntry) ToResponse() CollectionEntryResponse {
	return CollectionEntryResponse{
		ID:        e.ID,
		UserID:    e.UserID,
		MovieID:   e.MediaID,
		Type:      e.MediaType,
		CreatedAt: e.CreatedAt,
	}
}

package validate

import (
	"strconv"

	"github.com/reelshelf/reelshelf-go/internal/model"
)

type collectionInput struct {
	MovieID string `json:"movieId" validate:"required,max=10,number"`
	Type    string `json:"type" validate:"required,oneof=movie tv"`
}

type removeInput struct {
	ID string `json:"id" validate:"required,uuid"`
}

// CollectionEntry validates the media reference of a favorite or watchlist add
// and returns the media id in canonical form (no sign, no leading zeros).
func CollectionEntry(mediaID, mediaType string) (string, error) {
	if err := check(collectionInput{MovieID: mediaID, Type: mediaType}); err != nil {
		return "", err
	}
	n, err := strconv.Atoi(mediaID)
	if err != nil || n <= 0 {
		return "", &ValidationError{Field: "movieId", Message: "must be a positive integer"}
	}
	return strconv.Itoa(n), nil
}

// EntryID validates the id of a collection entry to remove.
func EntryID(id string) error {
	return check(removeInput{ID: id})
}

// MediaType validates a metadata media type.
func MediaType(mediaType string) error {
	if mediaType != model.MediaMovie && mediaType != model.MediaTV {
		return &ValidationError{Field: "type", Message: "must be one of: movie, tv"}
	}
	return nil
}

package model

// MediaSummary is the subset of metadata shown next to a collection entry.
type MediaSummary struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	PosterURL   string  `json:"poster_url,omitempty"`
	ReleaseDate string  `json:"release_date"`
	VoteAverage float64 `json:"vote_average"`
}

// Trailer is the video chosen for playback on a detail page.
type Trailer struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Site     string `json:"site"`
	EmbedURL string `json:"embed_url"`
}

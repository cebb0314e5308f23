package tmdb

import "fmt"

// ImageBase is the TMDB CDN prefix for w500 poster and backdrop images.
const ImageBase = "https://image.tmdb.org/t/p/w500"

// Genre is a TMDB genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Video is a trailer, teaser or clip attached to a title.
type Video struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
	Site string `json:"site"`
	Size int    `json:"size"`
	Type string `json:"type"`
}

// VideoList is the videos block of a detail response.
type VideoList struct {
	Results []Video `json:"results"`
}

// CastMember is one entry of the credits cast list.
type CastMember struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character"`
	ProfilePath string `json:"profile_path"`
}

// CrewMember is one entry of the credits crew list.
type CrewMember struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Job        string `json:"job"`
	Department string `json:"department"`
}

// Credits is the credits block of a detail response.
type Credits struct {
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

// Company is a production company.
type Company struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	LogoPath string `json:"logo_path"`
}

// Country is a production country.
type Country struct {
	ISO31661 string `json:"iso_3166_1"`
	Name     string `json:"name"`
}

// Movie contains movie details, including appended videos and credits.
type Movie struct {
	ID                  int        `json:"id"`
	Title               string     `json:"title"`
	Overview            string     `json:"overview"`
	PosterPath          string     `json:"poster_path"`
	BackdropPath        string     `json:"backdrop_path"`
	ReleaseDate         string     `json:"release_date"`
	VoteAverage         float64    `json:"vote_average"`
	VoteCount           int        `json:"vote_count"`
	Runtime             int        `json:"runtime,omitempty"`
	Genres              []Genre    `json:"genres,omitempty"`
	ProductionCompanies []Company  `json:"production_companies,omitempty"`
	ProductionCountries []Country  `json:"production_countries,omitempty"`
	Videos              *VideoList `json:"videos,omitempty"`
	Credits             *Credits   `json:"credits,omitempty"`
}

// PosterURL returns the full poster URL, or "" when TMDB has none.
func (m *Movie) PosterURL() string {
	if m.PosterPath == "" {
		return ""
	}
	return ImageBase + m.PosterPath
}

// TVShow contains TV show details, including appended videos and credits.
type TVShow struct {
	ID                  int        `json:"id"`
	Name                string     `json:"name"`
	Overview            string     `json:"overview"`
	PosterPath          string     `json:"poster_path"`
	BackdropPath        string     `json:"backdrop_path"`
	FirstAirDate        string     `json:"first_air_date"`
	VoteAverage         float64    `json:"vote_average"`
	VoteCount           int        `json:"vote_count"`
	EpisodeRunTime      []int      `json:"episode_run_time,omitempty"`
	NumberOfSeasons     int        `json:"number_of_seasons,omitempty"`
	NumberOfEpisodes    int        `json:"number_of_episodes,omitempty"`
	Genres              []Genre    `json:"genres,omitempty"`
	ProductionCompanies []Company  `json:"production_companies,omitempty"`
	ProductionCountries []Country  `json:"production_countries,omitempty"`
	Videos              *VideoList `json:"videos,omitempty"`
	Credits             *Credits   `json:"credits,omitempty"`
}

// PosterURL returns the full poster URL, or "" when TMDB has none.
func (s *TVShow) PosterURL() string {
	if s.PosterPath == "" {
		return ""
	}
	return ImageBase + s.PosterPath
}

// Result is one item of a list endpoint. Movies fill Title and ReleaseDate,
// TV shows fill Name and FirstAirDate; multi search also sets MediaType.
type Result struct {
	ID           int     `json:"id"`
	MediaType    string  `json:"media_type,omitempty"`
	Title        string  `json:"title,omitempty"`
	Name         string  `json:"name,omitempty"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	ReleaseDate  string  `json:"release_date,omitempty"`
	FirstAirDate string  `json:"first_air_date,omitempty"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count"`
}

// DisplayTitle returns the title for movies and the name for TV shows.
func (r Result) DisplayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Name
}

// Page is a paged list response.
type Page struct {
	Page         int      `json:"page"`
	Results      []Result `json:"results"`
	TotalPages   int      `json:"total_pages"`
	TotalResults int      `json:"total_results"`
}

// APIError is a non-success response that has no dedicated sentinel.
type APIError struct {
	StatusCode int
	Message    string `json:"status_message"`
	Code       int    `json:"status_code"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("tmdb: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("tmdb: unexpected status %d", e.StatusCode)
}

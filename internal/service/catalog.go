package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/reelshelf/reelshelf-go/internal/model"
	"github.com/reelshelf/reelshelf-go/internal/tmdb"
	"github.com/reelshelf/reelshelf-go/internal/validate"
	"golang.org/x/sync/errgroup"
)

// MaxPage is the highest page TMDB serves for list endpoints.
const MaxPage = 500

const enrichConcurrency = 8

var (
	ErrNoTrailer = errors.New("no trailer available")
	ErrNotFound  = errors.New("title not found")
)

// MetadataProvider is the subset of the TMDB client the catalog uses.
type MetadataProvider interface {
	Movie(ctx context.Context, id int) (*tmdb.Movie, error)
	TV(ctx context.Context, id int) (*tmdb.TVShow, error)
	Discover(ctx context.Context, mediaType string, page int) (*tmdb.Page, error)
	SearchMulti(ctx context.Context, query string, page int) (*tmdb.Page, error)
	Trending(ctx context.Context, mediaType, window string) (*tmdb.Page, error)
	Videos(ctx context.Context, mediaType string, id int) ([]tmdb.Video, error)
}

// CatalogService exposes browsing operations over the metadata provider.
type CatalogService struct {
	provider MetadataProvider
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(provider MetadataProvider) *CatalogService {
	return &CatalogService{provider: provider}
}

// Movie returns movie details.
func (s *CatalogService) Movie(ctx context.Context, id string) (*tmdb.Movie, error) {
	n, err := parseTitleID(id)
	if err != nil {
		return nil, err
	}
	movie, err := s.provider.Movie(ctx, n)
	return movie, mapProviderError(err)
}

// TV returns TV show details.
func (s *CatalogService) TV(ctx context.Context, id string) (*tmdb.TVShow, error) {
	n, err := parseTitleID(id)
	if err != nil {
		return nil, err
	}
	show, err := s.provider.TV(ctx, n)
	return show, mapProviderError(err)
}

// Discover lists popular titles of one media type.
func (s *CatalogService) Discover(ctx context.Context, mediaType string, page int) (*tmdb.Page, error) {
	if err := validate.MediaType(mediaType); err != nil {
		return nil, err
	}
	p, err := s.provider.Discover(ctx, mediaType, clampPage(page))
	return p, mapProviderError(err)
}

// Search runs a multi search and keeps only movies and TV shows.
func (s *CatalogService) Search(ctx context.Context, query string, page int) (*tmdb.Page, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &validate.ValidationError{Field: "query", Message: "is required"}
	}

	p, err := s.provider.SearchMulti(ctx, query, clampPage(page))
	if err != nil {
		return nil, mapProviderError(err)
	}

	kept := make([]tmdb.Result, 0, len(p.Results))
	for _, r := range p.Results {
		if r.MediaType == model.MediaMovie || r.MediaType == model.MediaTV {
			kept = append(kept, r)
		}
	}
	p.Results = kept
	return p, nil
}

// Trending lists trending titles. mediaType may also be "all".
func (s *CatalogService) Trending(ctx context.Context, mediaType, window string) (*tmdb.Page, error) {
	if mediaType != "all" {
		if err := validate.MediaType(mediaType); err != nil {
			return nil, &validate.ValidationError{Field: "type", Message: "must be one of: all, movie, tv"}
		}
	}
	if window != "day" && window != "week" {
		return nil, &validate.ValidationError{Field: "window", Message: "must be one of: day, week"}
	}
	p, err := s.provider.Trending(ctx, mediaType, window)
	return p, mapProviderError(err)
}

// Trailer picks the video to play for a title: the first YouTube trailer,
// else the first YouTube video of any type.
func (s *CatalogService) Trailer(ctx context.Context, mediaType, id string) (model.Trailer, error) {
	if err := validate.MediaType(mediaType); err != nil {
		return model.Trailer{}, err
	}
	n, err := parseTitleID(id)
	if err != nil {
		return model.Trailer{}, err
	}

	videos, err := s.provider.Videos(ctx, mediaType, n)
	if err != nil {
		return model.Trailer{}, mapProviderError(err)
	}

	v, ok := pickTrailer(videos)
	if !ok {
		return model.Trailer{}, ErrNoTrailer
	}
	return model.Trailer{
		Key:      v.Key,
		Name:     v.Name,
		Site:     v.Site,
		EmbedURL: "https://www.youtube.com/embed/" + v.Key,
	}, nil
}

func pickTrailer(videos []tmdb.Video) (tmdb.Video, bool) {
	var fallback *tmdb.Video
	for i := range videos {
		v := &videos[i]
		if v.Site != "YouTube" || v.Key == "" {
			continue
		}
		if v.Type == "Trailer" {
			return *v, true
		}
		if fallback == nil {
			fallback = v
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return tmdb.Video{}, false
}

// Enrich attaches a metadata summary to each collection entry. Entries whose
// lookup fails are returned without details.
func (s *CatalogService) Enrich(ctx context.Context, entries []model.CollectionEntry) []model.CollectionEntryResponse {
	out := EntriesToResponse(entries)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichConcurrency)
	for i := range entries {
		i := i
		g.Go(func() error {
			summary, err := s.summary(gctx, entries[i].MediaType, entries[i].MediaID)
			if err != nil {
				slog.WarnContext(ctx, "metadata lookup failed",
					"media_type", entries[i].MediaType, "media_id", entries[i].MediaID, "error", err)
				return nil
			}
			out[i].Details = summary
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func (s *CatalogService) summary(ctx context.Context, mediaType, mediaID string) (*model.MediaSummary, error) {
	id, err := parseTitleID(mediaID)
	if err != nil {
		return nil, err
	}

	switch mediaType {
	case model.MediaMovie:
		m, err := s.provider.Movie(ctx, id)
		if err != nil {
			return nil, err
		}
		return &model.MediaSummary{
			ID: m.ID, Title: m.Title, Overview: m.Overview, PosterPath: m.PosterPath,
			PosterURL: m.PosterURL(), ReleaseDate: m.ReleaseDate, VoteAverage: m.VoteAverage,
		}, nil
	case model.MediaTV:
		t, err := s.provider.TV(ctx, id)
		if err != nil {
			return nil, err
		}
		return &model.MediaSummary{
			ID: t.ID, Title: t.Name, Overview: t.Overview, PosterPath: t.PosterPath,
			PosterURL: t.PosterURL(), ReleaseDate: t.FirstAirDate, VoteAverage: t.VoteAverage,
		}, nil
	default:
		return nil, validate.MediaType(mediaType)
	}
}

func parseTitleID(id string) (int, error) {
	n, err := strconv.Atoi(id)
	if err != nil || n <= 0 {
		return 0, &validate.ValidationError{Field: "id", Message: "must be a positive integer"}
	}
	return n, nil
}

func clampPage(page int) int {
	if page < 1 {
		return 1
	}
	if page > MaxPage {
		return MaxPage
	}
	return page
}

func mapProviderError(err error) error {
	if errors.Is(err, tmdb.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/swfilms/swfilms-go/internal/metrics"
	"github.com/swfilms/swfilms-go/internal/model"
	"github.com/swfilms/swfilms-go/internal/repository"
	"github.com/swfilms/swfilms-go/internal/swapi"
)

const syncMessage = "Movies synchronized successfully"

var (
	ErrMovieNotFound       = errors.New("movie not found")
	ErrEpisodeExists       = errors.New("there is a movie with this episode")
	ErrEpisodeNotFound     = errors.New("episode does not exist")
	ErrUpstreamUnavailable = errors.New("failed to reach API server")
)

// ValidationError reports a payload field that cannot be accepted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// MovieStore is the persistence the movie flows need.
type MovieStore interface {
	Create(ctx context.Context, movie *model.Movie) error
	GetByID(ctx context.Context, id int64) (*model.Movie, error)
	GetByEpisodeID(ctx context.Context, episodeID int) (*model.Movie, error)
	List(ctx context.Context) ([]model.Movie, error)
	Update(ctx context.Context, movie *model.Movie) error
	Delete(ctx context.Context, id int64) error
}

// Catalog is the external source of films.
type Catalog interface {
	Films(ctx context.Context) ([]swapi.Film, error)
}

// MovieService manages local movies and reconciles them with the catalog.
type MovieService struct {
	movies          MovieStore
	catalog         Catalog
	syncConcurrency int
}

// NewMovieService creates a new MovieService. syncConcurrency bounds the
// number of records reconciled in parallel; values below 1 mean unbounded.
func NewMovieService(movies MovieStore, catalog Catalog, syncConcurrency int) *MovieService {
	return &MovieService{
		movies:          movies,
		catalog:         catalog,
		syncConcurrency: syncConcurrency,
	}
}

// SyncFromAPI inserts every catalog film whose episode is not stored yet.
// Existing movies are never modified, so repeated passes are no-ops.
//
// The existence check and the insert are not atomic. When two passes
// overlap, the loser's insert hits the unique episode index and the
// record is counted as skipped.
func (s *MovieService) SyncFromAPI(ctx context.Context) (model.SyncResponse, error) {
	candidates, err := s.fetchCatalog(ctx)
	if err != nil {
		metrics.SyncRuns.WithLabelValues("failure").Inc()
		return model.SyncResponse{}, err
	}

	var inserted, skipped atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	if s.syncConcurrency > 0 {
		g.SetLimit(s.syncConcurrency)
	}

	for _, movie := range candidates {
		movie := movie
		g.Go(func() error {
			_, err := s.movies.GetByEpisodeID(gctx, movie.EpisodeID)
			if err == nil {
				skipped.Add(1)
				return nil
			}
			if !errors.Is(err, repository.ErrMovieNotFound) {
				return fmt.Errorf("check episode %d: %w", movie.EpisodeID, err)
			}

			if err := s.movies.Create(gctx, &movie); err != nil {
				if errors.Is(err, repository.ErrDuplicateEpisode) {
					slog.Warn("sync lost insert race", "episode_id", movie.EpisodeID)
					skipped.Add(1)
					return nil
				}
				return fmt.Errorf("insert episode %d: %w", movie.EpisodeID, err)
			}

			inserted.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		metrics.SyncRuns.WithLabelValues("failure").Inc()
		return model.SyncResponse{}, err
	}

	resp := model.SyncResponse{
		Message:  syncMessage,
		Inserted: int(inserted.Load()),
		Skipped:  int(skipped.Load()),
	}

	metrics.SyncRuns.WithLabelValues("success").Inc()
	metrics.SyncMovies.WithLabelValues("inserted").Add(float64(resp.Inserted))
	metrics.SyncMovies.WithLabelValues("skipped").Add(float64(resp.Skipped))
	slog.Info("movies synchronized", "fetched", len(candidates), "inserted", resp.Inserted, "skipped", resp.Skipped)

	return resp, nil
}

// CreateFromAPI imports a single episode from the catalog.
func (s *MovieService) CreateFromAPI(ctx context.Context, episodeID int) (*model.Movie, error) {
	if err := s.ensureNotStored(ctx, episodeID); err != nil {
		return nil, err
	}

	candidates, err := s.fetchCatalog(ctx)
	if err != nil {
		return nil, err
	}

	for _, movie := range candidates {
		if movie.EpisodeID != episodeID {
			continue
		}
		if err := s.create(ctx, &movie); err != nil {
			return nil, err
		}
		return &movie, nil
	}

	return nil, ErrEpisodeNotFound
}

// CreateManual stores a movie that is not part of the catalog. The episode
// must be unused both locally and upstream.
func (s *MovieService) CreateManual(ctx context.Context, req model.CreateMovieRequest) (*model.Movie, error) {
	if req.EpisodeID == nil {
		return nil, &ValidationError{Field: "episodeId", Reason: "is required"}
	}
	released, err := model.ParseDate(req.ReleaseDate)
	if err != nil {
		return nil, &ValidationError{Field: "releaseDate", Reason: "must be a valid date"}
	}

	if err := s.ensureEpisodeFree(ctx, *req.EpisodeID); err != nil {
		return nil, err
	}

	movie := &model.Movie{
		Title:        req.Title,
		Director:     req.Director,
		Producer:     req.Producer,
		ReleaseDate:  released,
		OpeningCrawl: req.OpeningCrawl,
		EpisodeID:    *req.EpisodeID,
	}

	if err := s.create(ctx, movie); err != nil {
		return nil, err
	}
	return movie, nil
}

// Update applies the fields present in req to the movie with the given ID.
func (s *MovieService) Update(ctx context.Context, id int64, req model.UpdateMovieRequest) (*model.Movie, error) {
	if err := validatePatch(req); err != nil {
		return nil, err
	}

	movie, err := s.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Empty() {
		return movie, nil
	}

	// re-asserting the movie's own episode is not a collision
	if req.EpisodeID.Present() && req.EpisodeID.Value != movie.EpisodeID {
		if err := s.ensureEpisodeFree(ctx, req.EpisodeID.Value); err != nil {
			return nil, err
		}
		movie.EpisodeID = req.EpisodeID.Value
	}

	if req.Title.Present() {
		movie.Title = req.Title.Value
	}
	if req.Director.Present() {
		movie.Director = req.Director.Value
	}
	if req.Producer.Present() {
		movie.Producer = req.Producer.Value
	}
	if req.OpeningCrawl.Present() {
		movie.OpeningCrawl = req.OpeningCrawl.Value
	}
	if req.ReleaseDate.Present() {
		// validated above
		movie.ReleaseDate, _ = model.ParseDate(req.ReleaseDate.Value)
	}

	if err := s.movies.Update(ctx, movie); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEpisode):
			return nil, ErrEpisodeExists
		case errors.Is(err, repository.ErrMovieNotFound):
			return nil, ErrMovieNotFound
		}
		return nil, err
	}

	return movie, nil
}

// Delete removes a movie and returns it as it was before deletion.
func (s *MovieService) Delete(ctx context.Context, id int64) (*model.Movie, error) {
	movie, err := s.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.movies.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}

	return movie, nil
}

// FindOne returns the movie with the given ID.
func (s *MovieService) FindOne(ctx context.Context, id int64) (*model.Movie, error) {
	movie, err := s.movies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	return movie, nil
}

// FindAll returns every stored movie.
func (s *MovieService) FindAll(ctx context.Context) ([]model.Movie, error) {
	return s.movies.List(ctx)
}

// fetchCatalog returns the catalog as unsaved movies. A malformed record
// fails the whole fetch.
func (s *MovieService) fetchCatalog(ctx context.Context) ([]model.Movie, error) {
	films, err := s.catalog.Films(ctx)
	if err != nil {
		return nil, ErrUpstreamUnavailable
	}

	movies := make([]model.Movie, 0, len(films))
	for _, f := range films {
		m, err := f.Movie()
		if err != nil {
			slog.Warn("malformed catalog record", "error", err)
			return nil, ErrUpstreamUnavailable
		}
		movies = append(movies, m)
	}
	return movies, nil
}

func (s *MovieService) ensureNotStored(ctx context.Context, episodeID int) error {
	_, err := s.movies.GetByEpisodeID(ctx, episodeID)
	switch {
	case err == nil:
		return ErrEpisodeExists
	case errors.Is(err, repository.ErrMovieNotFound):
		return nil
	default:
		return err
	}
}

// ensureEpisodeFree checks the episode against local movies first, then
// against the catalog.
func (s *MovieService) ensureEpisodeFree(ctx context.Context, episodeID int) error {
	if err := s.ensureNotStored(ctx, episodeID); err != nil {
		return err
	}

	films, err := s.catalog.Films(ctx)
	if err != nil {
		return ErrUpstreamUnavailable
	}
	for _, f := range films {
		if f.EpisodeID == episodeID {
			return ErrEpisodeExists
		}
	}
	return nil
}

func (s *MovieService) create(ctx context.Context, movie *model.Movie) error {
	if err := s.movies.Create(ctx, movie); err != nil {
		if errors.Is(err, repository.ErrDuplicateEpisode) {
			return ErrEpisodeExists
		}
		return err
	}
	slog.Info("movie created", "movie_id", movie.ID, "episode_id", movie.EpisodeID)
	return nil
}

func validatePatch(req model.UpdateMovieRequest) error {
	text := []struct {
		name  string
		field model.Optional[string]
	}{
		{"title", req.Title},
		{"director", req.Director},
		{"producer", req.Producer},
		{"releaseDate", req.ReleaseDate},
		{"openingCrawl", req.OpeningCrawl},
	}
	for _, f := range text {
		if f.field.Null {
			return &ValidationError{Field: f.name, Reason: "must not be null"}
		}
		if f.field.Set && strings.TrimSpace(f.field.Value) == "" {
			return &ValidationError{Field: f.name, Reason: "must not be empty"}
		}
	}

	if req.EpisodeID.Null {
		return &ValidationError{Field: "episodeId", Reason: "must not be null"}
	}
	if req.ReleaseDate.Present() {
		if _, err := model.ParseDate(req.ReleaseDate.Value); err != nil {
			return &ValidationError{Field: "releaseDate", Reason: "must be a valid date"}
		}
	}
	return nil
}

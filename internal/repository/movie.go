package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/swfilms/swfilms-go/internal/model"
)

var (
	ErrMovieNotFound    = errors.New("movie not found")
	ErrDuplicateEpisode = errors.New("episode already exists")
)

const movieColumns = `id, title, director, producer, release_date, opening_crawl, episode_id, created_at, updated_at`

// MovieRepository handles movie persistence operations.
type MovieRepository struct {
	db *sql.DB
}

// NewMovieRepository creates a new MovieRepository.
func NewMovieRepository(db *sql.DB) *MovieRepository {
	return &MovieRepository{db: db}
}

// Create inserts a movie and fills in its generated ID and timestamps.
// A collision on episode_id yields ErrDuplicateEpisode.
func (r *MovieRepository) Create(ctx context.Context, movie *model.Movie) error {
	now := time.Now().UTC().Truncate(time.Second)

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO movies (title, director, producer, release_date, opening_crawl, episode_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		movie.Title, movie.Director, movie.Producer, movie.ReleaseDate.Time,
		movie.OpeningCrawl, movie.EpisodeID, now, now,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrDuplicateEpisode
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	movie.ID = id
	movie.CreatedAt = now
	movie.UpdatedAt = now
	return nil
}

// GetByID retrieves a movie by its primary key.
func (r *MovieRepository) GetByID(ctx context.Context, id int64) (*model.Movie, error) {
	return r.getOne(ctx, `SELECT `+movieColumns+` FROM movies WHERE id = ?`, id)
}

// GetByEpisodeID retrieves a movie by its episode number.
func (r *MovieRepository) GetByEpisodeID(ctx context.Context, episodeID int) (*model.Movie, error) {
	return r.getOne(ctx, `SELECT `+movieColumns+` FROM movies WHERE episode_id = ?`, episodeID)
}

// List returns every movie ordered by ID. The result is never nil.
func (r *MovieRepository) List(ctx context.Context) ([]model.Movie, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+movieColumns+` FROM movies ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movies := []model.Movie{}
	for rows.Next() {
		var m model.Movie
		if err := scanMovie(rows, &m); err != nil {
			return nil, err
		}
		movies = append(movies, m)
	}

	return movies, rows.Err()
}

// Update overwrites every mutable column of the movie identified by movie.ID.
func (r *MovieRepository) Update(ctx context.Context, movie *model.Movie) error {
	now := time.Now().UTC().Truncate(time.Second)

	result, err := r.db.ExecContext(ctx, `
		UPDATE movies
		SET title = ?, director = ?, producer = ?, release_date = ?, opening_crawl = ?, episode_id = ?, updated_at = ?
		WHERE id = ?`,
		movie.Title, movie.Director, movie.Producer, movie.ReleaseDate.Time,
		movie.OpeningCrawl, movie.EpisodeID, now, movie.ID,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrDuplicateEpisode
		}
		return err
	}

	if err := requireRow(result); err != nil {
		return err
	}

	movie.UpdatedAt = now
	return nil
}

// Delete removes the movie with the given ID.
func (r *MovieRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM movies WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func (r *MovieRepository) getOne(ctx context.Context, query string, arg any) (*model.Movie, error) {
	m := &model.Movie{}
	if err := scanMovie(r.db.QueryRowContext(ctx, query, arg), m); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	return m, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovie(row rowScanner, m *model.Movie) error {
	return row.Scan(
		&m.ID, &m.Title, &m.Director, &m.Producer, &m.ReleaseDate.Time,
		&m.OpeningCrawl, &m.EpisodeID, &m.CreatedAt, &m.UpdatedAt,
	)
}

func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrMovieNotFound
	}
	return nil
}

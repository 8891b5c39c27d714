// Package memory provides map-backed stores with the same error semantics
// as the MySQL repositories, including unique username and episode keys.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/swfilms/swfilms-go/internal/model"
	"github.com/swfilms/swfilms-go/internal/repository"
)

// UserStore is an in-memory user repository.
type UserStore struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]model.User
}

// NewUserStore creates an empty UserStore.
func NewUserStore() *UserStore {
	return &UserStore{users: make(map[int64]model.User)}
}

func (s *UserStore) Create(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == user.Username {
			return repository.ErrDuplicateUsername
		}
	}

	now := time.Now().UTC().Truncate(time.Second)
	s.nextID++
	user.ID = s.nextID
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = *user
	return nil
}

func (s *UserStore) CreateIfAbsent(ctx context.Context, user *model.User) (bool, error) {
	err := s.Create(ctx, user)
	if err == nil {
		return true, nil
	}
	if err != repository.ErrDuplicateUsername {
		return false, err
	}

	stored, err := s.GetByUsername(ctx, user.Username)
	if err != nil {
		return false, err
	}
	*user = *stored
	return false, nil
}

func (s *UserStore) GetByUsername(_ context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s *UserStore) GetByID(_ context.Context, id int64) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

// Len returns the number of stored users.
func (s *UserStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// MovieStore is an in-memory movie repository.
type MovieStore struct {
	mu     sync.RWMutex
	nextID int64
	movies map[int64]model.Movie
}

// NewMovieStore creates an empty MovieStore.
func NewMovieStore() *MovieStore {
	return &MovieStore{movies: make(map[int64]model.Movie)}
}

func (s *MovieStore) Create(_ context.Context, movie *model.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.episodeTaken(movie.EpisodeID, 0) {
		return repository.ErrDuplicateEpisode
	}

	now := time.Now().UTC().Truncate(time.Second)
	s.nextID++
	movie.ID = s.nextID
	movie.CreatedAt = now
	movie.UpdatedAt = now
	s.movies[movie.ID] = *movie
	return nil
}

func (s *MovieStore) GetByID(_ context.Context, id int64) (*model.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.movies[id]
	if !ok {
		return nil, repository.ErrMovieNotFound
	}
	return &m, nil
}

func (s *MovieStore) GetByEpisodeID(_ context.Context, episodeID int) (*model.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.movies {
		if m.EpisodeID == episodeID {
			return &m, nil
		}
	}
	return nil, repository.ErrMovieNotFound
}

func (s *MovieStore) List(_ context.Context) ([]model.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Movie, 0, len(s.movies))
	for _, m := range s.movies {
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b model.Movie) int {
		return int(a.ID - b.ID)
	})
	return out, nil
}

func (s *MovieStore) Update(_ context.Context, movie *model.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.movies[movie.ID]; !ok {
		return repository.ErrMovieNotFound
	}
	if s.episodeTaken(movie.EpisodeID, movie.ID) {
		return repository.ErrDuplicateEpisode
	}

	movie.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	s.movies[movie.ID] = *movie
	return nil
}

func (s *MovieStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.movies[id]; !ok {
		return repository.ErrMovieNotFound
	}
	delete(s.movies, id)
	return nil
}

// Len returns the number of stored movies.
func (s *MovieStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.movies)
}

// episodeTaken must be called with mu held.
func (s *MovieStore) episodeTaken(episodeID int, exceptID int64) bool {
	for id, m := range s.movies {
		if id != exceptID && m.EpisodeID == episodeID {
			return true
		}
	}
	return false
}

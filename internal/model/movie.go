package model

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const dateLayout = time.DateOnly

var ErrInvalidDate = errors.New("date must be formatted as YYYY-MM-DD")

// Movie represents a movie in the database.
type Movie struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Director     string    `json:"director"`
	Producer     string    `json:"producer"`
	ReleaseDate  Date      `json:"releaseDate"`
	OpeningCrawl string    `json:"openingCrawl"`
	EpisodeID    int       `json:"episodeId"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Date is a calendar date serialized as YYYY-MM-DD.
type Date struct {
	time.Time
}

// ParseDate accepts YYYY-MM-DD or a full RFC 3339 timestamp, keeping only
// the calendar date in UTC.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return Date{t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	t = t.UTC()
	return Date{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return ErrInvalidDate
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// CreateMovieRequest is the payload for a manually entered movie.
type CreateMovieRequest struct {
	Title        string `json:"title" validate:"required"`
	Director     string `json:"director" validate:"required"`
	Producer     string `json:"producer" validate:"required"`
	ReleaseDate  string `json:"releaseDate" validate:"required,date"`
	OpeningCrawl string `json:"openingCrawl" validate:"required"`
	EpisodeID    *int   `json:"episodeId" validate:"required"`
}

// CreateMovieFromAPIRequest asks for a single episode to be imported from the catalog.
type CreateMovieFromAPIRequest struct {
	EpisodeID *int `json:"episodeId" validate:"required"`
}

// Optional is a JSON field that distinguishes an absent key (Set false)
// from an explicit null (Set and Null true).
type Optional[T any] struct {
	Value T
	Set   bool
	Null  bool
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// Present reports whether the field carries a usable value.
func (o Optional[T]) Present() bool {
	return o.Set && !o.Null
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		var zero T
		o.Value = zero
		o.Null = true
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

// UpdateMovieRequest is a partial update. Only fields present in the
// payload are applied; every movie column is non-nullable.
type UpdateMovieRequest struct {
	Title        Optional[string] `json:"title"`
	Director     Optional[string] `json:"director"`
	Producer     Optional[string] `json:"producer"`
	ReleaseDate  Optional[string] `json:"releaseDate"`
	OpeningCrawl Optional[string] `json:"openingCrawl"`
	EpisodeID    Optional[int]    `json:"episodeId"`
}

// Empty reports whether the request changes nothing.
func (r UpdateMovieRequest) Empty() bool {
	return !r.Title.Set && !r.Director.Set && !r.Producer.Set &&
		!r.ReleaseDate.Set && !r.OpeningCrawl.Set && !r.EpisodeID.Set
}

// SyncResponse reports the outcome of a catalog synchronization.
type SyncResponse struct {
	Message  string `json:"message"`
	Inserted int    `json:"inserted"`
	Skipped  int    `json:"skipped"`
}

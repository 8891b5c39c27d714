// Package swapi is a read-only client for the Star Wars API films catalog.
package swapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/swfilms/swfilms-go/internal/model"
)

// ErrUnavailable covers every way a catalog fetch can fail: transport
// errors, non-2xx responses and undecodable payloads.
var ErrUnavailable = errors.New("failed to reach API server")

const filmsEndpoint = "films"

// Film is a single catalog record. Fields the service does not store are
// ignored on decode.
type Film struct {
	Title        string `json:"title"`
	EpisodeID    int    `json:"episode_id"`
	OpeningCrawl string `json:"opening_crawl"`
	Director     string `json:"director"`
	Producer     string `json:"producer"`
	ReleaseDate  string `json:"release_date"`
}

// FilmsPage is one page of the films listing.
type FilmsPage struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []Film  `json:"results"`
}

// Movie maps the catalog record onto a new, unsaved movie.
func (f Film) Movie() (model.Movie, error) {
	released, err := model.ParseDate(f.ReleaseDate)
	if err != nil {
		return model.Movie{}, fmt.Errorf("episode %d: %w", f.EpisodeID, err)
	}

	return model.Movie{
		Title:        f.Title,
		Director:     f.Director,
		Producer:     f.Producer,
		ReleaseDate:  released,
		OpeningCrawl: f.OpeningCrawl,
		EpisodeID:    f.EpisodeID,
	}, nil
}

// Client fetches films from a SWAPI-compatible base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client for baseURL (e.g. https://swapi.dev/api).
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Films returns the first page of the films catalog. Only the first page
// is read; the public catalog fits on it.
func (c *Client) Films(ctx context.Context) ([]Film, error) {
	page, err := c.fetchFilms(ctx)
	if err != nil {
		slog.Warn("catalog fetch failed", "url", c.baseURL, "error", err)
		return nil, ErrUnavailable
	}
	return page.Results, nil
}

func (c *Client) fetchFilms(ctx context.Context) (*FilmsPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+filmsEndpoint+"/", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var page FilmsPage
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode films: %w", err)
	}
	if page.Results == nil {
		return nil, errors.New("decode films: missing results")
	}

	return &page, nil
}

// Package omdb is a minimal client for the OMDb title lookup endpoint.
package omdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/iliyamo/movie-watchlist/internal/metrics"
)

var (
	// ErrNotFound is returned when OMDb answers with an Error field.
	ErrNotFound = errors.New("movie not found")
	// ErrMalformed is returned when a successful answer cannot be parsed
	// into a movie (e.g. imdbRating "N/A").
	ErrMalformed = errors.New("malformed omdb response")
)

type Client struct {
	APIKey  string
	BaseURL string
	HTTP    *http.Client
}

// Response mirrors the subset of the OMDb payload the application reads.
type Response struct {
	Response   string `json:"Response"`
	Error      string `json:"Error"`
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Genre      string `json:"Genre"`
	ImdbRating string `json:"imdbRating"`
	ImdbID     string `json:"imdbID"`
}

// Movie is a parsed lookup result ready to be stored as a movie entry.
type Movie struct {
	Title  string
	Year   int
	Score  float64
	Genres string
}

// New builds a client. A zero timeout leaves lookups bounded only by ctx.
func New(apiKey, base string, timeout time.Duration) *Client {
	return &Client{
		APIKey:  apiKey,
		BaseURL: base,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// LookupTitle issues a single GET ?apikey=..&t=title. There is no retry; any
// transport failure is returned as is.
func (c *Client) LookupTitle(ctx context.Context, title string) (*Movie, error) {
	mv, err := c.lookup(ctx, title)
	switch {
	case err == nil:
		metrics.OMDbLookupsTotal.WithLabelValues("found").Inc()
	case errors.Is(err, ErrNotFound):
		metrics.OMDbLookupsTotal.WithLabelValues("not_found").Inc()
	default:
		metrics.OMDbLookupsTotal.WithLabelValues("error").Inc()
	}
	return mv, err
}

func (c *Client) lookup(ctx context.Context, title string) (*Movie, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("omdb base url: %w", err)
	}
	q := u.Query()
	q.Set("apikey", c.APIKey)
	q.Set("t", title)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("omdb status %d", res.StatusCode)
	}
	var out Response
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, out.Error)
	}
	return out.Movie()
}

// Movie converts the payload: the year is the first four characters of
// Year ("2019–2021" -> 2019) and the score is imdbRating as a float.
func (r Response) Movie() (*Movie, error) {
	if len(r.Year) < 4 {
		return nil, fmt.Errorf("%w: year %q", ErrMalformed, r.Year)
	}
	year, err := strconv.Atoi(r.Year[:4])
	if err != nil {
		return nil, fmt.Errorf("%w: year %q", ErrMalformed, r.Year)
	}
	score, err := strconv.ParseFloat(r.ImdbRating, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: imdbRating %q", ErrMalformed, r.ImdbRating)
	}
	return &Movie{Title: r.Title, Year: year, Score: score, Genres: r.Genre}, nil
}

package model

import (
	"strings"
	"time"
)

// WatchList is a named collection of movies owned by one user. The pair
// (AuthorID, Name) is unique.
type WatchList struct {
	ID        uint64    // watchlists.id
	AuthorID  uint64    // watchlists.author_id
	Name      string    // watchlists.name
	CreatedAt time.Time // watchlists.created_at
}

// MovieEntry is a single title saved to a watchlist. Titles are not unique
// within a watchlist; the same film can be added twice.
type MovieEntry struct {
	ID           uint64    // movies.id
	WatchListID  uint64    // movies.watchlist_id
	Title        string    // movies.title
	PremiereYear int       // movies.premiere_year
	Score        float64   // movies.score, 0-10
	Genres       string    // movies.genres, comma separated
	CreatedAt    time.Time // movies.created_at
}

// GenreList splits the comma separated Genres column.
func (m MovieEntry) GenreList() []string {
	var out []string
	for _, g := range strings.Split(m.Genres, ",") {
		if g = strings.TrimSpace(g); g != "" {
			out = append(out, g)
		}
	}
	return out
}

// Package queue defines the activity events exchanged over RabbitMQ and the
// consumer that records them.
package queue

import (
	"fmt"
	"strings"
	"time"
)

// ActivityQueue is the durable queue every watchlist event is routed to.
const ActivityQueue = "watchlist.activity"

type EventType string

const (
	WatchlistCreated EventType = "watchlist.created"
	WatchlistDeleted EventType = "watchlist.deleted"
	MovieAdded       EventType = "movie.added"
	MovieDeleted     EventType = "movie.deleted"
)

// WatchlistEvent is published after a successful mutation. Movie fields are
// empty for watchlist-level events.
type WatchlistEvent struct {
	Type          EventType `json:"type"`
	UserID        uint64    `json:"user_id"`
	WatchlistID   uint64    `json:"watchlist_id"`
	WatchlistName string    `json:"watchlist_name"`
	MovieID       uint64    `json:"movie_id,omitempty"`
	MovieTitle    string    `json:"movie_title,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Line renders the event as one activity log line, newline terminated.
func (e WatchlistEvent) Line() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s | user_id=%d | watchlist_id=%d | watchlist=%q",
		e.OccurredAt.UTC().Format(time.RFC3339), e.Type, e.UserID, e.WatchlistID, e.WatchlistName)
	if e.MovieID != 0 || e.MovieTitle != "" {
		fmt.Fprintf(&b, " | movie_id=%d | movie=%q", e.MovieID, e.MovieTitle)
	}
	b.WriteByte('\n')
	return b.String()
}

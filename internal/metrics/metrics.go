package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// OMDbLookupsTotal counts title lookups by result (found, not_found, error).
	OMDbLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchlist_omdb_lookups_total",
			Help: "Total number of OMDb title lookups.",
		},
		[]string{"result"},
	)

	WatchlistsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "watchlist_watchlists_created_total",
			Help: "Total number of watchlists created.",
		},
	)

	MoviesAddedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "watchlist_movies_added_total",
			Help: "Total number of movie entries added to watchlists.",
		},
	)

	// DeletionsTotal counts confirmed deletions by kind (movie, watchlist).
	DeletionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchlist_deletions_total",
			Help: "Total number of confirmed deletions.",
		},
		[]string{"kind"},
	)

	// EventsPublishedTotal counts activity events by outcome (ok, error).
	EventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchlist_events_published_total",
			Help: "Total number of activity events handed to the broker.",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(
		OMDbLookupsTotal,
		WatchlistsCreatedTotal,
		MoviesAddedTotal,
		DeletionsTotal,
		EventsPublishedTotal,
	)
}

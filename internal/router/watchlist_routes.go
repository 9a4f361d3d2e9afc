package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-watchlist/internal/handler"
	"github.com/iliyamo/movie-watchlist/internal/middleware"
)

// RegisterWatchlists registers the login-protected watchlist pages. The
// delete routes accept GET as a no-op that only redirects; deletion happens
// on POST. The OMDb search (POST /watchlists/:name) is rate limited.
func RegisterWatchlists(e *echo.Echo, h *handler.WatchlistHandler, s *middleware.Sessions, limit echo.MiddlewareFunc) {
	getPost := []string{http.MethodGet, http.MethodPost}

	// route-level rather than a group: a "" group would also catch unknown
	// paths and send them to the login page
	auth := s.LoginRequired()
	e.Match(getPost, "/watchlists", h.Watchlists, auth)
	e.GET("/watchlists/:name", h.WatchlistView, auth)
	e.POST("/watchlists/:name", h.WatchlistView, auth, limit)
	e.Match(getPost, "/delete/movie/:id", h.DeleteMovie, auth)
	e.Match(getPost, "/delete/watchlist/:id", h.DeleteWatchlist, auth)
}

package handler

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/movie-watchlist/internal/metrics"
	"github.com/iliyamo/movie-watchlist/internal/middleware"
	"github.com/iliyamo/movie-watchlist/internal/model"
	"github.com/iliyamo/movie-watchlist/internal/omdb"
	"github.com/iliyamo/movie-watchlist/internal/queue"
	"github.com/iliyamo/movie-watchlist/internal/repository"
	"github.com/iliyamo/movie-watchlist/internal/service"
	"github.com/iliyamo/movie-watchlist/internal/table"
	"github.com/iliyamo/movie-watchlist/internal/validate"
	"github.com/iliyamo/movie-watchlist/internal/view"
)

const (
	msgDuplicateName = "Watchlist with given name already exists."
	msgMovieNotFound = "Movie not found."
)

// MovieLookup resolves a free-text title to movie metadata.
type MovieLookup interface {
	LookupTitle(ctx context.Context, title string) (*omdb.Movie, error)
}

// WatchlistHandler serves the watchlist pages and the delete endpoints. All
// routes sit behind LoginRequired; every query is scoped to the caller.
type WatchlistHandler struct {
	Lists  *repository.WatchlistRepo
	Movies *repository.MovieRepo
	OMDb   MovieLookup
	Events service.Publisher
	Log    zerolog.Logger
}

func NewWatchlistHandler(w *repository.WatchlistRepo, m *repository.MovieRepo, lookup MovieLookup, events service.Publisher, log zerolog.Logger) *WatchlistHandler {
	return &WatchlistHandler{Lists: w, Movies: m, OMDb: lookup, Events: events, Log: log}
}

type watchlistForm struct {
	Name string `form:"new_watchlist_name" validate:"required,max=100"`
}

type searchForm struct {
	Title string `form:"movie_title" validate:"required,max=200"`
}

// Watchlists lists the caller's watchlists and creates one on POST.
func (h *WatchlistHandler) Watchlists(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		return h.renderWatchlists(c, http.StatusOK, "", nil)
	}

	var f watchlistForm
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid form submission.")
	}
	f.Name = strings.TrimSpace(f.Name)
	form := map[string]string{"new_watchlist_name": f.Name}
	if errs := validate.Map(f); errs != nil {
		return h.renderWatchlists(c, http.StatusBadRequest, validate.First(errs), form)
	}

	ctx := c.Request().Context()
	uid := middleware.UserID(c)
	exists, err := h.Lists.ExistsByName(ctx, uid, f.Name)
	if err != nil {
		return err
	}
	if exists {
		return h.renderWatchlists(c, http.StatusConflict, msgDuplicateName, form)
	}

	wl := &model.WatchList{AuthorID: uid, Name: f.Name}
	if err := h.Lists.Create(ctx, wl); err != nil {
		if errors.Is(err, repository.ErrWatchlistExists) {
			return h.renderWatchlists(c, http.StatusConflict, msgDuplicateName, form)
		}
		return err
	}

	metrics.WatchlistsCreatedTotal.Inc()
	h.publish(ctx, queue.WatchlistCreated, uid, wl, nil)
	h.Log.Info().Uint64("user_id", uid).Uint64("watchlist_id", wl.ID).Msg("watchlist created")
	return c.Redirect(http.StatusSeeOther, watchlistURL(wl.Name))
}

// WatchlistView shows one watchlist as a sortable table and, on POST, looks
// the submitted title up on OMDb and appends the result.
func (h *WatchlistHandler) WatchlistView(c echo.Context) error {
	name := c.Param("name")
	// echo matches on RawPath when the request has one; Path is already decoded
	if c.Request().URL.RawPath != "" {
		if unescaped, err := url.PathUnescape(name); err == nil {
			name = unescaped
		}
	}
	ctx := c.Request().Context()
	uid := middleware.UserID(c)

	wl, err := h.Lists.GetByName(ctx, uid, name)
	if errors.Is(err, repository.ErrWatchlistNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Watchlist not found.")
	}
	if err != nil {
		return err
	}

	if c.Request().Method != http.MethodPost {
		return h.renderWatchlist(c, http.StatusOK, wl, "", nil)
	}

	var f searchForm
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid form submission.")
	}
	f.Title = strings.TrimSpace(f.Title)
	form := map[string]string{"movie_title": f.Title}
	if errs := validate.Map(f); errs != nil {
		return h.renderWatchlist(c, http.StatusBadRequest, wl, validate.First(errs), form)
	}

	found, err := h.OMDb.LookupTitle(ctx, f.Title)
	if errors.Is(err, omdb.ErrNotFound) {
		return h.renderWatchlist(c, http.StatusUnprocessableEntity, wl, msgMovieNotFound, form)
	}
	if err != nil {
		return fmt.Errorf("omdb lookup %q: %w", f.Title, err)
	}

	entry := &model.MovieEntry{
		WatchListID:  wl.ID,
		Title:        found.Title,
		PremiereYear: found.Year,
		Score:        found.Score,
		Genres:       found.Genres,
	}
	if err := h.Movies.Create(ctx, entry); err != nil {
		return err
	}

	metrics.MoviesAddedTotal.Inc()
	h.publish(ctx, queue.MovieAdded, uid, wl, entry)
	h.Log.Info().Uint64("user_id", uid).Uint64("watchlist_id", wl.ID).Uint64("movie_id", entry.ID).Msg("movie added")
	return c.Redirect(http.StatusSeeOther, watchlistURL(wl.Name))
}

// DeleteMovie removes an entry on POST. The entry must belong to one of the
// caller's watchlists; anything else is a 404. GET only redirects.
func (h *WatchlistHandler) DeleteMovie(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	uid := middleware.UserID(c)

	entry, wl, err := h.Movies.GetForAuthor(ctx, id, uid)
	if errors.Is(err, repository.ErrMovieNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Movie not found.")
	}
	if err != nil {
		return err
	}

	if c.Request().Method == http.MethodPost {
		if err := h.Movies.Delete(ctx, entry.ID); err != nil && !errors.Is(err, repository.ErrMovieNotFound) {
			return err
		}
		metrics.DeletionsTotal.WithLabelValues("movie").Inc()
		h.publish(ctx, queue.MovieDeleted, uid, wl, entry)
	}
	return c.Redirect(http.StatusSeeOther, watchlistURL(wl.Name))
}

// DeleteWatchlist removes a watchlist and its entries on POST. GET only
// redirects.
func (h *WatchlistHandler) DeleteWatchlist(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	uid := middleware.UserID(c)

	wl, err := h.Lists.GetByIDAndAuthor(ctx, id, uid)
	if errors.Is(err, repository.ErrWatchlistNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Watchlist not found.")
	}
	if err != nil {
		return err
	}

	if c.Request().Method == http.MethodPost {
		err := h.Lists.DeleteByIDAndAuthor(ctx, wl.ID, uid)
		if errors.Is(err, repository.ErrWatchlistNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Watchlist not found.")
		}
		if err != nil {
			return err
		}
		metrics.DeletionsTotal.WithLabelValues("watchlist").Inc()
		h.publish(ctx, queue.WatchlistDeleted, uid, wl, nil)
		h.Log.Info().Uint64("user_id", uid).Uint64("watchlist_id", wl.ID).Msg("watchlist deleted")
	}
	return c.Redirect(http.StatusSeeOther, "/watchlists")
}

func (h *WatchlistHandler) renderWatchlists(c echo.Context, code int, flash string, form map[string]string) error {
	lists, err := h.Lists.ListByAuthor(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	p := newPage(c, view.Title("Watchlists"))
	p.Flash = flash
	for k, v := range form {
		p.Form[k] = v
	}
	p.Data = view.WatchlistsData{Watchlists: lists}
	return c.Render(code, view.Watchlists, p)
}

func (h *WatchlistHandler) renderWatchlist(c echo.Context, code int, wl *model.WatchList, flash string, form map[string]string) error {
	movies, err := h.Movies.ListByWatchlist(c.Request().Context(), wl.ID)
	if err != nil {
		return err
	}
	p := newPage(c, view.Title(wl.Name))
	p.Flash = flash
	for k, v := range form {
		p.Form[k] = v
	}
	p.Data = view.WatchlistData{
		Watchlist: wl,
		Table:     movieTable(movies).Configure(c.QueryParams()).View(),
	}
	return c.Render(code, view.Watchlist, p)
}

// movieTable lays out the columns of the watchlist page.
func movieTable(movies []*model.MovieEntry) *table.Table[*model.MovieEntry] {
	return table.New(movies,
		table.Column[*model.MovieEntry]{
			Key: "title", Header: "Title",
			Cell:    func(m *model.MovieEntry) string { return m.Title },
			Compare: func(a, b *model.MovieEntry) int { return table.Strings(a.Title, b.Title) },
		},
		table.Column[*model.MovieEntry]{
			Key: "year", Header: "Premiere year",
			Cell:    func(m *model.MovieEntry) string { return strconv.Itoa(m.PremiereYear) },
			Compare: func(a, b *model.MovieEntry) int { return cmp.Compare(a.PremiereYear, b.PremiereYear) },
		},
		table.Column[*model.MovieEntry]{
			Key: "score", Header: "IMDb score",
			Cell:    func(m *model.MovieEntry) string { return strconv.FormatFloat(m.Score, 'f', 1, 64) },
			Compare: func(a, b *model.MovieEntry) int { return cmp.Compare(a.Score, b.Score) },
		},
		table.Column[*model.MovieEntry]{
			Key: "genres", Header: "Genres",
			Cell: func(m *model.MovieEntry) string { return strings.Join(m.GenreList(), ", ") },
		},
	)
}

func (h *WatchlistHandler) publish(ctx context.Context, typ queue.EventType, uid uint64, wl *model.WatchList, m *model.MovieEntry) {
	ev := queue.WatchlistEvent{
		Type:          typ,
		UserID:        uid,
		WatchlistID:   wl.ID,
		WatchlistName: wl.Name,
		OccurredAt:    time.Now().UTC(),
	}
	if m != nil {
		ev.MovieID, ev.MovieTitle = m.ID, m.Title
	}
	h.Events.Publish(ctx, ev)
}

func watchlistURL(name string) string {
	return "/watchlists/" + url.PathEscape(name)
}

func idParam(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusNotFound, "Not found.")
	}
	return id, nil
}

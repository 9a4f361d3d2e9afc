package view

import (
	"bytes"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-watchlist/internal/model"
	"github.com/iliyamo/movie-watchlist/internal/table"
)

func render(t *testing.T, name string, p Page) string {
	t.Helper()
	r, err := New()
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, name, p, nil))
	return buf.String()
}

func TestNew_ParsesEveryPage(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{Home, Watchlists, Watchlist, Login, Register, Error}, r.Names())
}

func TestRender_UnknownTemplate(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	assert.Error(t, r.Render(&bytes.Buffer{}, "missing.html", Page{}, nil))
}

func TestRender_HomeAnonymous(t *testing.T) {
	out := render(t, Home, Page{Title: Title()})
	assert.Contains(t, out, "<title>Movie Watchlist</title>")
	assert.Contains(t, out, `href="/accounts/login"`)
	assert.NotContains(t, out, "Log out")
}

func TestRender_Watchlists(t *testing.T) {
	out := render(t, Watchlists, Page{
		Title: Title("Watchlists"),
		User:  1,
		CSRF:  "tok123",
		Flash: "Watchlist with given name already exists.",
		Form:  map[string]string{"new_watchlist_name": "noir"},
		Data: WatchlistsData{Watchlists: []*model.WatchList{
			{ID: 4, Name: "sci fi"},
		}},
	})
	assert.Contains(t, out, "Watchlist with given name already exists.")
	assert.Contains(t, out, `value="noir"`)
	assert.Contains(t, out, `href="/watchlists/sci%20fi"`)
	assert.Contains(t, out, `action="/delete/watchlist/4"`)
	assert.Contains(t, out, `name="csrf_token" value="tok123"`)
	assert.Contains(t, out, "Log out")
}

func TestRender_WatchlistsEmpty(t *testing.T) {
	out := render(t, Watchlists, Page{User: 1, Data: WatchlistsData{}})
	assert.Contains(t, out, "You have no watchlists yet.")
}

func TestRender_WatchlistTable(t *testing.T) {
	var movies []*model.MovieEntry
	for i := 1; i <= 30; i++ {
		movies = append(movies, &model.MovieEntry{ID: uint64(i), Title: "Film " + strconv.Itoa(i), PremiereYear: 1990 + i})
	}
	tbl := table.New(movies, table.Column[*model.MovieEntry]{
		Key: "title", Header: "Title",
		Cell:    func(m *model.MovieEntry) string { return m.Title },
		Compare: func(a, b *model.MovieEntry) int { return table.Strings(a.Title, b.Title) },
	}).Configure(url.Values{"sort": {"title"}})

	out := render(t, Watchlist, Page{
		User: 1,
		Data: WatchlistData{Watchlist: &model.WatchList{ID: 2, Name: "to/see"}, Table: tbl.View()},
	})
	assert.Contains(t, out, `action="/watchlists/to%2Fsee"`)
	assert.Contains(t, out, `<a href="?sort=-title">Title</a> ▲`)
	assert.Contains(t, out, `action="/delete/movie/1"`)
	assert.Contains(t, out, "Page 1 of 2")
	assert.Contains(t, out, `href="?page=2&amp;sort=title"`)
}

func TestRender_WatchlistEmpty(t *testing.T) {
	tbl := table.New[*model.MovieEntry](nil)
	out := render(t, Watchlist, Page{
		User: 1,
		Data: WatchlistData{Watchlist: &model.WatchList{Name: "x"}, Table: tbl.Configure(nil).View()},
	})
	assert.Contains(t, out, "No movies in this watchlist yet.")
}

func TestRender_Error(t *testing.T) {
	out := render(t, Error, Page{Data: ErrorData{Code: 404, Message: "Not Found"}})
	assert.Contains(t, out, "<h1>404</h1>")
	assert.Contains(t, out, "Not Found")
}

func TestRender_EscapesUserInput(t *testing.T) {
	out := render(t, Login, Page{Form: map[string]string{"email": `"><script>`}})
	assert.NotContains(t, out, "<script>")
}

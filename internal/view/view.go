// Package view renders the embedded HTML templates through echo.Renderer.
// Every page template defines "content" and is executed inside the shared
// "base" layout.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/url"
	"path"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-watchlist/internal/model"
	"github.com/iliyamo/movie-watchlist/internal/table"
)

//go:embed templates/*.html
var files embed.FS

const layout = "templates/base.html"

// Page template names.
const (
	Home       = "home.html"
	Watchlists = "watchlists.html"
	Watchlist  = "watchlist.html"
	Login      = "login.html"
	Register   = "register.html"
	Error      = "error.html"
)

// Page is the data every template receives.
type Page struct {
	Title string
	User  uint64 // 0 when anonymous
	CSRF  string
	Flash string
	Form  map[string]string
	Data  any
}

// WatchlistsData backs the watchlists.html page.
type WatchlistsData struct {
	Watchlists []*model.WatchList
}

// WatchlistData backs the watchlist.html page.
type WatchlistData struct {
	Watchlist *model.WatchList
	Table     table.View
}

// ErrorData backs the error.html page.
type ErrorData struct {
	Code    int
	Message string
}

var funcs = template.FuncMap{
	"pathEscape": url.PathEscape,
}

// Renderer holds one parsed template set per page.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses the layout together with each page template.
func New() (*Renderer, error) {
	names, err := fs.Glob(files, "templates/*.html")
	if err != nil {
		return nil, err
	}
	r := &Renderer{pages: make(map[string]*template.Template, len(names))}
	for _, name := range names {
		if name == layout {
			continue
		}
		t, err := template.New(path.Base(name)).Funcs(funcs).ParseFS(files, layout, name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[path.Base(name)] = t
	}
	return r, nil
}

// Render implements echo.Renderer.
func (r *Renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("view: unknown template %q", name)
	}
	return t.ExecuteTemplate(w, "base", data)
}

// Names lists the parsed page templates.
func (r *Renderer) Names() []string {
	out := make([]string, 0, len(r.pages))
	for name := range r.pages {
		out = append(out, name)
	}
	return out
}

// Title joins page and site titles.
func Title(parts ...string) string {
	return strings.Join(append(parts, "Movie Watchlist"), " · ")
}

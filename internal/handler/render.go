package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/iliyamo/movie-watchlist/internal/middleware"
	"github.com/iliyamo/movie-watchlist/internal/view"
)

// newPage fills the fields every template needs from the request context.
func newPage(c echo.Context, title string) view.Page {
	csrf, _ := c.Get(echomw.DefaultCSRFConfig.ContextKey).(string)
	return view.Page{
		Title: title,
		User:  middleware.UserID(c),
		CSRF:  csrf,
		Form:  map[string]string{},
	}
}

// Home renders the public landing page.
func Home(c echo.Context) error {
	return c.Render(http.StatusOK, view.Home, newPage(c, view.Title()))
}

// ErrorHandler renders echo.HTTPErrors and unexpected errors with the error
// template. Internal errors are logged and shown without detail.
func ErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code, msg := http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				msg = m
			} else {
				msg = http.StatusText(code)
			}
		} else {
			log.Error().Err(err).Str("uri", c.Request().RequestURI).Msg("unhandled error")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			p := newPage(c, view.Title(http.StatusText(code)))
			p.Data = view.ErrorData{Code: code, Message: msg}
			err = c.Render(code, view.Error, p)
		}
		if err != nil {
			log.Error().Err(err).Msg("render error page")
		}
	}
}

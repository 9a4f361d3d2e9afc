// Package router assembles the echo instance: global middleware, the
// renderer and every route group.
package router

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/movie-watchlist/internal/config"
	"github.com/iliyamo/movie-watchlist/internal/handler"
	"github.com/iliyamo/movie-watchlist/internal/metrics"
	"github.com/iliyamo/movie-watchlist/internal/middleware"
	"github.com/iliyamo/movie-watchlist/internal/view"
)

// App carries the wired dependencies New needs.
type App struct {
	Cfg        config.Config
	Log        zerolog.Logger
	Redis      *redis.Client // nil disables rate limiting and the page cache
	RateLimit  config.RateLimitConfig
	Cache      config.CacheConfig
	Sessions   *middleware.Sessions
	Auth       *handler.AuthHandler
	Watchlists *handler.WatchlistHandler
}

// New returns a fully configured echo instance.
func New(app App) (*echo.Echo, error) {
	renderer, err := view.New()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.HTTPErrorHandler = handler.ErrorHandler(app.Log)

	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(app.Log))
	e.Use(echomw.Recover())
	if app.Cfg.CSRFEnabled {
		e.Use(csrf(app.Cfg.CookieSecure))
	}

	limit := middleware.NewTokenBucket(app.RateLimit, app.Redis, app.Log)
	RegisterRoutes(e, app.Sessions, middleware.NewRedisCache(app.Cache, app.Redis, app.Log))
	RegisterAuth(e, app.Auth, limit)
	RegisterWatchlists(e, app.Watchlists, app.Sessions, limit)
	return e, nil
}

// RegisterRoutes registers the public pages and operational endpoints.
// Only the homepage goes through the page cache, and only for anonymous
// visitors.
func RegisterRoutes(e *echo.Echo, s *middleware.Sessions, cache echo.MiddlewareFunc) {
	e.GET("/", handler.Home, s.Optional(), cache)
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", metrics.Handler())
}

// RegisterAuth registers the account pages. Login submissions are rate
// limited.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limit echo.MiddlewareFunc) {
	g := e.Group("/accounts")
	g.GET("/register", a.Register)
	g.POST("/register", a.Register)
	g.GET("/login", a.Login)
	g.POST("/login", a.Login, limit)
	g.POST("/logout", a.Logout)
}

// csrfSkipped lists routes that carry no forms.
var csrfSkipped = map[string]bool{"/healthz": true, "/metrics": true}

func csrf(secure bool) echo.MiddlewareFunc {
	return echomw.CSRFWithConfig(echomw.CSRFConfig{
		TokenLookup:    "form:csrf_token",
		CookieName:     "_csrf",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSecure:   secure,
		CookieSameSite: http.SameSiteLaxMode,
		Skipper: func(c echo.Context) bool {
			if csrfSkipped[c.Path()] {
				return true
			}
			// browsers never attach this header to cross-site form posts
			return strings.HasPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
		},
	})
}

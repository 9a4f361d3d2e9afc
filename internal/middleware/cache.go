package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/movie-watchlist/internal/config"
)

// cachedPage is what gets stored under a cache key.
type cachedPage struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// bodyRecorder tees the response body up to limit bytes.
type bodyRecorder struct {
	http.ResponseWriter
	status    int
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (r *bodyRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	if r.limit > 0 && r.buf.Len()+len(b) > r.limit {
		r.truncated = true
	} else {
		r.buf.Write(b)
	}
	return r.ResponseWriter.Write(b)
}

// NewRedisCache serves repeated requests for the wrapped routes from Redis.
// Only 200 responses to anonymous visitors are stored and Set-Cookie headers
// are never replayed. Signed-in callers (see Optional) always reach the
// handler.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client, log zerolog.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passThrough
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if UserID(c) != 0 || !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}
			key := cacheKey(cfg, c)

			if page, ok := loadPage(c.Request().Context(), rdb, key); ok {
				for k, vals := range page.Header {
					c.Response().Header()[k] = vals
				}
				c.Response().Header().Set("X-Cache", "HIT")
				return c.Blob(page.Status, page.Header.Get(echo.HeaderContentType), page.Body)
			}

			rec := &bodyRecorder{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
			c.Response().Writer = rec
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			if rec.status != http.StatusOK || rec.truncated {
				return nil
			}

			hdr := c.Response().Header().Clone()
			for _, h := range []string{echo.HeaderSetCookie, echo.HeaderContentLength, "X-Cache", echo.HeaderXRequestID} {
				hdr.Del(h)
			}
			payload, err := json.Marshal(cachedPage{Status: rec.status, Header: hdr, Body: rec.buf.Bytes()})
			if err != nil {
				return nil
			}
			if err := rdb.SetEx(context.WithoutCancel(c.Request().Context()), key, payload, ttl).Err(); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("cache: store failed")
			}
			return nil
		}
	}
}

func loadPage(ctx context.Context, rdb *redis.Client, key string) (cachedPage, bool) {
	bs, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		return cachedPage{}, false
	}
	var page cachedPage
	if err := json.Unmarshal(bs, &page); err != nil || page.Status == 0 {
		return cachedPage{}, false
	}
	return page, true
}

func cacheKey(cfg config.CacheConfig, c echo.Context) string {
	r := c.Request()
	var parts []string
	switch strings.ToLower(cfg.KeyStrategy) {
	case "route":
		parts = []string{"route", c.Path()}
	case "method_route":
		parts = []string{"method", r.Method, "route", c.Path()}
	case "method_route_query":
		parts = []string{"method", r.Method, "route", c.Path(), "q", r.URL.RawQuery}
	default:
		parts = []string{"route", c.Path(), "q", r.URL.RawQuery}
	}
	sum := sha1.Sum([]byte(strings.Join(parts, ":")))
	return fmt.Sprintf("%s:%x", cfg.Prefix, sum)
}

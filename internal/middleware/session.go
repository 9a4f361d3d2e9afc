package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-watchlist/internal/config"
	"github.com/iliyamo/movie-watchlist/internal/repository"
	"github.com/iliyamo/movie-watchlist/internal/utils"
)

const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"
	// UserIDKey is the echo.Context key holding the authenticated uint64 id.
	UserIDKey = "user_id"

	LoginPath = "/accounts/login"
)

// Sessions issues, refreshes and revokes cookie sessions. An access JWT
// lives in AccessCookie; the raw refresh token lives in RefreshCookie and
// only its hash is stored.
type Sessions struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
}

func NewSessions(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo) *Sessions {
	return &Sessions{Cfg: cfg, Users: u, Tokens: t}
}

// Issue mints a fresh token pair for uid, stores the refresh hash and sets
// both cookies.
func (s *Sessions) Issue(c echo.Context, uid uint64) error {
	access, err := utils.NewAccessToken(s.Cfg.JWTSecret, uid, s.Cfg.AccessTTLMin)
	if err != nil {
		return fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := utils.NewRefreshToken(s.Cfg.RefreshTTLDays)
	if err != nil {
		return fmt.Errorf("issue refresh token: %w", err)
	}
	if err := s.Tokens.StoreRefresh(c.Request().Context(), uid, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	c.SetCookie(s.cookie(AccessCookie, access.Token, access.Exp))
	c.SetCookie(s.cookie(RefreshCookie, refresh.Raw, refresh.Exp))
	c.Set(UserIDKey, uid)
	return nil
}

// Revoke revokes the refresh token the request carries, if any, and
// expires both cookies.
func (s *Sessions) Revoke(c echo.Context) error {
	if ck, err := c.Cookie(RefreshCookie); err == nil && ck.Value != "" {
		if err := s.Tokens.RevokeByHash(c.Request().Context(), utils.HashRefreshRaw(ck.Value)); err != nil {
			return fmt.Errorf("revoke refresh token: %w", err)
		}
	}
	for _, name := range []string{AccessCookie, RefreshCookie} {
		ck := s.cookie(name, "", time.Unix(0, 0))
		ck.MaxAge = -1
		c.SetCookie(ck)
	}
	return nil
}

// Authenticate resolves the caller. A valid bearer header or access cookie
// wins; otherwise a valid refresh cookie is rotated into a new pair. It
// returns 0 for anonymous callers and an error only on store failures.
func (s *Sessions) Authenticate(c echo.Context) (uint64, error) {
	for _, raw := range []string{bearer(c), cookieValue(c, AccessCookie)} {
		if raw == "" {
			continue
		}
		if uid, err := utils.ParseAccessToken(s.Cfg.JWTSecret, raw); err == nil {
			return uid, nil
		}
	}

	raw := cookieValue(c, RefreshCookie)
	if raw == "" {
		return 0, nil
	}
	ctx := c.Request().Context()
	hash := utils.HashRefreshRaw(raw)
	uid, err := s.Tokens.ValidateRefresh(ctx, hash)
	if errors.Is(err, repository.ErrTokenInvalid) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("validate refresh token: %w", err)
	}
	u, err := s.Users.GetByID(ctx, uid)
	if errors.Is(err, repository.ErrUserNotFound) || (err == nil && !u.IsActive) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load user: %w", err)
	}
	if err := s.Tokens.RevokeByHash(ctx, hash); err != nil {
		return 0, fmt.Errorf("revoke refresh token: %w", err)
	}
	if err := s.Issue(c, uid); err != nil {
		return 0, err
	}
	return uid, nil
}

// LoginRequired redirects anonymous callers to the login page, carrying the
// requested path in ?next=.
func (s *Sessions) LoginRequired() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			uid, err := s.Authenticate(c)
			if err != nil {
				return err
			}
			if uid == 0 {
				return c.Redirect(http.StatusSeeOther, LoginURL(c.Request().URL.RequestURI()))
			}
			c.Set(UserIDKey, uid)
			return next(c)
		}
	}
}

// Optional resolves the caller like LoginRequired but lets anonymous
// requests through.
func (s *Sessions) Optional() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			uid, err := s.Authenticate(c)
			if err != nil {
				return err
			}
			if uid != 0 {
				c.Set(UserIDKey, uid)
			}
			return next(c)
		}
	}
}

// UserID returns the id stored by LoginRequired, Optional or Issue, or 0.
func UserID(c echo.Context) uint64 {
	uid, _ := c.Get(UserIDKey).(uint64)
	return uid
}

func LoginURL(next string) string {
	if next == "" {
		return LoginPath
	}
	return LoginPath + "?next=" + url.QueryEscape(next)
}

// SafeNext accepts only same-site absolute paths, so ?next= cannot be used
// as an open redirect.
func SafeNext(next, fallback string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	return next
}

func (s *Sessions) cookie(name, value string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   s.Cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

func bearer(c echo.Context) string {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}

func cookieValue(c echo.Context, name string) string {
	ck, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return ck.Value
}

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-watchlist/internal/config"
	"github.com/iliyamo/movie-watchlist/internal/repository"
	"github.com/iliyamo/movie-watchlist/internal/testutil"
	"github.com/iliyamo/movie-watchlist/internal/utils"
)

const testSecret = "test-secret"

func newSessions(t *testing.T) (*Sessions, uint64) {
	t.Helper()
	db := testutil.NewDB(t)
	uid := testutil.InsertUser(t, db, "ann@example.com")
	cfg := config.Config{JWTSecret: testSecret, AccessTTLMin: 15, RefreshTTLDays: 1}
	return NewSessions(cfg, repository.NewUserRepo(db), repository.NewTokenRepo(db)), uid
}

// serve runs req through LoginRequired and reports the user id the inner
// handler saw.
func serve(s *Sessions, req *http.Request) (*httptest.ResponseRecorder, uint64) {
	e := echo.New()
	var seen uint64
	e.GET("/watchlists", func(c echo.Context) error {
		seen = UserID(c)
		return c.String(http.StatusOK, "ok")
	}, s.LoginRequired())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec, seen
}

func responseCookies(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := map[string]*http.Cookie{}
	for _, ck := range rec.Result().Cookies() {
		out[ck.Name] = ck
	}
	return out
}

func TestOptional(t *testing.T) {
	s, uid := newSessions(t)
	tok, err := utils.NewAccessToken(testSecret, uid, 5)
	require.NoError(t, err)

	e := echo.New()
	var seen uint64
	e.GET("/", func(c echo.Context) error {
		seen = UserID(c)
		return c.String(http.StatusOK, "home")
	}, s.Optional())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, seen)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: tok.Token})
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uid, seen)
}

func TestLoginRequired_Anonymous(t *testing.T) {
	s, _ := newSessions(t)

	rec, seen := serve(s, httptest.NewRequest(http.MethodGet, "/watchlists?sort=name", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/accounts/login?next=%2Fwatchlists%3Fsort%3Dname", rec.Header().Get(echo.HeaderLocation))
	assert.Zero(t, seen)
}

func TestLoginRequired_AccessCookieAndBearer(t *testing.T) {
	s, uid := newSessions(t)
	tok, err := utils.NewAccessToken(testSecret, uid, 5)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/watchlists", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: tok.Token})
	rec, seen := serve(s, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uid, seen)

	req = httptest.NewRequest(http.MethodGet, "/watchlists", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok.Token)
	rec, seen = serve(s, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uid, seen)
}

func TestLoginRequired_RejectsForeignSignature(t *testing.T) {
	s, uid := newSessions(t)
	tok, err := utils.NewAccessToken("other-secret", uid, 5)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/watchlists", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: tok.Token})
	rec, _ := serve(s, req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestLoginRequired_RotatesRefreshToken(t *testing.T) {
	s, uid := newSessions(t)
	db := s.Tokens.DB

	old, err := utils.NewRefreshToken(1)
	require.NoError(t, err)
	require.NoError(t, s.Tokens.StoreRefresh(context.Background(), uid, utils.HashRefreshRaw(old.Raw), old.Exp))

	req := httptest.NewRequest(http.MethodGet, "/watchlists", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: "expired.or.garbage"})
	req.AddCookie(&http.Cookie{Name: RefreshCookie, Value: old.Raw})
	rec, seen := serve(s, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uid, seen)

	cks := responseCookies(rec)
	require.Contains(t, cks, AccessCookie)
	require.Contains(t, cks, RefreshCookie)
	assert.True(t, cks[AccessCookie].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cks[AccessCookie].SameSite)
	assert.NotEqual(t, old.Raw, cks[RefreshCookie].Value)

	got, err := utils.ParseAccessToken(testSecret, cks[AccessCookie].Value)
	require.NoError(t, err)
	assert.Equal(t, uid, got)

	assert.Equal(t, 2, testutil.CountRows(t, db, "refresh_tokens", ""))
	assert.Equal(t, 1, testutil.CountRows(t, db, "refresh_tokens", "revoked_at IS NULL"))

	// the rotated-out token is no longer accepted
	req = httptest.NewRequest(http.MethodGet, "/watchlists", nil)
	req.AddCookie(&http.Cookie{Name: RefreshCookie, Value: old.Raw})
	rec, _ = serve(s, req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestSessions_IssueAndRevoke(t *testing.T) {
	s, uid := newSessions(t)
	e := echo.New()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/accounts/login", nil), rec)
	require.NoError(t, s.Issue(c, uid))
	assert.Equal(t, uid, UserID(c))
	refresh := responseCookies(rec)[RefreshCookie]
	require.NotNil(t, refresh)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), refresh.Expires, time.Minute)

	req := httptest.NewRequest(http.MethodPost, "/accounts/logout", nil)
	req.AddCookie(&http.Cookie{Name: RefreshCookie, Value: refresh.Value})
	rec = httptest.NewRecorder()
	require.NoError(t, s.Revoke(e.NewContext(req, rec)))

	for _, name := range []string{AccessCookie, RefreshCookie} {
		ck := responseCookies(rec)[name]
		require.NotNil(t, ck, name)
		assert.Empty(t, ck.Value)
		assert.Equal(t, -1, ck.MaxAge)
	}
	assert.Equal(t, 0, testutil.CountRows(t, s.Tokens.DB, "refresh_tokens", "revoked_at IS NULL"))
}

func TestSafeNext(t *testing.T) {
	cases := map[string]string{
		"/watchlists/noir":   "/watchlists/noir",
		"":                   "/watchlists",
		"https://evil.test/": "/watchlists",
		"//evil.test/path":   "/watchlists",
		"/\\evil.test":       "/watchlists",
		"watchlists":         "/watchlists",
	}
	for in, want := range cases {
		assert.Equal(t, want, SafeNext(in, "/watchlists"), in)
	}
}

func TestLoginURL(t *testing.T) {
	assert.Equal(t, "/accounts/login", LoginURL(""))
	assert.Equal(t, "/accounts/login?next=%2Fwatchlists", LoginURL("/watchlists"))
}

func TestRedisMiddleware_PassThroughWithoutClient(t *testing.T) {
	e := echo.New()
	h := func(c echo.Context) error { return c.String(http.StatusOK, "home") }
	e.GET("/", h,
		NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil, zerolog.Nop()),
		NewRedisCache(config.CacheConfig{Enabled: true}, nil, zerolog.Nop()),
	)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "home", rec.Body.String())
	assert.Empty(t, rec.Header().Get("X-Cache"))
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}

func TestRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/watchlists/noir", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/watchlists/:name")

	cfg := config.RateLimitConfig{Prefix: "wl:rl"}
	assert.Equal(t, "wl:rl:ip:10.0.0.1:user:anon:route:POST /watchlists/:name", rateKey(cfg, c))

	c.Set(UserIDKey, uint64(42))
	cfg.KeyStrategy = "user"
	assert.Equal(t, "wl:rl:user:42", rateKey(cfg, c))
	cfg.KeyStrategy = "ip"
	assert.Equal(t, "wl:rl:ip:10.0.0.1", rateKey(cfg, c))
}

func TestCacheKey(t *testing.T) {
	e := echo.New()
	key := func(target string) string {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
		c.SetPath("/")
		return cacheKey(config.CacheConfig{Prefix: "wl:cache"}, c)
	}
	assert.Equal(t, key("/"), key("/"))
	assert.NotEqual(t, key("/"), key("/?a=1"))
	assert.Regexp(t, `^wl:cache:[0-9a-f]{40}$`, key("/"))
}

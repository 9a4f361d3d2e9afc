package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/movie-watchlist/internal/middleware"
	"github.com/iliyamo/movie-watchlist/internal/repository"
	"github.com/iliyamo/movie-watchlist/internal/utils"
	"github.com/iliyamo/movie-watchlist/internal/validate"
	"github.com/iliyamo/movie-watchlist/internal/view"
)

const afterLogin = "/watchlists"

// AuthHandler serves the register, login and logout pages.
type AuthHandler struct {
	Users      *repository.UserRepo
	Sessions   *middleware.Sessions
	BcryptCost int
	Log        zerolog.Logger
}

func NewAuthHandler(u *repository.UserRepo, s *middleware.Sessions, cost int, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{Users: u, Sessions: s, BcryptCost: cost, Log: log}
}

type registerForm struct {
	Email    string `form:"email" validate:"required,email,max=255"`
	Password string `form:"password" validate:"required,min=8,max=72"`
}

type loginForm struct {
	Email    string `form:"email" validate:"required"`
	Password string `form:"password" validate:"required"`
	Next     string `form:"next"`
}

// Register shows the sign-up form and creates accounts on POST. A new
// account is logged in straight away.
func (h *AuthHandler) Register(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		return h.render(c, http.StatusOK, view.Register, "Register", "", nil)
	}

	var f registerForm
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid form submission.")
	}
	f.Email = repository.NormalizeEmail(f.Email)
	form := map[string]string{"email": f.Email}
	if errs := validate.Map(f); errs != nil {
		return h.render(c, http.StatusBadRequest, view.Register, "Register", validate.First(errs, "email", "password"), form)
	}

	uid, err := h.Users.Create(c.Request().Context(), f.Email, f.Password, h.BcryptCost)
	if errors.Is(err, repository.ErrEmailExists) {
		return h.render(c, http.StatusConflict, view.Register, "Register", "An account with this email already exists.", form)
	}
	if err != nil {
		return err
	}
	if err := h.Sessions.Issue(c, uid); err != nil {
		return err
	}
	h.Log.Info().Uint64("user_id", uid).Msg("user registered")
	return c.Redirect(http.StatusSeeOther, afterLogin)
}

// Login shows the sign-in form and starts a session on POST, then follows
// ?next= when it is a same-site path.
func (h *AuthHandler) Login(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		return h.render(c, http.StatusOK, view.Login, "Log in", "", map[string]string{"next": c.QueryParam("next")})
	}

	var f loginForm
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid form submission.")
	}
	f.Email = repository.NormalizeEmail(f.Email)
	form := map[string]string{"email": f.Email, "next": f.Next}
	if errs := validate.Map(f); errs != nil {
		return h.render(c, http.StatusBadRequest, view.Login, "Log in", validate.First(errs, "email", "password"), form)
	}

	u, err := h.Users.GetByEmail(c.Request().Context(), f.Email)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return err
	}
	if err != nil || !u.IsActive || !utils.VerifyPassword(u.PasswordHash, f.Password) {
		return h.render(c, http.StatusUnauthorized, view.Login, "Log in", "Invalid email or password.", form)
	}
	if err := h.Sessions.Issue(c, u.ID); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, middleware.SafeNext(strings.TrimSpace(f.Next), afterLogin))
}

// Logout revokes the current refresh token and clears the session cookies.
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.Sessions.Revoke(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *AuthHandler) render(c echo.Context, code int, name, title, flash string, form map[string]string) error {
	p := newPage(c, view.Title(title))
	p.Flash = flash
	for k, v := range form {
		p.Form[k] = v
	}
	return c.Render(code, name, p)
}

// Package repository holds data access logic separated from HTTP handlers.
// Sentinel errors defined here let handlers distinguish the outcomes they
// render from genuine store failures, which are wrapped and propagated.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
)

var (
	// ErrEmailExists is returned when registering an email that is taken.
	ErrEmailExists = errors.New("email already exists")
	// ErrUserNotFound is returned when no user matches a lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrWatchlistExists is returned when the author already has a
	// watchlist with the requested name.
	ErrWatchlistExists = errors.New("watchlist with given name already exists")
	// ErrWatchlistNotFound is returned when a watchlist does not exist or
	// belongs to someone else.
	ErrWatchlistNotFound = errors.New("watchlist not found")
	// ErrMovieNotFound is returned when a movie entry does not exist or its
	// watchlist belongs to someone else.
	ErrMovieNotFound = errors.New("movie not found")
	// ErrTokenInvalid is returned for unknown, revoked or expired refresh
	// tokens.
	ErrTokenInvalid = errors.New("refresh token invalid")
)

// isDuplicate reports whether err is a unique-key violation from either
// supported driver.
func isDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/movie-watchlist/internal/model"
)

// MovieRepo encapsulates queries against the `movies` table.
type MovieRepo struct {
	db *sql.DB
}

func NewMovieRepo(db *sql.DB) *MovieRepo {
	return &MovieRepo{db: db}
}

// Create inserts a movie entry and populates ID and CreatedAt. Callers must
// have resolved the parent watchlist through an author-scoped lookup.
func (r *MovieRepo) Create(ctx context.Context, m *model.MovieEntry) error {
	const qInsert = `INSERT INTO movies (watchlist_id, title, premiere_year, score, genres)
	                 VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, qInsert, m.WatchListID, m.Title, m.PremiereYear, m.Score, m.Genres)
	if err != nil {
		return fmt.Errorf("insert movie: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return r.db.QueryRowContext(ctx, "SELECT created_at FROM movies WHERE id = ?", m.ID).Scan(&m.CreatedAt)
}

// ListByWatchlist returns the entries of one watchlist in insertion order.
func (r *MovieRepo) ListByWatchlist(ctx context.Context, watchlistID uint64) ([]*model.MovieEntry, error) {
	const q = `SELECT id, watchlist_id, title, premiere_year, score, genres, created_at
	           FROM movies WHERE watchlist_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, watchlistID)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	defer rows.Close()

	var out []*model.MovieEntry
	for rows.Next() {
		m := new(model.MovieEntry)
		if err := rows.Scan(&m.ID, &m.WatchListID, &m.Title, &m.PremiereYear, &m.Score, &m.Genres, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetForAuthor fetches a movie entry only if its watchlist belongs to
// authorID, returning the parent watchlist alongside it.
func (r *MovieRepo) GetForAuthor(ctx context.Context, id, authorID uint64) (*model.MovieEntry, *model.WatchList, error) {
	const q = `SELECT m.id, m.watchlist_id, m.title, m.premiere_year, m.score, m.genres, m.created_at,
	                  w.id, w.author_id, w.name, w.created_at
	           FROM movies m JOIN watchlists w ON w.id = m.watchlist_id
	           WHERE m.id = ? AND w.author_id = ?`
	var (
		m model.MovieEntry
		w model.WatchList
	)
	err := r.db.QueryRowContext(ctx, q, id, authorID).Scan(
		&m.ID, &m.WatchListID, &m.Title, &m.PremiereYear, &m.Score, &m.Genres, &m.CreatedAt,
		&w.ID, &w.AuthorID, &w.Name, &w.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrMovieNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	return &m, &w, nil
}

// Delete removes a single entry by id.
func (r *MovieRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM movies WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMovieNotFound
	}
	return nil
}

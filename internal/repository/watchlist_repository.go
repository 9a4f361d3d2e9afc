package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/movie-watchlist/internal/model"
)

// WatchlistRepo encapsulates all queries against the `watchlists` table.
// Every lookup is scoped to an author so one user can never read or delete
// another user's lists.
type WatchlistRepo struct {
	db *sql.DB
}

func NewWatchlistRepo(db *sql.DB) *WatchlistRepo {
	return &WatchlistRepo{db: db}
}

const watchlistCols = "id, author_id, name, created_at"

func scanWatchlist(row interface{ Scan(...any) error }) (*model.WatchList, error) {
	var w model.WatchList
	if err := row.Scan(&w.ID, &w.AuthorID, &w.Name, &w.CreatedAt); err != nil {
		return nil, err
	}
	return &w, nil
}

// ExistsByName reports whether authorID already owns a watchlist called name.
func (r *WatchlistRepo) ExistsByName(ctx context.Context, authorID uint64, name string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM watchlists WHERE author_id = ? AND name = ?", authorID, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count watchlists: %w", err)
	}
	return n > 0, nil
}

// Create inserts a new, empty watchlist and populates ID and CreatedAt. A
// unique-key violation on (author_id, name) becomes ErrWatchlistExists.
func (r *WatchlistRepo) Create(ctx context.Context, w *model.WatchList) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO watchlists (author_id, name) VALUES (?, ?)", w.AuthorID, w.Name)
	if err != nil {
		if isDuplicate(err) {
			return ErrWatchlistExists
		}
		return fmt.Errorf("insert watchlist: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	w.ID = uint64(id)

	const qSelect = "SELECT created_at FROM watchlists WHERE id = ?"
	return r.db.QueryRowContext(ctx, qSelect, w.ID).Scan(&w.CreatedAt)
}

// GetByName fetches the author's watchlist called name.
func (r *WatchlistRepo) GetByName(ctx context.Context, authorID uint64, name string) (*model.WatchList, error) {
	w, err := scanWatchlist(r.db.QueryRowContext(ctx,
		"SELECT "+watchlistCols+" FROM watchlists WHERE author_id = ? AND name = ?", authorID, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWatchlistNotFound
	}
	return w, err
}

// GetByIDAndAuthor fetches a watchlist by id but only if authorID owns it.
func (r *WatchlistRepo) GetByIDAndAuthor(ctx context.Context, id, authorID uint64) (*model.WatchList, error) {
	w, err := scanWatchlist(r.db.QueryRowContext(ctx,
		"SELECT "+watchlistCols+" FROM watchlists WHERE id = ? AND author_id = ?", id, authorID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWatchlistNotFound
	}
	return w, err
}

// ListByAuthor returns the author's watchlists ordered by name.
func (r *WatchlistRepo) ListByAuthor(ctx context.Context, authorID uint64) ([]*model.WatchList, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+watchlistCols+" FROM watchlists WHERE author_id = ? ORDER BY name, id", authorID)
	if err != nil {
		return nil, fmt.Errorf("list watchlists: %w", err)
	}
	defer rows.Close()

	var out []*model.WatchList
	for rows.Next() {
		w, err := scanWatchlist(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// DeleteByIDAndAuthor removes a watchlist and all of its movie entries
// provided authorID owns it. Anything else yields ErrWatchlistNotFound. The
// movies are removed explicitly inside the transaction so the cascade holds
// even on engines where foreign keys are not enforced.
func (r *WatchlistRepo) DeleteByIDAndAuthor(ctx context.Context, id, authorID uint64) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	var owner uint64
	if err = tx.QueryRowContext(ctx, "SELECT author_id FROM watchlists WHERE id = ?", id).Scan(&owner); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrWatchlistNotFound
		}
		return err
	}
	if owner != authorID {
		return ErrWatchlistNotFound
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM movies WHERE watchlist_id = ?", id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM watchlists WHERE id = ?", id); err != nil {
		return err
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"

	"github.com/lmarsden/film-catalog/internal/model"
	"github.com/lmarsden/film-catalog/internal/search"
)

// GenreRepo provides read access to the `genre` table. Genres are
// seeded out of band; the API only references them.
type GenreRepo struct{ DB *sql.DB }

func NewGenreRepo(db *sql.DB) *GenreRepo { return &GenreRepo{DB: db} }

// ListUsed returns the genres referenced by at least one film.
func (r *GenreRepo) ListUsed(ctx context.Context) ([]model.Genre, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT DISTINCT genre.id, genre.name FROM genre INNER JOIN film ON genre.id = film.genre_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Genre{}
	for rows.Next() {
		var g model.Genre
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Exists reports whether a single genre id is present.
func (r *GenreRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM genre WHERE id=?", id).Scan(&n)
	return n > 0, err
}

// ValidateCriteria rejects search criteria referencing unknown genre
// ids. Every id in the set must exist or the whole request is invalid.
func (r *GenreRepo) ValidateCriteria(ctx context.Context, c search.Criteria) error {
	if len(c.GenreIDs) == 0 {
		return nil
	}
	distinct := map[uint64]struct{}{}
	for _, id := range c.GenreIDs {
		distinct[id] = struct{}{}
	}
	query := "SELECT COUNT(DISTINCT id) FROM genre WHERE id IN (" + questionMarks(len(distinct)) + ")"
	args := make([]any, 0, len(distinct))
	for id := range distinct {
		args = append(args, id)
	}
	var n int
	if err := r.DB.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return err
	}
	if n != len(distinct) {
		return ErrUnknownGenre
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/lmarsden/film-catalog/internal/model"
)

// FilmRepo provides access to the `film` table and the film_ratings
// derived view used by search and detail queries.
type FilmRepo struct{ DB *sql.DB }

func NewFilmRepo(db *sql.DB) *FilmRepo { return &FilmRepo{DB: db} }

// GetRow fetches the raw film row (no joins, no aggregates); used by
// the guard checks before any mutation. Returns sql.ErrNoRows when the
// film does not exist.
func (r *FilmRepo) GetRow(ctx context.Context, id uint64) (model.Film, error) {
	var f model.Film
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, title, description, genre_id, director_id, release_date, age_rating, runtime, image_filename FROM film WHERE id=? LIMIT 1",
		id).Scan(&f.ID, &f.Title, &f.Description, &f.GenreID, &f.DirectorID,
		&f.ReleaseDate, &f.AgeRating, &f.Runtime, &f.ImageFilename)
	return f, err
}

// TitleExists reports whether any film already uses the title.
func (r *FilmRepo) TitleExists(ctx context.Context, title string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM film WHERE title=?", title).Scan(&n)
	return n > 0, err
}

// Insert stores a new film and returns its id. A duplicate title that
// slipped past the pre-check yields ErrTitleExists.
func (r *FilmRepo) Insert(ctx context.Context, f model.Film) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO film (title, description, genre_id, director_id, release_date, age_rating, runtime) VALUES (?,?,?,?,?,?,?)",
		f.Title, f.Description, f.GenreID, f.DirectorID, f.ReleaseDate, f.AgeRating, f.Runtime)
	if err != nil {
		if strings.Contains(err.Error(), mysqlDuplicateKey) {
			return 0, ErrTitleExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Field updates are deliberately independent statements: the guard has
// already admitted the edit as a whole, and each present field is then
// applied on its own, matching the patch semantics of the API.

func (r *FilmRepo) UpdateTitle(ctx context.Context, id uint64, title string) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE film SET title=? WHERE id=?", title, id)
	if err != nil && strings.Contains(err.Error(), mysqlDuplicateKey) {
		return ErrTitleExists
	}
	return err
}

func (r *FilmRepo) UpdateDescription(ctx context.Context, id uint64, description string) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE film SET description=? WHERE id=?", description, id)
	return err
}

func (r *FilmRepo) UpdateReleaseDate(ctx context.Context, id uint64, releaseDate time.Time) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE film SET release_date=? WHERE id=?", releaseDate, id)
	return err
}

func (r *FilmRepo) UpdateRuntime(ctx context.Context, id uint64, runtime int) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE film SET runtime=? WHERE id=?", runtime, id)
	return err
}

func (r *FilmRepo) UpdateAgeRating(ctx context.Context, id uint64, ageRating string) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE film SET age_rating=? WHERE id=?", ageRating, id)
	return err
}

func (r *FilmRepo) UpdateGenre(ctx context.Context, id, genreID uint64) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE film SET genre_id=? WHERE id=?", genreID, id)
	return err
}

// SetImage records the hero image object key.
func (r *FilmRepo) SetImage(ctx context.Context, id uint64, filename string) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE film SET image_filename=? WHERE id=?", filename, id)
	return err
}

// ClearImage removes the hero image reference.
func (r *FilmRepo) ClearImage(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE film SET image_filename=NULL WHERE id=?", id)
	return err
}

// DeleteCascade removes a film and its reviews in one transaction,
// dependents first so no orphaned foreign keys can survive a partial
// failure. Blob cleanup is the caller's concern.
func (r *FilmRepo) DeleteCascade(ctx context.Context, id uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM film_review WHERE film_id=?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM film WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}

func questionMarks(n int) string {
	if n == 1 {
		return "?"
	}
	return strings.Repeat("?,", n-1) + "?"
}

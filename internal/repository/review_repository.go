package repository

import (
	"context"
	"database/sql"

	"github.com/lmarsden/film-catalog/internal/model"
)

// ReviewRepo provides access to the `film_review` table. Reviews are
// append-only; the only delete path is the film cascade.
type ReviewRepo struct{ DB *sql.DB }

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{DB: db} }

const reviewEntryQuery = `SELECT film_review.user_id, film_review.rating, film_review.review,
	user.first_name, user.last_name, film_review.timestamp
	FROM film_review
	LEFT OUTER JOIN user ON film_review.user_id = user.id
	WHERE film_review.film_id = ?
	ORDER BY film_review.timestamp DESC, film_review.id DESC`

// ListByFilm returns a film's reviews, newest first, insertion order as
// tie-break within one second.
func (r *ReviewRepo) ListByFilm(ctx context.Context, filmID uint64) ([]ReviewEntry, error) {
	rows, err := r.DB.QueryContext(ctx, reviewEntryQuery, filmID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ReviewEntry{}
	for rows.Next() {
		var (
			e  ReviewEntry
			ts timeScanner
		)
		if err := rows.Scan(&e.ReviewerID, &e.Rating, &e.Review,
			&e.ReviewerFirstName, &e.ReviewerLastName, &ts); err != nil {
			return nil, err
		}
		e.Timestamp = ts.String()
		out = append(out, e)
	}
	return out, rows.Err()
}

// ReviewEntry is the reviewer-name-joined listing row.
type ReviewEntry struct {
	ReviewerID        uint64 `json:"reviewerId"`
	Rating            int    `json:"rating"`
	Review            string `json:"review"`
	ReviewerFirstName string `json:"reviewerFirstName"`
	ReviewerLastName  string `json:"reviewerLastName"`
	Timestamp         string `json:"timestamp"`
}

// CountByFilm returns how many reviews a film has.
func (r *ReviewRepo) CountByFilm(ctx context.Context, filmID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM film_review WHERE film_id=?", filmID).Scan(&n)
	return n, err
}

// Insert stores a review stamped with its acceptance time. There is
// deliberately no uniqueness rule on (film, reviewer): a user may
// review the same film more than once.
func (r *ReviewRepo) Insert(ctx context.Context, rev model.Review) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO film_review (film_id, user_id, rating, review, timestamp) VALUES (?,?,?,?,?)",
		rev.FilmID, rev.ReviewerID, rev.Rating, rev.Review, rev.Timestamp)
	return err
}

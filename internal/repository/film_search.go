package repository

import (
	"context"

	"github.com/lmarsden/film-catalog/internal/model"
	"github.com/lmarsden/film-catalog/internal/search"
)

// filmRatingsView is the derived table every read query runs against:
// each film fanned out to one row per review (carrying that review's
// author as reviewer_id) and joined to its director's name, with the
// review aggregate attached per film. Search and detail share this
// text, so the rating a film shows in a list can never differ from its
// detail page. The outer queries re-group by film_id to collapse the
// fan-out after predicates have been applied.
const filmRatingsView = `(SELECT
		film.id AS film_id,
		film.title AS title,
		film.description AS description,
		film.genre_id AS genre_id,
		film.director_id AS director_id,
		film_review.user_id AS reviewer_id,
		user.first_name AS director_first_name,
		user.last_name AS director_last_name,
		film.release_date AS release_date,
		film.age_rating AS age_rating,
		film.runtime AS runtime,
		(SELECT COALESCE(AVG(r.rating), 0) FROM film_review r WHERE r.film_id = film.id) AS rating,
		(SELECT COUNT(*) FROM film_review r WHERE r.film_id = film.id) AS review_count
	FROM film
	LEFT OUTER JOIN user ON film.director_id = user.id
	LEFT OUTER JOIN film_review ON film.id = film_review.film_id) AS film_ratings`

const summaryColumns = `film_ratings.film_id, film_ratings.title, film_ratings.genre_id,
	film_ratings.director_id, film_ratings.director_first_name, film_ratings.director_last_name,
	film_ratings.release_date, film_ratings.age_rating, film_ratings.rating`

// Search runs the compiled criteria twice: once unpaged to count every
// matching film, once with sort and pagination for the page itself.
// Both executions share the same Filter value, so the reported total
// always agrees with the page contents.
func (r *FilmRepo) Search(ctx context.Context, c search.Criteria) ([]model.FilmSummary, int, error) {
	filter := c.Filter()

	var total int
	countSQL := "SELECT COUNT(DISTINCT film_ratings.film_id) FROM " + filmRatingsView + filter.Clause()
	if err := r.DB.QueryRowContext(ctx, countSQL, filter.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}

	pageClause, pageArgs := c.Page()
	pageSQL := "SELECT " + summaryColumns + " FROM " + filmRatingsView +
		filter.Clause() +
		" GROUP BY film_ratings.film_id" +
		c.Sort.OrderBy() +
		pageClause
	args := append(append([]any{}, filter.Args()...), pageArgs...)

	rows, err := r.DB.QueryContext(ctx, pageSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	films := []model.FilmSummary{}
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, 0, err
		}
		films = append(films, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return films, total, nil
}

// GetDetail returns the single-film view: the same film_ratings row as
// the search, extended with description, runtime and review count.
// Returns sql.ErrNoRows when the film does not exist.
func (r *FilmRepo) GetDetail(ctx context.Context, id uint64) (model.FilmDetail, error) {
	query := "SELECT " + summaryColumns + `, film_ratings.description, film_ratings.runtime,
		film_ratings.review_count FROM ` + filmRatingsView +
		" WHERE film_ratings.film_id = ? GROUP BY film_ratings.film_id"

	var (
		d       model.FilmDetail
		release timeScanner
		avg     float64
	)
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&d.ID, &d.Title, &d.GenreID, &d.DirectorID,
		&d.DirectorFirstName, &d.DirectorLastName,
		&release, &d.AgeRating, &avg,
		&d.Description, &d.Runtime, &d.NumReviews)
	if err != nil {
		return model.FilmDetail{}, err
	}
	d.ReleaseDate = release.String()
	d.Rating = model.RoundRating(avg)
	return d, nil
}

type summaryScanner interface {
	Scan(dest ...any) error
}

func scanSummary(row summaryScanner) (model.FilmSummary, error) {
	var (
		s       model.FilmSummary
		release timeScanner
		avg     float64
	)
	err := row.Scan(&s.ID, &s.Title, &s.GenreID, &s.DirectorID,
		&s.DirectorFirstName, &s.DirectorLastName,
		&release, &s.AgeRating, &avg)
	if err != nil {
		return model.FilmSummary{}, err
	}
	s.ReleaseDate = release.String()
	s.Rating = model.RoundRating(avg)
	return s, nil
}

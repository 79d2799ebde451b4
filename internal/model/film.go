package model

import (
	"math"
	"time"
)

// DefaultAgeRating is stored when a film is published without an
// explicit classification.
const DefaultAgeRating = "TBC"

// Film represents a row in the `film` table.
//
// Fields:
//  ID            – primary key identifier.
//  Title         – unique across all films.
//  Description   – synopsis text.
//  GenreID       – references genre.id; must exist at insert/update time.
//  DirectorID    – references user.id; the only principal allowed to
//                  mutate or delete the film.
//  ReleaseDate   – must not be in the past at creation time.
//  AgeRating     – classification string, DefaultAgeRating when unset.
//  Runtime       – minutes, null when unknown.
//  ImageFilename – object key of the hero image (null when unset).
type Film struct {
	ID            uint64
	Title         string
	Description   string
	GenreID       uint64
	DirectorID    uint64
	ReleaseDate   time.Time
	AgeRating     string
	Runtime       *int
	ImageFilename *string
}

// FilmSummary is one row of the film_ratings view as returned by the
// search query: the film joined to its director's name with the review
// aggregate folded in.
type FilmSummary struct {
	ID                uint64  `json:"filmId"`
	Title             string  `json:"title"`
	GenreID           uint64  `json:"genreId"`
	DirectorID        uint64  `json:"directorId"`
	DirectorFirstName string  `json:"directorFirstName"`
	DirectorLastName  string  `json:"directorLastName"`
	ReleaseDate       string  `json:"releaseDate"`
	AgeRating         string  `json:"ageRating"`
	Rating            float64 `json:"rating"`
}

// FilmDetail extends FilmSummary with the fields only exposed on the
// single-film endpoint.
type FilmDetail struct {
	FilmSummary
	Description string `json:"description"`
	Runtime     *int   `json:"runtime"`
	NumReviews  int    `json:"numReviews"`
}

// RoundRating normalizes a raw review average to the exposed rating
// value: two decimal places, zero when the film has no reviews. The
// same function backs both the list and detail views so the two can
// never disagree. Trailing zeros disappear when the float is encoded
// (4.00 -> 4, 4.50 -> 4.5).
func RoundRating(avg float64) float64 {
	return math.Round(avg*100) / 100
}

// Package guard evaluates the ownership, timing and state preconditions
// for film and review mutation. The functions are pure: callers load the
// rows, the guard decides. Terminal outcomes are nil (allowed) or one of
// the sentinel errors, which the handler layer maps to HTTP statuses.
package guard

import (
	"errors"
	"time"

	"github.com/lmarsden/film-catalog/internal/model"
)

var (
	// ErrNotFound means the target entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden means the token resolved to a user who is not
	// permitted to perform the operation, or a timing/state rule blocks
	// it.
	ErrForbidden = errors.New("forbidden")
)

// CanEditFilm reports whether userID may change any field of film. A
// film is only editable by its director, and only while it is still
// unreleased and unreviewed.
func CanEditFilm(userID uint64, film *model.Film, reviewCount int, now time.Time) error {
	if film == nil {
		return ErrNotFound
	}
	if film.DirectorID != userID {
		return ErrForbidden
	}
	if film.ReleaseDate.Before(now) {
		return ErrForbidden
	}
	if reviewCount > 0 {
		return ErrForbidden
	}
	return nil
}

// CanSetReleaseDate guards the releaseDate field update specifically:
// even when the film itself is editable, it may not be moved into the
// past. Checked against "now" at execution time.
func CanSetReleaseDate(newDate, now time.Time) error {
	if newDate.Before(now) {
		return ErrForbidden
	}
	return nil
}

// CanDeleteFilm reports whether userID may delete film. Deletion is
// restricted to the director but, unlike editing, stays possible after
// release and after reviews exist.
func CanDeleteFilm(userID uint64, film *model.Film) error {
	if film == nil {
		return ErrNotFound
	}
	if film.DirectorID != userID {
		return ErrForbidden
	}
	return nil
}

// CanReviewFilm reports whether userID may post a review on film:
// directors may not review their own work, and nothing can be reviewed
// before its release date has arrived.
func CanReviewFilm(userID uint64, film *model.Film, now time.Time) error {
	if film == nil {
		return ErrNotFound
	}
	if film.DirectorID == userID {
		return ErrForbidden
	}
	if film.ReleaseDate.After(now) {
		return ErrForbidden
	}
	return nil
}

// CanPublishFilm guards film creation: the title must be unused and the
// release date must not already have passed.
func CanPublishFilm(titleTaken bool, releaseDate, now time.Time) error {
	if titleTaken {
		return ErrForbidden
	}
	if releaseDate.Before(now) {
		return ErrForbidden
	}
	return nil
}

// CanManageImage reports whether userID may attach, replace or delete
// the image belonging to ownerID (the user themself, or the film's
// director). User and film images follow the same rule.
func CanManageImage(userID, ownerID uint64) error {
	if userID != ownerID {
		return ErrForbidden
	}
	return nil
}

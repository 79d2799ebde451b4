package repository

import "errors"

// Sentinel errors shared by the repositories. Not-found conditions use
// sql.ErrNoRows directly, as the handlers already switch on it.
var (
	// ErrEmailExists is returned when registering or updating a user
	// with an email that is already taken.
	ErrEmailExists = errors.New("email already exists")
	// ErrTitleExists is returned when inserting a film whose title is
	// already in use.
	ErrTitleExists = errors.New("film title already exists")
	// ErrUnknownGenre is returned when a referenced genre id does not
	// exist. It maps to a validation failure, never to Forbidden.
	ErrUnknownGenre = errors.New("unknown genre id")
)

// mysqlDuplicateKey is the MySQL error number raised on unique
// constraint violations (email, film title).
const mysqlDuplicateKey = "1062"

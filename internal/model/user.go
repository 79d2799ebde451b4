package model

import "time"

// User represents a row in the `user` table. Any registered user may
// publish films (becoming their director) and review films directed
// by others; there is no separate role column.
//
// Fields:
//  ID            – primary key identifier.
//  Email         – unique email address, stored lower-cased.
//  FirstName     – given name.
//  LastName      – family name.
//  PasswordHash  – bcrypt hashed password.
//  ImageFilename – object key of the profile image (null when unset).
//  CreatedAt     – timestamp of creation.
type User struct {
	ID            uint64
	Email         string
	FirstName     string
	LastName      string
	PasswordHash  string
	ImageFilename *string
	CreatedAt     time.Time
}

// RefreshToken models an entry in the `refresh_tokens` table. The plain
// token is never stored; only its SHA-256 hash.
type RefreshToken struct {
	ID        uint64
	UserID    uint64
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

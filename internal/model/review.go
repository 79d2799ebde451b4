package model

import "time"

// TimestampLayout is the format reviews are stamped with: second
// precision, space-separated date and time, no zone suffix.
const TimestampLayout = "2006-01-02 15:04:05"

// Review represents a row in the `film_review` table. Reviews are
// immutable once created; they are only removed by the cascade when
// their film is deleted.
type Review struct {
	ID         uint64
	FilmID     uint64
	ReviewerID uint64
	Rating     int
	Review     string
	Timestamp  time.Time
}
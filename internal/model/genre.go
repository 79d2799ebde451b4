package model

// Genre represents a row in the `genre` table. Genres are seeded
// out of band; films may only reference existing ones.
type Genre struct {
	ID   uint64 `json:"genreId"`
	Name string `json:"name"`
}

package search

// SortKey enumerates the recognized orderings for a film search. The
// zero value is the release-date-ascending default, which is also what
// an absent or unrecognized sortBy parameter resolves to.
type SortKey int

const (
	SortReleasedAsc SortKey = iota
	SortReleasedDesc
	SortAlphabeticalAsc
	SortAlphabeticalDesc
	SortRatingAsc
	SortRatingDesc
)

// ParseSortKey maps a raw sortBy parameter onto a SortKey. Unknown
// values fall back to the default ordering rather than erroring, which
// mirrors how the API has always behaved.
func ParseSortKey(raw string) SortKey {
	switch raw {
	case "ALPHABETICAL_ASC":
		return SortAlphabeticalAsc
	case "ALPHABETICAL_DESC":
		return SortAlphabeticalDesc
	case "RELEASED_ASC":
		return SortReleasedAsc
	case "RELEASED_DESC":
		return SortReleasedDesc
	case "RATING_ASC":
		return SortRatingAsc
	case "RATING_DESC":
		return SortRatingDesc
	default:
		return SortReleasedAsc
	}
}

// OrderBy returns the ORDER BY clause for the key, run against the
// film_ratings derived table. Every ordering is tie-broken by ascending
// film id so that rows with equal primary keys sort deterministically.
func (k SortKey) OrderBy() string {
	var primary string
	switch k {
	case SortAlphabeticalAsc:
		primary = "film_ratings.title ASC"
	case SortAlphabeticalDesc:
		primary = "film_ratings.title DESC"
	case SortReleasedDesc:
		primary = "film_ratings.release_date DESC"
	case SortRatingAsc:
		primary = "film_ratings.rating ASC"
	case SortRatingDesc:
		primary = "film_ratings.rating DESC"
	default:
		primary = "film_ratings.release_date ASC"
	}
	return " ORDER BY " + primary + ", film_ratings.film_id ASC"
}

package search

import (
	"math"
	"strings"
)

// Filter is a compiled conjunctive WHERE clause with its bound
// arguments. The zero value matches everything.
type Filter struct {
	predicates []string
	args       []any
}

// unlimitedCount stands in for "no LIMIT" when only a start offset was
// supplied; MySQL has no OFFSET without LIMIT, so the page query asks
// for every remaining row instead.
const unlimitedCount = math.MaxInt64

// Filter compiles the present criteria into predicate fragments, in a
// fixed order, each parameterized. The fragments are accumulated in a
// local slice and joined at render time, so concurrent searches never
// share assembly state.
func (c Criteria) Filter() Filter {
	var f Filter

	if c.Q != nil {
		f.predicates = append(f.predicates,
			"(film_ratings.title LIKE ? OR film_ratings.description LIKE ?)")
		needle := "%" + *c.Q + "%"
		f.args = append(f.args, needle, needle)
	}
	if len(c.GenreIDs) > 0 {
		f.predicates = append(f.predicates,
			"film_ratings.genre_id IN ("+placeholders(len(c.GenreIDs))+")")
		for _, id := range c.GenreIDs {
			f.args = append(f.args, id)
		}
	}
	if len(c.AgeRatings) > 0 {
		f.predicates = append(f.predicates,
			"film_ratings.age_rating IN ("+placeholders(len(c.AgeRatings))+")")
		for _, r := range c.AgeRatings {
			f.args = append(f.args, r)
		}
	}
	if c.DirectorID != nil {
		f.predicates = append(f.predicates, "film_ratings.director_id = ?")
		f.args = append(f.args, *c.DirectorID)
	}
	if c.ReviewerID != nil {
		// Matches the pre-grouping fan-out row carrying each review's
		// author; the outer GROUP BY collapses duplicates again.
		f.predicates = append(f.predicates, "film_ratings.reviewer_id = ?")
		f.args = append(f.args, *c.ReviewerID)
	}
	return f
}

// Clause renders the filter as " WHERE a AND b ..." or an empty string
// when no criteria were present.
func (f Filter) Clause() string {
	if len(f.predicates) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.predicates, " AND ")
}

// Args returns the bound arguments in predicate order.
func (f Filter) Args() []any { return f.args }

// Page renders the LIMIT/OFFSET clause for the criteria:
//
//	count absent, start absent -> no clause (return everything)
//	count absent, start present -> unlimited LIMIT plus OFFSET start
//	count present               -> LIMIT count, OFFSET start (default 0)
//
// The count query must never apply this clause; only the page query
// does.
func (c Criteria) Page() (clause string, args []any) {
	if c.Count == nil && c.Start == nil {
		return "", nil
	}
	limit := int64(unlimitedCount)
	if c.Count != nil {
		limit = int64(*c.Count)
	}
	start := 0
	if c.Start != nil {
		start = *c.Start
	}
	return " LIMIT ? OFFSET ?", []any{limit, start}
}

func placeholders(n int) string {
	if n == 1 {
		return "?"
	}
	return strings.Repeat("?,", n-1) + "?"
}

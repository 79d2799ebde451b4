// Package search compiles the optional film search parameters into SQL
// fragments with bound arguments. Parsing, predicate assembly and
// pagination live here so the repository can run the count query and the
// page query off the exact same compiled filter.
package search

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

// ErrInvalidCriteria is returned when any search parameter fails to
// parse. Validation is all-or-nothing: one bad member rejects the whole
// request.
var ErrInvalidCriteria = errors.New("invalid search criteria")

// Criteria is the normalized, request-scoped set of search inputs. Nil
// pointer / empty slice members contribute nothing to the compiled
// filter. A scalar genreIds or ageRatings parameter is normalized to a
// one-element set.
type Criteria struct {
	Q          *string
	GenreIDs   []uint64
	AgeRatings []string
	DirectorID *uint64
	ReviewerID *uint64
	Sort       SortKey
	Start      *int
	Count      *int
}

// ParseCriteria normalizes raw query parameters into a Criteria value.
// Numeric parameters must parse as non-negative integers; anything else
// fails with ErrInvalidCriteria.
func ParseCriteria(values url.Values) (Criteria, error) {
	var c Criteria

	if vs, ok := values["q"]; ok {
		if len(vs) != 1 || vs[0] == "" {
			return Criteria{}, fmt.Errorf("%w: q must be a single non-empty value", ErrInvalidCriteria)
		}
		c.Q = &vs[0]
	}

	for _, raw := range values["genreIds"] {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return Criteria{}, fmt.Errorf("%w: genreIds: %q is not an id", ErrInvalidCriteria, raw)
		}
		c.GenreIDs = append(c.GenreIDs, id)
	}

	for _, raw := range values["ageRatings"] {
		if raw == "" {
			return Criteria{}, fmt.Errorf("%w: ageRatings: empty value", ErrInvalidCriteria)
		}
		c.AgeRatings = append(c.AgeRatings, raw)
	}

	var err error
	if c.DirectorID, err = optionalID(values, "directorId"); err != nil {
		return Criteria{}, err
	}
	if c.ReviewerID, err = optionalID(values, "reviewerId"); err != nil {
		return Criteria{}, err
	}
	if c.Start, err = optionalIndex(values, "start"); err != nil {
		return Criteria{}, err
	}
	if c.Count, err = optionalIndex(values, "count"); err != nil {
		return Criteria{}, err
	}

	c.Sort = ParseSortKey(values.Get("sortBy"))
	return c, nil
}

func optionalID(values url.Values, key string) (*uint64, error) {
	raw := values.Get(key)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %q is not an id", ErrInvalidCriteria, key, raw)
	}
	return &id, nil
}

func optionalIndex(values url.Values, key string) (*int, error) {
	raw := values.Get(key)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%w: %s: %q is not a non-negative integer", ErrInvalidCriteria, key, raw)
	}
	return &n, nil
}

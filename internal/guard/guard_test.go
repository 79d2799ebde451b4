package guard

import (
	"testing"
	"time"

	"github.com/lmarsden/film-catalog/internal/model"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func futureFilm(director uint64) *model.Film {
	return &model.Film{ID: 1, DirectorID: director, ReleaseDate: now.AddDate(1, 0, 0)}
}

func releasedFilm(director uint64) *model.Film {
	return &model.Film{ID: 1, DirectorID: director, ReleaseDate: now.AddDate(0, 0, -1)}
}

func TestCanEditFilm(t *testing.T) {
	tests := []struct {
		name    string
		userID  uint64
		film    *model.Film
		reviews int
		wantErr error
	}{
		{"director edits unreleased unreviewed film", 10, futureFilm(10), 0, nil},
		{"missing film", 10, nil, 0, ErrNotFound},
		{"non-director always forbidden", 11, futureFilm(10), 0, ErrForbidden},
		{"release date has passed", 10, releasedFilm(10), 0, ErrForbidden},
		{"film already has a review", 10, futureFilm(10), 1, ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := CanEditFilm(tt.userID, tt.film, tt.reviews, now); err != tt.wantErr {
				t.Errorf("CanEditFilm() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCanSetReleaseDate(t *testing.T) {
	if err := CanSetReleaseDate(now.Add(time.Hour), now); err != nil {
		t.Errorf("future date: %v", err)
	}
	if err := CanSetReleaseDate(now.Add(-time.Hour), now); err != ErrForbidden {
		t.Errorf("past date: got %v, want ErrForbidden", err)
	}
}

func TestCanDeleteFilm(t *testing.T) {
	if err := CanDeleteFilm(10, nil); err != ErrNotFound {
		t.Errorf("missing film: got %v, want ErrNotFound", err)
	}
	if err := CanDeleteFilm(11, releasedFilm(10)); err != ErrForbidden {
		t.Errorf("non-director: got %v, want ErrForbidden", err)
	}
	// Deletion remains allowed after release, unlike editing.
	if err := CanDeleteFilm(10, releasedFilm(10)); err != nil {
		t.Errorf("director deletes released film: %v", err)
	}
}

func TestCanReviewFilm(t *testing.T) {
	tests := []struct {
		name    string
		userID  uint64
		film    *model.Film
		wantErr error
	}{
		{"reviewer after release", 20, releasedFilm(10), nil},
		{"missing film", 20, nil, ErrNotFound},
		{"director reviews own released film", 10, releasedFilm(10), ErrForbidden},
		{"director reviews own unreleased film", 10, futureFilm(10), ErrForbidden},
		{"reviewer before release", 20, futureFilm(10), ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := CanReviewFilm(tt.userID, tt.film, now); err != tt.wantErr {
				t.Errorf("CanReviewFilm() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// Walks the full film lifecycle: a film releasing in the future can
// be edited by its director but not reviewed; once released it can be
// reviewed but no longer edited; once reviewed it is locked even for
// the director.
func TestFilmLifecycle(t *testing.T) {
	film := &model.Film{ID: 5, DirectorID: 1, ReleaseDate: time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC)}
	before := time.Date(2098, 12, 1, 0, 0, 0, 0, time.UTC)
	after := time.Date(2099, 1, 2, 0, 0, 0, 0, time.UTC)

	if err := CanEditFilm(1, film, 0, before); err != nil {
		t.Fatalf("director edit before release: %v", err)
	}
	if err := CanReviewFilm(2, film, before); err != ErrForbidden {
		t.Fatalf("review before release: got %v, want ErrForbidden", err)
	}
	if err := CanReviewFilm(2, film, after); err != nil {
		t.Fatalf("review after release: %v", err)
	}
	if err := CanEditFilm(1, film, 1, after); err != ErrForbidden {
		t.Fatalf("edit with review present: got %v, want ErrForbidden", err)
	}
}

func TestCanPublishFilm(t *testing.T) {
	if err := CanPublishFilm(false, now.AddDate(0, 1, 0), now); err != nil {
		t.Errorf("fresh title, future release: %v", err)
	}
	if err := CanPublishFilm(true, now.AddDate(0, 1, 0), now); err != ErrForbidden {
		t.Errorf("duplicate title: got %v, want ErrForbidden", err)
	}
	if err := CanPublishFilm(false, now.AddDate(0, 0, -1), now); err != ErrForbidden {
		t.Errorf("past release: got %v, want ErrForbidden", err)
	}
}

func TestCanManageImage(t *testing.T) {
	if err := CanManageImage(3, 3); err != nil {
		t.Errorf("owner: %v", err)
	}
	if err := CanManageImage(3, 4); err != ErrForbidden {
		t.Errorf("stranger: got %v, want ErrForbidden", err)
	}
}

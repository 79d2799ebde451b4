package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lmarsden/film-catalog/internal/model"
	"github.com/lmarsden/film-catalog/internal/repository"
)

type stubFilmGetter struct {
	film model.Film
	err  error
}

func (s *stubFilmGetter) GetRow(context.Context, uint64) (model.Film, error) {
	return s.film, s.err
}

type stubReviewStore struct {
	entries []repository.ReviewEntry
	inserts int
	rating  int
	ts      time.Time
}

func (s *stubReviewStore) ListByFilm(context.Context, uint64) ([]repository.ReviewEntry, error) {
	return s.entries, nil
}

func (s *stubReviewStore) Insert(_ context.Context, rev model.Review) error {
	s.inserts++
	s.rating = rev.Rating
	s.ts = rev.Timestamp
	return nil
}

func postReview(t *testing.T, h *ReviewHandler, filmID, userID string, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(http.MethodPost, "/v1/films/"+filmID+"/reviews", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/films/:id/reviews")
	c.SetParamNames("id")
	c.SetParamValues(filmID)
	if userID != "" {
		uid, err := strconv.ParseUint(userID, 10, 64)
		if err != nil {
			t.Fatalf("bad test user id %q", userID)
		}
		c.Set("user_id", uid)
	}
	if err := h.Post(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestReviewPost(t *testing.T) {
	released := model.Film{ID: 7, DirectorID: 1, ReleaseDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}
	upcoming := model.Film{ID: 7, DirectorID: 1, ReleaseDate: time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC)}

	tests := []struct {
		name       string
		film       model.Film
		filmErr    error
		userID     string
		body       string
		wantStatus int
		wantInsert bool
	}{
		{
			name:       "accepted",
			film:       released,
			userID:     "2",
			body:       `{"rating":8,"review":"tight pacing"}`,
			wantStatus: http.StatusCreated,
			wantInsert: true,
		},
		{
			name:       "film missing",
			filmErr:    sql.ErrNoRows,
			userID:     "2",
			body:       `{"rating":8,"review":"x"}`,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "director reviews own film",
			film:       released,
			userID:     "1",
			body:       `{"rating":8,"review":"masterpiece"}`,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "not yet released",
			film:       upcoming,
			userID:     "2",
			body:       `{"rating":8,"review":"x"}`,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "rating at upper bound",
			film:       released,
			userID:     "2",
			body:       `{"rating":10,"review":"flawless"}`,
			wantStatus: http.StatusCreated,
			wantInsert: true,
		},
		{
			name:       "rating above ten",
			film:       released,
			userID:     "2",
			body:       `{"rating":11,"review":"x"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "rating zero",
			film:       released,
			userID:     "2",
			body:       `{"rating":0,"review":"x"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing review text",
			film:       released,
			userID:     "2",
			body:       `{"rating":5}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "no token",
			film:       released,
			body:       `{"rating":5,"review":"x"}`,
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reviews := &stubReviewStore{}
			h := &ReviewHandler{
				Films:   &stubFilmGetter{film: tt.film, err: tt.filmErr},
				Reviews: reviews,
			}
			rec := postReview(t, h, "7", tt.userID, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if got := reviews.inserts > 0; got != tt.wantInsert {
				t.Fatalf("inserted = %v, want %v", got, tt.wantInsert)
			}
		})
	}
}

// A user may review the same film more than once; there is no
// uniqueness rule on (film, reviewer). Making reviews unique would be a
// deliberate behavior change and should break this test.
func TestReviewPostDuplicateAllowed(t *testing.T) {
	reviews := &stubReviewStore{}
	h := &ReviewHandler{
		Films:   &stubFilmGetter{film: model.Film{ID: 7, DirectorID: 1, ReleaseDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}},
		Reviews: reviews,
	}
	for i := 0; i < 2; i++ {
		if rec := postReview(t, h, "7", "2", `{"rating":6,"review":"second viewing held up"}`); rec.Code != http.StatusCreated {
			t.Fatalf("attempt %d: status = %d, want 201", i+1, rec.Code)
		}
	}
	if reviews.inserts != 2 {
		t.Fatalf("inserts = %d, want 2", reviews.inserts)
	}
}

func TestReviewPostTimestampTruncated(t *testing.T) {
	reviews := &stubReviewStore{}
	h := &ReviewHandler{
		Films:   &stubFilmGetter{film: model.Film{ID: 7, DirectorID: 1, ReleaseDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}},
		Reviews: reviews,
	}
	rec := postReview(t, h, "7", "2", `{"rating":9,"review":"soundtrack carries it"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if reviews.ts.Nanosecond() != 0 {
		t.Fatalf("timestamp not second-truncated: %v", reviews.ts)
	}
	if reviews.ts.Location() != time.UTC {
		t.Fatalf("timestamp not UTC: %v", reviews.ts)
	}
}

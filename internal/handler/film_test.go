package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/lmarsden/film-catalog/internal/model"
	"github.com/lmarsden/film-catalog/internal/queue"
	"github.com/lmarsden/film-catalog/internal/search"
)

type stubFilmStore struct {
	film       model.Film
	getErr     error
	deleteErr  error
	deleted    bool
	titleTaken bool
	updates    []string
}

func (s *stubFilmStore) GetRow(context.Context, uint64) (model.Film, error) {
	return s.film, s.getErr
}
func (s *stubFilmStore) TitleExists(context.Context, string) (bool, error) {
	return s.titleTaken, nil
}
func (s *stubFilmStore) Insert(context.Context, model.Film) (uint64, error) {
	return 1, nil
}
func (s *stubFilmStore) UpdateTitle(context.Context, uint64, string) error {
	s.updates = append(s.updates, "title")
	return nil
}
func (s *stubFilmStore) UpdateDescription(context.Context, uint64, string) error {
	s.updates = append(s.updates, "description")
	return nil
}
func (s *stubFilmStore) UpdateReleaseDate(context.Context, uint64, time.Time) error {
	s.updates = append(s.updates, "releaseDate")
	return nil
}
func (s *stubFilmStore) UpdateRuntime(context.Context, uint64, int) error {
	s.updates = append(s.updates, "runtime")
	return nil
}
func (s *stubFilmStore) UpdateAgeRating(context.Context, uint64, string) error {
	s.updates = append(s.updates, "ageRating")
	return nil
}
func (s *stubFilmStore) UpdateGenre(context.Context, uint64, uint64) error {
	s.updates = append(s.updates, "genre")
	return nil
}
func (s *stubFilmStore) DeleteCascade(context.Context, uint64) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = true
	return nil
}
func (s *stubFilmStore) Search(context.Context, search.Criteria) ([]model.FilmSummary, int, error) {
	return nil, 0, nil
}
func (s *stubFilmStore) GetDetail(context.Context, uint64) (model.FilmDetail, error) {
	return model.FilmDetail{}, sql.ErrNoRows
}

type stubGenreStore struct {
	known bool
}

func (s *stubGenreStore) ListUsed(context.Context) ([]model.Genre, error) { return nil, nil }
func (s *stubGenreStore) Exists(context.Context, uint64) (bool, error)    { return s.known, nil }
func (s *stubGenreStore) ValidateCriteria(context.Context, search.Criteria) error {
	return nil
}

type stubReviewCounter struct {
	count int
}

func (s *stubReviewCounter) CountByFilm(context.Context, uint64) (int, error) {
	return s.count, nil
}

type stubBlobStore struct {
	removed   []string
	removeErr error
}

func (s *stubBlobStore) Put(context.Context, string, string, []byte) error { return nil }
func (s *stubBlobStore) Get(context.Context, string) ([]byte, error)       { return nil, nil }
func (s *stubBlobStore) Remove(_ context.Context, key string) error {
	if s.removeErr != nil {
		return s.removeErr
	}
	s.removed = append(s.removed, key)
	return nil
}

type stubPublisher struct {
	events []queue.AssetCleanupEvent
}

func (s *stubPublisher) PublishCleanup(_ context.Context, ev queue.AssetCleanupEvent) error {
	s.events = append(s.events, ev)
	return nil
}

func deleteFilm(t *testing.T, h *FilmHandler, userID uint64) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(http.MethodDelete, "/v1/films/7", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/films/:id")
	c.SetParamNames("id")
	c.SetParamValues("7")
	if userID != 0 {
		c.Set("user_id", userID)
	}
	if err := h.Delete(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func patchFilm(t *testing.T, h *FilmHandler, userID uint64, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(http.MethodPatch, "/v1/films/7", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/films/:id")
	c.SetParamNames("id")
	c.SetParamValues("7")
	if userID != 0 {
		c.Set("user_id", userID)
	}
	if err := h.Patch(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestFilmPatch(t *testing.T) {
	editable := model.Film{
		ID:          7,
		Title:       "Original Cut",
		DirectorID:  3,
		ReleaseDate: time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	released := editable
	released.ReleaseDate = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		films       *stubFilmStore
		genreKnown  bool
		reviews     int
		userID      uint64
		body        string
		wantStatus  int
		wantUpdates []string
	}{
		{
			name:        "director edits fields",
			films:       &stubFilmStore{film: editable},
			userID:      3,
			body:        `{"title":"Director's Cut","description":"longer"}`,
			wantStatus:  http.StatusOK,
			wantUpdates: []string{"title", "description"},
		},
		{
			name:       "empty patch issues no updates",
			films:      &stubFilmStore{film: editable},
			userID:     3,
			body:       `{}`,
			wantStatus: http.StatusOK,
		},
		{
			name:        "unchanged title skips the uniqueness check",
			films:       &stubFilmStore{film: editable, titleTaken: true},
			userID:      3,
			body:        `{"title":"Original Cut"}`,
			wantStatus:  http.StatusOK,
			wantUpdates: nil,
		},
		{
			name:       "duplicate title",
			films:      &stubFilmStore{film: editable, titleTaken: true},
			userID:     3,
			body:       `{"title":"Taken Elsewhere"}`,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "unknown genre is validation not forbidden",
			films:      &stubFilmStore{film: editable},
			genreKnown: false,
			userID:     3,
			body:       `{"genreId":99}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:        "known genre applied",
			films:       &stubFilmStore{film: editable},
			genreKnown:  true,
			userID:      3,
			body:        `{"genreId":2}`,
			wantStatus:  http.StatusOK,
			wantUpdates: []string{"genre"},
		},
		{
			name:       "release date moved into the past",
			films:      &stubFilmStore{film: editable},
			userID:     3,
			body:       `{"releaseDate":"2000-01-01 00:00:00"}`,
			wantStatus: http.StatusForbidden,
		},
		{
			name:        "release date moved within the future",
			films:       &stubFilmStore{film: editable},
			userID:      3,
			body:        `{"releaseDate":"2098-06-01"}`,
			wantStatus:  http.StatusOK,
			wantUpdates: []string{"releaseDate"},
		},
		{
			name:       "non-director forbidden",
			films:      &stubFilmStore{film: editable},
			userID:     4,
			body:       `{"description":"vandalism"}`,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "released film locked",
			films:      &stubFilmStore{film: released},
			userID:     3,
			body:       `{"description":"revisionism"}`,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "reviewed film locked",
			films:      &stubFilmStore{film: editable},
			reviews:    1,
			userID:     3,
			body:       `{"description":"too late"}`,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "film missing",
			films:      &stubFilmStore{getErr: sql.ErrNoRows},
			userID:     3,
			body:       `{"description":"x"}`,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "no token",
			films:      &stubFilmStore{film: editable},
			body:       `{"description":"x"}`,
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &FilmHandler{
				Films:   tt.films,
				Genres:  &stubGenreStore{known: tt.genreKnown},
				Reviews: &stubReviewCounter{count: tt.reviews},
				Store:   &stubBlobStore{},
				Events:  &stubPublisher{},
				Log:     logrus.New(),
			}
			rec := patchFilm(t, h, tt.userID, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if !reflect.DeepEqual(tt.films.updates, tt.wantUpdates) {
				t.Fatalf("updates = %v, want %v", tt.films.updates, tt.wantUpdates)
			}
		})
	}
}

func TestFilmDelete(t *testing.T) {
	heroKey := "film_7.png"
	film := model.Film{ID: 7, DirectorID: 3, ReleaseDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), ImageFilename: &heroKey}

	tests := []struct {
		name       string
		films      *stubFilmStore
		userID     uint64
		wantStatus int
		wantRow    bool
	}{
		{
			name:       "director deletes",
			films:      &stubFilmStore{film: film},
			userID:     3,
			wantStatus: http.StatusOK,
			wantRow:    true,
		},
		{
			name:       "non-director forbidden",
			films:      &stubFilmStore{film: film},
			userID:     4,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "film missing",
			films:      &stubFilmStore{getErr: sql.ErrNoRows},
			userID:     3,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "no token",
			films:      &stubFilmStore{film: film},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &FilmHandler{
				Films:  tt.films,
				Store:  &stubBlobStore{},
				Events: &stubPublisher{},
				Log:    logrus.New(),
			}
			rec := deleteFilm(t, h, tt.userID)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.films.deleted != tt.wantRow {
				t.Fatalf("row deleted = %v, want %v", tt.films.deleted, tt.wantRow)
			}
		})
	}
}

func TestFilmDeleteQueuesBlobCleanupOnStoreFailure(t *testing.T) {
	heroKey := "film_7.jpeg"
	blobs := &stubBlobStore{removeErr: context.DeadlineExceeded}
	events := &stubPublisher{}
	h := &FilmHandler{
		Films:  &stubFilmStore{film: model.Film{ID: 7, DirectorID: 3, ImageFilename: &heroKey}},
		Store:  blobs,
		Events: events,
		Log:    logrus.New(),
	}

	rec := deleteFilm(t, h, 3)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; blob failure must not fail the request", rec.Code)
	}
	if len(events.events) != 1 || events.events[0].Key != heroKey {
		t.Fatalf("cleanup events = %+v, want one for %s", events.events, heroKey)
	}
}

func TestFilmDeleteRemovesBlobDirectly(t *testing.T) {
	heroKey := "film_7.gif"
	blobs := &stubBlobStore{}
	events := &stubPublisher{}
	h := &FilmHandler{
		Films:  &stubFilmStore{film: model.Film{ID: 7, DirectorID: 3, ImageFilename: &heroKey}},
		Store:  blobs,
		Events: events,
		Log:    logrus.New(),
	}

	if rec := deleteFilm(t, h, 3); rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(blobs.removed) != 1 || blobs.removed[0] != heroKey {
		t.Fatalf("removed = %v, want [%s]", blobs.removed, heroKey)
	}
	if len(events.events) != 0 {
		t.Fatalf("unexpected cleanup events: %+v", events.events)
	}
}

package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/lmarsden/film-catalog/internal/guard"
	"github.com/lmarsden/film-catalog/internal/model"
	"github.com/lmarsden/film-catalog/internal/queue"
	"github.com/lmarsden/film-catalog/internal/repository"
	"github.com/lmarsden/film-catalog/internal/search"
	"github.com/lmarsden/film-catalog/internal/storage"
)

// filmStore is the slice of FilmRepo the film endpoints need; narrowed
// to an interface so handler tests can substitute a mock.
type filmStore interface {
	GetRow(ctx context.Context, id uint64) (model.Film, error)
	TitleExists(ctx context.Context, title string) (bool, error)
	Insert(ctx context.Context, f model.Film) (uint64, error)
	UpdateTitle(ctx context.Context, id uint64, title string) error
	UpdateDescription(ctx context.Context, id uint64, description string) error
	UpdateReleaseDate(ctx context.Context, id uint64, releaseDate time.Time) error
	UpdateRuntime(ctx context.Context, id uint64, runtime int) error
	UpdateAgeRating(ctx context.Context, id uint64, ageRating string) error
	UpdateGenre(ctx context.Context, id, genreID uint64) error
	DeleteCascade(ctx context.Context, id uint64) error
	Search(ctx context.Context, c search.Criteria) ([]model.FilmSummary, int, error)
	GetDetail(ctx context.Context, id uint64) (model.FilmDetail, error)
}

type genreStore interface {
	ListUsed(ctx context.Context) ([]model.Genre, error)
	Exists(ctx context.Context, id uint64) (bool, error)
	ValidateCriteria(ctx context.Context, c search.Criteria) error
}

type reviewCounter interface {
	CountByFilm(ctx context.Context, filmID uint64) (int, error)
}

// FilmHandler serves the catalogue endpoints: search, detail, genre
// listing and the director-only mutations.
type FilmHandler struct {
	Films   filmStore
	Genres  genreStore
	Reviews reviewCounter
	Store   storage.ImageStore
	Events  queue.Publisher
	Log     *logrus.Logger
}

func NewFilmHandler(f *repository.FilmRepo, g *repository.GenreRepo, r *repository.ReviewRepo,
	store storage.ImageStore, events queue.Publisher, log *logrus.Logger) *FilmHandler {
	return &FilmHandler{Films: f, Genres: g, Reviews: r, Store: store, Events: events, Log: log}
}

// List runs the film search. Criteria come entirely from the query
// string; an unknown genre id or malformed parameter rejects the whole
// request.
func (h *FilmHandler) List(c echo.Context) error {
	criteria, err := search.ParseCriteria(c.QueryParams())
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Genres.ValidateCriteria(ctx, criteria); err != nil {
		if errors.Is(err, repository.ErrUnknownGenre) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown genre id"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	films, total, err := h.Films.Search(ctx, criteria)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"films": films, "count": total})
}

// Get returns the single-film detail view.
func (h *FilmHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	d, err := h.Films.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, d)
}

// ListGenres returns the genres currently referenced by at least one
// film.
func (h *FilmHandler) ListGenres(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	genres, err := h.Genres.ListUsed(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, genres)
}

type filmPostReq struct {
	Title       string  `json:"title" validate:"required,min=1"`
	Description string  `json:"description" validate:"required,min=1"`
	GenreID     uint64  `json:"genreId" validate:"required"`
	ReleaseDate *string `json:"releaseDate"`
	AgeRating   *string `json:"ageRating"`
	Runtime     *int    `json:"runtime" validate:"omitempty,min=1"`
}

// Post publishes a new film with the requester as director. Release
// date defaults to now, age rating to the unclassified placeholder.
func (h *FilmHandler) Post(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req filmPostReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Second)
	release := now
	if req.ReleaseDate != nil {
		var err error
		if release, err = parseDateTime(*req.ReleaseDate); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid releaseDate"})
		}
	}
	ageRating := model.DefaultAgeRating
	if req.AgeRating != nil {
		ageRating = *req.AgeRating
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	known, err := h.Genres.Exists(ctx, req.GenreID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !known {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown genre id"})
	}

	taken, err := h.Films.TitleExists(ctx, req.Title)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := guard.CanPublishFilm(taken, release, now); err != nil {
		return guardFail(c, err)
	}

	id, err := h.Films.Insert(ctx, model.Film{
		Title:       req.Title,
		Description: req.Description,
		GenreID:     req.GenreID,
		DirectorID:  userID,
		ReleaseDate: release,
		AgeRating:   ageRating,
		Runtime:     req.Runtime,
	})
	if err != nil {
		if errors.Is(err, repository.ErrTitleExists) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "title already in use"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "insert failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"filmId": id})
}

type filmPatchReq struct {
	Title       *string `json:"title" validate:"omitempty,min=1"`
	Description *string `json:"description" validate:"omitempty,min=1"`
	GenreID     *uint64 `json:"genreId"`
	ReleaseDate *string `json:"releaseDate"`
	AgeRating   *string `json:"ageRating"`
	Runtime     *int    `json:"runtime" validate:"omitempty,min=1"`
}

// Patch edits a film. The edit as a whole must pass the director /
// pre-release / unreviewed checks; each present field is then applied
// independently.
func (h *FilmHandler) Patch(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	userID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req filmPatchReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	film, err := h.Films.GetRow(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	reviewCount, err := h.Reviews.CountByFilm(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	now := time.Now().UTC()
	if err := guard.CanEditFilm(userID, &film, reviewCount, now); err != nil {
		return guardFail(c, err)
	}

	if req.ReleaseDate != nil {
		release, err := parseDateTime(*req.ReleaseDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid releaseDate"})
		}
		if err := guard.CanSetReleaseDate(release, now); err != nil {
			return guardFail(c, err)
		}
		if err := h.Films.UpdateReleaseDate(ctx, id, release); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}
	if req.Title != nil && *req.Title != film.Title {
		taken, err := h.Films.TitleExists(ctx, *req.Title)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		if taken {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "title already in use"})
		}
		if err := h.Films.UpdateTitle(ctx, id, *req.Title); err != nil {
			if errors.Is(err, repository.ErrTitleExists) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "title already in use"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}
	if req.Description != nil {
		if err := h.Films.UpdateDescription(ctx, id, *req.Description); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}
	if req.GenreID != nil {
		known, err := h.Genres.Exists(ctx, *req.GenreID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		if !known {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown genre id"})
		}
		if err := h.Films.UpdateGenre(ctx, id, *req.GenreID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}
	if req.Runtime != nil {
		if err := h.Films.UpdateRuntime(ctx, id, *req.Runtime); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}
	if req.AgeRating != nil {
		if err := h.Films.UpdateAgeRating(ctx, id, *req.AgeRating); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "updated"})
}

// Delete removes a film, its reviews and, best-effort, its hero image.
// The database delete is authoritative; a failed blob delete is handed
// to the cleanup queue instead of failing the request.
func (h *FilmHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	userID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	film, err := h.Films.GetRow(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := guard.CanDeleteFilm(userID, &film); err != nil {
		return guardFail(c, err)
	}

	if err := h.Films.DeleteCascade(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}

	if film.ImageFilename != nil {
		h.removeBlob(ctx, *film.ImageFilename, "film deleted")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "deleted"})
}

// removeBlob tries an immediate delete and falls back to the cleanup
// queue when the store refuses.
func (h *FilmHandler) removeBlob(ctx context.Context, key, reason string) {
	if err := h.Store.Remove(ctx, key); err != nil {
		if perr := h.Events.PublishCleanup(ctx, queue.AssetCleanupEvent{Key: key, Reason: reason}); perr != nil {
			h.Log.WithError(perr).WithField("key", key).Error("cleanup event lost")
		}
	}
}

package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lmarsden/film-catalog/internal/guard"
	"github.com/lmarsden/film-catalog/internal/model"
	"github.com/lmarsden/film-catalog/internal/repository"
)

type filmGetter interface {
	GetRow(ctx context.Context, id uint64) (model.Film, error)
}

type reviewStore interface {
	ListByFilm(ctx context.Context, filmID uint64) ([]repository.ReviewEntry, error)
	Insert(ctx context.Context, rev model.Review) error
}

// ReviewHandler serves the per-film review listing and creation
// endpoints.
type ReviewHandler struct {
	Films   filmGetter
	Reviews reviewStore
}

func NewReviewHandler(f *repository.FilmRepo, r *repository.ReviewRepo) *ReviewHandler {
	return &ReviewHandler{Films: f, Reviews: r}
}

// List returns a film's reviews, newest first.
func (h *ReviewHandler) List(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Films.GetRow(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	reviews, err := h.Reviews.ListByFilm(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, reviews)
}

// Ratings are whole numbers on the 1 to 10 scale.
type reviewPostReq struct {
	Rating int    `json:"rating" validate:"required,min=1,max=10"`
	Review string `json:"review" validate:"required,min=1"`
}

// Post stores a review. Directors may not review their own film and
// nothing can be reviewed before release; the stored timestamp is the
// second-truncated acceptance time.
func (h *ReviewHandler) Post(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	userID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req reviewPostReq
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

	now := time.Now().UTC().Truncate(time.Second)
	if err := guard.CanReviewFilm(userID, &film, now); err != nil {
		return guardFail(c, err)
	}

	if err := h.Reviews.Insert(ctx, model.Review{
		FilmID:     id,
		ReviewerID: userID,
		Rating:     req.Rating,
		Review:     req.Review,
		Timestamp:  now,
	}); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "insert failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "created"})
}

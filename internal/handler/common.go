// Package handler implements the HTTP endpoints. Handlers bind and
// validate request bodies, load the rows the guard package needs, and
// map its sentinel errors onto HTTP statuses; everything else is
// delegated to the repository, storage and queue packages.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/lmarsden/film-catalog/internal/guard"
	"github.com/lmarsden/film-catalog/internal/middleware"
	"github.com/lmarsden/film-catalog/internal/model"
)

const dbTimeout = 5 * time.Second

// Validator adapts go-playground/validator to Echo's Validator
// interface so handlers can call c.Validate on bound request structs.
type Validator struct{ v *validator.Validate }

func NewValidator() *Validator { return &Validator{v: validator.New()} }

func (val *Validator) Validate(i interface{}) error {
	if err := val.v.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// reqCtx derives a bounded context for repository calls.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// pathID parses the :id route parameter.
func pathID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

// currentUserID reads the authenticated user id set by the auth
// middleware.
func currentUserID(c echo.Context) (uint64, bool) {
	return middleware.UserID(c)
}

// guardFail converts a guard sentinel into the JSON error response the
// API contract specifies.
func guardFail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, guard.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, guard.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// parseDateTime accepts the canonical timestamp layout and a bare date.
func parseDateTime(raw string) (time.Time, error) {
	if t, err := time.ParseInLocation(model.TimestampLayout, raw, time.UTC); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02", raw, time.UTC)
}

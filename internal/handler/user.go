package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lmarsden/film-catalog/internal/auth"
	"github.com/lmarsden/film-catalog/internal/config"
	"github.com/lmarsden/film-catalog/internal/repository"
)

// UserHandler serves the profile view and update endpoints.
type UserHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
}

func NewUserHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: u, Tokens: t}
}

type userResp struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"`
}

// View returns a user's public profile. The email field is only
// included when the requester is the user themself, which is why this
// route runs under the optional auth middleware.
func (h *UserHandler) View(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	resp := userResp{FirstName: u.FirstName, LastName: u.LastName}
	if requester, ok := currentUserID(c); ok && requester == u.ID {
		resp.Email = u.Email
	}
	return c.JSON(http.StatusOK, resp)
}

type userPatchReq struct {
	Email           *string `json:"email" validate:"omitempty,email"`
	FirstName       *string `json:"firstName" validate:"omitempty,min=1"`
	LastName        *string `json:"lastName" validate:"omitempty,min=1"`
	Password        *string `json:"password" validate:"omitempty,min=6"`
	CurrentPassword *string `json:"currentPassword"`
}

// Patch updates the requester's own profile. All fields are optional;
// changing the password additionally requires the current password and
// the new value must differ from it. A successful password change
// revokes every refresh token, logging out all other sessions.
func (h *UserHandler) Patch(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	requester, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req userPatchReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if requester != u.ID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	if req.Password != nil {
		if req.CurrentPassword == nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "currentPassword required"})
		}
		if !auth.VerifyPassword(u.PasswordHash, *req.CurrentPassword) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid current password"})
		}
		if *req.Password == *req.CurrentPassword {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "new password must differ"})
		}
	}

	if req.Email != nil {
		if err := h.Users.UpdateEmail(ctx, u.ID, *req.Email); err != nil {
			if errors.Is(err, repository.ErrEmailExists) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "email already in use"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}
	if req.FirstName != nil || req.LastName != nil {
		if err := h.Users.UpdateName(ctx, u.ID, req.FirstName, req.LastName); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password, h.Cfg.BcryptCost)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash failed"})
		}
		if err := h.Users.UpdatePassword(ctx, u.ID, hash); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
		if err := h.Tokens.RevokeAllForUser(ctx, u.ID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke failed"})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "updated"})
}

package handler

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/lmarsden/film-catalog/internal/guard"
	"github.com/lmarsden/film-catalog/internal/model"
	"github.com/lmarsden/film-catalog/internal/queue"
	"github.com/lmarsden/film-catalog/internal/repository"
	"github.com/lmarsden/film-catalog/internal/storage"
)

// maxImageBytes caps uploads; larger bodies are rejected outright.
const maxImageBytes = 8 << 20

type userImageRows interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
	SetImage(ctx context.Context, id uint64, filename string) error
	ClearImage(ctx context.Context, id uint64) error
}

type filmImageRows interface {
	GetRow(ctx context.Context, id uint64) (model.Film, error)
	SetImage(ctx context.Context, id uint64, filename string) error
	ClearImage(ctx context.Context, id uint64) error
}

// ImageHandler serves profile and hero images. The database row is the
// source of truth for which object exists; every blob operation that
// fails after the row has changed is compensated through the cleanup
// queue rather than surfaced to the client.
type ImageHandler struct {
	Users  userImageRows
	Films  filmImageRows
	Store  storage.ImageStore
	Events queue.Publisher
	Log    *logrus.Logger
}

func NewImageHandler(u *repository.UserRepo, f *repository.FilmRepo,
	store storage.ImageStore, events queue.Publisher, log *logrus.Logger) *ImageHandler {
	return &ImageHandler{Users: u, Films: f, Store: store, Events: events, Log: log}
}

// GetUserImage serves a user's profile image.
func (h *ImageHandler) GetUserImage(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return h.rowErr(c, err)
	}
	return h.serveBlob(c, u.ImageFilename)
}

// PutUserImage attaches or replaces the requester's own profile image.
// 201 on first attach, 200 on replace.
func (h *ImageHandler) PutUserImage(c echo.Context) error {
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

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return h.rowErr(c, err)
	}
	if err := guard.CanManageImage(userID, u.ID); err != nil {
		return guardFail(c, err)
	}

	ext, body, err := readImage(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	key := storage.UserImageKey(u.ID, ext)
	return h.putBlob(c, ctx, key, body, u.ImageFilename, func() error {
		return h.Users.SetImage(ctx, u.ID, key)
	})
}

// DeleteUserImage removes the requester's own profile image.
func (h *ImageHandler) DeleteUserImage(c echo.Context) error {
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

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return h.rowErr(c, err)
	}
	if err := guard.CanManageImage(userID, u.ID); err != nil {
		return guardFail(c, err)
	}
	return h.deleteBlob(c, ctx, u.ImageFilename, func() error {
		return h.Users.ClearImage(ctx, u.ID)
	})
}

// GetFilmImage serves a film's hero image.
func (h *ImageHandler) GetFilmImage(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	f, err := h.Films.GetRow(ctx, id)
	if err != nil {
		return h.rowErr(c, err)
	}
	return h.serveBlob(c, f.ImageFilename)
}

// PutFilmImage attaches or replaces a film's hero image. Director only,
// but unlike field edits this stays allowed after release and reviews.
func (h *ImageHandler) PutFilmImage(c echo.Context) error {
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

	f, err := h.Films.GetRow(ctx, id)
	if err != nil {
		return h.rowErr(c, err)
	}
	if err := guard.CanManageImage(userID, f.DirectorID); err != nil {
		return guardFail(c, err)
	}

	ext, body, err := readImage(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	key := storage.FilmImageKey(f.ID, ext)
	return h.putBlob(c, ctx, key, body, f.ImageFilename, func() error {
		return h.Films.SetImage(ctx, f.ID, key)
	})
}

// DeleteFilmImage removes a film's hero image. Director only.
func (h *ImageHandler) DeleteFilmImage(c echo.Context) error {
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

	f, err := h.Films.GetRow(ctx, id)
	if err != nil {
		return h.rowErr(c, err)
	}
	if err := guard.CanManageImage(userID, f.DirectorID); err != nil {
		return guardFail(c, err)
	}
	return h.deleteBlob(c, ctx, f.ImageFilename, func() error {
		return h.Films.ClearImage(ctx, f.ID)
	})
}

// ----- shared plumbing -----

func (h *ImageHandler) rowErr(c echo.Context, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
}

func (h *ImageHandler) serveBlob(c echo.Context, filename *string) error {
	if filename == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no image"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	data, err := h.Store.Get(ctx, *filename)
	if err != nil {
		h.Log.WithError(err).WithField("key", *filename).Error("image fetch failed")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no image"})
	}
	return c.Blob(http.StatusOK, storage.ContentType(*filename), data)
}

// readImage maps Content-Type to the stored extension and reads the
// bounded request body.
func readImage(c echo.Context) (string, []byte, error) {
	ext, err := storage.Ext(c.Request().Header.Get(echo.HeaderContentType))
	if err != nil {
		return "", nil, err
	}
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxImageBytes+1))
	if err != nil {
		return "", nil, errors.New("unreadable body")
	}
	if len(body) == 0 {
		return "", nil, errors.New("empty body")
	}
	if len(body) > maxImageBytes {
		return "", nil, errors.New("image too large")
	}
	return ext, body, nil
}

// putBlob uploads the object, then updates the row. The row update is
// the commit point: if it fails the fresh object is queued for cleanup,
// and a replaced object under a different key is cleaned up after the
// row points at the new one.
func (h *ImageHandler) putBlob(c echo.Context, ctx context.Context, key string, body []byte, old *string, setRow func() error) error {
	if err := h.Store.Put(ctx, key, storage.ContentType(key), body); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upload failed"})
	}
	if err := setRow(); err != nil {
		// Only clean up when the key is genuinely unreferenced: on a
		// same-key replace the row still points at this object (the
		// bytes are just newer than the row admits), and deleting it
		// would leave the row dangling.
		if old == nil || *old != key {
			h.queueCleanup(ctx, key, "row update failed after upload")
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	if old != nil && *old != key {
		if err := h.Store.Remove(ctx, *old); err != nil {
			h.queueCleanup(ctx, *old, "replaced image")
		}
	}
	if old == nil {
		return c.JSON(http.StatusCreated, echo.Map{"message": "created"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "updated"})
}

// deleteBlob clears the row first, then removes the object, falling
// back to the cleanup queue on failure.
func (h *ImageHandler) deleteBlob(c echo.Context, ctx context.Context, filename *string, clearRow func() error) error {
	if filename == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no image"})
	}
	if err := clearRow(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	if err := h.Store.Remove(ctx, *filename); err != nil {
		h.queueCleanup(ctx, *filename, "image deleted")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "deleted"})
}

func (h *ImageHandler) queueCleanup(ctx context.Context, key, reason string) {
	if err := h.Events.PublishCleanup(ctx, queue.AssetCleanupEvent{Key: key, Reason: reason}); err != nil {
		h.Log.WithError(err).WithField("key", key).Error("cleanup event lost")
	}
}

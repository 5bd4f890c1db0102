// Package api exposes the synchronization core over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/sortify/internal/common"
	"github.com/dmitrijs2005/sortify/internal/logging"
	"github.com/dmitrijs2005/sortify/internal/server/models"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/labstack/echo/v4"
)

// SyncCore is the part of services.SyncService the handlers call.
type SyncCore interface {
	BuildView(ctx context.Context, userID int64) ([]models.ProjectSyncEntry, error)
	RecordUpload(ctx context.Context, userID, fileID int64) (*models.FileUploadTask, error)
	RecordDownload(ctx context.Context, userID, fileID, versionID int64) (*models.FileDownloadTask, error)
	LatestVersion(ctx context.Context, userID, fileID int64) (*models.FileVersion, error)
	ListVersions(ctx context.Context, userID, fileID int64) ([]*models.FileVersion, error)
}

// Pinger reports database reachability; *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	svc SyncCore
	db  Pinger
	log logging.Logger
}

func NewHandler(svc SyncCore, db Pinger, log logging.Logger) *Handler {
	return &Handler{svc: svc, db: db, log: log.With("module", "api")}
}

type recordDownloadRequest struct {
	VersionID int64 `json:"version_id"`
}

func (r recordDownloadRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.VersionID, validation.Required, validation.Min(int64(1))),
	)
}

// HandleProjects handles GET /api/projects.
func (h *Handler) HandleProjects(c echo.Context) error {
	view, err := h.svc.BuildView(c.Request().Context(), userIDFrom(c))
	if err != nil {
		return h.mapServiceError(c, err, "unable to compute synchronization status")
	}
	return c.JSON(http.StatusOK, view)
}

// HandleRecordUpload handles POST /api/files/:id/versions.
func (h *Handler) HandleRecordUpload(c echo.Context) error {
	fileID, err := fileIDParam(c)
	if err != nil {
		return badRequest(c, err)
	}

	task, err := h.svc.RecordUpload(c.Request().Context(), userIDFrom(c), fileID)
	if err != nil {
		return h.mapServiceError(c, err, "unable to record upload")
	}
	return c.JSON(http.StatusCreated, task)
}

// HandleListVersions handles GET /api/files/:id/versions.
func (h *Handler) HandleListVersions(c echo.Context) error {
	fileID, err := fileIDParam(c)
	if err != nil {
		return badRequest(c, err)
	}

	list, err := h.svc.ListVersions(c.Request().Context(), userIDFrom(c), fileID)
	if err != nil {
		return h.mapServiceError(c, err, "unable to list versions")
	}
	return c.JSON(http.StatusOK, list)
}

// HandleLatestVersion handles GET /api/files/:id/versions/latest.
func (h *Handler) HandleLatestVersion(c echo.Context) error {
	fileID, err := fileIDParam(c)
	if err != nil {
		return badRequest(c, err)
	}

	v, err := h.svc.LatestVersion(c.Request().Context(), userIDFrom(c), fileID)
	if err != nil {
		return h.mapServiceError(c, err, "unable to resolve latest version")
	}
	return c.JSON(http.StatusOK, v)
}

// HandleRecordDownload handles POST /api/files/:id/downloads.
// Body: {"version_id": n}.
func (h *Handler) HandleRecordDownload(c echo.Context) error {
	fileID, err := fileIDParam(c)
	if err != nil {
		return badRequest(c, err)
	}

	var req recordDownloadRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return badRequest(c, err)
	}

	task, err := h.svc.RecordDownload(c.Request().Context(), userIDFrom(c), fileID, req.VersionID)
	if err != nil {
		return h.mapServiceError(c, err, "unable to record download")
	}
	return c.JSON(http.StatusOK, task)
}

// HandleHealth handles GET /health.
func (h *Handler) HandleHealth(c echo.Context) error {
	if err := h.db.PingContext(c.Request().Context()); err != nil {
		h.log.Warn(c.Request().Context(), "health check failed", "error", err)
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"status":   "degraded",
			"database": "unreachable",
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":   "healthy",
		"database": "connected",
	})
}

func fileIDParam(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, validation.Errors{"id": errors.New("must be a positive integer")}
	}
	return id, nil
}

func badRequest(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, echo.Map{
		"error":   common.ErrorValidation.Error(),
		"details": err,
	})
}

// mapServiceError writes message with a status derived from the error
// kind. Storage error text never reaches the client.
func (h *Handler) mapServiceError(c echo.Context, err error, message string) error {
	kind := common.KindOf(err)

	status := http.StatusInternalServerError
	switch kind {
	case common.KindNotFound:
		status = http.StatusNotFound
	case common.KindTransientStorage:
		status = http.StatusServiceUnavailable
	}

	h.log.Error(c.Request().Context(), message,
		"kind", kind,
		"path", c.Path(),
		"user_id", userIDFrom(c),
		"error", err,
	)

	return c.JSON(status, echo.Map{"error": message, "kind": kind})
}

package records

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medlink/medlink/internal/domain/identity"
	"github.com/medlink/medlink/internal/platform/auth"
	"github.com/medlink/medlink/internal/platform/blobstore"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/records", h.Upload, auth.RequireRole(auth.RoleDoctor, auth.RoleAdmin))
	g.GET("/records/me", h.ListMine, auth.RequireRole(auth.RolePatient))
	g.GET("/records/patient/:patientId", h.ListForPatient, auth.RequireAuth())
	g.GET("/records/:id/download", h.Download, auth.RequireAuth())
}

// Upload accepts a multipart form with a "file" part plus patientId,
// title, description and category fields.
func (h *Handler) Upload(c echo.Context) error {
	ident, _ := auth.IdentityFromContext(c.Request().Context())

	patientID, err := uuid.Parse(c.FormValue("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patientId")
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	if err := blobstore.ValidateFileName(fh.Filename); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	src, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not read uploaded file")
	}
	defer src.Close()

	rec, err := h.svc.Upload(c.Request().Context(), ident.UserID, UploadInput{
		PatientID:   patientID,
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		Category:    c.FormValue("category"),
		FileName:    fh.Filename,
		File:        src,
	})
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrUserNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		case errors.Is(err, blobstore.ErrFileTooLarge), errors.Is(err, blobstore.ErrUnsupportedFileType):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) ListMine(c echo.Context) error {
	ident, _ := auth.IdentityFromContext(c.Request().Context())

	recs, err := h.svc.ListMine(c.Request().Context(), ident.UserID, c.QueryParam("category"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if recs == nil {
		recs = []*MedicalRecord{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"count":   len(recs),
		"records": recs,
	})
}

func (h *Handler) ListForPatient(c echo.Context) error {
	ident, _ := auth.IdentityFromContext(c.Request().Context())

	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	recs, err := h.svc.ListForPatient(c.Request().Context(), ident, patientID, c.QueryParam("category"))
	if err != nil {
		if errors.Is(err, ErrNotAuthorized) {
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if recs == nil {
		recs = []*MedicalRecord{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"count":   len(recs),
		"records": recs,
	})
}

func (h *Handler) Download(c echo.Context) error {
	ident, _ := auth.IdentityFromContext(c.Request().Context())

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid record id")
	}

	rec, rc, err := h.svc.Download(c.Request().Context(), ident, id)
	if err != nil {
		switch {
		case errors.Is(err, ErrRecordNotFound), errors.Is(err, blobstore.ErrBlobNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "medical record not found")
		case errors.Is(err, ErrNotAuthorized):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to open record")
		}
	}
	defer rc.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", rec.FileName))
	return c.Stream(http.StatusOK, blobstore.ContentTypeFor(rec.FileName), rc)
}

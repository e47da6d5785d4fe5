package appointment

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medlink/medlink/internal/domain/doctor"
	"github.com/medlink/medlink/internal/domain/hospital"
	"github.com/medlink/medlink/internal/platform/auth"
	"github.com/medlink/medlink/internal/platform/pdfgen"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the appointment endpoints. The doctor-facing
// consultation routes live here too: they operate on appointments, not
// on the doctor profile.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/appointments", h.Book, auth.RequireRole(auth.RolePatient))
	g.GET("/appointments/me", h.MyAppointments, auth.RequireRole(auth.RolePatient))
	g.GET("/appointments", h.List, auth.RequireRole(auth.RoleDoctor, auth.RoleAdmin))
	g.GET("/appointments/:id", h.Get, auth.RequireAuth())
	g.PUT("/appointments/:id/status", h.UpdateStatus, auth.RequireRole(auth.RoleDoctor, auth.RoleAdmin))
	g.GET("/appointments/:id/summary", h.Summary, auth.RequireAuth())

	g.GET("/doctors/me/appointments", h.DoctorAppointments, auth.RequireRole(auth.RoleDoctor))
	g.POST("/doctors/appointments/:id/notes", h.UpdateNotes, auth.RequireRole(auth.RoleDoctor))
}

type bookRequest struct {
	DoctorID   uuid.UUID `json:"doctorId"`
	HospitalID uuid.UUID `json:"hospitalId"`
	Date       time.Time `json:"date"`
	Reason     string    `json:"reason"`
}

func (h *Handler) Book(c echo.Context) error {
	ident, _ := auth.IdentityFromContext(c.Request().Context())

	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.DoctorID == uuid.Nil || req.HospitalID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "doctorId and hospitalId are required")
	}

	a, err := h.svc.Book(c.Request().Context(), ident.UserID, req.DoctorID, req.HospitalID, req.Date, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, doctor.ErrDoctorNotFound), errors.Is(err, hospital.ErrHospitalNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		default:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) MyAppointments(c echo.Context) error {
	ident, _ := auth.IdentityFromContext(c.Request().Context())

	appts, err := h.svc.MyAppointments(c.Request().Context(), ident.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list appointments")
	}
	if appts == nil {
		appts = []*Detail{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"count":        len(appts),
		"appointments": appts,
	})
}

func (h *Handler) List(c echo.Context) error {
	ident, _ := auth.IdentityFromContext(c.Request().Context())

	appts, err := h.svc.List(c.Request().Context(), ident, c.QueryParam("status"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotAuthorized):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		case errors.Is(err, doctor.ErrDoctorNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "doctor profile not found")
		default:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	if appts == nil {
		appts = []*Detail{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"count":        len(appts),
		"appointments": appts,
	})
}

func (h *Handler) Get(c echo.Context) error {
	ident, _ := auth.IdentityFromContext(c.Request().Context())

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}

	d, err := h.svc.Get(c.Request().Context(), ident, id)
	if err != nil {
		return appointmentError(err)
	}
	return c.JSON(http.StatusOK, d)
}

type statusRequest struct {
	Status string `json:"status"`
	Remark string `json:"remark"`
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	ident, _ := auth.IdentityFromContext(c.Request().Context())

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}

	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	status, err := ParseStatus(req.Status)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	a, err := h.svc.UpdateStatus(c.Request().Context(), ident, id, status, req.Remark)
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return appointmentError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Summary(c echo.Context) error {
	ident, _ := auth.IdentityFromContext(c.Request().Context())

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}

	sum, err := h.svc.Summary(c.Request().Context(), ident, id)
	if err != nil {
		return appointmentError(err)
	}

	var buf bytes.Buffer
	if err := pdfgen.RenderAppointmentSummary(&buf, *sum); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to generate summary")
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", sum.FileName()))
	return c.Blob(http.StatusOK, "application/pdf", buf.Bytes())
}

func (h *Handler) DoctorAppointments(c echo.Context) error {
	ident, _ := auth.IdentityFromContext(c.Request().Context())

	appts, err := h.svc.ListForDoctor(c.Request().Context(), ident.UserID)
	if err != nil {
		if errors.Is(err, doctor.ErrDoctorNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "doctor profile not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list appointments")
	}
	if appts == nil {
		appts = []*Detail{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"count":        len(appts),
		"appointments": appts,
	})
}

func (h *Handler) UpdateNotes(c echo.Context) error {
	ident, _ := auth.IdentityFromContext(c.Request().Context())

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}

	var upd NotesUpdate
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	a, err := h.svc.UpdateNotes(c.Request().Context(), ident.UserID, id, upd)
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return appointmentError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func appointmentError(err error) error {
	switch {
	case errors.Is(err, ErrAppointmentNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotAuthorized):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

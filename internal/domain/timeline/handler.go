package timeline

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medlink/medlink/internal/domain/identity"
	"github.com/medlink/medlink/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/timeline", h.MyTimeline, auth.RequireRole(auth.RolePatient))
	g.GET("/timeline/:patientId", h.PatientTimeline, auth.RequireRole(auth.RoleDoctor, auth.RoleAdmin))
	g.POST("/timeline", h.AddEvent, auth.RequireRole(auth.RoleDoctor, auth.RoleAdmin))
}

func (h *Handler) MyTimeline(c echo.Context) error {
	ident, _ := auth.IdentityFromContext(c.Request().Context())

	events, err := h.svc.MyTimeline(c.Request().Context(), ident.UserID, c.QueryParam("type"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, timelineResponse(events))
}

func (h *Handler) PatientTimeline(c echo.Context) error {
	ident, _ := auth.IdentityFromContext(c.Request().Context())

	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	events, err := h.svc.PatientTimeline(c.Request().Context(), ident, patientID, c.QueryParam("type"))
	if err != nil {
		if errors.Is(err, ErrNotAuthorized) {
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, timelineResponse(events))
}

type addEventRequest struct {
	PatientID   uuid.UUID `json:"patientId"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
}

func (h *Handler) AddEvent(c echo.Context) error {
	ident, _ := auth.IdentityFromContext(c.Request().Context())

	var req addEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.PatientID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "patientId is required")
	}

	e, err := h.svc.AddEvent(c.Request().Context(), ident, AddEventInput{
		PatientID:   req.PatientID,
		Type:        req.Type,
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
	})
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, e)
}

func timelineResponse(events []*EventDetail) echo.Map {
	if events == nil {
		events = []*EventDetail{}
	}
	return echo.Map{
		"count":  len(events),
		"events": events,
	}
}

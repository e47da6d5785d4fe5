package hospital

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the hospital endpoints. All of them are public:
// finding a hospital must work before login, and the SOS lookup
// especially so.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/hospitals", h.Search)
	g.GET("/hospitals/nearest", h.Nearest)
	g.GET("/hospitals/:id", h.GetByID)
}

func (h *Handler) Search(c echo.Context) error {
	q := SearchQuery{
		Name: c.QueryParam("search"),
		City: c.QueryParam("city"),
	}

	latStr, lngStr := c.QueryParam("lat"), c.QueryParam("lng")
	if latStr != "" || lngStr != "" {
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid lat")
		}
		lng, err := strconv.ParseFloat(lngStr, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid lng")
		}
		q.Lat, q.Lng = &lat, &lng
	}
	if radius := c.QueryParam("radius"); radius != "" {
		r, err := strconv.ParseFloat(radius, 64)
		if err != nil || r <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid radius")
		}
		q.RadiusKm = r
	}

	hospitals, err := h.svc.Search(c.Request().Context(), q)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if hospitals == nil {
		hospitals = []*NearbyHospital{}
	}
	return c.JSON(http.StatusOK, echo.Map{"count": len(hospitals), "hospitals": hospitals})
}

func (h *Handler) Nearest(c echo.Context) error {
	lat, err := strconv.ParseFloat(c.QueryParam("lat"), 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "lat and lng are required")
	}
	lng, err := strconv.ParseFloat(c.QueryParam("lng"), 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "lat and lng are required")
	}

	nearest, err := h.svc.Nearest(c.Request().Context(), lat, lng)
	if err != nil {
		if errors.Is(err, ErrHospitalNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no hospitals available")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"hospital": nearest})
}

func (h *Handler) GetByID(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	hospital, err := h.svc.GetHospital(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrHospitalNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "hospital not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"hospital": hospital})
}

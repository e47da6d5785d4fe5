package identity

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medlink/medlink/internal/domain/doctor"
	"github.com/medlink/medlink/internal/platform/auth"
	"github.com/medlink/medlink/pkg/api"
	"github.com/medlink/medlink/pkg/pagination"
)

// DoctorDirectory resolves the doctor profile linked to a user account.
type DoctorDirectory interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*doctor.Doctor, error)
}

type Handler struct {
	svc          *Service
	doctors      DoctorDirectory
	issuer       *auth.Issuer
	secureCookie bool
}

func NewHandler(svc *Service, doctors DoctorDirectory, issuer *auth.Issuer, secureCookie bool) *Handler {
	return &Handler{svc: svc, doctors: doctors, issuer: issuer, secureCookie: secureCookie}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/auth/register", h.Register)
	g.POST("/auth/login", h.Login)
	g.POST("/auth/refresh-token", h.Refresh)
	g.POST("/auth/logout", h.Logout)
	g.GET("/auth/me", h.Me, auth.RequireAuth())

	g.GET("/admin/patients", h.ListPatients, auth.RequireRole(auth.RoleAdmin, auth.RoleDoctor))
}

func (h *Handler) Register(c echo.Context) error {
	var req api.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	u, err := h.svc.Register(c.Request().Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, ErrElevatedRole):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		case errors.Is(err, ErrEmailTaken):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}

	return h.respondWithTokens(c, u, http.StatusCreated)
}

func (h *Handler) Login(c echo.Context) error {
	var req api.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	u, err := h.svc.Authenticate(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
	}

	return h.respondWithTokens(c, u, http.StatusOK)
}

// Refresh mints a new access token from the refresh cookie. The cookie
// itself is left untouched: the session ends at refresh-token expiry no
// matter how often it is used.
func (h *Handler) Refresh(c echo.Context) error {
	refresh := auth.RefreshTokenFromRequest(c)
	if refresh == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authorized, no refresh token")
	}

	claims, err := h.issuer.ParseRefreshToken(refresh)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authorized, invalid refresh token")
	}
	userID, err := claims.UserID()
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authorized, invalid refresh token")
	}
	if _, err := h.svc.GetUser(c.Request().Context(), userID); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "user not found")
	}

	token, err := h.issuer.IssueAccessToken(userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not issue token")
	}
	return c.JSON(http.StatusOK, api.TokenResponse{Token: token})
}

func (h *Handler) Logout(c echo.Context) error {
	auth.ClearRefreshCookie(c, h.secureCookie)
	return c.JSON(http.StatusOK, api.MessageResponse{Message: "Logged out successfully"})
}

func (h *Handler) Me(c echo.Context) error {
	ident, _ := auth.IdentityFromContext(c.Request().Context())
	u, err := h.svc.GetUser(c.Request().Context(), ident.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}

	resp := echo.Map{"user": u.Payload()}
	if u.Role == auth.RoleDoctor && h.doctors != nil {
		doc, err := h.doctors.GetByUserID(c.Request().Context(), u.ID)
		switch {
		case err == nil:
			resp["doctorProfile"] = doc
		case !errors.Is(err, doctor.ErrDoctorNotFound):
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) ListPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	users, total, err := h.svc.ListPatients(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	payloads := make([]api.UserPayload, len(users))
	for i, u := range users {
		payloads[i] = u.Payload()
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(payloads, total, pg))
}

func (h *Handler) respondWithTokens(c echo.Context, u *User, status int) error {
	token, err := h.issuer.IssueAccessToken(u.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not issue token")
	}
	refresh, err := h.issuer.IssueRefreshToken(u.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not issue token")
	}
	auth.SetRefreshCookie(c, refresh, h.issuer.RefreshTTL(), h.secureCookie)
	return c.JSON(status, api.AuthResponse{User: u.Payload(), Token: token})
}

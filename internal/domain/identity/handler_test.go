package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medlink/medlink/internal/domain/doctor"
	"github.com/medlink/medlink/internal/platform/auth"
	"github.com/medlink/medlink/pkg/api"
)

func newTestServer(t *testing.T) (*echo.Echo, *Service, *auth.Issuer, *mockDoctorDirectory) {
	t.Helper()
	svc := NewService(newMockUserRepo())
	docs := newMockDoctorDirectory()
	issuer := auth.NewIssuer([]byte("access-secret"), []byte("refresh-secret"), 15*time.Minute, 168*time.Hour)

	e := echo.New()
	g := e.Group("/api", auth.SessionMiddleware(issuer, svc))
	NewHandler(svc, docs, issuer, false).RegisterRoutes(g)
	return e, svc, issuer, docs
}

type mockDoctorDirectory struct {
	byUser map[uuid.UUID]*doctor.Doctor
}

func newMockDoctorDirectory() *mockDoctorDirectory {
	return &mockDoctorDirectory{byUser: make(map[uuid.UUID]*doctor.Doctor)}
}

func (m *mockDoctorDirectory) GetByUserID(ctx context.Context, userID uuid.UUID) (*doctor.Doctor, error) {
	d, ok := m.byUser[userID]
	if !ok {
		return nil, doctor.ErrDoctorNotFound
	}
	return d, nil
}

func doJSON(e *echo.Echo, method, path, body string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func refreshCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	res := http.Response{Header: rec.Header()}
	for _, ck := range res.Cookies() {
		if ck.Name == auth.RefreshCookieName {
			return ck
		}
	}
	return nil
}

func TestHandler_Register(t *testing.T) {
	e, _, _, _ := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/api/auth/register",
		`{"name":"Jane","email":"jane@example.com","password":"secret123"}`, nil)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp api.AuthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Token == "" {
		t.Error("expected non-empty access token")
	}
	if resp.User.Role != "patient" {
		t.Errorf("expected patient role, got %s", resp.User.Role)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Error("response body must not mention passwords")
	}

	ck := refreshCookie(rec)
	if ck == nil {
		t.Fatal("expected refresh cookie to be set")
	}
	if !ck.HttpOnly {
		t.Error("refresh cookie must be http-only")
	}
	if ck.SameSite != http.SameSiteStrictMode {
		t.Error("refresh cookie must be same-site strict")
	}
}

func TestHandler_Register_ElevatedRoleRejected(t *testing.T) {
	e, _, _, _ := newTestServer(t)

	for _, role := range []string{"doctor", "admin"} {
		rec := doJSON(e, http.MethodPost, "/api/auth/register",
			`{"name":"Mallory","email":"m@example.com","password":"secret123","role":"`+role+`"}`, nil)
		if rec.Code != http.StatusForbidden {
			t.Errorf("role %s: expected 403, got %d", role, rec.Code)
		}
	}
}

func TestHandler_Register_DuplicateEmail(t *testing.T) {
	e, _, _, _ := newTestServer(t)

	body := `{"name":"Jane","email":"jane@example.com","password":"secret123"}`
	if rec := doJSON(e, http.MethodPost, "/api/auth/register", body, nil); rec.Code != http.StatusCreated {
		t.Fatalf("first register: expected 201, got %d", rec.Code)
	}
	rec := doJSON(e, http.MethodPost, "/api/auth/register", body, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}
}

func TestHandler_Login(t *testing.T) {
	e, svc, _, _ := newTestServer(t)
	if _, err := svc.Register(context.Background(), "Jane", "jane@example.com", "secret123", ""); err != nil {
		t.Fatalf("seeding user: %v", err)
	}

	rec := doJSON(e, http.MethodPost, "/api/auth/login",
		`{"email":"jane@example.com","password":"secret123"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if refreshCookie(rec) == nil {
		t.Error("expected refresh cookie on login")
	}

	var resp api.AuthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Token == "" || resp.User.Email != "jane@example.com" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestHandler_Login_UniformFailure(t *testing.T) {
	e, svc, _, _ := newTestServer(t)
	if _, err := svc.Register(context.Background(), "Jane", "jane@example.com", "secret123", ""); err != nil {
		t.Fatalf("seeding user: %v", err)
	}

	wrongPass := doJSON(e, http.MethodPost, "/api/auth/login",
		`{"email":"jane@example.com","password":"wrong12345"}`, nil)
	unknownEmail := doJSON(e, http.MethodPost, "/api/auth/login",
		`{"email":"ghost@example.com","password":"secret123"}`, nil)

	if wrongPass.Code != http.StatusUnauthorized || unknownEmail.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for both, got %d and %d", wrongPass.Code, unknownEmail.Code)
	}
	if wrongPass.Body.String() != unknownEmail.Body.String() {
		t.Error("login failures must be indistinguishable")
	}
}

func TestHandler_Refresh(t *testing.T) {
	e, svc, _, _ := newTestServer(t)
	if _, err := svc.Register(context.Background(), "Jane", "jane@example.com", "secret123", ""); err != nil {
		t.Fatalf("seeding user: %v", err)
	}
	login := doJSON(e, http.MethodPost, "/api/auth/login",
		`{"email":"jane@example.com","password":"secret123"}`, nil)
	ck := refreshCookie(login)
	if ck == nil {
		t.Fatal("expected refresh cookie from login")
	}

	rec := doJSON(e, http.MethodPost, "/api/auth/refresh-token", "", func(req *http.Request) {
		req.AddCookie(ck)
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp api.TokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Token == "" {
		t.Error("expected new access token")
	}

	// The refresh cookie is not rotated.
	if refreshCookie(rec) != nil {
		t.Error("refresh endpoint must not set a new cookie")
	}
}

func TestHandler_Refresh_Failures(t *testing.T) {
	e, svc, issuer, _ := newTestServer(t)
	u, err := svc.Register(context.Background(), "Jane", "jane@example.com", "secret123", "")
	if err != nil {
		t.Fatalf("seeding user: %v", err)
	}

	// Access token in the refresh cookie must be rejected: the two token
	// families are signed with different secrets.
	access, err := issuer.IssueAccessToken(u.ID)
	if err != nil {
		t.Fatalf("issuing access token: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*http.Request)
	}{
		{"no cookie", nil},
		{"garbage cookie", func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: auth.RefreshCookieName, Value: "not-a-jwt"})
		}},
		{"access token as refresh", func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: auth.RefreshCookieName, Value: access})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(e, http.MethodPost, "/api/auth/refresh-token", "", tt.mutate)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestHandler_Logout_ClearsCookie(t *testing.T) {
	e, _, _, _ := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/api/auth/logout", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	ck := refreshCookie(rec)
	if ck == nil {
		t.Fatal("expected cookie-clearing Set-Cookie header")
	}
	if ck.Value != "" || ck.MaxAge >= 0 {
		t.Errorf("expected expired empty cookie, got value=%q maxAge=%d", ck.Value, ck.MaxAge)
	}
}

func TestHandler_Me(t *testing.T) {
	e, svc, issuer, _ := newTestServer(t)
	u, err := svc.Register(context.Background(), "Jane", "jane@example.com", "secret123", "")
	if err != nil {
		t.Fatalf("seeding user: %v", err)
	}
	token, err := issuer.IssueAccessToken(u.ID)
	if err != nil {
		t.Fatalf("issuing token: %v", err)
	}

	rec := doJSON(e, http.MethodGet, "/api/auth/me", "", func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "jane@example.com") {
		t.Errorf("expected user in body, got %s", rec.Body.String())
	}

	// Patients never carry a doctorProfile.
	if strings.Contains(rec.Body.String(), "doctorProfile") {
		t.Errorf("unexpected doctorProfile in patient response: %s", rec.Body.String())
	}

	// Unauthenticated request is rejected.
	rec = doJSON(e, http.MethodGet, "/api/auth/me", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}
}

func TestHandler_Me_DoctorProfile(t *testing.T) {
	e, svc, issuer, docs := newTestServer(t)

	u := &User{Name: "Asha Rao", Email: "asha@example.com", PasswordHash: "x", Role: auth.RoleDoctor}
	if err := svc.users.Create(context.Background(), u); err != nil {
		t.Fatalf("seeding doctor user: %v", err)
	}
	docs.byUser[u.ID] = &doctor.Doctor{ID: uuid.New(), UserID: u.ID, Specialization: "Cardiology"}

	token, err := issuer.IssueAccessToken(u.ID)
	if err != nil {
		t.Fatalf("issuing token: %v", err)
	}
	rec := doJSON(e, http.MethodGet, "/api/auth/me", "", func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "doctorProfile") {
		t.Errorf("expected doctorProfile in body, got %s", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Cardiology") {
		t.Errorf("expected specialization in body, got %s", rec.Body.String())
	}

	// A doctor account without a profile row still gets its user payload.
	orphan := &User{Name: "New Hire", Email: "hire@example.com", PasswordHash: "x", Role: auth.RoleDoctor}
	if err := svc.users.Create(context.Background(), orphan); err != nil {
		t.Fatalf("seeding doctor user: %v", err)
	}
	token, _ = issuer.IssueAccessToken(orphan.ID)
	rec = doJSON(e, http.MethodGet, "/api/auth/me", "", func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "doctorProfile") {
		t.Errorf("unexpected doctorProfile for unlinked doctor: %s", rec.Body.String())
	}
}

func TestHandler_ListPatients_StaffOnly(t *testing.T) {
	e, svc, issuer, _ := newTestServer(t)
	patient, err := svc.Register(context.Background(), "Jane", "jane@example.com", "secret123", "")
	if err != nil {
		t.Fatalf("seeding patient: %v", err)
	}

	patientToken, _ := issuer.IssueAccessToken(patient.ID)
	rec := doJSON(e, http.MethodGet, "/api/admin/patients", "", func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+patientToken)
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("patient: expected 403, got %d", rec.Code)
	}

	admin := &User{Name: "Root", Email: "root@example.com", PasswordHash: "x", Role: auth.RoleAdmin}
	if err := svc.users.Create(context.Background(), admin); err != nil {
		t.Fatalf("seeding admin: %v", err)
	}
	adminToken, _ := issuer.IssueAccessToken(admin.ID)

	rec = doJSON(e, http.MethodGet, "/api/admin/patients", "", func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+adminToken)
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("admin: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "jane@example.com") {
		t.Errorf("expected roster to contain patient, got %s", rec.Body.String())
	}

	// Doctors browse the same roster when booking follow-ups.
	doc := &User{Name: "Asha Rao", Email: "asha@example.com", PasswordHash: "x", Role: auth.RoleDoctor}
	if err := svc.users.Create(context.Background(), doc); err != nil {
		t.Fatalf("seeding doctor: %v", err)
	}
	doctorToken, _ := issuer.IssueAccessToken(doc.ID)

	rec = doJSON(e, http.MethodGet, "/api/admin/patients", "", func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+doctorToken)
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("doctor: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "jane@example.com") {
		t.Errorf("expected roster to contain patient, got %s", rec.Body.String())
	}
}

package records

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medlink/medlink/internal/domain/identity"
	"github.com/medlink/medlink/internal/platform/auth"
	"github.com/medlink/medlink/internal/platform/blobstore"
)

type mockRecordRepo struct {
	records    map[uuid.UUID]*MedicalRecord
	failCreate bool
}

func newMockRecordRepo() *mockRecordRepo {
	return &mockRecordRepo{records: make(map[uuid.UUID]*MedicalRecord)}
}

func (m *mockRecordRepo) Create(_ context.Context, r *MedicalRecord) error {
	if m.failCreate {
		return errors.New("insert failed")
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.CreatedAt = time.Now()
	cp := *r
	m.records[r.ID] = &cp
	return nil
}

func (m *mockRecordRepo) GetByID(_ context.Context, id uuid.UUID) (*MedicalRecord, error) {
	r, ok := m.records[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *mockRecordRepo) ListByPatient(_ context.Context, patientID uuid.UUID, category *Category) ([]*MedicalRecord, error) {
	var out []*MedicalRecord
	for _, r := range m.records {
		if r.PatientID != patientID {
			continue
		}
		if category != nil && r.Category != *category {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

type mockUserRepo struct {
	users map[uuid.UUID]*identity.User
}

func (m *mockUserRepo) Create(_ context.Context, u *identity.User) error {
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*identity.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	return u, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*identity.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, identity.ErrUserNotFound
}

func (m *mockUserRepo) Update(_ context.Context, u *identity.User) error {
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) ListByRole(_ context.Context, role auth.Role, _, _ int) ([]*identity.User, int, error) {
	var out []*identity.User
	for _, u := range m.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, len(out), nil
}

type fixture struct {
	svc       *Service
	repo      *mockRecordRepo
	blobs     *blobstore.MemoryStore
	patientID uuid.UUID
	doctorID  uuid.UUID
}

func newFixture() *fixture {
	f := &fixture{
		repo:      newMockRecordRepo(),
		blobs:     blobstore.NewMemoryStore(),
		patientID: uuid.New(),
		doctorID:  uuid.New(),
	}
	users := &mockUserRepo{users: map[uuid.UUID]*identity.User{
		f.patientID: {ID: f.patientID, Name: "Jane Patient", Email: "jane@example.com", Role: auth.RolePatient},
		f.doctorID:  {ID: f.doctorID, Name: "Gregory House", Email: "house@example.com", Role: auth.RoleDoctor},
	}}
	f.svc = NewService(f.repo, users, f.blobs, zerolog.New(os.Stderr))
	return f
}

func (f *fixture) upload(t *testing.T) *MedicalRecord {
	t.Helper()
	rec, err := f.svc.Upload(context.Background(), f.doctorID, UploadInput{
		PatientID: f.patientID,
		Title:     "Blood panel",
		Category:  "lab_report",
		FileName:  "panel.pdf",
		File:      strings.NewReader("%PDF-1.4 fake"),
	})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	return rec
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in      string
		want    Category
		wantErr bool
	}{
		{"", CategoryOther, false},
		{"lab_report", CategoryLabReport, false},
		{"imaging", CategoryImaging, false},
		{"xray", "", true},
	}
	for _, tt := range tests {
		got, err := ParseCategory(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCategory(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseCategory(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestUpload_StoresBlobAndMetadata(t *testing.T) {
	f := newFixture()
	rec := f.upload(t)

	if rec.FileName != "panel.pdf" || rec.Category != CategoryLabReport {
		t.Errorf("record = %+v", rec)
	}
	if rec.UploadedBy != f.doctorID {
		t.Errorf("uploadedBy = %s, want doctor", rec.UploadedBy)
	}

	rc, err := f.blobs.Open(context.Background(), rec.BlobKey)
	if err != nil {
		t.Fatalf("blob missing after upload: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if !strings.HasPrefix(string(data), "%PDF-") {
		t.Errorf("blob content = %q", data)
	}
}

func TestUpload_Validation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	tests := []struct {
		name string
		in   UploadInput
	}{
		{"missing title", UploadInput{PatientID: f.patientID, FileName: "a.pdf", File: strings.NewReader("x")}},
		{"bad category", UploadInput{PatientID: f.patientID, Title: "t", Category: "xray", FileName: "a.pdf", File: strings.NewReader("x")}},
		{"unknown patient", UploadInput{PatientID: uuid.New(), Title: "t", FileName: "a.pdf", File: strings.NewReader("x")}},
		{"upload for a doctor", UploadInput{PatientID: f.doctorID, Title: "t", FileName: "a.pdf", File: strings.NewReader("x")}},
		{"unsupported file type", UploadInput{PatientID: f.patientID, Title: "t", FileName: "a.exe", File: strings.NewReader("x")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.Upload(ctx, f.doctorID, tt.in); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestUpload_CleansUpBlobOnInsertFailure(t *testing.T) {
	f := newFixture()
	f.repo.failCreate = true

	_, err := f.svc.Upload(context.Background(), f.doctorID, UploadInput{
		PatientID: f.patientID,
		Title:     "Blood panel",
		FileName:  "panel.pdf",
		File:      strings.NewReader("x"),
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if n := f.blobs.Len(); n != 0 {
		t.Errorf("blob store holds %d blobs after failed insert, want 0", n)
	}
}

func TestListForPatient_AccessControl(t *testing.T) {
	f := newFixture()
	f.upload(t)
	ctx := context.Background()

	recs, err := f.svc.ListForPatient(ctx, auth.Identity{UserID: f.patientID, Role: auth.RolePatient}, f.patientID, "")
	if err != nil || len(recs) != 1 {
		t.Errorf("own records: %v, %d", err, len(recs))
	}

	_, err = f.svc.ListForPatient(ctx, auth.Identity{UserID: uuid.New(), Role: auth.RolePatient}, f.patientID, "")
	if !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("foreign patient: err = %v, want ErrNotAuthorized", err)
	}

	recs, err = f.svc.ListForPatient(ctx, auth.Identity{UserID: f.doctorID, Role: auth.RoleDoctor}, f.patientID, "")
	if err != nil || len(recs) != 1 {
		t.Errorf("doctor: %v, %d", err, len(recs))
	}
}

func TestListMine_FiltersByCategory(t *testing.T) {
	f := newFixture()
	f.upload(t)
	ctx := context.Background()

	recs, err := f.svc.ListMine(ctx, f.patientID, "lab_report")
	if err != nil || len(recs) != 1 {
		t.Fatalf("lab_report: %v, %d", err, len(recs))
	}
	recs, err = f.svc.ListMine(ctx, f.patientID, "imaging")
	if err != nil || len(recs) != 0 {
		t.Errorf("imaging: %v, %d", err, len(recs))
	}
	if _, err := f.svc.ListMine(ctx, f.patientID, "bogus"); err == nil {
		t.Error("bogus category: expected error")
	}
}

func TestDownload_AccessControl(t *testing.T) {
	f := newFixture()
	rec := f.upload(t)
	ctx := context.Background()

	_, rc, err := f.svc.Download(ctx, auth.Identity{UserID: f.patientID, Role: auth.RolePatient}, rec.ID)
	if err != nil {
		t.Fatalf("owner download: %v", err)
	}
	rc.Close()

	_, _, err = f.svc.Download(ctx, auth.Identity{UserID: uuid.New(), Role: auth.RolePatient}, rec.ID)
	if !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("foreign patient: err = %v, want ErrNotAuthorized", err)
	}

	_, _, err = f.svc.Download(ctx, auth.Identity{UserID: f.patientID, Role: auth.RolePatient}, uuid.New())
	if !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("unknown record: err = %v, want ErrRecordNotFound", err)
	}
}

// handler tests

func newTestServer(f *fixture, ident *auth.Identity) *echo.Echo {
	e := echo.New()
	g := e.Group("/api", func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if ident != nil {
				ctx := auth.ContextWithIdentity(c.Request().Context(), *ident)
				c.SetRequest(c.Request().WithContext(ctx))
			}
			return next(c)
		}
	})
	NewHandler(f.svc).RegisterRoutes(g)
	return e
}

func multipartUpload(t *testing.T, fields map[string]string, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		w.WriteField(k, v)
	}
	fw, err := w.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(fw, content)
	w.Close()
	return &buf, w.FormDataContentType()
}

func TestHandler_Upload(t *testing.T) {
	f := newFixture()
	ident := auth.Identity{UserID: f.doctorID, Role: auth.RoleDoctor}
	e := newTestServer(f, &ident)

	body, ct := multipartUpload(t, map[string]string{
		"patientId": f.patientID.String(),
		"title":     "MRI scan",
		"category":  "imaging",
	}, "scan.png", "not-really-a-png")

	req := httptest.NewRequest(http.MethodPost, "/api/records", body)
	req.Header.Set(echo.HeaderContentType, ct)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"category":"imaging"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestHandler_Upload_PatientForbidden(t *testing.T) {
	f := newFixture()
	ident := auth.Identity{UserID: f.patientID, Role: auth.RolePatient}
	e := newTestServer(f, &ident)

	body, ct := multipartUpload(t, map[string]string{
		"patientId": f.patientID.String(),
		"title":     "t",
	}, "a.pdf", "x")

	req := httptest.NewRequest(http.MethodPost, "/api/records", body)
	req.Header.Set(echo.HeaderContentType, ct)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestHandler_Upload_RejectsExecutable(t *testing.T) {
	f := newFixture()
	ident := auth.Identity{UserID: f.doctorID, Role: auth.RoleDoctor}
	e := newTestServer(f, &ident)

	body, ct := multipartUpload(t, map[string]string{
		"patientId": f.patientID.String(),
		"title":     "t",
	}, "malware.exe", "x")

	req := httptest.NewRequest(http.MethodPost, "/api/records", body)
	req.Header.Set(echo.HeaderContentType, ct)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandler_Download(t *testing.T) {
	f := newFixture()
	stored := f.upload(t)
	ident := auth.Identity{UserID: f.patientID, Role: auth.RolePatient}
	e := newTestServer(f, &ident)

	req := httptest.NewRequest(http.MethodGet, "/api/records/"+stored.ID.String()+"/download", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "application/pdf" {
		t.Errorf("content type = %q, want application/pdf", ct)
	}
	if cd := rec.Header().Get(echo.HeaderContentDisposition); !strings.Contains(cd, "panel.pdf") {
		t.Errorf("content disposition = %q", cd)
	}
}

func TestHandler_ListMine_EmptyArray(t *testing.T) {
	f := newFixture()
	ident := auth.Identity{UserID: f.patientID, Role: auth.RolePatient}
	e := newTestServer(f, &ident)

	req := httptest.NewRequest(http.MethodGet, "/api/records/me", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"records":[]`) {
		t.Errorf("body = %s, want empty array", rec.Body.String())
	}
}

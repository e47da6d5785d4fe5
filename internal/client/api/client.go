// Package api is the HTTP client for the MedLink server. It keeps the
// refresh cookie in a jar, injects the bearer token on every call and
// transparently refreshes an expired access token: a 401 triggers one
// refresh followed by one retry, never more.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/medlink/medlink/internal/client/session"
	"github.com/medlink/medlink/pkg/api"
)

// nonRetryable lists the endpoints where a 401 is a real answer, not a
// stale token: credentials were wrong, or the refresh token itself is
// dead. Retrying these would loop.
var nonRetryable = map[string]struct{}{
	"/api/auth/register":      {},
	"/api/auth/login":         {},
	"/api/auth/refresh-token": {},
}

// APIError is a non-2xx response decoded from the server's error
// envelope.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.Status, e.Message)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	sessions   session.Store

	// refreshMu serializes refresh attempts so concurrent 401s do not
	// race each other.
	refreshMu sync.Mutex

	// onSessionExpired fires when a refresh fails and the session is
	// cleared. UIs hook their login redirect here.
	onSessionExpired func()
}

type Option func(*Client)

// WithSessionExpiredHook sets the callback fired after a failed refresh.
func WithSessionExpiredHook(fn func()) Option {
	return func(c *Client) { c.onSessionExpired = fn }
}

// WithHTTPClient replaces the underlying HTTP client. The cookie jar is
// still attached so the refresh cookie keeps working.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(baseURL string, sessions session.Store, opts ...Option) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	c := &Client{
		baseURL:  baseURL,
		sessions: sessions,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.httpClient.Jar = jar
	return c, nil
}

// Register creates a patient account and signs the new user in.
func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (*api.AuthResponse, error) {
	var resp api.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", req, &resp); err != nil {
		return nil, fmt.Errorf("register failed: %w", err)
	}
	c.sessions.Set(session.Session{AccessToken: resp.Token, User: resp.User})
	return &resp, nil
}

// Login authenticates and stores the resulting session.
func (c *Client) Login(ctx context.Context, req api.LoginRequest) (*api.AuthResponse, error) {
	var resp api.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", req, &resp); err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	c.sessions.Set(session.Session{AccessToken: resp.Token, User: resp.User})
	return &resp, nil
}

// Logout clears the server cookie and the local session. The local
// session is dropped even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	c.sessions.Clear()
	if err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	return nil
}

// Me fetches the signed-in user's profile.
func (c *Client) Me(ctx context.Context) (*api.UserPayload, error) {
	var resp struct {
		User api.UserPayload `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &resp); err != nil {
		return nil, fmt.Errorf("me failed: %w", err)
	}
	return &resp.User, nil
}

// Hospital is the client view of a hospital search result.
type Hospital struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	City       string   `json:"addressCity"`
	Phone      string   `json:"phone"`
	Latitude   float64  `json:"latitude"`
	Longitude  float64  `json:"longitude"`
	Amenities  []string `json:"amenities"`
	DistanceKm float64  `json:"distanceKm"`
}

// NearbyHospitals lists hospitals within radiusKm of the coordinates.
func (c *Client) NearbyHospitals(ctx context.Context, lat, lng, radiusKm float64) ([]Hospital, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))
	if radiusKm > 0 {
		q.Set("radius", strconv.FormatFloat(radiusKm, 'f', -1, 64))
	}
	var resp struct {
		Hospitals []Hospital `json:"hospitals"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/hospitals?"+q.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("hospital search failed: %w", err)
	}
	return resp.Hospitals, nil
}

// NearestHospital is the SOS lookup: the single closest hospital with
// no radius cap.
func (c *Client) NearestHospital(ctx context.Context, lat, lng float64) (*Hospital, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))
	var resp struct {
		Hospital Hospital `json:"hospital"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/hospitals/nearest?"+q.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("nearest hospital lookup failed: %w", err)
	}
	return &resp.Hospital, nil
}

// BookAppointmentRequest carries a booking.
type BookAppointmentRequest struct {
	DoctorID   string    `json:"doctorId"`
	HospitalID string    `json:"hospitalId"`
	Date       time.Time `json:"date"`
	Reason     string    `json:"reason,omitempty"`
}

// Appointment is the client view of an appointment.
type Appointment struct {
	ID           string    `json:"id"`
	Date         time.Time `json:"date"`
	Status       string    `json:"status"`
	Reason       string    `json:"reason,omitempty"`
	DoctorName   string    `json:"doctorName,omitempty"`
	HospitalName string    `json:"hospitalName,omitempty"`
}

func (c *Client) BookAppointment(ctx context.Context, req BookAppointmentRequest) (*Appointment, error) {
	var resp Appointment
	if err := c.do(ctx, http.MethodPost, "/api/appointments", req, &resp); err != nil {
		return nil, fmt.Errorf("booking failed: %w", err)
	}
	return &resp, nil
}

func (c *Client) MyAppointments(ctx context.Context) ([]Appointment, error) {
	var resp struct {
		Appointments []Appointment `json:"appointments"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/appointments/me", nil, &resp); err != nil {
		return nil, fmt.Errorf("listing appointments failed: %w", err)
	}
	return resp.Appointments, nil
}

// do runs one request with the bearer token attached. On a 401 from a
// retryable endpoint it refreshes the access token and replays the
// request exactly once.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	resp, respBody, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if _, fixed := nonRetryable[trimQuery(path)]; !fixed {
			if err := c.refresh(ctx); err != nil {
				c.expireSession()
				return fmt.Errorf("session expired: %w", err)
			}
			resp, respBody, err = c.send(ctx, method, path, body)
			if err != nil {
				return err
			}
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, respBody)
	}
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.sessions.Get().AccessToken; token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return resp, respBody, nil
}

// refresh exchanges the cookie-held refresh token for a new access
// token. Serialized so one refresh serves all concurrent 401s.
func (c *Client) refresh(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	resp, respBody, err := c.send(ctx, http.MethodPost, "/api/auth/refresh-token", nil)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp.StatusCode, respBody)
	}

	var tok api.TokenResponse
	if err := json.Unmarshal(respBody, &tok); err != nil {
		return fmt.Errorf("failed to decode refresh response: %w", err)
	}

	s := c.sessions.Get()
	s.AccessToken = tok.Token
	c.sessions.Set(s)
	return nil
}

func (c *Client) expireSession() {
	c.sessions.Clear()
	if c.onSessionExpired != nil {
		c.onSessionExpired()
	}
}

func decodeError(status int, body []byte) error {
	var errResp api.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
		return &APIError{Status: status, Message: errResp.Message}
	}
	return &APIError{Status: status, Message: string(body)}
}

func trimQuery(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[:i]
	}
	return path
}

// Package upstream is the typed client for the manager API the console fronts.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/apollotyres/console/internal/metrics"
	"github.com/apollotyres/console/internal/models"
)

// Errors returned alongside models.ErrTransport
var (
	ErrDecode  = fmt.Errorf("%w: undecodable response body", models.ErrTransport)
	ErrNonJSON = fmt.Errorf("%w: non-JSON response", models.ErrTransport)
)

// StatusError is a non-2xx answer from the API
type StatusError struct {
	Code    int
	Message string // server-provided message, if the body carried one
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upstream status %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("upstream status %d", e.Code)
}

// SessionRejected reports whether the API refused the session credential
func (e *StatusError) SessionRejected() bool {
	return e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden
}

// Unwrap maps the status onto the console's sentinel errors so callers can
// use errors.Is without inspecting codes.
func (e *StatusError) Unwrap() error {
	switch {
	case e.SessionRejected():
		return models.ErrSessionExpired
	case e.Code == http.StatusNotFound:
		return models.ErrNotFound
	default:
		return models.ErrDataUnavailable
	}
}

// AsStatusError unwraps a *StatusError from err
func AsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// Client issues requests against the API base URL
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client. A zero timeout leaves requests unbounded.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return NewClientWithHTTP(baseURL, &http.Client{Timeout: timeout}, logger)
}

// NewClientWithHTTP creates a client around an existing *http.Client
func NewClientWithHTTP(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// request describes one API call
type request struct {
	endpoint string // metrics label
	method   string
	path     string
	token    string
	body     any
}

// response is the raw outcome of a call that reached the server
type response struct {
	status      int
	contentType string
	body        []byte
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

func (r *response) isJSON() bool {
	mediaType, _, err := mime.ParseMediaType(r.contentType)
	return err == nil && (mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"))
}

// statusError builds a StatusError, lifting a message or error field from a JSON body
func (r *response) statusError() *StatusError {
	se := &StatusError{Code: r.status}
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(r.body, &body) == nil {
		se.Message = body.Message
		if se.Message == "" {
			se.Message = body.Error
		}
	}
	return se
}

func (c *Client) do(ctx context.Context, req request) (*response, error) {
	start := time.Now()
	defer func() {
		metrics.UpstreamCallDuration.WithLabelValues(req.endpoint).Observe(time.Since(start).Seconds())
	}()

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s request: %w", req.endpoint, err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", req.endpoint, err)
	}
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		metrics.UpstreamCallsTotal.WithLabelValues(req.endpoint, metrics.OutcomeTransport).Inc()
		c.logger.Warn("upstream request failed",
			slog.String("endpoint", req.endpoint),
			slog.Any("error", err))
		return nil, fmt.Errorf("%w: %s %s: %v", models.ErrTransport, req.method, req.endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.UpstreamCallsTotal.WithLabelValues(req.endpoint, metrics.OutcomeTransport).Inc()
		return nil, fmt.Errorf("%w: reading %s response: %v", models.ErrTransport, req.endpoint, err)
	}

	out := &response{
		status:      resp.StatusCode,
		contentType: resp.Header.Get("Content-Type"),
		body:        raw,
	}

	outcome := metrics.OutcomeOK
	if !out.ok() {
		outcome = metrics.OutcomeStatus
	}
	metrics.UpstreamCallsTotal.WithLabelValues(req.endpoint, outcome).Inc()

	c.logger.Debug("upstream request completed",
		slog.String("endpoint", req.endpoint),
		slog.Int("status", out.status),
		slog.String("duration", time.Since(start).String()))

	return out, nil
}

// call performs req and decodes a 2xx JSON body into out
func (c *Client) call(ctx context.Context, req request, out any) error {
	resp, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	if !resp.ok() {
		return resp.statusError()
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		metrics.UpstreamCallsTotal.WithLabelValues(req.endpoint, metrics.OutcomeDecode).Inc()
		return fmt.Errorf("%w: %s: %v", ErrDecode, req.endpoint, err)
	}
	return nil
}

// LoginResponse carries the login status and the body as loosely typed JSON.
// An unparseable body leaves Body empty; the status stays authoritative.
type LoginResponse struct {
	Status int
	Body   map[string]any
}

// OK reports a 2xx status
func (r *LoginResponse) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Login posts credentials. Only transport failures are returned as errors.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	resp, err := c.do(ctx, request{
		endpoint: "login",
		method:   http.MethodPost,
		path:     "/api/login",
		body:     map[string]string{"email": email, "password": password},
	})
	if err != nil {
		return nil, err
	}

	out := &LoginResponse{Status: resp.status, Body: map[string]any{}}
	var body map[string]any
	if err := json.Unmarshal(resp.body, &body); err == nil && body != nil {
		out.Body = body
	}
	return out, nil
}

// UsersResponse is the manager roster listing
type UsersResponse struct {
	Success bool                    `json:"success"`
	Users   []models.EngineerRecord `json:"users"`
	Message string                  `json:"message,omitempty"`
}

func (c *Client) ListUsers(ctx context.Context, token string) (*UsersResponse, error) {
	var out UsersResponse
	err := c.call(ctx, request{
		endpoint: "users",
		method:   http.MethodGet,
		path:     "/api/manager/users",
		token:    token,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// NotificationsResponse is the sidebar notifications listing
type NotificationsResponse struct {
	Success       bool     `json:"success"`
	Notifications []string `json:"notifications"`
}

func (c *Client) Notifications(ctx context.Context, token string) (*NotificationsResponse, error) {
	var out NotificationsResponse
	err := c.call(ctx, request{
		endpoint: "notifications",
		method:   http.MethodGet,
		path:     "/api/manager/notifications",
		token:    token,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ActivityResponse is the sidebar recent-activity listing
type ActivityResponse struct {
	Success    bool     `json:"success"`
	Activities []string `json:"activities"`
}

func (c *Client) RecentActivity(ctx context.Context, token string) (*ActivityResponse, error) {
	var out ActivityResponse
	err := c.call(ctx, request{
		endpoint: "recent_activity",
		method:   http.MethodGet,
		path:     "/api/manager/recent-activity",
		token:    token,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AddUserResponse is the outcome of creating an engineer account
type AddUserResponse struct {
	Status  int    `json:"-"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// OK reports a 2xx status with success set
func (r *AddUserResponse) OK() bool {
	return r.Status >= 200 && r.Status < 300 && r.Success
}

// AddUser creates an engineer account. Any non-JSON answer is an error
// (ErrNonJSON); a JSON answer is returned whatever its status so the server
// message can be shown.
func (c *Client) AddUser(ctx context.Context, token, email, password string) (*AddUserResponse, error) {
	resp, err := c.do(ctx, request{
		endpoint: "add_user",
		method:   http.MethodPost,
		path:     "/api/manager/add-user",
		token:    token,
		body:     map[string]string{"email": email, "password": password},
	})
	if err != nil {
		return nil, err
	}
	// A refused credential is the session's failure, not the form's
	if resp.status == http.StatusUnauthorized || resp.status == http.StatusForbidden {
		return nil, resp.statusError()
	}
	if !resp.isJSON() {
		return nil, fmt.Errorf("%w: add-user answered %q with status %d", ErrNonJSON, resp.contentType, resp.status)
	}

	out := AddUserResponse{Status: resp.status}
	if err := json.Unmarshal(resp.body, &out); err != nil {
		metrics.UpstreamCallsTotal.WithLabelValues("add_user", metrics.OutcomeDecode).Inc()
		return nil, fmt.Errorf("%w: add_user: %v", ErrDecode, err)
	}
	out.Status = resp.status
	return &out, nil
}

// ProjectsResponse is one user's project list
type ProjectsResponse struct {
	Success  bool                    `json:"success"`
	Projects []models.ProjectSummary `json:"projects"`
	Message  string                  `json:"message,omitempty"`
}

func (c *Client) UserProjects(ctx context.Context, token, email string) (*ProjectsResponse, error) {
	var out ProjectsResponse
	err := c.call(ctx, request{
		endpoint: "user_projects",
		method:   http.MethodGet,
		path:     "/api/manager/user-projects?email=" + url.QueryEscape(email),
		token:    token,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ProjectResponse is a single project's detail
type ProjectResponse struct {
	Success bool                  `json:"success"`
	Project *models.ProjectDetail `json:"project"`
	Message string                `json:"message,omitempty"`
}

// Project fetches one project. The endpoint is not bearer-protected.
func (c *Client) Project(ctx context.Context, id string) (*ProjectResponse, error) {
	var out ProjectResponse
	err := c.call(ctx, request{
		endpoint: "project",
		method:   http.MethodGet,
		path:     "/api/projects/" + url.PathEscape(id),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

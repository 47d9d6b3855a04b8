package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/apollotyres/console/internal/metrics"
	"github.com/apollotyres/console/internal/models"
	"github.com/apollotyres/console/internal/session"
	"github.com/apollotyres/console/internal/ui"
	"github.com/apollotyres/console/internal/upstream"
	"github.com/apollotyres/console/pkg/logger"
)

// Page locations the flow routes to
const (
	LoginPage            = "/login.html"
	ManagerDashboardPage = "/manager-dashboard.html"
	UserDashboardPage    = "/user-dashboard.html"
)

// ErrorSlot is the text slot login failures are reported in
const ErrorSlot = "errorMessage"

// User-facing login messages
const (
	MsgMissingFields = "Please enter both email and password"
	MsgNoToken       = "Login succeeded but no token received"
	MsgTransport     = "An error occurred during login. Please try again."
)

// tokenFields are checked in order for the session credential
var tokenFields = []string{"token", "accessToken", "authToken"}

// LoginAPI is the part of the upstream client the flow needs
type LoginAPI interface {
	Login(ctx context.Context, email, password string) (*upstream.LoginResponse, error)
}

// Page is the document a login form lives in
type Page interface {
	SetTextTone(id, value string, tone ui.Tone)
	Replace(url string)
	Assign(url string)
	Current() string
	Navigations() uint64
}

// Credentials is a submitted login form
type Credentials struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

// LoginError is a terminal failure of one submission. Kind is one of the
// models sentinel errors; Message is what the form shows.
type LoginError struct {
	Kind    error
	Message string
}

func (e *LoginError) Error() string {
	return e.Message
}

func (e *LoginError) Unwrap() error {
	return e.Kind
}

// Result is a completed login
type Result struct {
	Role   models.Role
	Target string
}

// Flow submits login forms and routes the session to its dashboard
type Flow struct {
	api      LoginAPI
	validate *validator.Validate
	logger   *slog.Logger
	audit    *logger.AuditLogger
	fallback time.Duration

	mu     sync.Mutex
	timers map[*time.Timer]struct{}
}

// NewFlow creates a login flow. fallback is the delay before the redirect is
// issued a second time in case the first did not take effect.
func NewFlow(api LoginAPI, fallback time.Duration, log *slog.Logger, audit *logger.AuditLogger) *Flow {
	if log == nil {
		log = slog.Default()
	}
	if audit == nil {
		audit = logger.NewAuditLogger(log)
	}
	return &Flow{
		api:      api,
		validate: validator.New(),
		logger:   log,
		audit:    audit,
		fallback: fallback,
		timers:   make(map[*time.Timer]struct{}),
	}
}

// Submit runs one login attempt. Failures are reported on the page and
// returned as *LoginError; the form stays usable for another attempt.
func (f *Flow) Submit(ctx context.Context, page Page, store *session.Store, creds Credentials) (*Result, error) {
	page.SetTextTone(ErrorSlot, "", ui.ToneNone)

	result, err := f.submit(ctx, page, store, creds)
	if err != nil {
		var le *LoginError
		if !errors.As(err, &le) {
			le = &LoginError{Kind: models.ErrTransport, Message: MsgTransport}
			f.logger.Error("login failed", slog.Any("error", err))
		}
		page.SetTextTone(ErrorSlot, le.Message, ui.ToneError)
		metrics.LoginOutcomesTotal.WithLabelValues(outcomeLabel(le.Kind)).Inc()
		f.audit.LogLogin(logger.AuditEvent{
			EventType:     "login",
			UserID:        logger.SanitizedEmail(creds.Email),
			Success:       false,
			FailureReason: le.Kind.Error(),
		})
		return nil, le
	}

	metrics.LoginOutcomesTotal.WithLabelValues(metrics.OutcomeOK).Inc()
	f.audit.LogLogin(logger.AuditEvent{
		EventType: "login",
		UserID:    logger.SanitizedEmail(creds.Email),
		Success:   true,
		Metadata:  map[string]string{"role": string(result.Role)},
	})
	return result, nil
}

func (f *Flow) submit(ctx context.Context, page Page, store *session.Store, creds Credentials) (*Result, error) {
	if err := f.validate.Struct(creds); err != nil {
		return nil, &LoginError{Kind: models.ErrValidation, Message: MsgMissingFields}
	}

	resp, err := f.api.Login(ctx, creds.Email, creds.Password)
	if err != nil {
		return nil, &LoginError{Kind: models.ErrTransport, Message: MsgTransport}
	}

	if !resp.OK() {
		msg := firstText(resp.Body, "message", "error")
		if msg == "" {
			msg = fmt.Sprintf("Login failed (status %d)", resp.Status)
		}
		return nil, &LoginError{Kind: models.ErrAuthRejected, Message: msg}
	}

	token := firstText(resp.Body, tokenFields...)
	if token == "" {
		return nil, &LoginError{Kind: models.ErrMissingCredential, Message: MsgNoToken}
	}

	if err := store.Set(ctx, session.KeyToken, token); err != nil {
		return nil, err
	}

	user, hasUser := resp.Body["user"].(map[string]any)
	role := firstText(user, "role")
	if role == "" {
		role = firstText(resp.Body, "role")
	}

	// Claims are only consulted when the body did not name a role
	if role == "" {
		if claims, ok := DecodeClaims(token); ok {
			role = claims.Role()
			if err := persist(ctx, store, map[string]string{
				session.KeyEmail: claims.String("email"),
				session.KeyName:  claims.String("name"),
			}); err != nil {
				return nil, err
			}
		}
	}

	if hasUser {
		if err := persist(ctx, store, map[string]string{
			session.KeyEmail:     firstText(user, "email"),
			session.KeyName:      firstText(user, "name"),
			session.KeyRole:      firstText(user, "role"),
			session.KeyCreatedAt: firstText(user, "createdAt", "created_at"),
			session.KeyLastLogin: firstText(user, "lastLogin", "last_login"),
		}); err != nil {
			return nil, err
		}
	} else if err := store.Set(ctx, session.KeyRole, role); err != nil {
		return nil, err
	}

	resolved := models.ParseRole(role)
	target := UserDashboardPage
	if resolved == models.RoleManager {
		target = ManagerDashboardPage
	}

	page.Replace(target)
	f.scheduleFallback(page, target)

	return &Result{Role: resolved, Target: target}, nil
}

// scheduleFallback navigates to target again after the fallback delay unless
// the page already got there. Any navigation after the redirect cancels it.
func (f *Flow) scheduleFallback(page Page, target string) {
	if f.fallback <= 0 {
		return
	}
	navs := page.Navigations()

	f.mu.Lock()
	defer f.mu.Unlock()

	var timer *time.Timer
	timer = time.AfterFunc(f.fallback, func() {
		f.mu.Lock()
		delete(f.timers, timer)
		f.mu.Unlock()

		if page.Navigations() == navs && page.Current() != target {
			page.Assign(target)
		}
	})
	f.timers[timer] = struct{}{}
}

// Pending is the number of fallback redirects not yet fired
func (f *Flow) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.timers)
}

// Stop cancels every pending fallback redirect
func (f *Flow) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for timer := range f.timers {
		timer.Stop()
		delete(f.timers, timer)
	}
}

func persist(ctx context.Context, store *session.Store, values map[string]string) error {
	for _, key := range session.AllKeys {
		if v, ok := values[key]; ok {
			if err := store.Set(ctx, key, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// firstText returns the first field of body holding a usable scalar
func firstText(body map[string]any, keys ...string) string {
	for _, key := range keys {
		if v := claimText(body[key]); v != "" {
			return v
		}
	}
	return ""
}

func outcomeLabel(kind error) string {
	switch {
	case errors.Is(kind, models.ErrValidation):
		return "validation_error"
	case errors.Is(kind, models.ErrAuthRejected):
		return "rejected"
	case errors.Is(kind, models.ErrMissingCredential):
		return "missing_token"
	default:
		return metrics.OutcomeTransport
	}
}

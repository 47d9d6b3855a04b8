// Package dashboard drives the manager dashboard page around the engineer
// roster and its filters.
package dashboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/apollotyres/console/internal/auth"
	"github.com/apollotyres/console/internal/inputs"
	"github.com/apollotyres/console/internal/models"
	"github.com/apollotyres/console/internal/projects"
	"github.com/apollotyres/console/internal/roster"
	"github.com/apollotyres/console/internal/session"
	"github.com/apollotyres/console/internal/ui"
	"github.com/apollotyres/console/internal/upstream"
	"github.com/apollotyres/console/pkg/logger"
)

// Element ids of the manager dashboard
const (
	ErrorSlot          = "errorMessage"
	TotalEngineersSlot = "totalEngineers"
	TotalProjectsSlot  = "totalProjects"
	ActiveSlot         = "activeEngineers"
	NotificationsArea  = "notificationsArea"
	ActivityList       = "recentActivityList"
	SearchInput        = "searchInput"
	ActivityFilter     = "activityFilter"
	AddUserErrorSlot   = "addUserError"
	NewEmailInput      = "newEngineerEmail"
	NewPasswordInput   = "newEngineerPassword"
)

// SidebarTimeout bounds the detached notifications and activity fetches
const SidebarTimeout = 15 * time.Second

// User-facing dashboard messages
const (
	MsgNotAuthenticated    = "Not authenticated"
	MsgLoadFailed          = "Failed to load data"
	MsgAddNotAuthenticated = "Not authenticated."
	MsgAddRequired         = "Email and password are required"
	MsgAddNonJSON          = "Server returned non-JSON response"
	MsgAddSucceeded        = "Engineer added successfully!"
	MsgAddFailed           = "Error adding engineer."
	MsgAddTransport        = "Error adding user."
	MsgRefreshFailed       = "Failed to load users."
	MsgRefreshTransport    = "Error loading users."
)

var (
	notificationsTmpl = template.Must(template.New("notifications").Parse(
		`{{range .}}<div>{{.}}</div>{{end}}`))
	activitiesTmpl = template.Must(template.New("activities").Parse(
		`{{range .}}<li>{{.}}</li>{{end}}`))
)

// API is the part of the upstream client the dashboard uses
type API interface {
	ListUsers(ctx context.Context, token string) (*upstream.UsersResponse, error)
	Notifications(ctx context.Context, token string) (*upstream.NotificationsResponse, error)
	RecentActivity(ctx context.Context, token string) (*upstream.ActivityResponse, error)
	AddUser(ctx context.Context, token, email, password string) (*upstream.AddUserResponse, error)
	projects.ProjectsAPI
	inputs.ProjectAPI
}

type newEngineer struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

// Dashboard is the manager dashboard of one tab
type Dashboard struct {
	doc      *ui.Document
	store    *session.Store
	api      API
	modal    *projects.Modal
	logger   *slog.Logger
	audit    *logger.AuditLogger
	validate *validator.Validate
	now      func() time.Time

	mu       sync.Mutex
	records  []models.EngineerRecord
	sidebars sync.WaitGroup
}

// New creates the dashboard of a tab
func New(doc *ui.Document, store *session.Store, api API, log *slog.Logger, audit *logger.AuditLogger) *Dashboard {
	if log == nil {
		log = slog.Default()
	}
	if audit == nil {
		audit = logger.NewAuditLogger(log)
	}
	panel := inputs.NewPanel(doc, api, log)
	return &Dashboard{
		doc:      doc,
		store:    store,
		api:      api,
		modal:    projects.NewModal(doc, api, store, panel, log),
		logger:   log,
		audit:    audit,
		validate: validator.New(),
		now:      time.Now,
	}
}

// SetClock replaces the clock used for the activity window
func (d *Dashboard) SetClock(now func() time.Time) {
	d.now = now
}

// localNow is the current time in the display zone, which zoneless
// timestamps are read in
func (d *Dashboard) localNow() time.Time {
	return d.now().In(d.doc.TimeZone())
}

// Modal is the project drill-down of this dashboard
func (d *Dashboard) Modal() *projects.Modal {
	return d.modal
}

// Records returns the roster of the last successful fetch
func (d *Dashboard) Records() []models.EngineerRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]models.EngineerRecord(nil), d.records...)
}

// Load is the page entry. Without a session it only reports the
// unauthenticated state. Otherwise the roster and both sidebars are fetched
// concurrently. Load returns once the roster is in; the sidebars keep running
// detached from the request, bounded by SidebarTimeout, and fill their regions
// for a later render. Sidebar failures are ignored.
func (d *Dashboard) Load(ctx context.Context) error {
	token := d.store.Token(ctx)
	if token == "" {
		d.doc.SetTextTone(ErrorSlot, MsgNotAuthenticated, ui.ToneError)
		return nil
	}

	gen := d.doc.Generation()

	sidebarCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), SidebarTimeout)
	d.sidebars.Add(1)
	go func() {
		defer d.sidebars.Done()
		defer cancel()

		var g errgroup.Group
		g.Go(func() error {
			d.loadNotifications(sidebarCtx, token, gen)
			return nil
		})
		g.Go(func() error {
			d.loadActivities(sidebarCtx, token, gen)
			return nil
		})
		_ = g.Wait()
	}()

	return d.loadRoster(ctx, token, gen)
}

// WaitSidebars blocks until every detached sidebar fetch has finished
func (d *Dashboard) WaitSidebars() {
	d.sidebars.Wait()
}

func (d *Dashboard) loadRoster(ctx context.Context, token string, gen uint64) error {
	resp, err := d.api.ListUsers(ctx, token)
	if d.doc.Generation() != gen {
		return nil
	}

	if err != nil {
		if se, ok := upstream.AsStatusError(err); ok {
			if se.SessionRejected() {
				return d.expire(ctx, "roster_rejected")
			}
			d.doc.SetTextTone(ErrorSlot, fmt.Sprintf("HTTP error! status: %d", se.Code), ui.ToneError)
			return nil
		}
		d.logger.Warn("failed to load roster", slog.Any("error", err))
		d.doc.SetTextTone(ErrorSlot, MsgLoadFailed, ui.ToneError)
		return nil
	}
	if !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = MsgLoadFailed
		}
		d.doc.SetTextTone(ErrorSlot, msg, ui.ToneError)
		return nil
	}

	d.setRecords(resp.Users)
	d.doc.OnChange(SearchInput, d.refilter)
	d.doc.OnChange(ActivityFilter, d.refilter)
	return d.render()
}

func (d *Dashboard) loadNotifications(ctx context.Context, token string, gen uint64) {
	resp, err := d.api.Notifications(ctx, token)
	if err != nil || !resp.Success || len(resp.Notifications) == 0 || d.doc.Generation() != gen {
		return
	}

	var buf bytes.Buffer
	if err := notificationsTmpl.Execute(&buf, resp.Notifications); err != nil {
		d.logger.Error("failed to render notifications", slog.Any("error", err))
		return
	}
	d.doc.ReplaceRegion(NotificationsArea, template.HTML(buf.String()), nil)
}

func (d *Dashboard) loadActivities(ctx context.Context, token string, gen uint64) {
	resp, err := d.api.RecentActivity(ctx, token)
	if err != nil || !resp.Success || resp.Activities == nil || d.doc.Generation() != gen {
		return
	}

	var buf bytes.Buffer
	if err := activitiesTmpl.Execute(&buf, resp.Activities); err != nil {
		d.logger.Error("failed to render recent activity", slog.Any("error", err))
		return
	}
	d.doc.ReplaceRegion(ActivityList, template.HTML(buf.String()), nil)
}

func (d *Dashboard) setRecords(records []models.EngineerRecord) {
	d.mu.Lock()
	d.records = records
	d.mu.Unlock()

	m := ComputeMetrics(records, d.localNow())
	d.doc.SetText(TotalEngineersSlot, strconv.Itoa(m.TotalEngineers))
	d.doc.SetText(TotalProjectsSlot, strconv.Itoa(m.TotalProjects))
	d.doc.SetText(ActiveSlot, strconv.Itoa(m.ActiveEngineers))
}

// FilterState reads the filter controls
func (d *Dashboard) FilterState() models.FilterState {
	activity := models.ActivityPredicate(d.doc.Value(ActivityFilter))
	if activity == "" {
		activity = models.ActivityAll
	}
	return models.FilterState{
		SearchText: d.doc.Value(SearchInput),
		Activity:   activity,
	}
}

func (d *Dashboard) refilter(context.Context) error {
	return d.render()
}

// render rebuilds the table from the full record set and the filter controls
func (d *Dashboard) render() error {
	visible := roster.Filter(d.Records(), d.FilterState(), d.localNow())
	return roster.Render(d.doc, visible, func(ctx context.Context, email string) error {
		_, err := d.modal.Show(ctx, email)
		return err
	})
}

// AddEngineer submits the add-engineer form. On success the form is reset
// and the roster is fetched again.
func (d *Dashboard) AddEngineer(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	d.doc.SetTextTone(AddUserErrorSlot, "", ui.ToneNone)

	token := d.store.Token(ctx)
	if token == "" {
		d.doc.SetTextTone(AddUserErrorSlot, MsgAddNotAuthenticated, ui.ToneError)
		return nil
	}
	if err := d.validate.Struct(newEngineer{Email: email, Password: password}); err != nil {
		d.doc.SetTextTone(AddUserErrorSlot, MsgAddRequired, ui.ToneError)
		return nil
	}

	resp, err := d.api.AddUser(ctx, token, email, password)
	if err != nil {
		if errors.Is(err, models.ErrSessionExpired) {
			return d.expire(ctx, "add_user_rejected")
		}
		msg := MsgAddTransport
		if errors.Is(err, upstream.ErrNonJSON) {
			msg = MsgAddNonJSON
		}
		d.logger.Warn("failed to add engineer", slog.Any("error", err))
		d.audit.LogAccountAction("add_engineer", logger.SanitizedEmail(email), false, err.Error())
		d.doc.SetTextTone(AddUserErrorSlot, msg, ui.ToneError)
		return nil
	}

	if !resp.OK() {
		msg := resp.Message
		if msg == "" {
			msg = MsgAddFailed
		}
		d.audit.LogAccountAction("add_engineer", logger.SanitizedEmail(email), false, msg)
		d.doc.SetTextTone(AddUserErrorSlot, msg, ui.ToneError)
		return nil
	}

	d.audit.LogAccountAction("add_engineer", logger.SanitizedEmail(email), true, "")
	d.doc.SetValue(NewEmailInput, "")
	d.doc.SetValue(NewPasswordInput, "")
	d.doc.SetTextTone(AddUserErrorSlot, MsgAddSucceeded, ui.ToneSuccess)
	return d.refresh(ctx)
}

// refresh fetches the roster again after a mutation
func (d *Dashboard) refresh(ctx context.Context) error {
	token := d.store.Token(ctx)
	if token == "" {
		d.doc.SetTextTone(ErrorSlot, MsgAddNotAuthenticated, ui.ToneError)
		return nil
	}

	resp, err := d.api.ListUsers(ctx, token)
	if err != nil {
		if se, ok := upstream.AsStatusError(err); ok {
			if se.SessionRejected() {
				return d.expire(ctx, "roster_rejected")
			}
			msg := se.Message
			if msg == "" {
				msg = MsgRefreshFailed
			}
			d.doc.SetTextTone(ErrorSlot, msg, ui.ToneError)
			return nil
		}
		d.logger.Warn("failed to reload roster", slog.Any("error", err))
		d.doc.SetTextTone(ErrorSlot, MsgRefreshTransport, ui.ToneError)
		return nil
	}
	if !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = MsgRefreshFailed
		}
		d.doc.SetTextTone(ErrorSlot, msg, ui.ToneError)
		return nil
	}

	d.setRecords(resp.Users)
	d.doc.SetTextTone(ErrorSlot, "", ui.ToneNone)
	d.doc.OnChange(SearchInput, d.refilter)
	d.doc.OnChange(ActivityFilter, d.refilter)
	return d.render()
}

// Logout ends the session and returns to the login page
func (d *Dashboard) Logout(ctx context.Context) error {
	d.audit.LogSessionEnded(d.store.Scope(), "logout")
	return auth.EndSession(ctx, d.store, d.doc)
}

func (d *Dashboard) expire(ctx context.Context, reason string) error {
	d.audit.LogSessionEnded(d.store.Scope(), reason)
	return auth.EndSession(ctx, d.store, d.doc)
}

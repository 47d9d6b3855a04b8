// Package projects shows an engineer's projects in a modal on the manager
// dashboard.
package projects

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/apollotyres/console/internal/auth"
	"github.com/apollotyres/console/internal/inputs"
	"github.com/apollotyres/console/internal/metrics"
	"github.com/apollotyres/console/internal/models"
	"github.com/apollotyres/console/internal/session"
	"github.com/apollotyres/console/internal/ui"
	"github.com/apollotyres/console/internal/upstream"
)

// OverlayKind identifies project modals on the overlay stack
const OverlayKind = "projects"

// WorkspacePage is where a completed project opens
const WorkspacePage = "/select.html"

// User-facing modal messages
const (
	MsgNotAuthenticated = "Not authenticated"
	MsgLoadFailed       = "Failed to load projects: "
	MsgLoadFallback     = "Failed to load projects"
	MsgEmpty            = "No projects found for this user."
	placeholder         = "—"
)

var modalTmpl = template.Must(template.New("projects").Parse(`
{{- if .Rows -}}
<table class="md-table">
<thead><tr><th>Project</th><th>Protocol</th><th>Created</th><th>Status</th><th>Actions</th></tr></thead>
<tbody>
{{- range .Rows}}
<tr data-id="{{.ID}}">
<td>{{.Name}}</td>
<td>{{.Protocol}}</td>
<td>{{.Created}}</td>
<td><span class="md-status {{.PillClass}}">{{.Status}}</span></td>
<td><div class="md-actions">
{{- if .InputsAction}}<button type="submit" name="action" value="{{.InputsAction}}" class="md-btn inputs">View Inputs</button>{{else}}<span class="md-noaction">No inputs</span>{{end}}
{{- if .OpenAction}}<button type="submit" name="action" value="{{.OpenAction}}" class="md-btn primary">Open</button>{{end -}}
</div></td>
</tr>
{{- end}}
</tbody>
</table>
{{- else -}}
<div class="md-empty">No projects found for this user.</div>
{{- end}}`))

type modalRow struct {
	ID           string
	Name         string
	Protocol     string
	Created      string
	Status       string
	PillClass    string
	InputsAction string
	OpenAction   string
}

// ProjectsAPI lists the projects of one engineer
type ProjectsAPI interface {
	UserProjects(ctx context.Context, token, email string) (*upstream.ProjectsResponse, error)
}

// Modal opens project lists in one document
type Modal struct {
	doc    *ui.Document
	api    ProjectsAPI
	store  *session.Store
	panel  *inputs.Panel
	logger *slog.Logger

	seq atomic.Uint64
}

func NewModal(doc *ui.Document, api ProjectsAPI, store *session.Store, panel *inputs.Panel, logger *slog.Logger) *Modal {
	if logger == nil {
		logger = slog.Default()
	}
	return &Modal{doc: doc, api: api, store: store, panel: panel, logger: logger}
}

// WorkspaceURL is the location of a project's workspace
func WorkspaceURL(id string) string {
	return WorkspacePage + "?projectId=" + strings.ReplaceAll(url.QueryEscape(id), "+", "%20")
}

// Show fetches email's projects and opens them in a modal. Failures alert and
// open nothing. A response superseded by a later Show, or arriving after the
// page was re-entered, is dropped.
func (m *Modal) Show(ctx context.Context, email string) (*ui.Overlay, error) {
	token := m.store.Token(ctx)
	if token == "" {
		m.doc.Alert(MsgNotAuthenticated)
		return nil, nil
	}

	seq := m.seq.Add(1)
	gen := m.doc.Generation()

	resp, err := m.api.UserProjects(ctx, token, email)

	if m.seq.Load() != seq || m.doc.Generation() != gen {
		metrics.StaleResponsesTotal.WithLabelValues(OverlayKind).Inc()
		return nil, nil
	}

	if err != nil {
		if errors.Is(err, models.ErrSessionExpired) {
			m.logger.Info("session rejected by upstream", slog.String("client_id", m.store.Scope()))
			return nil, auth.EndSession(ctx, m.store, m.doc)
		}
		msg := MsgLoadFallback
		if se, ok := upstream.AsStatusError(err); ok && se.Message != "" {
			msg = se.Message
		}
		m.logger.Warn("failed to load user projects", slog.Any("error", err))
		m.doc.Alert(MsgLoadFailed + msg)
		return nil, nil
	}
	if !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = MsgLoadFallback
		}
		m.doc.Alert(MsgLoadFailed + msg)
		return nil, nil
	}

	overlay := m.doc.NewOverlay(OverlayKind, "Projects for "+email, nil)
	body, err := m.render(overlay, resp.Projects)
	if err != nil {
		return nil, err
	}
	if err := overlay.Open(body); err != nil {
		return nil, nil
	}
	return overlay, nil
}

func (m *Modal) render(overlay *ui.Overlay, projects []models.ProjectSummary) (template.HTML, error) {
	loc := m.doc.TimeZone()
	rows := make([]modalRow, 0, len(projects))

	for _, p := range projects {
		id := p.ID
		status := p.Status
		if status == "" {
			status = placeholder
		}
		row := modalRow{
			ID:        id,
			Name:      p.DisplayName(),
			Protocol:  p.Protocol,
			Created:   p.CreatedAt.Localized(loc, placeholder),
			Status:    status,
			PillClass: p.Classified().PillClass(),
		}
		if p.HasInputs() {
			row.InputsAction = overlay.Bind("inputs:"+id, func(ctx context.Context) error {
				_, err := m.panel.Show(ctx, overlay, id)
				return err
			})
		}
		if p.Openable() {
			row.OpenAction = overlay.Bind("open:"+id, func(context.Context) error {
				m.doc.Assign(WorkspaceURL(id))
				return nil
			})
		}
		rows = append(rows, row)
	}

	var buf bytes.Buffer
	if err := modalTmpl.Execute(&buf, struct{ Rows []modalRow }{rows}); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

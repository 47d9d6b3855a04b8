// Package roster renders the manager's engineer table and its filter.
package roster

import (
	"bytes"
	"context"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/apollotyres/console/internal/models"
	"github.com/apollotyres/console/internal/ui"
)

// Region is the document region holding the table
const Region = "usersTable"

const viewActionPrefix = "view-projects:"

// Placeholder shown for absent values
const Placeholder = "-"

var tableTmpl = template.Must(template.New("roster").Parse(`<table class="users-table">
<thead><tr><th>Email</th><th>Role</th><th>Created</th><th>Last Login</th><th>Projects</th><th>Actions</th></tr></thead>
<tbody>
{{- range .}}
<tr>
<td>{{.Email}}</td>
<td>{{.Role}}</td>
<td>{{.Created}}</td>
<td>{{.LastLogin}}</td>
<td>{{.Projects}}</td>
<td><button type="submit" name="action" value="{{.Action}}" class="view-projects-btn" data-email="{{.Email}}">View Projects</button></td>
</tr>
{{- end}}
</tbody>
</table>`))

type row struct {
	Email     string
	Role      string
	Created   string
	LastLogin string
	Projects  string
	Action    string
}

// ViewAction is the action id of an engineer's "View Projects" button
func ViewAction(email string) string {
	return viewActionPrefix + strings.ToLower(email)
}

// ViewFunc opens the project list of an engineer
type ViewFunc func(ctx context.Context, email string) error

// Filter returns the records matching state. records is never modified.
func Filter(records []models.EngineerRecord, state models.FilterState, now time.Time) []models.EngineerRecord {
	search := strings.ToLower(state.SearchText)

	out := make([]models.EngineerRecord, 0, len(records))
	for _, r := range records {
		if !strings.Contains(strings.ToLower(r.Email), search) {
			continue
		}
		switch state.Activity {
		case models.ActivityActive:
			if !r.ActiveAt(now) {
				continue
			}
		case models.ActivityInactive:
			if r.ActiveAt(now) {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

// Render rebuilds the table region from records. Each render replaces the
// previous bindings, so one click on a row triggers exactly one onView.
func Render(doc *ui.Document, records []models.EngineerRecord, onView ViewFunc) error {
	loc := doc.TimeZone()
	rows := make([]row, 0, len(records))
	actions := make(map[string]ui.Action, len(records))

	for _, r := range records {
		email := r.Email
		action := ViewAction(email)

		projects := Placeholder
		if r.ProjectCount.Present {
			projects = strconv.Itoa(r.ProjectCount.Value)
		}
		rows = append(rows, row{
			Email:     email,
			Role:      r.Role,
			Created:   r.CreatedAt.Localized(loc, Placeholder),
			LastLogin: r.LastLogin.Localized(loc, Placeholder),
			Projects:  projects,
			Action:    action,
		})
		actions[action] = func(ctx context.Context) error {
			return onView(ctx, email)
		}
	}

	var buf bytes.Buffer
	if err := tableTmpl.Execute(&buf, rows); err != nil {
		return err
	}
	doc.ReplaceRegion(Region, template.HTML(buf.String()), actions)
	return nil
}

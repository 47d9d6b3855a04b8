package views_test

import (
	"html/template"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apollotyres/console/internal/ui"
	"github.com/apollotyres/console/internal/views"
)

func render(t *testing.T, name string, page views.Page) string {
	t.Helper()
	r, err := views.NewRenderer()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, r.Render(rec, http.StatusOK, name, page))
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	return rec.Body.String()
}

func TestRender_LoginShowsErrorWithTone(t *testing.T) {
	doc := ui.NewDocument(time.UTC)
	doc.SetTextTone("errorMessage", "Invalid <credentials>", ui.ToneError)

	body := render(t, views.LoginView, views.Page{Snapshot: doc.Snapshot(), CSRFToken: "tok123"})

	assert.Contains(t, body, `class="error-message"`)
	assert.Contains(t, body, "Invalid &lt;credentials&gt;")
	assert.Contains(t, body, `name="csrf_token" value="tok123"`)
	assert.NotContains(t, body, `id="keyForm"`)
}

func TestRender_LoginHidesEmptyError(t *testing.T) {
	doc := ui.NewDocument(time.UTC)

	body := render(t, views.LoginView, views.Page{Snapshot: doc.Snapshot()})

	assert.Contains(t, body, `<div id="errorMessage" class="" hidden></div>`)
}

func TestRender_OverlaysCarryCloseAndBackdrop(t *testing.T) {
	doc := ui.NewDocument(time.UTC)
	parent := doc.NewOverlay("projects", "Projects · alice", nil)
	require.NoError(t, parent.Open(template.HTML(`<p>rows</p>`)))
	child := doc.NewOverlay("inputs", "Inputs · MF6", parent)
	require.NoError(t, child.Open(template.HTML(`<p>inputs</p>`)))

	body := render(t, views.ManagerDashboardView, views.Page{Snapshot: doc.Snapshot(), CSRFToken: "t"})

	assert.Contains(t, body, `value="`+parent.CloseAction()+`"`)
	assert.Contains(t, body, `value="`+child.CloseAction()+`"`)
	assert.Contains(t, body, `name="overlay" value="`+child.ID()+`"`)
	assert.Contains(t, body, `data-parent="`+parent.ID()+`"`)
	assert.Contains(t, body, "Projects · alice")
	assert.Contains(t, body, `id="keyForm"`)
	assert.Contains(t, body, `data-focus="`+child.CloseAction()+`"`)
}

func TestRender_DashboardHidesEmptyNotifications(t *testing.T) {
	doc := ui.NewDocument(time.UTC)

	body := render(t, views.ManagerDashboardView, views.Page{Snapshot: doc.Snapshot()})
	assert.Contains(t, body, `<div id="notificationsArea" class="notifications" hidden></div>`)

	doc.ReplaceRegion("notificationsArea", template.HTML("<div>Rig 3 offline</div>"), nil)
	body = render(t, views.ManagerDashboardView, views.Page{Snapshot: doc.Snapshot()})
	assert.Contains(t, body, `<div id="notificationsArea" class="notifications"><div>Rig 3 offline</div></div>`)
}

func TestRender_AlertsAreEscaped(t *testing.T) {
	doc := ui.NewDocument(time.UTC)

	body := render(t, views.ManagerDashboardView, views.Page{
		Snapshot: doc.Snapshot(),
		Alerts:   []string{"Failed <b>x</b>"},
	})

	assert.Contains(t, body, "Failed &lt;b&gt;x&lt;/b&gt;")
}

func TestRender_UnknownView(t *testing.T) {
	r, err := views.NewRenderer()
	require.NoError(t, err)

	err = r.Render(httptest.NewRecorder(), http.StatusOK, "missing.html", views.Page{})
	assert.Error(t, err)
}

func TestStatic_ServesScript(t *testing.T) {
	rec := httptest.NewRecorder()
	views.Static().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/console.js", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "keyForm")
}

// Package views renders the console pages from document snapshots.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/apollotyres/console/internal/models"
	"github.com/apollotyres/console/internal/ui"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Template names
const (
	LoginView            = "login.html"
	ManagerDashboardView = "manager-dashboard.html"
	UserDashboardView    = "user-dashboard.html"
)

// Page is the data every view renders
type Page struct {
	Snapshot  ui.Snapshot
	CSRFToken string
	Alerts    []string
	Session   models.Session
}

var funcs = template.FuncMap{
	"toneClass": func(t ui.Tone) string {
		switch t {
		case ui.ToneError:
			return "error-message"
		case ui.ToneSuccess:
			return "success-message"
		default:
			return ""
		}
	},
}

// Renderer holds the parsed page templates
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every page together with the shared layout
func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, name := range []string{LoginView, ManagerDashboardView, UserDashboardView} {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render writes the named page. The page is rendered to a buffer first so a
// template failure never leaves a half-written response.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, page Page) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown view %q", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "page", page); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Static serves the stylesheet and the key forwarding script
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}

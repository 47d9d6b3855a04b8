// Package handlers serves the console pages and replays UI events posted by
// them against the client's document.
package handlers

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/apollotyres/console/internal/auth"
	"github.com/apollotyres/console/internal/tabs"
	"github.com/apollotyres/console/internal/views"
	pkghttp "github.com/apollotyres/console/pkg/http"
)

// pages maps the locations the console serves to their views
var pages = map[string]string{
	auth.LoginPage:            views.LoginView,
	auth.ManagerDashboardPage: views.ManagerDashboardView,
	auth.UserDashboardPage:    views.UserDashboardView,
}

// ConsoleHandler handles page loads and UI events
type ConsoleHandler struct {
	registry *tabs.Registry
	flow     *auth.Flow
	views    *views.Renderer
	cookies  auth.CookieConfig
	logger   *slog.Logger
}

// NewConsoleHandler creates a new ConsoleHandler
func NewConsoleHandler(registry *tabs.Registry, flow *auth.Flow, renderer *views.Renderer, cookies auth.CookieConfig, logger *slog.Logger) *ConsoleHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsoleHandler{
		registry: registry,
		flow:     flow,
		views:    renderer,
		cookies:  cookies,
		logger:   logger,
	}
}

// request is one request bound to its client's tab
type request struct {
	tab     *tabs.Tab
	csrf    string
	created bool
}

// acquire resolves the client's tab and makes sure the client holds both
// the client cookie and a csrf cookie
func (h *ConsoleHandler) acquire(w http.ResponseWriter, r *http.Request) (*request, error) {
	clientID, _ := auth.GetClientCookie(r)
	tab, created := h.registry.Acquire(clientID)
	if tab.ID != clientID {
		auth.SetClientCookie(w, tab.ID, h.cookies)
	}

	token, err := auth.GetCSRFTokenCookie(r)
	if err != nil || token == "" {
		token, err = auth.GenerateCSRFToken()
		if err != nil {
			return nil, err
		}
		auth.SetCSRFTokenCookie(w, token, h.cookies)
	}

	return &request{tab: tab, csrf: token, created: created}, nil
}

// render writes the snapshot of the page the tab currently shows
func (h *ConsoleHandler) render(w http.ResponseWriter, r *http.Request, req *request) {
	doc := req.tab.Doc
	view, ok := pages[doc.Current()]
	if !ok {
		http.Redirect(w, r, auth.LoginPage, http.StatusSeeOther)
		return
	}

	page := views.Page{
		Snapshot:  doc.Snapshot(),
		CSRFToken: req.csrf,
		Alerts:    doc.TakeAlerts(),
	}
	if view == views.UserDashboardView {
		s, err := req.tab.Store.Profile(r.Context())
		if err != nil {
			h.internalError(w, "failed to read session", err)
			return
		}
		page.Session = s
	}

	if err := h.views.Render(w, http.StatusOK, view, page); err != nil {
		h.internalError(w, "failed to render page", err)
	}
}

// finish completes a UI event: a document that navigated is followed with a
// redirect, anything else re-renders in place
func (h *ConsoleHandler) finish(w http.ResponseWriter, r *http.Request, req *request, before string) {
	if after := req.tab.Doc.Current(); after != before {
		http.Redirect(w, r, after, http.StatusSeeOther)
		return
	}
	h.render(w, r, req)
}

func (h *ConsoleHandler) internalError(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, slog.Any("error", err))
	pkghttp.WriteInternalError(w, "An internal error occurred")
}

// reloadTarget is where an event from a tab that no longer exists is sent:
// the page it was posted from, or the login page
func reloadTarget(r *http.Request) string {
	if ref, err := url.Parse(r.Referer()); err == nil {
		if _, ok := pages[ref.Path]; ok {
			return ref.Path
		}
	}
	return auth.LoginPage
}

// event wraps a UI event handler. Events from a freshly created tab have no
// document to act on, so the client is sent back to reload its page.
func (h *ConsoleHandler) event(fn func(w http.ResponseWriter, r *http.Request, req *request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			pkghttp.WriteBadRequest(w, "Invalid form submission")
			return
		}

		req, err := h.acquire(w, r)
		if err != nil {
			h.internalError(w, "failed to acquire tab", err)
			return
		}
		if req.created {
			http.Redirect(w, r, reloadTarget(r), http.StatusSeeOther)
			return
		}

		before := req.tab.Doc.Current()
		if err := fn(w, r, req); err != nil {
			h.internalError(w, "ui event failed", err)
			return
		}
		h.finish(w, r, req, before)
	}
}

package handlers

import (
	"context"
	"net/http"

	"github.com/apollotyres/console/internal/auth"
	"github.com/apollotyres/console/internal/tabs"
)

// Index sends the browser to the login entry point
func (h *ConsoleHandler) Index(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, auth.LoginPage, http.StatusFound)
}

// Login serves the login page
func (h *ConsoleHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.enter(w, r, auth.LoginPage, nil)
}

// ManagerDashboard serves the manager dashboard and runs its loader
func (h *ConsoleHandler) ManagerDashboard(w http.ResponseWriter, r *http.Request) {
	h.enter(w, r, auth.ManagerDashboardPage, func(ctx context.Context, tab *tabs.Tab) error {
		return tab.Dashboard.Load(ctx)
	})
}

// UserDashboard serves the dashboard of the user role
func (h *ConsoleHandler) UserDashboard(w http.ResponseWriter, r *http.Request) {
	h.enter(w, r, auth.UserDashboardPage, nil)
}

// enter is a page load. The tab's document starts over as on a browser
// reload, then the page's entry logic runs.
func (h *ConsoleHandler) enter(w http.ResponseWriter, r *http.Request, location string, entry func(context.Context, *tabs.Tab) error) {
	req, err := h.acquire(w, r)
	if err != nil {
		h.internalError(w, "failed to acquire tab", err)
		return
	}

	doc := req.tab.Doc
	doc.Reset()
	doc.Replace(location)

	if entry != nil {
		if err := entry(r.Context(), req.tab); err != nil {
			h.internalError(w, "page entry failed", err)
			return
		}
	}
	h.finish(w, r, req, location)
}

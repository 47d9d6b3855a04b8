package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/apollotyres/console/internal/auth"
	"github.com/apollotyres/console/internal/dashboard"
	"github.com/apollotyres/console/internal/ui"
)

// Login form fields
const (
	emailField    = "email"
	passwordField = "password"
)

// filterControls are the controls the filter form posts
var filterControls = []string{dashboard.SearchInput, dashboard.ActivityFilter}

// SubmitLogin handles the login form. Failures are shown on the form.
func (h *ConsoleHandler) SubmitLogin(w http.ResponseWriter, r *http.Request) {
	h.event(func(w http.ResponseWriter, r *http.Request, req *request) error {
		creds := auth.Credentials{
			Email:    r.PostFormValue(emailField),
			Password: r.PostFormValue(passwordField),
		}
		req.tab.Doc.SetValue(emailField, creds.Email)

		_, err := h.flow.Submit(r.Context(), req.tab.Doc, req.tab.Store, creds)
		var le *auth.LoginError
		if errors.As(err, &le) {
			return nil
		}
		return err
	})(w, r)
}

// Action activates a bound control. Unknown or stale action ids are
// ignored, as a click on a control that is no longer on the page would be.
func (h *ConsoleHandler) Action(w http.ResponseWriter, r *http.Request) {
	h.event(func(w http.ResponseWriter, r *http.Request, req *request) error {
		actionID := r.PostFormValue("action")
		doc := req.tab.Doc

		doc.Focus(actionID)
		err := doc.Click(r.Context(), actionID)
		if errors.Is(err, ui.ErrUnknownAction) {
			h.logger.Debug("ignoring unknown action", slog.String("action", actionID))
			return nil
		}
		return err
	})(w, r)
}

// Key delivers a key press to the document's listeners
func (h *ConsoleHandler) Key(w http.ResponseWriter, r *http.Request) {
	h.event(func(w http.ResponseWriter, r *http.Request, req *request) error {
		req.tab.Doc.PressKey(r.PostFormValue("key"))
		return nil
	})(w, r)
}

// Backdrop dismisses the overlay whose background was clicked
func (h *ConsoleHandler) Backdrop(w http.ResponseWriter, r *http.Request) {
	h.event(func(w http.ResponseWriter, r *http.Request, req *request) error {
		req.tab.Doc.ClickBackdrop(r.PostFormValue("overlay"))
		return nil
	})(w, r)
}

// Change applies the filter form. Like a browser change event, only
// controls whose value actually changed fire.
func (h *ConsoleHandler) Change(w http.ResponseWriter, r *http.Request) {
	h.event(func(w http.ResponseWriter, r *http.Request, req *request) error {
		doc := req.tab.Doc
		for _, control := range filterControls {
			if _, ok := r.PostForm[control]; !ok {
				continue
			}
			value := r.PostFormValue(control)
			if value == doc.Value(control) {
				continue
			}
			if err := doc.Change(r.Context(), control, value); err != nil {
				return err
			}
		}
		return nil
	})(w, r)
}

// AddEngineer submits the add-engineer form
func (h *ConsoleHandler) AddEngineer(w http.ResponseWriter, r *http.Request) {
	h.event(func(w http.ResponseWriter, r *http.Request, req *request) error {
		email := r.PostFormValue(dashboard.NewEmailInput)
		req.tab.Doc.SetValue(dashboard.NewEmailInput, email)
		return req.tab.Dashboard.AddEngineer(r.Context(), email, r.PostFormValue(dashboard.NewPasswordInput))
	})(w, r)
}

// Logout ends the session
func (h *ConsoleHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.event(func(w http.ResponseWriter, r *http.Request, req *request) error {
		return req.tab.Dashboard.Logout(r.Context())
	})(w, r)
}

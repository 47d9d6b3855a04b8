package middleware

import (
	"log/slog"
	"net/http"

	"github.com/apollotyres/console/internal/auth"
	pkghttp "github.com/apollotyres/console/pkg/http"
)

// CSRFFormField is the form field pages submit the token in
const CSRFFormField = "csrf_token"

// CSRFHeader is accepted in place of the form field
const CSRFHeader = "X-CSRF-Token"

// CSRFProtection enforces the double-submit cookie pattern on every
// state-changing request: the token posted with the form (or sent in the
// header) must match the csrf cookie issued with the page.
func CSRFProtection(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isStateChangingMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := auth.GetCSRFTokenCookie(r)
			if err != nil {
				logger.Warn("CSRF cookie missing",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path))
				pkghttp.WriteForbidden(w, "CSRF token missing")
				return
			}

			submitted := r.Header.Get(CSRFHeader)
			if submitted == "" {
				submitted = r.PostFormValue(CSRFFormField)
			}

			if !auth.ValidCSRF(cookie, submitted) {
				logger.Warn("CSRF token validation failed",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path))
				pkghttp.WriteForbidden(w, "CSRF token invalid")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// isStateChangingMethod checks if the HTTP method modifies state
func isStateChangingMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	default:
		return false
	}
}

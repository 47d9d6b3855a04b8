package auth

import (
	"net/http"
	"time"
)

// Cookie names
const (
	ClientCookieName = "console_client"
	CSRFCookieName   = "csrf_token"
)

// clientCookieMaxAge is how long a browser keeps its client id
const clientCookieMaxAge = 30 * 24 * time.Hour

// CookieConfig holds cookie configuration settings
type CookieConfig struct {
	Domain   string // Empty string = current host only
	Secure   bool   // HTTPS only
	SameSite string // "strict", "lax", or "none"
}

// SetClientCookie stores the id of the browser's console tab in an httpOnly cookie
func SetClientCookie(w http.ResponseWriter, clientID string, config CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     ClientCookieName,
		Value:    clientID,
		Path:     "/",
		Domain:   config.Domain,
		Expires:  time.Now().Add(clientCookieMaxAge),
		MaxAge:   int(clientCookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   config.Secure,
		SameSite: parseSameSite(config.SameSite),
	})
}

// SetCSRFTokenCookie sets the double-submit token. Pages echo it back as a
// hidden form field.
func SetCSRFTokenCookie(w http.ResponseWriter, csrfToken string, config CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    csrfToken,
		Path:     "/",
		Domain:   config.Domain,
		MaxAge:   int(clientCookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   config.Secure,
		SameSite: parseSameSite(config.SameSite),
	})
}

// GetClientCookie retrieves the client id from cookies
func GetClientCookie(r *http.Request) (string, error) {
	cookie, err := r.Cookie(ClientCookieName)
	if err != nil {
		return "", err
	}
	return cookie.Value, nil
}

// GetCSRFTokenCookie retrieves the CSRF token from cookies
func GetCSRFTokenCookie(r *http.Request) (string, error) {
	cookie, err := r.Cookie(CSRFCookieName)
	if err != nil {
		return "", err
	}
	return cookie.Value, nil
}

// parseSameSite converts string to http.SameSite constant
func parseSameSite(sameSite string) http.SameSite {
	switch sameSite {
	case "strict":
		return http.SameSiteStrictMode
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

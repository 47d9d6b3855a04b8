package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apollotyres/console/internal/auth"
)

func TestClientCookie_RoundTrip(t *testing.T) {
	rec := httptest.NewRecorder()
	auth.SetClientCookie(rec, "client-123", auth.CookieConfig{Secure: true, SameSite: "strict"})

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, http.SameSiteStrictMode, cookies[0].SameSite)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	id, err := auth.GetClientCookie(req)
	require.NoError(t, err)
	assert.Equal(t, "client-123", id)
}

func TestGetCSRFTokenCookie_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := auth.GetCSRFTokenCookie(req)
	assert.ErrorIs(t, err, http.ErrNoCookie)
}

func TestCSRFToken(t *testing.T) {
	a, err := auth.GenerateCSRFToken()
	require.NoError(t, err)
	b, err := auth.GenerateCSRFToken()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	assert.True(t, auth.ValidCSRF(a, a))
	assert.False(t, auth.ValidCSRF(a, b))
	assert.False(t, auth.ValidCSRF("", ""))
}

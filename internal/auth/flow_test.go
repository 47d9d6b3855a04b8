package auth_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/apollotyres/console/internal/auth"
	"github.com/apollotyres/console/internal/models"
	"github.com/apollotyres/console/internal/session"
	"github.com/apollotyres/console/internal/testapi"
	"github.com/apollotyres/console/internal/ui"
	"github.com/apollotyres/console/internal/upstream"
)

func newFlow(api *testapi.Server) *auth.Flow {
	return auth.NewFlow(upstream.NewClient(api.URL, 0, nil), 0, nil, nil)
}

func newTab() (*ui.Document, *session.Store) {
	doc := ui.NewDocument(time.UTC)
	doc.Replace(auth.LoginPage)
	return doc, session.NewStore(session.NewMemoryBackend(), "tab-1")
}

func stored(t *testing.T, store *session.Store, key string) string {
	t.Helper()
	v, _, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	return v
}

func TestSubmit_EmptyFieldsMakeNoCall(t *testing.T) {
	api := testapi.New(t)
	flow := newFlow(api)

	for _, creds := range []auth.Credentials{
		{Email: "", Password: "pw"},
		{Email: "a@x.com", Password: ""},
		{},
	} {
		doc, store := newTab()
		_, err := flow.Submit(context.Background(), doc, store, creds)

		assert.ErrorIs(t, err, models.ErrValidation)
		assert.Equal(t, auth.MsgMissingFields, doc.Text(auth.ErrorSlot))
	}
	assert.Equal(t, 0, api.Hits("/api/login"))
}

func TestSubmit_ManagerRoleFromUserObject(t *testing.T) {
	api := testapi.New(t)
	api.AddAccount(testapi.Account{Email: "lead@apollo.com", Password: "pw", Name: "Lead", Role: "Manager"})
	doc, store := newTab()

	result, err := newFlow(api).Submit(context.Background(), doc, store, auth.Credentials{Email: "lead@apollo.com", Password: "pw"})

	require.NoError(t, err)
	assert.Equal(t, models.RoleManager, result.Role)
	assert.Equal(t, auth.ManagerDashboardPage, doc.Current())
	// replaced, not pushed
	assert.Equal(t, []string{auth.ManagerDashboardPage}, doc.History())

	assert.NotEmpty(t, stored(t, store, session.KeyToken))
	assert.Equal(t, "Manager", stored(t, store, session.KeyRole))
	assert.Equal(t, "lead@apollo.com", stored(t, store, session.KeyEmail))
	assert.Equal(t, "Lead", stored(t, store, session.KeyName))
	assert.Equal(t, "2026-01-05T09:00:00Z", stored(t, store, session.KeyCreatedAt))
	assert.Equal(t, "2026-10-13T08:30:00Z", stored(t, store, session.KeyLastLogin))
	assert.Empty(t, doc.Text(auth.ErrorSlot))
}

func TestSubmit_RoleFromTopLevelField(t *testing.T) {
	api := testapi.New(t)
	api.AddAccount(testapi.Account{Email: "eng@apollo.com", Password: "pw", Role: "user", RoleIn: testapi.RoleInBody})
	doc, store := newTab()

	result, err := newFlow(api).Submit(context.Background(), doc, store, auth.Credentials{Email: "eng@apollo.com", Password: "pw"})

	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, result.Role)
	assert.Equal(t, auth.UserDashboardPage, doc.Current())
	assert.Equal(t, "user", stored(t, store, session.KeyRole))
}

func TestSubmit_RoleFromTokenClaims(t *testing.T) {
	api := testapi.New(t)
	api.AddAccount(testapi.Account{
		Email:    "claims@apollo.com",
		Password: "pw",
		RoleIn:   testapi.RoleInNone,
		Claims:   jwt.MapClaims{"role": "user", "email": "claims@apollo.com", "name": "Zoë"},
	})
	doc, store := newTab()

	result, err := newFlow(api).Submit(context.Background(), doc, store, auth.Credentials{Email: "claims@apollo.com", Password: "pw"})

	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, result.Role)
	assert.Equal(t, "user", stored(t, store, session.KeyRole))
	assert.Equal(t, "claims@apollo.com", stored(t, store, session.KeyEmail))
	assert.Equal(t, "Zoë", stored(t, store, session.KeyName))
}

func TestSubmit_ManagerFromMicrosoftClaim(t *testing.T) {
	api := testapi.New(t)
	api.AddAccount(testapi.Account{
		Email:      "ms@apollo.com",
		Password:   "pw",
		RoleIn:     testapi.RoleInNone,
		TokenField: "accessToken",
		Claims:     jwt.MapClaims{auth.MicrosoftRoleClaim: "MANAGER"},
	})
	doc, store := newTab()

	result, err := newFlow(api).Submit(context.Background(), doc, store, auth.Credentials{Email: "ms@apollo.com", Password: "pw"})

	require.NoError(t, err)
	assert.Equal(t, auth.ManagerDashboardPage, result.Target)
	assert.Equal(t, "MANAGER", stored(t, store, session.KeyRole))
}

func TestSubmit_UnknownRoleGoesToUserDashboard(t *testing.T) {
	api := testapi.New(t)
	api.AddAccount(testapi.Account{Email: "x@apollo.com", Password: "pw", RoleIn: testapi.RoleInNone, TokenField: "authToken"})
	doc, store := newTab()

	result, err := newFlow(api).Submit(context.Background(), doc, store, auth.Credentials{Email: "x@apollo.com", Password: "pw"})

	require.NoError(t, err)
	assert.Equal(t, models.RoleUnknown, result.Role)
	assert.Equal(t, auth.UserDashboardPage, doc.Current())
	_, ok, err := store.Get(context.Background(), session.KeyRole)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSubmit_Rejected(t *testing.T) {
	api := testapi.New(t)
	doc, store := newTab()

	_, err := newFlow(api).Submit(context.Background(), doc, store, auth.Credentials{Email: "who@apollo.com", Password: "bad"})

	assert.ErrorIs(t, err, models.ErrAuthRejected)
	assert.Equal(t, "Invalid email or password", doc.Text(auth.ErrorSlot))
	assert.Equal(t, auth.LoginPage, doc.Current())
	assert.Empty(t, store.Token(context.Background()))
}

func TestSubmit_RejectedWithoutBodyMessage(t *testing.T) {
	api := testapi.New(t)
	api.Override("/api/login", http.StatusInternalServerError, "text/plain", "boom")
	doc, store := newTab()

	_, err := newFlow(api).Submit(context.Background(), doc, store, auth.Credentials{Email: "a@apollo.com", Password: "pw"})

	assert.ErrorIs(t, err, models.ErrAuthRejected)
	assert.Equal(t, "Login failed (status 500)", doc.Text(auth.ErrorSlot))
}

func TestSubmit_RejectedErrorField(t *testing.T) {
	api := testapi.New(t)
	api.Override("/api/login", http.StatusTooManyRequests, "application/json", `{"error":"Too many attempts"}`)
	doc, store := newTab()

	_, err := newFlow(api).Submit(context.Background(), doc, store, auth.Credentials{Email: "a@apollo.com", Password: "pw"})

	assert.ErrorIs(t, err, models.ErrAuthRejected)
	assert.Equal(t, "Too many attempts", doc.Text(auth.ErrorSlot))
}

func TestSubmit_MissingToken(t *testing.T) {
	api := testapi.New(t)
	api.AddAccount(testapi.Account{Email: "a@apollo.com", Password: "pw", Role: "manager", TokenField: "-"})
	doc, store := newTab()

	_, err := newFlow(api).Submit(context.Background(), doc, store, auth.Credentials{Email: "a@apollo.com", Password: "pw"})

	assert.ErrorIs(t, err, models.ErrMissingCredential)
	assert.Equal(t, auth.MsgNoToken, doc.Text(auth.ErrorSlot))
	sess, err := store.Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.Session{Role: models.RoleUnknown}, sess)
}

func TestSubmit_TransportFailure(t *testing.T) {
	api := testapi.New(t)
	flow := newFlow(api)
	api.Close()
	doc, store := newTab()

	_, err := flow.Submit(context.Background(), doc, store, auth.Credentials{Email: "a@apollo.com", Password: "pw"})

	assert.ErrorIs(t, err, models.ErrTransport)
	assert.Equal(t, auth.MsgTransport, doc.Text(auth.ErrorSlot))
}

func TestSubmit_RetryAfterFailureClearsMessage(t *testing.T) {
	api := testapi.New(t)
	api.AddAccount(testapi.Account{Email: "a@apollo.com", Password: "pw", Role: "user"})
	flow := newFlow(api)
	doc, store := newTab()

	_, err := flow.Submit(context.Background(), doc, store, auth.Credentials{Email: "a@apollo.com", Password: "wrong"})
	require.Error(t, err)

	_, err = flow.Submit(context.Background(), doc, store, auth.Credentials{Email: "a@apollo.com", Password: "pw"})
	require.NoError(t, err)
	assert.Empty(t, doc.Text(auth.ErrorSlot))
}

// stubAPI answers every login with a fixed response
type stubAPI struct {
	resp *upstream.LoginResponse
}

func (s stubAPI) Login(context.Context, string, string) (*upstream.LoginResponse, error) {
	return s.resp, nil
}

// stuckPage ignores Replace, like a browser that did not navigate
type stuckPage struct {
	mu       sync.Mutex
	location string
	assigned []string
}

func (p *stuckPage) SetTextTone(string, string, ui.Tone) {}
func (p *stuckPage) Replace(string)                      {}
func (p *stuckPage) Navigations() uint64                 { return 0 }

func (p *stuckPage) Assign(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.location = url
	p.assigned = append(p.assigned, url)
}

func (p *stuckPage) Current() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.location
}

func (p *stuckPage) Assigned() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.assigned...)
}

func managerResponse() *upstream.LoginResponse {
	return &upstream.LoginResponse{
		Status: http.StatusOK,
		Body:   map[string]any{"token": "a.b.c", "role": "manager"},
	}
}

func TestSubmit_FallbackRedirect(t *testing.T) {
	defer goleak.VerifyNone(t)

	flow := auth.NewFlow(stubAPI{resp: managerResponse()}, 20*time.Millisecond, nil, nil)
	page := &stuckPage{location: auth.LoginPage}
	store := session.NewStore(session.NewMemoryBackend(), "tab-1")

	_, err := flow.Submit(context.Background(), page, store, auth.Credentials{Email: "a@apollo.com", Password: "pw"})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return len(page.Assigned()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{auth.ManagerDashboardPage}, page.Assigned())
	assert.Eventually(t, func() bool { return flow.Pending() == 0 }, time.Second, 5*time.Millisecond)
}

func TestSubmit_FallbackSkippedWhenNavigated(t *testing.T) {
	defer goleak.VerifyNone(t)

	flow := auth.NewFlow(stubAPI{resp: managerResponse()}, 10*time.Millisecond, nil, nil)
	doc, store := newTab()

	_, err := flow.Submit(context.Background(), doc, store, auth.Credentials{Email: "a@apollo.com", Password: "pw"})
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return flow.Pending() == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{auth.ManagerDashboardPage}, doc.History())
}

func TestSubmit_FallbackYieldsToLaterNavigation(t *testing.T) {
	defer goleak.VerifyNone(t)

	flow := auth.NewFlow(stubAPI{resp: managerResponse()}, 30*time.Millisecond, nil, nil)
	doc, store := newTab()
	ctx := context.Background()

	_, err := flow.Submit(ctx, doc, store, auth.Credentials{Email: "a@apollo.com", Password: "pw"})
	require.NoError(t, err)
	require.Equal(t, auth.ManagerDashboardPage, doc.Current())

	// the dashboard's first call is rejected before the fallback fires
	require.NoError(t, auth.EndSession(ctx, store, doc))

	assert.Eventually(t, func() bool { return flow.Pending() == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, auth.LoginPage, doc.Current())
	assert.Equal(t, []string{auth.ManagerDashboardPage, auth.LoginPage}, doc.History())
}

func TestFlow_StopCancelsFallback(t *testing.T) {
	defer goleak.VerifyNone(t)

	flow := auth.NewFlow(stubAPI{resp: managerResponse()}, time.Hour, nil, nil)
	page := &stuckPage{location: auth.LoginPage}
	store := session.NewStore(session.NewMemoryBackend(), "tab-1")

	_, err := flow.Submit(context.Background(), page, store, auth.Credentials{Email: "a@apollo.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, 1, flow.Pending())

	flow.Stop()
	assert.Equal(t, 0, flow.Pending())
	assert.Empty(t, page.Assigned())
}

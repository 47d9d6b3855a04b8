package auth

import (
	"context"

	"github.com/apollotyres/console/internal/session"
)

// Navigator moves a page to another location
type Navigator interface {
	Assign(url string)
}

// EndSession clears the stored session and sends the page to the login
// entry point. It is used on logout and whenever the API rejects the
// session credential.
func EndSession(ctx context.Context, store *session.Store, nav Navigator) error {
	if err := store.Clear(ctx); err != nil {
		return err
	}
	nav.Assign(LoginPage)
	return nil
}

package models

import "strings"

// Role is the dashboard audience a session is routed to
type Role string

const (
	RoleManager Role = "manager"
	RoleUser    Role = "user"
	RoleUnknown Role = "unknown"
)

// ParseRole normalizes a raw role string. Anything that is not a manager or a
// user is unknown; the raw value is kept by callers that need to persist it.
func ParseRole(raw string) Role {
	switch strings.ToLower(raw) {
	case "manager":
		return RoleManager
	case "user":
		return RoleUser
	default:
		return RoleUnknown
	}
}

// Session is the persisted login state of one client
type Session struct {
	Token     string
	Role      Role
	Email     string
	Name      string
	CreatedAt Timestamp
	LastLogin Timestamp
}

// Authenticated reports whether a credential is present
func (s Session) Authenticated() bool {
	return s.Token != ""
}

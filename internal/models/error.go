package models

import "errors"

// Sentinel errors for the console's failure taxonomy
var (
	ErrValidation        = errors.New("validation failed")
	ErrAuthRejected      = errors.New("authentication rejected")
	ErrMissingCredential = errors.New("missing credential")
	ErrTransport         = errors.New("transport failure")
	ErrSessionExpired    = errors.New("session expired")
	ErrDataUnavailable   = errors.New("data unavailable")
	ErrNotFound          = errors.New("resource not found")
)

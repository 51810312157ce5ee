package registration

import "errors"

var (
	// ErrInvalidCredentials means the portal rejected the username/password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNoTargets means no class id was given.
	ErrNoTargets = errors.New("no classes selected")
)

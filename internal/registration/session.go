package registration

import "context"

// Credentials identify the portal account a run logs in as.
type Credentials struct {
	Username string
	Password string
}

// CredentialsProvider supplies the credentials for a login. The default
// provider reads the stored credentials file.
type CredentialsProvider interface {
	Read(ctx context.Context) (Credentials, error)
}

// Authenticator opens a Session. A rejected username/password pair must be
// reported as ErrInvalidCredentials; any other error is treated as a
// connection problem.
type Authenticator interface {
	Login(ctx context.Context, creds Credentials) (Session, error)
}

// Session is an authenticated handle on the registration portal. It must
// tolerate concurrent calls from several target loops.
type Session interface {
	CheckAvailability(ctx context.Context, t Target) (Availability, error)
	Register(ctx context.Context, t Target) (Result, error)
}

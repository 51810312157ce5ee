package credentials

import (
	"context"

	"github.com/example/classpick/internal/registration"
)

// Static hands out credentials given on the command line.
type Static registration.Credentials

var _ registration.CredentialsProvider = Static{}

func (s Static) Read(context.Context) (registration.Credentials, error) {
	return registration.Credentials(s), nil
}

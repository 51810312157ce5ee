// Package login opens a portal session, retrying rejected credentials.
package login

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/example/classpick/internal/registration"
)

// ErrConnectionProblem wraps any login failure other than rejected credentials.
var ErrConnectionProblem = errors.New("cannot reach registration portal")

// DefaultDelay is the pause between login attempts with rejected credentials.
const DefaultDelay = 2 * time.Second

// Failure classifies a login that did not produce a session.
type Failure int

const (
	InvalidCredentials Failure = iota + 1
	ConnectionProblem
)

func (f Failure) String() string {
	switch f {
	case InvalidCredentials:
		return "invalid credentials"
	case ConnectionProblem:
		return "connection problem"
	default:
		return "unknown"
	}
}

// Classify maps a Login error onto a Failure.
func Classify(err error) Failure {
	if errors.Is(err, registration.ErrInvalidCredentials) {
		return InvalidCredentials
	}
	return ConnectionProblem
}

// Policy bounds how rejected credentials are retried. MaxAttempts of zero
// retries until ctx is cancelled.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultPolicy retries forever, two seconds apart.
func DefaultPolicy() Policy {
	return Policy{Delay: DefaultDelay}
}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	var b backoff.BackOff = backoff.NewConstantBackOff(p.Delay)
	if p.MaxAttempts > 0 {
		b = backoff.WithMaxRetries(b, uint64(p.MaxAttempts-1))
	}
	return backoff.WithContext(b, ctx)
}

// Reporter shows login progress to the user.
type Reporter interface {
	LoginAttempt(n int, username string)
	LoginFailed(n int, f Failure, err error)
	LoginSucceeded(username string)
}

type nopReporter struct{}

func (nopReporter) LoginAttempt(int, string)        {}
func (nopReporter) LoginFailed(int, Failure, error) {}
func (nopReporter) LoginSucceeded(string)           {}

// TryLogin reads credentials once and logs in with them. Rejected
// credentials are retried with the same pair according to policy; a
// connection problem aborts after a single call with ErrConnectionProblem.
func TryLogin(ctx context.Context, auth registration.Authenticator, provider registration.CredentialsProvider, policy Policy, rep Reporter) (registration.Session, error) {
	if rep == nil {
		rep = nopReporter{}
	}

	creds, err := provider.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	attempt := 0
	op := func() (registration.Session, error) {
		attempt++
		rep.LoginAttempt(attempt, creds.Username)

		sess, err := auth.Login(ctx, creds)
		if err == nil {
			return sess, nil
		}

		f := Classify(err)
		rep.LoginFailed(attempt, f, err)
		if f == ConnectionProblem {
			return nil, backoff.Permanent(fmt.Errorf("%w: %w", ErrConnectionProblem, err))
		}
		return nil, err
	}

	sess, err := backoff.RetryWithData(op, policy.backOff(ctx))
	if err != nil {
		return nil, err
	}
	rep.LoginSucceeded(creds.Username)
	return sess, nil
}

package login

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/example/classpick/internal/registration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct{}

func (fakeSession) CheckAvailability(context.Context, registration.Target) (registration.Availability, error) {
	return registration.Availability{}, nil
}

func (fakeSession) Register(context.Context, registration.Target) (registration.Result, error) {
	return registration.Result{}, nil
}

// scriptedAuth returns errs[i] for the ith call and a session once the
// script runs out.
type scriptedAuth struct {
	errs  []error
	calls int
	seen  []registration.Credentials
}

func (a *scriptedAuth) Login(_ context.Context, creds registration.Credentials) (registration.Session, error) {
	a.calls++
	a.seen = append(a.seen, creds)
	if a.calls <= len(a.errs) {
		return nil, a.errs[a.calls-1]
	}
	return fakeSession{}, nil
}

type staticProvider struct {
	creds registration.Credentials
	err   error
	reads int
}

func (p *staticProvider) Read(context.Context) (registration.Credentials, error) {
	p.reads++
	return p.creds, p.err
}

type recordingReporter struct {
	attempts  []int
	failures  []Failure
	succeeded []string
}

func (r *recordingReporter) LoginAttempt(n int, _ string) { r.attempts = append(r.attempts, n) }
func (r *recordingReporter) LoginFailed(_ int, f Failure, _ error) {
	r.failures = append(r.failures, f)
}
func (r *recordingReporter) LoginSucceeded(u string) { r.succeeded = append(r.succeeded, u) }

var fastPolicy = Policy{Delay: 0}

func TestTryLoginRetriesInvalidCredentialsWithSamePair(t *testing.T) {
	auth := &scriptedAuth{errs: []error{registration.ErrInvalidCredentials}}
	provider := &staticProvider{creds: registration.Credentials{Username: "a.student", Password: "pw"}}
	rep := &recordingReporter{}

	sess, err := TryLogin(context.Background(), auth, provider, fastPolicy, rep)

	require.NoError(t, err)
	assert.NotNil(t, sess)
	assert.Equal(t, 2, auth.calls)
	assert.Equal(t, 1, provider.reads)
	assert.Equal(t, auth.seen[0], auth.seen[1])
	assert.Equal(t, []int{1, 2}, rep.attempts)
	assert.Equal(t, []Failure{InvalidCredentials}, rep.failures)
	assert.Equal(t, []string{"a.student"}, rep.succeeded)
}

func TestTryLoginGivesUpOnConnectionProblem(t *testing.T) {
	netErr := errors.New("dial tcp: connection refused")
	auth := &scriptedAuth{errs: []error{netErr, nil}}
	rep := &recordingReporter{}

	sess, err := TryLogin(context.Background(), auth, &staticProvider{}, fastPolicy, rep)

	assert.Nil(t, sess)
	assert.ErrorIs(t, err, ErrConnectionProblem)
	assert.ErrorIs(t, err, netErr)
	assert.Equal(t, 1, auth.calls)
	assert.Equal(t, []Failure{ConnectionProblem}, rep.failures)
	assert.Empty(t, rep.succeeded)
}

func TestTryLoginBoundedPolicy(t *testing.T) {
	bad := fmt.Errorf("portal said no: %w", registration.ErrInvalidCredentials)
	auth := &scriptedAuth{errs: []error{bad, bad, bad, bad, bad}}

	sess, err := TryLogin(context.Background(), auth, &staticProvider{}, Policy{MaxAttempts: 3}, nil)

	assert.Nil(t, sess)
	assert.ErrorIs(t, err, registration.ErrInvalidCredentials)
	assert.Equal(t, 3, auth.calls)
}

func TestTryLoginUnboundedStopsOnContextCancel(t *testing.T) {
	errs := make([]error, 1000)
	for i := range errs {
		errs[i] = registration.ErrInvalidCredentials
	}
	auth := &scriptedAuth{errs: errs}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	sess, err := TryLogin(ctx, auth, &staticProvider{}, Policy{Delay: 5 * time.Millisecond}, nil)

	assert.Nil(t, sess)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Greater(t, auth.calls, 1)
	assert.Less(t, auth.calls, len(errs))
}

func TestTryLoginCredentialsError(t *testing.T) {
	readErr := errors.New("no stored credentials")
	auth := &scriptedAuth{}

	_, err := TryLogin(context.Background(), auth, &staticProvider{err: readErr}, fastPolicy, nil)

	assert.ErrorIs(t, err, readErr)
	assert.Zero(t, auth.calls)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, InvalidCredentials, Classify(registration.ErrInvalidCredentials))
	assert.Equal(t, InvalidCredentials, Classify(fmt.Errorf("wrapped: %w", registration.ErrInvalidCredentials)))
	assert.Equal(t, ConnectionProblem, Classify(errors.New("EOF")))
	assert.Equal(t, "invalid credentials", InvalidCredentials.String())
	assert.Equal(t, "connection problem", ConnectionProblem.String())
}

func TestDefaultPolicyIsUnbounded(t *testing.T) {
	p := DefaultPolicy()
	assert.Zero(t, p.MaxAttempts)
	assert.Equal(t, DefaultDelay, p.Delay)
}

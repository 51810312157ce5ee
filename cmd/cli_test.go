package cmd

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/example/classpick/internal/login"
	"github.com/example/classpick/internal/registration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate keeps config discovery away from the developer's files.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	t.Setenv("CLASSPICK_LOG_LEVEL", "disabled")
	return dir
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPickTargetsFromArgs(t *testing.T) {
	got, err := pickTargets([]string{"7878", "9651,7878"}, strings.NewReader(""), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, []registration.Target{"7878", "9651"}, got)
}

func TestPickTargetsPromptsUntilNonEmpty(t *testing.T) {
	var out bytes.Buffer
	got, err := pickTargets(nil, strings.NewReader("\n   \n7878 9651 4456\n"), &out)
	require.NoError(t, err)
	assert.Equal(t, []registration.Target{"7878", "9651", "4456"}, got)
	assert.Equal(t, 3, strings.Count(out.String(), classPrompt))
}

func TestPickTargetsEOF(t *testing.T) {
	_, err := pickTargets(nil, strings.NewReader(""), &bytes.Buffer{})
	assert.ErrorIs(t, err, registration.ErrNoTargets)

	got, err := pickTargets(nil, strings.NewReader("12 13"), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, []registration.Target{"12", "13"}, got)
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "classpick dev")
}

func TestKeysCmd(t *testing.T) {
	out, err := execute(t, "", "keys")
	require.NoError(t, err)
	line := strings.TrimSpace(out)
	require.True(t, strings.HasPrefix(line, "export CLASSPICK_SECRET_KEY="))
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(line, "export CLASSPICK_SECRET_KEY="))
	require.NoError(t, err)
	assert.Len(t, raw, 32)
}

func TestCredsSaveAndShow(t *testing.T) {
	dir := isolate(t)
	t.Setenv("CLASSPICK_SECRET_KEY", base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32)))
	t.Setenv("CLASSPICK_CREDENTIALS_PATH", filepath.Join(dir, "creds.toml"))

	_, err := execute(t, "", "creds", "save", "--username", "student", "--password", "hunter2")
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, "creds.toml"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hunter2")

	out, err := execute(t, "", "creds", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "student")
}

func TestCredsRequireSecret(t *testing.T) {
	isolate(t)
	_, err := execute(t, "", "creds", "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CLASSPICK_SECRET_KEY")
}

func TestRunRequiresPortal(t *testing.T) {
	isolate(t)
	_, err := execute(t, "", "run", "--username", "u", "--password", "p", "7878")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CLASSPICK_PORTAL_URL")
}

func fakePortal(t *testing.T, rejectLogins int32) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var logins atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		if logins.Add(1) <= rejectLogins {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	})
	mux.HandleFunc("GET /classes/{id}/availability", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"capacity":30,"registeredNumber":12}`))
	})
	mux.HandleFunc("POST /classes/{id}/register", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &logins
}

func TestRunRegistersEveryClass(t *testing.T) {
	dir := isolate(t)
	srv, logins := fakePortal(t, 1)
	t.Setenv("CLASSPICK_PORTAL_URL", srv.URL)
	t.Setenv("CLASSPICK_LOGIN_DELAY", "1ms")

	out, err := execute(t, "7878 9651\n", "run", "--no-spinner", "--interval", "5ms", "--username", "student", "--password", "pw")
	require.NoError(t, err)

	assert.Equal(t, int32(2), logins.Load())
	assert.Contains(t, out, "Welcome To AUA CLASS PICKER")
	assert.Contains(t, out, "Invalid credentials, trying again")
	assert.Contains(t, out, "Successfully logged in!")
	assert.Contains(t, out, classPrompt)

	raw, err := os.ReadFile(filepath.Join(dir, "successfulRegistrations.log"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, string(raw), "Registered for class with id 7878")
	assert.Contains(t, string(raw), "Registered for class with id 9651")
}

func TestRunAbortsOnConnectionProblem(t *testing.T) {
	isolate(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	t.Setenv("CLASSPICK_PORTAL_URL", srv.URL)

	_, err := execute(t, "", "run", "--no-spinner", "--username", "u", "--password", "p", "7878")
	assert.ErrorIs(t, err, login.ErrConnectionProblem)
}

func TestHistoryRequiresDatabase(t *testing.T) {
	isolate(t)
	_, err := execute(t, "", "history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CLASSPICK_DATABASE_URL")
}

func TestCount(t *testing.T) {
	n := 12
	assert.Equal(t, "12", count(&n))
	assert.Equal(t, "n/a", count(nil))
}

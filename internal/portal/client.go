// Package portal talks to the university registration portal over its JSON
// API. A Client logs in once and keeps the session cookie in its jar.
package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/example/classpick/internal/registration"
)

const (
	defaultTimeout = 10 * time.Second
	userAgent      = "classpick/1.0"
	maxBodyBytes   = 1 << 20
)

// Client implements registration.Authenticator and, once logged in,
// registration.Session.
type Client struct {
	base string
	hc   *http.Client
}

var (
	_ registration.Authenticator = (*Client)(nil)
	_ registration.Session       = (*Client)(nil)
)

type Option func(*Client)

// WithHTTPClient replaces the underlying client. Its Jar must be set for the
// session cookie to survive between calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.hc.Timeout = d }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid portal url %q", baseURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	c := &Client{
		base: strings.TrimRight(u.String(), "/"),
		hc:   &http.Client{Timeout: defaultTimeout, Jar: jar},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type loginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type availabilityResponse struct {
	Success          bool   `json:"success"`
	Capacity         *int   `json:"capacity"`
	RegisteredNumber *int   `json:"registeredNumber"`
	Message          string `json:"message"`
	AUAMessage       string `json:"auaMessage"`
}

type registerResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	AUAMessage string `json:"auaMessage"`
}

// Login posts the credentials. A 401/403 or an explicit refusal is
// ErrInvalidCredentials; transport failures and other statuses are returned
// as is.
func (c *Client) Login(ctx context.Context, creds registration.Credentials) (registration.Session, error) {
	form := url.Values{}
	form.Set("username", creds.Username)
	form.Set("password", creds.Password)

	var res loginResponse
	status, err := c.do(ctx, http.MethodPost, "/login", "application/x-www-form-urlencoded", []byte(form.Encode()), &res)
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return nil, fmt.Errorf("portal.Login: %w", registration.ErrInvalidCredentials)
	}
	if err != nil {
		return nil, fmt.Errorf("portal.Login: %w", err)
	}
	if !res.Success {
		if res.Message != "" {
			return nil, fmt.Errorf("portal.Login: %s: %w", res.Message, registration.ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("portal.Login: %w", registration.ErrInvalidCredentials)
	}
	return c, nil
}

func (c *Client) CheckAvailability(ctx context.Context, t registration.Target) (registration.Availability, error) {
	var res availabilityResponse
	if _, err := c.do(ctx, http.MethodGet, classPath(t, "availability"), "", nil, &res); err != nil {
		return registration.Availability{}, fmt.Errorf("portal.CheckAvailability: %w", err)
	}
	a := registration.Availability{
		Success: res.Success,
		Message: res.Message,
		Detail:  res.AUAMessage,
	}
	if res.Capacity != nil && res.RegisteredNumber != nil {
		a.Capacity, a.Registered, a.HasCounts = *res.Capacity, *res.RegisteredNumber, true
	}
	return a, nil
}

func (c *Client) Register(ctx context.Context, t registration.Target) (registration.Result, error) {
	var res registerResponse
	if _, err := c.do(ctx, http.MethodPost, classPath(t, "register"), "", nil, &res); err != nil {
		return registration.Result{}, fmt.Errorf("portal.Register: %w", err)
	}
	return registration.Result{Success: res.Success, Message: res.Message, Detail: res.AUAMessage}, nil
}

func classPath(t registration.Target, action string) string {
	return "/classes/" + url.PathEscape(t.String()) + "/" + action
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body []byte, out any) (int, error) {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rdr)
	if err != nil {
		return 0, err
	}
	req.Header.Set("user-agent", userAgent)
	req.Header.Set("accept", "application/json")
	if contentType != "" {
		req.Header.Set("content-type", contentType)
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()

	b, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return res.StatusCode, err
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		var e struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(b, &e)
		return res.StatusCode, &HTTPError{StatusCode: res.StatusCode, Message: e.Message}
	}
	if out != nil {
		if err := json.Unmarshal(b, out); err != nil {
			return res.StatusCode, fmt.Errorf("decode %s response: %w", path, err)
		}
	}
	return res.StatusCode, nil
}

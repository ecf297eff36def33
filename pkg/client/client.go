package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// DefaultCookieName is the session cookie set by the server on sign-in.
const DefaultCookieName = "session_token"

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("runclub api: %d %s", e.Status, e.Message)
}

// IsStatus reports whether err is an *APIError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Client talks to the runclub JSON API. Cookies set by the server, including
// the session cookie, are kept in the client's jar.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	cookieName string
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. A client without a jar
// gets one.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithCookieName(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.cookieName = name
		}
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		cookieName: DefaultCookieName,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		c.httpClient.Jar = jar
	}
	return c, nil
}

// SignIn opens a session. The server's cookie lands in the jar, so later
// calls are authenticated.
func (c *Client) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	var out SignInResult
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/sign-in", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SignInLDAP opens a session with directory credentials.
func (c *Client) SignInLDAP(ctx context.Context, username, password string) (*SignInResult, error) {
	var out SignInResult
	body := map[string]string{"email": username, "password": password, "authType": "ldap"}
	if err := c.do(ctx, http.MethodPost, "/api/auth/sign-in", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SignOut(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/sign-out", nil, nil)
}

// GetSession returns the current user and session. Both are nil when the
// client is not signed in.
func (c *Client) GetSession(ctx context.Context) (*SessionInfo, error) {
	var out SessionInfo
	if err := c.do(ctx, http.MethodGet, "/api/auth/session", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListRuns(ctx context.Context) ([]Run, error) {
	var out []Run
	if err := c.do(ctx, http.MethodGet, "/api/runs", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetRun(ctx context.Context, runID string) (*Run, error) {
	var out Run
	if err := c.do(ctx, http.MethodGet, "/api/runs/"+url.PathEscape(runID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateRun(ctx context.Context, in *RunInput) (*Run, error) {
	var out Run
	if err := c.do(ctx, http.MethodPost, "/api/runs", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) JoinRun(ctx context.Context, runID string) error {
	return c.do(ctx, http.MethodPost, "/api/runs/"+url.PathEscape(runID)+"/join", nil, nil)
}

func (c *Client) LeaveRun(ctx context.Context, runID string) error {
	return c.do(ctx, http.MethodPost, "/api/runs/"+url.PathEscape(runID)+"/leave", nil, nil)
}

func (c *Client) UserRuns(ctx context.Context) (*UserRuns, error) {
	var out UserRuns
	if err := c.do(ctx, http.MethodGet, "/api/user/runs", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	if resp.StatusCode >= 300 {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Code: env.Code, Message: msg}
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}

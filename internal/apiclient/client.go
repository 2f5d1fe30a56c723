package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"campusconnect/internal/config"
	"campusconnect/internal/session"
)

const (
	requestIDHeader = "X-Request-Id"
	maxBodyBytes    = 4 << 20
)

// Navigator moves the user to the login entry point. The pipeline calls it
// after the session has already been cleared.
type Navigator interface {
	RedirectToLogin()
}

type NavigatorFunc func()

func (f NavigatorFunc) RedirectToLogin() { f() }

// Client is the authenticated request pipeline: every call carries the
// current bearer token and every 401 goes through one failure handler.
type Client struct {
	baseURL   string
	http      *http.Client
	sessions  *session.Store
	nav       Navigator
	userAgent string
	log       zerolog.Logger
}

func New(cfg config.APIConfig, sessions *session.Store, nav Navigator, log zerolog.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		http:      &http.Client{Timeout: cfg.Timeout},
		sessions:  sessions,
		nav:       nav,
		userAgent: cfg.UserAgent,
		log:       log.With().Str("component", "apiclient").Logger(),
	}
}

// Do sends one request. body and out are JSON-encoded/decoded when non-nil.
// A 401 clears the session (once per token) and returns an error matching
// ErrUnauthorized; other failures come back as *APIError untouched.
func (c *Client) Do(ctx context.Context, method string, path string, query url.Values, body any, out any) error {
	token := c.sessions.Token()

	req, err := c.newRequest(ctx, method, path, query, body, token)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read %s %s response: %w", method, path, err)
	}

	event := c.log.Debug()
	if resp.StatusCode >= 400 {
		event = c.log.Warn()
	}
	event.
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Str("request_id", req.Header.Get(requestIDHeader)).
		Msg("api request")

	if resp.StatusCode == http.StatusUnauthorized {
		c.handleAuthFailure(ctx, token)
		return newAPIError(resp.StatusCode, raw)
	}
	if resp.StatusCode >= 400 {
		return newAPIError(resp.StatusCode, raw)
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method string, path string, query url.Values, body any, token string) (*http.Request, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, uuid.NewString())
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// handleAuthFailure clears the session that sent the failing request and then
// redirects. A request sent without a token (e.g. a bad login) or with a token
// that was already replaced does neither.
func (c *Client) handleAuthFailure(ctx context.Context, token string) {
	if !c.sessions.InvalidateIfCurrent(ctx, token) {
		return
	}
	c.log.Info().Msg("authentication rejected, redirecting to login")
	if c.nav != nil {
		c.nav.RedirectToLogin()
	}
}

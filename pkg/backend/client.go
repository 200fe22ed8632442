// Package backend is the client for the call-orchestration service,
// which issues call sessions and their greetings.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Backend starts and ends call sessions. Implemented by Client; faked in
// tests.
type Backend interface {
	// StartSession requests a new session. Safe to retry: the same
	// idempotency key is reused only within one Client call, but the
	// service treats duplicate starts for a user as benign.
	StartSession(ctx context.Context, userID string) (*SessionInfo, error)

	// EndSession closes a session. Ending an unknown or already-closed
	// session is not an error.
	EndSession(ctx context.Context, sessionID string) error
}

// SessionInfo is the service's answer to a session start.
type SessionInfo struct {
	SessionID     string `json:"session_id"`
	GreetingText  string `json:"greeting_text"`
	GreetingAudio []byte `json:"greeting_audio"`
}

// APIError is a rejection from the service, as opposed to a transport
// failure.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend: %s: %s (status %d)", e.Code, e.Message, e.Status)
	}
	return fmt.Sprintf("backend: %s (status %d)", e.Message, e.Status)
}

// IsRejected reports whether err is a service rejection rather than a
// network failure.
func IsRejected(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// Client talks to the call-orchestration service over HTTP.
type Client struct {
	// BaseURL is the service root, e.g. "https://api.example.com/v1".
	BaseURL string

	// HTTPClient defaults to a client with a 15s timeout.
	HTTPClient *http.Client

	// Token, if set, is sent as a bearer token.
	Token string
}

// StartSession implements Backend.
func (c *Client) StartSession(ctx context.Context, userID string) (*SessionInfo, error) {
	body, err := json.Marshal(map[string]string{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("backend: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/sessions"), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("backend: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", uuid.New().String())
	c.auth(req)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend: start session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apiError(resp)
	}

	var info SessionInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("backend: decode session: %w", err)
	}
	if info.SessionID == "" {
		return nil, fmt.Errorf("backend: service returned no session id")
	}
	return &info, nil
}

// EndSession implements Backend.
func (c *Client) EndSession(ctx context.Context, sessionID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.endpoint("/sessions/"+sessionID), nil)
	if err != nil {
		return fmt.Errorf("backend: build request: %w", err)
	}
	c.auth(req)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("backend: end session: %w", err)
	}
	defer resp.Body.Close()

	// A session already gone server-side is a successful end.
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp)
	}
	return nil
}

func (c *Client) endpoint(path string) string {
	return strings.TrimSuffix(c.BaseURL, "/") + path
}

func (c *Client) auth(req *http.Request) {
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 15 * time.Second}
}

// apiError reads a rejection body into an APIError.
func apiError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil && len(body) > 0 {
		_ = json.Unmarshal(body, apiErr)
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

var _ Backend = (*Client)(nil)

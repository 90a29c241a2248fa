// Package apiclient is a small HTTP client for the EnergiSense API, used by
// the injector and the terminal dashboard.
package apiclient

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

	"energisense/internal/ingest"
	"energisense/internal/models"
)

const defaultTimeout = 10 * time.Second

// ErrUnauthorized matches any 401 or 403 answer.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx answer. The message comes from the {"error": ...} body when present.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("api: %d %s", e.StatusCode, e.Message)
}

// Is lets errors.Is(err, ErrUnauthorized) succeed for 401 and 403.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized &&
		(e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden)
}

// LoginResult mirrors the login response body.
type LoginResult struct {
	Token string      `json:"token"`
	Role  models.Role `json:"role"`
	Email string      `json:"email"`
}

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// New returns a client for baseURL, e.g. "http://localhost:5000".
func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
	}
}

// WithToken returns a copy that sends token as a bearer credential.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var out LoginResult
	in := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account. Needs an admin token unless the server runs
// with open registration.
func (c *Client) Register(ctx context.Context, email, password string, role models.Role) (*models.Account, error) {
	var out models.Account
	in := map[string]string{"email": email, "password": password, "role": string(role)}
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Latest(ctx context.Context) ([]models.Reading, error) {
	var out []models.Reading
	if err := c.do(ctx, http.MethodGet, "/api/data/latest", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Users(ctx context.Context) ([]models.Account, error) {
	var out []models.Account
	if err := c.do(ctx, http.MethodGet, "/api/admin/users", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Inject posts one reading to the injector endpoint.
func (c *Client) Inject(ctx context.Context, p ingest.Payload) (*models.Reading, error) {
	var out models.Reading
	if err := c.do(ctx, http.MethodPost, "/api/data/inject", p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var eb struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(io.LimitReader(resp.Body, 4<<10)).Decode(&eb) == nil {
			apiErr.Message = eb.Error
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

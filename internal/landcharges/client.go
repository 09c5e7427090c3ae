package landcharges

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"landcharges/assist/internal/domain"
)

// HTTPClient is the subset of *http.Client the API client needs.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// APIError is returned for any response with a status of 300 or above.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Client executes JSON requests against the land charges API.
type Client struct {
	baseURL    string
	httpClient HTTPClient
}

func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	normalizedURL, err := normalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:    normalizedURL,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// WithHTTPClient overrides the default http.Client. Primarily useful for testing.
func (c *Client) WithHTTPClient(httpClient HTTPClient) {
	if httpClient != nil {
		c.httpClient = httpClient
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Register submits a new registration.
func (c *Client) Register(ctx context.Context, reg domain.Registration) (*domain.RegistrationResponse, error) {
	var resp domain.RegistrationResponse
	raw, err := c.Post(ctx, "/registrations", reg, &resp)
	if err != nil {
		return nil, err
	}
	resp.Raw = raw
	return &resp, nil
}

// Rectify submits an update to the registration identified by date and number.
func (c *Client) Rectify(ctx context.Context, date, number string, reg domain.Registration) (*domain.RegistrationResponse, error) {
	if date == "" || number == "" {
		return nil, errors.New("registration date and number are required")
	}

	path := fmt.Sprintf("/registrations/%s/%s", url.PathEscape(date), url.PathEscape(number))

	var resp domain.RegistrationResponse
	raw, err := c.Put(ctx, path, reg, &resp)
	if err != nil {
		return nil, err
	}
	resp.Raw = raw
	return &resp, nil
}

// Post sends body as JSON and decodes the response into out when out is
// non-nil. The raw response body is returned either way.
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) ([]byte, error) {
	return c.send(ctx, http.MethodPost, path, body, out)
}

// Put behaves like Post with the PUT method.
func (c *Client) Put(ctx context.Context, path string, body, out interface{}) ([]byte, error) {
	return c.send(ctx, http.MethodPut, path, body, out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.send(ctx, http.MethodDelete, path, nil, nil)
	return err
}

func (c *Client) send(ctx context.Context, method, path string, body, out interface{}) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := c.newRequest(ctx, method, path, reader)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", method, err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	return c.do(req, out)
}

func normalizeBaseURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errors.New("land charges base URL is required")
	}

	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid land charges base URL: %w", err)
	}

	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("invalid land charges base URL: %s", raw)
	}

	parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	parsed.RawQuery = ""
	parsed.Fragment = ""

	return strings.TrimSuffix(parsed.String(), "/"), nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
}

func (c *Client) do(req *http.Request, out interface{}) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		var opErr *net.OpError
		if errors.As(err, &opErr) {
			return nil, fmt.Errorf("execute request: network error contacting %s: %w", req.URL.Hostname(), err)
		}
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return b, &APIError{
			Method:     req.Method,
			Path:       req.URL.Path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(b)),
		}
	}

	if out == nil || len(bytes.TrimSpace(b)) == 0 {
		return b, nil
	}

	if err := json.Unmarshal(b, out); err != nil {
		return b, fmt.Errorf("decode response: %w", err)
	}

	return b, nil
}

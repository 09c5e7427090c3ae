package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	apihttp "landcharges/assist/internal/api/http"
	"landcharges/assist/internal/config"
	"landcharges/assist/internal/domain"
	"landcharges/assist/internal/fixtures"
	"landcharges/assist/internal/landcharges"
	"landcharges/assist/internal/registry"
)

// TestContext holds state between test steps
type TestContext struct {
	BaseURL          string
	HTTPClient       *http.Client
	LastResponse     *http.Response
	LastResponseBody []byte
	Saved            domain.RegistrationRef
	Runs             []domain.RunReport

	// External is set when the suite targets a service named by
	// LAND_CHARGES_URL instead of the in-process stub.
	External bool

	server *httptest.Server
}

// NewTestContext creates a new test context. When LAND_CHARGES_URL is unset
// the scenario runs against an in-process stub started on demand.
func NewTestContext() *TestContext {
	baseURL := os.Getenv("LAND_CHARGES_URL")
	return &TestContext{
		BaseURL:  baseURL,
		External: baseURL != "",
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (tc *TestContext) ensureService() {
	if tc.BaseURL != "" {
		return
	}

	gin.SetMode(gin.TestMode)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	tc.server = httptest.NewServer(apihttp.NewStubRouter(log, registry.NewMemoryRegister(time.Now), nil))
	tc.BaseURL = tc.server.URL
}

func (tc *TestContext) Close() {
	if tc.server != nil {
		tc.server.Close()
		tc.server = nil
	}
}

// Reset satisfies scenario.Resetter. The stub is cleared over HTTP; an
// external service only answers the registration endpoints, so its data is
// reset with the configured fixture commands, which must succeed.
func (tc *TestContext) Reset(ctx context.Context) error {
	if tc.External {
		return tc.resetFixtures(ctx)
	}

	client, err := landcharges.NewClient(tc.BaseURL, tc.HTTPClient.Timeout)
	if err != nil {
		return err
	}
	if err := client.Delete(ctx, "/registrations"); err != nil {
		return fmt.Errorf("clear stub register: %w", err)
	}
	return nil
}

func (tc *TestContext) resetFixtures(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load fixture config: %w", err)
	}

	resetter := fixtures.NewResetter(
		fixtures.ShellRunner{},
		fixtures.Config{
			ClearCommand: cfg.Fixtures.ClearCommand,
			SeedCommand:  cfg.Fixtures.SeedCommand,
			Strict:       true,
		},
		io.Discard,
		slog.New(slog.DiscardHandler),
	)
	if err := resetter.Reset(ctx); err != nil {
		return fmt.Errorf("reset %s with fixture commands: %w", tc.BaseURL, err)
	}
	return nil
}

// POST makes a POST request and stores the response
func (tc *TestContext) POST(ctx context.Context, path string, body interface{}) error {
	return tc.do(ctx, http.MethodPost, path, body)
}

// PUT makes a PUT request and stores the response
func (tc *TestContext) PUT(ctx context.Context, path string, body interface{}) error {
	return tc.do(ctx, http.MethodPut, path, body)
}

func (tc *TestContext) do(ctx context.Context, method, path string, body interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, tc.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := tc.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}

	tc.LastResponse = resp
	tc.LastResponseBody, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	return nil
}

// LastRegistrationResponse decodes the last response body.
func (tc *TestContext) LastRegistrationResponse() (domain.RegistrationResponse, error) {
	var resp domain.RegistrationResponse
	if err := json.Unmarshal(tc.LastResponseBody, &resp); err != nil {
		return resp, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return resp, nil
}

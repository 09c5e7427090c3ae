package checks

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"landcharges/assist/internal/domain"
)

// HTTPChecker treats any response below 500 as the service being up.
type HTTPChecker struct {
	timeout time.Duration
	client  *http.Client
}

func NewHTTPChecker(timeout time.Duration) *HTTPChecker {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &HTTPChecker{
		timeout: timeout,
		client:  client,
	}
}

func (h *HTTPChecker) Check(ctx context.Context, endpoint domain.Endpoint) domain.CheckResult {
	result := domain.CheckResult{
		Endpoint: endpoint,
		Status:   domain.CheckStatusDown,
	}

	resolvedURL, err := prepareURL(endpoint.URL)
	if err != nil {
		result.Error = fmt.Sprintf("invalid url: %v", err)
		return result
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resolvedURL, nil)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	start := time.Now()
	resp, err := h.client.Do(req)
	result.Duration = time.Since(start)

	if err != nil {
		result.Error = err.Error()
		return result
	}
	defer resp.Body.Close()

	// Ensure body is fully read to allow connection reuse
	_, _ = io.Copy(io.Discard, resp.Body)

	result.StatusCode = resp.StatusCode
	if resp.StatusCode < http.StatusInternalServerError {
		result.Status = domain.CheckStatusUp
	} else {
		result.Error = fmt.Sprintf("status %d", resp.StatusCode)
	}

	return result
}

func (h *HTTPChecker) Type() domain.CheckKind {
	return domain.CheckKindHTTP
}

func prepareURL(target string) (string, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", fmt.Errorf("empty target")
	}

	if !strings.Contains(target, "://") {
		target = "http://" + target
	}

	parsed, err := url.Parse(target)
	if err != nil {
		return "", err
	}

	if parsed.Host == "" {
		return "", fmt.Errorf("missing host in %q", target)
	}

	return parsed.String(), nil
}

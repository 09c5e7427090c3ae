package checks

import (
	"context"
	"net"
	"time"

	"landcharges/assist/internal/domain"
)

type TCPChecker struct {
	timeout time.Duration
	dialer  *net.Dialer
}

func NewTCPChecker(timeout time.Duration) *TCPChecker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &TCPChecker{
		timeout: timeout,
		dialer:  &net.Dialer{Timeout: timeout},
	}
}

func (t *TCPChecker) Check(ctx context.Context, endpoint domain.Endpoint) domain.CheckResult {
	result := domain.CheckResult{
		Endpoint: endpoint,
		Status:   domain.CheckStatusDown,
	}

	address, err := hostPort(endpoint.URL)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	start := time.Now()
	conn, err := t.dialer.DialContext(ctx, "tcp", address)
	result.Duration = time.Since(start)

	if err != nil {
		result.Error = err.Error()
		return result
	}
	_ = conn.Close()

	result.Status = domain.CheckStatusUp
	return result
}

func (t *TCPChecker) Type() domain.CheckKind {
	return domain.CheckKindTCP
}

package checks

import (
	"fmt"
	"net"
	"net/url"
	"time"
)

// hostPort extracts a dialable address from a base URL, filling in the
// scheme's default port when none is given.
func hostPort(raw string) (string, error) {
	resolved, err := prepareURL(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}

	parsed, err := url.Parse(resolved)
	if err != nil {
		return "", err
	}

	port := parsed.Port()
	if port == "" {
		switch parsed.Scheme {
		case "https":
			port = "443"
		default:
			port = "80"
		}
	}

	return net.JoinHostPort(parsed.Hostname(), port), nil
}

func formatMilliseconds(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1f ms", float64(d.Microseconds())/1000.0)
}

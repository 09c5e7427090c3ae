package domain

import "time"

type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

type HealthResponse struct {
	Status    HealthStatus `json:"status"`
	Timestamp time.Time    `json:"timestamp"`
	Service   string       `json:"service"`
	Message   string       `json:"message,omitempty"`
}

// Endpoint is one configured service base URL and the variable it came from.
type Endpoint struct {
	Name   string
	EnvKey string
	URL    string
}

type CheckKind string

const (
	CheckKindHTTP CheckKind = "http"
	CheckKindTCP  CheckKind = "tcp"
)

type CheckStatus string

const (
	CheckStatusUp   CheckStatus = "up"
	CheckStatusDown CheckStatus = "down"
)

type CheckResult struct {
	Endpoint   Endpoint
	Kind       CheckKind
	Status     CheckStatus
	StatusCode int
	Duration   time.Duration
	Error      string
}

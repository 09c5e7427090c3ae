package domain

import "time"

type RunStatus string

const (
	RunStatusPassed RunStatus = "passed"
	RunStatusFailed RunStatus = "failed"
)

// RunReport summarises one execution of an acceptance scenario.
type RunReport struct {
	RunID      string            `json:"run_id"`
	Scenario   string            `json:"scenario"`
	Status     RunStatus         `json:"status"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	DurationMs int64             `json:"duration_ms"`
	Initial    []RegistrationRef `json:"initial"`
	Rectified  []RegistrationRef `json:"rectified"`
	Error      string            `json:"error,omitempty"`
}

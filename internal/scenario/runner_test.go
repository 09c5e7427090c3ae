package scenario_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apihttp "landcharges/assist/internal/api/http"
	"landcharges/assist/internal/domain"
	"landcharges/assist/internal/landcharges"
	"landcharges/assist/internal/registry"
	"landcharges/assist/internal/scenario"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func stubClock() time.Time {
	return time.Date(2016, time.January, 5, 9, 0, 0, 0, time.UTC)
}

type stub struct {
	register *registry.MemoryRegister
	server   *httptest.Server
	client   *landcharges.Client
}

func newStub(t *testing.T) *stub {
	t.Helper()
	gin.SetMode(gin.TestMode)

	register := registry.NewMemoryRegister(stubClock)
	server := httptest.NewServer(apihttp.NewStubRouter(discardLogger(), register, nil))
	t.Cleanup(server.Close)

	client, err := landcharges.NewClient(server.URL, 5*time.Second)
	require.NoError(t, err)

	return &stub{register: register, server: server, client: client}
}

// Reset satisfies scenario.Resetter against the stub's register.
func (s *stub) Reset(context.Context) error {
	s.register.Reset()
	return nil
}

type recordingReports struct {
	reports []domain.RunReport
	logs    []domain.LogEntry
}

func (r *recordingReports) SendReport(_ context.Context, report domain.RunReport) error {
	r.reports = append(r.reports, report)
	return nil
}

func (r *recordingReports) SendLog(_ context.Context, entry domain.LogEntry) error {
	r.logs = append(r.logs, entry)
	return nil
}

func type1(t *testing.T) scenario.Payloads {
	t.Helper()
	p, err := scenario.Type1Rectification()
	require.NoError(t, err)
	return p
}

func TestRunAgainstStub(t *testing.T) {
	s := newStub(t)
	reports := &recordingReports{}
	var out bytes.Buffer

	runner := scenario.NewRunner(s.client, s, reports, &out, discardLogger(), scenario.Config{Payloads: type1(t)})

	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.RunStatusPassed, report.Status)
	assert.Equal(t, scenario.Type1RectificationName, report.Scenario)
	assert.NotEmpty(t, report.RunID)
	require.Len(t, report.Initial, 1)
	require.Len(t, report.Rectified, 1)
	assert.Equal(t, json.Number("1000"), report.Initial[0].Number)
	assert.Equal(t, json.Number("1001"), report.Rectified[0].Number)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)

	var first, second domain.RegistrationResponse
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, report.Initial, first.NewRegistrations)
	assert.Equal(t, report.Rectified, second.NewRegistrations)
	assert.Equal(t, "2016-01-05", lines[2])
	assert.Equal(t, "1001", lines[3])

	require.Len(t, reports.reports, 1)
	assert.Equal(t, report.RunID, reports.reports[0].RunID)
	assert.NotEmpty(t, reports.logs)
	for _, entry := range reports.logs {
		assert.Equal(t, report.RunID, entry.RunID)
	}

	entry, err := s.register.Get("2016-01-05", "1000")
	require.NoError(t, err)
	require.NotNil(t, entry.AmendedBy)
}

func TestConsecutiveRunsAfterResetHaveSameShape(t *testing.T) {
	s := newStub(t)

	run := func() (domain.RunReport, string) {
		var out bytes.Buffer
		runner := scenario.NewRunner(s.client, s, nil, &out, discardLogger(), scenario.Config{Payloads: type1(t)})
		report, err := runner.Run(context.Background())
		require.NoError(t, err)
		return report, out.String()
	}

	firstReport, firstOut := run()
	secondReport, secondOut := run()

	assert.Equal(t, firstReport.Initial, secondReport.Initial)
	assert.Equal(t, firstReport.Rectified, secondReport.Rectified)
	assert.Equal(t, firstOut, secondOut)
	assert.NotEqual(t, firstReport.RunID, secondReport.RunID)
}

type fakeRegistrar struct {
	registerResp *domain.RegistrationResponse
	registerErr  error
	rectifyResp  *domain.RegistrationResponse
	rectifyErr   error

	rectifiedDate   string
	rectifiedNumber string
}

func (f *fakeRegistrar) Register(context.Context, domain.Registration) (*domain.RegistrationResponse, error) {
	return f.registerResp, f.registerErr
}

func (f *fakeRegistrar) Rectify(_ context.Context, date, number string, _ domain.Registration) (*domain.RegistrationResponse, error) {
	f.rectifiedDate, f.rectifiedNumber = date, number
	return f.rectifyResp, f.rectifyErr
}

func TestRunFailures(t *testing.T) {
	ref := domain.RegistrationRef{Date: "2016-01-05", Number: "1000"}

	tests := []struct {
		name      string
		registrar *fakeRegistrar
		wantErr   error
	}{
		{
			name:      "register error",
			registrar: &fakeRegistrar{registerErr: &landcharges.APIError{Method: "POST", Path: "/registrations", StatusCode: 500}},
		},
		{
			name:      "empty new_registrations",
			registrar: &fakeRegistrar{registerResp: &domain.RegistrationResponse{Raw: []byte(`{"new_registrations":[]}`)}},
			wantErr:   scenario.ErrNoRegistrations,
		},
		{
			name: "missing number",
			registrar: &fakeRegistrar{registerResp: &domain.RegistrationResponse{
				NewRegistrations: []domain.RegistrationRef{{Date: "2016-01-05"}},
			}},
			wantErr: scenario.ErrIncompleteRegistration,
		},
		{
			name: "rectify error",
			registrar: &fakeRegistrar{
				registerResp: &domain.RegistrationResponse{NewRegistrations: []domain.RegistrationRef{ref}},
				rectifyErr:   errors.New("connection reset"),
			},
		},
		{
			name: "rectified entry incomplete",
			registrar: &fakeRegistrar{
				registerResp: &domain.RegistrationResponse{NewRegistrations: []domain.RegistrationRef{ref}},
				rectifyResp:  &domain.RegistrationResponse{NewRegistrations: []domain.RegistrationRef{{Number: "1001"}}},
			},
			wantErr: scenario.ErrIncompleteRegistration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reports := &recordingReports{}
			runner := scenario.NewRunner(tt.registrar, nil, reports, nil, discardLogger(), scenario.Config{SkipReset: true})

			report, err := runner.Run(context.Background())
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}

			assert.Equal(t, domain.RunStatusFailed, report.Status)
			assert.Equal(t, err.Error(), report.Error)
			require.Len(t, reports.reports, 1, "failed runs are still reported")
		})
	}
}

func TestRunRectifiesFirstRegistration(t *testing.T) {
	registrar := &fakeRegistrar{
		registerResp: &domain.RegistrationResponse{NewRegistrations: []domain.RegistrationRef{
			{Date: "2016-01-05", Number: "1010"},
			{Date: "2016-01-05", Number: "1011"},
		}},
		rectifyResp: &domain.RegistrationResponse{NewRegistrations: []domain.RegistrationRef{
			{Date: "2016-01-06", Number: "1000"},
		}},
	}
	var out bytes.Buffer

	runner := scenario.NewRunner(registrar, nil, nil, &out, discardLogger(), scenario.Config{SkipReset: true})
	_, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "2016-01-05", registrar.rectifiedDate)
	assert.Equal(t, "1010", registrar.rectifiedNumber)
	assert.Equal(t, "{}\n{}\n2016-01-06\n1000\n", out.String())
}

type failingResetter struct{ err error }

func (f failingResetter) Reset(context.Context) error { return f.err }

func TestRunStopsWhenResetFails(t *testing.T) {
	registrar := &fakeRegistrar{}
	boom := errors.New("clear-data: exit 1")

	runner := scenario.NewRunner(registrar, failingResetter{err: boom}, nil, nil, discardLogger(), scenario.Config{})
	report, err := runner.Run(context.Background())

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, domain.RunStatusFailed, report.Status)
	assert.Empty(t, registrar.rectifiedDate)
}

func TestNewRunnerDefaultsOptionalDependencies(t *testing.T) {
	s := newStub(t)

	runner := scenario.NewRunner(s.client, nil, nil, nil, nil, scenario.Config{Payloads: type1(t)})

	report, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusPassed, report.Status)
	assert.Equal(t, scenario.Type1RectificationName, report.Scenario)
	assert.Equal(t, 2, s.register.Len())
}

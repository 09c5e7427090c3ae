package scenario

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"landcharges/assist/internal/domain"
	"landcharges/assist/internal/lib/logger/sl"
	"landcharges/assist/internal/repository"
)

var (
	ErrNoRegistrations        = errors.New("response contained no new_registrations")
	ErrIncompleteRegistration = errors.New("registration is missing date or number")
)

const (
	stepReset    = "reset"
	stepRegister = "register"
	stepRectify  = "rectify"
	stepReport   = "report"
)

// Registrar submits registrations to the land charges API.
type Registrar interface {
	Register(ctx context.Context, reg domain.Registration) (*domain.RegistrationResponse, error)
	Rectify(ctx context.Context, date, number string, reg domain.Registration) (*domain.RegistrationResponse, error)
}

type Resetter interface {
	Reset(ctx context.Context) error
}

type Config struct {
	Name      string
	Payloads  Payloads
	SkipReset bool
}

// Runner executes the register-then-rectify acceptance scenario.
type Runner struct {
	registrar Registrar
	resetter  Resetter
	reports   repository.ReportRepository
	out       io.Writer
	log       *slog.Logger
	cfg       Config

	newID func() string
	now   func() time.Time
}

func NewRunner(
	registrar Registrar,
	resetter Resetter,
	reports repository.ReportRepository,
	out io.Writer,
	log *slog.Logger,
	cfg Config,
) *Runner {
	if reports == nil {
		reports = repository.NopReportRepository{}
	}
	if out == nil {
		out = io.Discard
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if cfg.Name == "" {
		cfg.Name = Type1RectificationName
	}

	return &Runner{
		registrar: registrar,
		resetter:  resetter,
		reports:   reports,
		out:       out,
		log:       log.With("scenario", cfg.Name),
		cfg:       cfg,
		newID:     uuid.NewString,
		now:       time.Now,
	}
}

// Run resets fixtures, registers, rectifies the first registration returned
// and prints the outcome. The report is sent whether or not the run passed.
func (r *Runner) Run(ctx context.Context) (domain.RunReport, error) {
	report := domain.RunReport{
		RunID:     r.newID(),
		Scenario:  r.cfg.Name,
		StartedAt: r.now(),
	}

	log := r.log.With("run_id", report.RunID)
	log.Info("starting scenario")

	err := r.execute(ctx, log, &report)

	report.FinishedAt = r.now()
	report.DurationMs = report.FinishedAt.Sub(report.StartedAt).Milliseconds()
	report.Status = domain.RunStatusPassed
	if err != nil {
		report.Status = domain.RunStatusFailed
		report.Error = err.Error()
	}

	// The run context may already be cancelled; the report still goes out.
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if sendErr := r.reports.SendReport(sendCtx, report); sendErr != nil {
		log.Warn("failed to send report", sl.Err(sendErr))
	}

	if err != nil {
		log.Error("scenario failed", sl.Err(err))
		return report, err
	}

	log.Info("scenario passed", "duration_ms", report.DurationMs)
	return report, nil
}

func (r *Runner) execute(ctx context.Context, log *slog.Logger, report *domain.RunReport) error {
	if r.cfg.SkipReset || r.resetter == nil {
		log.Debug("fixture reset skipped")
	} else {
		r.sendLog(ctx, report.RunID, stepReset, domain.LogLevelInfo, "resetting fixture data")
		if err := r.resetter.Reset(ctx); err != nil {
			r.sendLog(ctx, report.RunID, stepReset, domain.LogLevelError, err.Error())
			return fmt.Errorf("reset fixtures: %w", err)
		}
	}

	r.sendLog(ctx, report.RunID, stepRegister, domain.LogLevelInfo, "posting initial registration")
	initial, err := r.registrar.Register(ctx, r.cfg.Payloads.Initial)
	if err != nil {
		r.sendLog(ctx, report.RunID, stepRegister, domain.LogLevelError, err.Error())
		return fmt.Errorf("register: %w", err)
	}
	report.Initial = initial.NewRegistrations

	if err := r.printRaw(initial); err != nil {
		return err
	}

	target, err := firstRegistration(initial)
	if err != nil {
		r.sendLog(ctx, report.RunID, stepRegister, domain.LogLevelError, err.Error())
		return fmt.Errorf("register: %w", err)
	}
	log.Debug("registration created", "date", target.Date, "number", target.Number.String())

	r.sendLog(ctx, report.RunID, stepRectify, domain.LogLevelInfo,
		fmt.Sprintf("rectifying %s/%s", target.Date, target.Number))
	rectified, err := r.registrar.Rectify(ctx, target.Date, target.Number.String(), r.cfg.Payloads.Rectification)
	if err != nil {
		r.sendLog(ctx, report.RunID, stepRectify, domain.LogLevelError, err.Error())
		return fmt.Errorf("rectify %s/%s: %w", target.Date, target.Number, err)
	}
	report.Rectified = rectified.NewRegistrations

	if err := r.printRaw(rectified); err != nil {
		return err
	}

	for _, ref := range rectified.NewRegistrations {
		if !ref.Complete() {
			r.sendLog(ctx, report.RunID, stepRectify, domain.LogLevelError, ErrIncompleteRegistration.Error())
			return fmt.Errorf("rectify: %w", ErrIncompleteRegistration)
		}
		if _, err := fmt.Fprintf(r.out, "%s\n%s\n", ref.Date, ref.Number); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}

	r.sendLog(ctx, report.RunID, stepReport, domain.LogLevelInfo,
		fmt.Sprintf("rectification produced %d registration(s)", len(rectified.NewRegistrations)))
	return nil
}

func firstRegistration(resp *domain.RegistrationResponse) (domain.RegistrationRef, error) {
	if len(resp.NewRegistrations) == 0 {
		return domain.RegistrationRef{}, ErrNoRegistrations
	}
	first := resp.NewRegistrations[0]
	if !first.Complete() {
		return domain.RegistrationRef{}, ErrIncompleteRegistration
	}
	return first, nil
}

func (r *Runner) printRaw(resp *domain.RegistrationResponse) error {
	raw := bytes.TrimSpace(resp.Raw)
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	if _, err := fmt.Fprintf(r.out, "%s\n", raw); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func (r *Runner) sendLog(ctx context.Context, runID, step string, level domain.LogLevel, message string) {
	entry := domain.LogEntry{
		RunID:     runID,
		Step:      step,
		Level:     level,
		Message:   message,
		Timestamp: r.now(),
	}
	if err := r.reports.SendLog(ctx, entry); err != nil {
		r.log.Warn("failed to send log", "step", step, sl.Err(err))
	}
}

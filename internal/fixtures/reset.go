package fixtures

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"

	"landcharges/assist/internal/lib/logger/sl"
)

// CommandRunner runs a shell command line and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, command string) ([]byte, error)
}

// CommandError describes a fixture command that could not run or exited non-zero.
type CommandError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("command %q failed (exit %d): %v", e.Command, e.ExitCode, e.Err)
	}
	return fmt.Sprintf("command %q failed (exit %d): %v: %s", e.Command, e.ExitCode, e.Err, e.Stderr)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ShellRunner runs commands through sh -c, the way backtick commands behave.
type ShellRunner struct {
	Dir string
}

func (r ShellRunner) Run(ctx context.Context, command string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = r.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return stdout.Bytes(), &CommandError{
			Command:  command,
			ExitCode: exitCode,
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      err,
		}
	}

	return stdout.Bytes(), nil
}

type Config struct {
	ClearCommand string
	SeedCommand  string
	// Strict turns command failures into errors instead of warnings.
	Strict bool
}

// Resetter restores the acceptance data to its baseline: clear, then seed.
type Resetter struct {
	runner CommandRunner
	cfg    Config
	out    io.Writer
	log    *slog.Logger
}

// NewResetter builds a Resetter. Seed output is echoed to out.
func NewResetter(runner CommandRunner, cfg Config, out io.Writer, log *slog.Logger) *Resetter {
	if out == nil {
		out = io.Discard
	}

	return &Resetter{
		runner: runner,
		cfg:    cfg,
		out:    out,
		log:    log,
	}
}

func (r *Resetter) Reset(ctx context.Context) error {
	if r.cfg.ClearCommand != "" {
		r.log.Debug("clearing data", "command", r.cfg.ClearCommand)
		if _, err := r.runner.Run(ctx, r.cfg.ClearCommand); err != nil {
			if handled := r.handle(ctx, "clear", err); handled != nil {
				return handled
			}
		}
	}

	if r.cfg.SeedCommand != "" {
		r.log.Debug("seeding data", "command", r.cfg.SeedCommand)
		out, err := r.runner.Run(ctx, r.cfg.SeedCommand)
		if len(out) > 0 {
			if _, werr := r.out.Write(out); werr != nil {
				return fmt.Errorf("echo seed output: %w", werr)
			}
		}
		if err != nil {
			if handled := r.handle(ctx, "seed", err); handled != nil {
				return handled
			}
		}
	}

	return nil
}

// handle decides whether a failed command aborts the reset. Cancellation
// always does.
func (r *Resetter) handle(ctx context.Context, step string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("fixture %s: %w", step, ctxErr)
	}

	if r.cfg.Strict {
		return fmt.Errorf("fixture %s: %w", step, err)
	}

	r.log.Warn("fixture command failed, continuing", "step", step, sl.Err(err))
	return nil
}

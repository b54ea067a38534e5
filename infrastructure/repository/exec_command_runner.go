package repository

import (
	"context"
	"errors"
	"os/exec"
	"time"

	"github.com/ca-srg/saferestart/domain/repository"
)

// commandWaitDelay bounds how long output pipes stay open after a cancelled command is killed
const commandWaitDelay = 5 * time.Second

// ExecCommandRunner runs programs with os/exec.
type ExecCommandRunner struct{}

// NewExecCommandRunner creates a new ExecCommandRunner
func NewExecCommandRunner() repository.CommandRunner {
	return &ExecCommandRunner{}
}

// Run executes name with args and returns combined stdout/stderr.
// A non-zero exit is reported through exitStatus with a nil error.
func (r *ExecCommandRunner) Run(ctx context.Context, name string, args ...string) (string, int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = commandWaitDelay
	out, err := cmd.CombinedOutput()
	if err == nil {
		return string(out), 0, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return string(out), -1, ctxErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return string(out), exitErr.ExitCode(), nil
	}
	return string(out), -1, err
}

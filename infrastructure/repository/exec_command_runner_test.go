package repository

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecCommandRunner_Success(t *testing.T) {
	requireShell(t)
	runner := NewExecCommandRunner()

	out, status, err := runner.Run(context.Background(), "sh", "-c", "echo 'File Closed: Invoices'")
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Equal(t, "File Closed: Invoices\n", out)
}

func TestExecCommandRunner_NonZeroExit(t *testing.T) {
	requireShell(t)
	runner := NewExecCommandRunner()

	out, status, err := runner.Run(context.Background(), "sh", "-c", "echo 'Error: 10502' >&2; exit 3")
	require.NoError(t, err)
	assert.Equal(t, 3, status)
	assert.Contains(t, out, "Error: 10502")
}

func TestExecCommandRunner_MissingProgram(t *testing.T) {
	runner := NewExecCommandRunner()

	_, status, err := runner.Run(context.Background(), "/nonexistent/saferestart-admin")
	assert.Error(t, err)
	assert.Equal(t, -1, status)
}

func TestExecCommandRunner_ContextTimeout(t *testing.T) {
	requireShell(t)
	runner := NewExecCommandRunner()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, _, err := runner.Run(ctx, "sh", "-c", "exec sleep 5")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

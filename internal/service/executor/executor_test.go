package executor

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestExec_Success captures the output of a successful command.
func TestExec_Success(t *testing.T) {
	t.Parallel()

	out, err := New().Run(context.Background(), "sh", "-c", "echo hello; echo oops >&2")
	require.NoError(t, err)
	require.Contains(t, string(out), "hello")
	require.Contains(t, string(out), "oops")
}

// TestExec_ExitCode propagates the command's own exit code.
func TestExec_ExitCode(t *testing.T) {
	t.Parallel()

	out, err := New().Run(context.Background(), "sh", "-c", "echo broken; exit 7")
	require.Error(t, err)
	require.Contains(t, string(out), "broken")

	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	require.Equal(t, 7, cmdErr.ExitCode)
	require.Equal(t, "sh", cmdErr.Name)

	code, ok := ExitCodeOf(fmt.Errorf("update packages: %w", err))
	require.True(t, ok)
	require.Equal(t, 7, code)
}

// TestExec_NotFound reports a start failure without an exit code.
func TestExec_NotFound(t *testing.T) {
	t.Parallel()

	_, err := New().Run(context.Background(), "definitely-not-a-real-binary-4711")
	require.Error(t, err)

	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	require.Equal(t, -1, cmdErr.ExitCode)

	_, ok := ExitCodeOf(err)
	require.False(t, ok)
}

// TestExec_EnvAndTimeout checks extra environment and the per-command bound.
func TestExec_EnvAndTimeout(t *testing.T) {
	t.Parallel()

	out, err := New(WithEnv("LC_ALL=C", "NODE_PATCH_PROBE=42")).
		Run(context.Background(), "sh", "-c", "echo $NODE_PATCH_PROBE")
	require.NoError(t, err)
	require.Equal(t, "42\n", string(out))

	_, err = New(WithTimeout(50*time.Millisecond)).Run(context.Background(), "sleep", "5")
	require.Error(t, err)
}

// TestExitCodeOf_Plain ignores errors that carry no command.
func TestExitCodeOf_Plain(t *testing.T) {
	t.Parallel()

	_, ok := ExitCodeOf(errors.New("plain"))
	require.False(t, ok)
}

package packages

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/node-patcher/internal/service/executor"
)

// recordingRunner records invocations and fails with the configured error.
type recordingRunner struct {
	// err is returned by Run.
	err error
	// calls records the argv of each invocation.
	calls [][]string
}

func (r *recordingRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	r.calls = append(r.calls, append([]string{name}, args...))

	return nil, r.err
}

// TestManager_UpdateAll runs the configured command once.
func TestManager_UpdateAll(t *testing.T) {
	t.Parallel()

	runner := new(recordingRunner)

	require.NoError(t, NewManager(runner, "dnf", []string{"-y", "update"}).UpdateAll(context.Background()))
	require.Equal(t, [][]string{{"dnf", "-y", "update"}}, runner.calls)
}

// TestManager_UpdateAll_ExitCode keeps the package manager's exit code reachable.
func TestManager_UpdateAll_ExitCode(t *testing.T) {
	t.Parallel()

	runner := &recordingRunner{err: &executor.CommandError{Name: "dnf", ExitCode: 3}}

	err := NewManager(runner, "dnf", []string{"-y", "update"}).UpdateAll(context.Background())
	require.Error(t, err)
	require.Len(t, runner.calls, 1)

	code, ok := executor.ExitCodeOf(err)
	require.True(t, ok)
	require.Equal(t, 3, code)
}

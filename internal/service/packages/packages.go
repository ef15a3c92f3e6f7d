// Package packages updates every installed package through the system
// package manager.
package packages

import (
	"context"
	"fmt"
	"time"

	"github.com/oshokin/node-patcher/internal/logger"
	"github.com/oshokin/node-patcher/internal/service/executor"
)

// Updater brings every package to its latest version.
type Updater interface {
	UpdateAll(ctx context.Context) error
}

// Manager runs `<name> <args...>`, e.g. `dnf -y update`.
type Manager struct {
	// runner executes the package manager.
	runner executor.Runner
	// name is the package manager binary.
	name string
	// args update every package non-interactively.
	args []string
}

// NewManager creates an updater around the given package manager invocation.
func NewManager(runner executor.Runner, name string, args []string) *Manager {
	return &Manager{
		runner: runner,
		name:   name,
		args:   args,
	}
}

// UpdateAll runs the update synchronously. It is never retried: continuing on
// a half-applied package set is unsafe, so the caller must abort on error.
// The returned error wraps an *executor.CommandError carrying the exit code.
func (m *Manager) UpdateAll(ctx context.Context) error {
	logger.InfoKV(ctx, "Updating all packages", "package_manager", m.name, "args", m.args)

	started := time.Now()

	if _, err := m.runner.Run(ctx, m.name, m.args...); err != nil {
		return fmt.Errorf("update packages: %w", err)
	}

	logger.InfoKV(ctx, "Packages updated", "duration", time.Since(started).Round(time.Second).String())

	return nil
}

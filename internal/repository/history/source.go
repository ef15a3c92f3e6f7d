package history

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/oshokin/node-patcher/internal/domain/maintenance"
	"github.com/oshokin/node-patcher/internal/service/executor"
)

// Source returns the most recent package transaction.
type Source interface {
	LastTransaction(ctx context.Context) (*maintenance.Transaction, error)
}

// CommandSource queries the package manager's history through a Runner.
// The runner is expected to force the C locale.
type CommandSource struct {
	// runner executes the history query.
	runner executor.Runner
	// name is the package manager binary.
	name string
	// args select the last transaction, e.g. history info last.
	args []string
	// location interprets the begin time.
	location *time.Location
}

// NewCommandSource creates a history source backed by `<name> <args...>`.
func NewCommandSource(runner executor.Runner, name string, args []string, location *time.Location) *CommandSource {
	if location == nil {
		location = time.Local
	}

	return &CommandSource{
		runner:   runner,
		name:     name,
		args:     args,
		location: location,
	}
}

// LastTransaction runs the history query and parses its report.
func (s *CommandSource) LastTransaction(ctx context.Context) (*maintenance.Transaction, error) {
	output, err := s.runner.Run(ctx, s.name, s.args...)
	if err != nil {
		return nil, fmt.Errorf("query transaction history: %w", err)
	}

	tx, err := Parse(bytes.NewReader(output), s.location)
	if err != nil {
		return nil, fmt.Errorf("parse transaction history: %w", err)
	}

	return tx, nil
}

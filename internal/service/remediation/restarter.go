package remediation

import (
	"context"
	"fmt"
	"io"

	"github.com/oshokin/node-patcher/internal/config"
)

// ClosableRestarter is a Restarter holding a connection.
type ClosableRestarter interface {
	Restarter
	io.Closer
}

// NewRestarter builds the restarter selected by the configuration.
//
//nolint:ireturn // The concrete type depends on configuration.
func NewRestarter(ctx context.Context, cfg config.Restart) (ClosableRestarter, error) {
	switch cfg.Kind {
	case config.RestartKindDocker, "":
		restarter, err := NewDockerRestarter(cfg.Target, cfg.Timeout)
		if err != nil {
			return nil, err
		}

		return restarter, nil
	case config.RestartKindSystemd:
		restarter, err := NewSystemdRestarter(ctx, cfg.Target)
		if err != nil {
			return nil, err
		}

		return restarter, nil
	default:
		return nil, fmt.Errorf("restart kind %q: %w", cfg.Kind, errUnknownRestartKind)
	}
}

package remediation

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-systemd/v22/dbus"

	"github.com/oshokin/node-patcher/internal/logger"
)

// jobDone is the systemd job result of a successful restart.
const jobDone = "done"

// errJobFailed is returned when systemd reports anything but "done".
var errJobFailed = errors.New("systemd job did not complete")

// unitAPI is the part of the systemd D-Bus connection the restarter needs.
type unitAPI interface {
	RestartUnitContext(ctx context.Context, name string, mode string, ch chan<- string) (int, error)
	Close()
}

// SystemdRestarter restarts the node agent unit through systemd.
type SystemdRestarter struct {
	// api is the D-Bus connection to systemd.
	api unitAPI
	// unit is the unit name, e.g. kubelet.service.
	unit string
}

// NewSystemdRestarter connects to the system bus.
func NewSystemdRestarter(ctx context.Context, unit string) (*SystemdRestarter, error) {
	conn, err := dbus.NewWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect to systemd: %w", err)
	}

	return newSystemdRestarter(conn, unit), nil
}

func newSystemdRestarter(api unitAPI, unit string) *SystemdRestarter {
	return &SystemdRestarter{
		api:  api,
		unit: unit,
	}
}

// Restart implements Restarter. It waits for the restart job to finish.
func (s *SystemdRestarter) Restart(ctx context.Context) error {
	results := make(chan string, 1)

	jobID, err := s.api.RestartUnitContext(ctx, s.unit, "replace", results)
	if err != nil {
		return fmt.Errorf("restart unit %s: %w", s.unit, err)
	}

	logger.DebugKV(ctx, "Restart job queued", "unit", s.unit, "job_id", jobID)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case result := <-results:
		if result != jobDone {
			return fmt.Errorf("restart unit %s: %s: %w", s.unit, result, errJobFailed)
		}
	}

	return nil
}

// Name implements Restarter.
func (s *SystemdRestarter) Name() string {
	return "unit/" + s.unit
}

// Close releases the D-Bus connection.
func (s *SystemdRestarter) Close() error {
	s.api.Close()

	return nil
}

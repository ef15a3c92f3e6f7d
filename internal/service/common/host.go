//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/host"
)

// Host describes the node a maintenance pass runs on.
type Host struct {
	// Hostname is the node name.
	Hostname string
	// Platform is the distribution, e.g. rocky.
	Platform string
	// PlatformVersion is the distribution release, e.g. 9.4.
	PlatformVersion string
	// KernelVersion is the running kernel release.
	KernelVersion string
	// BootTime is when the node last booted.
	BootTime time.Time
}

// Uptime returns how long the node has been running at now.
func (h *Host) Uptime(now time.Time) time.Duration {
	if h.BootTime.IsZero() {
		return 0
	}

	return now.Sub(h.BootTime).Truncate(time.Second)
}

// KV returns the host facts as logger key-value pairs.
func (h *Host) KV() []any {
	return []any{
		"hostname", h.Hostname,
		"platform", h.Platform + " " + h.PlatformVersion,
		"kernel", h.KernelVersion,
		"uptime", h.Uptime(time.Now()).String(),
	}
}

// DetectHost gathers host facts for the run log.
func DetectHost(ctx context.Context) (*Host, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("host info: %w", err)
	}

	return &Host{
		Hostname:        info.Hostname,
		Platform:        info.Platform,
		PlatformVersion: info.PlatformVersion,
		KernelVersion:   info.KernelVersion,
		BootTime:        time.Unix(int64(info.BootTime), 0), //nolint:gosec // Boot time fits in int64.
	}, nil
}

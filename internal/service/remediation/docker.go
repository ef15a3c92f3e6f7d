package remediation

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/docker/docker/api/types/container"
	dockerclient "github.com/docker/docker/client"

	"github.com/oshokin/node-patcher/internal/logger"
)

// containerAPI is the part of the Docker Engine client the restarter needs.
type containerAPI interface {
	ContainerRestart(ctx context.Context, containerID string, options container.StopOptions) error
	Close() error
}

// DockerRestarter restarts the runtime-managed node agent container.
type DockerRestarter struct {
	// api talks to the Docker Engine.
	api containerAPI
	// container is the container name or ID.
	container string
	// stopTimeout is how long the container may take to stop.
	stopTimeout time.Duration
}

// NewDockerRestarter connects to the Docker Engine configured by the environment
// (DOCKER_HOST and friends) and negotiates the API version.
func NewDockerRestarter(containerName string, stopTimeout time.Duration) (*DockerRestarter, error) {
	cli, err := dockerclient.NewClientWithOpts(dockerclient.FromEnv, dockerclient.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}

	return newDockerRestarter(cli, containerName, stopTimeout), nil
}

func newDockerRestarter(api containerAPI, containerName string, stopTimeout time.Duration) *DockerRestarter {
	return &DockerRestarter{
		api:         api,
		container:   containerName,
		stopTimeout: stopTimeout,
	}
}

// Restart implements Restarter.
func (d *DockerRestarter) Restart(ctx context.Context) error {
	timeout := int(math.Ceil(d.stopTimeout.Seconds()))

	logger.DebugKV(ctx, "Restarting container", "container", d.container, "stop_timeout", timeout)

	if err := d.api.ContainerRestart(ctx, d.container, container.StopOptions{Timeout: &timeout}); err != nil {
		return fmt.Errorf("restart container %s: %w", d.container, err)
	}

	return nil
}

// Name implements Restarter.
func (d *DockerRestarter) Name() string {
	return "container/" + d.container
}

// Close releases the Docker client.
func (d *DockerRestarter) Close() error {
	return d.api.Close()
}

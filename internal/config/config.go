package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/node-patcher/internal/domain/maintenance"
)

// Restart kinds supported by the remediation loop.
const (
	// RestartKindDocker restarts a container through the Docker Engine API.
	RestartKindDocker = "docker"
	// RestartKindSystemd restarts a unit through the systemd D-Bus API.
	RestartKindSystemd = "systemd"
)

// Config holds everything a maintenance pass needs to know about the host.
type Config struct {
	// PackageManager is the package manager binary.
	PackageManager string `yaml:"package_manager"`
	// UpdateArgs are passed to PackageManager to update every package.
	UpdateArgs []string `yaml:"update_args"`
	// HistoryArgs are passed to PackageManager to print the last transaction.
	HistoryArgs []string `yaml:"history_args"`
	// NeedsRestarting is the argv of the staleness query.
	NeedsRestarting []string `yaml:"needs_restarting"`
	// EssentialPackages are the name prefixes whose upgrade forces a reboot.
	EssentialPackages []string `yaml:"essential_packages"`
	// RequiredArtifacts are the files the node agent creates once it is healthy.
	RequiredArtifacts []string `yaml:"required_artifacts"`
	// Retry bounds the remediation loop.
	Retry Retry `yaml:"retry"`
	// Reboot configures the delayed shutdown.
	Reboot Reboot `yaml:"reboot"`
	// Restart names the service restarted by the remediation loop.
	Restart Restart `yaml:"restart"`
	// MetricsTextfile is an optional node-exporter textfile collector target.
	MetricsTextfile string `yaml:"metrics_textfile,omitempty"`
	// CommandTimeout bounds every external query; the package update is never bounded.
	CommandTimeout time.Duration `yaml:"command_timeout,omitempty"`
}

// Retry is the YAML form of maintenance.RetryBudget.
type Retry struct {
	// MaxAttempts is the number of restart-and-wait cycles.
	MaxAttempts *int `yaml:"max_attempts"`
	// Delay is the settle time after each restart; nil means the default, zero means none.
	Delay *time.Duration `yaml:"delay"`
}

// Reboot configures the shutdown request.
type Reboot struct {
	// Grace is how long the host keeps running after the request. Rounded up to minutes.
	Grace time.Duration `yaml:"grace"`
}

// Restart configures which service the remediation loop restarts.
type Restart struct {
	// Kind is either "docker" or "systemd".
	Kind string `yaml:"kind"`
	// Target is the container name or unit name.
	Target string `yaml:"target"`
	// Timeout is how long the service may take to stop before it is killed.
	Timeout time.Duration `yaml:"timeout"`
}

const (
	// DefaultPackageManager is the RHEL-family package manager.
	DefaultPackageManager = "dnf"

	// DefaultMaxAttempts is two because the kubelet reliably recreates its
	// sockets only after the second restart following a docker-ce upgrade.
	DefaultMaxAttempts = 2

	// DefaultRetryDelay is the settle time after each kubelet restart.
	DefaultRetryDelay = 60 * time.Second

	// DefaultRebootGrace is the shortest delay shutdown accepts in minutes.
	DefaultRebootGrace = time.Minute

	// DefaultRestartTarget is the name of the runtime-managed node agent.
	DefaultRestartTarget = "kubelet"

	// DefaultRestartTimeout is how long the node agent may take to stop.
	DefaultRestartTimeout = 30 * time.Second

	// DefaultFilePermissions is the permission of saved config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errUnknownRestartKind is returned for restart kinds other than docker and systemd.
	errUnknownRestartKind = errors.New("unknown restart kind")
	// errNegativeValue is returned for negative counters and durations.
	errNegativeValue = errors.New("value must not be negative")
	// errRelativeArtifact is returned for artifact paths that are not absolute.
	errRelativeArtifact = errors.New("artifact path must be absolute")
)

// DefaultEssentialPackages returns the container runtime packages whose upgrade
// leaves the node in a state only a reboot repairs.
func DefaultEssentialPackages() []string {
	return []string{"containerd.io", "docker-ce", "docker-buildx-plugin"}
}

// DefaultRequiredArtifacts returns the sockets the kubelet creates once its
// device-plugin and pod-resources servers are up.
func DefaultRequiredArtifacts() []string {
	return []string{
		"/var/lib/kubelet/device-plugins/kubelet.sock",
		"/var/lib/kubelet/pod-resources/kubelet.sock",
	}
}

// Default returns a configuration with every field set to its default.
func Default() *Config {
	cfg := new(Config)

	//nolint:errcheck // Defaults always validate.
	_ = Validate(cfg)

	return cfg
}

// Load reads configuration from the provided path and validates it.
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err = yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err = Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err = os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills defaults into unset fields and rejects values no run could use.
//
//nolint:cyclop // A flat list of field checks reads better than helpers.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.PackageManager == "" {
		cfg.PackageManager = DefaultPackageManager
	}

	if len(cfg.UpdateArgs) == 0 {
		cfg.UpdateArgs = []string{"-y", "update"}
	}

	if len(cfg.HistoryArgs) == 0 {
		cfg.HistoryArgs = []string{"history", "info", "last"}
	}

	if len(cfg.NeedsRestarting) == 0 {
		cfg.NeedsRestarting = []string{"needs-restarting", "-r"}
	}

	// A nil list means "not configured"; an explicit empty list disables escalation.
	if cfg.EssentialPackages == nil {
		cfg.EssentialPackages = DefaultEssentialPackages()
	}

	if cfg.RequiredArtifacts == nil {
		cfg.RequiredArtifacts = DefaultRequiredArtifacts()
	}

	for _, path := range cfg.RequiredArtifacts {
		if !filepath.IsAbs(path) {
			return fmt.Errorf("%q: %w", path, errRelativeArtifact)
		}
	}

	if cfg.Retry.MaxAttempts == nil {
		attempts := DefaultMaxAttempts
		cfg.Retry.MaxAttempts = &attempts
	}

	if *cfg.Retry.MaxAttempts < 0 {
		return fmt.Errorf("retry.max_attempts: %w", errNegativeValue)
	}

	if cfg.Retry.Delay == nil {
		delay := DefaultRetryDelay
		cfg.Retry.Delay = &delay
	}

	if *cfg.Retry.Delay < 0 {
		return fmt.Errorf("retry.delay: %w", errNegativeValue)
	}

	if cfg.Reboot.Grace <= 0 {
		cfg.Reboot.Grace = DefaultRebootGrace
	}

	switch cfg.Restart.Kind {
	case "":
		cfg.Restart.Kind = RestartKindDocker
	case RestartKindDocker, RestartKindSystemd:
	default:
		return fmt.Errorf("restart.kind %q: %w", cfg.Restart.Kind, errUnknownRestartKind)
	}

	if cfg.Restart.Target == "" {
		cfg.Restart.Target = DefaultRestartTarget
	}

	if cfg.Restart.Timeout <= 0 {
		cfg.Restart.Timeout = DefaultRestartTimeout
	}

	if cfg.CommandTimeout < 0 {
		return fmt.Errorf("command_timeout: %w", errNegativeValue)
	}

	return nil
}

// Prefixes returns the essential package prefix set.
func (c *Config) Prefixes() maintenance.PrefixSet {
	return maintenance.PrefixSet(c.EssentialPackages)
}

// Artifacts returns the required artifact set.
func (c *Config) Artifacts() maintenance.ArtifactSet {
	return maintenance.ArtifactSet(c.RequiredArtifacts)
}

// RetryBudget returns the remediation loop bounds.
func (c *Config) RetryBudget() maintenance.RetryBudget {
	var budget maintenance.RetryBudget

	if c.Retry.MaxAttempts != nil {
		budget.MaxAttempts = *c.Retry.MaxAttempts
	}

	if c.Retry.Delay != nil {
		budget.Delay = *c.Retry.Delay
	}

	return budget
}

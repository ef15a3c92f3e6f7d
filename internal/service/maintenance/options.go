package maintenance

import (
	"errors"
	"fmt"
)

// Policy selects the reboot decision and the follow-up when no reboot is needed.
type Policy string

const (
	// PolicyStaged checks staleness, then today's essential package upgrades,
	// and never remediates.
	PolicyStaged Policy = "staged"
	// PolicyStalenessOnly checks staleness alone and falls back to the
	// remediation loop when no reboot is needed.
	PolicyStalenessOnly Policy = "staleness-only"
)

var (
	// errUnknownPolicy is returned for policies other than the two above.
	errUnknownPolicy = errors.New("unknown policy")
	// ErrNoRequiredArtifacts is returned when a remediating policy has no
	// artifact to tell a healthy node agent from a broken one.
	ErrNoRequiredArtifacts = errors.New("remediation needs at least one required artifact")
)

// Remediates reports whether the policy runs the remediation loop.
func (p Policy) Remediates() bool {
	return p == PolicyStalenessOnly
}

// Validate rejects unknown policies.
func (p Policy) Validate() error {
	switch p {
	case PolicyStaged, PolicyStalenessOnly:
		return nil
	default:
		return fmt.Errorf("%q: %w", string(p), errUnknownPolicy)
	}
}

// Options are the inputs accepted by the maintenance entry point.
type Options struct {
	// ConfigPath is the YAML configuration; empty means defaults.
	ConfigPath string
	// Policy selects the reboot policy.
	Policy Policy
	// DryRun computes and logs the decision without rebooting or restarting.
	DryRun bool
	// Force skips the single-instance guard.
	Force bool
	// Name is the logger name, usually the binary name.
	Name string
}

package maintenance

// Reason explains why a decision was reached.
type Reason string

const (
	// ReasonStaleness means the kernel or loaded libraries are older than the installed ones.
	ReasonStaleness Reason = "staleness"
	// ReasonEssentialPackage means a package from the essential prefix set was upgraded today.
	ReasonEssentialPackage Reason = "essential-package"
	// ReasonStaleTransaction means the last transaction did not happen today.
	ReasonStaleTransaction Reason = "stale-transaction"
	// ReasonNone means no signal asked for a reboot.
	ReasonNone Reason = "none"
)

// Decision is the outcome of a reboot policy.
type Decision struct {
	// Reboot is true when the node must be restarted.
	Reboot bool
	// Reason names the signal behind the decision.
	Reason Reason
	// Detail carries the matched package line or other evidence, if any.
	Detail string
}

// RebootFor builds a positive decision.
func RebootFor(reason Reason, detail string) Decision {
	return Decision{Reboot: true, Reason: reason, Detail: detail}
}

// NoReboot builds a negative decision.
func NoReboot(reason Reason) Decision {
	return Decision{Reboot: false, Reason: reason}
}

// Outcome is how a maintenance pass ended.
type Outcome string

const (
	// OutcomeRebooting means a delayed reboot was scheduled.
	OutcomeRebooting Outcome = "rebooting"
	// OutcomeNothingToDo means the node is healthy without further action.
	OutcomeNothingToDo Outcome = "nothing-to-do"
	// OutcomeRemediated means the remediation loop brought the artifacts back.
	OutcomeRemediated Outcome = "remediated"
	// OutcomeRemediationFailed means the artifacts never appeared.
	OutcomeRemediationFailed Outcome = "remediation-failed"
	// OutcomeUpdateFailed means the package update itself failed.
	OutcomeUpdateFailed Outcome = "update-failed"
	// OutcomeRebootFailed means the reboot could not be scheduled.
	OutcomeRebootFailed Outcome = "reboot-failed"
	// OutcomeDryRun means the decision was computed but not acted upon.
	OutcomeDryRun Outcome = "dry-run"
)

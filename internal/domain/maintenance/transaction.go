package maintenance

import (
	"strings"
	"time"
)

// UpgradeAction is the history marker of a package that was brought to a newer version.
// The matching "Upgraded" marker names the version that was replaced.
const UpgradeAction = "Upgrade"

// Action is one package line of a transaction report.
type Action struct {
	// Kind is the action marker, e.g. Upgrade, Upgraded, Install.
	Kind string
	// Package is the identifier following the marker, e.g. docker-ce-3:27.1.2-1.el9.x86_64.
	Package string
	// Repository is the trailing origin field when present, e.g. @docker-ce-stable.
	Repository string
	// Line is the original line with surrounding whitespace removed.
	Line string
}

// Transaction is the most recent package-manager transaction.
type Transaction struct {
	// ID is the history identifier, zero when the report did not contain one.
	ID int
	// BeginTime is when the transaction started.
	BeginTime time.Time
	// Actions lists the package lines in report order.
	Actions []Action
}

// BeganOn reports whether the transaction started on the same calendar day as now,
// evaluated in now's location.
func (t *Transaction) BeganOn(now time.Time) bool {
	if t == nil || t.BeginTime.IsZero() {
		return false
	}

	begin := t.BeginTime.In(now.Location())

	by, bm, bd := begin.Date()
	ny, nm, nd := now.Date()

	return by == ny && bm == nm && bd == nd
}

// Upgrades returns the actions carrying the Upgrade marker.
func (t *Transaction) Upgrades() []Action {
	if t == nil {
		return nil
	}

	upgrades := make([]Action, 0, len(t.Actions))

	for _, action := range t.Actions {
		if action.Kind == UpgradeAction {
			upgrades = append(upgrades, action)
		}
	}

	return upgrades
}

// PrefixSet is an ordered list of package name prefixes whose upgrade warrants a reboot.
type PrefixSet []string

// Match returns the first prefix the upgrade starts with.
// The check is case-sensitive and runs against everything after the action marker,
// so version and repository text take part in it as well.
func (s PrefixSet) Match(action Action) (string, bool) {
	subject := strings.TrimSpace(strings.TrimPrefix(action.Line, action.Kind))
	if subject == "" {
		subject = action.Package
	}

	for _, prefix := range s {
		if prefix == "" {
			continue
		}

		if strings.HasPrefix(subject, prefix) {
			return prefix, true
		}
	}

	return "", false
}

// ArtifactSet is an ordered list of absolute paths expected to exist once the
// node agent has initialized.
type ArtifactSet []string

// RetryBudget bounds the remediation loop.
type RetryBudget struct {
	// MaxAttempts is the number of restart-and-wait cycles.
	MaxAttempts int
	// Delay is the fixed settle time after each restart.
	Delay time.Duration
}

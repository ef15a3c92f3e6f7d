// Package decider holds the two reboot policies of the node-patch binaries.
//
// Staged (reboot-only deployments) first asks the staleness query and, when it
// finds nothing, escalates if today's transaction upgraded an essential
// package. StalenessOnly (deployments with the remediation fallback) relies on
// the staleness query alone. The two are kept apart on purpose: they are
// paired with different remediation strategies.
package decider

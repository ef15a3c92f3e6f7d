// Package history reads the most recent package transaction from the package
// manager's history log and parses its human-readable report.
package history

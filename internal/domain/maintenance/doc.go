// Package maintenance contains the domain types of a single maintenance pass:
// the package transaction read from history, the configured prefix and artifact
// sets, the retry budget of the remediation loop and the decisions taken.
package maintenance

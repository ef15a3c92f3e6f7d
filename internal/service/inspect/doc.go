// Package inspect prints a read-only preview of a maintenance pass: host
// facts, the last package transaction, the required artifacts and the
// decision the configured policy would reach.
package inspect

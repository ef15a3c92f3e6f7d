// Package executor runs external commands for the maintenance services and
// reports their exit codes as CommandError values. With TRACE=1 every
// invocation is logged together with its output.
package executor

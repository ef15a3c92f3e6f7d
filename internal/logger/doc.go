// Package logger wraps zap for the node-patch binaries:
//   - a global sugared logger writing a compact console format to stdout,
//   - context helpers (ToContext/FromContext/WithName/WithKV) so every step of a
//     maintenance pass logs with the same run_id and policy fields,
//   - TRACE=1 support which lowers the level to debug and exposes command tracing.
package logger

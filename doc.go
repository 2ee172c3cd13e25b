// Package goLogin provides an MFA login automation engine: TOTP secret
// provisioning from enrollment artifacts, deterministic one-time code
// generation, and time-bounded detection of MFA completion against a
// pluggable browser probe.
//
// The package is the public surface. It exposes [Engine], [Builder],
// [Config], and value types (Outcome, LoginResult, MetricsSnapshot, etc.).
// Flow orchestration and secret persistence live under internal/ and are
// never exported; probe adapters live in their own subpackages.
//
// # Architecture boundaries
//
//   - The engine never owns a browser. It drives any [probe.Probe]
//     implementation and assumes exclusive ownership for the duration of
//     one login run.
//   - Detection is pure polling: fixed priority signals, one evaluation
//     per tick, a hard deadline. No signal handler mutates another's
//     state.
//   - Secrets flow through a secrets store; the engine never writes
//     files or network backends directly.
//
// # What this package must NOT do
//
//   - Log, audit, or embed a full TOTP secret anywhere (masked rendering
//     only).
//   - Retry inside the probe or detection layers; the attempt budget is
//     the orchestrator's alone.
//   - Import any sub-package that re-imports goLogin (no import cycles).
package goLogin

// Package refresh provides the Redis-backed store of opaque rotating
// refresh tokens and their revocation state.
//
// # Record lifecycle
//
// Records are created active, retired exactly once by the revocation
// transition (terminal on logout, forward-linked on rotation), and
// removed by Redis key expiry when their lifetime elapses. Rotation is
// a single Lua compare-and-swap that revokes the predecessor and
// persists the successor atomically, so two concurrent rotations of one
// token produce exactly one winner.
//
// # Architecture boundaries
//
// This package owns the [Store] and the [Token] record. It resolves and
// mutates records; it does not mint access tokens, consult user state,
// or decide how a replay signal is answered; those belong to the
// Engine.
//
// # What this package must NOT do
//
//   - Store a plaintext token value (records are keyed by SHA-256 hash).
//   - Import authcore, jwt, or blacklist (no upward imports).
//   - Reactivate an inactive record under any circumstance.
package refresh

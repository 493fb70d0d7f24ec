// Package rate provides Redis-backed fixed-window counters that throttle
// refresh-token rotation attempts.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key prefix:
//   - arl: rotation attempts per token hash
//
// # What this package must NOT do
//
//   - Decide whether a token is valid (that is the refresh store's job).
//   - Be imported outside the authcore module.
package rate

// Package blacklist provides the Redis-backed set of explicitly revoked
// access tokens.
//
// # Entry lifetime
//
// Each entry's TTL equals the revoked token's own exp claim, not a fixed
// window. An entry therefore lives exactly as long as the token it
// blocks could still verify, and storage cleanup can never re-admit a
// revoked token.
//
// # Architecture boundaries
//
// This package owns the [Store] and the [Entry] record. It decides
// nothing: whether a token should be blacklisted, and what a hit means,
// belongs to the Engine.
//
// # What this package must NOT do
//
//   - Verify token signatures (entries are created from tokens the
//     Engine has already judged).
//   - Store a raw token value (keys are SHA-256 hashes).
//   - Import authcore or refresh.
package blacklist

// Package authcore implements the authentication token lifecycle:
// issuance of short-lived signed access tokens paired with long-lived
// opaque refresh tokens, single-use rotation with replacement chains,
// explicit revocation through a self-expiring blacklist, and
// defense-in-depth invalidation on password change or account lock.
//
// The package is designed for concurrent server workloads: Engine
// methods are safe to call from multiple goroutines after
// initialization through [Builder.Build]. The engine holds no
// process-wide state; every store and signing handle is injected at
// construction.
//
// # Architecture boundaries
//
// authcore is the public surface: [Engine], [Builder], [Config], the
// closed error set, and value types. Token signing lives in jwt,
// persistence in refresh and blacklist, device classification in
// device. Login, registration, user storage, and HTTP routing are
// external collaborators reached through [UserProvider] and the
// middleware package.
//
// # What this package must NOT do
//
//   - Own user records or password hashes (it reads user state and
//     writes nothing but the best-effort last-active touch).
//   - Hold locks across store calls: every pipeline step is a single
//     atomic store operation.
//   - Return an authorization failure for an infrastructure outage
//     (those are always [ErrStoreUnavailable]).
package authcore

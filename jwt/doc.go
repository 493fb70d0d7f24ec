// Package jwt wraps github.com/golang-jwt/jwt/v5 behind a small [Manager]
// that mints and verifies access tokens with a fixed claim shape
// (subject, role, iat, exp, optional iss/aud).
//
// # Error discipline
//
// Parse failures surface as golang-jwt/v5 error values. Callers classify
// them with errors.Is against jwt.ErrTokenExpired,
// jwt.ErrTokenSignatureInvalid, and jwt.ErrTokenMalformed, never by
// inspecting error strings.
//
// # Architecture boundaries
//
// This package owns signing, verification, and unverified claim decoding.
// Blacklist lookups, user-state checks, and revocation policy belong to
// the Engine.
//
// # What this package must NOT do
//
//   - Access Redis or any I/O.
//   - Import authcore, refresh, or blacklist.
//   - Decide whether a structurally valid token is acceptable.
package jwt

// Package middleware provides net/http integration for authcore.
//
// [Guard] wraps a handler chain with the full verification pipeline and
// attaches the verified [authcore.Identity], including the raw bearer
// token, to the request context for downstream handlers.
//
// # What this package must NOT do
//
//   - Implement verification policy (it only maps Engine results to
//     status codes).
//   - Leak the rejection cause to the client beyond the status code.
package middleware

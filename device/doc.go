// Package device classifies client devices from User-Agent strings into a
// closed platform set (Desktop, Mobile, Tablet) and browser family set
// (Chrome, Firefox, Safari, Edge, Unknown).
//
// Classification is best-effort session metadata: it labels refresh-token
// records so users can recognize their own sessions. It is never a
// security check.
//
// # What this package must NOT do
//
//   - Influence any authorization or rotation decision.
//   - Import authcore or any store package.
package device

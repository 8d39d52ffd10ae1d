// Package pacing spaces outbound authentication calls so the client does
// not trip backend rate limiting.
//
// # Design
//
// A token bucket (golang.org/x/time/rate) provides the steady-state budget.
// On top of it sits an exponential penalty that doubles every time the
// caller observes a RateLimited outcome and resets on the first success.
// This replaces fixed pre/post-call sleeps with a policy that only slows
// down when the backend actually pushed back.
//
// # What this package must NOT do
//
//   - Retry anything. It only delays; the caller decides whether to call.
//   - Inspect errors. The caller classifies outcomes and reports them here.
package pacing

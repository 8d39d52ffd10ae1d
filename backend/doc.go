// Package backend implements the HTTP client for the remote authentication
// service consumed by tenauth: the identity probe, the tenant-scoped login
// call, company switching, and the profile write-through endpoints.
//
// # Architecture boundaries
//
// This package owns the wire contract: request/response DTOs, JSON encoding,
// and the translation of non-2xx responses into [*APIError]. It performs no
// session bookkeeping and holds no state beyond the configured [net/http.Client].
//
// # What this package must NOT do
//
//   - Persist anything. Storage belongs to the session package.
//   - Classify failures into user-facing categories. Callers use
//     tenauth.Classify on the errors returned here.
//   - Import tenauth or any sibling package (no import cycles).
package backend

// Package session provides durable persistence of the current stored session
// (access token plus serialized user object) and the single sealed biometric
// credential slot, namespaced per deployment environment.
//
// # Design
//
// Exactly one stored session exists per store. A save supersedes the prior
// value; the token write is awaited before the user write, so a crash between
// the two can leave partial state. Callers must treat partial state as
// unauthenticated (the engine's Restore does).
//
// Two backends implement [Store]: [RedisStore] for deployments with a local
// redis, and [SQLiteStore] for single-file on-device persistence.
//
// # What this package must NOT do
//
//   - Interpret the user payload. It stores opaque bytes; the root package
//     owns (de)serialization.
//   - Seal or unseal credentials. The vault package owns secret handling;
//     this package only provides the slot.
package session

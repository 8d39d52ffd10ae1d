// Package tenauth implements client-side session establishment and
// multi-tenant selection for applications talking to a remote
// authentication backend: credential probing, the zero/one/many-company
// selection state machine, tenant-scoped login completion, durable session
// persistence, biometric re-authentication, and post-login company
// switching.
//
// The package is designed around one explicit service object: [Engine] is
// built once through [Builder.Build], restored from durable storage with
// [Engine.Restore], and disposed with [Engine.Close]. There is no ambient
// global state.
//
// # Architecture boundaries
//
// tenauth is the public surface. It exposes [Engine], [Builder], [Config],
// [LoginFlow], the failure taxonomy, and value types. The wire contract
// lives in backend/, durable persistence in session/, the biometric
// credential cache in vault/, and non-exported coordination (pacing, audit
// event model) under internal/.
//
// # What this package must NOT do
//
//   - Verify passwords or issue tokens. The backend owns both; tokens are
//     opaque here beyond best-effort claim inspection.
//   - Hold a plaintext password at rest. Only the vault's sealed slot may
//     carry credentials between sessions.
//   - Retry classified failures. Pacing delays calls; it never replays them.
package tenauth

// Package vault implements the biometric-gated credential cache: a single
// slot holding one sealed email/password pair, released only after a
// successful on-device biometric check.
//
// # Design
//
// The OS biometric capability is abstracted behind [Provider]; durable
// storage behind [SecretStore]. Credentials are sealed with
// chacha20poly1305 under a key derived (HKDF-SHA256) from an
// embedder-supplied device key, so application-managed storage never holds
// the plaintext password. Unlocking the vault does not itself authenticate
// anything: the released credentials still go through the normal login
// pipeline.
//
// # What this package must NOT do
//
//   - Talk to the authentication backend.
//   - Keep more than one cached credential; Save always overwrites.
package vault

// Package crypto exposes the primitives used by the signaling layer.
//
// Contents
//
//   - Curve25519 key pair generation and validation (GenerateKeyPair,
//     PublicFromSecret, ValidIdentity)
//   - The sealed envelope (Seal, Open): authenticated encryption bound to a
//     recipient that recovers a verified sender key on open
//   - Short public-key fingerprints for display/logging (Fingerprint)
//   - Best-effort memory wiping for sensitive byte slices (Wipe)
//
// # Notes
//
// Keys are fixed-size array types from internal/domain, so no function here
// accepts or returns a key of the wrong length. Every failure of Seal or Open
// wraps ErrCryptography.
package crypto

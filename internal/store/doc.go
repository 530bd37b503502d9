// Package store provides file-based persistence for the settings, contacts
// and call history.
//
// The whole database lives in one JSON document under the user's configured
// home directory. With a passphrase it is sealed with ChaCha20-Poly1305 under
// an scrypt-derived key; a wrong passphrase yields ErrWrongPassphrase, never a
// parse error. Writes go through a temp file and an atomic rename. All methods
// are concurrency-safe via internal locking.
package store

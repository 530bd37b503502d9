package crypto

import "github.com/tunermason/SC/internal/util/memzero"

// Wipe zeroes the provided buffer. This is best-effort and aims to
// reduce the lifetime of key material in memory.
func Wipe(b []byte) { memzero.Zero(b) }

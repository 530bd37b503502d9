// Package memzero clears secret material from memory.
package memzero

import "runtime"

// Zero overwrites b with zeros.
func Zero(b []byte) {
	clear(b)
	runtime.KeepAlive(b)
}

// Key zeroes a 32-byte key in place.
func Key(k *[32]byte) {
	if k == nil {
		return
	}
	Zero(k[:])
}

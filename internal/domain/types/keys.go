package types

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// KeySize is the length in bytes of both halves of a key pair.
const KeySize = 32

// PublicKey is a contact's long-term Curve25519 public key.
type PublicKey [KeySize]byte

// Slice returns the key as a []byte.
func (p PublicKey) Slice() []byte { return p[:] }

// IsZero reports whether p is the all-zero key.
func (p PublicKey) IsZero() bool { return p == PublicKey{} }

// String returns the upper-case hex encoding of p.
func (p PublicKey) String() string { return strings.ToUpper(hex.EncodeToString(p[:])) }

// MarshalText encodes p as upper-case hex.
func (p PublicKey) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText decodes hex in either case.
func (p *PublicKey) UnmarshalText(b []byte) error {
	k, err := ParsePublicKey(string(b))
	if err != nil {
		return err
	}
	*p = k
	return nil
}

// ParsePublicKey decodes a hex public key, rejecting any other length.
func ParsePublicKey(s string) (PublicKey, error) {
	var p PublicKey
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return p, fmt.Errorf("invalid public key: %w", err)
	}
	if len(b) != KeySize {
		return p, fmt.Errorf("invalid public key: %d bytes, want %d", len(b), KeySize)
	}
	copy(p[:], b)
	return p, nil
}

// SecretKey is the local Curve25519 secret key.
type SecretKey [KeySize]byte

// Slice returns the key as a []byte.
func (k SecretKey) Slice() []byte { return k[:] }

// MarshalText encodes k as upper-case hex.
func (k SecretKey) MarshalText() ([]byte, error) {
	return []byte(strings.ToUpper(hex.EncodeToString(k[:]))), nil
}

// UnmarshalText decodes hex in either case.
func (k *SecretKey) UnmarshalText(b []byte) error {
	raw, err := hex.DecodeString(string(b))
	if err != nil {
		return fmt.Errorf("invalid secret key: %w", err)
	}
	if len(raw) != KeySize {
		return fmt.Errorf("invalid secret key: %d bytes, want %d", len(raw), KeySize)
	}
	copy(k[:], raw)
	return nil
}

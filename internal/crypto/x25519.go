package crypto

import (
	"crypto/rand"
	"crypto/subtle"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/nacl/box"

	"github.com/tunermason/SC/internal/domain"
	"github.com/tunermason/SC/internal/util/memzero"
)

// GenerateKeyPair returns a fresh Curve25519 key pair suitable for Seal/Open.
func GenerateKeyPair() (domain.Identity, error) {
	pub, sec, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return domain.Identity{}, err
	}
	id := domain.Identity{PublicKey: *pub, SecretKey: *sec}
	memzero.Key(sec)
	return id, nil
}

// PublicFromSecret derives the public half of sec.
func PublicFromSecret(sec domain.SecretKey) (domain.PublicKey, error) {
	var pub domain.PublicKey
	pb, err := curve25519.X25519(sec.Slice(), curve25519.Basepoint)
	if err != nil {
		return pub, err
	}
	copy(pub[:], pb)
	return pub, nil
}

// ValidIdentity reports whether id holds a consistent, non-zero key pair.
func ValidIdentity(id domain.Identity) bool {
	if id.PublicKey.IsZero() {
		return false
	}
	pub, err := PublicFromSecret(id.SecretKey)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(pub[:], id.PublicKey[:]) == 1
}

package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/nacl/box"

	"github.com/tunermason/SC/internal/domain"
	"github.com/tunermason/SC/internal/util/memzero"
)

const (
	nonceSize = 24

	// MaxMessageSize bounds the plaintext accepted by Seal.
	MaxMessageSize = 1024 * 1024

	// Overhead is the number of bytes Seal adds to a plaintext.
	Overhead = box.AnonymousOverhead + domain.KeySize + nonceSize + box.Overhead
)

// ErrCryptography is returned for every sealing or opening failure. Callers
// never learn which check failed.
var ErrCryptography = errors.New("cryptography error")

// Opened is the result of a successful Open.
type Opened struct {
	Plaintext []byte
	// Sender is the public key whose secret half sealed the message.
	Sender domain.PublicKey
}

// Seal encrypts plaintext for recipient and authenticates it as coming from
// the sender key pair.
//
// The message is boxed from sender to recipient, prefixed with the sender
// public key and nonce, and the whole is wrapped in an anonymous sealed box so
// that only the recipient can learn who sent it.
func Seal(plaintext []byte, recipient domain.PublicKey, sender domain.Identity) ([]byte, error) {
	if len(plaintext) > MaxMessageSize {
		return nil, fmt.Errorf("%w: message too large", ErrCryptography)
	}
	if recipient.IsZero() {
		return nil, fmt.Errorf("%w: malformed recipient key", ErrCryptography)
	}
	if !ValidIdentity(sender) {
		return nil, fmt.Errorf("%w: inconsistent sender key pair", ErrCryptography)
	}

	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCryptography, err)
	}

	recipientKey := [domain.KeySize]byte(recipient)
	senderSecret := [domain.KeySize]byte(sender.SecretKey)
	defer memzero.Key(&senderSecret)

	inner := make([]byte, 0, domain.KeySize+nonceSize+len(plaintext)+box.Overhead)
	inner = append(inner, sender.PublicKey[:]...)
	inner = append(inner, nonce[:]...)
	inner = box.Seal(inner, plaintext, &nonce, &recipientKey, &senderSecret)

	out, err := box.SealAnonymous(nil, inner, &recipientKey, rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCryptography, err)
	}
	return out, nil
}

// Open decrypts a message sealed for own and recovers the sender key.
func Open(ciphertext []byte, own domain.Identity) (Opened, error) {
	if len(ciphertext) < Overhead {
		return Opened{}, fmt.Errorf("%w: message too short", ErrCryptography)
	}

	ownPublic := [domain.KeySize]byte(own.PublicKey)
	ownSecret := [domain.KeySize]byte(own.SecretKey)
	defer memzero.Key(&ownSecret)

	inner, ok := box.OpenAnonymous(nil, ciphertext, &ownPublic, &ownSecret)
	if !ok {
		return Opened{}, fmt.Errorf("%w: authentication failed", ErrCryptography)
	}

	var (
		sender [domain.KeySize]byte
		nonce  [nonceSize]byte
	)
	copy(sender[:], inner[:domain.KeySize])
	copy(nonce[:], inner[domain.KeySize:domain.KeySize+nonceSize])

	plaintext, ok := box.Open(nil, inner[domain.KeySize+nonceSize:], &nonce, &sender, &ownSecret)
	if !ok {
		return Opened{}, fmt.Errorf("%w: sender authentication failed", ErrCryptography)
	}
	if plaintext == nil {
		plaintext = []byte{}
	}
	return Opened{Plaintext: plaintext, Sender: domain.PublicKey(sender)}, nil
}

package identity

import (
	"errors"
	"fmt"
	"unicode"

	"github.com/tunermason/SC/internal/crypto"
	"github.com/tunermason/SC/internal/domain"
	"github.com/tunermason/SC/internal/store"
)

const (
	// minPassphraseLength defines the minimum number of characters required for a passphrase.
	minPassphraseLength = 12
)

var (
	// ErrWeakPassphrase is returned when a non-empty passphrase fails the strength policy.
	ErrWeakPassphrase = fmt.Errorf(
		"passphrase is too weak (must be at least %d characters and include upper, lower, "+
			"number, and symbol)",
		minPassphraseLength,
	)

	// ErrNoIdentity is returned when the database holds no usable key pair.
	ErrNoIdentity = errors.New("no identity; run init first")
)

// Service manages the local key pair kept in the database settings.
type Service struct {
	store domain.DatabaseStore
}

// New returns an identity service backed by the given store.
func New(s domain.DatabaseStore) *Service { return &Service{store: s} }

// GenerateIdentity creates a new key pair, saves it into the database (creating
// the database if needed) and returns it with its fingerprint.
//
// An empty passphrase stores the database unencrypted.
func (s *Service) GenerateIdentity(passphrase string) (domain.Identity, domain.Fingerprint, error) {
	if passphrase != "" && !isSecurePassphrase(passphrase) {
		return domain.Identity{}, "", ErrWeakPassphrase
	}

	db, err := s.store.LoadDatabase(passphrase)
	switch {
	case errors.Is(err, store.ErrNoDatabase):
		db = domain.Database{Settings: domain.DefaultSettings()}
	case err != nil:
		return domain.Identity{}, "", err
	}

	id, err := crypto.GenerateKeyPair()
	if err != nil {
		return domain.Identity{}, "", err
	}
	db.Settings.PublicKey = id.PublicKey
	db.Settings.SecretKey = id.SecretKey
	if err := s.store.SaveDatabase(passphrase, db); err != nil {
		return domain.Identity{}, "", err
	}
	return id, crypto.Fingerprint(id.PublicKey), nil
}

// LoadIdentity decrypts the database and returns the local key pair.
func (s *Service) LoadIdentity(passphrase string) (domain.Identity, error) {
	db, err := s.store.LoadDatabase(passphrase)
	if err != nil {
		return domain.Identity{}, err
	}
	id := db.Settings.Identity()
	if !crypto.ValidIdentity(id) {
		return domain.Identity{}, ErrNoIdentity
	}
	return id, nil
}

// FingerprintIdentity returns a short fingerprint of the local public key.
func (s *Service) FingerprintIdentity(passphrase string) (domain.Fingerprint, error) {
	id, err := s.LoadIdentity(passphrase)
	if err != nil {
		return "", err
	}
	return crypto.Fingerprint(id.PublicKey), nil
}

// isSecurePassphrase enforces a basic strength policy.
func isSecurePassphrase(passphrase string) bool {
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	if len(passphrase) < minPassphraseLength {
		return false
	}
	for _, r := range passphrase {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			hasSymbol = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSymbol
}

// Compile-time assertion that Service implements domain.IdentityService.
var _ domain.IdentityService = (*Service)(nil)

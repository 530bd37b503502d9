package contacts

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/tunermason/SC/internal/address"
	"github.com/tunermason/SC/internal/domain"
)

var (
	ErrInvalidName      = errors.New("invalid contact name")
	ErrInvalidKey       = errors.New("invalid contact public key")
	ErrDuplicateContact = errors.New("contact already exists")
	ErrUnknownContact   = errors.New("unknown contact")
)

var namePattern = regexp.MustCompile(`^\w[\w _-]{1,22}\w$`)

// ValidName reports whether name is 3-24 word characters, spaces, dashes or
// underscores, starting and ending with a word character.
func ValidName(name string) bool { return namePattern.MatchString(name) }

// Validate returns c with its addresses normalized, or an error describing
// the first invalid field.
func Validate(c domain.Contact) (domain.Contact, error) {
	if !ValidName(c.Name) {
		return c, fmt.Errorf("%w: %q", ErrInvalidName, c.Name)
	}
	if c.PublicKey.IsZero() {
		return c, ErrInvalidKey
	}
	addrs, err := address.NormalizeAll(c.Addresses)
	if err != nil {
		return c, err
	}
	c = c.Clone()
	c.Addresses = addrs
	c.State = domain.StatePending
	c.LastWorkingAddress = ""
	return c, nil
}

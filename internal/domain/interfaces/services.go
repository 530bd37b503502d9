package interfaces

import (
	"context"

	domaintypes "github.com/tunermason/SC/internal/domain/types"
)

// IdentityService creates and inspects the local key pair.
type IdentityService interface {
	GenerateIdentity(passphrase string) (domaintypes.Identity, domaintypes.Fingerprint, error)
	LoadIdentity(passphrase string) (domaintypes.Identity, error)
	FingerprintIdentity(passphrase string) (domaintypes.Fingerprint, error)
}

// ContactBook is the shared, synchronized view of known contacts.
//
// Lookups return copies; mutations of unknown keys are ignored.
type ContactBook interface {
	Contacts() []domaintypes.Contact
	Lookup(pub domaintypes.PublicKey) (domaintypes.Contact, bool)
	SetState(pub domaintypes.PublicKey, state domaintypes.ContactState)
	SetStates(states map[domaintypes.PublicKey]domaintypes.ContactState)
	SetLastWorkingAddress(pub domaintypes.PublicKey, addr string)
}

// AddressResolver turns a contact into an ordered list of host:port candidates.
type AddressResolver interface {
	Candidates(contact domaintypes.Contact, useNeighborTable bool) []string
}

// MediaEngine negotiates the media session once signaling has succeeded.
// Offers and answers are opaque strings.
type MediaEngine interface {
	CreateOffer(ctx context.Context) (string, error)
	CreateAnswer(ctx context.Context, offer string) (string, error)
	SetAnswer(answer string) error
	// Disconnected is closed when an established media session drops.
	Disconnected() <-chan struct{}
	Close() error
}

// MediaProvider builds one MediaEngine per call.
type MediaProvider interface {
	NewMedia(settings domaintypes.Settings) (MediaEngine, error)
}

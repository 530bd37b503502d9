package domain

import (
	interfaces "github.com/tunermason/SC/internal/domain/interfaces"
	types "github.com/tunermason/SC/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	PublicKey    = types.PublicKey
	SecretKey    = types.SecretKey
	Identity     = types.Identity
	Fingerprint  = types.Fingerprint
	Contact      = types.Contact
	ContactState = types.ContactState
	CallState    = types.CallState
	Settings     = types.Settings
	Event        = types.Event
	EventType    = types.EventType
	Database     = types.Database
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	IdentityService = interfaces.IdentityService
	ContactBook     = interfaces.ContactBook
	AddressResolver = interfaces.AddressResolver
	MediaEngine     = interfaces.MediaEngine
	MediaProvider   = interfaces.MediaProvider
	DatabaseStore   = interfaces.DatabaseStore
	EventRecorder   = interfaces.EventRecorder
)

// Contact states.
const (
	StatePending = types.StatePending
	StateOnline  = types.StateOnline
	StateOffline = types.StateOffline
	StateBroken  = types.StateBroken
)

// Call states.
const (
	CallWaiting             = types.CallWaiting
	CallConnecting          = types.CallConnecting
	CallRinging             = types.CallRinging
	CallConnected           = types.CallConnected
	CallDismissed           = types.CallDismissed
	CallEnded               = types.CallEnded
	CallErrorAuthentication = types.CallErrorAuthentication
	CallErrorCryptography   = types.CallErrorCryptography
	CallErrorConnectPort    = types.CallErrorConnectPort
	CallErrorUnknownHost    = types.CallErrorUnknownHost
	CallErrorNoConnection   = types.CallErrorNoConnection
	CallErrorNoAddresses    = types.CallErrorNoAddresses
	CallErrorOther          = types.CallErrorOther
)

// Call history event types.
const (
	EventOutgoingAccepted = types.EventOutgoingAccepted
	EventOutgoingMissed   = types.EventOutgoingMissed
	EventOutgoingError    = types.EventOutgoingError
	EventIncomingAccepted = types.EventIncomingAccepted
	EventIncomingMissed   = types.EventIncomingMissed
	EventIncomingError    = types.EventIncomingError
)

const (
	// KeySize is the length of public and secret keys.
	KeySize = types.KeySize
	// DefaultConnectTimeout is the per-address connect timeout in milliseconds.
	DefaultConnectTimeout = types.DefaultConnectTimeout
)

// ParsePublicKey decodes a hex public key.
func ParsePublicKey(s string) (PublicKey, error) { return types.ParsePublicKey(s) }

// DefaultSettings returns the settings of a fresh database.
func DefaultSettings() Settings { return types.DefaultSettings() }

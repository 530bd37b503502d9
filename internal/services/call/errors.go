package call

import (
	"errors"

	"github.com/tunermason/SC/internal/crypto"
	"github.com/tunermason/SC/internal/domain"
	"github.com/tunermason/SC/internal/protocol/signaling"
	"github.com/tunermason/SC/internal/services/connect"
)

var (
	// ErrBusy is returned when the call slot is already occupied.
	ErrBusy = errors.New("another call is active")

	// ErrInvalidState is returned by Accept and Decline outside RINGING.
	ErrInvalidState = errors.New("operation not valid in current call state")
)

// StateForError maps an error that ended a call to its terminal state.
func StateForError(err error) domain.CallState {
	var ce *connect.ConnectError
	switch {
	case errors.As(err, &ce):
		switch ce.Class {
		case connect.ClassRefused:
			return domain.CallErrorConnectPort
		case connect.ClassUnknownHost:
			return domain.CallErrorUnknownHost
		case connect.ClassTimeout:
			return domain.CallErrorNoConnection
		case connect.ClassNoCandidates:
			return domain.CallErrorNoAddresses
		}
	case errors.Is(err, signaling.ErrAuthentication):
		return domain.CallErrorAuthentication
	case errors.Is(err, crypto.ErrCryptography):
		return domain.CallErrorCryptography
	}
	return domain.CallErrorOther
}

package types

// CallState is the state of one call session.
type CallState int

const (
	CallWaiting CallState = iota
	CallConnecting
	CallRinging
	CallConnected
	CallDismissed
	CallEnded
	CallErrorAuthentication
	CallErrorCryptography
	CallErrorConnectPort
	CallErrorUnknownHost
	CallErrorNoConnection
	CallErrorNoAddresses
	CallErrorOther
)

var callStateNames = [...]string{
	CallWaiting:             "WAITING",
	CallConnecting:          "CONNECTING",
	CallRinging:             "RINGING",
	CallConnected:           "CONNECTED",
	CallDismissed:           "DISMISSED",
	CallEnded:               "ENDED",
	CallErrorAuthentication: "ERROR_AUTHENTICATION",
	CallErrorCryptography:   "ERROR_CRYPTOGRAPHY",
	CallErrorConnectPort:    "ERROR_CONNECT_PORT",
	CallErrorUnknownHost:    "ERROR_UNKNOWN_HOST",
	CallErrorNoConnection:   "ERROR_NO_CONNECTION",
	CallErrorNoAddresses:    "ERROR_NO_ADDRESSES",
	CallErrorOther:          "ERROR_OTHER",
}

func (s CallState) String() string {
	if s < 0 || int(s) >= len(callStateNames) {
		return "UNKNOWN"
	}
	return callStateNames[s]
}

// IsTerminal reports whether no further transition may leave s.
func (s CallState) IsTerminal() bool { return s >= CallDismissed }

// IsError reports whether s is one of the abnormal terminal states.
func (s CallState) IsError() bool { return s >= CallErrorAuthentication }

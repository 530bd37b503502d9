package call

import "github.com/tunermason/SC/internal/domain"

// EventKind is something that happened to a call.
type EventKind int

const (
	// EventDialed: a stream to the peer is open.
	EventDialed EventKind = iota
	// EventRinging: the callee is alerting its user.
	EventRinging
	// EventAnswered: the callee accepted and the answer was applied.
	EventAnswered
	// EventDismissed: either side hung up or declined.
	EventDismissed
	// EventMediaDown: the established media session dropped.
	EventMediaDown
	// EventFailed: an error ended the call; Failure holds the ERROR_* state.
	EventFailed
)

// Event is one input to the state machine.
type Event struct {
	Kind    EventKind
	Failure domain.CallState
}

// Next returns the state after ev, and false if ev is not valid in from.
// Terminal states accept no events.
func Next(from domain.CallState, ev Event) (domain.CallState, bool) {
	if from.IsTerminal() {
		return from, false
	}
	switch ev.Kind {
	case EventDialed:
		if from == domain.CallWaiting {
			return domain.CallConnecting, true
		}
	case EventRinging:
		if from == domain.CallConnecting {
			return domain.CallRinging, true
		}
	case EventAnswered:
		if from == domain.CallRinging {
			return domain.CallConnected, true
		}
	case EventMediaDown:
		if from == domain.CallConnected {
			return domain.CallEnded, true
		}
	case EventDismissed:
		return domain.CallDismissed, true
	case EventFailed:
		if ev.Failure.IsError() {
			return ev.Failure, true
		}
		return domain.CallErrorOther, true
	}
	return from, false
}

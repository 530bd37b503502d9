package signaling

import (
	"encoding/json"
	"fmt"
)

// Action names one step of the signaling exchange.
type Action string

const (
	ActionCall         Action = "call"
	ActionRinging      Action = "ringing"
	ActionConnected    Action = "connected"
	ActionDismissed    Action = "dismissed"
	ActionDetach       Action = "detach"
	ActionPing         Action = "ping"
	ActionPong         Action = "pong"
	ActionStatusChange Action = "status_change"
)

// StatusOffline is the only status announced today.
const StatusOffline = "offline"

// Message is the plaintext of one frame.
type Message struct {
	Action Action `json:"action"`
	Offer  string `json:"offer,omitempty"`
	Answer string `json:"answer,omitempty"`
	Status string `json:"status,omitempty"`
}

func Call(offer string) Message       { return Message{Action: ActionCall, Offer: offer} }
func Ringing() Message                { return Message{Action: ActionRinging} }
func Connected(answer string) Message { return Message{Action: ActionConnected, Answer: answer} }
func Dismissed() Message              { return Message{Action: ActionDismissed} }
func Detach() Message                 { return Message{Action: ActionDetach} }
func Ping() Message                   { return Message{Action: ActionPing} }
func Pong() Message                   { return Message{Action: ActionPong} }
func StatusChange(s string) Message   { return Message{Action: ActionStatusChange, Status: s} }

// Validate checks the fields required by known actions. Unknown actions are
// left for the caller to reject.
func (m Message) Validate() error {
	switch m.Action {
	case "":
		return fmt.Errorf("%w: missing action", ErrProtocol)
	case ActionCall:
		if m.Offer == "" {
			return fmt.Errorf("%w: call without offer", ErrProtocol)
		}
	case ActionConnected:
		if m.Answer == "" {
			return fmt.Errorf("%w: connected without answer", ErrProtocol)
		}
	case ActionStatusChange:
		if m.Status == "" {
			return fmt.Errorf("%w: status_change without status", ErrProtocol)
		}
	}
	return nil
}

func decodeMessage(b []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	if err := m.Validate(); err != nil {
		return Message{}, err
	}
	return m, nil
}

package types

import "time"

// EventType classifies a finished call.
type EventType string

const (
	EventOutgoingAccepted EventType = "OUTGOING_ACCEPTED"
	EventOutgoingMissed   EventType = "OUTGOING_MISSED"
	EventOutgoingError    EventType = "OUTGOING_ERROR"
	EventIncomingAccepted EventType = "INCOMING_ACCEPTED"
	EventIncomingMissed   EventType = "INCOMING_MISSED"
	EventIncomingError    EventType = "INCOMING_ERROR"
)

// Event is one entry of the call history.
type Event struct {
	PublicKey PublicKey `json:"public_key"`
	Address   string    `json:"address"`
	Type      EventType `json:"type"`
	Date      time.Time `json:"date"`
}

// Database is everything persisted for one user.
type Database struct {
	Version  string    `json:"version"`
	Settings Settings  `json:"settings"`
	Contacts []Contact `json:"contacts"`
	Events   []Event   `json:"events"`
}
